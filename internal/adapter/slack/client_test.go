package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/port"
)

func testDraft(id, platform string) domain.Draft {
	return domain.Draft{
		ID: id, ProjectID: "p1", Platform: platform,
		Content:       "We shipped dark mode.",
		Destination:   domain.Destination{Kind: domain.DestinationDirect},
		ApprovalState: domain.StatePending,
		GeneratedAt:   time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestPresentSingleDraft(t *testing.T) {
	var captured map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		assert.Equal(t, "Bearer xoxb-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok": true, "channel": "C123", "ts": "167.001",
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "xoxb-test", "social", 5*time.Second)

	ref, err := c.Present(context.Background(), []domain.Draft{testDraft("d1", "twitter")}, "")
	require.NoError(t, err)
	assert.Equal(t, port.MessageRef{Channel: "C123", Timestamp: "167.001"}, ref)

	// Empty channel falls back to the default.
	var channel string
	require.NoError(t, json.Unmarshal(captured["channel"], &channel))
	assert.Equal(t, "social", channel)

	// The single-draft preview carries approve/edit/skip buttons.
	assert.Contains(t, string(captured["blocks"]), "approve_post")
	assert.Contains(t, string(captured["blocks"]), "edit_post")
	assert.Contains(t, string(captured["blocks"]), "skip_post")
	assert.Contains(t, string(captured["blocks"]), "d1")
}

func TestPresentBatchCarriesApproveAll(t *testing.T) {
	var captured map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "channel": "C123", "ts": "167.002"})
	}))
	defer server.Close()

	c := NewClient(server.URL, "xoxb-test", "social", 5*time.Second)

	drafts := []domain.Draft{testDraft("d1", "twitter"), testDraft("d2", "linkedin")}
	_, err := c.Present(context.Background(), drafts, "launches")
	require.NoError(t, err)

	blocks := string(captured["blocks"])
	assert.Contains(t, blocks, "approve_all")
	assert.Contains(t, blocks, "approve_d1")
	assert.Contains(t, blocks, "skip_d2")

	var channel string
	require.NoError(t, json.Unmarshal(captured["channel"], &channel))
	assert.Equal(t, "launches", channel)
}

func TestPresentSlackError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error": "channel_not_found"})
	}))
	defer server.Close()

	c := NewClient(server.URL, "xoxb-test", "social", 5*time.Second)

	_, err := c.Present(context.Background(), []domain.Draft{testDraft("d1", "twitter")}, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestUpdateRewritesMessage(t *testing.T) {
	var captured map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.update", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
	}))
	defer server.Close()

	c := NewClient(server.URL, "xoxb-test", "social", 5*time.Second)

	draft := testDraft("d1", "twitter")
	draft.ApprovalState = domain.StatePublished
	err := c.Update(context.Background(), port.MessageRef{Channel: "C123", Timestamp: "167.001"}, draft)
	require.NoError(t, err)

	var ts string
	require.NoError(t, json.Unmarshal(captured["ts"], &ts))
	assert.Equal(t, "167.001", ts)
	assert.Contains(t, string(captured["text"]), "published")
}
