package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shippost/shippost/internal/domain"
)

func slackAction(t *testing.T, ta *testApp, actionID string, value interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	rawValue, err := json.Marshal(value)
	require.NoError(t, err)

	payload, err := json.Marshal(map[string]interface{}{
		"type": "block_actions",
		"actions": []map[string]string{
			{"action_id": actionID, "value": string(rawValue)},
		},
		"channel": map[string]string{"id": "C123"},
		"message": map[string]string{"ts": "167.001"},
		"user":    map[string]string{"username": "reviewer"},
	})
	require.NoError(t, err)

	form := url.Values{"payload": {string(payload)}}
	req := httptest.NewRequest(http.MethodPost, "/api/slack/actions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ta.app.Test(req)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestSlackApproveButton(t *testing.T) {
	ta := newTestApp("")
	seedDraft(t, ta, directTestDraft("d1"))

	resp, decoded := slackAction(t, ta, "approve_post", map[string]string{"draft_id": "d1", "platform": "twitter"})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), decoded["resolved"])

	stored, err := ta.db.GetDraft(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePublished, stored.ApprovalState)

	// The originating message was rewritten with the new state.
	require.Len(t, ta.channel.updated, 1)
	assert.Equal(t, domain.StatePublished, ta.channel.updated[0].ApprovalState)
}

func TestSlackSkipButtonPerDraftID(t *testing.T) {
	ta := newTestApp("")
	seedDraft(t, ta, directTestDraft("d1"))

	resp, _ := slackAction(t, ta, "skip_d1", map[string]string{"draft_id": "d1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := ta.db.GetDraft(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateSkipped, stored.ApprovalState)
}

func TestSlackApproveAll(t *testing.T) {
	ta := newTestApp("")
	seedDraft(t, ta, directTestDraft("d1"))
	seedDraft(t, ta, directTestDraft("d2"))

	resp, decoded := slackAction(t, ta, "approve_all", map[string][]string{"draft_ids": {"d1", "d2"}})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), decoded["resolved"])
	assert.Len(t, ta.pub.published, 2)
}

func TestSlackEditButtonPointsAtRestEndpoint(t *testing.T) {
	ta := newTestApp("")
	seedDraft(t, ta, directTestDraft("d1"))

	resp, decoded := slackAction(t, ta, "edit_post", map[string]string{"draft_id": "d1"})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decoded["text"], "/api/drafts/d1/resolve")

	// The draft itself stays pending.
	stored, err := ta.db.GetDraft(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePending, stored.ApprovalState)
}

func TestSlackMalformedPayload(t *testing.T) {
	ta := newTestApp("")

	req := httptest.NewRequest(http.MethodPost, "/api/slack/actions", strings.NewReader("payload=not-json"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := ta.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/slack/actions", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = ta.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSlackUnknownAction(t *testing.T) {
	ta := newTestApp("")

	resp, _ := slackAction(t, ta, "launch_rockets", map[string]string{"draft_id": "d1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
