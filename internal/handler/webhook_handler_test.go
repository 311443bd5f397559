package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shippost/shippost/internal/domain"
)

func githubPush(repo string, commits ...map[string]interface{}) []byte {
	payload, _ := json.Marshal(map[string]interface{}{
		"repository": map[string]string{"full_name": repo},
		"commits":    commits,
	})
	return payload
}

func pushCommitJSON(id, message, author string) map[string]interface{} {
	return map[string]interface{}{
		"id":        id,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"author":    map[string]string{"name": author},
		"added":     []string{"a.go"},
		"modified":  []string{"b.go"},
	}
}

func postJSON(t *testing.T, ta *testApp, path string, body []byte, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := ta.app.Test(req)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestGitHubPushPerCommitFlow(t *testing.T) {
	ta := newTestApp("")
	require.NoError(t, ta.addProject(domain.Project{
		ID: "p1", Name: "Acme", Repo: "org/app",
		Brand:         domain.Brand{Name: "Acme", Platforms: []string{"twitter"}, AccountHandle: "@acme"},
		PostFrequency: domain.FrequencyPerCommit,
		Active:        true,
	}))

	body := githubPush("org/app", pushCommitJSON("c1", "feat: add dark mode", "ana"))
	resp, decoded := postJSON(t, ta, "/api/webhooks/github", body, map[string]string{"X-GitHub-Event": "push"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, float64(1), decoded["postsGenerated"])

	require.Len(t, ta.channel.presented, 1)
	draft := ta.channel.presented[0][0]
	assert.Equal(t, "twitter", draft.Platform)
	assert.Equal(t, domain.StatePending, draft.ApprovalState)
	assert.LessOrEqual(t, len([]rune(draft.Content)), 280)

	unprocessed, err := ta.db.UnprocessedSince(context.Background(), "p1", time.Time{})
	require.NoError(t, err)
	assert.Empty(t, unprocessed)
}

func TestGitHubPushFiltersCommits(t *testing.T) {
	ta := newTestApp("")
	require.NoError(t, ta.addProject(domain.Project{
		ID: "p1", Name: "Acme", Repo: "org/app",
		PostFrequency: domain.FrequencyDailyDigest,
		Active:        true,
	}))

	body := githubPush("org/app",
		pushCommitJSON("c1", "Merge pull request #1 from org/feature", "ana"),
		pushCommitJSON("c2", "fix: bug [skip-post]", "ana"),
		pushCommitJSON("c3", "chore: deps", "dependabot[bot]"),
		pushCommitJSON("c4", "feat: add search", "ana"),
	)
	resp, decoded := postJSON(t, ta, "/api/webhooks/github", body, map[string]string{"X-GitHub-Event": "push"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), decoded["commitsStored"])

	unprocessed, err := ta.db.UnprocessedSince(context.Background(), "p1", time.Time{})
	require.NoError(t, err)
	require.Len(t, unprocessed, 1)
	assert.Equal(t, "c4", unprocessed[0].ID)
}

func TestGitHubPushUnconfiguredRepoAnswers200(t *testing.T) {
	ta := newTestApp("")

	body := githubPush("org/unknown", pushCommitJSON("c1", "feat: x", "ana"))
	resp, decoded := postJSON(t, ta, "/api/webhooks/github", body, map[string]string{"X-GitHub-Event": "push"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "repository not configured", decoded["message"])
}

func TestGitHubNonPushEventIgnored(t *testing.T) {
	ta := newTestApp("")

	resp, decoded := postJSON(t, ta, "/api/webhooks/github", []byte(`{}`),
		map[string]string{"X-GitHub-Event": "ping"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decoded["message"], "ignored event")
}

func TestGitHubSignatureEnforced(t *testing.T) {
	ta := newTestApp("s3cret")
	body := githubPush("org/app", pushCommitJSON("c1", "feat: x", "ana"))

	// No signature.
	resp, _ := postJSON(t, ta, "/api/webhooks/github", body, map[string]string{"X-GitHub-Event": "push"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Bad signature.
	resp, _ = postJSON(t, ta, "/api/webhooks/github", body, map[string]string{
		"X-GitHub-Event":      "push",
		"X-Hub-Signature-256": "sha256=deadbeef",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Valid signature.
	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(body)
	resp, _ = postJSON(t, ta, "/api/webhooks/github", body, map[string]string{
		"X-GitHub-Event":      "push",
		"X-Hub-Signature-256": "sha256=" + hex.EncodeToString(mac.Sum(nil)),
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGitLabPush(t *testing.T) {
	ta := newTestApp("")
	require.NoError(t, ta.addProject(domain.Project{
		ID: "p1", Name: "Acme", Repo: "group/app",
		PostFrequency: domain.FrequencyDailyDigest,
		Active:        true,
	}))

	payload, _ := json.Marshal(map[string]interface{}{
		"project": map[string]string{"path_with_namespace": "group/app"},
		"commits": []map[string]interface{}{pushCommitJSON("c1", "feat: gitlab side", "ana")},
	})
	resp, decoded := postJSON(t, ta, "/api/webhooks/gitlab", payload,
		map[string]string{"X-Gitlab-Event": "Push Hook"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), decoded["commitsStored"])
}

func TestWebhookTestIngest(t *testing.T) {
	ta := newTestApp("")
	require.NoError(t, ta.addProject(domain.Project{
		ID: "p1", Name: "Acme", Repo: "org/app",
		Brand:  domain.Brand{Platforms: []string{"twitter"}},
		Active: true,
	}))

	payload, _ := json.Marshal(map[string]interface{}{
		"projectId": "p1",
		"commits":   []map[string]interface{}{pushCommitJSON("c1", "feat: manual test", "ana")},
		"immediate": true,
	})
	resp, decoded := postJSON(t, ta, "/api/webhooks/test", payload, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, float64(1), decoded["postsGenerated"])
	assert.Len(t, ta.channel.presented, 1)
}

func TestWebhookGenerate(t *testing.T) {
	ta := newTestApp("")
	require.NoError(t, ta.addProject(domain.Project{
		ID: "p1", Name: "Acme", Repo: "org/app",
		Brand:  domain.Brand{Platforms: []string{"twitter"}},
		Active: true,
	}))
	_, err := ta.db.Record(context.Background(), domain.Commit{
		ID: "c1", ProjectID: "p1", Message: "feat: backlog item", Timestamp: time.Now(),
	})
	require.NoError(t, err)

	resp, decoded := postJSON(t, ta, "/api/webhooks/generate", []byte(`{"projectId":"p1"}`), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["success"])

	resp, _ = postJSON(t, ta, "/api/webhooks/generate", []byte(`{"projectId":"nope"}`), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
