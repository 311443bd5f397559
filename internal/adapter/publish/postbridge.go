package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/port"
)

// PostBridge publishes drafts to platforms with a programmatic publish
// path via the Post-Bridge scheduling API.
type PostBridge struct {
	baseURL    string
	apiKey     string
	accounts   map[string]int // platform -> connected social account id
	httpClient *http.Client
}

var _ port.Publisher = (*PostBridge)(nil)

// NewPostBridge creates a Post-Bridge publisher. The accounts map binds
// platform names to connected Post-Bridge social account ids.
func NewPostBridge(baseURL, apiKey string, accounts map[string]int, timeout time.Duration) *PostBridge {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &PostBridge{
		baseURL:    baseURL,
		apiKey:     apiKey,
		accounts:   accounts,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Kind returns the direct destination kind.
func (p *PostBridge) Kind() string { return domain.DestinationDirect }

// platformAliases normalizes the platform names projects use.
var platformAliases = map[string]string{
	"x":  "twitter",
	"fb": "facebook",
}

// Publish creates a post on the draft's platform. A duplicate-post
// response from the API is treated as success.
func (p *PostBridge) Publish(ctx context.Context, draft domain.Draft) (*port.PublishResult, error) {
	platform := strings.ToLower(draft.Platform)
	if canonical, ok := platformAliases[platform]; ok {
		platform = canonical
	}

	account, ok := p.accounts[platform]
	if !ok {
		return nil, fmt.Errorf("post-bridge: no account connected for platform %q", platform)
	}

	payload := map[string]interface{}{
		"caption":         draft.Content,
		"social_accounts": []int{account},
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/posts", bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post-bridge publish: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusConflict || isDuplicate(body) {
		return &port.PublishResult{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("post-bridge API error (%d): %s", resp.StatusCode, string(body))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("post-bridge decode: %w", err)
	}
	return &port.PublishResult{ExternalPostID: created.ID}, nil
}

func isDuplicate(body []byte) bool {
	var resp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return false
	}
	msg := strings.ToLower(resp.Message + " " + resp.Error)
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "already exists")
}
