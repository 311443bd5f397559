package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/port"
)

// Client posts draft previews to Slack with approve/edit/skip buttons and
// updates them as drafts move through the approval state machine.
type Client struct {
	baseURL        string
	token          string
	defaultChannel string
	httpClient     *http.Client
}

var _ port.ApprovalChannel = (*Client)(nil)

// NewClient creates a Slack approval channel client.
func NewClient(baseURL, token, defaultChannel string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:        baseURL,
		token:          token,
		defaultChannel: defaultChannel,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

var platformEmoji = map[string]string{
	"twitter":   ":bird:",
	"linkedin":  ":briefcase:",
	"facebook":  ":mega:",
	"instagram": ":camera:",
}

// Present renders drafts in the channel with action buttons. One draft gets
// a single preview; multiple drafts get one batch message with per-draft
// buttons plus an approve-all button.
func (c *Client) Present(ctx context.Context, drafts []domain.Draft, channel string) (port.MessageRef, error) {
	if channel == "" {
		channel = c.defaultChannel
	}

	var (
		text   string
		blocks []block
	)
	if len(drafts) == 1 {
		text = fmt.Sprintf("New %s post ready", drafts[0].Platform)
		blocks = previewBlocks(drafts[0])
	} else {
		text = fmt.Sprintf("%d posts ready for review", len(drafts))
		blocks = batchBlocks(drafts)
	}

	body, err := c.post(ctx, "/chat.postMessage", map[string]interface{}{
		"channel": channel,
		"text":    text,
		"blocks":  blocks,
	})
	if err != nil {
		return port.MessageRef{}, fmt.Errorf("slack present: %w", err)
	}

	var resp struct {
		OK      bool   `json:"ok"`
		Channel string `json:"channel"`
		TS      string `json:"ts"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return port.MessageRef{}, fmt.Errorf("slack decode: %w", err)
	}
	if !resp.OK {
		return port.MessageRef{}, fmt.Errorf("slack present: %s", resp.Error)
	}
	return port.MessageRef{Channel: resp.Channel, Timestamp: resp.TS}, nil
}

// Update rewrites a previously posted message to reflect the draft's state.
func (c *Client) Update(ctx context.Context, ref port.MessageRef, draft domain.Draft) error {
	statusEmoji := map[string]string{
		domain.StateApproved:  ":white_check_mark:",
		domain.StatePublished: ":rocket:",
		domain.StateSkipped:   ":fast_forward:",
		domain.StateFailed:    ":x:",
	}
	emoji, ok := statusEmoji[draft.ApprovalState]
	if !ok {
		emoji = ":grey_question:"
	}

	preview := draft.Content
	if len(preview) > 50 {
		preview = preview[:50] + "..."
	}

	body, err := c.post(ctx, "/chat.update", map[string]interface{}{
		"channel": ref.Channel,
		"ts":      ref.Timestamp,
		"text":    fmt.Sprintf("Post %s: %s", draft.ApprovalState, preview),
		"blocks": []block{
			section(fmt.Sprintf("%s *%s*\n```%s```", emoji, draft.ApprovalState, draft.Content)),
		},
	})
	if err != nil {
		return fmt.Errorf("slack update: %w", err)
	}

	var resp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("slack decode: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("slack update: %s", resp.Error)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("slack API error (%d): %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}
