package slack

import (
	"encoding/json"
	"fmt"

	"github.com/shippost/shippost/internal/domain"
)

// Block Kit payload fragments. Only the shapes this client emits are
// modeled; Slack ignores unknown fields anyway.
type block struct {
	Type     string        `json:"type"`
	Text     *textObject   `json:"text,omitempty"`
	Elements []interface{} `json:"elements,omitempty"`
}

type textObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type button struct {
	Type     string      `json:"type"`
	Text     *textObject `json:"text"`
	Style    string      `json:"style,omitempty"`
	ActionID string      `json:"action_id"`
	Value    string      `json:"value,omitempty"`
	URL      string      `json:"url,omitempty"`
}

func header(text string) block {
	return block{Type: "header", Text: &textObject{Type: "plain_text", Text: text, Emoji: true}}
}

func section(markdown string) block {
	return block{Type: "section", Text: &textObject{Type: "mrkdwn", Text: markdown}}
}

func contextLine(markdown string) block {
	return block{Type: "context", Elements: []interface{}{
		map[string]string{"type": "mrkdwn", "text": markdown},
	}}
}

func divider() block {
	return block{Type: "divider"}
}

func actionButton(label, style, actionID string, value interface{}) button {
	raw, _ := json.Marshal(value)
	return button{
		Type:     "button",
		Text:     &textObject{Type: "plain_text", Text: label, Emoji: true},
		Style:    style,
		ActionID: actionID,
		Value:    string(raw),
	}
}

// previewBlocks renders a single draft with full action buttons.
func previewBlocks(d domain.Draft) []block {
	emoji, ok := platformEmoji[d.Platform]
	if !ok {
		emoji = ":mega:"
	}

	blocks := []block{
		header(fmt.Sprintf("%s New %s post ready", emoji, d.Platform)),
		contextLine(fmt.Sprintf("*Generated:* %s", d.GeneratedAt.Format("Jan 2 15:04"))),
		divider(),
		section(fmt.Sprintf("```%s```", d.Content)),
		contextLine(fmt.Sprintf("*Theme:* %s | *Char count:* %d", themeOrNA(d), len(d.Content))),
		divider(),
	}

	if d.Destination.Kind == domain.DestinationManual {
		blocks = append(blocks, section(fmt.Sprintf(
			"*Manual post*: paste into <%s|%s> after approving.", d.Destination.URL, d.Destination.Name)))
	}

	blocks = append(blocks, block{Type: "actions", Elements: []interface{}{
		actionButton(":white_check_mark: Approve & Post", "primary", "approve_post",
			map[string]string{"draft_id": d.ID, "platform": d.Platform}),
		actionButton(":pencil2: Edit First", "", "edit_post",
			map[string]string{"draft_id": d.ID}),
		actionButton(":x: Skip", "danger", "skip_post",
			map[string]string{"draft_id": d.ID}),
	}})

	return blocks
}

// batchBlocks renders multiple drafts in one message with per-draft
// buttons and a trailing approve-all button.
func batchBlocks(drafts []domain.Draft) []block {
	blocks := []block{
		header(":rocket: Posts ready for review"),
		contextLine(fmt.Sprintf("*%d posts* generated from recent commits", len(drafts))),
		divider(),
	}

	ids := make([]string, 0, len(drafts))
	for _, d := range drafts {
		ids = append(ids, d.ID)
		emoji, ok := platformEmoji[d.Platform]
		if !ok {
			emoji = ":mega:"
		}
		blocks = append(blocks,
			section(fmt.Sprintf("%s *%s*\n```%s```", emoji, d.Platform, d.Content)),
			block{Type: "actions", Elements: []interface{}{
				actionButton("Approve", "primary", "approve_"+d.ID,
					map[string]string{"draft_id": d.ID, "platform": d.Platform}),
				actionButton("Edit", "", "edit_"+d.ID,
					map[string]string{"draft_id": d.ID}),
				actionButton("Skip", "danger", "skip_"+d.ID,
					map[string]string{"draft_id": d.ID}),
			}},
			divider(),
		)
	}

	blocks = append(blocks, block{Type: "actions", Elements: []interface{}{
		actionButton(":zap: Approve All & Post Now", "primary", "approve_all",
			map[string][]string{"draft_ids": ids}),
	}})

	return blocks
}

func themeOrNA(d domain.Draft) string {
	if d.Selection.Theme == "" {
		return "N/A"
	}
	return d.Selection.Theme
}
