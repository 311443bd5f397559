package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/shippost/shippost/internal/middleware"
	"github.com/shippost/shippost/internal/port"
	"github.com/shippost/shippost/internal/service"
)

// SlackHandler receives Block Kit button interactions and turns them into
// reviewer decisions.
type SlackHandler struct {
	approval      *service.Approval
	channel       port.ApprovalChannel
	signingSecret string
}

// NewSlackHandler creates the Slack interactions handler.
func NewSlackHandler(approval *service.Approval, channel port.ApprovalChannel, signingSecret string) *SlackHandler {
	return &SlackHandler{approval: approval, channel: channel, signingSecret: signingSecret}
}

// Register sets up the Slack callback route.
func (h *SlackHandler) Register(api fiber.Router) {
	api.Post("/slack/actions", middleware.VerifySlackSignature(h.signingSecret), h.Actions)
}

// interactionPayload is the subset of Slack's block_actions callback this
// handler needs.
type interactionPayload struct {
	Type    string `json:"type"`
	Actions []struct {
		ActionID string `json:"action_id"`
		Value    string `json:"value"`
	} `json:"actions"`
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
	Message struct {
		Ts string `json:"ts"`
	} `json:"message"`
	User struct {
		Username string `json:"username"`
	} `json:"user"`
}

// Actions handles a button press. Slack sends the interaction as a form
// field named "payload" holding JSON.
func (h *SlackHandler) Actions(c fiber.Ctx) error {
	raw := c.FormValue("payload")
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing payload"})
	}

	var payload interactionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed payload"})
	}
	if payload.Type != "block_actions" || len(payload.Actions) == 0 {
		return c.SendStatus(fiber.StatusOK)
	}

	action := payload.Actions[0]
	verb, draftIDs, err := parseAction(action.ActionID, action.Value)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if verb == service.ActionEdit {
		// Button presses carry no replacement text. The reviewer edits
		// through the REST endpoint and the draft stays pending.
		return c.JSON(fiber.Map{
			"text": fmt.Sprintf("Edit draft %s via POST /api/drafts/%s/resolve with the new content.",
				draftIDs[0], draftIDs[0]),
		})
	}

	ref := port.MessageRef{Channel: payload.Channel.ID, Timestamp: payload.Message.Ts}
	resolved := 0
	for _, id := range draftIDs {
		draft, err := h.approval.Resolve(c.Context(), id, verb, "")
		if err != nil && !errors.Is(err, port.ErrInvalidTransition) {
			slog.Error("slack action failed", "draft", id, "action", verb, "user", payload.User.Username, "error", err)
		}
		if updateErr := h.channel.Update(c.Context(), ref, draft); updateErr != nil {
			slog.Warn("slack message update failed", "draft", id, "error", updateErr)
		}
		if err == nil {
			resolved++
		}
	}

	return c.JSON(fiber.Map{"success": true, "resolved": resolved})
}

// parseAction maps a Block Kit action_id and its value back to a reviewer
// verb and the draft ids it applies to.
func parseAction(actionID, value string) (string, []string, error) {
	if actionID == "approve_all" {
		var v struct {
			DraftIDs []string `json:"draft_ids"`
		}
		if err := json.Unmarshal([]byte(value), &v); err != nil || len(v.DraftIDs) == 0 {
			return "", nil, fmt.Errorf("approve_all carries no draft ids")
		}
		return service.ActionApprove, v.DraftIDs, nil
	}

	var verb string
	switch {
	case strings.HasPrefix(actionID, "approve_"):
		verb = service.ActionApprove
	case strings.HasPrefix(actionID, "edit_"):
		verb = service.ActionEdit
	case strings.HasPrefix(actionID, "skip_"):
		verb = service.ActionSkip
	default:
		return "", nil, fmt.Errorf("unknown action %q", actionID)
	}

	var v struct {
		DraftID string `json:"draft_id"`
	}
	if err := json.Unmarshal([]byte(value), &v); err != nil || v.DraftID == "" {
		return "", nil, fmt.Errorf("action %q carries no draft id", actionID)
	}
	return verb, []string{v.DraftID}, nil
}
