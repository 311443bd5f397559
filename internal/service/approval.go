package service

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/port"
)

// Reviewer actions accepted by Resolve.
const (
	ActionApprove = "approve"
	ActionEdit    = "edit"
	ActionSkip    = "skip"
)

// Approval is the gateway between human decisions and draft state. All
// approval-state transitions flow through Resolve; drafts in a terminal
// state are immutable.
type Approval struct {
	drafts  port.DraftStore
	channel port.ApprovalChannel
	router  *Router
}

// NewApproval creates the approval gateway.
func NewApproval(drafts port.DraftStore, channel port.ApprovalChannel, router *Router) *Approval {
	return &Approval{drafts: drafts, channel: channel, router: router}
}

// Present persists the drafts and renders them in the approval channel.
// Drafts are durable before the notification is attempted, so a delivery
// failure is a reconciliation gap, not lost state.
func (a *Approval) Present(ctx context.Context, drafts []domain.Draft, channel string) (port.MessageRef, error) {
	for _, d := range drafts {
		if err := a.drafts.SaveDraft(ctx, d); err != nil {
			return port.MessageRef{}, fmt.Errorf("save draft %s: %w", d.ID, err)
		}
	}

	ref, err := a.channel.Present(ctx, drafts, channel)
	if err != nil {
		slog.Error("approval channel delivery failed", "channel", channel, "drafts", len(drafts), "error", err)
		return port.MessageRef{}, err
	}
	return ref, nil
}

// Resolve applies a reviewer decision to a draft.
//
// State machine: pending -> {approved, edited, skipped};
// approved -> {published, failed}; edited re-enters pending with updated
// content. Terminal states reject any further action.
func (a *Approval) Resolve(ctx context.Context, draftID, action, editedContent string) (domain.Draft, error) {
	draft, err := a.drafts.GetDraft(ctx, draftID)
	if err != nil {
		return domain.Draft{}, err
	}
	if draft.Terminal() {
		return draft, port.ErrInvalidTransition
	}

	switch action {
	case ActionApprove:
		draft.ApprovalState = domain.StateApproved
		if err := a.drafts.SaveDraft(ctx, draft); err != nil {
			return domain.Draft{}, fmt.Errorf("save approved draft: %w", err)
		}

		dispatched, _, publishErr := a.router.Dispatch(ctx, draft)
		if err := a.drafts.SaveDraft(ctx, dispatched); err != nil {
			return domain.Draft{}, fmt.Errorf("save dispatched draft: %w", err)
		}
		if publishErr != nil {
			return dispatched, fmt.Errorf("publish: %w", publishErr)
		}
		return dispatched, nil

	case ActionEdit:
		max := domain.FormatFor(draft.Platform).MaxLength
		if editedContent == "" || utf8.RuneCountInString(editedContent) > max {
			return draft, fmt.Errorf("%w: edited content must be 1-%d characters", port.ErrValidation, max)
		}
		draft.Content = editedContent
		draft.ApprovalState = domain.StatePending
		if err := a.drafts.SaveDraft(ctx, draft); err != nil {
			return domain.Draft{}, fmt.Errorf("save edited draft: %w", err)
		}
		return draft, nil

	case ActionSkip:
		draft.ApprovalState = domain.StateSkipped
		if err := a.drafts.SaveDraft(ctx, draft); err != nil {
			return domain.Draft{}, fmt.Errorf("save skipped draft: %w", err)
		}
		return draft, nil

	default:
		return draft, fmt.Errorf("%w: unknown action %q", port.ErrValidation, action)
	}
}
