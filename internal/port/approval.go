package port

import (
	"context"

	"github.com/shippost/shippost/internal/domain"
)

// ApprovalChannel presents drafts to a human reviewer and reflects state
// changes back into the channel. Delivery is best-effort from the
// pipeline's perspective: a failed notification is logged, never rolled
// back into commit state.
type ApprovalChannel interface {
	// Present renders the drafts with approve/edit/skip affordances in the
	// given channel and returns an opaque message reference for later update.
	Present(ctx context.Context, drafts []domain.Draft, channel string) (MessageRef, error)

	// Update rewrites a previously presented message to reflect the draft's
	// new state.
	Update(ctx context.Context, ref MessageRef, draft domain.Draft) error
}

// MessageRef identifies a message previously posted to an approval channel.
type MessageRef struct {
	Channel   string `json:"channel"`
	Timestamp string `json:"ts"`
}
