package port

import (
	"context"

	"github.com/shippost/shippost/internal/domain"
)

// Publisher delivers an approved draft to one class of destination.
// Direct publishers call a platform API; the manual-group publisher only
// prepares a paste package and never submits anything.
type Publisher interface {
	// Kind returns the destination kind this publisher serves
	// (domain.DestinationDirect or domain.DestinationManual).
	Kind() string

	// Publish delivers the draft. A duplicate-post condition reported by
	// the target is treated as success.
	Publish(ctx context.Context, draft domain.Draft) (*PublishResult, error)
}

// PublishResult is the outcome of a publish attempt.
type PublishResult struct {
	ExternalPostID string               `json:"external_post_id,omitempty"`
	Package        *domain.PastePackage `json:"package,omitempty"`
}

// PublisherRegistry routes drafts to the publisher matching their
// destination kind.
type PublisherRegistry struct {
	publishers map[string]Publisher
}

// NewPublisherRegistry creates a registry with the given publishers.
func NewPublisherRegistry(publishers ...Publisher) *PublisherRegistry {
	m := make(map[string]Publisher, len(publishers))
	for _, p := range publishers {
		m[p.Kind()] = p
	}
	return &PublisherRegistry{publishers: m}
}

// Publish dispatches the draft to the publisher for its destination kind.
func (r *PublisherRegistry) Publish(ctx context.Context, draft domain.Draft) (*PublishResult, error) {
	p, ok := r.publishers[draft.Destination.Kind]
	if !ok {
		return nil, ErrPublisherNotFound
	}
	return p.Publish(ctx, draft)
}

// Kinds returns the registered destination kinds.
func (r *PublisherRegistry) Kinds() []string {
	kinds := make([]string, 0, len(r.publishers))
	for k := range r.publishers {
		kinds = append(kinds, k)
	}
	return kinds
}
