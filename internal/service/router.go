package service

import (
	"context"
	"log/slog"

	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/port"
)

// Router decides where each draft is presented and, post-approval, where
// it is published. Destinations are fixed before generation: every target
// yields exactly one independent draft, so the router never fans one
// draft out to multiple destinations.
type Router struct {
	publishers *port.PublisherRegistry
}

// NewRouter creates a publication router over the given publishers.
func NewRouter(publishers *port.PublisherRegistry) *Router {
	return &Router{publishers: publishers}
}

// Targets expands a project's routing config into per-destination targets:
// one direct target per configured platform, one manual-group target per
// configured group. Group posts use facebook's length constraints.
func (r *Router) Targets(project domain.Project) []Target {
	var targets []Target

	for _, platform := range project.Brand.Platforms {
		targets = append(targets, Target{
			Platform: platform,
			Destination: domain.Destination{
				Kind:    domain.DestinationDirect,
				Account: project.Brand.AccountHandle,
			},
		})
	}

	for _, group := range project.Brand.Groups {
		targets = append(targets, Target{
			Platform: "facebook",
			Destination: domain.Destination{
				Kind:    domain.DestinationManual,
				GroupID: group.ID,
				Name:    group.Name,
				URL:     group.URL,
			},
		})
	}

	return targets
}

// Dispatch publishes an approved draft to its destination and returns the
// draft in its outcome state. Duplicate-post conditions are success (the
// publisher already collapses them); any other failure marks the draft
// failed and is never retried automatically.
func (r *Router) Dispatch(ctx context.Context, draft domain.Draft) (domain.Draft, *port.PublishResult, error) {
	result, err := r.publishers.Publish(ctx, draft)
	if err != nil {
		slog.Error("publish failed", "draft", draft.ID, "platform", draft.Platform, "error", err)
		draft.ApprovalState = domain.StateFailed
		return draft, nil, err
	}

	draft.ApprovalState = domain.StatePublished
	slog.Info("draft published",
		"draft", draft.ID,
		"platform", draft.Platform,
		"kind", draft.Destination.Kind,
		"external_id", result.ExternalPostID,
	)
	return draft, result, nil
}
