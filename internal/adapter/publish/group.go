package publish

import (
	"context"
	"fmt"

	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/port"
)

// ManualGroup serves destinations with no API access (closed communities,
// personal profiles). It never submits anything: Publish only assembles
// the ready-to-paste package the reviewer copies into the destination.
type ManualGroup struct{}

var _ port.Publisher = (*ManualGroup)(nil)

// NewManualGroup creates the manual-group publisher.
func NewManualGroup() *ManualGroup {
	return &ManualGroup{}
}

// Kind returns the manual-group destination kind.
func (m *ManualGroup) Kind() string { return domain.DestinationManual }

// Publish prepares the paste package for the draft's destination.
func (m *ManualGroup) Publish(ctx context.Context, draft domain.Draft) (*port.PublishResult, error) {
	if draft.Destination.Name == "" || draft.Destination.URL == "" {
		return nil, fmt.Errorf("manual group: destination missing name or url")
	}
	return &port.PublishResult{
		Package: &domain.PastePackage{
			Content:   draft.Content,
			GroupName: draft.Destination.Name,
			GroupURL:  draft.Destination.URL,
		},
	}, nil
}
