package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shippost/shippost/internal/adapter/store"
	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/port"
)

func newApprovalFixture(pub *fakePublisher, channel *fakeChannel) (*Approval, *store.MemoryStore) {
	db := store.NewMemoryStore()
	router := NewRouter(port.NewPublisherRegistry(pub))
	return NewApproval(db, channel, router), db
}

func pendingDraft(id string) domain.Draft {
	return domain.Draft{
		ID: id, ProjectID: "p1", Platform: "twitter",
		Content:       "We shipped dark mode.",
		Destination:   domain.Destination{Kind: domain.DestinationDirect},
		ApprovalState: domain.StatePending,
	}
}

func TestPresentPersistsBeforeDelivery(t *testing.T) {
	channel := &fakeChannel{presentErr: errors.New("slack down")}
	approval, db := newApprovalFixture(&fakePublisher{kind: domain.DestinationDirect}, channel)

	_, err := approval.Present(context.Background(), []domain.Draft{pendingDraft("d1")}, "social")
	require.Error(t, err)

	// Delivery failed but the draft survived.
	got, err := db.GetDraft(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePending, got.ApprovalState)
}

func TestResolveApprovePublishes(t *testing.T) {
	pub := &fakePublisher{kind: domain.DestinationDirect}
	approval, db := newApprovalFixture(pub, &fakeChannel{})
	ctx := context.Background()

	require.NoError(t, db.SaveDraft(ctx, pendingDraft("d1")))

	resolved, err := approval.Resolve(ctx, "d1", ActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePublished, resolved.ApprovalState)
	require.Len(t, pub.published, 1)

	stored, err := db.GetDraft(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePublished, stored.ApprovalState)
}

func TestResolveApprovePublishFailure(t *testing.T) {
	pub := &fakePublisher{kind: domain.DestinationDirect, err: errors.New("api down")}
	approval, db := newApprovalFixture(pub, &fakeChannel{})
	ctx := context.Background()

	require.NoError(t, db.SaveDraft(ctx, pendingDraft("d1")))

	resolved, err := approval.Resolve(ctx, "d1", ActionApprove, "")
	require.Error(t, err)
	assert.Equal(t, domain.StateFailed, resolved.ApprovalState)

	// Failed is terminal; no automatic retry path exists.
	_, err = approval.Resolve(ctx, "d1", ActionApprove, "")
	assert.ErrorIs(t, err, port.ErrInvalidTransition)
}

func TestResolveSkipIsTerminal(t *testing.T) {
	approval, db := newApprovalFixture(&fakePublisher{kind: domain.DestinationDirect}, &fakeChannel{})
	ctx := context.Background()

	require.NoError(t, db.SaveDraft(ctx, pendingDraft("d1")))

	resolved, err := approval.Resolve(ctx, "d1", ActionSkip, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StateSkipped, resolved.ApprovalState)

	_, err = approval.Resolve(ctx, "d1", ActionApprove, "")
	assert.ErrorIs(t, err, port.ErrInvalidTransition)
}

func TestResolveEditReentersPending(t *testing.T) {
	pub := &fakePublisher{kind: domain.DestinationDirect}
	approval, db := newApprovalFixture(pub, &fakeChannel{})
	ctx := context.Background()

	require.NoError(t, db.SaveDraft(ctx, pendingDraft("d1")))

	resolved, err := approval.Resolve(ctx, "d1", ActionEdit, "Better wording, same news.")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePending, resolved.ApprovalState)
	assert.Equal(t, "Better wording, same news.", resolved.Content)

	// An edited draft can still be approved afterwards.
	resolved, err = approval.Resolve(ctx, "d1", ActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePublished, resolved.ApprovalState)
	require.Len(t, pub.published, 1)
	assert.Equal(t, "Better wording, same news.", pub.published[0].Content)
}

func TestResolveEditRevalidatesLength(t *testing.T) {
	approval, db := newApprovalFixture(&fakePublisher{kind: domain.DestinationDirect}, &fakeChannel{})
	ctx := context.Background()

	require.NoError(t, db.SaveDraft(ctx, pendingDraft("d1")))

	_, err := approval.Resolve(ctx, "d1", ActionEdit, strings.Repeat("x", 281))
	assert.ErrorIs(t, err, port.ErrValidation)

	_, err = approval.Resolve(ctx, "d1", ActionEdit, "")
	assert.ErrorIs(t, err, port.ErrValidation)

	// The failed edit left the original content untouched.
	stored, err := db.GetDraft(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "We shipped dark mode.", stored.Content)
}

func TestResolveUnknownActionAndDraft(t *testing.T) {
	approval, db := newApprovalFixture(&fakePublisher{kind: domain.DestinationDirect}, &fakeChannel{})
	ctx := context.Background()

	require.NoError(t, db.SaveDraft(ctx, pendingDraft("d1")))

	_, err := approval.Resolve(ctx, "d1", "detonate", "")
	assert.ErrorIs(t, err, port.ErrValidation)

	_, err = approval.Resolve(ctx, "missing", ActionApprove, "")
	assert.ErrorIs(t, err, port.ErrDraftNotFound)
}
