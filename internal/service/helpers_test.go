package service

import (
	"context"
	"sync"

	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/port"
)

// fakeAI scripts the text generator with a closure.
type fakeAI struct {
	mu       sync.Mutex
	calls    int
	generate func(system, user string) (string, error)
}

func (f *fakeAI) ModelName() string { return "fake-model" }

func (f *fakeAI) Generate(ctx context.Context, system, user string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.generate(system, user)
}

func (f *fakeAI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeChannel records presented drafts instead of talking to Slack.
type fakeChannel struct {
	mu         sync.Mutex
	presented  [][]domain.Draft
	updated    []domain.Draft
	presentErr error
}

func (f *fakeChannel) Present(ctx context.Context, drafts []domain.Draft, channel string) (port.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.presentErr != nil {
		return port.MessageRef{}, f.presentErr
	}
	f.presented = append(f.presented, drafts)
	return port.MessageRef{Channel: "C123", Timestamp: "167.001"}, nil
}

func (f *fakeChannel) Update(ctx context.Context, ref port.MessageRef, draft domain.Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, draft)
	return nil
}

// fakePublisher serves one destination kind with a scripted outcome.
type fakePublisher struct {
	kind      string
	result    *port.PublishResult
	err       error
	published []domain.Draft
}

func (f *fakePublisher) Kind() string { return f.kind }

func (f *fakePublisher) Publish(ctx context.Context, draft domain.Draft) (*port.PublishResult, error) {
	f.published = append(f.published, draft)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &port.PublishResult{ExternalPostID: "ext-1"}, nil
}
