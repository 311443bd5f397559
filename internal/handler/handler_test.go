package handler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/shippost/shippost/internal/adapter/store"
	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/port"
	"github.com/shippost/shippost/internal/service"
)

// Scripted fakes shared by the handler tests. The AI fake answers the
// selection stage with a fixed pick and echoes a short post for drafting.
type fakeAI struct {
	mu       sync.Mutex
	generate func(system, user string) (string, error)
}

func (f *fakeAI) ModelName() string { return "fake-model" }

func (f *fakeAI) Generate(ctx context.Context, system, user string) (string, error) {
	f.mu.Lock()
	gen := f.generate
	f.mu.Unlock()
	return gen(system, user)
}

func scriptedAI() *fakeAI {
	return &fakeAI{generate: func(system, user string) (string, error) {
		if strings.Contains(user, "selectedCommits") {
			return `{
  "selectedCommits": ["feat: add dark mode"],
  "mainTheme": "dark mode shipped",
  "interestingAngle": "most requested feature",
  "hookType": "shipped",
  "suggestedTopics": ["ui"]
}`, nil
		}
		if strings.Contains(user, "CLASSIFY") {
			return `{"immediate": [], "batch": [], "reasoning": "routine"}`, nil
		}
		return "We shipped dark mode. 40 of you asked for it. #buildinpublic", nil
	}}
}

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

type fakePublisher struct {
	kind      string
	err       error
	published []domain.Draft
}

func (f *fakePublisher) Kind() string { return f.kind }

func (f *fakePublisher) Publish(ctx context.Context, draft domain.Draft) (*port.PublishResult, error) {
	f.published = append(f.published, draft)
	if f.err != nil {
		return nil, f.err
	}
	return &port.PublishResult{ExternalPostID: "ext-1"}, nil
}

// testApp wires the full HTTP surface over in-memory storage and fakes.
type testApp struct {
	app      *fiber.App
	db       *store.MemoryStore
	channel  *fakeChannel
	pub      *fakePublisher
	approval *service.Approval
}

func newTestApp(webhookSecret string) *testApp {
	db := store.NewMemoryStore()
	ai := scriptedAI()
	channel := &fakeChannel{}
	pub := &fakePublisher{kind: domain.DestinationDirect}

	router := service.NewRouter(port.NewPublisherRegistry(pub, &manualPassthrough{}))
	approval := service.NewApproval(db, channel, router)
	pipeline := service.NewPipeline(db, db, service.NewClassifier(ai), service.NewGenerator(ai),
		router, approval, 5*time.Second, time.UTC)

	app := fiber.New()
	api := app.Group("/api")

	NewWebhookHandler(pipeline, db, db, webhookSecret).Register(api)
	NewProjectHandler(db).Register(api)
	NewDraftHandler(db, approval).Register(api)
	NewGroupHandler(db, db).Register(api)
	NewAnnounceHandler(db, service.NewGenerator(ai), router, approval, 5*time.Second).Register(api)
	NewSlackHandler(approval, channel, "").Register(api)

	return &testApp{app: app, db: db, channel: channel, pub: pub, approval: approval}
}

// manualPassthrough stands in for the manual-group publisher.
type manualPassthrough struct{}

func (m *manualPassthrough) Kind() string { return domain.DestinationManual }

func (m *manualPassthrough) Publish(ctx context.Context, draft domain.Draft) (*port.PublishResult, error) {
	return &port.PublishResult{Package: &domain.PastePackage{
		Content: draft.Content, GroupName: draft.Destination.Name, GroupURL: draft.Destination.URL,
	}}, nil
}

func (ta *testApp) addProject(project domain.Project) error {
	_, err := ta.db.CreateProject(context.Background(), project)
	return err
}

func jsonBody(s string) *strings.Reader { return strings.NewReader(s) }
