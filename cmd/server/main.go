package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/shippost/shippost/internal/adapter/ai"
	"github.com/shippost/shippost/internal/adapter/publish"
	"github.com/shippost/shippost/internal/adapter/slack"
	"github.com/shippost/shippost/internal/adapter/store"
	"github.com/shippost/shippost/internal/handler"
	"github.com/shippost/shippost/internal/port"
	"github.com/shippost/shippost/internal/service"
	"github.com/shippost/shippost/pkg/config"

	_ "github.com/lib/pq"
)

// appStore is the full persistence surface the server needs. Both the
// Postgres and the in-memory store satisfy it.
type appStore interface {
	port.CommitStore
	port.ProjectRegistry
	port.DraftStore
}

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting ShipPost",
		"port", cfg.Port,
		"model", cfg.AnthropicModel,
		"slack_channel", cfg.SlackChannel,
		"database", cfg.DatabaseURL != "",
	)

	// ── Storage ──────────────────────────────────────────────────────────
	var db appStore
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pgStore.Close()
		db = pgStore
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory storage")
		db = store.NewMemoryStore()
	}

	if cfg.ProjectSeedPath != "" {
		seedProjects(db, cfg.ProjectSeedPath)
	}

	// ── Adapters ─────────────────────────────────────────────────────────
	anthropic := ai.NewAnthropicProvider(ai.AnthropicConfig{
		BaseURL: cfg.AnthropicBaseURL,
		Model:   cfg.AnthropicModel,
		APIKey:  cfg.AnthropicAPIKey,
		Timeout: cfg.GenerationTimeout,
	})

	slackChannel := slack.NewClient(cfg.SlackBaseURL, cfg.SlackBotToken, cfg.SlackChannel, cfg.DeliveryTimeout)

	// ── Publishers (Strategy Pattern) ────────────────────────────────────
	publishers := port.NewPublisherRegistry(
		publish.NewPostBridge(cfg.PostBridgeBaseURL, cfg.PostBridgeAPIKey, cfg.PostBridgeAccounts, cfg.DeliveryTimeout),
		publish.NewManualGroup(),
	)

	// ── Services ─────────────────────────────────────────────────────────
	classifier := service.NewClassifier(anthropic)
	generator := service.NewGenerator(anthropic)
	router := service.NewRouter(publishers)
	approval := service.NewApproval(db, slackChannel, router)
	pipeline := service.NewPipeline(db, db, classifier, generator, router, approval, cfg.GenerationTimeout, cfg.Location())

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	// Health check
	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	// ── Routes ───────────────────────────────────────────────────────────
	api := app.Group("/api")

	webhookHandler := handler.NewWebhookHandler(pipeline, db, db, cfg.GitHubWebhookSecret)
	webhookHandler.Register(api)

	projectHandler := handler.NewProjectHandler(db)
	projectHandler.Register(api)

	draftHandler := handler.NewDraftHandler(db, approval)
	draftHandler.Register(api)

	groupHandler := handler.NewGroupHandler(db, db)
	groupHandler.Register(api)

	announceHandler := handler.NewAnnounceHandler(db, generator, router, approval, cfg.GenerationTimeout)
	announceHandler.Register(api)

	slackHandler := handler.NewSlackHandler(approval, slackChannel, cfg.SlackSigningSecret)
	slackHandler.Register(api)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// seedProjects loads project definitions from a YAML file. Repos that are
// already registered are left untouched.
func seedProjects(projects port.ProjectRegistry, path string) {
	seeds, err := config.LoadProjectSeeds(path)
	if err != nil {
		slog.Error("failed to load project seeds", "path", path, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	created := 0
	for _, p := range seeds {
		if _, err := projects.CreateProject(ctx, p); err != nil {
			if errors.Is(err, port.ErrRepoConflict) {
				continue
			}
			slog.Error("failed to seed project", "project", p.ID, "error", err)
			continue
		}
		created++
	}
	slog.Info("project seeds loaded", "path", path, "created", created, "total", len(seeds))
}
