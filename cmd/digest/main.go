package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/shippost/shippost/internal/adapter/ai"
	"github.com/shippost/shippost/internal/adapter/publish"
	"github.com/shippost/shippost/internal/adapter/slack"
	"github.com/shippost/shippost/internal/adapter/store"
	"github.com/shippost/shippost/internal/port"
	"github.com/shippost/shippost/internal/service"
	"github.com/shippost/shippost/pkg/config"

	_ "github.com/lib/pq"
)

// Digest job: collect every active project's unprocessed commits from
// today and send the generated drafts for review. Run once per day from
// cron or a scheduler.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required, the digest reads commits stored by the server")
		os.Exit(1)
	}

	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	anthropic := ai.NewAnthropicProvider(ai.AnthropicConfig{
		BaseURL: cfg.AnthropicBaseURL,
		Model:   cfg.AnthropicModel,
		APIKey:  cfg.AnthropicAPIKey,
		Timeout: cfg.GenerationTimeout,
	})

	slackChannel := slack.NewClient(cfg.SlackBaseURL, cfg.SlackBotToken, cfg.SlackChannel, cfg.DeliveryTimeout)

	publishers := port.NewPublisherRegistry(
		publish.NewPostBridge(cfg.PostBridgeBaseURL, cfg.PostBridgeAPIKey, cfg.PostBridgeAccounts, cfg.DeliveryTimeout),
		publish.NewManualGroup(),
	)

	classifier := service.NewClassifier(anthropic)
	generator := service.NewGenerator(anthropic)
	router := service.NewRouter(publishers)
	approval := service.NewApproval(pgStore, slackChannel, router)
	pipeline := service.NewPipeline(pgStore, pgStore, classifier, generator, router, approval, cfg.GenerationTimeout, cfg.Location())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	slog.Info("📅 Running daily digest", "timezone", cfg.Timezone)

	result, err := pipeline.RunDigest(ctx)
	if err != nil {
		slog.Error("digest run failed", "error", err)
		os.Exit(1)
	}

	slog.Info("digest complete",
		"projects_checked", result.ProjectsChecked,
		"posts_generated", result.PostsGenerated,
	)
}
