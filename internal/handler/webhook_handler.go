package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/middleware"
	"github.com/shippost/shippost/internal/port"
	"github.com/shippost/shippost/internal/service"
)

// WebhookHandler receives push events from GitHub and GitLab and feeds
// them into the pipeline. Business non-events answer 200 with a message;
// error statuses are reserved for malformed requests and bad signatures.
type WebhookHandler struct {
	pipeline      *service.Pipeline
	projects      port.ProjectRegistry
	commits       port.CommitStore
	webhookSecret string
}

// NewWebhookHandler creates the webhook handler.
func NewWebhookHandler(pipeline *service.Pipeline, projects port.ProjectRegistry, commits port.CommitStore, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		pipeline:      pipeline,
		projects:      projects,
		commits:       commits,
		webhookSecret: webhookSecret,
	}
}

// Register sets up webhook routes.
func (h *WebhookHandler) Register(app fiber.Router) {
	hooks := app.Group("/webhooks")
	hooks.Post("/github", middleware.VerifySignature(h.webhookSecret), h.GitHub)
	hooks.Post("/gitlab", h.GitLab)
	hooks.Post("/test", h.TestIngest)
	hooks.Post("/generate", h.Generate)
}

// pushAuthor is the author object shared by GitHub and GitLab payloads.
type pushAuthor struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

// pushCommit is one commit in a push payload.
type pushCommit struct {
	ID        string     `json:"id"`
	Message   string     `json:"message"`
	Timestamp string     `json:"timestamp"`
	Author    pushAuthor `json:"author"`
	Added     []string   `json:"added"`
	Modified  []string   `json:"modified"`
	Removed   []string   `json:"removed"`
}

func (pc pushCommit) toDomain() domain.Commit {
	ts, err := time.Parse(time.RFC3339, pc.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}
	author := pc.Author.Name
	if author == "" {
		author = pc.Author.Username
	}
	return domain.Commit{
		ID:           pc.ID,
		Message:      pc.Message,
		Author:       author,
		Timestamp:    ts,
		FilesChanged: len(pc.Added) + len(pc.Modified) + len(pc.Removed),
	}
}

// GitHub handles POST /webhooks/github push events.
func (h *WebhookHandler) GitHub(c fiber.Ctx) error {
	if event := c.Get("X-GitHub-Event"); event != "push" {
		return c.JSON(fiber.Map{"message": "ignored event: " + event})
	}

	var payload struct {
		Repository struct {
			FullName string `json:"full_name"`
		} `json:"repository"`
		Commits []pushCommit `json:"commits"`
	}
	if err := c.Bind().JSON(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if payload.Repository.FullName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing repository info"})
	}

	return h.ingest(c, payload.Repository.FullName, payload.Commits)
}

// GitLab handles POST /webhooks/gitlab push events.
func (h *WebhookHandler) GitLab(c fiber.Ctx) error {
	if event := c.Get("X-Gitlab-Event"); event != "Push Hook" {
		return c.JSON(fiber.Map{"message": "ignored event: " + event})
	}

	var payload struct {
		Project struct {
			PathWithNamespace string `json:"path_with_namespace"`
		} `json:"project"`
		Commits []pushCommit `json:"commits"`
	}
	if err := c.Bind().JSON(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if payload.Project.PathWithNamespace == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing repository info"})
	}

	return h.ingest(c, payload.Project.PathWithNamespace, payload.Commits)
}

func (h *WebhookHandler) ingest(c fiber.Ctx, repo string, pushed []pushCommit) error {
	commits := make([]domain.Commit, 0, len(pushed))
	for _, pc := range pushed {
		commits = append(commits, pc.toDomain())
	}

	result, err := h.pipeline.Ingest(c.Context(), repo, commits)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}

// TestIngest handles POST /webhooks/test: manual commit insertion with
// optional immediate processing, for trying the pipeline end to end.
func (h *WebhookHandler) TestIngest(c fiber.Ctx) error {
	var body struct {
		ProjectID string       `json:"projectId"`
		Commits   []pushCommit `json:"commits"`
		Immediate bool         `json:"immediate"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if body.ProjectID == "" || len(body.Commits) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "projectId and commits required"})
	}

	project, err := h.projects.GetProject(c.Context(), body.ProjectID)
	if errors.Is(err, port.ErrProjectNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var stored []domain.Commit
	for _, pc := range body.Commits {
		commit := pc.toDomain()
		commit.ProjectID = project.ID
		rec, err := h.commits.Record(c.Context(), commit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		if !rec.Processed {
			stored = append(stored, rec)
		}
	}

	if body.Immediate && len(stored) > 0 {
		generated, err := h.pipeline.ProcessNow(c.Context(), project, stored)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{
			"success":        true,
			"commitsStored":  len(stored),
			"postsGenerated": generated,
		})
	}

	return c.JSON(fiber.Map{"success": true, "commitsStored": len(stored)})
}

// Generate handles POST /webhooks/generate: the on-demand trigger that
// runs the full pipeline for a project's unprocessed commits.
func (h *WebhookHandler) Generate(c fiber.Ctx) error {
	var body struct {
		ProjectID string `json:"projectId"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.ProjectID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "projectId required"})
	}

	result, err := h.pipeline.GenerateOnDemand(c.Context(), body.ProjectID)
	if errors.Is(err, port.ErrProjectNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}
