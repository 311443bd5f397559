package handler

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/port"
	"github.com/shippost/shippost/internal/service"
)

// AnnounceHandler posts about specific features on demand, without
// waiting for commit-based generation.
type AnnounceHandler struct {
	projects  port.ProjectRegistry
	generator *service.Generator
	router    *service.Router
	approval  *service.Approval
	timeout   time.Duration
}

// NewAnnounceHandler creates the announcement handler.
func NewAnnounceHandler(projects port.ProjectRegistry, generator *service.Generator, router *service.Router, approval *service.Approval, timeout time.Duration) *AnnounceHandler {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &AnnounceHandler{
		projects:  projects,
		generator: generator,
		router:    router,
		approval:  approval,
		timeout:   timeout,
	}
}

// Register sets up announcement routes.
func (h *AnnounceHandler) Register(app fiber.Router) {
	announce := app.Group("/announce")
	announce.Post("/feature", h.Feature)
	announce.Post("/quick", h.Quick)
	announce.Get("/projects", h.Projects)
}

var hashtagPattern = regexp.MustCompile(`#\w+`)

// Feature generates an announcement from a feature description. The
// feature is wrapped in a synthetic commit so the normal generation flow
// applies.
func (h *AnnounceHandler) Feature(c fiber.Ctx) error {
	var body struct {
		Project     string `json:"project"`
		Feature     string `json:"feature"`
		Description string `json:"description"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.Project == "" || body.Feature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "project and feature required"})
	}

	project, err := h.projects.GetProject(c.Context(), body.Project)
	if errors.Is(err, port.ErrProjectNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown project: " + body.Project})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	message := "feat: " + body.Feature
	if body.Description != "" {
		message += "\n\n" + body.Description
	}
	synthetic := []domain.Commit{{
		ID:           "announce-" + uuid.NewString(),
		ProjectID:    project.ID,
		Message:      message,
		Timestamp:    time.Now().UTC(),
		FilesChanged: 1,
	}}

	targets := h.router.Targets(project)
	if len(targets) == 0 {
		targets = []service.Target{{Platform: "twitter", Destination: domain.Destination{Kind: domain.DestinationDirect}}}
	}

	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	drafts := h.generator.GenerateAll(ctx, synthetic, project, targets)
	if len(drafts) == 0 {
		return c.JSON(fiber.Map{"success": false, "message": "could not generate post"})
	}

	// Manual-group variants read better without hashtags.
	for i := range drafts {
		if drafts[i].Destination.Kind == domain.DestinationManual {
			drafts[i].Content = strings.TrimSpace(hashtagPattern.ReplaceAllString(drafts[i].Content, ""))
		}
	}

	if _, err := h.approval.Present(ctx, drafts, project.SlackChannel); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	platforms := make([]string, 0, len(drafts))
	for _, d := range drafts {
		platforms = append(platforms, d.Platform)
	}
	return c.JSON(fiber.Map{
		"success":        true,
		"project":        project.Name,
		"feature":        body.Feature,
		"postsGenerated": len(drafts),
		"platforms":      platforms,
	})
}

// Quick sends a hand-written message straight to approval, one draft per
// target, without any generation.
func (h *AnnounceHandler) Quick(c fiber.Ctx) error {
	var body struct {
		Project string `json:"project"`
		Message string `json:"message"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.Project == "" || body.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "project and message required"})
	}

	project, err := h.projects.GetProject(c.Context(), body.Project)
	if errors.Is(err, port.ErrProjectNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown project: " + body.Project})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	targets := h.router.Targets(project)
	if len(targets) == 0 {
		targets = []service.Target{{Platform: "twitter", Destination: domain.Destination{Kind: domain.DestinationDirect}}}
	}

	now := time.Now().UTC()
	drafts := make([]domain.Draft, 0, len(targets))
	for _, target := range targets {
		content := body.Message
		if target.Destination.Kind == domain.DestinationManual {
			content = strings.TrimSpace(hashtagPattern.ReplaceAllString(content, ""))
		}
		max := domain.FormatFor(target.Platform).MaxLength
		if runes := []rune(content); len(runes) > max {
			content = string(runes[:max-3]) + "..."
		}
		drafts = append(drafts, domain.Draft{
			ID:            uuid.NewString(),
			ProjectID:     project.ID,
			Platform:      target.Platform,
			Content:       content,
			Destination:   target.Destination,
			ApprovalState: domain.StatePending,
			GeneratedAt:   now,
		})
	}

	if _, err := h.approval.Present(c.Context(), drafts, project.SlackChannel); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "project": project.Name, "postsGenerated": len(drafts)})
}

// Projects lists active projects with their announcement routing.
func (h *AnnounceHandler) Projects(c fiber.Ctx) error {
	projects, err := h.projects.ListActive(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	type entry struct {
		ID        string   `json:"id"`
		Name      string   `json:"name"`
		Platforms []string `json:"platforms"`
		Groups    []string `json:"groups"`
	}
	out := make([]entry, 0, len(projects))
	for _, p := range projects {
		groups := make([]string, 0, len(p.Brand.Groups))
		for _, g := range p.Brand.Groups {
			groups = append(groups, g.Name)
		}
		out = append(out, entry{ID: p.ID, Name: p.Name, Platforms: p.Brand.Platforms, Groups: groups})
	}
	return c.JSON(fiber.Map{"projects": out})
}
