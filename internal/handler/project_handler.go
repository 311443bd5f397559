package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/port"
)

// ProjectHandler exposes CRUD over project records.
type ProjectHandler struct {
	projects port.ProjectRegistry
}

// NewProjectHandler creates the project handler.
func NewProjectHandler(projects port.ProjectRegistry) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// Register sets up project routes.
func (h *ProjectHandler) Register(api fiber.Router) {
	projects := api.Group("/projects")
	projects.Get("/", h.List)
	projects.Post("/", h.Create)
	projects.Get("/:id", h.Get)
	projects.Put("/:id", h.Update)
	projects.Delete("/:id", h.Delete)
}

// List returns all active projects.
func (h *ProjectHandler) List(c fiber.Ctx) error {
	projects, err := h.projects.ListActive(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "projects": projects, "count": len(projects)})
}

// Get returns a single project.
func (h *ProjectHandler) Get(c fiber.Ctx) error {
	project, err := h.projects.GetProject(c.Context(), c.Params("id"))
	if errors.Is(err, port.ErrProjectNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "project not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "project": project})
}

// Create registers a new project. Conflicts on the repository identifier
// answer 409.
func (h *ProjectHandler) Create(c fiber.Ctx) error {
	var body struct {
		ID            string         `json:"id"`
		Name          string         `json:"name"`
		Repo          string         `json:"repo"`
		Brand         domain.Brand   `json:"brand"`
		Tagging       domain.Tagging `json:"tagging"`
		PostFrequency string         `json:"post_frequency"`
		SlackChannel  string         `json:"slack_channel"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid payload"})
	}
	if body.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "name is required"})
	}

	project := domain.Project{
		ID:            body.ID,
		Name:          body.Name,
		Repo:          body.Repo,
		Brand:         body.Brand,
		Tagging:       body.Tagging,
		PostFrequency: body.PostFrequency,
		SlackChannel:  body.SlackChannel,
		Active:        true,
	}
	if project.ID == "" {
		project.ID = slugify(body.Name)
	}
	if project.Brand.Name == "" {
		project.Brand.Name = body.Name
	}
	if len(project.Brand.Platforms) == 0 {
		project.Brand.Platforms = []string{"twitter"}
	}
	if project.PostFrequency == "" {
		project.PostFrequency = domain.FrequencyDailyDigest
	}

	created, err := h.projects.CreateProject(c.Context(), project)
	if errors.Is(err, port.ErrRepoConflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "error": "repository already configured"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"project": created,
		"setup": fiber.Map{
			"webhookUrl": c.BaseURL() + "/webhooks/github",
			"events":     "push",
		},
	})
}

// Update applies a partial patch to a project.
func (h *ProjectHandler) Update(c fiber.Ctx) error {
	var patch domain.ProjectPatch
	if err := c.Bind().JSON(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid payload"})
	}

	project, err := h.projects.UpdateProject(c.Context(), c.Params("id"), patch)
	if errors.Is(err, port.ErrProjectNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "project not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "project": project})
}

// Delete removes a project.
func (h *ProjectHandler) Delete(c fiber.Ctx) error {
	if err := h.projects.DeleteProject(c.Context(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true})
}

// slugify derives a URL-safe project id from a display name.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
