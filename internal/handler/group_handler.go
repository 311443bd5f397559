package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/port"
)

// GroupHandler exposes the catalog of manual-group destinations configured
// across active projects.
type GroupHandler struct {
	projects port.ProjectRegistry
	drafts   port.DraftStore
}

// NewGroupHandler creates the group catalog handler.
func NewGroupHandler(projects port.ProjectRegistry, drafts port.DraftStore) *GroupHandler {
	return &GroupHandler{projects: projects, drafts: drafts}
}

// Register sets up group routes.
func (h *GroupHandler) Register(api fiber.Router) {
	api.Get("/groups", h.List)
	api.Get("/groups/:id/package", h.Package)
}

type groupEntry struct {
	ProjectID string `json:"projectId"`
	GroupID   string `json:"groupId"`
	Name      string `json:"name"`
	URL       string `json:"url"`
}

// List returns every manual-group target of every active project.
func (h *GroupHandler) List(c fiber.Ctx) error {
	projects, err := h.projects.ListActive(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	groups := make([]groupEntry, 0)
	for _, p := range projects {
		for _, g := range p.Brand.Groups {
			groups = append(groups, groupEntry{
				ProjectID: p.ID,
				GroupID:   g.ID,
				Name:      g.Name,
				URL:       g.URL,
			})
		}
	}

	return c.JSON(fiber.Map{"success": true, "groups": groups, "count": len(groups)})
}

// Package returns the paste bundle from the newest draft targeting a group.
func (h *GroupHandler) Package(c fiber.Ctx) error {
	groupID := c.Params("id")

	projects, err := h.projects.ListActive(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var owner *domain.Project
	for i := range projects {
		for _, g := range projects[i].Brand.Groups {
			if g.ID == groupID {
				owner = &projects[i]
			}
		}
	}
	if owner == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "group not found"})
	}

	drafts, err := h.drafts.ListDraftsByProject(c.Context(), owner.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	for _, d := range drafts {
		if d.Destination.Kind != domain.DestinationManual || d.Destination.GroupID != groupID {
			continue
		}
		return c.JSON(fiber.Map{
			"success": true,
			"draftId": d.ID,
			"state":   d.ApprovalState,
			"package": domain.PastePackage{
				Content:   d.Content,
				GroupName: d.Destination.Name,
				GroupURL:  d.Destination.URL,
			},
		})
	}
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no draft for group yet"})
}
