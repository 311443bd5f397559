package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/shippost/shippost/internal/domain"
	"github.com/shippost/shippost/internal/port"
	"github.com/shippost/shippost/internal/service"
)

// DraftHandler exposes drafts, reviewer decisions, and ready-to-paste
// packages for manual-group destinations.
type DraftHandler struct {
	drafts   port.DraftStore
	approval *service.Approval
}

// NewDraftHandler creates the draft handler.
func NewDraftHandler(drafts port.DraftStore, approval *service.Approval) *DraftHandler {
	return &DraftHandler{drafts: drafts, approval: approval}
}

// Register sets up draft routes.
func (h *DraftHandler) Register(api fiber.Router) {
	drafts := api.Group("/drafts")
	drafts.Get("/:id", h.Get)
	drafts.Get("/:id/package", h.Package)
	drafts.Post("/:id/resolve", h.Resolve)

	api.Get("/projects/:id/drafts", h.ListByProject)
}

// Get returns a draft by id.
func (h *DraftHandler) Get(c fiber.Ctx) error {
	draft, err := h.drafts.GetDraft(c.Context(), c.Params("id"))
	if errors.Is(err, port.ErrDraftNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "draft not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "draft": draft})
}

// ListByProject returns a project's drafts, newest first.
func (h *DraftHandler) ListByProject(c fiber.Ctx) error {
	drafts, err := h.drafts.ListDraftsByProject(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "drafts": drafts, "count": len(drafts)})
}

// Package returns the ready-to-paste bundle for a manual-group draft.
func (h *DraftHandler) Package(c fiber.Ctx) error {
	draft, err := h.drafts.GetDraft(c.Context(), c.Params("id"))
	if errors.Is(err, port.ErrDraftNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "draft not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if draft.Destination.Kind != domain.DestinationManual {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "draft has a direct destination"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"package": domain.PastePackage{
			Content:   draft.Content,
			GroupName: draft.Destination.Name,
			GroupURL:  draft.Destination.URL,
		},
	})
}

// Resolve applies a reviewer decision (approve, edit, skip) to a draft.
func (h *DraftHandler) Resolve(c fiber.Ctx) error {
	var body struct {
		Action  string `json:"action"`
		Content string `json:"content"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.Action == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "action required"})
	}

	draft, err := h.approval.Resolve(c.Context(), c.Params("id"), body.Action, body.Content)
	switch {
	case errors.Is(err, port.ErrDraftNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "draft not found"})
	case errors.Is(err, port.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "draft is already in a terminal state", "draft": draft})
	case errors.Is(err, port.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		// Publish failures land here: the draft is marked failed and the
		// error is surfaced rather than retried.
		return c.JSON(fiber.Map{"success": false, "draft": draft, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "draft": draft})
}
