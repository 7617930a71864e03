package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tickethelp/repair-service/internal/api/dto"
	"github.com/tickethelp/repair-service/internal/service"
)

// StatusesHandler serves the read-only status catalog.
type StatusesHandler struct {
	catalog *service.CatalogService
}

// NewStatusesHandler constructs handler.
func NewStatusesHandler(catalog *service.CatalogService) *StatusesHandler {
	return &StatusesHandler{catalog: catalog}
}

// List GET /estados.
func (h *StatusesHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	statuses, err := h.catalog.ListStatuses(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStatusResponses(statuses)})
}

// Get GET /estados/:id.
func (h *StatusesHandler) Get(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "status")
	if err != nil {
		return err
	}
	status, err := h.catalog.GetStatus(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStatusResponse(*status)})
}

// GetByCode GET /estados/codigo/:code.
func (h *StatusesHandler) GetByCode(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	status, err := h.catalog.GetStatusByCode(c.UserContext(), user, c.Params("code"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStatusResponse(*status)})
}
