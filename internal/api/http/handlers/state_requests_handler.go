package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tickethelp/repair-service/internal/api/dto"
	"github.com/tickethelp/repair-service/internal/service"
)

// StateRequestsHandler exposes the state-change approval workflow.
type StateRequestsHandler struct {
	service *service.StateChangeService
}

// NewStateRequestsHandler constructs handler.
func NewStateRequestsHandler(stateService *service.StateChangeService) *StateRequestsHandler {
	return &StateRequestsHandler{service: stateService}
}

// Create POST /tickets/:id/state-requests.
func (h *StateRequestsHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id", "ticket")
	if err != nil {
		return err
	}
	var req dto.CreateStateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	created, err := h.service.RequestChange(c.UserContext(), user, ticketID, service.StateChangeInput{
		ToStatusID: req.ToState,
		Reason:     req.Reason,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewStateRequestResponse(created)})
}

// ListForTicket GET /tickets/:id/state-requests.
func (h *StateRequestsHandler) ListForTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id", "ticket")
	if err != nil {
		return err
	}
	reqs, err := h.service.ListForTicket(c.UserContext(), user, ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStateRequestResponses(reqs)})
}

// List GET /state-requests?status=.
func (h *StateRequestsHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	reqs, err := h.service.List(c.UserContext(), user, c.Query("status"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStateRequestResponses(reqs)})
}

// Approve POST /state-requests/:id/approve.
func (h *StateRequestsHandler) Approve(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "state change request")
	if err != nil {
		return err
	}
	resolved, err := h.service.Approve(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStateRequestResponse(resolved)})
}

// Reject POST /state-requests/:id/reject.
func (h *StateRequestsHandler) Reject(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "state change request")
	if err != nil {
		return err
	}
	var req dto.RejectStateRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	resolved, err := h.service.Reject(c.UserContext(), user, id, req.RejectionReason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStateRequestResponse(resolved)})
}
