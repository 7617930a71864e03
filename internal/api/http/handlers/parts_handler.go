package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tickethelp/repair-service/internal/api/dto"
	"github.com/tickethelp/repair-service/internal/service"
)

// PartsHandler manages the repuestos registered on a ticket.
type PartsHandler struct {
	service *service.PartService
}

// NewPartsHandler constructs handler.
func NewPartsHandler(partService *service.PartService) *PartsHandler {
	return &PartsHandler{service: partService}
}

// ListParts GET /tickets/:id/repuestos.
func (h *PartsHandler) ListParts(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id", "ticket")
	if err != nil {
		return err
	}
	list, err := h.service.ListParts(c.UserContext(), user, ticketID)
	if err != nil {
		return err
	}
	if len(list.Parts) == 0 {
		return c.JSON(dto.EmptyPartListResponse{
			Message:    "No parts registered for this ticket.",
			Repuestos:  []dto.PartResponse{},
			TotalCosto: 0,
		})
	}
	return c.JSON(dto.PartListResponse{
		Message:        "Parts of the ticket retrieved successfully.",
		TicketID:       list.TicketID,
		TotalRepuestos: len(list.Parts),
		TotalCosto:     dto.Money(list.Total),
		Repuestos:      dto.NewPartResponses(list.Parts),
	})
}

// CreatePart POST /tickets/:id/repuestos.
func (h *PartsHandler) CreatePart(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id", "ticket")
	if err != nil {
		return err
	}
	input, err := partInput(c)
	if err != nil {
		return err
	}
	part, err := h.service.CreatePart(c.UserContext(), user, ticketID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.PartEnvelope{
		Message:  "Part registered successfully.",
		Repuesto: dto.NewPartResponse(part),
	})
}

// GetPart GET /tickets/:id/repuestos/:part_id.
func (h *PartsHandler) GetPart(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ticketID, partID, err := partParams(c)
	if err != nil {
		return err
	}
	part, err := h.service.GetPart(c.UserContext(), user, ticketID, partID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPartResponse(part))
}

// ReplacePart PUT /tickets/:id/repuestos/:part_id.
func (h *PartsHandler) ReplacePart(c *fiber.Ctx) error {
	return h.update(c, false)
}

// PatchPart PATCH /tickets/:id/repuestos/:part_id.
func (h *PartsHandler) PatchPart(c *fiber.Ctx) error {
	return h.update(c, true)
}

func (h *PartsHandler) update(c *fiber.Ctx, partial bool) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ticketID, partID, err := partParams(c)
	if err != nil {
		return err
	}
	input, err := partInput(c)
	if err != nil {
		return err
	}
	part, err := h.service.UpdatePart(c.UserContext(), user, ticketID, partID, input, partial)
	if err != nil {
		return err
	}
	return c.JSON(dto.PartEnvelope{
		Message:  "Part updated successfully.",
		Repuesto: dto.NewPartResponse(part),
	})
}

// DeletePart DELETE /tickets/:id/repuestos/:part_id.
func (h *PartsHandler) DeletePart(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ticketID, partID, err := partParams(c)
	if err != nil {
		return err
	}
	part, err := h.service.DeletePart(c.UserContext(), user, ticketID, partID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Part '" + part.Name + "' deleted successfully."})
}

func partParams(c *fiber.Ctx) (int64, int64, error) {
	ticketID, err := paramID(c, "id", "ticket")
	if err != nil {
		return 0, 0, err
	}
	partID, err := paramID(c, "part_id", "part")
	if err != nil {
		return 0, 0, err
	}
	return ticketID, partID, nil
}

func partInput(c *fiber.Ctx) (service.PartInput, error) {
	var req dto.PartRequest
	if err := parseBody(c, &req); err != nil {
		return service.PartInput{}, err
	}
	if err := dto.Validate(req); err != nil {
		return service.PartInput{}, err
	}
	return service.PartInput{
		Name:             req.Nombre,
		Serial:           req.Serial,
		EAN:              req.EAN,
		RegistrationDate: req.FechaRegistro.Ptr(),
		Cost:             req.Costo,
		Quantity:         req.Cantidad,
	}, nil
}
