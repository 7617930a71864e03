package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tickethelp/repair-service/internal/api/dto"
	"github.com/tickethelp/repair-service/internal/domain"
	"github.com/tickethelp/repair-service/internal/service"
	apperrors "github.com/tickethelp/repair-service/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	input := service.TicketCreateInput{
		Description:     req.Descripcion,
		Equipment:       req.Equipo,
		Priority:        priority(req.Prioridad),
		EstimatedDate:   req.FechaEstimada.Ptr(),
		PartsNotes:      req.Repuestos,
		StatusID:        req.Estado,
		AdministratorID: req.Administrador,
		TechnicianID:    req.Tecnico,
		ClientID:        req.Cliente,
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), user, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var query dto.TicketListQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("invalid query", map[string]any{"query": err.Error()})
	}
	if err := dto.Validate(query); err != nil {
		return err
	}

	filter := service.TicketListFilter{Page: query.Page, PageSize: query.PageSize}
	if code := strings.TrimSpace(query.Estado); code != "" {
		filter.StatusCode = &code
	}
	if query.Prioridad != "" {
		filter.Priority = priority(&query.Prioridad)
	}
	if query.Tecnico > 0 {
		filter.TechnicianID = &query.Tecnico
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		filter.Search = &search
	}

	page, err := h.service.ListTickets(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketListResponse{
		Data:     dto.NewTicketResponses(page.Items),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "ticket")
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	input := service.TicketUpdateInput{
		Description:   req.Descripcion,
		Equipment:     req.Equipo,
		Priority:      priority(req.Prioridad),
		EstimatedDate: req.FechaEstimada.Ptr(),
		PartsNotes:    req.Repuestos,
		StatusID:      req.Estado,
		ClientID:      req.Cliente,
	}
	if req.Tecnico.Set {
		input.TechnicianID = req.Tecnico.Value
		input.UnassignTechnician = req.Tecnico.Value == nil
	}

	ticket, err := h.service.UpdateTicket(c.UserContext(), user, id, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "ticket")
	if err != nil {
		return err
	}
	entries, err := h.service.ListHistory(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryResponses(entries)})
}

func priority(raw *string) *domain.TicketPriority {
	if raw == nil || *raw == "" {
		return nil
	}
	p := domain.TicketPriority(*raw)
	return &p
}
