package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/tickethelp/repair-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Descripcion   string  `json:"descripcion"`
	Equipo        string  `json:"equipo" validate:"max=120"`
	Prioridad     *string `json:"prioridad" validate:"omitempty,oneof=low medium high urgent"`
	FechaEstimada *Date   `json:"fecha_estimada"`
	Repuestos     *string `json:"repuestos"`
	Estado        *int64  `json:"estado" validate:"omitempty,gt=0"`
	Administrador *int64  `json:"administrador" validate:"omitempty,gt=0"`
	Tecnico       *int64  `json:"tecnico" validate:"omitempty,gt=0"`
	Cliente       *int64  `json:"cliente" validate:"omitempty,gt=0"`
}

// UpdateTicketRequest is a partial update; absent keys are left untouched.
type UpdateTicketRequest struct {
	Descripcion   *string    `json:"descripcion"`
	Equipo        *string    `json:"equipo" validate:"omitempty,max=120"`
	Prioridad     *string    `json:"prioridad" validate:"omitempty,oneof=low medium high urgent"`
	FechaEstimada *Date      `json:"fecha_estimada"`
	Repuestos     *string    `json:"repuestos"`
	Estado        *int64     `json:"estado" validate:"omitempty,gt=0"`
	Tecnico       NullableID `json:"tecnico"`
	Cliente       *int64     `json:"cliente" validate:"omitempty,gt=0"`
}

// NullableID tells an explicit null apart from an absent key.
type NullableID struct {
	Set   bool
	Value *int64
}

// UnmarshalJSON runs only when the key is present.
func (n *NullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	n.Value = &id
	return nil
}

// TicketListQuery captures query filters for GET /tickets.
type TicketListQuery struct {
	Estado    string `query:"estado"`
	Prioridad string `query:"prioridad" validate:"omitempty,oneof=low medium high urgent"`
	Tecnico   int64  `query:"tecnico"`
	Search    string `query:"search"`
	Page      int    `query:"page"`
	PageSize  int    `query:"page_size"`
}

// TicketResponse is the full representation of a ticket.
type TicketResponse struct {
	ID            int64            `json:"id"`
	Administrador *UserRefResponse `json:"administrador"`
	Tecnico       *UserRefResponse `json:"tecnico"`
	Cliente       *UserRefResponse `json:"cliente"`
	Estado        StatusResponse   `json:"estado"`
	Descripcion   string           `json:"descripcion"`
	Equipo        string           `json:"equipo"`
	Prioridad     string           `json:"prioridad"`
	FechaEstimada *Date            `json:"fecha_estimada"`
	Repuestos     *string          `json:"repuestos"`
	EsActivo      bool             `json:"es_activo"`
	Fecha         time.Time        `json:"fecha"`
	CreadoEn      time.Time        `json:"creado_en"`
	ActualizadoEn time.Time        `json:"actualizado_en"`
}

// TicketListResponse wraps one page of tickets.
type TicketListResponse struct {
	Data     []TicketResponse `json:"data"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// TicketHistoryResponse represents one audit trail entry.
type TicketHistoryResponse struct {
	ID              int64            `json:"id"`
	Ticket          int64            `json:"ticket"`
	Estado          string           `json:"estado"`
	EstadoAnterior  *string          `json:"estado_anterior"`
	Tecnico         *UserRefResponse `json:"tecnico"`
	TecnicoAnterior *UserRefResponse `json:"tecnico_anterior"`
	Accion          string           `json:"accion"`
	Fecha           time.Time        `json:"fecha"`
	RealizadoPor    *UserRefResponse `json:"realizado_por"`
	DatosTicket     map[string]any   `json:"datos_ticket"`
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:            t.ID,
		Administrador: NewUserRef(t.Administrator),
		Tecnico:       NewUserRef(t.Technician),
		Cliente:       NewUserRef(t.Client),
		Estado:        NewStatusResponse(t.Status),
		Descripcion:   t.Description,
		Equipo:        t.Equipment,
		Prioridad:     string(t.Priority),
		FechaEstimada: NewDate(t.EstimatedDate),
		Repuestos:     t.PartsNotes,
		EsActivo:      t.IsActive(),
		Fecha:         t.OpenedAt,
		CreadoEn:      t.CreatedAt,
		ActualizadoEn: t.UpdatedAt,
	}
}

// NewTicketResponses maps a slice of tickets.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	resp := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		resp = append(resp, NewTicketResponse(&tickets[i]))
	}
	return resp
}

// NewHistoryResponses maps history entries in the order given.
func NewHistoryResponses(entries []domain.TicketHistory) []TicketHistoryResponse {
	resp := make([]TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, TicketHistoryResponse{
			ID:              entry.ID,
			Ticket:          entry.TicketID,
			Estado:          entry.Status,
			EstadoAnterior:  entry.PreviousStatus,
			Tecnico:         NewUserRef(entry.Technician),
			TecnicoAnterior: NewUserRef(entry.PreviousTechnician),
			Accion:          entry.Action,
			Fecha:           entry.Date,
			RealizadoPor:    NewUserRef(entry.PerformedBy),
			DatosTicket:     entry.Snapshot,
		})
	}
	return resp
}
