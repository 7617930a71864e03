package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tickethelp/repair-service/internal/domain"
)

// PartRequest is the body of part create and update calls. Cost accepts a
// JSON number or a decimal string.
type PartRequest struct {
	Nombre        *string          `json:"nombre" validate:"omitempty,max=200"`
	Serial        *string          `json:"serial" validate:"omitempty,max=100"`
	EAN           *string          `json:"ean" validate:"omitempty,max=50"`
	FechaRegistro *Date            `json:"fecha_registro"`
	Costo         *decimal.Decimal `json:"costo"`
	Cantidad      *int             `json:"cantidad"`
}

// PartResponse represents one registered part.
type PartResponse struct {
	ID                     int64     `json:"id"`
	Ticket                 int64     `json:"ticket"`
	TicketID               int64     `json:"ticket_id"`
	Nombre                 string    `json:"nombre"`
	Serial                 *string   `json:"serial"`
	EAN                    *string   `json:"ean"`
	FechaRegistro          Date      `json:"fecha_registro"`
	Costo                  string    `json:"costo"`
	Cantidad               int       `json:"cantidad"`
	CostoTotal             string    `json:"costo_total"`
	RegistradoPor          *int64    `json:"registrado_por"`
	RegistradoPorNombre    string    `json:"registrado_por_nombre,omitempty"`
	RegistradoPorDocumento string    `json:"registrado_por_documento,omitempty"`
	CreadoEn               time.Time `json:"creado_en"`
	ActualizadoEn          time.Time `json:"actualizado_en"`
}

// PartListResponse is returned when the ticket has parts.
type PartListResponse struct {
	Message        string         `json:"message"`
	TicketID       int64          `json:"ticket_id"`
	TotalRepuestos int            `json:"total_repuestos"`
	TotalCosto     float64        `json:"total_costo"`
	Repuestos      []PartResponse `json:"repuestos"`
}

// EmptyPartListResponse is returned when there is nothing to show.
type EmptyPartListResponse struct {
	Message    string         `json:"message"`
	Repuestos  []PartResponse `json:"repuestos"`
	TotalCosto float64        `json:"total_costo"`
}

// PartEnvelope pairs a part with a confirmation message.
type PartEnvelope struct {
	Message  string       `json:"message"`
	Repuesto PartResponse `json:"repuesto"`
}

// NewPartResponse maps a part.
func NewPartResponse(p *domain.Part) PartResponse {
	resp := PartResponse{
		ID:            p.ID,
		Ticket:        p.TicketID,
		TicketID:      p.TicketID,
		Nombre:        p.Name,
		Serial:        p.Serial,
		EAN:           p.EAN,
		FechaRegistro: Date{Time: p.RegistrationDate},
		Costo:         p.Cost.StringFixed(2),
		Cantidad:      p.Quantity,
		CostoTotal:    p.CostTotal().StringFixed(2),
		CreadoEn:      p.CreatedAt,
		ActualizadoEn: p.UpdatedAt,
	}
	if p.RegisteredBy != nil {
		id := p.RegisteredBy.ID
		resp.RegistradoPor = &id
		resp.RegistradoPorNombre = p.RegisteredBy.FullName
		resp.RegistradoPorDocumento = p.RegisteredBy.Document
	}
	return resp
}

// NewPartResponses maps a slice of parts.
func NewPartResponses(parts []domain.Part) []PartResponse {
	resp := make([]PartResponse, 0, len(parts))
	for i := range parts {
		resp = append(resp, NewPartResponse(&parts[i]))
	}
	return resp
}

// Money converts a decimal amount to a JSON number with two decimals.
func Money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
