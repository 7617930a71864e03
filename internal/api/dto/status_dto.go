package dto

import "github.com/tickethelp/repair-service/internal/domain"

// StatusResponse is one catalog entry.
type StatusResponse struct {
	ID       int64  `json:"id"`
	Codigo   string `json:"codigo"`
	Nombre   string `json:"nombre"`
	EsActivo bool   `json:"es_activo"`
	EsFinal  bool   `json:"es_final"`
}

// NewStatusResponse maps a status.
func NewStatusResponse(s domain.Status) StatusResponse {
	return StatusResponse{ID: s.ID, Codigo: s.Code, Nombre: s.Name, EsActivo: s.IsActive, EsFinal: s.IsFinal}
}

// NewStatusResponses maps the catalog.
func NewStatusResponses(statuses []domain.Status) []StatusResponse {
	resp := make([]StatusResponse, 0, len(statuses))
	for _, s := range statuses {
		resp = append(resp, NewStatusResponse(s))
	}
	return resp
}
