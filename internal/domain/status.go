package domain

// Status codes of the fixed six-row catalog.
const (
	StatusCodeOpen            = "open"
	StatusCodeDiagnosis       = "diagnosis"
	StatusCodeInRepair        = "in_repair"
	StatusCodeWaitingForParts = "Waiting_for_replacement_parts"
	StatusCodeTrial           = "trial"
	StatusCodeClosed          = "closed"

	unknownStatusName = "Sin estado"
)

// Status is one entry of the ticket lifecycle catalog.
type Status struct {
	ID       int64
	Code     string
	Name     string
	IsActive bool
	IsFinal  bool
}

// DefaultStatuses returns the catalog rows every deployment must carry.
func DefaultStatuses() []Status {
	return []Status{
		{ID: 1, Code: StatusCodeOpen, Name: "Abierto", IsActive: true},
		{ID: 2, Code: StatusCodeDiagnosis, Name: "En diagnóstico", IsActive: true},
		{ID: 3, Code: StatusCodeInRepair, Name: "En reparación", IsActive: true},
		{ID: 4, Code: StatusCodeWaitingForParts, Name: "Esperando repuestos", IsActive: true},
		{ID: 5, Code: StatusCodeTrial, Name: "En prueba", IsActive: true},
		{ID: 6, Code: StatusCodeClosed, Name: "finalizado", IsActive: false, IsFinal: true},
	}
}

// DisplayName falls back to a placeholder for tickets loaded without a status.
func (s Status) DisplayName() string {
	if s.Name == "" {
		return unknownStatusName
	}
	return s.Name
}
