package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickethelp/repair-service/internal/domain"
	apperrors "github.com/tickethelp/repair-service/pkg/util"
)

func TestPartRequest_AcceptsNumberAndStringCost(t *testing.T) {
	var fromNumber, fromString PartRequest
	require.NoError(t, json.Unmarshal([]byte(`{"nombre":"Fan","costo":25.5,"cantidad":2,"fecha_registro":"2025-03-01"}`), &fromNumber))
	require.NoError(t, json.Unmarshal([]byte(`{"nombre":"Fan","costo":"25.50"}`), &fromString))

	assert.True(t, fromNumber.Costo.Equal(decimal.RequireFromString("25.50")))
	assert.True(t, fromString.Costo.Equal(decimal.RequireFromString("25.50")))
	assert.Equal(t, 2, *fromNumber.Cantidad)
	assert.Equal(t, "2025-03-01", fromNumber.FechaRegistro.Format(time.DateOnly))
	assert.Nil(t, fromString.Cantidad)
}

func TestDate_RejectsOtherLayouts(t *testing.T) {
	var req PartRequest
	err := json.Unmarshal([]byte(`{"fecha_registro":"01/03/2025"}`), &req)
	assert.Error(t, err)
}

func TestNullableID(t *testing.T) {
	var absent, cleared, set UpdateTicketRequest
	require.NoError(t, json.Unmarshal([]byte(`{}`), &absent))
	require.NoError(t, json.Unmarshal([]byte(`{"tecnico":null}`), &cleared))
	require.NoError(t, json.Unmarshal([]byte(`{"tecnico":7}`), &set))

	assert.False(t, absent.Tecnico.Set)
	assert.True(t, cleared.Tecnico.Set)
	assert.Nil(t, cleared.Tecnico.Value)
	assert.True(t, set.Tecnico.Set)
	assert.Equal(t, int64(7), *set.Tecnico.Value)
}

func TestValidate(t *testing.T) {
	bad := "someday"
	err := Validate(CreateTicketRequest{Prioridad: &bad})
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	assert.Contains(t, domainErr.Details, "prioridad")

	err = Validate(LoginRequest{Email: "not-an-email"})
	domainErr = apperrors.ToDomainError(err)
	assert.Contains(t, domainErr.Details, "email")
	assert.Contains(t, domainErr.Details, "password")

	assert.NoError(t, Validate(CreateStateRequest{ToState: 2}))
}

func TestNewPartResponse(t *testing.T) {
	part := &domain.Part{
		ID:               9,
		TicketID:         4,
		Name:             "Fan",
		RegistrationDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Cost:             decimal.RequireFromString("25.5"),
		Quantity:         2,
		RegisteredBy:     &domain.UserRef{ID: 2, Document: "2000000001", FullName: "Tech Test"},
	}

	resp := NewPartResponse(part)
	assert.Equal(t, "25.50", resp.Costo)
	assert.Equal(t, "51.00", resp.CostoTotal)
	assert.Equal(t, int64(2), *resp.RegistradoPor)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"fecha_registro":"2025-03-01"`)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, 51.0, Money(decimal.RequireFromString("51.00")))
	assert.Equal(t, 10.13, Money(decimal.RequireFromString("10.125")))
}
