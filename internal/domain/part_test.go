package domain

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPart_CostTotal(t *testing.T) {
	tests := []struct {
		name     string
		cost     string
		quantity int
		want     string
	}{
		{"single unit", "10.00", 1, "10.00"},
		{"fan pair", "25.50", 2, "51.00"},
		{"cents", "0.01", 3, "0.03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			part := Part{Cost: decimal.RequireFromString(tt.cost), Quantity: tt.quantity}
			assert.Equal(t, tt.want, part.CostTotal().StringFixed(2))

			part.Quantity++
			expected := part.Cost.Mul(decimal.NewFromInt(int64(part.Quantity)))
			assert.True(t, expected.Equal(part.CostTotal()), "total must follow stored fields")
		})
	}
}

func TestPart_Validate(t *testing.T) {
	tests := []struct {
		name    string
		part    Part
		wantErr []string
	}{
		{
			name: "valid",
			part: Part{Name: "Fan", Cost: decimal.RequireFromString("25.50"), Quantity: 2},
		},
		{
			name:    "zero cost",
			part:    Part{Name: "Fan", Cost: decimal.Zero, Quantity: 1},
			wantErr: []string{"costo"},
		},
		{
			name:    "negative cost and zero quantity",
			part:    Part{Name: "Fan", Cost: decimal.NewFromInt(-3), Quantity: 0},
			wantErr: []string{"costo", "cantidad"},
		},
		{
			name:    "blank name",
			part:    Part{Name: "  ", Cost: decimal.NewFromInt(1), Quantity: 1},
			wantErr: []string{"nombre"},
		},
		{
			name:    "cost with three decimals",
			part:    Part{Name: "Fan", Cost: decimal.RequireFromString("25.555"), Quantity: 2},
			wantErr: []string{"costo"},
		},
		{
			name:    "cost rounding to zero",
			part:    Part{Name: "Washer", Cost: decimal.RequireFromString("0.004"), Quantity: 1},
			wantErr: []string{"costo"},
		},
		{
			name: "trailing zero decimals",
			part: Part{Name: "Fan", Cost: decimal.RequireFromString("25.500"), Quantity: 1},
		},
		{
			name: "accented name within limit",
			part: Part{Name: strings.Repeat("ñ", 200), Serial: ptr(strings.Repeat("é", 100)), EAN: ptr(strings.Repeat("ü", 50)), Cost: decimal.NewFromInt(1), Quantity: 1},
		},
		{
			name:    "accented name over limit",
			part:    Part{Name: strings.Repeat("ñ", 201), Cost: decimal.NewFromInt(1), Quantity: 1},
			wantErr: []string{"nombre"},
		},
		{
			name:    "cost overflow",
			part:    Part{Name: "Board", Cost: decimal.NewFromInt(100000000), Quantity: 1},
			wantErr: []string{"costo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.part.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			fieldErrs, ok := err.(FieldErrors)
			require.True(t, ok)
			for _, field := range tt.wantErr {
				assert.Contains(t, fieldErrs, field)
			}
			assert.Len(t, fieldErrs, len(tt.wantErr))
		})
	}
}

func TestPartsTotal(t *testing.T) {
	parts := []Part{
		{Cost: decimal.RequireFromString("25.50"), Quantity: 2},
		{Cost: decimal.RequireFromString("4.25"), Quantity: 4},
	}
	assert.Equal(t, "68.00", PartsTotal(parts).StringFixed(2))
	assert.True(t, PartsTotal(nil).IsZero())
}

func ptr(s string) *string {
	return &s
}
