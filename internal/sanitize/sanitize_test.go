package sanitize

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-parser/internal/entity"
)

func TestToNumberOrNull(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  *float64
	}{
		{"nil", nil, nil},
		{"empty string", "", nil},
		{"whitespace string", "   ", nil},
		{"unparsable string", "abc", nil},
		{"partially numeric string", "12abc", nil},
		{"numeric string", "12.5", f(12.5)},
		{"negative numeric string", "-3.25", f(-3.25)},
		{"integer string", "42", f(42)},
		{"padded numeric string", " 7 ", f(7)},
		{"nan string", "NaN", nil},
		{"infinity string", "Infinity", nil},
		{"negative infinity string", "-Inf", nil},
		{"float64", 99.9, f(99.9)},
		{"float64 nan", math.NaN(), nil},
		{"float64 positive inf", math.Inf(1), nil},
		{"float64 negative inf", math.Inf(-1), nil},
		{"float32", float32(2.5), f(2.5)},
		{"int", 7, f(7)},
		{"int64", int64(-12), f(-12)},
		{"zero", 0, f(0)},
		{"json number", json.Number("15.75"), f(15.75)},
		{"bad json number", json.Number("x"), nil},
		{"bool", true, nil},
		{"map", map[string]any{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToNumberOrNull(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestDeepReplacesNonFiniteNumbers(t *testing.T) {
	in := map[string]any{
		"total":  math.NaN(),
		"tax":    math.Inf(1),
		"name":   "ACME",
		"count":  float64(3),
		"absent": nil,
		"line_items": []any{
			map[string]any{"quantity": math.Inf(-1), "description": "widget"},
			math.NaN(),
			"keep me",
		},
	}

	got, ok := Deep(in).(map[string]any)
	require.True(t, ok)

	assert.Nil(t, got["total"])
	assert.Nil(t, got["tax"])
	assert.Equal(t, "ACME", got["name"])
	assert.Equal(t, float64(3), got["count"])
	assert.Nil(t, got["absent"])

	items, ok := got["line_items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 3)
	first, ok := items[0].(map[string]any)
	require.True(t, ok)
	assert.Nil(t, first["quantity"])
	assert.Equal(t, "widget", first["description"])
	assert.Nil(t, items[1])
	assert.Equal(t, "keep me", items[2])
}

func TestDeepPreservesStructureAndKeys(t *testing.T) {
	in := map[string]any{
		"a": map[string]any{"b": []any{float64(1), "x", nil}},
		"c": true,
	}
	got := Deep(in)
	assert.Equal(t, in, got)
}

func TestDeepIsIdempotent(t *testing.T) {
	in := map[string]any{
		"total": math.NaN(),
		"items": []any{math.Inf(1), float64(2), "text"},
		"meta":  map[string]any{"tax": math.Inf(-1)},
	}
	once := Deep(in)
	twice := Deep(once)
	assert.Equal(t, once, twice)

	// The sanitized value must survive JSON encoding, which rejects NaN.
	_, err := json.Marshal(once)
	require.NoError(t, err)
}

func TestDeepDoesNotMutateInput(t *testing.T) {
	in := map[string]any{"total": math.NaN(), "name": "x"}
	_ = Deep(in)
	assert.True(t, math.IsNaN(in["total"].(float64)))
}

func TestRecordNilsNonFiniteFields(t *testing.T) {
	rec := &entity.InvoiceRecord{
		InvoiceNumber: s("INV-1"),
		Subtotal:      f(math.NaN()),
		Tax:           f(math.Inf(1)),
		TotalAmount:   f(120),
		LineItems: []entity.LineItem{
			{Description: s("widget"), Quantity: f(math.Inf(-1)), UnitPrice: f(10)},
		},
	}

	got := Record(rec)

	assert.Nil(t, got.Subtotal)
	assert.Nil(t, got.Tax)
	require.NotNil(t, got.TotalAmount)
	assert.Equal(t, float64(120), *got.TotalAmount)
	assert.Nil(t, got.LineItems[0].Quantity)
	require.NotNil(t, got.LineItems[0].UnitPrice)
	assert.Equal(t, float64(10), *got.LineItems[0].UnitPrice)

	// Source record is untouched.
	assert.True(t, math.IsNaN(*rec.Subtotal))

	_, err := json.Marshal(got)
	require.NoError(t, err)
}

func TestRecordNil(t *testing.T) {
	assert.Nil(t, Record(nil))
}

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }
