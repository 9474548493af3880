package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeOptionalFieldsCoercesStringNumbers(t *testing.T) {
	raw := []byte(`{
		"invoice_number": "INV-1",
		"subtotal": "90.50",
		"tax": "abc",
		"total_amount": 100,
		"line_items": [
			{"description": "widget", "quantity": "3", "unit_price": "NaN", "total_price": 90}
		]
	}`)

	cleaned, dropped, err := SanitizeOptionalFields(raw)
	require.NoError(t, err)
	assert.Empty(t, dropped)

	var m map[string]any
	require.NoError(t, json.Unmarshal(cleaned, &m))
	assert.Equal(t, 90.5, m["subtotal"])
	assert.Nil(t, m["tax"], "unparsable numeric text collapses to null")
	assert.Equal(t, float64(100), m["total_amount"])

	items := m["line_items"].([]any)
	item := items[0].(map[string]any)
	assert.Equal(t, float64(3), item["quantity"])
	assert.Nil(t, item["unit_price"])
	assert.Equal(t, float64(90), item["total_price"])
}

func TestSanitizeOptionalFieldsDropsUnknownKeys(t *testing.T) {
	raw := []byte(`{"invoice_number": "INV-1", "confidence": 0.93, "notes": "looks fine"}`)

	cleaned, dropped, err := SanitizeOptionalFields(raw)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"confidence", "notes"}, dropped)

	var m map[string]any
	require.NoError(t, json.Unmarshal(cleaned, &m))
	assert.Equal(t, "INV-1", m["invoice_number"])
	assert.NotContains(t, m, "confidence")
	assert.NotContains(t, m, "notes")
}

func TestSanitizeOptionalFieldsOutputValidates(t *testing.T) {
	raw := []byte(`{
		"invoice_number": "INV-1",
		"subtotal": "1000",
		"extra_field": true,
		"line_items": [{"quantity": "2", "made_up": "x"}]
	}`)

	schema := BuildInvoiceJSONSchema()
	require.Error(t, ValidateJSONAgainstSchema(schema, raw))

	cleaned, _, err := SanitizeOptionalFields(raw)
	require.NoError(t, err)
	require.NoError(t, ValidateJSONAgainstSchema(schema, cleaned))
}

func TestSanitizeOptionalFieldsRejectsNonObject(t *testing.T) {
	_, _, err := SanitizeOptionalFields([]byte(`"just a string"`))
	require.Error(t, err)
}

func TestValidateJSONAgainstSchema(t *testing.T) {
	schema := BuildInvoiceJSONSchema()

	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"all nulls", `{"invoice_number": null, "total_amount": null, "line_items": null}`, false},
		{"empty object", `{}`, false},
		{"typical extraction", `{"invoice_number": "INV-1", "vendor_name": "ACME", "total_amount": 99.5, "line_items": [{"description": "widget", "quantity": 1, "unit_price": 99.5, "total_price": 99.5}]}`, false},
		{"number as string", `{"total_amount": "99.5"}`, true},
		{"unknown top-level key", `{"invoice_number": "INV-1", "confidence": 1}`, true},
		{"unknown line item key", `{"line_items": [{"sku": "A-1"}]}`, true},
		{"line items not array", `{"line_items": {"description": "x"}}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSONAgainstSchema(schema, []byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
