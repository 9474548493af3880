package llm

import (
	"encoding/json"
	"fmt"

	"invoice-parser/internal/sanitize"
)

var numericFields = map[string]bool{
	"subtotal":     true,
	"tax":          true,
	"total_amount": true,
}

var stringFields = map[string]bool{
	"invoice_number":   true,
	"invoice_date":     true,
	"due_date":         true,
	"billing_address":  true,
	"shipping_address": true,
	"vendor_name":      true,
	"customer_name":    true,
	"currency":         true,
}

var lineItemNumericFields = map[string]bool{
	"quantity":    true,
	"unit_price":  true,
	"total_price": true,
}

// SanitizeOptionalFields repairs common model slip-ups in an otherwise sound
// response: numbers produced as strings ("1,234.50"), extra keys the schema
// does not allow, and non-finite numeric text. Keys it cannot repair are
// dropped rather than failing the whole extraction; their names are returned
// so the caller can log them. All fields are optional, so dropping is safe.
func SanitizeOptionalFields(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("unmarshal for sanitize: %w", err)
	}

	var dropped []string
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch {
		case numericFields[k]:
			out[k] = toNumberOrNil(v)
		case stringFields[k]:
			if s, ok := coerceString(v); ok {
				out[k] = s
			} else {
				dropped = append(dropped, k)
			}
		case k == "line_items":
			items, ok := sanitizeLineItems(v)
			if !ok {
				dropped = append(dropped, k)
				continue
			}
			out[k] = items
		default:
			dropped = append(dropped, k)
		}
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, dropped, fmt.Errorf("marshal sanitized: %w", err)
	}
	return b, dropped, nil
}

func sanitizeLineItems(v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	items := make([]any, 0, len(arr))
	for _, el := range arr {
		item, ok := el.(map[string]any)
		if !ok {
			continue
		}
		clean := make(map[string]any, len(item))
		for k, iv := range item {
			switch {
			case lineItemNumericFields[k]:
				clean[k] = toNumberOrNil(iv)
			case k == "description":
				if s, ok := coerceString(iv); ok {
					clean[k] = s
				}
			}
		}
		items = append(items, clean)
	}
	return items, true
}

// toNumberOrNil returns a JSON-encodable number or an explicit null.
func toNumberOrNil(v any) any {
	if n := sanitize.ToNumberOrNull(v); n != nil {
		return *n
	}
	return nil
}

func coerceString(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case string:
		return t, true
	default:
		return nil, false
	}
}
