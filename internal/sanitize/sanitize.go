// Package sanitize coerces values so they are safe for numeric transport:
// no NaN, no infinities, no unparsable number strings.
package sanitize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"invoice-parser/internal/entity"
)

// ToNumberOrNull coerces an arbitrary value to a finite number or nil.
// Empty strings, nil, unparsable strings, NaN and infinities all collapse to
// nil. It never fails: anything that is not a finite number comes back nil.
func ToNumberOrNull(value any) *float64 {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		return finiteOrNil(v)
	case float32:
		return finiteOrNil(float64(v))
	case int:
		return finiteOrNil(float64(v))
	case int32:
		return finiteOrNil(float64(v))
	case int64:
		return finiteOrNil(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return finiteOrNil(f)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return finiteOrNil(f)
	default:
		return nil
	}
}

func finiteOrNil(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Deep walks an acyclic value of maps, slices and scalars (the shape produced
// by decoding a JSON payload) and replaces every non-finite number with nil.
// Structure and key sets are preserved; non-numeric scalars pass through
// unchanged. Deep is idempotent.
func Deep(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case float32:
		return Deep(float64(v))
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Deep(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = Deep(item)
		}
		return out
	default:
		return v
	}
}

// Record returns a deep copy of the record with every non-finite numeric
// field nilled, ready for JSON transport.
func Record(r *entity.InvoiceRecord) *entity.InvoiceRecord {
	if r == nil {
		return nil
	}
	out := r.Clone()
	out.Subtotal = finitePtr(out.Subtotal)
	out.Tax = finitePtr(out.Tax)
	out.TotalAmount = finitePtr(out.TotalAmount)
	for i := range out.LineItems {
		out.LineItems[i].Quantity = finitePtr(out.LineItems[i].Quantity)
		out.LineItems[i].UnitPrice = finitePtr(out.LineItems[i].UnitPrice)
		out.LineItems[i].TotalPrice = finitePtr(out.LineItems[i].TotalPrice)
	}
	return out
}

func finitePtr(p *float64) *float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil
	}
	return p
}
