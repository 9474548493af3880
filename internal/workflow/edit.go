package workflow

import (
	"fmt"
	"strconv"
	"strings"

	"invoice-parser/internal/entity"
	"invoice-parser/internal/sanitize"
)

const lineItemPrefix = "line_item_"

// seedDraft creates the editable draft from the freshly extracted record.
// The draft is an independent deep copy; the original stays immutable. It is
// called exactly once per successful extraction, from Extract.
func (c *Controller) seedDraft(s *Session) {
	s.Draft = s.Invoice.Clone()
	s.ShowComparison = true
}

// EditField applies one field-level edit to the draft. Top-level numeric
// fields (subtotal, tax, total_amount) and line-item numeric sub-fields
// (quantity, unit_price, total_price) are coerced through the sanitizer so
// the draft never holds NaN, infinities or raw number strings; everything
// else is stored as given. Line items are addressed as
// "line_item_<index>_<subfield>"; an out-of-range index pads the sequence
// with empty items. The update is immutable: a new draft replaces the old
// one, which is never mutated in place.
func (c *Controller) EditField(s *Session, field string, value any) {
	if s.Draft == nil {
		return
	}

	draft := s.Draft.Clone()

	if strings.HasPrefix(field, lineItemPrefix) {
		idx, sub, ok := splitLineItemKey(field)
		if !ok {
			c.logger.Warn("edit.field.malformed", "field", field)
			return
		}
		for len(draft.LineItems) <= idx {
			draft.LineItems = append(draft.LineItems, entity.LineItem{})
		}
		item := &draft.LineItems[idx]
		switch sub {
		case "description":
			item.Description = asString(value)
		case "quantity":
			item.Quantity = sanitize.ToNumberOrNull(value)
		case "unit_price":
			item.UnitPrice = sanitize.ToNumberOrNull(value)
		case "total_price":
			item.TotalPrice = sanitize.ToNumberOrNull(value)
		default:
			c.logger.Warn("edit.field.unknown", "field", field)
			return
		}
		s.Draft = draft
		return
	}

	switch field {
	case "invoice_number":
		draft.InvoiceNumber = asString(value)
	case "invoice_date":
		draft.InvoiceDate = asString(value)
	case "due_date":
		draft.DueDate = asString(value)
	case "billing_address":
		draft.BillingAddress = asString(value)
	case "shipping_address":
		draft.ShippingAddress = asString(value)
	case "vendor_name":
		draft.VendorName = asString(value)
	case "customer_name":
		draft.CustomerName = asString(value)
	case "currency":
		draft.Currency = asString(value)
	case "subtotal":
		draft.Subtotal = sanitize.ToNumberOrNull(value)
	case "tax":
		draft.Tax = sanitize.ToNumberOrNull(value)
	case "total_amount":
		draft.TotalAmount = sanitize.ToNumberOrNull(value)
	default:
		c.logger.Warn("edit.field.unknown", "field", field)
		return
	}
	s.Draft = draft
}

// splitLineItemKey parses "line_item_<index>_<subfield>".
func splitLineItemKey(field string) (idx int, sub string, ok bool) {
	rest := strings.TrimPrefix(field, lineItemPrefix)
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return 0, "", false
	}
	idx, err := strconv.Atoi(parts[0])
	if err != nil || idx < 0 {
		return 0, "", false
	}
	return idx, parts[1], true
}

func asString(value any) *string {
	if value == nil {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprint(value)
	}
	return &s
}
