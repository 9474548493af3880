// Package entity holds the plain data shapes shared across the application.
package entity

// LineItem is one row of an invoice. All fields are optional: a nil pointer
// means "not extracted", which is distinct from zero.
type LineItem struct {
	Description *string  `json:"description"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	TotalPrice  *float64 `json:"total_price"`
}

// InvoiceRecord is the structured data extracted from one invoice document.
// Line items are ordered and addressed by position; there is no stable id.
type InvoiceRecord struct {
	InvoiceNumber   *string    `json:"invoice_number"`
	InvoiceDate     *string    `json:"invoice_date"`
	DueDate         *string    `json:"due_date"`
	BillingAddress  *string    `json:"billing_address"`
	ShippingAddress *string    `json:"shipping_address"`
	VendorName      *string    `json:"vendor_name"`
	CustomerName    *string    `json:"customer_name"`
	LineItems       []LineItem `json:"line_items"`
	Subtotal        *float64   `json:"subtotal"`
	Tax             *float64   `json:"tax"`
	TotalAmount     *float64   `json:"total_amount"`
	Currency        *string    `json:"currency"`
}

// Clone returns an independent deep copy of the record. The copy shares no
// pointers or slice backing with the original, so edits to one never show
// through the other.
func (r *InvoiceRecord) Clone() *InvoiceRecord {
	if r == nil {
		return nil
	}
	out := &InvoiceRecord{
		InvoiceNumber:   cloneStr(r.InvoiceNumber),
		InvoiceDate:     cloneStr(r.InvoiceDate),
		DueDate:         cloneStr(r.DueDate),
		BillingAddress:  cloneStr(r.BillingAddress),
		ShippingAddress: cloneStr(r.ShippingAddress),
		VendorName:      cloneStr(r.VendorName),
		CustomerName:    cloneStr(r.CustomerName),
		Subtotal:        cloneNum(r.Subtotal),
		Tax:             cloneNum(r.Tax),
		TotalAmount:     cloneNum(r.TotalAmount),
		Currency:        cloneStr(r.Currency),
	}
	if r.LineItems != nil {
		out.LineItems = make([]LineItem, len(r.LineItems))
		for i, it := range r.LineItems {
			out.LineItems[i] = LineItem{
				Description: cloneStr(it.Description),
				Quantity:    cloneNum(it.Quantity),
				UnitPrice:   cloneNum(it.UnitPrice),
				TotalPrice:  cloneNum(it.TotalPrice),
			}
		}
	}
	return out
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneNum(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// InvoiceHeader is one saved row of the SalesOrderHeader sheet. Rows are
// created by the store and are read-only for clients.
type InvoiceHeader struct {
	OrderID         int     `json:"OrderID"`
	InvoiceNumber   string  `json:"InvoiceNumber"`
	OrderDate       string  `json:"OrderDate"`
	InvoiceDate     string  `json:"InvoiceDate"`
	DueDate         string  `json:"DueDate"`
	CustomerID      string  `json:"CustomerID"`
	CustomerName    string  `json:"CustomerName"`
	VendorName      string  `json:"VendorName"`
	BillingAddress  string  `json:"BillingAddress"`
	ShippingAddress string  `json:"ShippingAddress"`
	SubTotal        float64 `json:"SubTotal"`
	Tax             float64 `json:"Tax"`
	TotalAmount     float64 `json:"TotalAmount"`
	Currency        string  `json:"Currency"`
	Status          string  `json:"Status"`
	CreatedAt       string  `json:"CreatedAt"`
	UpdatedAt       string  `json:"UpdatedAt"`
}

// InvoiceDetail is one saved row of the SalesOrderDetail sheet.
type InvoiceDetail struct {
	OrderID         int     `json:"OrderID"`
	LineNumber      int     `json:"LineNumber"`
	ItemDescription string  `json:"ItemDescription"`
	Quantity        float64 `json:"Quantity"`
	UnitPrice       float64 `json:"UnitPrice"`
	LineTotal       float64 `json:"LineTotal"`
	CreatedAt       string  `json:"CreatedAt"`
}
