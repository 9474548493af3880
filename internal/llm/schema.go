package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// nullable builds a type schema accepting the given type or null.
func nullable(typ string, description string) map[string]any {
	return map[string]any{
		"type":        []string{typ, "null"},
		"description": description,
	}
}

// BuildInvoiceJSONSchema returns the JSON schema the model must follow. All
// fields are nullable: absence means "not extracted", never an error.
func BuildInvoiceJSONSchema() map[string]any {
	lineItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": nullable("string", "A brief description of the product or service provided."),
			"quantity":    nullable("number", "The number of units of the product or service."),
			"unit_price":  nullable("number", "The price per unit of the product or service."),
			"total_price": nullable("number", "The total price for the line item, calculated as quantity times unit price."),
		},
		"additionalProperties": false,
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"invoice_number":   nullable("string", "The unique identifier or reference number of the invoice."),
			"invoice_date":     nullable("string", "The date when the invoice was issued."),
			"due_date":         nullable("string", "The payment due date."),
			"billing_address":  nullable("string", "The address of the customer who is being billed."),
			"shipping_address": nullable("string", "The address where the goods/services are to be delivered."),
			"vendor_name":      nullable("string", "The name of the company or individual issuing the invoice."),
			"customer_name":    nullable("string", "The name of the person or organization being billed."),
			"line_items": map[string]any{
				"type":        []string{"array", "null"},
				"description": "A list of items described in the invoice.",
				"items":       lineItem,
			},
			"subtotal":     nullable("number", "The sum of all line item totals before taxes or additional fees."),
			"tax":          nullable("number", "The tax amount applied to the subtotal."),
			"total_amount": nullable("number", "The final total to be paid including subtotal and taxes."),
			"currency":     nullable("string", "The currency in which the invoice is issued (e.g., USD, EUR)."),
		},
		"additionalProperties": false,
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
