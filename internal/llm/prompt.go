package llm

import "encoding/json"

const ocrPrompt = `Extract all text from this invoice image. Return only the raw text content, preserving the layout as much as possible. Include all numbers, dates, addresses, and item details exactly as they appear.`

const extractPromptHeader = `You are an expert invoice parser. Extract the invoice data from the provided invoice image and return it as a JSON object that conforms to the following JSON schema:

`

const extractPromptFooter = `

Rules:
- Return ONLY the JSON object, with no commentary.
- Use null for any field that cannot be determined from the invoice.
- Dates should be returned as they appear on the invoice.
- Numeric fields must be plain numbers without currency symbols or thousands separators.`

// buildExtractPrompt embeds the invoice schema into the extraction prompt so
// the model knows the exact shape it must produce.
func buildExtractPrompt() string {
	b, err := json.MarshalIndent(BuildInvoiceJSONSchema(), "", "  ")
	if err != nil {
		// schema is a static literal, marshal cannot fail
		return extractPromptHeader + extractPromptFooter
	}
	return extractPromptHeader + string(b) + extractPromptFooter
}
