package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"invoice-parser/internal/common"
	"invoice-parser/internal/entity"
)

const (
	ocrMaxTokens     = 2048
	extractMaxTokens = 1024
)

// Client talks to an OpenAI-compatible chat/completions endpoint with vision
// support (Groq in production).
type Client struct {
	cfg        common.LLMConfig
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg common.LLMConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

// ExtractRawText runs the OCR prompt against the invoice image and returns the
// raw text the model read off the page.
func (c *Client) ExtractRawText(ctx context.Context, jpegImage []byte) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.ocr.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.OCRTemp,
		"image_bytes", len(jpegImage),
	)

	body := map[string]any{
		"model":                 c.cfg.Model,
		"temperature":           c.cfg.OCRTemp,
		"max_completion_tokens": ocrMaxTokens,
		"messages":              []map[string]any{visionMessage(ocrPrompt, jpegImage)},
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		c.log.Error("llm.ocr.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	c.log.Info("llm.ocr.ok",
		"req_id", rid,
		"text_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// ExtractInvoice asks the model for structured invoice data. It returns the
// parsed record plus the raw JSON content exactly as the model produced it,
// so callers can surface the unprocessed response alongside the structured one.
func (c *Client) ExtractInvoice(ctx context.Context, jpegImage []byte) (*entity.InvoiceRecord, string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.ExtractTemp,
		"image_bytes", len(jpegImage),
	)

	schema := BuildInvoiceJSONSchema()
	body := map[string]any{
		"model":                 c.cfg.Model,
		"temperature":           c.cfg.ExtractTemp,
		"max_completion_tokens": extractMaxTokens,
		"response_format":       map[string]any{"type": "json_object"},
		"messages":              []map[string]any{visionMessage(buildExtractPrompt(), jpegImage)},
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, "", err
	}
	rawContent := []byte(strings.TrimSpace(content))

	// Validate strictly first.
	if err := ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		// Try a lenient sanitize: coerce stringified numbers, drop unknown
		// keys, then re-validate.
		cleaned, dropped, sErr := SanitizeOptionalFields(rawContent)
		if sErr != nil {
			c.log.Error("llm.extract.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, string(rawContent), fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.log.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", string(rawContent),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, string(rawContent), fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.log.Warn("llm.extract.lenient_sanitize_applied",
			"req_id", rid, "dropped", dropped,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	}

	var out entity.InvoiceRecord
	if err := json.Unmarshal(rawContent, &out); err != nil {
		c.log.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, string(rawContent), fmt.Errorf("unmarshal invoice: %w", err)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"invoice_number", strPtr(out.InvoiceNumber),
		"vendor", strPtr(out.VendorName),
		"total", numPtr(out.TotalAmount),
		"line_items", len(out.LineItems),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &out, string(rawContent), nil
}

// complete posts a chat/completions body and returns the first choice content.
func (c *Client) complete(ctx context.Context, body map[string]any) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	return cc.Choices[0].Message.Content, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.log.Warn("llm response body close error", "error", cerr)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("llm status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}

// visionMessage builds a user message carrying the prompt text plus the
// invoice image as a base64 data URL.
func visionMessage(prompt string, jpegImage []byte) map[string]any {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegImage)
	return map[string]any{
		"role": "user",
		"content": []map[string]any{
			{"type": "text", "text": prompt},
			{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
		},
	}
}

func strPtr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func numPtr(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
