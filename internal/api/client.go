// Package api is the HTTP client for the invoice-parser service endpoints.
// It implements workflow.Backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"invoice-parser/internal/entity"
	"invoice-parser/internal/workflow"
)

// Client talks to the invoice-parser HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a Client for the given base URL, e.g. "http://localhost:5000".
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 120 * time.Second},
		logger:  logger,
	}
}

// PDFInfo posts the file to /api/pdf-info and returns the page count payload.
func (c *Client) PDFInfo(ctx context.Context, file workflow.File) (*workflow.PDFInfoResponse, error) {
	body, contentType, err := fileForm(file, nil)
	if err != nil {
		return nil, err
	}
	var out workflow.PDFInfoResponse
	status, err := c.post(ctx, "/api/pdf-info", contentType, body, &out)
	if err != nil {
		return nil, err
	}
	out.HTTPStatus = status
	return &out, nil
}

// Extract posts the file and page index to /api/extract.
func (c *Client) Extract(ctx context.Context, file workflow.File, page int) (*workflow.ExtractResponse, error) {
	body, contentType, err := fileForm(file, map[string]string{
		"input_method": "upload",
		"page_number":  strconv.Itoa(page),
	})
	if err != nil {
		return nil, err
	}
	var out workflow.ExtractResponse
	status, err := c.post(ctx, "/api/extract", contentType, body, &out)
	if err != nil {
		return nil, err
	}
	out.HTTPStatus = status
	return &out, nil
}

// SaveInvoice posts the sanitized record to /api/save-invoice.
func (c *Client) SaveInvoice(ctx context.Context, rec *entity.InvoiceRecord) (*workflow.SaveResponse, error) {
	bs, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode invoice: %w", err)
	}
	var out workflow.SaveResponse
	status, err := c.post(ctx, "/api/save-invoice", "application/json", bytes.NewReader(bs), &out)
	if err != nil {
		return nil, err
	}
	out.HTTPStatus = status
	return &out, nil
}

// ListInvoices fetches the saved invoice headers from /api/get-invoices.
func (c *Client) ListInvoices(ctx context.Context) (*workflow.ListResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/get-invoices", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	var out workflow.ListResponse
	status, err := c.do(req, &out)
	if err != nil {
		return nil, err
	}
	out.HTTPStatus = status
	return &out, nil
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req, out)
}

// do sends the request and decodes the JSON payload into out. Service-level
// failures (non-2xx with a JSON error body) are not errors here; the caller
// reads the returned status. A non-JSON body on a 2xx response is an error.
func (c *Client) do(req *http.Request, out any) (int, error) {
	reqID := uuid.New().String()
	start := time.Now()
	c.logger.Debug("api.request", "req_id", reqID, "method", req.Method, "url", req.URL.String())

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("api.send_error", "req_id", reqID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return 0, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("api.body_close_error", "req_id", reqID, "error", cerr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("api.response", "req_id", reqID, "status", resp.StatusCode,
		"bytes", len(raw), "elapsed_ms", time.Since(start).Milliseconds())

	if err := json.Unmarshal(raw, out); err != nil {
		if resp.StatusCode/100 == 2 {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
		// Non-JSON error body; the status code carries the failure.
		return resp.StatusCode, nil
	}
	return resp.StatusCode, nil
}

// fileForm builds a multipart body with the file under the "file" field plus
// any extra fields.
func fileForm(file workflow.File, fields map[string]string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	part, err := w.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("write file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
