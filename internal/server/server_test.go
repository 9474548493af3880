package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-parser/internal/common"
	"invoice-parser/internal/llm"
	"invoice-parser/internal/pdf"
	"invoice-parser/internal/store"
)

func newTestServer(t *testing.T, llmBaseURL string) *Server {
	t.Helper()
	st, err := store.NewExcelStore(filepath.Join(t.TempDir(), "invoices.xlsx"), nil)
	require.NoError(t, err)

	var llmClient *llm.Client
	hasKey := llmBaseURL != ""
	if hasKey {
		llmClient = llm.NewClient(common.LLMConfig{
			BaseURL: llmBaseURL,
			APIKey:  "test-key",
			Model:   "test-model",
			Timeout: 5 * time.Second,
		}, nil)
	}
	return New(st, pdf.NewService(pdf.Config{}, nil), llmClient, hasKey, nil)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var r *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	} else {
		r = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func multipartUpload(t *testing.T, filename, contentType string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, "http://llm.example")
	rec, out := doJSON(t, srv.Router(), http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, true, out["api_key_configured"])
}

func TestSaveInvoice(t *testing.T) {
	srv := newTestServer(t, "")
	router := srv.Router()

	rec, out := doJSON(t, router, http.MethodPost, "/api/save-invoice", map[string]any{
		"invoice_number": "INV-1",
		"vendor_name":    "ACME Corp",
		"total_amount":   100.5,
		"line_items": []map[string]any{
			{"description": "widget", "quantity": 2, "unit_price": 50.25, "total_price": 100.5},
		},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, float64(1), out["order_id"])
	assert.Equal(t, "Invoice saved with OrderID: 1", out["message"])

	rec, out = doJSON(t, router, http.MethodGet, "/api/get-invoices", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	headers, ok := out["headers"].([]any)
	require.True(t, ok)
	require.Len(t, headers, 1)
	first, ok := headers[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INV-1", first["InvoiceNumber"])
	assert.Equal(t, 100.5, first["TotalAmount"])
}

func TestSaveInvoiceNullsStayNull(t *testing.T) {
	srv := newTestServer(t, "")
	router := srv.Router()

	rec, out := doJSON(t, router, http.MethodPost, "/api/save-invoice", map[string]any{
		"invoice_number": nil,
		"subtotal":       nil,
		"vendor_name":    "Bare Vendor",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
}

func TestSaveInvoiceEmptyBody(t *testing.T) {
	srv := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodPost, "/api/save-invoice", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "No data provided", out["error"])
}

func TestUpdateInvoice(t *testing.T) {
	srv := newTestServer(t, "")
	router := srv.Router()

	_, out := doJSON(t, router, http.MethodPost, "/api/save-invoice", map[string]any{
		"invoice_number": "INV-1",
		"total_amount":   10.0,
	})
	require.Equal(t, true, out["success"])

	rec, out := doJSON(t, router, http.MethodPost, "/api/update-invoice", map[string]any{
		"order_id":       1,
		"invoice_number": "INV-1-R1",
		"total_amount":   20.0,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Invoice 1 updated successfully", out["message"])

	rec, out = doJSON(t, router, http.MethodGet, "/api/get-invoice/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	header, ok := out["header"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INV-1-R1", header["InvoiceNumber"])
	assert.Equal(t, 20.0, header["TotalAmount"])
}

func TestUpdateInvoiceRequiresOrderID(t *testing.T) {
	srv := newTestServer(t, "")
	rec, out := doJSON(t, srv.Router(), http.MethodPost, "/api/update-invoice", map[string]any{
		"invoice_number": "INV-1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "OrderID and data required", out["error"])
}

func TestUpdateInvoiceNotFound(t *testing.T) {
	srv := newTestServer(t, "")
	rec, out := doJSON(t, srv.Router(), http.MethodPost, "/api/update-invoice", map[string]any{
		"order_id":       7,
		"invoice_number": "INV-7",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "OrderID 7 not found", out["error"])
}

func TestGetInvoiceNotFound(t *testing.T) {
	srv := newTestServer(t, "")
	rec, out := doJSON(t, srv.Router(), http.MethodGet, "/api/get-invoice/9", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "OrderID 9 not found", out["error"])
}

func TestExtractRequiresAPIKey(t *testing.T) {
	srv := newTestServer(t, "")
	body, contentType := multipartUpload(t, "scan.jpg", "image/jpeg", []byte{0xff, 0xd8, 0x00}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "GROQ_API_KEY not configured", out["error"])
}

func TestExtractRequiresFile(t *testing.T) {
	srv := newTestServer(t, "http://llm.example")
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("input_method", "upload"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/extract", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "No file provided", out["error"])
}

func TestExtractUnsupportedType(t *testing.T) {
	srv := newTestServer(t, "http://llm.example")
	body, contentType := multipartUpload(t, "notes.txt", "text/plain", []byte("hello"), map[string]string{
		"input_method": "upload",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Contains(t, out["error"], "unsupported file type")
}

func TestExtractJPEGUpload(t *testing.T) {
	ocrDone := false
	llmStub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		content := "INVOICE INV-9\nACME Corp"
		if ocrDone {
			content = `{"invoice_number": "INV-9", "vendor_name": "ACME Corp", "total_amount": 250}`
		}
		ocrDone = true

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		})
	}))
	defer llmStub.Close()

	srv := newTestServer(t, llmStub.URL)
	body, contentType := multipartUpload(t, "scan.jpg", "image/jpeg",
		append([]byte{0xff, 0xd8}, bytes.Repeat([]byte{0x01}, 64)...),
		map[string]string{"input_method": "upload", "page_number": "0"})
	req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "INVOICE INV-9\nACME Corp", out["raw_ocr_text"])

	data, ok := out["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INV-9", data["invoice_number"])
	assert.Equal(t, float64(250), data["total_amount"])
	assert.Nil(t, data["due_date"], "unextracted fields serialize as null")
}

func TestPDFInfoRejectsBrokenPDF(t *testing.T) {
	srv := newTestServer(t, "")
	body, contentType := multipartUpload(t, "broken.pdf", "application/pdf", []byte("not a pdf"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/pdf-info", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Contains(t, out["error"], "Failed to read PDF")
}
