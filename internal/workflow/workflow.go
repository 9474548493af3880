// Package workflow implements the extraction-and-reconciliation controller:
// it sequences file selection, remote extraction with staged progress,
// draft editing and sanitized persistence for one document session.
package workflow

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"invoice-parser/internal/entity"
)

// File is a document selected for extraction.
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// PDFInfoResponse is the pdf-info collaborator payload.
type PDFInfoResponse struct {
	HTTPStatus int
	Success    bool   `json:"success"`
	TotalPages int    `json:"total_pages"`
	Error      string `json:"error"`
}

// ExtractResponse is the extract collaborator payload.
type ExtractResponse struct {
	HTTPStatus      int
	Success         bool                  `json:"success"`
	Data            *entity.InvoiceRecord `json:"data"`
	RawOCRText      *string               `json:"raw_ocr_text"`
	RawJSONResponse json.RawMessage       `json:"raw_json_response"`
	Error           string                `json:"error"`
}

// SaveResponse is the save-invoice collaborator payload.
type SaveResponse struct {
	HTTPStatus int
	Success    bool   `json:"success"`
	OrderID    int    `json:"order_id"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

// ListResponse is the get-invoices collaborator payload.
type ListResponse struct {
	HTTPStatus int
	Success    bool                   `json:"success"`
	Headers    []entity.InvoiceHeader `json:"headers"`
	Error      string                 `json:"error"`
}

// Backend is the set of remote collaborators the workflow drives. A returned
// error means the call itself failed (network, malformed response); service
// level failures travel in the response payload so the controller can apply
// its own messaging rules.
type Backend interface {
	PDFInfo(ctx context.Context, file File) (*PDFInfoResponse, error)
	Extract(ctx context.Context, file File, page int) (*ExtractResponse, error)
	SaveInvoice(ctx context.Context, rec *entity.InvoiceRecord) (*SaveResponse, error)
	ListInvoices(ctx context.Context) (*ListResponse, error)
}

// ProgressFunc observes stage transitions during an extraction run.
type ProgressFunc func(Progress)

// Controller drives workflow sessions against a Backend. It holds no
// per-document state; everything mutable lives on the Session.
type Controller struct {
	backend    Backend
	logger     *slog.Logger
	onProgress ProgressFunc
	now        func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithProgress registers a progress observer.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Controller) { c.onProgress = fn }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a Controller for the given backend.
func New(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend: backend,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewSession returns an empty session with the progress indicator idle.
func (c *Controller) NewSession() *Session {
	return &Session{Progress: idleProgress()}
}

func (c *Controller) setProgress(s *Session, stage Stage) {
	s.Progress = stage.Progress()
	if c.onProgress != nil {
		c.onProgress(s.Progress)
	}
}

func (c *Controller) resetProgress(s *Session) {
	s.Progress = idleProgress()
	if c.onProgress != nil {
		c.onProgress(s.Progress)
	}
}
