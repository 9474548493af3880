package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"invoice-parser/internal/llm"
	"invoice-parser/internal/pdf"
	"invoice-parser/internal/store"
)

// Server exposes the invoice extraction API over HTTP.
type Server struct {
	store  *store.ExcelStore
	pdf    *pdf.Service
	llm    *llm.Client
	log    *slog.Logger
	hasKey bool
}

func New(st *store.ExcelStore, pdfSvc *pdf.Service, llmClient *llm.Client, apiKeyConfigured bool, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:  st,
		pdf:    pdfSvc,
		llm:    llmClient,
		log:    logger,
		hasKey: apiKeyConfigured,
	}
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/api/health", s.handleHealth)
	r.Post("/api/pdf-info", s.handlePDFInfo)
	r.Post("/api/extract", s.handleExtract)
	r.Post("/api/save-invoice", s.handleSaveInvoice)
	r.Post("/api/update-invoice", s.handleUpdateInvoice)
	r.Get("/api/get-invoices", s.handleListInvoices)
	r.Get("/api/get-invoice/{orderID}", s.handleGetInvoice)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"api_key_configured": s.hasKey,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("server.write_json.error", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
