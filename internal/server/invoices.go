package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"invoice-parser/internal/common"
	"invoice-parser/internal/entity"
	"invoice-parser/internal/sanitize"
)

func (s *Server) handleSaveInvoice(w http.ResponseWriter, r *http.Request) {
	rec, _, err := decodeInvoiceBody(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	orderID, err := s.store.SaveInvoice(rec)
	if err != nil {
		s.log.Error("server.save_invoice.error", "error", err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save invoice: %v", err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"order_id": orderID,
		"message":  fmt.Sprintf("Invoice saved with OrderID: %d", orderID),
	})
}

func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	rec, orderID, err := decodeInvoiceBody(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if orderID == 0 {
		s.writeError(w, http.StatusBadRequest, "OrderID and data required")
		return
	}

	if err := s.store.UpdateInvoice(orderID, rec); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("OrderID %d not found", orderID))
			return
		}
		s.log.Error("server.update_invoice.error", "order_id", orderID, "error", err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to update invoice: %v", err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"order_id": orderID,
		"message":  fmt.Sprintf("Invoice %d updated successfully", orderID),
	})
}

func (s *Server) handleListInvoices(w http.ResponseWriter, _ *http.Request) {
	headers, details, err := s.store.ListInvoices()
	if err != nil {
		s.log.Error("server.list_invoices.error", "error", err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get invoices: %v", err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"headers": headers,
		"details": details,
	})
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.Atoi(chi.URLParam(r, "orderID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	header, details, err := s.store.GetInvoice(orderID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, fmt.Sprintf("OrderID %d not found", orderID))
			return
		}
		s.log.Error("server.get_invoice.error", "order_id", orderID, "error", err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get invoice: %v", err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"header":  header,
		"details": details,
	})
}

// decodeInvoiceBody reads the request body as a generic document, scrubs
// non-finite numbers, then shapes it into an invoice record. Going through
// the generic pass first means a payload carrying NaN never reaches the
// store or a JSON encoder. The order_id key, when present, is returned
// separately.
func decodeInvoiceBody(r *http.Request) (*entity.InvoiceRecord, int, error) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, 0, errors.New("No data provided")
	}
	if len(payload) == 0 {
		return nil, 0, errors.New("No data provided")
	}

	orderID := 0
	if v, ok := payload["order_id"]; ok {
		if n := sanitize.ToNumberOrNull(v); n != nil {
			orderID = int(*n)
		}
		delete(payload, "order_id")
	}

	clean, _ := sanitize.Deep(payload).(map[string]any)
	b, err := json.Marshal(clean)
	if err != nil {
		return nil, 0, fmt.Errorf("encode sanitized payload: %w", err)
	}
	var rec entity.InvoiceRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, 0, fmt.Errorf("invalid invoice payload: %w", err)
	}
	return &rec, orderID, nil
}
