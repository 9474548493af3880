package workflow

import (
	"context"
	"errors"

	"invoice-parser/internal/sanitize"
)

const (
	errSaveHTTP   = "Failed to save invoice"
	errSaveFailed = "Save failed"
)

// Save sanitizes the draft, submits it to the save endpoint and, on success,
// records the assigned order id, raises the transient success notice and
// refreshes the stored-invoices list. A failing list refresh is logged only;
// it does not void a successful save.
func (c *Controller) Save(ctx context.Context, s *Session) error {
	if s.Draft == nil {
		c.logger.Warn("save.skipped.no_draft")
		return nil
	}
	s.Err = ""

	resp, err := c.backend.SaveInvoice(ctx, sanitize.Record(s.Draft))
	if err != nil {
		c.logger.Error("save.request.error", "error", err)
		s.Err = err.Error()
		return err
	}
	if !statusOK(resp.HTTPStatus) {
		msg := resp.Error
		if msg == "" {
			msg = errSaveHTTP
		}
		c.logger.Warn("save.response.failed", "status", resp.HTTPStatus, "error", resp.Error)
		s.Err = msg
		return errors.New(msg)
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = errSaveFailed
		}
		c.logger.Warn("save.response.unsuccessful", "error", resp.Error)
		s.Err = msg
		return errors.New(msg)
	}

	orderID := resp.OrderID
	s.SavedOrderID = &orderID
	s.Notice = &SaveNotice{OrderID: orderID, ShownAt: c.now()}
	c.logger.Info("save.ok", "order_id", orderID)

	if err := c.RefreshInvoices(ctx, s); err != nil {
		// Save outcome and list refresh are independent signals.
		c.logger.Error("save.refresh_list.error", "error", err)
	}
	return nil
}

// RefreshInvoices reloads the stored-invoices view from the listing endpoint.
func (c *Controller) RefreshInvoices(ctx context.Context, s *Session) error {
	resp, err := c.backend.ListInvoices(ctx)
	if err != nil {
		return err
	}
	if !statusOK(resp.HTTPStatus) || !resp.Success {
		return errors.New("list invoices failed")
	}
	s.Invoices = resp.Headers
	return nil
}
