package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
)

const (
	errNoFileSelected = "Please select a file"
	errExtractHTTP    = "Failed to extract invoice data"
	errExtractFailed  = "Extraction failed"
)

// Extract runs the staged extraction sequence for the selected file. The six
// stages are reported in order through the progress callback; on any failure
// the remaining stages are abandoned, the user-visible error is recorded and
// the progress indicator returns to idle. At most one run per session may be
// in flight; callers are responsible for not re-invoking while one is active.
func (c *Controller) Extract(ctx context.Context, s *Session) error {
	s.resetExtraction()
	s.SavedOrderID = nil

	if s.File == nil {
		s.Err = errNoFileSelected
		c.resetProgress(s)
		return errors.New(errNoFileSelected)
	}

	c.setProgress(s, StageUploadReceived)
	c.setProgress(s, StageTextExtracted)

	c.setProgress(s, StageAIProcessing)
	resp, err := c.backend.Extract(ctx, *s.File, s.SelectedPage)
	if err != nil {
		c.logger.Error("extract.request.error", "file", s.File.Name, "error", err)
		return c.failExtract(s, err.Error())
	}

	c.setProgress(s, StageNormalizing)

	if !statusOK(resp.HTTPStatus) {
		msg := resp.Error
		if msg == "" {
			msg = errExtractHTTP
		}
		c.logger.Warn("extract.response.failed", "status", resp.HTTPStatus, "error", resp.Error)
		return c.failExtract(s, msg)
	}
	if !resp.Success || resp.Data == nil {
		c.logger.Warn("extract.response.unsuccessful", "status", resp.HTTPStatus)
		return c.failExtract(s, errExtractFailed)
	}

	c.setProgress(s, StageValidated)

	// Land the artifacts in their fixed order: raw text, raw response, then
	// the structured record. Consumers may rely on partial availability.
	s.RawOCRText = resp.RawOCRText
	s.RawJSONResponse = normalizeRawJSON(resp.RawJSONResponse)
	s.Invoice = resp.Data
	c.seedDraft(s)

	c.setProgress(s, StageComplete)
	c.logger.Info("extract.ok", "file", s.File.Name, "page", s.SelectedPage,
		"line_items", len(resp.Data.LineItems))

	s.Progress = idleProgress()
	return nil
}

func (c *Controller) failExtract(s *Session, msg string) error {
	s.Err = msg
	c.resetProgress(s)
	return errors.New(msg)
}

// normalizeRawJSON accepts the raw model response either as a JSON string or
// as an already structured value, and flattens both to text.
func normalizeRawJSON(raw json.RawMessage) *string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return &s
		}
	}
	s := string(trimmed)
	return &s
}
