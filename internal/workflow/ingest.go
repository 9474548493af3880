package workflow

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"path/filepath"

	_ "image/jpeg"
	_ "image/png"

	"invoice-parser/constants"
)

// User-facing selection errors, worded as the UI shows them.
const (
	errUnsupportedType = "Unsupported file type. Please upload a PDF, PNG, JPG, or JPEG file."
	errPDFInfoFailed   = "Failed to read PDF file. Please ensure it is a valid PDF."
	errPDFInfoError    = "Error reading PDF file. Please try again."
)

// SelectFile registers a newly chosen document on the session. Any state from
// a prior document (draft, raw artifacts, errors, progress) is cleared first;
// an unsupported file clears the selection entirely so it can never reach
// extraction.
func (c *Controller) SelectFile(ctx context.Context, s *Session, f File) {
	s.File = &f
	s.resetExtraction()

	switch constants.ClassifyUpload(f.Name, f.MediaType) {
	case constants.KindImage:
		// Preview failure is cosmetic: extraction still works without it.
		s.ImagePreview = imagePreviewDataURI(f)
		s.PDFPages = 0
		if s.ImagePreview == "" {
			c.logger.Debug("ingest.preview.unavailable", "file", f.Name)
		}

	case constants.KindPDF:
		s.ImagePreview = ""
		s.PDFPages = 0
		resp, err := c.backend.PDFInfo(ctx, f)
		if err != nil {
			c.logger.Error("ingest.pdf_info.error", "file", f.Name, "error", err)
			s.Err = errPDFInfoError
			return
		}
		if !statusOK(resp.HTTPStatus) || !resp.Success {
			c.logger.Warn("ingest.pdf_info.failed", "file", f.Name, "status", resp.HTTPStatus)
			s.Err = errPDFInfoFailed
			return
		}
		s.PDFPages = resp.TotalPages
		s.SelectedPage = 0
		c.logger.Info("ingest.pdf_info.ok", "file", f.Name, "pages", resp.TotalPages)

	default:
		s.Err = errUnsupportedType
		s.File = nil
		s.ImagePreview = ""
		s.PDFPages = 0
	}
}

// SelectPage records the page index to extract from a multi-page document.
func (c *Controller) SelectPage(s *Session, page int) {
	if page < 0 {
		page = 0
	}
	s.SelectedPage = page
}

// imagePreviewDataURI decodes the image header to confirm the payload is
// displayable and returns it as a data URI, or "" when it is not.
func imagePreviewDataURI(f File) string {
	if _, _, err := image.DecodeConfig(bytes.NewReader(f.Data)); err != nil {
		return ""
	}
	mt := f.MediaType
	if mt == "" {
		if constants.NormalizeExt(filepath.Ext(f.Name)) == "png" {
			mt = "image/png"
		} else {
			mt = "image/jpeg"
		}
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

func statusOK(status int) bool {
	return status >= 200 && status < 300
}
