package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"invoice-parser/constants"
	"invoice-parser/internal/imgproc"
)

// ~50 MB, generous for scanned multi-page PDFs.
const maxUploadBytes = 50 << 20

func (s *Server) handlePDFInfo(w http.ResponseWriter, r *http.Request) {
	data, _, err := readUpload(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	total, err := s.pdf.PageCount(data)
	if err != nil {
		s.log.Error("server.pdf_info.error", "error", err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to read PDF: %v", err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"total_pages": total,
	})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if !s.hasKey {
		s.writeError(w, http.StatusInternalServerError, "GROQ_API_KEY not configured")
		return
	}

	if method := r.FormValue("input_method"); method != "" && method != "upload" {
		s.writeError(w, http.StatusBadRequest, "Invalid input_method. Use 'upload'")
		return
	}

	data, header, err := readUpload(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pageNumber, err := strconv.Atoi(r.FormValue("page_number"))
	if err != nil {
		pageNumber = 0
	}

	jpegImage, err := s.uploadToJPEG(r, data, header, pageNumber)
	if err != nil {
		s.log.Error("server.extract.process_file.error",
			"filename", header.Filename, "page", pageNumber, "error", err)
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to process file: %v", err))
		return
	}

	rawText, err := s.llm.ExtractRawText(r.Context(), jpegImage)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to parse invoice: %v", err))
		return
	}

	record, rawJSON, err := s.llm.ExtractInvoice(r.Context(), jpegImage)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to parse invoice: %v", err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"data":              record,
		"raw_ocr_text":      rawText,
		"raw_json_response": rawJSON,
	})
}

// uploadToJPEG turns the uploaded document into a single JPEG page the model
// can look at: PDFs are rendered at the requested page, images are normalized.
func (s *Server) uploadToJPEG(r *http.Request, data []byte, header *multipart.FileHeader, pageNumber int) ([]byte, error) {
	kind := constants.ClassifyUpload(header.Filename, header.Header.Get("Content-Type"))
	switch kind {
	case constants.KindPDF:
		return s.pdf.RenderPage(r.Context(), data, pageNumber)
	case constants.KindImage:
		return imgproc.NormalizeToJPEG(data)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", header.Filename)
	}
}

func readUpload(r *http.Request) ([]byte, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, errors.New("No file provided")
	}
	defer file.Close()

	if header.Filename == "" {
		return nil, nil, errors.New("No file selected")
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, nil, errors.New("empty file")
	}
	return data, header, nil
}
