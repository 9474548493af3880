// Package pdf answers page-count queries and renders single PDF pages to
// JPEG for the extraction model.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

type Config struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // rasterization DPI, default 300
}

type Service struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewService(cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Service{cfg: cfg, runner: execRunner{}, logger: logger}
}

// PageCount returns the number of pages in the PDF document.
func (s *Service) PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return n, nil
}

func validatePage(page, total int) error {
	if total == 0 {
		return fmt.Errorf("PDF has no pages")
	}
	if page < 0 || page >= total {
		return fmt.Errorf("page number %d is out of range: PDF has %d page(s)", page+1, total)
	}
	return nil
}

// RenderPage rasterizes the zero-based page to a JPEG. It validates the page
// index against the document before rendering.
func (s *Service) RenderPage(ctx context.Context, data []byte, page int) ([]byte, error) {
	total, err := s.PageCount(data)
	if err != nil {
		return nil, err
	}
	if err := validatePage(page, total); err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "ip-render-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			s.logger.Warn("pdf.render.cleanup_error", "dir", tmpDir, "error", rmErr)
		}
	}()

	src := filepath.Join(tmpDir, "doc.pdf")
	if err := os.WriteFile(src, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	// pdftoppm -r <dpi> -jpeg -f <p> -l <p> <in.pdf> <tmp/page>
	prefix := filepath.Join(tmpDir, "page")
	p := fmt.Sprintf("%d", page+1) // pdftoppm pages are 1-based
	_, errb, err := s.runner.Run(ctx, s.cfg.Pdftoppm,
		"-r", fmt.Sprintf("%d", s.cfg.DPI), "-jpeg", "-f", p, "-l", p, src, prefix)
	if err != nil {
		return nil, fmt.Errorf("render page %s: %w (%s)", p, err, bytes.TrimSpace(errb))
	}

	matches, _ := filepath.Glob(prefix + "-*.jpg")
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no image for page %s", p)
	}
	img, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, fmt.Errorf("read rendered page: %w", err)
	}
	s.logger.Debug("pdf.render.ok", "page", page, "bytes", len(img))
	return img, nil
}
