package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// StreamParser reads the plain text stream with `pdftotext -raw`.
type StreamParser struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewStreamParser(cfg Config, logger *slog.Logger) *StreamParser {
	return &StreamParser{cfg: cfg.withDefaults(), runner: execRunner{}, logger: loggerOrDefault(logger)}
}

// PageTexts returns one entry per page, split on the form feed pdftotext emits.
func (p *StreamParser) PageTexts(ctx context.Context, data []byte) ([]string, error) {
	_, in, cleanup, err := scratchDir("ie-pdftotext-*", "in.pdf", data, p.logger)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	// pdftotext -raw -enc UTF-8 -eol unix <in.pdf> -
	out, errb, err := p.runner.Run(ctx, p.cfg.Pdftotext, p.logger, "-raw", "-enc", "UTF-8", "-eol", "unix", in, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w%s", err, stderrDetail(errb))
	}
	return splitPages(string(out)), nil
}

// splitPages drops the empty tail after the final form feed.
func splitPages(s string) []string {
	pages := strings.Split(s, "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}

// Rasterizer renders single pages to PNG with pdftoppm; page counts come from pdfcpu.
type Rasterizer struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewRasterizer(cfg Config, logger *slog.Logger) *Rasterizer {
	return &Rasterizer{cfg: cfg.withDefaults(), runner: execRunner{}, logger: loggerOrDefault(logger)}
}

var disableConfigDir sync.Once

// PDFConfiguration is the relaxed pdfcpu configuration shared by the in-process readers.
func PDFConfiguration() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

func (r *Rasterizer) PageCount(ctx context.Context, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := api.PageCount(bytes.NewReader(data), PDFConfiguration())
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return n, nil
}

// Rasterize renders the 1-based page at scale × 72 DPI.
func (r *Rasterizer) Rasterize(ctx context.Context, data []byte, page int, scale float64) ([]byte, error) {
	if page < 1 {
		return nil, fmt.Errorf("invalid page %d", page)
	}
	dir, in, cleanup, err := scratchDir("ie-pdftoppm-*", "in.pdf", data, r.logger)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	prefix := filepath.Join(dir, "page")
	dpi := fmt.Sprintf("%d", int(72*scale))
	pg := fmt.Sprintf("%d", page)
	// pdftoppm -r <dpi> -f N -l N -png -singlefile <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm, r.logger, "-r", dpi, "-f", pg, "-l", pg, "-png", "-singlefile", in, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm page %d: %w%s", page, err, stderrDetail(errb))
	}
	img, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm page %d produced no image: %w", page, err)
	}
	return img, nil
}
