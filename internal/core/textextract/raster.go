package textextract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/core/ocr"
)

// MinScale is the lowest rasterization factor over nominal 72 DPI.
const MinScale = 2.0

// DefaultPSMModes is the page-segmentation priority: uniform block, automatic, single column.
var DefaultPSMModes = []int{6, 3, 4}

// OCRStrategy rasterizes every page and recognizes it, mode by mode, keeping
// the first mode that yields text for that page.
type OCRStrategy struct {
	raster   Rasterizer
	recog    Recognizer
	scale    float64
	modes    []int
	maxPages int
	logger   *slog.Logger
}

type OCROptions struct {
	Scale    float64
	Modes    []int
	MaxPages int // 0 = no limit
}

func NewOCRStrategy(raster Rasterizer, recog Recognizer, opts OCROptions, logger *slog.Logger) *OCRStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Scale < MinScale {
		opts.Scale = MinScale
	}
	if len(opts.Modes) == 0 {
		opts.Modes = DefaultPSMModes
	}
	return &OCRStrategy{
		raster:   raster,
		recog:    recog,
		scale:    opts.Scale,
		modes:    append([]int(nil), opts.Modes...),
		maxPages: opts.MaxPages,
		logger:   logger,
	}
}

func (s *OCRStrategy) Name() Strategy { return StrategyRasterOCR }

func (s *OCRStrategy) Available() bool { return s.recog.Available() }

func (s *OCRStrategy) UnavailableReason() string { return ocr.ErrRecognitionUnavailable.Error() }

func (s *OCRStrategy) Extract(ctx context.Context, data []byte) (string, error) {
	n, err := s.raster.PageCount(ctx, data)
	if err != nil {
		return "", err
	}
	if s.maxPages > 0 && n > s.maxPages {
		s.logger.Warn("textextract.ocr.page_limit", "pages", n, "max_pages", s.maxPages)
		n = s.maxPages
	}

	pages := make([]string, 0, n)
	var errs []error
	for page := 1; page <= n; page++ {
		txt, mode, err := s.recognizePage(ctx, data, page)
		if err != nil {
			if errors.Is(err, ocr.ErrRecognitionUnavailable) || ctx.Err() != nil {
				return "", err
			}
			errs = append(errs, err)
		}
		if mode != 0 {
			s.logger.Debug("textextract.ocr.page", "page", page, "psm", mode, "chars", len(txt))
		}
		pages = append(pages, txt)
	}

	text := joinPages(pages)
	if strings.TrimSpace(text) == "" && len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return text, nil
}

// recognizePage returns the text of the first mode that produced any, and that mode.
func (s *OCRStrategy) recognizePage(ctx context.Context, data []byte, page int) (string, int, error) {
	img, err := s.raster.Rasterize(ctx, data, page, s.scale)
	if err != nil {
		return "", 0, fmt.Errorf("rasterize page %d: %w", page, err)
	}
	var errs []error
	for _, mode := range s.modes {
		txt, err := s.recog.Recognize(ctx, img, mode)
		if err != nil {
			if errors.Is(err, ocr.ErrRecognitionUnavailable) {
				return "", 0, err
			}
			errs = append(errs, fmt.Errorf("page %d psm %d: %w", page, mode, err))
			continue
		}
		if strings.TrimSpace(txt) != "" {
			return txt, mode, nil
		}
	}
	return "", 0, errors.Join(errs...)
}
