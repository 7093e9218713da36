package textextract

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Strategy identifies one text-extraction technique.
type Strategy string

const (
	StrategyLayoutText   Strategy = "layout-text"
	StrategyStreamText   Strategy = "stream-text"
	StrategyRasterOCR    Strategy = "raster-ocr"
	StrategyRawTextLayer Strategy = "raw-text-layer"
)

// ErrEmptyExtraction marks an outcome where every strategy came back empty.
var ErrEmptyExtraction = errors.New("no extractable text")

// Extractor is one strategy. Implementations are stateless with respect to the
// document: the same bytes always go through the same steps.
type Extractor interface {
	Name() Strategy
	Extract(ctx context.Context, data []byte) (string, error)
}

// availability is implemented by strategies that depend on an optional engine.
type availability interface {
	Available() bool
	UnavailableReason() string
}

// PageParser turns PDF bytes into page texts.
type PageParser interface {
	PageTexts(ctx context.Context, data []byte) ([]string, error)
}

// Rasterizer renders a 1-based page to PNG bytes.
type Rasterizer interface {
	PageCount(ctx context.Context, data []byte) (int, error)
	Rasterize(ctx context.Context, data []byte, page int, scale float64) ([]byte, error)
}

// Recognizer performs OCR on one bitmap with a page-segmentation mode.
type Recognizer interface {
	Available() bool
	Recognize(ctx context.Context, png []byte, mode int) (string, error)
}

// Attempt records one strategy run.
type Attempt struct {
	Strategy Strategy
	Text     string
	Success  bool
	Skipped  bool
	Message  string
	Duration time.Duration
}

// Outcome is the result of running the pipeline over one document.
type Outcome struct {
	DocumentID string
	Text       string
	Attempts   []Attempt
	Winner     Strategy // empty when no strategy produced text
}

// Empty reports the no-extractable-text terminal state.
func (o Outcome) Empty() bool {
	return o.Winner == "" || strings.TrimSpace(o.Text) == ""
}

// Err is ErrEmptyExtraction for empty outcomes and nil otherwise.
func (o Outcome) Err() error {
	if o.Empty() {
		return ErrEmptyExtraction
	}
	return nil
}

func joinPages(pages []string) string {
	return strings.Join(pages, "\n")
}
