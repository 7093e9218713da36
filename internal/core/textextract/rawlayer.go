package textextract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	"github.com/joseph-ayodele/invoice-extractor/internal/core/ocr"
)

// RawLayerParser decodes each page's content stream with pdfcpu and keeps only
// what the text-showing operators draw.
type RawLayerParser struct{}

func (RawLayerParser) PageTexts(ctx context.Context, data []byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), ocr.PDFConfiguration())
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	pages := make([]string, 0, pctx.PageCount)
	var errs []error
	for i := 1; i <= pctx.PageCount; i++ {
		r, err := pdfcpu.ExtractPageContent(pctx, i)
		if err != nil {
			errs = append(errs, fmt.Errorf("page %d: %w", i, err))
			pages = append(pages, "")
			continue
		}
		if r == nil {
			pages = append(pages, "")
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			errs = append(errs, fmt.Errorf("page %d: %w", i, err))
			pages = append(pages, "")
			continue
		}
		pages = append(pages, scanTextOperators(content))
	}
	if len(errs) > 0 && len(errs) == pctx.PageCount {
		return nil, errors.Join(errs...)
	}
	return pages, nil
}
