package textextract

import (
	"log/slog"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/ocr"
)

// DefaultStrategies builds the four strategies in priority order.
func DefaultStrategies(cfg common.OCRConfig, logger *slog.Logger) []Extractor {
	tools := ocr.Config{
		Pdftotext:     cfg.Pdftotext,
		Pdftoppm:      cfg.Pdftoppm,
		Tesseract:     cfg.Tesseract,
		TesseractLang: cfg.TesseractLang,
		TessdataDir:   cfg.TessdataDir,
	}
	return []Extractor{
		NewParserStrategy(StrategyLayoutText, LayoutParser{}),
		NewParserStrategy(StrategyStreamText, ocr.NewStreamParser(tools, logger)),
		NewOCRStrategy(
			ocr.NewRasterizer(tools, logger),
			ocr.NewTesseract(tools, logger),
			OCROptions{Scale: cfg.Scale, Modes: cfg.PSMModes, MaxPages: cfg.MaxPages},
			logger,
		),
		NewParserStrategy(StrategyRawTextLayer, RawLayerParser{}),
	}
}

// New returns the standard pipeline for cfg.
func New(cfg common.OCRConfig, logger *slog.Logger) *Pipeline {
	return NewPipeline(logger, DefaultStrategies(cfg, logger)...)
}
