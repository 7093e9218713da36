package core

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/fields"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/textextract"
)

// Document is one uploaded file. Data is never modified.
type Document struct {
	Name string
	Data []byte
}

// TextPipeline is satisfied by *textextract.Pipeline.
type TextPipeline interface {
	Extract(ctx context.Context, documentID string, data []byte) textextract.Outcome
}

// FieldNormalizer is satisfied by *fields.Normalizer.
type FieldNormalizer interface {
	Normalize(ctx context.Context, text, documentID string) (fields.InvoiceRecord, error)
}

// DocumentResult is the per-document processing log entry.
type DocumentResult struct {
	Document  string
	Status    constants.DocStatus
	Strategy  textextract.Strategy
	Attempts  []textextract.Attempt
	TextChars int
	Record    *fields.InvoiceRecord
	Err       error
	Duration  time.Duration
}

// Message is the processing log wording, e.g. "a.pdf: Success".
func (r DocumentResult) Message() string {
	msg := r.Document + ": " + r.Status.Label()
	if r.Status == constants.DocStatusFailed && r.Err != nil {
		msg += " - " + r.Err.Error()
	}
	return msg
}

// Processor coordinates text extraction then field normalization.
type Processor struct {
	logger       *slog.Logger
	pipeline     TextPipeline
	normalizer   FieldNormalizer
	maxFileBytes int64
}

func NewProcessor(logger *slog.Logger, pipeline TextPipeline, normalizer FieldNormalizer, maxFileMB int) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:       logger,
		pipeline:     pipeline,
		normalizer:   normalizer,
		maxFileBytes: int64(maxFileMB) << 20,
	}
}

// Process never returns an error; every failure is folded into the result status.
func (p *Processor) Process(ctx context.Context, doc Document) DocumentResult {
	start := time.Now()
	res := DocumentResult{Document: doc.Name}

	if p.maxFileBytes > 0 && int64(len(doc.Data)) > p.maxFileBytes {
		p.logger.Warn("processor.file.too_large", "document", doc.Name, "bytes", len(doc.Data), "max_bytes", p.maxFileBytes)
	}
	if !constants.LooksLikePDF(doc.Data) {
		p.logger.Warn("processor.file.not_pdf", "document", doc.Name)
	}

	out := p.pipeline.Extract(ctx, doc.Name, doc.Data)
	res.Strategy = out.Winner
	res.Attempts = out.Attempts
	res.TextChars = len(out.Text)
	p.logger.Debug("processor extract stage done",
		"document", doc.Name,
		"strategy", out.Winner,
		"chars", res.TextChars,
		"attempts", len(out.Attempts),
	)

	rec, err := p.normalizer.Normalize(ctx, out.Text, doc.Name)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		res.Status = statusFor(err, out)
		p.logger.Warn("processor.document.failed", "document", doc.Name, "status", res.Status, "error", err)
		return res
	}

	res.Record = &rec
	res.Status = constants.DocStatusSuccess
	p.logger.Info("processor.document.ok",
		"document", doc.Name,
		"strategy", out.Winner,
		"found", rec.Found(),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res
}

func statusFor(err error, out textextract.Outcome) constants.DocStatus {
	switch fields.ReasonOf(err) {
	case fields.ReasonInsufficientText:
		if out.Empty() {
			return constants.DocStatusNoText
		}
		return constants.DocStatusInsufficientText
	case fields.ReasonMalformedResponse:
		return constants.DocStatusMalformedResponse
	case fields.ReasonServiceError:
		if errors.Is(err, context.DeadlineExceeded) {
			return constants.DocStatusTimeout
		}
		return constants.DocStatusServiceError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return constants.DocStatusTimeout
	}
	return constants.DocStatusFailed
}
