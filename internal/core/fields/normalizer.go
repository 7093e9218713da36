// Package fields turns extracted invoice text into a fixed 20-field record by
// delegating interpretation to an extraction service and then enforcing the
// schema on whatever comes back.
package fields

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// DefaultMinTextChars is the shortest cleaned text worth sending.
const DefaultMinTextChars = 50

// Service is the external text-to-structured-data capability.
type Service interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type Normalizer struct {
	svc      Service
	minChars int
	now      func() time.Time
	logger   *slog.Logger
}

func NewNormalizer(svc Service, minChars int, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if minChars <= 0 {
		minChars = DefaultMinTextChars
	}
	return &Normalizer{svc: svc, minChars: minChars, now: time.Now, logger: logger}
}

// Clean folds compatibility characters and collapses every whitespace run to one space.
func Clean(text string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(text)), " ")
}

// Normalize returns a record or an *ExtractionFailure.
func (n *Normalizer) Normalize(ctx context.Context, text, documentID string) (InvoiceRecord, error) {
	cleaned := Clean(text)
	if l := utf8.RuneCountInString(cleaned); l < n.minChars {
		n.logger.Info("fields.normalize.insufficient_text", "document", documentID, "chars", l, "min_chars", n.minChars)
		return InvoiceRecord{}, fail(ReasonInsufficientText, "text too short for reliable extraction", nil)
	}

	start := time.Now()
	resp, err := n.svc.Complete(ctx, BuildRequest(documentID, cleaned))
	if err != nil {
		n.logger.Error("fields.normalize.service_error", "document", documentID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return InvoiceRecord{}, fail(ReasonServiceError, "extraction service call failed", err)
	}

	obj, err := parseResponse(resp)
	if err != nil {
		n.logger.Warn("fields.normalize.malformed", "document", documentID, "error", err, "response_bytes", len(resp))
		return InvoiceRecord{}, fail(ReasonMalformedResponse, "response is not the expected JSON object", err)
	}

	values := make(map[constants.Field]Value, len(obj))
	var extra []string
	for k, raw := range obj {
		if !constants.IsCanonical(k) {
			extra = append(extra, k)
			continue
		}
		v, err := valueOf(raw)
		if err != nil {
			return InvoiceRecord{}, fail(ReasonMalformedResponse, "field "+k, err)
		}
		values[constants.Field(k)] = v
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		n.logger.Debug("fields.normalize.extra_keys", "document", documentID, "keys", extra)
	}

	rec := newRecord(values, documentID, n.now())
	n.logger.Info("fields.normalize.ok",
		"document", documentID,
		"found", rec.Found(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}
