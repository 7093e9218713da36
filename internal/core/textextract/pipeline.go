package textextract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/core/ocr"
)

// Pipeline tries its strategies in order and stops at the first non-empty text.
type Pipeline struct {
	strategies []Extractor
	logger     *slog.Logger
}

func NewPipeline(logger *slog.Logger, strategies ...Extractor) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{strategies: strategies, logger: logger}
}

// Strategies returns the configured strategies in priority order.
func (p *Pipeline) Strategies() []Extractor {
	return append([]Extractor(nil), p.strategies...)
}

// Extract never fails: strategy errors and panics become attempt diagnostics.
func (p *Pipeline) Extract(ctx context.Context, documentID string, data []byte) Outcome {
	out := Outcome{DocumentID: documentID}
	for _, s := range p.strategies {
		att := RunStrategy(ctx, s, data)
		out.Attempts = append(out.Attempts, att)

		p.logger.Debug("textextract.attempt",
			"document", documentID,
			"strategy", att.Strategy,
			"success", att.Success,
			"skipped", att.Skipped,
			"chars", len(att.Text),
			"message", att.Message,
			"elapsed_ms", att.Duration.Milliseconds(),
		)
		if att.Success {
			out.Text = att.Text
			out.Winner = att.Strategy
			break
		}
	}

	if out.Empty() {
		p.logger.Warn("textextract.empty", "document", documentID, "attempts", len(out.Attempts))
	} else {
		p.logger.Info("textextract.ok", "document", documentID, "strategy", out.Winner, "chars", len(out.Text))
	}
	return out
}

// RunStrategy executes a single strategy in isolation. A strategy succeeds when
// its trimmed output is non-empty.
func RunStrategy(ctx context.Context, s Extractor, data []byte) (att Attempt) {
	att.Strategy = s.Name()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			att.Text = ""
			att.Success = false
			att.Message = fmt.Sprintf("panic: %v", r)
			slog.Default().Debug("textextract.panic", "strategy", att.Strategy, "stack", string(debug.Stack()))
		}
		att.Duration = time.Since(start)
	}()

	if a, ok := s.(availability); ok && !a.Available() {
		att.Skipped = true
		att.Message = a.UnavailableReason()
		return att
	}
	if err := ctx.Err(); err != nil {
		att.Message = err.Error()
		return att
	}

	text, err := s.Extract(ctx, data)
	if err != nil {
		att.Skipped = errors.Is(err, ocr.ErrRecognitionUnavailable)
		att.Message = err.Error()
		return att
	}
	att.Text = text
	if strings.TrimSpace(text) == "" {
		att.Message = "empty text"
		return att
	}
	att.Success = true
	return att
}
