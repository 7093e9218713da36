package textextract

import (
	"context"
	"time"
)

// PDFKind classifies a document by which strategies could read it.
type PDFKind string

const (
	KindSearchable PDFKind = "searchable" // an embedded text layer was readable
	KindScanned    PDFKind = "scanned"    // only recognition produced text
	KindUnreadable PDFKind = "unreadable"
)

type Diagnosis struct {
	Attempts []Attempt
	Kind     PDFKind
}

// Diagnose runs every strategy without stopping at the first success.
func (p *Pipeline) Diagnose(ctx context.Context, documentID string, data []byte) Diagnosis {
	start := time.Now()
	d := Diagnosis{Attempts: make([]Attempt, 0, len(p.strategies))}
	for _, s := range p.strategies {
		d.Attempts = append(d.Attempts, RunStrategy(ctx, s, data))
	}
	d.Kind = classify(d.Attempts)
	p.logger.Info("textextract.diagnose.done",
		"document", documentID,
		"kind", d.Kind,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return d
}

func classify(attempts []Attempt) PDFKind {
	kind := KindUnreadable
	for _, a := range attempts {
		if !a.Success {
			continue
		}
		if a.Strategy != StrategyRasterOCR {
			return KindSearchable
		}
		kind = KindScanned
	}
	return kind
}
