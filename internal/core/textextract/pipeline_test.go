package textextract

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeExtractor struct {
	name  Strategy
	text  string
	err   error
	panic bool
	calls int
}

func (f *fakeExtractor) Name() Strategy { return f.name }

func (f *fakeExtractor) Extract(context.Context, []byte) (string, error) {
	f.calls++
	if f.panic {
		panic("malformed xref")
	}
	return f.text, f.err
}

type unavailableExtractor struct{ fakeExtractor }

func (unavailableExtractor) Available() bool           { return false }
func (unavailableExtractor) UnavailableReason() string { return "recognition engine unavailable" }

func TestPipelineFirstStrategyWins(t *testing.T) {
	layout := &fakeExtractor{name: StrategyLayoutText, text: "Invoice No: INV-001\nTotal: 100"}
	stream := &fakeExtractor{name: StrategyStreamText, text: "other"}
	p := NewPipeline(nil, layout, stream)

	out := p.Extract(context.Background(), "a.pdf", []byte("%PDF"))
	if out.Winner != StrategyLayoutText {
		t.Fatalf("winner = %q, want %q", out.Winner, StrategyLayoutText)
	}
	for _, want := range []string{"Invoice No: INV-001", "Total: 100"} {
		if !strings.Contains(out.Text, want) {
			t.Fatalf("text %q missing %q", out.Text, want)
		}
	}
	if stream.calls != 0 {
		t.Fatalf("later strategy ran after a win")
	}
	if len(out.Attempts) != 1 || !out.Attempts[0].Success {
		t.Fatalf("unexpected attempts: %+v", out.Attempts)
	}
	if out.DocumentID != "a.pdf" || out.Err() != nil {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestPipelineFallsThroughFailures(t *testing.T) {
	strategies := []Extractor{
		&fakeExtractor{name: StrategyLayoutText, panic: true},
		&fakeExtractor{name: StrategyStreamText, err: errors.New("pdftotext: exit status 1")},
		&fakeExtractor{name: StrategyRasterOCR, text: "  \n\t "},
		&fakeExtractor{name: StrategyRawTextLayer, text: "TOTAL 42"},
	}
	out := NewPipeline(nil, strategies...).Extract(context.Background(), "b.pdf", nil)

	if out.Winner != StrategyRawTextLayer || out.Text != "TOTAL 42" {
		t.Fatalf("unexpected outcome: winner=%q text=%q", out.Winner, out.Text)
	}
	if len(out.Attempts) != 4 {
		t.Fatalf("attempts = %d, want 4", len(out.Attempts))
	}
	if !strings.Contains(out.Attempts[0].Message, "panic") {
		t.Fatalf("panic not recorded: %q", out.Attempts[0].Message)
	}
	if !strings.Contains(out.Attempts[1].Message, "exit status 1") {
		t.Fatalf("error not recorded: %q", out.Attempts[1].Message)
	}
	if out.Attempts[2].Success || out.Attempts[2].Message != "empty text" {
		t.Fatalf("whitespace-only text counted as success: %+v", out.Attempts[2])
	}
	wantOrder := []Strategy{StrategyLayoutText, StrategyStreamText, StrategyRasterOCR, StrategyRawTextLayer}
	for i, a := range out.Attempts {
		if a.Strategy != wantOrder[i] {
			t.Fatalf("attempt %d = %q, want %q", i, a.Strategy, wantOrder[i])
		}
	}
}

func TestPipelineAllEmpty(t *testing.T) {
	p := NewPipeline(nil,
		&fakeExtractor{name: StrategyLayoutText},
		&fakeExtractor{name: StrategyStreamText},
		&unavailableExtractor{fakeExtractor{name: StrategyRasterOCR, text: "never"}},
		&fakeExtractor{name: StrategyRawTextLayer},
	)
	out := p.Extract(context.Background(), "scan.pdf", nil)

	if !out.Empty() || out.Text != "" || out.Winner != "" {
		t.Fatalf("expected empty outcome, got %+v", out)
	}
	if !errors.Is(out.Err(), ErrEmptyExtraction) {
		t.Fatalf("Err() = %v, want ErrEmptyExtraction", out.Err())
	}
	ocrAttempt := out.Attempts[2]
	if !ocrAttempt.Skipped || ocrAttempt.Message != "recognition engine unavailable" {
		t.Fatalf("unexpected ocr attempt: %+v", ocrAttempt)
	}
}

func TestPipelineIdempotent(t *testing.T) {
	build := func() *Pipeline {
		return NewPipeline(nil,
			&fakeExtractor{name: StrategyLayoutText},
			&fakeExtractor{name: StrategyStreamText, text: "Invoice 7"},
		)
	}
	p := build()
	first := p.Extract(context.Background(), "x.pdf", []byte("same"))
	second := p.Extract(context.Background(), "x.pdf", []byte("same"))
	if first.Text != second.Text || first.Winner != second.Winner {
		t.Fatalf("outcomes differ: %+v vs %+v", first, second)
	}
}

func TestRunStrategyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakeExtractor{name: StrategyLayoutText, text: "x"}
	att := RunStrategy(ctx, f, nil)
	if att.Success || f.calls != 0 {
		t.Fatalf("strategy ran on cancelled context: %+v", att)
	}
}
