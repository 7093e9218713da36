package textextract

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

func invoicePDF(t *testing.T, lines ...string) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "", 12)
	for _, l := range lines {
		pdf.Cell(0, 10, l)
		pdf.Ln(12)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("gofpdf output: %v", err)
	}
	return buf.Bytes()
}

func TestLayoutParserReadsRows(t *testing.T) {
	data := invoicePDF(t, "Invoice No: INV-001", "Total: 100")
	pages, err := LayoutParser{}.PageTexts(context.Background(), data)
	if err != nil {
		t.Fatalf("PageTexts: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(pages))
	}
	for _, want := range []string{"Invoice No: INV-001", "Total: 100"} {
		if !strings.Contains(pages[0], want) {
			t.Fatalf("page text %q missing %q", pages[0], want)
		}
	}
}

func TestRawLayerParserReadsContent(t *testing.T) {
	data := invoicePDF(t, "Invoice No: INV-001", "Total: 100")
	pages, err := RawLayerParser{}.PageTexts(context.Background(), data)
	if err != nil {
		t.Fatalf("PageTexts: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(pages))
	}
	if !strings.Contains(pages[0], "INV-001") || !strings.Contains(pages[0], "Total: 100") {
		t.Fatalf("unexpected raw text %q", pages[0])
	}
}

func TestParsersRejectGarbage(t *testing.T) {
	for _, p := range []PageParser{LayoutParser{}, RawLayerParser{}} {
		if _, err := p.PageTexts(context.Background(), []byte("not a pdf at all")); err == nil {
			t.Fatalf("%T accepted garbage", p)
		}
	}
}

func TestLayoutWinMatchesDirectRead(t *testing.T) {
	data := invoicePDF(t, "Supplier Name: ACME", "Currency: EUR")
	direct, err := LayoutParser{}.PageTexts(context.Background(), data)
	if err != nil {
		t.Fatalf("PageTexts: %v", err)
	}
	never := &fakeExtractor{name: StrategyStreamText, text: "should not run"}
	p := NewPipeline(nil, NewParserStrategy(StrategyLayoutText, LayoutParser{}), never)

	out := p.Extract(context.Background(), "acme.pdf", data)
	if out.Winner != StrategyLayoutText {
		t.Fatalf("winner = %q", out.Winner)
	}
	if out.Text != strings.Join(direct, "\n") {
		t.Fatalf("pipeline text %q differs from direct read %q", out.Text, direct)
	}
	if never.calls != 0 {
		t.Fatalf("fallback ran")
	}
}
