package ocr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []call
	stdout []byte
	err    error
	// onRun lets a test emulate files the tool writes
	onRun func(args []string)
}

func (f *fakeRunner) Run(_ context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, call{name: name, args: append([]string(nil), args...)})
	if f.onRun != nil {
		f.onRun(args)
	}
	return f.stdout, []byte("boom"), f.err
}

func twoPagePDF(t *testing.T) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	for _, line := range []string{"Invoice No: INV-001", "Total: 100"} {
		pdf.AddPage()
		pdf.Cell(40, 10, line)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("gofpdf output: %v", err)
	}
	return buf.Bytes()
}

func TestSplitPages(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{""}},
		{"one\f", []string{"one"}},
		{"one\ftwo\f", []string{"one", "two"}},
		{"one\f\ftwo", []string{"one", "", "two"}},
	}
	for _, tc := range cases {
		got := splitPages(tc.in)
		if strings.Join(got, "|") != strings.Join(tc.want, "|") || len(got) != len(tc.want) {
			t.Fatalf("splitPages(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStreamParserArgs(t *testing.T) {
	fr := &fakeRunner{stdout: []byte("Invoice No: INV-001\fTotal: 100\f")}
	p := NewStreamParser(Config{Pdftotext: "/opt/pdftotext"}, nil)
	p.runner = fr

	pages, err := p.PageTexts(context.Background(), []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("PageTexts: %v", err)
	}
	if len(pages) != 2 || pages[0] != "Invoice No: INV-001" || pages[1] != "Total: 100" {
		t.Fatalf("unexpected pages: %q", pages)
	}
	if len(fr.calls) != 1 || fr.calls[0].name != "/opt/pdftotext" {
		t.Fatalf("unexpected calls: %+v", fr.calls)
	}
	args := fr.calls[0].args
	if args[0] != "-raw" || args[len(args)-1] != "-" {
		t.Fatalf("unexpected args: %q", args)
	}
}

func TestStreamParserError(t *testing.T) {
	fr := &fakeRunner{err: errors.New("exit status 1")}
	p := NewStreamParser(Config{}, nil)
	p.runner = fr

	if _, err := p.PageTexts(context.Background(), []byte("%PDF-1.4")); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error carrying stderr, got %v", err)
	}
}

func TestRasterizeSinglePage(t *testing.T) {
	fr := &fakeRunner{}
	fr.onRun = func(args []string) {
		prefix := args[len(args)-1]
		if err := os.WriteFile(prefix+".png", []byte("png-bytes"), 0o600); err != nil {
			t.Errorf("write fake png: %v", err)
		}
	}
	r := NewRasterizer(Config{}, nil)
	r.runner = fr

	img, err := r.Rasterize(context.Background(), []byte("%PDF-1.4"), 2, 2.0)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if string(img) != "png-bytes" {
		t.Fatalf("unexpected image %q", img)
	}
	got := strings.Join(fr.calls[0].args, " ")
	for _, want := range []string{"-r 144", "-f 2 -l 2", "-png", "-singlefile"} {
		if !strings.Contains(got, want) {
			t.Fatalf("args %q missing %q", got, want)
		}
	}
}

func TestRasterizeInvalidPage(t *testing.T) {
	r := NewRasterizer(Config{}, nil)
	if _, err := r.Rasterize(context.Background(), nil, 0, 2.0); err == nil {
		t.Fatalf("expected error for page 0")
	}
}

func TestPageCount(t *testing.T) {
	r := NewRasterizer(Config{}, nil)
	n, err := r.PageCount(context.Background(), twoPagePDF(t))
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if n != 2 {
		t.Fatalf("PageCount = %d, want 2", n)
	}
}

func TestTesseractProbesOnce(t *testing.T) {
	lookups := 0
	tess := NewTesseract(Config{}, nil)
	tess.lookPath = func(string) (string, error) {
		lookups++
		return "", errors.New("not found")
	}
	for i := 0; i < 3; i++ {
		if tess.Available() {
			t.Fatalf("expected unavailable")
		}
		if _, err := tess.Recognize(context.Background(), []byte("png"), 6); !errors.Is(err, ErrRecognitionUnavailable) {
			t.Fatalf("expected ErrRecognitionUnavailable, got %v", err)
		}
	}
	if lookups != 1 {
		t.Fatalf("lookPath called %d times, want 1", lookups)
	}
}

func TestTesseractArgs(t *testing.T) {
	fr := &fakeRunner{stdout: []byte("TOTAL 100\n")}
	tess := NewTesseract(Config{TesseractLang: "deu", TessdataDir: "/td"}, nil)
	tess.runner = fr
	tess.lookPath = func(string) (string, error) { return "/usr/bin/tesseract", nil }

	txt, err := tess.Recognize(context.Background(), []byte("png"), 4)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if txt != "TOTAL 100\n" {
		t.Fatalf("unexpected text %q", txt)
	}
	got := strings.Join(fr.calls[0].args[1:], " ")
	if got != "stdout -l deu --psm 4 --tessdata-dir /td" {
		t.Fatalf("unexpected args %q", got)
	}
}

func TestCheckTools(t *testing.T) {
	missing := errors.New("not found")
	got := checkTools(Config{Tesseract: "/opt/tess"}, func(bin string) (string, error) {
		if bin == "pdftoppm" {
			return "", missing
		}
		return "/usr/bin/" + bin, nil
	})
	if len(got) != 3 {
		t.Fatalf("tools = %d", len(got))
	}
	if !got[0].OK() || got[0].Path != "/usr/bin/pdftotext" {
		t.Fatalf("pdftotext = %+v", got[0])
	}
	if got[1].OK() || !errors.Is(got[1].Err, missing) {
		t.Fatalf("pdftoppm = %+v", got[1])
	}
	if got[2].Bin != "/opt/tess" {
		t.Fatalf("tesseract bin = %q", got[2].Bin)
	}
}
