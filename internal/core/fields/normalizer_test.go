package fields

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

type fakeService struct {
	resp  string
	err   error
	calls int
	last  Request
}

func (f *fakeService) Complete(_ context.Context, req Request) (string, error) {
	f.calls++
	f.last = req
	return f.resp, f.err
}

const sampleText = "ACME Corp Invoice No: INV-001 Date: 2024-03-01 Bill To: Widget Ltd Qty 5 Unit Price 20.00 Grand Total 100.00 EUR"

func newTestNormalizer(svc Service) *Normalizer {
	n := NewNormalizer(svc, 0, nil)
	n.now = func() time.Time { return time.Date(2024, 3, 2, 10, 4, 5, 0, time.UTC) }
	return n
}

func TestNormalizeInsufficientText(t *testing.T) {
	svc := &fakeService{resp: "{}"}
	_, err := newTestNormalizer(svc).Normalize(context.Background(), "0123456789", "short.pdf")
	if !errors.Is(err, ErrInsufficientText) {
		t.Fatalf("err = %v, want InsufficientText", err)
	}
	if svc.calls != 0 {
		t.Fatalf("service called %d times for short text", svc.calls)
	}
}

func TestNormalizeEmptyText(t *testing.T) {
	svc := &fakeService{}
	_, err := newTestNormalizer(svc).Normalize(context.Background(), " \n\t ", "empty.pdf")
	if ReasonOf(err) != ReasonInsufficientText || svc.calls != 0 {
		t.Fatalf("err = %v calls = %d", err, svc.calls)
	}
}

func TestNormalizeThresholdCountsCleanedText(t *testing.T) {
	// 60 raw characters, 10 once whitespace is collapsed
	raw := "a" + strings.Repeat(" ", 50) + "bcdefghij"
	svc := &fakeService{resp: "{}"}
	if _, err := newTestNormalizer(svc).Normalize(context.Background(), raw, "ws.pdf"); !errors.Is(err, ErrInsufficientText) {
		t.Fatalf("err = %v, want InsufficientText", err)
	}
}

func TestNormalizeMalformedResponse(t *testing.T) {
	cases := map[string]string{
		"prose":          "Sorry, I cannot help",
		"array":          `["INV-001"]`,
		"null value":     `{"Invoice No": null}`,
		"nested value":   `{"Invoice No": {"value": "INV-001"}}`,
		"bool value":     `{"Quantity": true}`,
		"trailing prose": `{"Invoice No": "INV-001"} hope this helps`,
		"fenced":         "```json\n{\"Invoice No\": \"INV-001\"}\n```",
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &fakeService{resp: resp}
			_, err := newTestNormalizer(svc).Normalize(context.Background(), sampleText, "bad.pdf")
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("err = %v, want MalformedResponse", err)
			}
			if svc.calls != 1 {
				t.Fatalf("service called %d times, want exactly 1", svc.calls)
			}
		})
	}
}

func TestNormalizeServiceError(t *testing.T) {
	cause := errors.New("429 quota exceeded")
	svc := &fakeService{err: cause}
	_, err := newTestNormalizer(svc).Normalize(context.Background(), sampleText, "quota.pdf")
	if !errors.Is(err, ErrServiceError) {
		t.Fatalf("err = %v, want ServiceError", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause not wrapped: %v", err)
	}
	if svc.calls != 1 {
		t.Fatalf("service retried: %d calls", svc.calls)
	}
}

func TestNormalizePartialResponse(t *testing.T) {
	svc := &fakeService{resp: `{"Invoice No": "INV-001"}`}
	rec, err := newTestNormalizer(svc).Normalize(context.Background(), sampleText, "partial.pdf")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	for _, f := range constants.Fields() {
		got := rec.Get(f).String()
		if f == constants.InvoiceNo {
			if got != "INV-001" {
				t.Fatalf("Invoice No = %q", got)
			}
			continue
		}
		if got != constants.NotAvailable {
			t.Fatalf("%s = %q, want N/A", f, got)
		}
	}
	if rec.Source() != "partial.pdf" {
		t.Fatalf("source = %q", rec.Source())
	}
	if rec.ProcessedAt().IsZero() {
		t.Fatalf("processing time not set")
	}
	if rec.Found() != 1 {
		t.Fatalf("Found() = %d, want 1", rec.Found())
	}
}

func TestNormalizeRoundTripVerbatim(t *testing.T) {
	obj := make(map[string]any, 20)
	for i, f := range constants.Fields() {
		if i%2 == 0 {
			obj[string(f)] = fmt.Sprintf("value %d", i)
		} else {
			obj[string(f)] = json.Number(fmt.Sprintf("%d.50", i))
		}
	}
	resp, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	rec, err := newTestNormalizer(&fakeService{resp: string(resp)}).Normalize(context.Background(), sampleText, "full.pdf")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	for i, f := range constants.Fields() {
		v := rec.Get(f)
		want := fmt.Sprint(obj[string(f)])
		if v.String() != want {
			t.Fatalf("%s = %q, want %q", f, v.String(), want)
		}
		if (i%2 == 1) != v.IsNumber() {
			t.Fatalf("%s lost its type", f)
		}
	}
}

func TestNormalizeDropsExtraKeys(t *testing.T) {
	svc := &fakeService{resp: `{"Invoice No": "INV-9", "Notes": {"a": 1}, "invoice no": "x", "Bank": null}`}
	rec, err := newTestNormalizer(svc).Normalize(context.Background(), sampleText, "extra.pdf")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if len(got) != len(constants.Columns()) {
		t.Fatalf("record has %d keys, want %d", len(got), len(constants.Columns()))
	}
	for _, k := range []string{"Notes", "invoice no", "Bank"} {
		if _, ok := got[k]; ok {
			t.Fatalf("extra key %q kept", k)
		}
	}
	if got["Invoice No"] != "INV-9" {
		t.Fatalf("Invoice No = %v", got["Invoice No"])
	}
}

func TestNormalizeSendsCleanedText(t *testing.T) {
	svc := &fakeService{resp: "{}"}
	raw := "Invoice No:\tINV-001\n\n\nＴｏｔａｌ: 100   " + strings.Repeat("x", 50)
	if _, err := newTestNormalizer(svc).Normalize(context.Background(), raw, "clean.pdf"); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !strings.Contains(svc.last.User, "Invoice No: INV-001 Total: 100 ") {
		t.Fatalf("prompt text not cleaned: %q", svc.last.User)
	}
	if svc.last.DocumentID != "clean.pdf" || svc.last.System == "" {
		t.Fatalf("unexpected request: %+v", svc.last)
	}
}

func TestBuildUserPromptListsFields(t *testing.T) {
	p := BuildUserPrompt("TEXT")
	for _, f := range constants.Fields() {
		if !strings.Contains(p, "- "+string(f)) {
			t.Fatalf("prompt missing field %q", f)
		}
	}
	for _, want := range []string{`"N/A"`, "YYYY-MM-DD", "as numbers", "Grand Total", "Invoice text:\nTEXT"} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}
