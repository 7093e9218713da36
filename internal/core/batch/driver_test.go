package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/core"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/fields"
)

type fakeProcessor struct {
	mu      sync.Mutex
	delay   map[string]time.Duration
	block   map[string]bool
	fail    map[string]constants.DocStatus
	running int
	peak    int
}

func (f *fakeProcessor) Process(ctx context.Context, doc core.Document) core.DocumentResult {
	f.mu.Lock()
	f.running++
	if f.running > f.peak {
		f.peak = f.running
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.running--
		f.mu.Unlock()
	}()

	if f.block[doc.Name] {
		<-ctx.Done()
		return core.DocumentResult{Document: doc.Name, Status: constants.DocStatusFailed, Err: ctx.Err()}
	}
	time.Sleep(f.delay[doc.Name])
	if st, ok := f.fail[doc.Name]; ok {
		return core.DocumentResult{Document: doc.Name, Status: st, Err: errors.New("failed")}
	}
	rec := fields.NewRecord(map[constants.Field]fields.Value{
		constants.InvoiceNo: fields.StringValue("INV-" + doc.Name),
	}, doc.Name, time.Now())
	return core.DocumentResult{Document: doc.Name, Status: constants.DocStatusSuccess, Record: &rec}
}

func docs(names ...string) []core.Document {
	out := make([]core.Document, len(names))
	for i, n := range names {
		out[i] = core.Document{Name: n, Data: []byte("%PDF-1.4")}
	}
	return out
}

func TestRunNoDocuments(t *testing.T) {
	d := NewDriver(&fakeProcessor{}, nil)
	if _, err := d.Run(context.Background(), nil); !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("err = %v, want ErrNoDocuments", err)
	}
}

func TestRunContinuesPastFailures(t *testing.T) {
	proc := &fakeProcessor{fail: map[string]constants.DocStatus{
		"b.pdf": constants.DocStatusMalformedResponse,
		"c.pdf": constants.DocStatusNoText,
	}}
	res, err := NewDriver(proc, nil).Run(context.Background(), docs("a.pdf", "b.pdf", "c.pdf", "d.pdf"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Log) != 4 || len(res.Records) != 2 {
		t.Fatalf("log=%d records=%d", len(res.Log), len(res.Records))
	}
	if res.Records[0].Source() != "a.pdf" || res.Records[1].Source() != "d.pdf" {
		t.Fatalf("records out of order: %s, %s", res.Records[0].Source(), res.Records[1].Source())
	}
	want := []string{"a.pdf: Success", "b.pdf: JSON Parse Error", "c.pdf: No Text Extracted", "d.pdf: Success"}
	if fmt.Sprint(res.Messages()) != fmt.Sprint(want) {
		t.Fatalf("messages = %q", res.Messages())
	}
	if res.ID.String() == "" || res.FinishedAt.Before(res.StartedAt) {
		t.Fatalf("bad bookkeeping: %+v", res)
	}
}

func TestRunTimeout(t *testing.T) {
	proc := &fakeProcessor{block: map[string]bool{"slow.pdf": true}}
	d := NewDriver(proc, nil, WithDocumentTimeout(20*time.Millisecond))

	res, err := d.Run(context.Background(), docs("slow.pdf", "fast.pdf"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Log[0].Status != constants.DocStatusTimeout {
		t.Fatalf("slow status = %q, want TIMEOUT", res.Log[0].Status)
	}
	if res.Log[1].Status != constants.DocStatusSuccess || len(res.Records) != 1 {
		t.Fatalf("batch did not continue after timeout: %+v", res.Log[1])
	}
}

func TestRunParallelKeepsOrder(t *testing.T) {
	proc := &fakeProcessor{delay: map[string]time.Duration{
		"1.pdf": 40 * time.Millisecond,
		"2.pdf": 5 * time.Millisecond,
		"3.pdf": 25 * time.Millisecond,
		"4.pdf": 0,
	}}
	d := NewDriver(proc, nil, WithWorkers(2), WithDocumentTimeout(0))

	res, err := d.Run(context.Background(), docs("1.pdf", "2.pdf", "3.pdf", "4.pdf"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, want := range []string{"1.pdf", "2.pdf", "3.pdf", "4.pdf"} {
		if res.Log[i].Document != want || res.Records[i].Source() != want {
			t.Fatalf("position %d = %q, want %q", i, res.Log[i].Document, want)
		}
	}
	if proc.peak > 2 {
		t.Fatalf("peak concurrency %d exceeds 2 workers", proc.peak)
	}
}

func TestRunCancelledBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := NewDriver(&fakeProcessor{}, nil).Run(ctx, docs("a.pdf"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Log[0].Status != constants.DocStatusFailed || len(res.Records) != 0 {
		t.Fatalf("unexpected result on cancelled context: %+v", res.Log[0])
	}
}
