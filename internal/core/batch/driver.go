package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/core"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/fields"
)

// ErrNoDocuments is the only condition that stops a batch.
var ErrNoDocuments = errors.New("no documents supplied")

// DocumentProcessor is satisfied by *core.Processor.
type DocumentProcessor interface {
	Process(ctx context.Context, doc core.Document) core.DocumentResult
}

// Result is the finalized batch: records and log are both in input order.
type Result struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Records    []fields.InvoiceRecord
	Log        []core.DocumentResult
}

// Succeeded counts documents that produced a record.
func (r *Result) Succeeded() int { return len(r.Records) }

// Messages returns the processing log lines.
func (r *Result) Messages() []string {
	out := make([]string, len(r.Log))
	for i, e := range r.Log {
		out[i] = e.Message()
	}
	return out
}

type Driver struct {
	proc    DocumentProcessor
	logger  *slog.Logger
	workers int
	timeout time.Duration
}

type Option func(*Driver)

func WithWorkers(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithDocumentTimeout bounds each document; 0 disables the limit.
func WithDocumentTimeout(t time.Duration) Option {
	return func(d *Driver) {
		if t >= 0 {
			d.timeout = t
		}
	}
}

func NewDriver(proc DocumentProcessor, logger *slog.Logger, opts ...Option) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Driver{
		proc:    proc,
		logger:  logger,
		workers: 1,
		timeout: 3 * time.Minute,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Run processes docs and never fails on a per-document condition.
func (d *Driver) Run(ctx context.Context, docs []core.Document) (*Result, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	res := &Result{ID: uuid.New(), StartedAt: time.Now()}
	ctx = common.WithBatchID(ctx, res.ID.String())
	d.logger.Info("batch.start", "batch_id", res.ID, "documents", len(docs), "workers", d.workers)

	entries := make([]core.DocumentResult, len(docs))
	if d.workers <= 1 {
		for i, doc := range docs {
			entries[i] = d.processOne(ctx, res.ID, doc)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.workers)
		for i, doc := range docs {
			g.Go(func() error {
				entries[i] = d.processOne(gctx, res.ID, doc)
				return nil
			})
		}
		_ = g.Wait()
	}

	res.Log = entries
	for _, e := range entries {
		if e.Record != nil {
			res.Records = append(res.Records, *e.Record)
		}
	}
	res.FinishedAt = time.Now()
	d.logger.Info("batch.done",
		"batch_id", res.ID,
		"documents", len(docs),
		"succeeded", res.Succeeded(),
		"elapsed_ms", res.FinishedAt.Sub(res.StartedAt).Milliseconds(),
	)
	return res, nil
}

// processOne applies the per-document timeout. A late result is discarded.
func (d *Driver) processOne(ctx context.Context, batchID uuid.UUID, doc core.Document) core.DocumentResult {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return core.DocumentResult{Document: doc.Name, Status: constants.DocStatusFailed, Err: err}
	}
	if d.timeout <= 0 {
		r := d.proc.Process(ctx, doc)
		d.logDone(batchID, r)
		return r
	}

	dctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan core.DocumentResult, 1)
	go func() {
		done <- d.proc.Process(dctx, doc)
	}()

	var r core.DocumentResult
	select {
	case r = <-done:
		if !r.Status.OK() && errors.Is(dctx.Err(), context.DeadlineExceeded) {
			r.Status = constants.DocStatusTimeout
		}
	case <-dctx.Done():
		r = core.DocumentResult{
			Document: doc.Name,
			Status:   constants.DocStatusTimeout,
			Err:      fmt.Errorf("document exceeded %s: %w", d.timeout, dctx.Err()),
			Duration: time.Since(start),
		}
		if errors.Is(dctx.Err(), context.Canceled) {
			r.Status = constants.DocStatusFailed
		}
	}
	d.logDone(batchID, r)
	return r
}

func (d *Driver) logDone(batchID uuid.UUID, r core.DocumentResult) {
	d.logger.Info("batch.document.done",
		"batch_id", batchID,
		"document", r.Document,
		"status", r.Status,
		"strategy", r.Strategy,
		"chars", r.TextChars,
		"elapsed_ms", r.Duration.Milliseconds(),
	)
}
