package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/core"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/batch"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/fields"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/textextract"
)

// BatchSummary is one row of the batch history listing.
type BatchSummary struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Documents  int
	Succeeded  int
}

// BatchRepository persists finished batches so they can be re-exported later.
type BatchRepository interface {
	SaveBatch(ctx context.Context, res *batch.Result) error
	LoadBatch(ctx context.Context, id uuid.UUID) (*batch.Result, error)
	ListBatches(ctx context.Context, limit int) ([]BatchSummary, error)
}

type batchRepository struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *sql.DB, driver string, logger *slog.Logger) BatchRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &batchRepository{db: db, driver: driver, logger: logger}
}

// rebind rewrites ? placeholders to $n for postgres.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (r *batchRepository) q(query string) string { return rebind(r.driver, query) }

// SaveBatch writes the run, its log entries and its records in one transaction.
func (r *batchRepository) SaveBatch(ctx context.Context, res *batch.Result) error {
	if res == nil {
		return fmt.Errorf("%w: nil batch result", common.ErrInvalidInput)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrDatabase, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		r.q(`INSERT INTO batch_run (id, started_at, finished_at, documents, succeeded) VALUES (?, ?, ?, ?, ?)`),
		res.ID.String(), res.StartedAt.UTC(), res.FinishedAt.UTC(), len(res.Log), res.Succeeded(),
	); err != nil {
		return fmt.Errorf("%w: insert batch_run: %v", common.ErrDatabase, err)
	}

	for i, e := range res.Log {
		detail := ""
		if e.Err != nil {
			detail = e.Err.Error()
		}
		if _, err := tx.ExecContext(ctx,
			r.q(`INSERT INTO processing_log (batch_id, position, document, status, strategy, text_chars, detail, elapsed_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			res.ID.String(), i, e.Document, string(e.Status), string(e.Strategy), e.TextChars, detail, e.Duration.Milliseconds(),
		); err != nil {
			return fmt.Errorf("%w: insert processing_log: %v", common.ErrDatabase, err)
		}
	}

	for i, rec := range res.Records {
		body, err := rec.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode record %s: %w", rec.Source(), err)
		}
		if _, err := tx.ExecContext(ctx,
			r.q(`INSERT INTO invoice_record (batch_id, position, source_file, processed_at, fields) VALUES (?, ?, ?, ?, ?)`),
			res.ID.String(), i, rec.Source(), rec.ProcessedAt().UTC(), string(body),
		); err != nil {
			return fmt.Errorf("%w: insert invoice_record: %v", common.ErrDatabase, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}
	r.logger.Info("store.batch.saved", "batch_id", res.ID, "documents", len(res.Log), "records", len(res.Records))
	return nil
}

// LoadBatch rebuilds a stored run. Unknown ids wrap common.ErrNotFound.
func (r *batchRepository) LoadBatch(ctx context.Context, id uuid.UUID) (*batch.Result, error) {
	res := &batch.Result{ID: id}
	err := r.db.QueryRowContext(ctx,
		r.q(`SELECT started_at, finished_at FROM batch_run WHERE id = ?`), id.String(),
	).Scan(&res.StartedAt, &res.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("batch %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: select batch_run: %v", common.ErrDatabase, err)
	}

	if res.Log, err = r.loadLog(ctx, id); err != nil {
		return nil, err
	}
	if res.Records, err = r.loadRecords(ctx, id); err != nil {
		return nil, err
	}
	r.logger.Debug("store.batch.loaded", "batch_id", id, "documents", len(res.Log), "records", len(res.Records))
	return res, nil
}

func (r *batchRepository) loadLog(ctx context.Context, id uuid.UUID) ([]core.DocumentResult, error) {
	rows, err := r.db.QueryContext(ctx,
		r.q(`SELECT document, status, strategy, text_chars, detail, elapsed_ms FROM processing_log WHERE batch_id = ? ORDER BY position`),
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: select processing_log: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []core.DocumentResult
	for rows.Next() {
		var (
			e             core.DocumentResult
			status, strat string
			detail        string
			elapsedMS     int64
		)
		if err := rows.Scan(&e.Document, &status, &strat, &e.TextChars, &detail, &elapsedMS); err != nil {
			return nil, fmt.Errorf("%w: scan processing_log: %v", common.ErrDatabase, err)
		}
		e.Status = constants.DocStatus(status)
		e.Strategy = textextract.Strategy(strat)
		e.Duration = time.Duration(elapsedMS) * time.Millisecond
		if detail != "" {
			e.Err = errors.New(detail)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate processing_log: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func (r *batchRepository) loadRecords(ctx context.Context, id uuid.UUID) ([]fields.InvoiceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		r.q(`SELECT fields FROM invoice_record WHERE batch_id = ? ORDER BY position`),
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: select invoice_record: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []fields.InvoiceRecord
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("%w: scan invoice_record: %v", common.ErrDatabase, err)
		}
		rec, err := fields.DecodeRecord([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("decode stored record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate invoice_record: %v", common.ErrDatabase, err)
	}
	return out, nil
}

// ListBatches returns the most recent runs first.
func (r *batchRepository) ListBatches(ctx context.Context, limit int) ([]BatchSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		r.q(`SELECT id, started_at, finished_at, documents, succeeded FROM batch_run ORDER BY started_at DESC LIMIT ?`),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list batch_run: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []BatchSummary
	for rows.Next() {
		var (
			s  BatchSummary
			id string
		)
		if err := rows.Scan(&id, &s.StartedAt, &s.FinishedAt, &s.Documents, &s.Succeeded); err != nil {
			return nil, fmt.Errorf("%w: scan batch_run: %v", common.ErrDatabase, err)
		}
		if s.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("%w: bad batch id %q: %v", common.ErrDatabase, id, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
