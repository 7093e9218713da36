// Package app wires configuration into the long-lived components shared by the binaries.
package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/core"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/batch"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/fields"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/llm/openai"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/textextract"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

// NewLogger returns a JSON logger and installs it as the default.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// NewProcessor builds extraction pipeline, extraction-service client and normalizer.
func NewProcessor(cfg *common.Config, logger *slog.Logger) (*core.Processor, error) {
	if err := cfg.ValidateLLM(); err != nil {
		return nil, err
	}
	client := openai.NewClient(openai.ConfigFrom(cfg.LLM), logger)
	logger.Info("extraction service client initialized", "model", cfg.LLM.Model)

	normalizer := fields.NewNormalizer(client, cfg.Normalizer.MinTextChars, logger)
	pipeline := textextract.New(cfg.OCR, logger)
	return core.NewProcessor(logger, pipeline, normalizer, cfg.Batch.MaxFileMB), nil
}

// NewDriver applies the batch section to a driver around proc.
func NewDriver(cfg *common.Config, proc batch.DocumentProcessor, logger *slog.Logger) *batch.Driver {
	return batch.NewDriver(proc, logger,
		batch.WithWorkers(cfg.Batch.Workers),
		batch.WithDocumentTimeout(cfg.Batch.DocTimeout),
	)
}

// Store is the optional batch history.
type Store struct {
	DB      *repository.DB
	Batches repository.BatchRepository
	logger  *slog.Logger
}

// OpenStore connects and migrates. It returns nil, nil when no driver is configured.
func OpenStore(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (*Store, error) {
	if cfg.Driver == "" {
		logger.Debug("batch history store disabled")
		return nil, nil
	}
	db, err := repository.Open(ctx, repository.ConfigFrom(cfg), logger)
	if err != nil {
		return nil, err
	}
	if err := db.HealthCheck(ctx, cfg.DialTimeout, logger); err != nil {
		db.Close(logger)
		return nil, err
	}
	if err := repository.RunMigrations(ctx, db.SQL, db.Driver); err != nil {
		db.Close(logger)
		return nil, common.NewAppError("MIGRATION_ERROR", "apply migrations", err)
	}
	return &Store{
		DB:      db,
		Batches: repository.NewBatchRepository(db.SQL, db.Driver, logger),
		logger:  logger,
	}, nil
}

// Close is safe on a nil store.
func (s *Store) Close() {
	if s == nil {
		return
	}
	s.DB.Close(s.logger)
}
