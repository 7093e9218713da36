package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/internal/app"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
)

func main() {
	var (
		batchID    = flag.String("batch", "", "stored batch id (UUID) to export")
		out        = flag.String("out", "", "output XLSX path (default: extracted_invoice_data_<timestamp>.xlsx)")
		configPath = flag.String("config", "", "optional YAML config file")
		list       = flag.Bool("list", false, "list recent stored batches and exit")
		limit      = flag.Int("limit", 20, "number of batches shown by --list")
	)
	flag.Parse()

	logger := app.NewLogger(os.Stderr, false)

	cfg, err := common.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if cfg.Store.Driver == "" {
		fmt.Fprintln(os.Stderr, "Error: STORE_DRIVER and STORE_DSN must be set to use the batch history")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := app.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open batch history store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if *list {
		batches, err := store.Batches.ListBatches(ctx, *limit)
		if err != nil {
			logger.Error("failed to list batches", "error", err)
			os.Exit(1)
		}
		for _, b := range batches {
			fmt.Printf("%s  %s  documents=%d records=%d\n",
				b.ID, b.StartedAt.Local().Format("2006-01-02 15:04:05"), b.Documents, b.Succeeded)
		}
		return
	}

	id, err := uuid.Parse(*batchID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: --batch must be a UUID: %v\n", err)
		os.Exit(2)
	}

	res, err := store.Batches.LoadBatch(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "Error: batch %s not found\n", id)
		os.Exit(1)
	}
	if err != nil {
		logger.Error("failed to load batch", "batch_id", id, "error", err)
		os.Exit(1)
	}

	if *out == "" {
		*out = filepath.Join(cfg.Batch.OutputDir, export.DefaultFileName(res.StartedAt.Local()))
	}
	if err := export.NewService(logger).WriteFile(*out, res.Records, res.Log); err != nil {
		logger.Error("failed to write workbook", "output", *out, "error", err)
		os.Exit(1)
	}
	fmt.Printf("Exported batch %s (%d records) to %s\n", id, len(res.Records), *out)
}
