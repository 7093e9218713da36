package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/app"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/core"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/batch"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/fields"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir        = flag.String("dir", "", "directory of invoice PDFs to process")
		out        = flag.String("out", "", "output XLSX path (default: extracted_invoice_data_<timestamp>.xlsx)")
		configPath = flag.String("config", "", "optional YAML config file")
		workers    = flag.Int("workers", 0, "documents processed in parallel (default from config)")
		timeout    = flag.Duration("timeout", 0, "per-document time limit (default from config)")
		watch      = flag.Bool("watch", false, "keep running and process PDFs as they appear under --dir")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	if *dir == "" && flag.NArg() == 0 {
		printError("Error: --dir or at least one PDF path is required\n")
		os.Exit(1)
	}
	if *watch && *dir == "" {
		printError("Error: --watch requires --dir\n")
		os.Exit(1)
	}

	logger := app.NewLogger(os.Stderr, *debug)

	cfg, err := common.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Batch.Workers = *workers
	}
	if *timeout > 0 {
		cfg.Batch.DocTimeout = *timeout
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	if *out == "" {
		*out = filepath.Join(cfg.Batch.OutputDir, export.DefaultFileName(time.Now()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proc, err := app.NewProcessor(cfg, logger)
	if err != nil {
		logger.Error("failed to build processor", "error", err)
		os.Exit(1)
	}
	driver := app.NewDriver(cfg, proc, logger)

	store, err := app.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open batch history store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ingestor := ingest.NewFSIngestor(cfg.Batch.SkipHidden, logger)
	exporter := export.NewService(logger)

	if *watch {
		if err := runWatch(ctx, cfg, *dir, *out, ingestor, driver, exporter, store, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("watch stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	var docs []core.Document
	if *dir != "" {
		d, results, stats, err := ingestor.LoadDirectory(ctx, *dir)
		if err != nil {
			logger.Error("failed to scan directory", "dir", *dir, "error", err)
			os.Exit(1)
		}
		reportLoadFailures(results)
		logger.Info("directory scanned",
			"dir", *dir,
			"scanned", stats.Scanned,
			"matched", stats.Matched,
			"loaded", stats.Loaded,
			"failed", stats.Failed)
		docs = append(docs, d...)
	}
	if flag.NArg() > 0 {
		d, results := ingestor.LoadPaths(ctx, flag.Args())
		reportLoadFailures(results)
		docs = append(docs, d...)
	}

	res, err := driver.Run(ctx, docs)
	if errors.Is(err, batch.ErrNoDocuments) {
		printError("Error: no PDF files found\n")
		os.Exit(1)
	}
	if err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}

	fmt.Println("Processing log:")
	for _, m := range res.Messages() {
		fmt.Printf("  %s\n", m)
	}

	if err := exporter.WriteFile(*out, res.Records, res.Log); err != nil {
		logger.Error("failed to write workbook", "output", *out, "error", err)
		os.Exit(1)
	}
	persist(ctx, store, res, logger)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Batch: %s\n", res.ID)
	fmt.Printf("- Documents: %d\n", len(res.Log))
	fmt.Printf("- Records extracted: %d\n", res.Succeeded())
	fmt.Printf("- Output: %s\n", *out)
}

func reportLoadFailures(results []ingest.FileResult) {
	for _, r := range results {
		if r.Err != "" {
			printError("skipping %s: %s\n", r.Path, r.Err)
		}
	}
}

func persist(ctx context.Context, store *app.Store, res *batch.Result, logger *slog.Logger) {
	if store == nil {
		return
	}
	if err := store.Batches.SaveBatch(ctx, res); err != nil {
		logger.Error("failed to persist batch", "batch_id", res.ID, "error", err)
	}
}

// runWatch processes each new PDF as its own batch and rewrites the workbook with
// everything seen so far.
func runWatch(ctx context.Context, cfg *common.Config, dir, out string, ingestor *ingest.FSIngestor, driver *batch.Driver, exporter *export.Service, store *app.Store, logger *slog.Logger) error {
	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
		SkipHidden:  cfg.Batch.SkipHidden,
	}, logger)
	if err != nil {
		return err
	}
	logger.Info("watching for invoices", "dir", dir, "output", out)

	var (
		records []fields.InvoiceRecord
		entries []core.DocumentResult
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if !ok {
				return ctx.Err()
			}
			logger.Warn("watcher error", "error", err)
		case path, ok := <-paths:
			if !ok {
				return ctx.Err()
			}
			doc, err := ingestor.LoadPath(ctx, path)
			if err != nil {
				printError("skipping %s: %v\n", path, err)
				continue
			}
			res, err := driver.Run(ctx, []core.Document{doc})
			if err != nil {
				return err
			}
			for _, m := range res.Messages() {
				fmt.Println(m)
			}
			records = append(records, res.Records...)
			entries = append(entries, res.Log...)
			if err := exporter.WriteFile(out, records, entries); err != nil {
				logger.Error("failed to write workbook", "output", out, "error", err)
			}
			persist(ctx, store, res, logger)
		}
	}
}
