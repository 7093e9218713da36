package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/invoice-extractor/internal/app"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/ocr"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/textextract"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
)

func main() {
	var (
		configPath = flag.String("config", "", "optional YAML config file")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: invoice-doctor [--config file] [file.pdf ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := app.NewLogger(os.Stderr, *debug)
	cfg, err := common.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	healthy := true
	fmt.Println("Environment:")
	tools := ocr.CheckTools(ocr.Config{
		Pdftotext: cfg.OCR.Pdftotext,
		Pdftoppm:  cfg.OCR.Pdftoppm,
		Tesseract: cfg.OCR.Tesseract,
	})
	for _, t := range tools {
		if t.OK() {
			fmt.Printf("  [ok]      %-10s %s\n", t.Name, t.Path)
		} else {
			fmt.Printf("  [missing] %-10s %v\n", t.Name, t.Err)
		}
	}
	if err := cfg.ValidateLLM(); err != nil {
		healthy = false
		fmt.Printf("  [missing] %-10s OPENAI_API_KEY is not set\n", "api key")
	} else {
		fmt.Printf("  [ok]      %-10s model %s\n", "api key", cfg.LLM.Model)
	}
	if err := cfg.Validate(); err != nil {
		healthy = false
		fmt.Printf("  [invalid] %-10s %v\n", "config", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pipeline := textextract.New(cfg.OCR, logger)
	ingestor := ingest.NewFSIngestor(false, logger)
	for _, path := range flag.Args() {
		doc, err := ingestor.LoadPath(ctx, path)
		if err != nil {
			healthy = false
			fmt.Printf("\n%s: %v\n", path, err)
			continue
		}
		d := pipeline.Diagnose(ctx, doc.Name, doc.Data)
		fmt.Printf("\n%s (%d bytes): %s\n", filepath.Base(path), len(doc.Data), d.Kind)
		for _, a := range d.Attempts {
			switch {
			case a.Success:
				fmt.Printf("  %-15s %6d chars  %s\n", a.Strategy, utf8.RuneCountInString(a.Text), a.Duration.Round(time.Millisecond))
			case a.Skipped:
				fmt.Printf("  %-15s skipped      %s\n", a.Strategy, a.Message)
			default:
				fmt.Printf("  %-15s failed       %s\n", a.Strategy, a.Message)
			}
		}
		if d.Kind == textextract.KindUnreadable {
			healthy = false
		}
	}

	if !healthy {
		os.Exit(1)
	}
}
