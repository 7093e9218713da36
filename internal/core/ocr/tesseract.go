package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
)

// Tesseract recognizes text in PNG page images with the tesseract CLI.
type Tesseract struct {
	cfg      Config
	runner   Runner
	logger   *slog.Logger
	lookPath func(string) (string, error)

	probe     sync.Once
	available bool
}

func NewTesseract(cfg Config, logger *slog.Logger) *Tesseract {
	return &Tesseract{
		cfg:      cfg.withDefaults(),
		runner:   execRunner{},
		logger:   loggerOrDefault(logger),
		lookPath: exec.LookPath,
	}
}

// Available probes for the binary on first use only.
func (t *Tesseract) Available() bool {
	t.probe.Do(func() {
		path, err := t.lookPath(t.cfg.Tesseract)
		t.available = err == nil
		if t.available {
			t.logger.Debug("ocr.tesseract.found", "path", path)
		} else {
			t.logger.Warn("ocr.tesseract.missing", "bin", t.cfg.Tesseract, "error", err)
		}
	})
	return t.available
}

// Recognize runs one page-segmentation mode over png.
func (t *Tesseract) Recognize(ctx context.Context, png []byte, mode int) (string, error) {
	if !t.Available() {
		return "", ErrRecognitionUnavailable
	}
	_, in, cleanup, err := scratchDir("ie-tess-*", "page.png", png, t.logger)
	if err != nil {
		return "", err
	}
	defer cleanup()

	// tesseract <in.png> stdout -l eng --psm N [--tessdata-dir DIR]
	args := []string{in, "stdout", "-l", t.cfg.TesseractLang, "--psm", strconv.Itoa(mode)}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, t.logger, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract psm %d: %w%s", mode, err, stderrDetail(errb))
	}
	return string(out), nil
}
