// Package ocr wraps the external poppler and tesseract tools used by the
// text-extraction strategies that cannot be served in-process.
package ocr

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrRecognitionUnavailable is returned when the tesseract binary cannot be found.
var ErrRecognitionUnavailable = errors.New("recognition engine unavailable")

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	TessdataDir   string
}

func (c Config) withDefaults() Config {
	if c.Pdftotext == "" {
		c.Pdftotext = "pdftotext"
	}
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.TesseractLang == "" {
		c.TesseractLang = "eng"
	}
	return c
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// scratchDir creates a temp dir holding data under name. Call cleanup when done.
func scratchDir(pattern, name string, data []byte, logger *slog.Logger) (dir string, path string, cleanup func(), err error) {
	dir, err = os.MkdirTemp("", pattern)
	if err != nil {
		return "", "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup = func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("ocr.tmp.cleanup_failed", "dir", dir, "error", err)
		}
	}
	path = filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		cleanup()
		return "", "", nil, fmt.Errorf("write temp file: %w", err)
	}
	return dir, path, cleanup, nil
}

func stderrDetail(errb []byte) string {
	s := strings.TrimSpace(string(errb))
	if s == "" {
		return ""
	}
	return ": " + truncate(s, 512)
}
