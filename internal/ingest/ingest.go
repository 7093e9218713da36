// Package ingest turns files on disk into documents for the batch driver.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/core"
)

// FileResult is the per-file load outcome.
type FileResult struct {
	Path  string
	Bytes int
	Err   string
}

// DirStats summarizes a directory load.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Loaded  uint32
	Failed  uint32
}

// FSIngestor reads from the local filesystem.
type FSIngestor struct {
	SkipHidden bool
	logger     *slog.Logger
}

func NewFSIngestor(skipHidden bool, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{SkipHidden: skipHidden, logger: logger}
}

// LoadPath reads one PDF. The document is named by its base filename.
func (i *FSIngestor) LoadPath(ctx context.Context, path string) (core.Document, error) {
	if err := ctx.Err(); err != nil {
		return core.Document{}, err
	}
	ext := filepath.Ext(path)
	if !AllowedExt(ext) {
		return core.Document{}, fmt.Errorf("unsupported or missing extension: %q", ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return core.Document{Name: filepath.Base(path), Data: data}, nil
}

// LoadPaths reads explicit paths in the given order; unreadable files are reported, not fatal.
func (i *FSIngestor) LoadPaths(ctx context.Context, paths []string) ([]core.Document, []FileResult) {
	var docs []core.Document
	var results []FileResult
	for _, p := range paths {
		doc, err := i.LoadPath(ctx, p)
		if err != nil {
			i.logger.Warn("ingest.file.failed", "path", p, "error", err)
			results = append(results, FileResult{Path: p, Err: err.Error()})
			continue
		}
		docs = append(docs, doc)
		results = append(results, FileResult{Path: p, Bytes: len(doc.Data)})
	}
	return docs, results
}

// LoadDirectory walks root, skips hidden entries if requested and loads every
// PDF in lexical path order.
func (i *FSIngestor) LoadDirectory(ctx context.Context, root string) ([]core.Document, []FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root path is required")
	}

	var paths []string
	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if i.SkipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, results, stats, fmt.Errorf("walk: %w", err)
	}

	sort.Strings(paths)
	docs, loaded := i.LoadPaths(ctx, paths)
	for _, r := range loaded {
		if r.Err != "" {
			stats.Failed++
		} else {
			stats.Loaded++
		}
	}
	results = append(results, loaded...)

	i.logger.Info("ingest.directory.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"loaded", stats.Loaded,
		"failed", stats.Failed,
	)
	return docs, results, stats, nil
}
