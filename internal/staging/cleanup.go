// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package staging garbage-collects the partial-transfer directory. Partial
// files left by interrupted runs are resumable, so they are only removed once
// they are older than a caller-chosen age.
package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// Suffixes of the files a transfer leaves in the staging directory.
const (
	PartSuffix = ".part"
	LockSuffix = ".lock"
)

// DefaultMaxAge is the age after which partial files are considered abandoned.
const DefaultMaxAge = 7 * 24 * time.Hour

// CleanStaleResult contains the outcome of a cleanup run.
type CleanStaleResult struct {
	Removed []string
	Kept    int
	Errors  []CleanupError

	// Freed is the total size of the removed files.
	Freed int64
}

// CleanupError pairs a file path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// FileInfo describes one staging file.
type FileInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// CleanStale removes partial and lock files older than maxAge from
// stagingDir. Lock files still held by a running transfer are kept. A
// missing directory is not an error.
func CleanStale(ctx context.Context, stagingDir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return result
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: stagingDir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if entry.IsDir() || !isStagingFile(entry.Name()) {
			continue
		}

		path := filepath.Join(stagingDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			result.Kept++
			continue
		}
		if strings.HasSuffix(entry.Name(), LockSuffix) && held(path) {
			result.Kept++
			continue
		}

		if err := os.Remove(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			if logger != nil {
				logger.Warn("failed to remove stale staging file",
					slog.String("path", path),
					slog.Any("error", err),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, path)
		result.Freed += info.Size()
		if logger != nil {
			logger.Info("removed stale staging file",
				slog.String("path", path),
				slog.Duration("age", time.Since(info.ModTime())),
			)
		}
	}

	return result
}

// ListFiles returns the partial and lock files in stagingDir, oldest first.
func ListFiles(stagingDir string) ([]FileInfo, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !isStagingFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:    entry.Name(),
			Path:    filepath.Join(stagingDir, entry.Name()),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ModTime.Before(files[j].ModTime) })
	return files, nil
}

func isStagingFile(name string) bool {
	return strings.HasSuffix(name, PartSuffix) || strings.HasSuffix(name, LockSuffix)
}

// held reports whether another process holds the lock at path.
func held(path string) bool {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil || !ok {
		return true
	}
	lock.Unlock()
	return false
}
