// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/pdiddy/libgen-fetch/internal/events"
	"github.com/pdiddy/libgen-fetch/internal/httputil"
)

const (
	// StagingDirName is the default staging directory under the output
	// directory. Everything in it may be garbage-collected.
	StagingDirName = ".partial"

	// PartSuffix marks in-progress transfers inside the staging directory.
	PartSuffix = ".part"

	// LockSuffix marks per-target lock files inside the staging directory.
	LockSuffix = ".lock"

	defaultChunkSize  = 32 << 10
	defaultMaxRetries = 3
	lockPollInterval  = 100 * time.Millisecond
)

// RetryDelay is the pause between attempts on the same transfer URL.
// Tests set it to zero.
var RetryDelay = 2 * time.Second

// contentRangePattern parses "bytes <start>-<end>/<total>".
var contentRangePattern = regexp.MustCompile(`^bytes\s+(\d+)-(\d+)/(\d+|\*)$`)

// State is the lifecycle position of one transfer attempt.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateStreaming
	StateFinalizing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Transfer describes one file to stream from a transfer URL.
type Transfer struct {
	URL string

	// OutDir receives the final file. StagingDir holds the partial file
	// and defaults to OutDir/.partial.
	OutDir     string
	StagingDir string

	// Filename is the desired final name; it is re-sanitized.
	Filename string

	// MaxRetries caps attempts on this URL (default 3).
	MaxRetries int

	Progress events.ProgressFunc

	// Cancel is checked after every chunk, alongside the context.
	Cancel *atomic.Bool
}

// Downloader streams transfer URLs to disk with resume, retry and atomic
// finalize.
type Downloader struct {
	Client    *httputil.Client
	ChunkSize int

	// OnState, when set, observes every state change.
	OnState func(url string, s State)
}

// localError marks filesystem failures, which are not retried.
type localError struct{ err error }

func (e *localError) Error() string { return e.err.Error() }
func (e *localError) Unwrap() error { return e.err }

// Download streams t.URL into t.OutDir and returns the final path. A file
// name the filesystem rejects as too long is retried once under
// ShortFallbackName.
func (d *Downloader) Download(ctx context.Context, t Transfer) (string, error) {
	if t.OutDir == "" {
		t.OutDir = "."
	}
	if t.StagingDir == "" {
		t.StagingDir = filepath.Join(t.OutDir, StagingDirName)
	}
	if t.Filename == "" {
		t.Filename = defaultName + "." + defaultExt
	}
	for _, dir := range []string{t.OutDir, t.StagingDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	name := CleanFilename(t.Filename, MaxFilenameLength)
	path, err := d.download(ctx, t, name)
	if err != nil && errors.Is(err, syscall.ENAMETOOLONG) {
		if short := ShortFallbackName(name); short != name {
			return d.download(ctx, t, short)
		}
	}
	return path, err
}

func (d *Downloader) download(ctx context.Context, t Transfer, name string) (string, error) {
	d.setState(t.URL, StateIdle)

	lock := flock.New(filepath.Join(t.StagingDir, lockName(name)))
	if _, err := lock.TryLockContext(ctx, lockPollInterval); err != nil {
		if ctx.Err() != nil {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("locking partial file for %s: %w", name, err)
	}
	defer lock.Unlock()

	tmpPath := filepath.Join(t.StagingDir, name+PartSuffix)
	finalPath := filepath.Join(t.OutDir, name)

	attempts := t.MaxRetries
	if attempts <= 0 {
		attempts = defaultMaxRetries
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 && RetryDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(RetryDelay):
			}
		}
		if cancelled(ctx, t.Cancel) {
			d.abort(t.URL, tmpPath)
			return "", ErrCancelled
		}

		path, err := d.attempt(ctx, t, tmpPath, finalPath)
		if err == nil {
			d.setState(t.URL, StateDone)
			return path, nil
		}
		if errors.Is(err, ErrCancelled) {
			d.abort(t.URL, tmpPath)
			return "", ErrCancelled
		}

		var se *StatusError
		var le *localError
		if (errors.As(err, &se) && !se.Retryable()) || errors.As(err, &le) {
			d.abort(t.URL, tmpPath)
			return "", &TransferError{URL: t.URL, Attempts: attempt, Err: err}
		}
		last = err
	}

	d.abort(t.URL, tmpPath)
	return "", &TransferError{URL: t.URL, Attempts: attempts, Err: last}
}

// attempt performs one request, appending to tmpPath when the server
// honours the range request.
func (d *Downloader) attempt(ctx context.Context, t Transfer, tmpPath, finalPath string) (string, error) {
	var offset int64
	if fi, err := os.Stat(tmpPath); err == nil {
		offset = fi.Size()
	}

	req, err := d.Client.NewRequest(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return "", &localError{err}
	}
	req.Header.Set("Accept", "*/*")
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	d.setState(t.URL, StateRequesting)
	resp, err := d.Client.Do(req)
	if err != nil {
		if cancelled(ctx, t.Cancel) {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("requesting %s: %w", t.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return "", &StatusError{URL: t.URL, StatusCode: resp.StatusCode}
	}

	total := int64(-1)
	switch resp.StatusCode {
	case http.StatusPartialContent:
		start, full, ok := parseContentRange(resp.Header.Get("Content-Range"))
		switch {
		case !ok:
			if resp.ContentLength >= 0 {
				total = offset + resp.ContentLength
			}
		case start > offset:
			os.Remove(tmpPath)
			return "", fmt.Errorf("server resumed at byte %d, have %d", start, offset)
		default:
			offset = start
			total = full
		}
	case http.StatusOK:
		// Range not honoured: the body starts at byte 0.
		offset = 0
		if resp.ContentLength >= 0 {
			total = resp.ContentLength
		}
	}

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", &localError{fmt.Errorf("opening partial file: %w", err)}
	}
	if err := f.Truncate(offset); err != nil {
		f.Close()
		return "", &localError{fmt.Errorf("truncating partial file: %w", err)}
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		f.Close()
		return "", &localError{fmt.Errorf("seeking partial file: %w", err)}
	}

	d.setState(t.URL, StateStreaming)
	written, err := d.stream(ctx, t, resp.Body, f, offset, total)
	closeErr := f.Close()
	if err != nil {
		return "", err
	}
	if closeErr != nil {
		return "", &localError{fmt.Errorf("closing partial file: %w", closeErr)}
	}
	if total >= 0 && written < total {
		return "", fmt.Errorf("short transfer: %d of %d bytes: %w", written, total, io.ErrUnexpectedEOF)
	}

	d.setState(t.URL, StateFinalizing)
	return finalize(tmpPath, finalPath)
}

func (d *Downloader) stream(ctx context.Context, t Transfer, body io.Reader, f *os.File, offset, total int64) (int64, error) {
	size := d.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}
	buf := make([]byte, size)
	written := offset

	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				return written, &localError{fmt.Errorf("writing partial file: %w", err)}
			}
			written += int64(n)
			if t.Progress != nil {
				t.Progress(written, total)
			}
		}
		if cancelled(ctx, t.Cancel) {
			return written, ErrCancelled
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, fmt.Errorf("reading body: %w", rerr)
		}
	}
}

// finalize moves the completed partial file into place. When the final name
// is too long for the filesystem the move is retried once under a shorter
// name.
func finalize(tmpPath, finalPath string) (string, error) {
	err := os.Rename(tmpPath, finalPath)
	if err == nil {
		return finalPath, nil
	}
	if errors.Is(err, syscall.ENAMETOOLONG) {
		short := filepath.Join(filepath.Dir(finalPath), ShortFallbackName(filepath.Base(finalPath)))
		if err := os.Rename(tmpPath, short); err == nil {
			return short, nil
		}
	}
	return "", &localError{fmt.Errorf("finalizing %s: %w", finalPath, err)}
}

func (d *Downloader) abort(url, tmpPath string) {
	os.Remove(tmpPath)
	d.setState(url, StateFailed)
}

func (d *Downloader) setState(url string, s State) {
	if d.OnState != nil {
		d.OnState(url, s)
	}
}

func cancelled(ctx context.Context, flag *atomic.Bool) bool {
	return ctx.Err() != nil || (flag != nil && flag.Load())
}

// parseContentRange returns the start offset and complete length from a
// Content-Range header. full is -1 when the length is "*".
func parseContentRange(v string) (start, full int64, ok bool) {
	m := contentRangePattern.FindStringSubmatch(v)
	if m == nil {
		return 0, 0, false
	}
	start, _ = strconv.ParseInt(m[1], 10, 64)
	full = -1
	if m[3] != "*" {
		full, _ = strconv.ParseInt(m[3], 10, 64)
	}
	return start, full, true
}

// lockName keeps lock files short regardless of the target name length.
func lockName(name string) string {
	sum := sha256.Sum256([]byte(name))
	return fmt.Sprintf("%x%s", sum[:8], LockSuffix)
}
