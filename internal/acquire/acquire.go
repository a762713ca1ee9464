// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire turns catalog entries into validated files on disk. For
// each entry it walks the mirror candidates in order: resolve the entry page
// to a transfer URL, stream the file with resume and retry, then check the
// result. Batches run on a bounded worker pool.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/pdiddy/libgen-fetch/internal/events"
	"github.com/pdiddy/libgen-fetch/internal/httputil"
	"github.com/pdiddy/libgen-fetch/internal/search"
	"github.com/pdiddy/libgen-fetch/pkg/types"
)

const (
	defaultMaxEntryURLs       = 5
	defaultMaxFallbackResults = 3
	defaultConcurrency        = 2
)

// History remembers completed acquisitions by content hash.
type History interface {
	Fetched(ctx context.Context, md5 string) (*types.AcquisitionRecord, bool, error)
	Record(ctx context.Context, rec types.AcquisitionRecord) error
}

// Options override the acquisition config for one call. Zero fields fall
// back to the Acquirer's config.
type Options struct {
	MaxEntryURLs int
	MaxRetries   int
	Progress     events.ProgressFunc
	Cancel       *atomic.Bool
}

// Result describes one acquisition.
type Result struct {
	Token       string
	Entry       types.CatalogEntry
	Path        string
	SourceURL   string
	TransferURL string
	Size        int64

	// Skipped is set when history showed the file was already on disk.
	Skipped bool

	// Attempts counts the mirror candidates tried.
	Attempts int
}

// Acquirer drives the resolve, transfer and validate steps.
type Acquirer struct {
	Resolver   *Resolver
	Downloader *Downloader
	Config     types.AcquisitionConfig

	// Searcher and SearchConfig serve deferred tasks.
	Searcher     *search.Searcher
	SearchConfig types.SearchConfig

	// History, when set, skips content already fetched and records new files.
	History History

	Events *events.Emitter
}

// NewAcquirer wires a Resolver and Downloader around a shared client.
func NewAcquirer(client *httputil.Client, cfg types.AcquisitionConfig, ev *events.Emitter) *Acquirer {
	return &Acquirer{
		Resolver:   &Resolver{Client: client},
		Downloader: &Downloader{Client: client, ChunkSize: cfg.ChunkSize},
		Config:     cfg,
		Events:     ev,
	}
}

// AcquireEntry fetches one entry, trying its candidates in order until one
// transfers and validates. Cancellation returns ErrCancelled at once; when
// every candidate fails the error is an *ExhaustedError carrying the last
// failure.
func (a *Acquirer) AcquireEntry(ctx context.Context, entry types.CatalogEntry, nc types.NamingContext, opts Options) (Result, error) {
	res := Result{Entry: entry}
	opts = a.withDefaults(opts)

	if rec, ok := a.alreadyFetched(ctx, entry); ok {
		a.Events.Infof("skipped: %s (already fetched to %s)", entry.Label(), rec.Path)
		res.Path = rec.Path
		res.Size = rec.Size
		res.Skipped = true
		return res, nil
	}

	candidates := entry.Candidates()
	if len(candidates) == 0 {
		return res, ErrNoCandidates
	}
	if len(candidates) > opts.MaxEntryURLs {
		candidates = candidates[:opts.MaxEntryURLs]
	}

	filename := BuildFilename(entry, nc)
	a.Events.Infof("target file name: %s", filename)

	var last error
	for i, entryURL := range candidates {
		if cancelled(ctx, opts.Cancel) {
			return res, ErrCancelled
		}
		res.Attempts = i + 1
		a.Events.Infof("trying entry %d/%d: %s", i+1, len(candidates), entryURL)

		link, err := a.Resolver.Resolve(ctx, entryURL)
		if err != nil {
			if cancelled(ctx, opts.Cancel) {
				return res, ErrCancelled
			}
			a.Events.Warnf("resolving %s failed: %v", entryURL, err)
			last = err
			continue
		}
		a.Events.Infof("transfer link: %s", link)

		path, err := a.Downloader.Download(ctx, Transfer{
			URL:        link,
			OutDir:     a.Config.OutDir,
			StagingDir: a.Config.StagingDir,
			Filename:   filename,
			MaxRetries: opts.MaxRetries,
			Progress:   opts.Progress,
			Cancel:     opts.Cancel,
		})
		if errors.Is(err, ErrCancelled) {
			a.Events.Warnf("cancelled: %s", entry.Label())
			return res, ErrCancelled
		}
		if err != nil {
			a.Events.Errorf("download via %s failed: %v", entryURL, err)
			last = err
			continue
		}

		if err := Validate(path, entry.Extension, a.Config.MinFileSize); err != nil {
			os.Remove(path)
			a.Events.Warnf("%v; trying next mirror", err)
			last = err
			continue
		}

		res.Path = path
		res.SourceURL = entryURL
		res.TransferURL = link
		if fi, err := os.Stat(path); err == nil {
			res.Size = fi.Size()
		}
		a.Events.Successf("downloaded %s via %s", path, entryURL)
		a.record(ctx, res)
		return res, nil
	}

	return res, &ExhaustedError{Entry: entry, Attempts: len(candidates), Last: last}
}

// AcquireTask runs one task. A deferred task is searched first and up to
// MaxFallbackResults of its results are tried, the preferred index first.
// The query doubles as the naming fallback for untitled entries.
func (a *Acquirer) AcquireTask(ctx context.Context, task types.DownloadTask, opts Options) (Result, error) {
	if !task.IsDeferred() {
		res, err := a.AcquireEntry(ctx, *task.Entry, types.NamingContext{FallbackTitle: task.Query}, opts)
		res.Token = task.Token
		return res, err
	}

	res := Result{Token: task.Token}
	if a.Searcher == nil {
		return res, fmt.Errorf("task %s needs a search but no searcher is configured", task.Token)
	}

	entries, err := a.Searcher.SmartSearch(ctx, search.NewQuery(task.Query, a.SearchConfig), task.Filter)
	if err != nil {
		return res, err
	}
	if len(entries) == 0 {
		a.Events.Warnf("%q: no matching results", task.Query)
		return res, fmt.Errorf("%q: %w", task.Query, ErrNoResults)
	}

	res, err = a.AcquireResults(ctx, task.Query, entries, opts)
	res.Token = task.Token
	return res, err
}

// AcquireResults tries up to MaxFallbackResults of entries, the preferred
// index first, and returns the first success. query names untitled entries.
func (a *Acquirer) AcquireResults(ctx context.Context, query string, entries []types.CatalogEntry, opts Options) (Result, error) {
	if len(entries) == 0 {
		return Result{}, fmt.Errorf("%q: %w", query, ErrNoResults)
	}
	nc := types.NamingContext{FallbackTitle: query}

	var (
		res  Result
		last error
	)
	order := fallbackOrder(len(entries), a.Config.PreferredIndex, a.Config.MaxFallbackResults)
	for pos, idx := range order {
		a.Events.Infof("trying result %d/%d: %s", pos+1, len(order), entries[idx].Label())
		var err error
		res, err = a.AcquireEntry(ctx, entries[idx], nc, opts)
		if err == nil {
			return res, nil
		}
		if errors.Is(err, ErrCancelled) {
			return res, err
		}
		a.Events.Errorf("result %d failed: %v", idx, err)
		last = err
	}
	return res, last
}

// TaskResult is the outcome of one task in a batch.
type TaskResult struct {
	Task   types.DownloadTask
	Result Result
	Err    error
}

// BatchResult holds the outcome of a batch run, keyed by task token.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Cancelled  int
	Results    map[string]TaskResult
	Elapsed    time.Duration
}

// Total returns the number of tasks processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed + r.Cancelled
}

// HasFailures reports whether any task failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// AcquireBatch runs tasks on a pool of Config.Concurrency workers. Each task
// is owned by exactly one worker; failures do not stop the batch.
func (a *Acquirer) AcquireBatch(ctx context.Context, tasks []types.DownloadTask) BatchResult {
	start := time.Now()
	workers := a.Config.Concurrency
	if workers <= 0 {
		workers = defaultConcurrency
	}

	p := pool.NewWithResults[TaskResult]().WithMaxGoroutines(workers)
	for _, task := range tasks {
		p.Go(func() TaskResult {
			if ctx.Err() != nil {
				return TaskResult{Task: task, Err: ErrCancelled}
			}
			res, err := a.AcquireTask(ctx, task, Options{})
			return TaskResult{Task: task, Result: res, Err: err}
		})
	}

	out := BatchResult{Results: make(map[string]TaskResult, len(tasks))}
	for _, tr := range p.Wait() {
		out.Results[tr.Task.Token] = tr
		switch {
		case errors.Is(tr.Err, ErrCancelled):
			out.Cancelled++
		case tr.Err != nil:
			out.Failed++
		case tr.Result.Skipped:
			out.Skipped++
		default:
			out.Downloaded++
		}
	}
	out.Elapsed = time.Since(start)

	a.Events.Infof("batch summary: %d downloaded, %d skipped, %d failed, %d cancelled (total: %d)",
		out.Downloaded, out.Skipped, out.Failed, out.Cancelled, out.Total())
	return out
}

// fallbackOrder lists the result indices to try: preferred first (0 when
// out of range), then the rest in order, capped at max.
func fallbackOrder(n, preferred, max int) []int {
	if n == 0 {
		return nil
	}
	if max <= 0 {
		max = defaultMaxFallbackResults
	}
	if preferred < 0 || preferred >= n {
		preferred = 0
	}
	order := []int{preferred}
	for i := 0; i < n && len(order) < max; i++ {
		if i != preferred {
			order = append(order, i)
		}
	}
	return order
}

func (a *Acquirer) withDefaults(opts Options) Options {
	if opts.MaxEntryURLs <= 0 {
		opts.MaxEntryURLs = a.Config.MaxEntryURLs
	}
	if opts.MaxEntryURLs <= 0 {
		opts.MaxEntryURLs = defaultMaxEntryURLs
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = a.Config.MaxRetries
	}
	return opts
}

func (a *Acquirer) alreadyFetched(ctx context.Context, entry types.CatalogEntry) (*types.AcquisitionRecord, bool) {
	if a.History == nil || entry.MD5 == "" {
		return nil, false
	}
	rec, ok, err := a.History.Fetched(ctx, entry.MD5)
	if err != nil {
		a.Events.Warnf("history lookup failed: %v", err)
		return nil, false
	}
	return rec, ok
}

func (a *Acquirer) record(ctx context.Context, res Result) {
	if a.History == nil {
		return
	}
	err := a.History.Record(ctx, types.AcquisitionRecord{
		MD5:         res.Entry.MD5,
		Path:        res.Path,
		SourceURL:   res.SourceURL,
		TransferURL: res.TransferURL,
		Title:       res.Entry.Title,
		Extension:   res.Entry.Extension,
		Size:        res.Size,
		FetchedAt:   time.Now(),
	})
	if err != nil {
		a.Events.Warnf("recording history for %s failed: %v", res.Path, err)
	}
}
