// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"errors"
	"fmt"

	"github.com/pdiddy/libgen-fetch/pkg/types"
)

var (
	// ErrNoTransferLink means an entry page was fetched but no transfer
	// link could be found on it.
	ErrNoTransferLink = errors.New("no transfer link found")

	// ErrNoCandidates means the entry has neither an entry URL nor mirrors.
	ErrNoCandidates = errors.New("entry has no candidate URLs")

	// ErrValidation means a completed file failed the size or signature check.
	ErrValidation = errors.New("file failed validation")

	// ErrCancelled means the caller cancelled the transfer. Partial artifacts
	// are removed and no fallback is attempted.
	ErrCancelled = errors.New("transfer cancelled")

	// ErrNoResults means a deferred task's search produced nothing to fetch.
	ErrNoResults = errors.New("search produced no results")
)

// ResolveError reports that an entry page could not be fetched.
type ResolveError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ResolveError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("resolving %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("resolving %s: %v", e.URL, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// StatusError is a terminal HTTP status returned by a transfer URL.
// Statuses 400-499 are never retried.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500
}

// TransferError reports a transfer that failed after exhausting its attempts.
type TransferError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// ExhaustedError reports that every candidate of an entry failed.
type ExhaustedError struct {
	Entry    types.CatalogEntry
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d candidate(s) failed for %s: %v", e.Attempts, e.Entry.Label(), e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }
