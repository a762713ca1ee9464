// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"time"

	"github.com/google/uuid"
)

// DownloadTask is one unit of acquisition work. It carries either a resolved
// CatalogEntry or a deferred query that is searched when the task runs.
// Ownership transfers to the worker that executes it; tasks are never shared.
type DownloadTask struct {
	// Token is an opaque caller-assigned correlation identifier.
	Token string `json:"token" yaml:"token"`

	// Entry is set for tasks whose catalog entry was already chosen.
	Entry *CatalogEntry `json:"entry,omitempty" yaml:"entry,omitempty"`

	// Query and Filter describe a deferred task, resolved by searching first.
	Query  string       `json:"query,omitempty" yaml:"query,omitempty"`
	Filter SearchFilter `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// NewEntryTask returns a task for an already chosen entry. The query, when
// non-empty, is kept as the naming fallback for untitled entries.
func NewEntryTask(entry CatalogEntry, query string) DownloadTask {
	return DownloadTask{Token: uuid.NewString(), Entry: &entry, Query: query}
}

// NewQueryTask returns a deferred task that searches for query with filter.
func NewQueryTask(query string, filter SearchFilter) DownloadTask {
	return DownloadTask{Token: uuid.NewString(), Query: query, Filter: filter}
}

// IsDeferred reports whether the task still needs a search to pick its entry.
func (t DownloadTask) IsDeferred() bool {
	return t.Entry == nil
}

// NamingContext carries naming-only hints into filename construction. It
// replaces annotating the parsed entry in place.
type NamingContext struct {
	// FallbackTitle is the original search query, used only when the entry has no title.
	FallbackTitle string
}

// AcquisitionRecord describes a file that was fetched and validated.
type AcquisitionRecord struct {
	// MD5 is the content hash of the catalog entry, when known.
	MD5 string `json:"md5,omitempty" yaml:"md5,omitempty"`

	// Path is the final on-disk location.
	Path string `json:"path" yaml:"path"`

	// SourceURL is the entry page that produced the transfer URL.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// TransferURL is the URL the file bytes were streamed from.
	TransferURL string `json:"transfer_url" yaml:"transfer_url"`

	Title     string    `json:"title" yaml:"title"`
	Extension string    `json:"extension" yaml:"extension"`
	Size      int64     `json:"size" yaml:"size"`
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}
