// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the libgen-fetch pipeline:
// catalog entries produced by search, the filters applied to them, the tasks
// handed to acquisition, and per-stage configuration.
package types

import (
	"fmt"
	"strings"
)

// CatalogEntry represents one work/file row parsed from a catalog results page.
// Entries are created by the result parser and never mutated afterwards.
type CatalogEntry struct {
	// Title is the work title with any trailing ISBN list removed. May be empty.
	Title string `json:"title" yaml:"title"`

	// Author is the raw author cell text, possibly listing several authors.
	Author string `json:"author" yaml:"author"`

	Publisher string `json:"publisher" yaml:"publisher"`

	// Year is the year cell text. It is not guaranteed to be numeric.
	Year string `json:"year" yaml:"year"`

	Language string `json:"language" yaml:"language"`

	Pages string `json:"pages" yaml:"pages"`

	// Size is the human-readable size label (e.g. "4 MB").
	Size string `json:"size" yaml:"size"`

	// Extension is the file extension without a leading dot (e.g. "pdf").
	Extension string `json:"extension" yaml:"extension"`

	// FileID is the catalog's internal file identifier, when the size cell links to it.
	FileID string `json:"file_id,omitempty" yaml:"file_id,omitempty"`

	// EditionID and EditionURL identify the edition page linked from the title cell.
	EditionID  string `json:"edition_id,omitempty" yaml:"edition_id,omitempty"`
	EditionURL string `json:"edition_url,omitempty" yaml:"edition_url,omitempty"`

	// MD5 is the 32-character content hash, when one could be extracted.
	MD5 string `json:"md5,omitempty" yaml:"md5,omitempty"`

	// AdsURL is the primary entry page. It is not required to appear in Mirrors.
	AdsURL string `json:"ads_url,omitempty" yaml:"ads_url,omitempty"`

	// Mirrors lists alternate entry pages in document order, without duplicates.
	Mirrors []string `json:"mirrors" yaml:"mirrors"`
}

// Candidates returns the entry pages to try, primary entry URL first, then
// mirrors, with duplicates removed.
func (e CatalogEntry) Candidates() []string {
	var out []string
	seen := make(map[string]struct{}, len(e.Mirrors)+1)
	add := func(u string) {
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	add(e.AdsURL)
	for _, m := range e.Mirrors {
		add(m)
	}
	return out
}

// Label returns a short human-readable description used in log lines.
func (e CatalogEntry) Label() string {
	switch {
	case e.Title != "":
		return e.Title
	case e.MD5 != "":
		return "md5:" + e.MD5
	default:
		return "(untitled)"
	}
}

// SearchFilter holds the local post-filters applied to parsed entries.
// It is a value type; the relaxation helpers return modified copies.
type SearchFilter struct {
	// Language matches the entry language exactly, ignoring case.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// Extension matches the entry extension exactly, ignoring case.
	Extension string `json:"extension,omitempty" yaml:"extension,omitempty"`

	// YearMin and YearMax are inclusive bounds. Nil means unbounded.
	YearMin *int `json:"year_min,omitempty" yaml:"year_min,omitempty"`
	YearMax *int `json:"year_max,omitempty" yaml:"year_max,omitempty"`

	// Author is matched as a substring, or as an exact token when AuthorExact is set.
	Author      string `json:"author,omitempty" yaml:"author,omitempty"`
	AuthorExact bool   `json:"author_exact,omitempty" yaml:"author_exact,omitempty"`
}

// IsZero reports whether no filter dimension is set.
func (f SearchFilter) IsZero() bool {
	return f.Language == "" && f.Extension == "" && f.YearMin == nil && f.YearMax == nil &&
		strings.TrimSpace(f.Author) == ""
}

// HasYear reports whether either year bound is set.
func (f SearchFilter) HasYear() bool {
	return f.YearMin != nil || f.YearMax != nil
}

// WithoutYear returns a copy with both year bounds cleared.
func (f SearchFilter) WithoutYear() SearchFilter {
	f.YearMin, f.YearMax = nil, nil
	return f
}

// WithoutExtension returns a copy with the extension filter cleared.
func (f SearchFilter) WithoutExtension() SearchFilter {
	f.Extension = ""
	return f
}

// WithoutLanguage returns a copy with the language filter cleared.
func (f SearchFilter) WithoutLanguage() SearchFilter {
	f.Language = ""
	return f
}

// String renders the active filter values for log lines.
func (f SearchFilter) String() string {
	year := func(p *int) string {
		if p == nil {
			return "-"
		}
		return fmt.Sprintf("%d", *p)
	}
	orDash := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	mode := "contains"
	if f.AuthorExact {
		mode = "exact"
	}
	return fmt.Sprintf("language=%s ext=%s year=%s..%s author=%s (%s)",
		orDash(f.Language), orDash(f.Extension), year(f.YearMin), year(f.YearMax), orDash(f.Author), mode)
}

// IntPtr returns a pointer to v. Convenience for building year bounds.
func IntPtr(v int) *int {
	return &v
}
