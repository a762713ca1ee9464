// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the catalog, parses result pages into catalog
// entries, and narrows them with local filters that are relaxed step by step
// when the exact combination matches nothing.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pdiddy/libgen-fetch/internal/events"
	"github.com/pdiddy/libgen-fetch/pkg/types"
)

// ErrRequestFailed reports that the remote search call itself failed. It is
// terminal for one smart search and is never retried with relaxed filters.
var ErrRequestFailed = errors.New("search request failed")

// Backend issues the remote search call for one catalog.
type Backend interface {
	Name() string
	Search(ctx context.Context, query Query) ([]types.CatalogEntry, error)
}

// Query holds the remote search parameters. Filtering is not part of the
// remote query; it happens locally.
type Query struct {
	Text      string
	Limit     int
	Columns   []string
	Objects   []string
	Topics    []string
	Order     string
	OrderMode string
	FileSuns  string
}

// NewQuery builds a Query for text using the scope settings in cfg.
func NewQuery(text string, cfg types.SearchConfig) Query {
	return Query{
		Text:      strings.TrimSpace(text),
		Limit:     cfg.Limit,
		Columns:   cfg.Columns,
		Objects:   cfg.Objects,
		Topics:    cfg.Topics,
		Order:     cfg.Order,
		OrderMode: cfg.OrderMode,
		FileSuns:  cfg.FileSuns,
	}
}

// IsEmpty reports whether the query contains no searchable text.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == ""
}

// MaxLevel is the most permissive relaxation level.
const MaxLevel = 3

// Level is one step of the relaxation ladder.
type Level struct {
	Number int
	Filter types.SearchFilter
}

// Levels precomputes the relaxation ladder for f: all filters, then without
// year bounds, then also without extension, then also without language.
// The author filter is kept on every level.
func Levels(f types.SearchFilter) []Level {
	noYear := f.WithoutYear()
	noExt := noYear.WithoutExtension()
	noLang := noExt.WithoutLanguage()
	return []Level{
		{Number: 0, Filter: f},
		{Number: 1, Filter: noYear},
		{Number: 2, Filter: noExt},
		{Number: 3, Filter: noLang},
	}
}

// Outcome describes a smart search run. RawCount distinguishes "the catalog
// returned nothing" from "results existed but were filtered away".
type Outcome struct {
	Entries  []types.CatalogEntry
	Level    int
	RawCount int
	Attempts int
}

// Searcher runs smart searches against one backend.
type Searcher struct {
	Backend Backend
	Events  *events.Emitter
}

// SmartSearch returns the entries of the first filter level that matches
// anything. See SmartSearchDetailed.
func (s *Searcher) SmartSearch(ctx context.Context, query Query, filter types.SearchFilter) ([]types.CatalogEntry, error) {
	out, err := s.SmartSearchDetailed(ctx, query, filter)
	return out.Entries, err
}

// SmartSearchDetailed issues the remote query once and applies the filter
// ladder until a level produces entries or the last level is reached. When
// the remote call fails the outcome is empty and the error wraps
// ErrRequestFailed.
func (s *Searcher) SmartSearchDetailed(ctx context.Context, query Query, filter types.SearchFilter) (Outcome, error) {
	if query.IsEmpty() {
		return Outcome{}, fmt.Errorf("query is empty: provide search text")
	}

	levels := Levels(filter)
	s.Events.Infof("searching %q (level 0) | %s", query.Text, levels[0].Filter)

	raw, err := s.Backend.Search(ctx, query)
	if err != nil {
		s.Events.Errorf("search request for %q failed: %v", query.Text, err)
		if !errors.Is(err, ErrRequestFailed) {
			err = fmt.Errorf("%w: %v", ErrRequestFailed, err)
		}
		return Outcome{Attempts: 1}, err
	}

	out := Outcome{RawCount: len(raw)}
	if len(raw) == 0 {
		out.Attempts = 1
		s.Events.Warnf("catalog returned no results for %q", query.Text)
		return out, nil
	}

	for _, lvl := range levels {
		if lvl.Number > 0 {
			s.Events.Infof("searching %q (level %d) | %s", query.Text, lvl.Number, lvl.Filter)
		}
		out.Attempts++
		out.Level = lvl.Number
		out.Entries = Filter(raw, lvl.Filter)
		if len(out.Entries) > 0 {
			break
		}
		if lvl.Number < MaxLevel {
			s.Events.Warnf("level %d matched none of %d results, relaxing filters", lvl.Number, len(raw))
		} else {
			s.Events.Warnf("no result for %q matched even the most relaxed filters", query.Text)
		}
	}
	return out, nil
}

// FormatTable writes entries as a human-readable table to w.
func FormatTable(entries []types.CatalogEntry, w io.Writer) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Title", "Author", "Year", "Lang", "Ext", "Size", "Mirrors"})
	for i, e := range entries {
		tw.AppendRow(table.Row{
			i, truncate(e.Title, 60), truncate(e.Author, 24), e.Year, e.Language, e.Extension, e.Size, len(e.Candidates()),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	tw.Render()
	fmt.Fprintf(w, "\n%d results\n", len(entries))
}

// FormatJSON writes entries as indented JSON to w.
func FormatJSON(entries []types.CatalogEntry, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if entries == nil {
		entries = []types.CatalogEntry{}
	}
	return enc.Encode(entries)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
