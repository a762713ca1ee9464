// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch turns tabular input into download tasks. Each CSV row names
// a query and, optionally, the filters to search it with; the header row maps
// column names to those roles.
package batch

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pdiddy/libgen-fetch/pkg/types"
)

// Default column names for the query and extension roles.
const (
	DefaultQueryColumn     = "书名"
	DefaultExtensionColumn = "类型"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrMissingColumn is returned when a mapped column is absent from the header.
var ErrMissingColumn = errors.New("column not found in header")

// Columns maps task fields to CSV header names. Empty names are not read,
// except Query which is required.
type Columns struct {
	Query     string
	Language  string
	Extension string
	YearMin   string
	YearMax   string
	Author    string
}

// DefaultColumns returns the stock mapping: query from 书名 and extension
// from 类型.
func DefaultColumns() Columns {
	return Columns{Query: DefaultQueryColumn, Extension: DefaultExtensionColumn}
}

// Batch is the result of reading one CSV file.
type Batch struct {
	Tasks []types.DownloadTask

	// Skipped lists the 1-based line numbers of rows without a query.
	Skipped []int
}

// ReadFile reads the CSV file at path.
func ReadFile(path string, cols Columns) (Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return Batch{}, fmt.Errorf("opening batch file: %w", err)
	}
	defer f.Close()
	return Read(f, cols)
}

// Read parses CSV from r into deferred tasks. A leading byte-order mark is
// ignored and year cells that are not integers leave that bound unset. The
// default extension column may be absent; every other mapped column must be
// in the header.
func Read(r io.Reader, cols Columns) (Batch, error) {
	if strings.TrimSpace(cols.Query) == "" {
		return Batch{}, fmt.Errorf("query column: %w", ErrMissingColumn)
	}

	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Batch{}, nil
	}
	if err != nil {
		return Batch{}, fmt.Errorf("reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}

	lookup := func(role, name string, required bool) (int, error) {
		if name == "" {
			return -1, nil
		}
		i, ok := idx[name]
		if !ok {
			if required {
				return -1, fmt.Errorf("%s column %q: %w", role, name, ErrMissingColumn)
			}
			return -1, nil
		}
		return i, nil
	}

	var m mapping
	if m.query, err = lookup("query", cols.Query, true); err != nil {
		return Batch{}, err
	}
	if m.extension, err = lookup("extension", cols.Extension, cols.Extension != DefaultExtensionColumn); err != nil {
		return Batch{}, err
	}
	if m.language, err = lookup("language", cols.Language, true); err != nil {
		return Batch{}, err
	}
	if m.yearMin, err = lookup("year-min", cols.YearMin, true); err != nil {
		return Batch{}, err
	}
	if m.yearMax, err = lookup("year-max", cols.YearMax, true); err != nil {
		return Batch{}, err
	}
	if m.author, err = lookup("author", cols.Author, true); err != nil {
		return Batch{}, err
	}

	var b Batch
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return b, fmt.Errorf("reading batch: %w", err)
		}
		line, _ := cr.FieldPos(0)

		query := m.cell(rec, m.query)
		if query == "" {
			b.Skipped = append(b.Skipped, line)
			continue
		}
		b.Tasks = append(b.Tasks, types.NewQueryTask(query, m.filter(rec)))
	}
	return b, nil
}

type mapping struct {
	query, language, extension, yearMin, yearMax, author int
}

func (m mapping) cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (m mapping) filter(rec []string) types.SearchFilter {
	return types.SearchFilter{
		Language:  m.cell(rec, m.language),
		Extension: strings.TrimPrefix(m.cell(rec, m.extension), "."),
		YearMin:   year(m.cell(rec, m.yearMin)),
		YearMax:   year(m.cell(rec, m.yearMax)),
		Author:    m.cell(rec, m.author),
	}
}

func year(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
