// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/libgen-fetch/pkg/types"
)

// QueryFile is the on-disk representation of a search and its results.
// A saved search can be reloaded by fetch without querying the catalog again.
type QueryFile struct {
	Query   QueryParams          `yaml:"query"`
	Filter  types.SearchFilter   `yaml:"filter"`
	Results []types.CatalogEntry `yaml:"results"`
	Summary QuerySummary         `yaml:"summary"`
}

// QueryParams stores the query parameters in a serializable form.
type QueryParams struct {
	Text    string `yaml:"text"`
	Limit   int    `yaml:"limit,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total    int       `yaml:"total"`
	RawCount int       `yaml:"raw_count"`
	Level    int       `yaml:"level"`
	Attempts int       `yaml:"attempts"`
	SavedAt  time.Time `yaml:"saved_at"`
}

// WriteQueryFile saves the query, its filter, and the smart search outcome
// to a YAML file.
func WriteQueryFile(path string, query Query, baseURL string, filter types.SearchFilter, out Outcome) error {
	qf := QueryFile{
		Query: QueryParams{
			Text:    query.Text,
			Limit:   query.Limit,
			BaseURL: baseURL,
		},
		Filter:  filter,
		Results: out.Entries,
		Summary: QuerySummary{
			Total:    len(out.Entries),
			RawCount: out.RawCount,
			Level:    out.Level,
			Attempts: out.Attempts,
			SavedAt:  time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}
