// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/libgen-fetch/pkg/types"
)

func TestQueryFileWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "go.yaml")
	year := 2015
	filter := types.SearchFilter{Extension: "pdf", YearMin: &year}
	query := NewQuery("  the go programming language ", types.SearchConfig{Limit: 50})
	out := Outcome{
		Entries: []types.CatalogEntry{{
			Title:     "The Go Programming Language",
			Author:    "Alan Donovan, Brian Kernighan",
			Year:      "2015",
			Extension: "pdf",
			MD5:       "0123456789abcdef0123456789abcdef",
			AdsURL:    "https://libgen.vg/ads.php?md5=0123456789abcdef0123456789abcdef",
			Mirrors:   []string{"https://mirror.example/main/0123456789abcdef0123456789abcdef"},
		}},
		Level:    1,
		RawCount: 4,
		Attempts: 2,
	}

	require.NoError(t, WriteQueryFile(path, query, "https://libgen.vg", filter, out))

	qf, err := ReadQueryFile(path)
	require.NoError(t, err)
	assert.Equal(t, "the go programming language", qf.Query.Text)
	assert.Equal(t, 50, qf.Query.Limit)
	assert.Equal(t, "https://libgen.vg", qf.Query.BaseURL)
	assert.Equal(t, "pdf", qf.Filter.Extension)
	require.NotNil(t, qf.Filter.YearMin)
	assert.Equal(t, 2015, *qf.Filter.YearMin)
	assert.Nil(t, qf.Filter.YearMax)
	assert.Equal(t, out.Entries, qf.Results)
	assert.Equal(t, 1, qf.Summary.Total)
	assert.Equal(t, 4, qf.Summary.RawCount)
	assert.Equal(t, 1, qf.Summary.Level)
	assert.Equal(t, 2, qf.Summary.Attempts)
	assert.False(t, qf.Summary.SavedAt.IsZero())
}

func TestReadQueryFileErrors(t *testing.T) {
	_, err := ReadQueryFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading query file")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("query: [unterminated"), 0o644))
	_, err = ReadQueryFile(bad)
	assert.ErrorContains(t, err, "parsing query file")
}
