// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/libgen-fetch/pkg/types"
)

func sampleEntries() []types.CatalogEntry {
	return []types.CatalogEntry{
		{Title: "A", Author: "Alan A. A. Donovan; Brian W. Kernighan", Year: "2015", Language: "English", Extension: "pdf"},
		{Title: "B", Author: "Katherine Cox-Buday", Year: "2017", Language: "english", Extension: "EPUB"},
		{Title: "C", Author: "Jon Bodner", Year: "2021", Language: "Russian", Extension: "pdf"},
		{Title: "D", Author: "", Year: "", Language: "English", Extension: "djvu"},
		{Title: "E", Author: "Rob  Pike", Year: "1999-2001", Language: "English", Extension: "pdf"},
	}
}

func titles(entries []types.CatalogEntry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Title)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter types.SearchFilter
		want   []string
	}{
		{"zero filter keeps all", types.SearchFilter{}, []string{"A", "B", "C", "D", "E"}},
		{"language ignores case", types.SearchFilter{Language: "ENGLISH"}, []string{"A", "B", "D", "E"}},
		{"extension ignores case", types.SearchFilter{Extension: "epub"}, []string{"B"}},
		{"year min", types.SearchFilter{YearMin: types.IntPtr(2017)}, []string{"B", "C"}},
		{"year max", types.SearchFilter{YearMax: types.IntPtr(2016)}, []string{"A"}},
		{"year range inclusive", types.SearchFilter{YearMin: types.IntPtr(2015), YearMax: types.IntPtr(2017)}, []string{"A", "B"}},
		{"author substring", types.SearchFilter{Author: "kernighan"}, []string{"A"}},
		{"author whitespace normalized", types.SearchFilter{Author: "rob pike"}, []string{"E"}},
		{"author exact token", types.SearchFilter{Author: "brian w. kernighan", AuthorExact: true}, []string{"A"}},
		{"author exact rejects partial", types.SearchFilter{Author: "kernighan", AuthorExact: true}, nil},
		{"combined", types.SearchFilter{Language: "english", Extension: "pdf", YearMin: types.IntPtr(2000)}, []string{"A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(sampleEntries(), tt.filter)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestFilterNonNumericYearFailsBound(t *testing.T) {
	entries := []types.CatalogEntry{{Title: "X", Year: "n.d."}, {Title: "Y", Year: " 2020 "}}
	got := Filter(entries, types.SearchFilter{YearMin: types.IntPtr(1900)})
	assert.Equal(t, []string{"Y"}, titles(got))
}

func TestFilterIdempotent(t *testing.T) {
	f := types.SearchFilter{Language: "English", YearMin: types.IntPtr(2000), Author: "o"}
	once := Filter(sampleEntries(), f)
	twice := Filter(once, f)
	assert.Equal(t, once, twice)
}

func TestFilterSubsetPreservesOrder(t *testing.T) {
	all := sampleEntries()
	got := Filter(all, types.SearchFilter{Extension: "pdf"})

	j := 0
	for _, g := range got {
		for j < len(all) && all[j].Title != g.Title {
			j++
		}
		if !assert.Less(t, j, len(all), "entry %s out of order or not from input", g.Title) {
			return
		}
		j++
	}
}

func TestFilterEmptyInput(t *testing.T) {
	assert.Empty(t, Filter(nil, types.SearchFilter{Language: "English"}))
}
