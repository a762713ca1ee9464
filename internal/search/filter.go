// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/libgen-fetch/pkg/types"
)

// authorSeparators splits multi-author fields in exact-match mode.
// "Last, First" is split too; the rule is kept literal.
var authorSeparators = regexp.MustCompile(`[;,/&|]+`)

// Filter returns the entries matching f, preserving order. A dimension that
// cannot be evaluated for an entry (e.g. a non-numeric year while a bound is
// set) counts as a non-match.
func Filter(entries []types.CatalogEntry, f types.SearchFilter) []types.CatalogEntry {
	author := normalizeText(f.Author)

	var out []types.CatalogEntry
	for _, e := range entries {
		if f.Language != "" && !strings.EqualFold(strings.TrimSpace(e.Language), strings.TrimSpace(f.Language)) {
			continue
		}
		if f.Extension != "" && !strings.EqualFold(strings.TrimSpace(e.Extension), strings.TrimSpace(f.Extension)) {
			continue
		}
		if f.HasYear() && !yearInRange(e.Year, f.YearMin, f.YearMax) {
			continue
		}
		if author != "" && !authorMatches(e.Author, author, f.AuthorExact) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func yearInRange(year string, lo, hi *int) bool {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return false
	}
	if lo != nil && y < *lo {
		return false
	}
	if hi != nil && y > *hi {
		return false
	}
	return true
}

// authorMatches compares an already-normalized query against the entry field.
func authorMatches(field, query string, exact bool) bool {
	field = normalizeText(field)
	if field == "" {
		return false
	}
	if !exact {
		return strings.Contains(field, query)
	}
	for _, part := range authorSeparators.Split(field, -1) {
		if strings.TrimSpace(part) == query {
			return true
		}
	}
	return false
}

// normalizeText lowercases s and collapses runs of whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
