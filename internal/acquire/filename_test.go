// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/libgen-fetch/pkg/types"
)

func TestBuildFilename(t *testing.T) {
	tests := []struct {
		name  string
		entry types.CatalogEntry
		nc    types.NamingContext
		want  string
	}{
		{
			name: "all fields",
			entry: types.CatalogEntry{
				Title: "Go in Action", Author: "Kennedy", Publisher: "Manning",
				Year: "2015", Language: "English", Pages: "264", Extension: "pdf",
			},
			want: "Go in Action-Kennedy-Manning-2015-English-264.pdf",
		},
		{
			name:  "empty fields skipped",
			entry: types.CatalogEntry{Title: "Title", Year: "2001", Extension: "epub"},
			want:  "Title-2001.epub",
		},
		{
			name:  "fallback title",
			entry: types.CatalogEntry{Author: "Someone", Extension: "pdf"},
			nc:    types.NamingContext{FallbackTitle: "my query"},
			want:  "my query-Someone.pdf",
		},
		{
			name:  "hash when nothing else",
			entry: types.CatalogEntry{MD5: "0123456789abcdef0123456789abcdef"},
			want:  "0123456789abcdef0123456789abcdef.bin",
		},
		{
			name:  "literal download",
			entry: types.CatalogEntry{Extension: ".djvu"},
			want:  "download.djvu",
		},
		{
			name:  "reserved characters removed",
			entry: types.CatalogEntry{Title: `What? A/B: "C" <D> |E|*`, Extension: "pdf"},
			want:  "What AB C D E.pdf",
		},
		{
			name:  "long aside stripped",
			entry: types.CatalogEntry{Title: "Systems (A Very Long Promotional Subtitle Here)", Extension: "pdf"},
			want:  "Systems.pdf",
		},
		{
			name:  "short aside kept",
			entry: types.CatalogEntry{Title: "Systems (2nd ed.)", Extension: "pdf"},
			want:  "Systems (2nd ed.).pdf",
		},
		{
			name:  "whitespace collapsed",
			entry: types.CatalogEntry{Title: "  A \n  B  ", Author: "C\tD", Extension: "pdf"},
			want:  "A B-C D.pdf",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildFilename(tt.entry, tt.nc))
		})
	}
}

func TestBuildFilenameFieldCaps(t *testing.T) {
	e := types.CatalogEntry{
		Title:     strings.Repeat("T", 100),
		Author:    strings.Repeat("a", 40),
		Extension: "pdf",
	}
	want := strings.Repeat("T", 80) + "...-" + strings.Repeat("a", 30) + "....pdf"
	assert.Equal(t, want, BuildFilename(e, types.NamingContext{}))
}

func TestBuildFilenameBounded(t *testing.T) {
	e := types.CatalogEntry{
		Title:     strings.Repeat("A", 500),
		Author:    strings.Repeat("B", 500),
		Publisher: strings.Repeat("C", 500),
		Year:      strings.Repeat("9", 200),
		Language:  strings.Repeat("L", 200),
		Pages:     strings.Repeat("1", 200),
		Extension: "pdf",
	}
	got := BuildFilename(e, types.NamingContext{})
	assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxFilenameLength)
	assert.True(t, strings.HasSuffix(got, ".pdf"))
	assert.True(t, strings.HasPrefix(got, strings.Repeat("A", 80)+"..."))
}

func TestBuildFilenameDoesNotModifyEntry(t *testing.T) {
	e := types.CatalogEntry{Extension: "pdf"}
	BuildFilename(e, types.NamingContext{FallbackTitle: "query"})
	assert.Empty(t, e.Title)
}

func TestCleanFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"plain", "book.pdf", 150, "book.pdf"},
		{"control chars", "bo\x00o\x1fk.pdf", 150, "book.pdf"},
		{"empty", "  ", 150, "download"},
		{"only reserved", `<>:"/\|?*`, 150, "download"},
		{"trim stem keep ext", "abcdefghij.pdf", 8, "abcd.pdf"},
		{"extension longer than cap", "a." + strings.Repeat("x", 20), 10, "a.xxxxxxxx"},
		{"compatibility decomposition", "ﬁle.pdf", 150, "file.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanFilename(tt.in, tt.max))
		})
	}
}

func TestCleanFilenameCountsCharacters(t *testing.T) {
	name := strings.Repeat("书", 200) + ".pdf"
	got := CleanFilename(name, MaxFilenameLength)
	assert.Equal(t, MaxFilenameLength, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, ".pdf"))
}

func TestShortFallbackName(t *testing.T) {
	assert.Equal(t, strings.Repeat("x", 80)+".epub", ShortFallbackName(strings.Repeat("x", 120)+".epub"))
	assert.Equal(t, "name.bin", ShortFallbackName("name"))
	assert.Equal(t, "download.pdf", ShortFallbackName("   .pdf"))
}
