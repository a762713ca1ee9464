// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/libgen-fetch/pkg/types"
)

func TestReadDefaultColumns(t *testing.T) {
	input := "\xEF\xBB\xBF书名,类型,备注\n" +
		"三体,pdf,sci-fi\n" +
		",epub,no title\n" +
		"\"Go, in Action\",.EPUB,\n"

	b, err := Read(strings.NewReader(input), DefaultColumns())
	require.NoError(t, err)
	require.Len(t, b.Tasks, 2)
	assert.Equal(t, []int{3}, b.Skipped)

	first := b.Tasks[0]
	assert.True(t, first.IsDeferred())
	assert.NotEmpty(t, first.Token)
	assert.Equal(t, "三体", first.Query)
	assert.Equal(t, "pdf", first.Filter.Extension)

	assert.Equal(t, "Go, in Action", b.Tasks[1].Query)
	assert.Equal(t, "EPUB", b.Tasks[1].Filter.Extension)
	assert.NotEqual(t, first.Token, b.Tasks[1].Token)
}

func TestReadMappedColumns(t *testing.T) {
	input := "title,lang,from,to,who\n" +
		"Dune,English,1960,1970,Herbert\n" +
		"Solaris,Polish,unknown,,Lem\n"

	cols := Columns{Query: "title", Language: "lang", YearMin: "from", YearMax: "to", Author: "who"}
	b, err := Read(strings.NewReader(input), cols)
	require.NoError(t, err)
	require.Len(t, b.Tasks, 2)

	assert.Equal(t, types.SearchFilter{
		Language: "English",
		YearMin:  types.IntPtr(1960),
		YearMax:  types.IntPtr(1970),
		Author:   "Herbert",
	}, b.Tasks[0].Filter)

	f := b.Tasks[1].Filter
	assert.Nil(t, f.YearMin, "non-numeric year leaves the bound unset")
	assert.Nil(t, f.YearMax)
	assert.Equal(t, "Polish", f.Language)
}

func TestReadDefaultExtensionColumnOptional(t *testing.T) {
	b, err := Read(strings.NewReader("书名\nA\n"), DefaultColumns())
	require.NoError(t, err)
	require.Len(t, b.Tasks, 1)
	assert.Empty(t, b.Tasks[0].Filter.Extension)
}

func TestReadMissingColumn(t *testing.T) {
	tests := []struct {
		name string
		cols Columns
	}{
		{"query", Columns{Query: "title"}},
		{"language", Columns{Query: "书名", Language: "lang"}},
		{"custom extension", Columns{Query: "书名", Extension: "format"}},
		{"empty query mapping", Columns{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader("书名,类型\nA,pdf\n"), tt.cols)
			assert.ErrorIs(t, err, ErrMissingColumn)
		})
	}
}

func TestReadShortRows(t *testing.T) {
	b, err := Read(strings.NewReader("书名,类型\nA\nB,mobi\n"), DefaultColumns())
	require.NoError(t, err)
	require.Len(t, b.Tasks, 2)
	assert.Empty(t, b.Tasks[0].Filter.Extension)
	assert.Equal(t, "mobi", b.Tasks[1].Filter.Extension)
}

func TestReadEmptyInput(t *testing.T) {
	b, err := Read(strings.NewReader(""), DefaultColumns())
	require.NoError(t, err)
	assert.Empty(t, b.Tasks)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.csv")
	require.NoError(t, os.WriteFile(path, []byte("书名,类型\nA,pdf\n"), 0o644))

	b, err := ReadFile(path, DefaultColumns())
	require.NoError(t, err)
	assert.Len(t, b.Tasks, 1)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"), DefaultColumns())
	assert.Error(t, err)
}
