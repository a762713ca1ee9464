// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "https://catalog.test/index.php?req=go"

func resultRow(title, author, year, lang, ext, md5 string) string {
	return `<tr>
  <td><a href="edition.php?id=77">ed</a> <a href="/file.php?id=1">` + title + `</a></td>
  <td>` + author + `</td>
  <td>Pub House</td>
  <td>` + year + `</td>
  <td>` + lang + `</td>
  <td>320</td>
  <td><a href="/file.php?id=991">4 MB</a></td>
  <td>` + ext + `</td>
  <td>
    <a href="/ads.php?md5=` + md5 + `">[1]</a>
    <a href="https://mirror.test/book/` + md5 + `">[2]</a>
    <a href="/ads.php?md5=` + md5 + `">[dup]</a>
  </td>
</tr>`
}

func resultsPage(rows ...string) string {
	return `<html><body>
<table id="tablelibgen"><tbody>` + strings.Join(rows, "\n") + `</tbody></table>
</body></html>`
}

const (
	md5A = "0123456789abcdef0123456789abcdef"
	md5B = "fedcba9876543210fedcba9876543210"
	md5C = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

func TestParseResultsSkipsMalformedRows(t *testing.T) {
	short := `<tr><td>a</td><td>b</td><td>c</td><td>d</td><td>e</td><td>f</td><td>g</td><td>h</td></tr>`
	page := resultsPage(
		resultRow("Go in Action", "Kennedy", "2015", "English", "pdf", md5A),
		short,
		resultRow("Learning Go", "Bodner", "2021", "English", "epub", md5B),
		resultRow("Concurrency in Go", "Cox-Buday", "2017", "English", "pdf", md5C),
	)

	entries, err := ParseResults(strings.NewReader(page), testBase)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Go in Action", entries[0].Title)
	assert.Equal(t, "Learning Go", entries[1].Title)
	assert.Equal(t, "Concurrency in Go", entries[2].Title)
}

func TestParseResultsFields(t *testing.T) {
	page := resultsPage(resultRow("Go in Action", "William Kennedy", "2015", "English", "pdf", md5A))

	entries, err := ParseResults(strings.NewReader(page), testBase)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "William Kennedy", e.Author)
	assert.Equal(t, "Pub House", e.Publisher)
	assert.Equal(t, "2015", e.Year)
	assert.Equal(t, "English", e.Language)
	assert.Equal(t, "320", e.Pages)
	assert.Equal(t, "4 MB", e.Size)
	assert.Equal(t, "991", e.FileID)
	assert.Equal(t, "pdf", e.Extension)
	assert.Equal(t, "77", e.EditionID)
	assert.Equal(t, "https://catalog.test/edition.php?id=77", e.EditionURL)
	assert.Equal(t, md5A, e.MD5)
	assert.Equal(t, "https://catalog.test/ads.php?md5="+md5A, e.AdsURL)
	assert.Equal(t, []string{
		"https://catalog.test/ads.php?md5=" + md5A,
		"https://mirror.test/book/" + md5A,
	}, e.Mirrors)
}

func TestParseResultsNoContainer(t *testing.T) {
	entries, err := ParseResults(strings.NewReader("<html><body><p>nothing here</p></body></html>"), testBase)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseTitleStripsISBN(t *testing.T) {
	row := `<tr>
  <td>The Go Programming Language<br>ISBN: 9780134190440, 0134190440</td>
  <td>Donovan</td><td>AW</td><td>2015</td><td>English</td><td>380</td><td>5 MB</td><td>pdf</td>
  <td><a href="https://mirror.test/book/` + md5B + `">[1]</a></td>
</tr>`

	entries, err := ParseResults(strings.NewReader(resultsPage(row)), testBase)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "The Go Programming Language", entries[0].Title)
	assert.Equal(t, "5 MB", entries[0].Size)
	assert.Empty(t, entries[0].AdsURL)
	assert.Equal(t, md5B, entries[0].MD5, "hash falls back to the /book/ path")
}

func TestParseTitleIgnoresScripts(t *testing.T) {
	row := `<tr>
  <td>Plain <b>Title</b><script>var x = 1;</script></td>
  <td></td><td></td><td>n/a</td><td></td><td></td><td></td><td>djvu</td><td></td>
</tr>`

	entries, err := ParseResults(strings.NewReader(resultsPage(row)), testBase)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Plain Title", entries[0].Title)
	assert.Equal(t, "n/a", entries[0].Year)
	assert.Empty(t, entries[0].Mirrors)
	assert.Empty(t, entries[0].MD5)
}

func TestParseResultsKeepsMultiAuthorCell(t *testing.T) {
	page := resultsPage(resultRow("Shared", "Smith, J.; Doe, A.", "2001", "English", "pdf", md5A))

	entries, err := ParseResults(strings.NewReader(page), testBase)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Smith, J.; Doe, A.", entries[0].Author)
}
