// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/libgen-fetch/pkg/types"
)

const (
	// MaxFilenameLength caps a built file name, in characters.
	MaxFilenameLength = 150

	titleCap     = 80
	authorCap    = 30
	publisherCap = 30

	// shortStemCap bounds the stem of the fallback name used after a
	// path-length error.
	shortStemCap = 80

	defaultName = "download"
	defaultExt  = "bin"
)

// reservedChars are rejected by at least one common filesystem.
const reservedChars = `<>:"/\|?*`

// promoAside matches long parenthesized asides such as
// "(The Definitive Guide To Everything, Updated Edition)".
var promoAside = regexp.MustCompile(`[(（][^()（）]{20,}[)）]`)

// BuildFilename derives a sanitized, bounded file name from entry metadata.
// The entry is never modified; the fallback title comes from nc.
func BuildFilename(e types.CatalogEntry, nc types.NamingContext) string {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		title = strings.TrimSpace(nc.FallbackTitle)
	}
	title = strings.TrimSpace(promoAside.ReplaceAllString(title, ""))

	fields := []string{
		clampField(title, titleCap),
		clampField(e.Author, authorCap),
		clampField(e.Publisher, publisherCap),
		clampField(e.Year, 0),
		clampField(e.Language, 0),
		clampField(e.Pages, 0),
	}
	var parts []string
	for _, f := range fields {
		if f != "" {
			parts = append(parts, f)
		}
	}

	base := strings.Join(parts, "-")
	if base == "" {
		base = e.MD5
	}
	if base == "" {
		base = defaultName
	}

	ext := strings.TrimLeft(strings.TrimSpace(e.Extension), ".")
	if ext == "" {
		ext = defaultExt
	}

	name := CleanFilename(base+"."+ext, MaxFilenameLength)
	if runeLen(name) <= MaxFilenameLength {
		return name
	}

	fallback := clampField(nc.FallbackTitle, 0)
	if fallback == "" && e.MD5 != "" {
		fallback = truncateRunes(e.MD5, 12)
	}
	if fallback == "" {
		fallback = defaultName
	}
	return CleanFilename(fallback+"."+ext, MaxFilenameLength)
}

// CleanFilename normalizes name (NFKD), drops control and reserved
// characters, and trims the stem so the result fits in max characters while
// keeping the extension. An empty result becomes "download".
func CleanFilename(name string, max int) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if r < 32 || strings.ContainsRune(reservedChars, r) {
			continue
		}
		b.WriteRune(r)
	}

	cleaned := strings.TrimSpace(b.String())
	if cleaned == "" {
		cleaned = defaultName
	}
	if max <= 0 || runeLen(cleaned) <= max {
		return cleaned
	}

	stem, ext := splitExt(cleaned)
	keep := max - runeLen(ext)
	if keep < 1 {
		return truncateRunes(cleaned, max)
	}
	return truncateRunes(stem, keep) + ext
}

// ShortFallbackName shortens name for filesystems that rejected it: the
// stem is capped at 80 characters and the extension kept (".bin" if none).
func ShortFallbackName(name string) string {
	stem, ext := splitExt(name)
	stem = truncateRunes(CleanFilename(stem, 0), shortStemCap)
	stem = strings.TrimSpace(stem)
	if stem == "" {
		stem = defaultName
	}
	if ext == "" {
		ext = "." + defaultExt
	}
	return stem + ext
}

// clampField collapses whitespace and, when max > 0, truncates to max
// characters with an ellipsis marker.
func clampField(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if max > 0 && runeLen(s) > max {
		s = strings.TrimSpace(truncateRunes(s, max)) + "..."
	}
	return s
}

// splitExt splits off the final extension. A leading dot alone does not
// start an extension.
func splitExt(name string) (string, string) {
	ext := filepath.Ext(name)
	if ext == name || strings.TrimLeft(name, ".") == strings.TrimPrefix(ext, ".") {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}

func runeLen(s string) int {
	return len([]rune(s))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
