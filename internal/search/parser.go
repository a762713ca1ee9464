// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/libgen-fetch/pkg/types"
)

// resultCells is the number of data cells in a well-formed result row:
// title, author, publisher, year, language, pages, size, extension, mirrors.
const resultCells = 9

const (
	colTitle = iota
	colAuthor
	colPublisher
	colYear
	colLanguage
	colPages
	colSize
	colExtension
	colMirrors
)

// resultsSelector locates the single results container on a search page.
const resultsSelector = "table#tablelibgen > tbody"

var (
	// isbnMarker matches the ISBN list catalogs sometimes append to titles.
	isbnMarker = regexp.MustCompile(`(?i)ISBN[:\s]`)

	// bookHashPattern extracts a content hash from mirror paths like /book/<md5>.
	bookHashPattern = regexp.MustCompile(`/book/([0-9a-f]{32})`)
)

// ParseResults turns one search-results page into catalog entries in
// document order. A page without a results container yields no entries and
// no error; only an unreadable document is an error.
func ParseResults(r io.Reader, baseURL string) ([]types.CatalogEntry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing results page: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %q: %w", baseURL, err)
	}

	body := doc.Find(resultsSelector).First()
	if body.Length() == 0 {
		return nil, nil
	}

	var entries []types.CatalogEntry
	body.ChildrenFiltered("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() != resultCells {
			return
		}
		entries = append(entries, parseRow(cells, base))
	})
	return entries, nil
}

func parseRow(cells *goquery.Selection, base *url.URL) types.CatalogEntry {
	cell := func(i int) *goquery.Selection { return cells.Eq(i) }

	e := types.CatalogEntry{
		Title:     parseTitle(cell(colTitle)),
		Author:    cellText(cell(colAuthor)),
		Publisher: cellText(cell(colPublisher)),
		Year:      cellText(cell(colYear)),
		Language:  cellText(cell(colLanguage)),
		Pages:     cellText(cell(colPages)),
		Extension: cellText(cell(colExtension)),
	}

	cell(colTitle).Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !strings.Contains(href, "edition.php") {
			return true
		}
		if u, err := base.Parse(href); err == nil {
			e.EditionURL = u.String()
			e.EditionID = u.Query().Get("id")
		}
		return false
	})

	sizeCell := cell(colSize)
	if link := sizeCell.Find("a[href]").First(); link.Length() > 0 {
		e.Size = cellText(link)
		href, _ := link.Attr("href")
		if u, err := base.Parse(href); err == nil {
			e.FileID = u.Query().Get("id")
		}
	} else {
		e.Size = cellText(sizeCell)
	}

	parseMirrors(cell(colMirrors), base, &e)
	return e
}

// parseTitle prefers the first non-edition link text, falling back to the
// whole cell without embedded scripts, and cuts any trailing ISBN list.
func parseTitle(c *goquery.Selection) string {
	var raw string
	titleLink := c.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		return !strings.Contains(href, "edition.php")
	}).First()

	if titleLink.Length() > 0 {
		raw = spacedText(titleLink)
	} else {
		clone := c.Clone()
		clone.Find("script, style").Remove()
		raw = spacedText(clone)
	}

	title := strings.Join(strings.Fields(raw), " ")
	if loc := isbnMarker.FindStringIndex(title); loc != nil {
		title = title[:loc[0]]
	}
	return strings.TrimSpace(title)
}

func parseMirrors(c *goquery.Selection, base *url.URL, e *types.CatalogEntry) {
	seen := make(map[string]struct{})
	c.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		u, err := base.Parse(href)
		if err != nil {
			return
		}
		full := u.String()
		if _, dup := seen[full]; !dup {
			seen[full] = struct{}{}
			e.Mirrors = append(e.Mirrors, full)
		}

		if e.AdsURL == "" && strings.Contains(href, "ads.php?md5=") {
			e.AdsURL = full
			if md5 := u.Query().Get("md5"); md5 != "" {
				e.MD5 = md5
			}
		}
	})

	if e.MD5 != "" {
		return
	}
	for _, m := range e.Mirrors {
		if match := bookHashPattern.FindStringSubmatch(m); match != nil {
			e.MD5 = match[1]
			return
		}
	}
}

// cellText returns the cell text with whitespace collapsed.
func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(spacedText(s)), " ")
}

// spacedText joins the text nodes of s with spaces so that adjacent inline
// elements ("Title<br>Subtitle") do not run together.
func spacedText(s *goquery.Selection) string {
	var parts []string
	s.Contents().Each(func(_ int, n *goquery.Selection) {
		if goquery.NodeName(n) == "#text" {
			parts = append(parts, n.Text())
			return
		}
		parts = append(parts, spacedText(n))
	})
	return strings.Join(parts, " ")
}
