// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/libgen-fetch/internal/httputil"
)

// maxEntryPage bounds how much of an entry page is read.
const maxEntryPage = 8 << 20

var (
	// getHandlerPattern finds a "get" handler link in raw page source.
	getHandlerPattern = regexp.MustCompile(`(?i)href="([^"]*get\.php\?[^"]+)"`)

	// downloadHandlerPattern finds a generic download handler link.
	downloadHandlerPattern = regexp.MustCompile(`(?i)href="([^"]*(?:download|dl|d)\.php\?[^"]+)"`)

	// intentMarkers are link texts that announce a transfer link.
	intentMarkers = []string{"GET", "DOWNLOAD", "下载"}
)

// Resolver discovers the transfer URL behind an entry page.
type Resolver struct {
	Client *httputil.Client
}

// Resolve fetches entryURL and returns the URL the file bytes are served
// from. A non-HTML response means entryURL (after redirects) serves the file
// itself. ErrNoTransferLink is returned when an HTML page has no usable link.
// Resolve never retries; the caller moves on to the next mirror.
func (r *Resolver) Resolve(ctx context.Context, entryURL string) (string, error) {
	req, err := r.Client.NewRequest(ctx, http.MethodGet, entryURL, nil)
	if err != nil {
		return "", &ResolveError{URL: entryURL, Err: err}
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return "", &ResolveError{URL: entryURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ResolveError{URL: entryURL, StatusCode: resp.StatusCode}
	}

	final := resp.Request.URL
	if !httputil.IsHTML(resp.Header.Get("Content-Type")) {
		return final.String(), nil
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxEntryPage))
	if err != nil {
		return "", &ResolveError{URL: entryURL, Err: fmt.Errorf("reading entry page: %w", err)}
	}

	link, ok := findTransferLink(page, final)
	if !ok {
		return "", fmt.Errorf("%s: %w", entryURL, ErrNoTransferLink)
	}
	return link, nil
}

// findTransferLink applies the link priority chain to one entry page.
func findTransferLink(page []byte, base *url.URL) (string, bool) {
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page)); err == nil {
		var found string
		doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if !isTransferPath(href) || !signalsIntent(a.Text()) {
				return true
			}
			if u, err := base.Parse(strings.TrimSpace(href)); err == nil {
				found = u.String()
				return false
			}
			return true
		})
		if found != "" {
			return found, true
		}
	}

	for _, re := range []*regexp.Regexp{getHandlerPattern, downloadHandlerPattern} {
		m := re.FindSubmatch(page)
		if m == nil {
			continue
		}
		// Raw source keeps entities such as &amp; in attribute values.
		href := strings.ReplaceAll(string(m[1]), "&amp;", "&")
		if u, err := base.Parse(href); err == nil {
			return u.String(), true
		}
	}
	return "", false
}

func isTransferPath(href string) bool {
	h := strings.ToLower(href)
	return strings.Contains(h, "get.php") || strings.Contains(h, "download")
}

func signalsIntent(text string) bool {
	t := strings.ToUpper(strings.TrimSpace(text))
	for _, m := range intentMarkers {
		if strings.Contains(t, m) {
			return true
		}
	}
	return false
}
