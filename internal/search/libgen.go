// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/libgen-fetch/internal/httputil"
	"github.com/pdiddy/libgen-fetch/pkg/types"
)

// DefaultBaseURL is the catalog site searched when no base URL is configured.
const DefaultBaseURL = "https://libgen.vg"

const defaultLimit = 25

// Catalog defaults for the search scope selectors.
var (
	defaultColumns = []string{"t", "a", "s", "y", "p", "i"}
	defaultObjects = []string{"f", "e", "s", "a", "p", "w"}
	defaultTopics  = []string{"l", "c", "f", "a", "m", "r", "s"}
)

// LibgenBackend queries the catalog's index.php search endpoint and parses
// the returned results page.
type LibgenBackend struct {
	Client  *httputil.Client
	BaseURL string
}

// Name returns the backend identifier.
func (b *LibgenBackend) Name() string { return "libgen" }

// Search issues one remote query. Transport failures and non-2xx statuses
// are reported as ErrRequestFailed; an unrecognizable page yields no entries.
func (b *LibgenBackend) Search(ctx context.Context, q Query) ([]types.CatalogEntry, error) {
	reqURL, err := b.searchURL(q)
	if err != nil {
		return nil, err
	}

	req, err := b.Client.NewRequest(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: catalog returned HTTP %d", ErrRequestFailed, resp.StatusCode)
	}

	entries, err := ParseResults(resp.Body, resp.Request.URL.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	return entries, nil
}

func (b *LibgenBackend) searchURL(q Query) (string, error) {
	base := strings.TrimRight(b.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base + "/index.php")
	if err != nil {
		return "", fmt.Errorf("invalid catalog base URL %q: %w", b.BaseURL, err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	fileSuns := q.FileSuns
	if fileSuns == "" {
		fileSuns = "all"
	}

	params := url.Values{
		"req":       {q.Text},
		"res":       {strconv.Itoa(limit)},
		"filesuns":  {fileSuns},
		"columns[]": orDefault(q.Columns, defaultColumns),
		"objects[]": orDefault(q.Objects, defaultObjects),
		"topics[]":  orDefault(q.Topics, defaultTopics),
	}
	if q.Order != "" {
		params.Set("order", q.Order)
	}
	if q.OrderMode != "" {
		params.Set("ordermode", q.OrderMode)
	}

	u.RawQuery = params.Encode()
	return u.String(), nil
}

func orDefault(v, def []string) []string {
	if len(v) > 0 {
		return v
	}
	return def
}
