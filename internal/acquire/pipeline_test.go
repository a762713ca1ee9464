// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/libgen-fetch/internal/history"
	"github.com/pdiddy/libgen-fetch/internal/search"
	"github.com/pdiddy/libgen-fetch/pkg/types"
)

const (
	pipelineEpubMD5 = "11111111111111111111111111111111"
	pipelinePDFMD5  = "22222222222222222222222222222222"
)

func catalogRow(title, year, ext, md5 string) string {
	return fmt.Sprintf(`<tr>
  <td><a href="/file.php?id=1">%s</a></td>
  <td>Rob Pike</td><td>Addison</td><td>%s</td><td>English</td><td>300</td>
  <td>2 MB</td><td>%s</td>
  <td><a href="/ads.php?md5=%s">[1]</a></td>
</tr>`, title, year, ext, md5)
}

// catalogSite serves a search page, entry pages and the files behind them.
func catalogSite(t *testing.T, pdf []byte, downloads *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/index.php", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "The Go Programming Language", r.URL.Query().Get("req"))
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><table id="tablelibgen"><tbody>%s%s</tbody></table></body></html>`,
			catalogRow("The Go Programming Language", "2015", "epub", pipelineEpubMD5),
			catalogRow("The Go Programming Language", "2016", "pdf", pipelinePDFMD5))
	})
	mux.HandleFunc("/ads.php", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<html><body><h2><a href="get.php?md5=%s&amp;key=K1">GET</a></h2></body></html>`,
			r.URL.Query().Get("md5"))
	})
	mux.HandleFunc("/get.php", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("md5") != pipelinePDFMD5 || r.URL.Query().Get("key") != "K1" {
			http.NotFound(w, r)
			return
		}
		downloads.Add(1)
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(pdf)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestPipelineSearchThenAcquire(t *testing.T) {
	pdf := payload("%PDF-1.7\n", 30_000)
	var downloads atomic.Int32
	ts := catalogSite(t, pdf, &downloads)

	store, err := history.Open(filepath.Join(t.TempDir(), history.DefaultFile))
	require.NoError(t, err)
	defer store.Close()

	client := testClient(t)
	a := NewAcquirer(client, types.AcquisitionConfig{OutDir: t.TempDir()}, quiet())
	a.Searcher = &search.Searcher{Backend: &search.LibgenBackend{Client: client, BaseURL: ts.URL}, Events: quiet()}
	a.History = store

	// The year bound matches nothing, so the search relaxes it and the
	// extension filter picks the pdf row.
	filter := types.SearchFilter{Extension: "pdf", YearMin: types.IntPtr(2030)}
	task := types.NewQueryTask("The Go Programming Language", filter)

	res, err := a.AcquireTask(context.Background(), task, Options{})
	require.NoError(t, err)
	assert.Equal(t, pipelinePDFMD5, res.Entry.MD5)
	assert.Equal(t, "The Go Programming Language-Rob Pike-Addison-2016-English-300.pdf", filepath.Base(res.Path))
	assert.Equal(t, ts.URL+"/get.php?md5="+pipelinePDFMD5+"&key=K1", res.TransferURL)

	got, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, pdf, got)

	rec, err := store.Lookup(context.Background(), pipelinePDFMD5)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, res.Path, rec.Path)
	assert.Equal(t, int64(len(pdf)), rec.Size)

	// A second run finds the file through history and transfers nothing.
	again, err := a.AcquireTask(context.Background(), types.NewQueryTask("The Go Programming Language", filter), Options{})
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	assert.Equal(t, int32(1), downloads.Load())
}
