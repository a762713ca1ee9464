// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/libgen-fetch/pkg/types"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "state", DefaultFile))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o644))
}

func TestOpenCreatesDatabase(t *testing.T) {
	_, dir := testStore(t)
	_, err := os.Stat(filepath.Join(dir, "state", DefaultFile))
	assert.NoError(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Record(context.Background(), types.AcquisitionRecord{MD5: "abc", Path: "/x"}))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	rec, err := s2.Lookup(context.Background(), "abc")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "/x", rec.Path)
}

func TestRecordAndLookup(t *testing.T) {
	s, dir := testStore(t)
	ctx := context.Background()
	when := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rec := types.AcquisitionRecord{
		MD5:         "0123456789ABCDEF0123456789ABCDEF",
		Path:        filepath.Join(dir, "book.pdf"),
		SourceURL:   "https://catalog.test/ads.php?md5=x",
		TransferURL: "https://cdn.test/get.php?md5=x",
		Title:       "Book",
		Extension:   "pdf",
		Size:        20480,
		FetchedAt:   when,
	}
	require.NoError(t, s.Record(ctx, rec))

	got, err := s.Lookup(ctx, "0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", got.MD5)
	assert.Equal(t, rec.Path, got.Path)
	assert.Equal(t, rec.TransferURL, got.TransferURL)
	assert.Equal(t, int64(20480), got.Size)
	assert.True(t, when.Equal(got.FetchedAt))
}

func TestLookupUnknown(t *testing.T) {
	s, _ := testStore(t)
	got, err := s.Lookup(context.Background(), "ffffffffffffffffffffffffffffffff")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.Lookup(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRecordReplacesSameHash(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, types.AcquisitionRecord{MD5: "aa", Path: "/old"}))
	require.NoError(t, s.Record(ctx, types.AcquisitionRecord{MD5: "aa", Path: "/new"}))

	recs, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "/new", recs[0].Path)
}

func TestRecordWithoutHash(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, types.AcquisitionRecord{Path: "/a"}))
	require.NoError(t, s.Record(ctx, types.AcquisitionRecord{Path: "/b"}))

	recs, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestRecordRequiresPath(t *testing.T) {
	s, _ := testStore(t)
	assert.Error(t, s.Record(context.Background(), types.AcquisitionRecord{MD5: "aa"}))
}

func TestFetched(t *testing.T) {
	s, dir := testStore(t)
	ctx := context.Background()
	path := filepath.Join(dir, "present.pdf")
	writeFile(t, path)

	require.NoError(t, s.Record(ctx, types.AcquisitionRecord{MD5: "present", Path: path}))
	require.NoError(t, s.Record(ctx, types.AcquisitionRecord{MD5: "gone", Path: filepath.Join(dir, "gone.pdf")}))

	rec, ok, err := s.Fetched(ctx, "present")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, path, rec.Path)

	_, ok, err = s.Fetched(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Fetched(ctx, "never")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListNewestFirst(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, md5 := range []string{"a", "b", "c"} {
		require.NoError(t, s.Record(ctx, types.AcquisitionRecord{
			MD5: md5, Path: "/" + md5, FetchedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	recs, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "c", recs[0].MD5)
	assert.Equal(t, "b", recs[1].MD5)
}

func TestPrune(t *testing.T) {
	s, dir := testStore(t)
	ctx := context.Background()
	keep := filepath.Join(dir, "keep.pdf")
	writeFile(t, keep)

	require.NoError(t, s.Record(ctx, types.AcquisitionRecord{MD5: "k", Path: keep}))
	require.NoError(t, s.Record(ctx, types.AcquisitionRecord{MD5: "x", Path: filepath.Join(dir, "x.pdf")}))
	require.NoError(t, s.Record(ctx, types.AcquisitionRecord{Path: filepath.Join(dir, "y.pdf")}))

	n, err := s.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	recs, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, keep, recs[0].Path)
}

func TestExport(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Record(ctx, types.AcquisitionRecord{MD5: "a", Path: "/a.pdf", Title: "A"}))

	var jbuf bytes.Buffer
	require.NoError(t, s.ExportJSON(ctx, &jbuf, 10))
	var fromJSON []types.AcquisitionRecord
	require.NoError(t, json.Unmarshal(jbuf.Bytes(), &fromJSON))
	require.Len(t, fromJSON, 1)
	assert.Equal(t, "A", fromJSON[0].Title)

	var ybuf bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, &ybuf, 10))
	var fromYAML []types.AcquisitionRecord
	require.NoError(t, yaml.Unmarshal(ybuf.Bytes(), &fromYAML))
	require.Len(t, fromYAML, 1)
	assert.Equal(t, "/a.pdf", fromYAML[0].Path)
}

func TestExportJSONEmpty(t *testing.T) {
	s, _ := testStore(t)
	var buf bytes.Buffer
	require.NoError(t, s.ExportJSON(context.Background(), &buf, 10))
	assert.Equal(t, "[]\n", buf.String())
}
