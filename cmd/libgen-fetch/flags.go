// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/libgen-fetch/pkg/types"
)

// addFilterFlags registers the local post-filter flags.
func addFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("language", "", "keep only results in this language, e.g. English, Chinese")
	f.String("ext", "", "keep only results with this extension, e.g. pdf, epub (case-insensitive)")
	f.Int("year-min", 0, "keep only results published in or after this year")
	f.Int("year-max", 0, "keep only results published in or before this year")
	f.String("author", "", "keep only results whose author contains this text")
	f.Bool("author-exact", false, "match --author against whole author names instead of substrings")
}

// filterFromFlags reads the flags registered by addFilterFlags. Year flags
// only take effect when set explicitly.
func filterFromFlags(cmd *cobra.Command) (types.SearchFilter, error) {
	f := cmd.Flags()
	var sf types.SearchFilter
	sf.Language, _ = f.GetString("language")
	sf.Extension, _ = f.GetString("ext")
	sf.Extension = strings.TrimPrefix(strings.TrimSpace(sf.Extension), ".")
	sf.Author, _ = f.GetString("author")
	sf.AuthorExact, _ = f.GetBool("author-exact")

	if f.Changed("year-min") {
		v, _ := f.GetInt("year-min")
		sf.YearMin = &v
	}
	if f.Changed("year-max") {
		v, _ := f.GetInt("year-max")
		sf.YearMax = &v
	}
	if sf.YearMin != nil && sf.YearMax != nil && *sf.YearMin > *sf.YearMax {
		return sf, fmt.Errorf("--year-min %d is after --year-max %d", *sf.YearMin, *sf.YearMax)
	}
	return sf, nil
}

// addScopeFlags registers the remote search scope flags.
func addScopeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("limit", 0, "result-count cap sent to the catalog (default 25)")
	f.StringSlice("columns", nil, "fields to search: t=title a=author s=series y=year p=publisher i=ISBN")
	f.StringSlice("objects", nil, "objects to search: f=files e=editions s=series a=authors p=publishers w=works")
	f.StringSlice("topics", nil, "topics to search: l=libgen c=comics f=fiction a=articles m=magazines r=fiction RUS s=standards")
	f.String("order", "", "sort key: author, extension, f_id, filesize, publisher, series, time_added, title, year")
	f.String("ordermode", "", "sort direction: asc or desc")
	f.String("filesuns", "", "file selector: all, sort or unsort (default all)")
}

var scopeKeys = map[string]string{
	"limit":     keyLimit,
	"columns":   keyColumns,
	"objects":   keyObjects,
	"topics":    keyTopics,
	"order":     keyOrder,
	"ordermode": keyOrderMode,
	"filesuns":  keyFileSuns,
}

// addAcquireFlags registers the acquisition tuning flags.
func addAcquireFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("out-dir", "o", "", "directory for downloaded files (default ./downloads)")
	f.String("staging-dir", "", "directory for partial downloads (default <out-dir>/.partial)")
	f.Int("max-entry-urls", 0, "mirror pages tried per result (default 5)")
	f.Int("max-retries", 0, "attempts per transfer link (default 3)")
	f.Int("max-fallback-results", 0, "distinct results tried per title, including the first (default 3)")
	f.IntP("index", "n", 0, "result tried first, counting from 0")
	f.Int64("min-size", 0, "smallest file accepted as a real download, in bytes (default 10240)")
	f.String("history", "", "acquisition history database (default ./libgen-fetch.db)")
	f.Bool("no-history", false, "neither skip already fetched files nor record new ones")
}

var acquireKeys = map[string]string{
	"out-dir":              keyOutDir,
	"staging-dir":          keyStagingDir,
	"max-entry-urls":       keyMaxEntryURLs,
	"max-retries":          keyMaxRetries,
	"max-fallback-results": keyMaxFallbackResults,
	"index":                keyPreferredIndex,
	"min-size":             keyMinFileSize,
	"history":              keyHistoryDB,
	"concurrency":          keyConcurrency,
}

// bindCommandFlags binds the scope and acquisition flags of cmd. Call it
// from PreRunE: viper keeps one binding per key.
func bindCommandFlags(cmd *cobra.Command) {
	v := viper.GetViper()
	bindFlags(v, cmd.Flags(), scopeKeys)
	bindFlags(v, cmd.Flags(), acquireKeys)
	if noHist, _ := cmd.Flags().GetBool("no-history"); noHist {
		v.Set(keyHistoryDB, "")
	}
}
