// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/libgen-fetch/internal/acquire"
	"github.com/pdiddy/libgen-fetch/internal/events"
	"github.com/pdiddy/libgen-fetch/internal/history"
	"github.com/pdiddy/libgen-fetch/internal/httputil"
	"github.com/pdiddy/libgen-fetch/internal/logging"
	"github.com/pdiddy/libgen-fetch/internal/search"
	"github.com/pdiddy/libgen-fetch/internal/secrets"
	"github.com/pdiddy/libgen-fetch/pkg/types"
)

// Config keys. Nested keys map to nested YAML sections and to environment
// variables with dots replaced, e.g. LIBGEN_FETCH_SEARCH_BASE_URL.
const (
	keyLogLevel  = "log.level"
	keyLogFormat = "log.format"

	keyProxy     = "http.proxy"
	keyUserAgent = "http.user_agent"
	keyTimeout   = "http.timeout"

	keyBaseURL   = "search.base_url"
	keyLimit     = "search.limit"
	keyColumns   = "search.columns"
	keyObjects   = "search.objects"
	keyTopics    = "search.topics"
	keyOrder     = "search.order"
	keyOrderMode = "search.order_mode"
	keyFileSuns  = "search.filesuns"

	keyOutDir             = "acquisition.out_dir"
	keyStagingDir         = "acquisition.staging_dir"
	keyMaxEntryURLs       = "acquisition.max_entry_urls"
	keyMaxRetries         = "acquisition.max_retries"
	keyMaxFallbackResults = "acquisition.max_fallback_results"
	keyPreferredIndex     = "acquisition.preferred_index"
	keyConcurrency        = "acquisition.concurrency"
	keyChunkSize          = "acquisition.chunk_size"
	keyMinFileSize        = "acquisition.min_file_size"
	keyHistoryDB          = "acquisition.history_db"
)

const (
	defaultBaseURL = search.DefaultBaseURL
	defaultTimeout = 60 * time.Second
	defaultOutDir  = "downloads"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "console")
	v.SetDefault(keyTimeout, defaultTimeout)
	v.SetDefault(keyBaseURL, defaultBaseURL)
	v.SetDefault(keyLimit, 25)
	v.SetDefault(keyFileSuns, "all")
	v.SetDefault(keyOutDir, defaultOutDir)
	v.SetDefault(keyMaxEntryURLs, 5)
	v.SetDefault(keyMaxRetries, 3)
	v.SetDefault(keyMaxFallbackResults, 3)
	v.SetDefault(keyConcurrency, 2)
	v.SetDefault(keyChunkSize, 32<<10)
	v.SetDefault(keyMinFileSize, 10<<10)
	v.SetDefault(keyHistoryDB, history.DefaultFile)
}

// bindFlags binds each named flag in fs to a config key. Flags that are not
// registered on fs are ignored.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if f := fs.Lookup(flag); f != nil {
			v.BindPFlag(key, f)
		}
	}
}

// loadConfig assembles the pipeline configuration from v. Secret files fill
// the proxy and user agent when neither a flag nor the config sets them.
func loadConfig(v *viper.Viper, sec map[string]string) types.PipelineConfig {
	httpCfg := types.HTTPConfig{
		Timeout:   v.GetDuration(keyTimeout),
		UserAgent: secrets.Value(sec, secrets.KeyUserAgent, v.GetString(keyUserAgent)),
		Proxy:     secrets.Value(sec, secrets.KeyProxyURL, v.GetString(keyProxy)),
	}

	return types.PipelineConfig{
		Search: types.SearchConfig{
			HTTPConfig: httpCfg,
			BaseURL:    v.GetString(keyBaseURL),
			Limit:      v.GetInt(keyLimit),
			Columns:    v.GetStringSlice(keyColumns),
			Objects:    v.GetStringSlice(keyObjects),
			Topics:     v.GetStringSlice(keyTopics),
			Order:      v.GetString(keyOrder),
			OrderMode:  v.GetString(keyOrderMode),
			FileSuns:   v.GetString(keyFileSuns),
		},
		Acquisition: types.AcquisitionConfig{
			HTTPConfig:         httpCfg,
			OutDir:             v.GetString(keyOutDir),
			StagingDir:         v.GetString(keyStagingDir),
			MaxEntryURLs:       v.GetInt(keyMaxEntryURLs),
			MaxRetries:         v.GetInt(keyMaxRetries),
			MaxFallbackResults: v.GetInt(keyMaxFallbackResults),
			PreferredIndex:     v.GetInt(keyPreferredIndex),
			Concurrency:        v.GetInt(keyConcurrency),
			ChunkSize:          v.GetInt(keyChunkSize),
			MinFileSize:        v.GetInt64(keyMinFileSize),
			HistoryDB:          v.GetString(keyHistoryDB),
		},
	}
}

// app holds the shared collaborators built once per command run.
type app struct {
	cfg    types.PipelineConfig
	logger *slog.Logger
	events *events.Emitter
	client *httputil.Client
}

func newApp(v *viper.Viper) (*app, error) {
	logger, err := logging.New(logging.Options{
		Level:  v.GetString(keyLogLevel),
		Format: v.GetString(keyLogFormat),
		Output: os.Stderr,
	})
	if err != nil {
		return nil, err
	}

	cfg := loadConfig(v, loadedSecrets)
	client, err := httputil.NewClient(cfg.Search.HTTPConfig)
	if err != nil {
		return nil, fmt.Errorf("configuring HTTP client: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		events: events.NewEmitter(events.SlogSink(logger)).WithFallback(os.Stderr),
		client: client,
	}, nil
}

func (r *app) searcher() *search.Searcher {
	return &search.Searcher{
		Backend: &search.LibgenBackend{Client: r.client, BaseURL: r.cfg.Search.BaseURL},
		Events:  r.events,
	}
}

// openHistory opens the configured history store, or returns nil when
// history is disabled.
func (r *app) openHistory() (*history.Store, error) {
	if r.cfg.Acquisition.HistoryDB == "" {
		return nil, nil
	}
	return history.Open(r.cfg.Acquisition.HistoryDB)
}

// acquirer wires an Acquirer for this run. hist may be nil.
func (r *app) acquirer(hist *history.Store) *acquire.Acquirer {
	a := acquire.NewAcquirer(r.client, r.cfg.Acquisition, r.events)
	a.Searcher = r.searcher()
	a.SearchConfig = r.cfg.Search
	if hist != nil {
		a.History = hist
	}
	return a
}
