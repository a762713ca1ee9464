package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds the wait for response headers. Zero means no limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// Proxy is an optional http(s) proxy URL applied to every request.
	Proxy string `json:"proxy,omitempty" yaml:"proxy,omitempty"`
}

// SearchConfig holds settings for the remote catalog search.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the catalog site root (default https://libgen.vg).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Limit is the result-count cap sent to the catalog (default 25).
	Limit int `json:"limit" yaml:"limit"`

	// Columns, Objects and Topics scope the catalog search. Empty uses the catalog defaults.
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	Objects []string `json:"objects,omitempty" yaml:"objects,omitempty"`
	Topics  []string `json:"topics,omitempty" yaml:"topics,omitempty"`

	// Order and OrderMode select the sort key and direction (asc, desc).
	Order     string `json:"order,omitempty" yaml:"order,omitempty"`
	OrderMode string `json:"order_mode,omitempty" yaml:"order_mode,omitempty"`

	// FileSuns is the catalog's sorted/unsorted file selector: all, sort, unsort.
	FileSuns string `json:"filesuns,omitempty" yaml:"filesuns,omitempty"`
}

// AcquisitionConfig holds settings for the acquisition stage.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline"`

	// OutDir is the directory final files are written to.
	OutDir string `json:"out_dir" yaml:"out_dir"`

	// StagingDir holds partial transfers. Empty means OutDir/.partial.
	StagingDir string `json:"staging_dir,omitempty" yaml:"staging_dir,omitempty"`

	// MaxEntryURLs bounds the mirror candidates tried per entry (default 5).
	MaxEntryURLs int `json:"max_entry_urls" yaml:"max_entry_urls"`

	// MaxRetries is the attempt cap per transfer URL (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// MaxFallbackResults bounds how many search results a deferred task tries (default 3).
	MaxFallbackResults int `json:"max_fallback_results" yaml:"max_fallback_results"`

	// PreferredIndex is the result a deferred task tries first.
	PreferredIndex int `json:"preferred_index" yaml:"preferred_index"`

	// Concurrency is the worker pool size for batch acquisition (default 2).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// ChunkSize is the read/write chunk size in bytes (default 32 KiB).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// MinFileSize is the validation floor in bytes (default 10 KiB).
	MinFileSize int64 `json:"min_file_size" yaml:"min_file_size"`

	// HistoryDB is the SQLite history path. Empty disables history.
	HistoryDB string `json:"history_db,omitempty" yaml:"history_db,omitempty"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search      SearchConfig      `json:"search" yaml:"search"`
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition"`
}
