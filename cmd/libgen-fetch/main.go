// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the libgen-fetch CLI: catalog search,
// single and batch acquisition, staging cleanup and acquisition history.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/libgen-fetch/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds connection settings loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the libgen-fetch CLI.
var rootCmd = &cobra.Command{
	Use:   "libgen-fetch",
	Short: "Search a library catalog and download files from its mirrors",
	Long: `libgen-fetch searches a library catalog, narrows the results with local
filters that relax step by step when nothing matches, and downloads the chosen
file from the first mirror that yields a valid copy. Interrupted downloads
resume from the partial file on the next run.

Use "search" to inspect results, "fetch" to download one title, and "batch" to
work through a CSV file of titles.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(secrets.DefaultDir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", sortedKeys(s))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./libgen-fetch.yaml or ~/.config/libgen-fetch/libgen-fetch.yaml)")
	pf.String("log-level", "", "log level: debug, info, warn, error (default info)")
	pf.String("log-format", "", "log format: console or json (default console)")
	pf.String("proxy", "", "http(s) proxy URL for every request, e.g. http://127.0.0.1:7890")
	pf.String("user-agent", "", "User-Agent header sent with every request")
	pf.Duration("timeout", 0, "wait limit for response headers (default 60s)")
	pf.String("base-url", "", "catalog site root (default "+defaultBaseURL+")")

	bindFlags(viper.GetViper(), pf, map[string]string{
		"log-level":  keyLogLevel,
		"log-format": keyLogFormat,
		"proxy":      keyProxy,
		"user-agent": keyUserAgent,
		"timeout":    keyTimeout,
		"base-url":   keyBaseURL,
	})
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("libgen-fetch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "libgen-fetch"))
		}
	}

	viper.SetEnvPrefix("LIBGEN_FETCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
