// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/libgen-fetch/internal/acquire"
	"github.com/pdiddy/libgen-fetch/internal/search"
	"github.com/pdiddy/libgen-fetch/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [QUERY...]",
	Short: "Search for a title and download the best matching file",
	Long: `Fetch searches the catalog like "search", then downloads the result at
--index (0 by default). When that result cannot be downloaded, up to
--max-fallback-results results are tried in turn, and for each result up to
--max-entry-urls mirror pages.

With --from, the results saved by "search --save" are used instead of a new
search. Files already recorded in the history database are skipped.`,
	PreRunE: func(cmd *cobra.Command, args []string) error { bindCommandFlags(cmd); return nil },
	RunE:    runFetch,
}

func init() {
	addFilterFlags(fetchCmd)
	addScopeFlags(fetchCmd)
	addAcquireFlags(fetchCmd)
	fetchCmd.Flags().String("from", "", "download from a results file written by search --save")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetString("from")
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" && from == "" {
		return fmt.Errorf("provide a search query or --from FILE")
	}

	filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(viper.GetViper())
	if err != nil {
		return err
	}

	hist, err := a.openHistory()
	if err != nil {
		return err
	}
	if hist != nil {
		defer hist.Close()
	}
	acq := a.acquirer(hist)

	ctx := cmd.Context()
	var res acquire.Result
	if from != "" {
		qf, err := search.ReadQueryFile(from)
		if err != nil {
			return err
		}
		if query == "" {
			query = qf.Query.Text
		}
		opts := acquire.Options{Progress: newProgress(os.Stderr, "downloading")}
		res, err = acq.AcquireResults(ctx, query, qf.Results, opts)
		if err != nil {
			return fetchError(query, err)
		}
	} else {
		task := types.NewQueryTask(query, filter)
		opts := acquire.Options{Progress: newProgress(os.Stderr, "downloading")}
		res, err = acq.AcquireTask(ctx, task, opts)
		if err != nil {
			return fetchError(query, err)
		}
	}

	w := cmd.OutOrStdout()
	if res.Skipped {
		fmt.Fprintf(w, "Already fetched: %s\n", res.Path)
		return nil
	}
	fmt.Fprintf(w, "Saved %s (%s)\n", res.Path, humanize.IBytes(uint64(res.Size)))
	return nil
}

func fetchError(query string, err error) error {
	switch {
	case errors.Is(err, acquire.ErrCancelled):
		return fmt.Errorf("%q: download cancelled", query)
	case errors.Is(err, acquire.ErrNoResults):
		return fmt.Errorf("%q: no results matched", query)
	default:
		return fmt.Errorf("%q: %w", query, err)
	}
}
