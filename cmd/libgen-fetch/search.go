// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/libgen-fetch/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY...",
	Short: "Search the catalog and show matching results",
	Long: `Search queries the catalog, then narrows the results with the local
filters. When no result passes, the filters are relaxed in order: year range,
then extension, then language. The author filter always applies.

Results print as a table, or as JSON with --json. --save writes the query and
its results to a YAML file that "fetch --from" can download from later.`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error { bindCommandFlags(cmd); return nil },
	RunE:    runSearch,
}

func init() {
	addFilterFlags(searchCmd)
	addScopeFlags(searchCmd)
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("save", "", "write the query and results to this YAML file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(viper.GetViper())
	if err != nil {
		return err
	}

	query := search.NewQuery(strings.Join(args, " "), a.cfg.Search)
	out, err := a.searcher().SmartSearchDetailed(cmd.Context(), query, filter)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetString("save"); save != "" {
		if err := search.WriteQueryFile(save, query, a.cfg.Search.BaseURL, filter, out); err != nil {
			return err
		}
		a.events.Infof("saved %d results to %s", len(out.Entries), save)
	}

	w := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return search.FormatJSON(out.Entries, w)
	}
	search.FormatTable(out.Entries, w)
	if len(out.Entries) > 0 && out.Level > 0 {
		fmt.Fprintf(w, "(filters relaxed to level %d of %d)\n", out.Level, search.MaxLevel)
	}
	return nil
}
