// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/libgen-fetch/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the record of downloaded files",
}

var historyListCmd = &cobra.Command{
	Use:     "list",
	Short:   "Show the most recent downloads",
	Args:    cobra.NoArgs,
	PreRunE: bindHistoryFlag,
	RunE:    runHistoryList,
}

var historyPruneCmd = &cobra.Command{
	Use:     "prune",
	Short:   "Forget downloads whose files were deleted",
	Args:    cobra.NoArgs,
	PreRunE: bindHistoryFlag,
	RunE:    runHistoryPrune,
}

var historyExportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Write the download history as YAML or JSON",
	Args:    cobra.NoArgs,
	PreRunE: bindHistoryFlag,
	RunE:    runHistoryExport,
}

func init() {
	for _, c := range []*cobra.Command{historyListCmd, historyPruneCmd, historyExportCmd} {
		c.Flags().String("history", "", "acquisition history database (default ./libgen-fetch.db)")
		historyCmd.AddCommand(c)
	}
	historyListCmd.Flags().Int("limit", 50, "number of records to show")
	historyExportCmd.Flags().Int("limit", 1000, "number of records to export")
	historyExportCmd.Flags().String("format", "yaml", "output format: yaml or json")

	rootCmd.AddCommand(historyCmd)
}

func bindHistoryFlag(cmd *cobra.Command, args []string) error {
	bindFlags(viper.GetViper(), cmd.Flags(), map[string]string{"history": keyHistoryDB})
	return nil
}

// mustOpenHistory opens the history store, failing when history is disabled.
func (r *app) mustOpenHistory() (*history.Store, error) {
	hist, err := r.openHistory()
	if err != nil {
		return nil, err
	}
	if hist == nil {
		return nil, fmt.Errorf("history is disabled: set %s or --history", keyHistoryDB)
	}
	return hist, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	a, err := newApp(viper.GetViper())
	if err != nil {
		return err
	}
	hist, err := a.mustOpenHistory()
	if err != nil {
		return err
	}
	defer hist.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	recs, err := hist.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(w, "No downloads recorded.")
		return nil
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Fetched", "Title", "Ext", "Size", "Path"})
	for _, rec := range recs {
		tw.AppendRow(table.Row{
			humanize.Time(rec.FetchedAt), truncate(rec.Title, 50), rec.Extension, humanize.IBytes(uint64(rec.Size)), rec.Path,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 4, Align: text.AlignRight}})
	tw.Render()
	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	a, err := newApp(viper.GetViper())
	if err != nil {
		return err
	}
	hist, err := a.mustOpenHistory()
	if err != nil {
		return err
	}
	defer hist.Close()

	n, err := hist.Prune(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d records\n", n)
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(viper.GetViper())
	if err != nil {
		return err
	}
	hist, err := a.mustOpenHistory()
	if err != nil {
		return err
	}
	defer hist.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "yaml", "yml":
		return hist.ExportYAML(cmd.Context(), cmd.OutOrStdout(), limit)
	case "json":
		return hist.ExportJSON(cmd.Context(), cmd.OutOrStdout(), limit)
	default:
		return fmt.Errorf("unknown format %q (use yaml or json)", format)
	}
}
