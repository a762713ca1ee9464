// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/libgen-fetch/internal/acquire"
	"github.com/pdiddy/libgen-fetch/internal/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch --csv FILE",
	Short: "Download every title listed in a CSV file",
	Long: `Batch reads a CSV file whose header names its columns. Each row is one
title: the query column is searched, and the optional filter columns narrow
the results for that row. Rows are processed by --concurrency workers; a
failed row does not stop the others.

By default the query is read from the 书名 column and the extension from the
类型 column. Use the --col-* flags to map other headers.`,
	PreRunE: func(cmd *cobra.Command, args []string) error { bindCommandFlags(cmd); return nil },
	RunE:    runBatch,
}

func init() {
	addScopeFlags(batchCmd)
	addAcquireFlags(batchCmd)

	f := batchCmd.Flags()
	f.String("csv", "", "CSV file listing the titles (required)")
	f.String("col-query", batch.DefaultQueryColumn, "header of the query column")
	f.String("col-ext", batch.DefaultExtensionColumn, "header of the extension column")
	f.String("col-language", "", "header of the language column")
	f.String("col-year-min", "", "header of the earliest-year column")
	f.String("col-year-max", "", "header of the latest-year column")
	f.String("col-author", "", "header of the author column")
	f.Int("concurrency", 0, "titles downloaded at the same time (default 2)")
	batchCmd.MarkFlagRequired("csv")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	path, _ := f.GetString("csv")

	var cols batch.Columns
	cols.Query, _ = f.GetString("col-query")
	cols.Extension, _ = f.GetString("col-ext")
	cols.Language, _ = f.GetString("col-language")
	cols.YearMin, _ = f.GetString("col-year-min")
	cols.YearMax, _ = f.GetString("col-year-max")
	cols.Author, _ = f.GetString("col-author")

	b, err := batch.ReadFile(path, cols)
	if err != nil {
		return err
	}

	a, err := newApp(viper.GetViper())
	if err != nil {
		return err
	}
	if len(b.Skipped) > 0 {
		a.events.Warnf("skipping %d rows without a query (lines %v)", len(b.Skipped), b.Skipped)
	}
	if len(b.Tasks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No titles to download.")
		return nil
	}

	hist, err := a.openHistory()
	if err != nil {
		return err
	}
	if hist != nil {
		defer hist.Close()
	}

	a.events.Infof("downloading %d titles with %d workers", len(b.Tasks), a.cfg.Acquisition.Concurrency)
	res := a.acquirer(hist).AcquireBatch(cmd.Context(), b.Tasks)

	writeBatchReport(cmd.OutOrStdout(), b, res)
	if res.HasFailures() {
		return fmt.Errorf("%d of %d titles failed", res.Failed, res.Total())
	}
	return nil
}

// writeBatchReport prints one row per task in input order, then the totals.
func writeBatchReport(w io.Writer, b batch.Batch, res acquire.BatchResult) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendHeader(table.Row{"#", "Query", "Status", "File"})

	for i, task := range b.Tasks {
		tr, ok := res.Results[task.Token]
		status, file := "pending", ""
		switch {
		case !ok:
		case errors.Is(tr.Err, acquire.ErrCancelled):
			status = "cancelled"
		case tr.Err != nil:
			status, file = "failed", tr.Err.Error()
		case tr.Result.Skipped:
			status, file = "skipped", tr.Result.Path
		default:
			status, file = "saved", tr.Result.Path
		}
		tw.AppendRow(table.Row{i + 1, truncate(task.Query, 40), status, truncate(file, 70)})
	}
	tw.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d saved, %d skipped, %d failed, %d cancelled in %s",
		res.Downloaded, res.Skipped, res.Failed, res.Cancelled, res.Elapsed.Round(100*time.Millisecond))})
	tw.Render()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// sortedKeys returns the keys of m in order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
