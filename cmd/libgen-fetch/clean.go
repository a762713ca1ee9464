// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/libgen-fetch/internal/acquire"
	"github.com/pdiddy/libgen-fetch/internal/staging"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove abandoned partial downloads",
	Long: `Clean deletes partial downloads and lock files older than --max-age from
the staging directory. Files belonging to a download that is still running are
kept. With --list, the staging files are shown and nothing is removed.`,
	Args:    cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error { bindCommandFlags(cmd); return nil },
	RunE:    runClean,
}

func init() {
	f := cleanCmd.Flags()
	f.StringP("out-dir", "o", "", "directory for downloaded files (default ./downloads)")
	f.String("staging-dir", "", "directory for partial downloads (default <out-dir>/.partial)")
	f.Duration("max-age", staging.DefaultMaxAge, "remove files last modified longer ago than this")
	f.Bool("list", false, "list staging files instead of removing them")

	rootCmd.AddCommand(cleanCmd)
}

// stagingDir returns the configured staging directory.
func (r *app) stagingDir() string {
	if r.cfg.Acquisition.StagingDir != "" {
		return r.cfg.Acquisition.StagingDir
	}
	return filepath.Join(r.cfg.Acquisition.OutDir, acquire.StagingDirName)
}

func runClean(cmd *cobra.Command, args []string) error {
	a, err := newApp(viper.GetViper())
	if err != nil {
		return err
	}
	dir := a.stagingDir()
	w := cmd.OutOrStdout()

	if list, _ := cmd.Flags().GetBool("list"); list {
		files, err := staging.ListFiles(dir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintf(w, "No staging files in %s\n", dir)
			return nil
		}
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.SetStyle(table.StyleRounded)
		tw.AppendHeader(table.Row{"File", "Size", "Modified"})
		for _, fi := range files {
			tw.AppendRow(table.Row{fi.Name, humanize.IBytes(uint64(fi.Size)), humanize.Time(fi.ModTime)})
		}
		tw.Render()
		return nil
	}

	maxAge, _ := cmd.Flags().GetDuration("max-age")
	res := staging.CleanStale(cmd.Context(), dir, maxAge, a.logger)
	fmt.Fprintf(w, "Removed %d files (%s), kept %d\n", len(res.Removed), humanize.IBytes(uint64(res.Freed)), res.Kept)
	for _, e := range res.Errors {
		a.events.Errorf("%s: %v", e.Path, e.Error)
	}
	if len(res.Errors) > 0 {
		return fmt.Errorf("%d staging files could not be removed", len(res.Errors))
	}
	return nil
}
