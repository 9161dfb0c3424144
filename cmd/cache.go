package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/iksnae/gemini-attach/internal"
	"github.com/spf13/cobra"
)

// cacheCmd groups the remote object cache commands
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the durable upload cache",
	Long: `The upload cache maps local paths to files already uploaded. It lives in
memory for one run and, when cache.db is configured, in a sqlite database
shared between runs.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached uploads",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pipeline, err := openPipeline(cfg, false)
		if err != nil {
			return err
		}
		defer pipeline.Close()

		if pipeline.Store == nil {
			internal.PrintInfo("No durable cache configured (set cache.db)")
			return nil
		}
		refs, err := pipeline.Store.ListRefs()
		if err != nil {
			return fmt.Errorf("failed to list cache: %w", err)
		}
		if len(refs) == 0 {
			internal.PrintInfo("Cache is empty")
			return nil
		}

		now := time.Now()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PATH\tFILE\tSTORED\tEXPIRES")
		for _, entry := range refs {
			expires := "never"
			if entry.Ref.ExpiresAt != nil {
				expires = humanize.Time(*entry.Ref.ExpiresAt)
				if entry.Ref.ExpiredAt(now) {
					expires += " (expired)"
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.Path, entry.Ref.Name, humanize.Time(entry.StoredAt), expires)
		}
		return w.Flush()
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every cached upload",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pipeline, err := openPipeline(cfg, false)
		if err != nil {
			return err
		}
		defer pipeline.Close()

		if err := pipeline.Cache.Purge(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		internal.PrintSuccess("Cache cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd, cacheClearCmd)
}
