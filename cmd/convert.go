package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/iksnae/gemini-attach/internal"
	"github.com/iksnae/gemini-attach/internal/export"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	convertUpload bool
	convertInline bool
	convertFormat string
	convertOutput string
	convertQuiet  bool
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <path>...",
	Short: "Convert files into request parts",
	Long: `Convert one or more local files into Gemini request parts.

Each file becomes an attachment on a board and is converted concurrently.
In upload mode files are sent to the Files API and referenced by URI; an
unexpired earlier upload of the same path is reused. In inline mode files
up to 20 MiB are embedded as base64.

The resulting parts are written to stdout (or --output) in the chosen format.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		upload := cfg.Upload
		if cmd.Flags().Changed("upload") {
			upload = convertUpload
		}
		if convertInline {
			upload = false
		}

		exporter, err := export.NewExporter(convertFormat)
		if err != nil {
			return err
		}

		pipeline, err := openPipeline(cfg, upload)
		if err != nil {
			return err
		}
		defer func() {
			if err := pipeline.Close(); err != nil {
				internal.LogWarn("Failed to close pipeline: %v", err)
			}
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		board := internal.NewBoard(pipeline.Converter, cfg.Concurrency)
		ids := make([]internal.AttachmentID, 0, len(args))
		for _, path := range args {
			att := board.Add(path)
			if err := board.Dispatch(ctx, att.ID, upload); err != nil {
				return fmt.Errorf("failed to start conversion of %s: %w", path, err)
			}
			ids = append(ids, att.ID)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			board.Wait()
			return nil
		})
		if !convertQuiet {
			g.Go(func() error {
				return internal.WatchBoard(gctx, cmd.ErrOrStderr(), board, internal.NewPresenter())
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		outcomes := make([]internal.Outcome, 0, len(ids))
		for _, id := range ids {
			outcome, ok := board.Result(id)
			if !ok {
				continue
			}
			if outcome.Err != nil {
				internal.PrintError(fmt.Sprintf("%s: %v", outcome.Attachment.Path, outcome.Err))
			}
			outcomes = append(outcomes, outcome)
		}

		output := outputPath(convertOutput, exporter)
		if err := writeRecords(cmd.OutOrStdout(), exporter, export.RecordsFromOutcomes(outcomes), output); err != nil {
			return err
		}

		ready := board.Take()
		if failed := len(args) - len(ready); failed > 0 {
			return fmt.Errorf("%d of %d attachments failed", failed, len(args))
		}
		if output != "" {
			internal.PrintSuccess(fmt.Sprintf("Wrote %d part(s) to %s", len(ready), output))
		}
		return nil
	},
}

// outputPath adds the exporter's extension to an output path that has none
func outputPath(path string, exporter export.Exporter) string {
	if path == "" || filepath.Ext(path) != "" {
		return path
	}
	return path + "." + exporter.Extension()
}

func writeRecords(stdout io.Writer, exporter export.Exporter, records []export.PartRecord, output string) error {
	if output == "" {
		return exporter.Export(records, stdout)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := exporter.Export(records, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to export parts: %w", err)
	}
	return f.Close()
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().BoolVar(&convertUpload, "upload", false, "Upload files to the Files API (default from config)")
	convertCmd.Flags().BoolVar(&convertInline, "inline", false, "Embed files inline as base64")
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "json", "Output format: json, jsonl, yaml, md")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Write parts to a file instead of stdout (extension defaults from --format)")
	convertCmd.Flags().BoolVarP(&convertQuiet, "quiet", "q", false, "Do not draw attachment progress")
	convertCmd.MarkFlagsMutuallyExclusive("upload", "inline")
}
