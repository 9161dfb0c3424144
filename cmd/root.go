package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/gemini-attach/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	apiKey     string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gemini-attach",
	Short: "Turn local files into Gemini request parts",
	Long: `Convert local files into parts a Gemini request can carry.

Small files are embedded inline as base64. Larger files, or any file when
upload mode is on, are sent to the Gemini Files API and referenced by URI
once the service reports them ACTIVE.

Features:
  • Inline or uploaded attachments with a 20 MiB inline ceiling
  • Image re-encoding (gif, bmp, tiff, webp → png)
  • Reuse of earlier uploads while they are unexpired
  • Export as JSON, JSONL, YAML or Markdown

Quick Start:
  gemini-attach convert photo.bmp notes.md    # Convert with the configured mode
  gemini-attach convert --inline small.png    # Force inline payloads
  gemini-attach file files/abc123             # Show a remote file
  gemini-attach types                         # List accepted content types`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/gemini-attach/gemini-attach.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
