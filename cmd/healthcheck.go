package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/gemini-attach/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthProbeName is looked up to check the key; the service answers 404 for it
const healthProbeName = "files/gemini-attach-healthcheck"

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration, cache and Files API access",
	Long: `Check the health of gemini-attach by verifying:
  • Configuration loading
  • API key presence
  • Durable cache database (when configured)
  • Files API reachability and key validity

This command is useful for debugging setup issues, especially in CI/CD environments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 gemini-attach Health Check"))
		fmt.Fprintln(out)

		// Step 1: Load configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to load configuration:"), err)
			return err
		}
		fmt.Fprintln(out, successStyle.Render("✅ Configuration loaded"))
		if healthcheckVerbose {
			source := cfg.Source
			if source == "" {
				source = "(defaults and environment)"
			}
			fmt.Fprintf(out, "   Source: %s\n", source)
			fmt.Fprintf(out, "   Endpoint: %s/%s\n", cfg.BaseURL, cfg.APIVersion)
			fmt.Fprintf(out, "   Upload mode: %v\n", cfg.Upload)
		}
		fmt.Fprintln(out)

		// Step 2: API key
		fmt.Fprintln(out, infoStyle.Render("Step 2: Checking API key..."))
		if cfg.APIKey == "" {
			fmt.Fprintln(out, errorStyle.Render("❌ No API key configured"))
			fmt.Fprintln(out, "   Set GEMINI_API_KEY, api_key in the config file, or pass --api-key")
			return internal.ErrMissingAPIKey
		}
		fmt.Fprintln(out, successStyle.Render("✅ API key present"))
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Key: %s\n", cfg.RedactedAPIKey())
		}
		fmt.Fprintln(out)

		// Step 3: Cache database
		fmt.Fprintln(out, infoStyle.Render("Step 3: Checking cache database..."))
		if cfg.CacheDB == "" {
			fmt.Fprintln(out, warningStyle.Render("⚠️  No durable cache configured, uploads are reused within one run only"))
		} else {
			db, err := internal.OpenDatabase(cfg.CacheDB)
			if err != nil {
				fmt.Fprintln(out, errorStyle.Render("❌ Cache database unusable:"), err)
				return err
			}
			refs, err := internal.NewSQLiteRefStore(db).ListRefs()
			_ = db.Close()
			if err != nil {
				fmt.Fprintln(out, errorStyle.Render("❌ Failed to read cache database:"), err)
				return err
			}
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Cache database ready (%d entries)", len(refs))))
			if healthcheckVerbose {
				fmt.Fprintf(out, "   Database: %s\n", cfg.CacheDB)
			}
		}
		fmt.Fprintln(out)

		// Step 4: Files API
		fmt.Fprintln(out, infoStyle.Render("Step 4: Contacting the Files API..."))
		client, err := newRemoteClient(cfg)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to create client:"), err)
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		start := time.Now()
		_, err = client.FetchByName(ctx, healthProbeName)
		var apiErr *internal.APIError
		switch {
		case err == nil, errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
			fmt.Fprintln(out, successStyle.Render("✅ Files API reachable and key accepted"))
		case errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden || apiErr.StatusCode == http.StatusBadRequest):
			fmt.Fprintln(out, errorStyle.Render("❌ API key rejected:"), apiErr.Message)
			return err
		default:
			fmt.Fprintln(out, errorStyle.Render("❌ Files API unreachable:"), err)
			return err
		}
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Round trip: %s\n", time.Since(start).Round(time.Millisecond))
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, successStyle.Render("✅ Health check passed"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "verbose", "v", false, "Show detailed information")
}
