package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var fileJSON bool

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Width(12)
	valueStyle = lipgloss.NewStyle().Bold(true)
)

// fileCmd represents the file command
var fileCmd = &cobra.Command{
	Use:   "file <name>",
	Short: "Show the metadata of a remote file",
	Long: `Fetch a file from the Files API by name ("files/abc123" or "abc123")
and show its state, size and expiry.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newRemoteClient(cfg)
		if err != nil {
			return err
		}

		ref, err := client.FetchByName(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		if fileJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(ref)
		}

		rows := [][2]string{
			{"Name", ref.Name},
			{"Display", ref.DisplayName},
			{"MIME type", ref.MimeType},
			{"Size", humanize.IBytes(uint64(ref.SizeBytes))},
			{"State", string(ref.State)},
			{"URI", ref.URI},
		}
		if ref.ExpiresAt != nil {
			rows = append(rows, [2]string{"Expires", fmt.Sprintf("%s (%s)", ref.ExpiresAt.Format("2006-01-02 15:04:05"), humanize.Time(*ref.ExpiresAt))})
		}
		if ref.Error != "" {
			rows = append(rows, [2]string{"Error", ref.Error})
		}
		for _, row := range rows {
			fmt.Fprintln(out, labelStyle.Render(row[0])+valueStyle.Render(row[1]))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fileCmd)
	fileCmd.Flags().BoolVar(&fileJSON, "json", false, "Print the file as JSON")
}
