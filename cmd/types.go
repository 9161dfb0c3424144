package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/iksnae/gemini-attach/internal"
	"github.com/spf13/cobra"
)

// typesCmd represents the types command
var typesCmd = &cobra.Command{
	Use:   "types [path...]",
	Short: "List accepted content types, or check files against them",
	Long: `Without arguments, list the content types the service accepts, grouped by
category. With paths, show the type guessed for each file and whether it
would be accepted after normalization.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			groups := map[string][]string{}
			var order []string
			for _, ct := range internal.SupportedContentTypes() {
				category := internal.ContentCategory(ct)
				if _, seen := groups[category]; !seen {
					order = append(order, category)
				}
				groups[category] = append(groups[category], ct)
			}
			for _, category := range order {
				fmt.Fprintf(out, "%s: %s\n", category, strings.Join(groups[category], ", "))
			}
			return nil
		}

		normalizer := internal.NewMediaNormalizer()
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PATH\tGUESSED\tSENT AS\tSTATUS")
		for _, path := range args {
			guessed := internal.GuessContentType(path)
			final, status := guessed, "accepted"
			data, err := os.ReadFile(path)
			if err == nil {
				_, final, err = normalizer.Normalize(path, data, guessed)
			}
			switch {
			case err != nil:
				final, status = "-", err.Error()
			case !internal.IsSupportedContentType(final):
				status = "unsupported"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", path, guessed, final, status)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
}
