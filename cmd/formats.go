package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/fileconv/internal"
	"github.com/spf13/cobra"
)

var (
	formatsRefresh bool
	formatsJSON    bool
)

// formatsCmd lists the supported input and output formats
var formatsCmd = &cobra.Command{
	Use:   "formats [type]",
	Short: "List supported formats per conversion type",
	Long: `List the input and output formats the conversion service supports.

Without an argument all six conversion types are shown. The catalog is
cached locally; use --refresh to fetch it again.

Examples:
  fileconv formats
  fileconv formats image
  fileconv formats --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		types := internal.ConversionTypes
		if len(args) == 1 {
			t, err := internal.ParseConversionType(args[0])
			if err != nil {
				return err
			}
			types = []internal.ConversionType{t}
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		source, closeStore := openCatalog(client, formatsRefresh)
		defer closeStore()

		catalog, err := source.SupportedFormats(commandContext(cmd))
		if err != nil {
			return fmt.Errorf("could not load supported formats: %s", internal.UserMessage(err, err.Error()))
		}

		out := cmd.OutOrStdout()
		if formatsJSON {
			selected := make(map[internal.ConversionType]internal.FormatEntry, len(types))
			for _, t := range types {
				if entry, ok := catalog[t]; ok {
					selected[t] = entry
				}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(selected)
		}

		theme := internal.ThemeByName(cfg.Theme)
		for _, t := range types {
			accent := lipgloss.NewStyle().Foreground(theme.ForType(t).Accent).Bold(true)
			fmt.Fprintln(out, accent.Render(string(t)))
			fmt.Fprintf(out, "  %s\n", internal.ConversionTypeDescription(t))
			entry, ok := catalog[t]
			if !ok {
				fmt.Fprintln(out, "  "+warningStyle.Render("not offered by this server"))
				continue
			}
			fmt.Fprintf(out, "  %s\n", internal.DescribeEntry(entry))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
	formatsCmd.Flags().BoolVar(&formatsRefresh, "refresh", false, "Bypass the local catalog cache")
	formatsCmd.Flags().BoolVar(&formatsJSON, "json", false, "Print the catalog as JSON")
}
