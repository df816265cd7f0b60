package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/fileconv/internal"
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

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that fileconv can reach the conversion service",
	Long: `Check the health of fileconv by verifying:
  • Configuration
  • Conversion service reachability
  • Supported format catalog
  • Chat model availability
  • Local catalog cache

This command is useful for debugging connectivity issues, especially in CI/CD environments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := commandContext(cmd)
		fmt.Fprintln(out, sectionStyle.Render("🔍 fileconv Health Check"))
		fmt.Fprintln(out)

		// Step 1: Configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		fmt.Fprintln(out, successStyle.Render("✅ Configuration valid"))
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Config file: %s\n", configPath)
			fmt.Fprintf(out, "   Base URL: %s\n", cfg.BaseURL)
			fmt.Fprintf(out, "   Download origin: %s\n", cfg.DownloadOrigin())
			fmt.Fprintf(out, "   Language: %s (%s)\n", cfg.Language, internal.LanguageName(cfg.Language))
			if cfg.User.SignedIn() {
				fmt.Fprintf(out, "   User: %s\n", cfg.User.DisplayName())
			}
		}
		fmt.Fprintln(out)

		client, err := newClient()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to create API client:"), err)
			return err
		}

		// Step 2: Service reachability via the catalog endpoint
		fmt.Fprintln(out, infoStyle.Render("Step 2: Contacting conversion service..."))
		catalog, err := client.SupportedFormats(ctx)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Conversion service unreachable"))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Error details:")
			fmt.Fprintln(out, internal.UserMessage(err, err.Error()))
			if healthcheckVerbose {
				fmt.Fprintf(out, "   Kind: %s\n", internal.ErrorKindOf(err))
			}
			return fmt.Errorf("conversion service unreachable at %s", cfg.BaseURL)
		}
		fmt.Fprintln(out, successStyle.Render("✅ Conversion service reachable"))
		fmt.Fprintln(out)

		// Step 3: Catalog coverage
		fmt.Fprintln(out, infoStyle.Render("Step 3: Checking supported formats..."))
		var missing []internal.ConversionType
		for _, t := range internal.ConversionTypes {
			if _, ok := catalog[t]; !ok {
				missing = append(missing, t)
			}
		}
		if len(missing) == 0 {
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ All %d conversion types available", len(internal.ConversionTypes))))
		} else {
			fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  %d conversion type(s) not offered: %v", len(missing), missing)))
		}
		if healthcheckVerbose {
			for _, t := range internal.ConversionTypes {
				if entry, ok := catalog[t]; ok {
					fmt.Fprintf(out, "   %-10s %s\n", t, internal.DescribeEntry(entry))
				}
			}
		}
		fmt.Fprintln(out)

		// Step 4: Chat models
		fmt.Fprintln(out, infoStyle.Render("Step 4: Checking chat service..."))
		models, err := client.ChatModels(ctx)
		switch {
		case err != nil:
			fmt.Fprintln(out, warningStyle.Render("⚠️  Chat service unavailable:"), internal.UserMessage(err, err.Error()))
		case len(models) == 0:
			fmt.Fprintln(out, warningStyle.Render("⚠️  Chat service reports no models"))
		default:
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Found %d chat model(s)", len(models))))
			if healthcheckVerbose {
				for i, m := range models {
					if i < 5 {
						fmt.Fprintf(out, "   [%d] %s\n", i+1, m)
					}
				}
				if len(models) > 5 {
					fmt.Fprintf(out, "   ... and %d more\n", len(models)-5)
				}
			}
		}
		fmt.Fprintln(out)

		// Step 5: Catalog cache
		fmt.Fprintln(out, infoStyle.Render("Step 5: Testing catalog cache..."))
		storePath := internal.DefaultCatalogStorePath(cfg.ResolvedCacheDir())
		store, err := internal.OpenCatalogStore(storePath)
		if err != nil {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Catalog cache unavailable (formats will be fetched every time):"), err)
		} else {
			defer store.Close()
			_, fetchedAt, loadErr := store.Load()
			switch {
			case loadErr != nil:
				fmt.Fprintln(out, warningStyle.Render("⚠️  Catalog cache unreadable:"), loadErr)
			case fetchedAt.IsZero():
				fmt.Fprintln(out, successStyle.Render("✅ Catalog cache ready (empty)"))
			default:
				fmt.Fprintln(out, successStyle.Render("✅ Catalog cache ready"))
				if healthcheckVerbose {
					fmt.Fprintf(out, "   Last fetched: %s\n", fetchedAt.Local().Format("2006-01-02 15:04:05"))
				}
			}
			if healthcheckVerbose {
				fmt.Fprintf(out, "   Database: %s\n", store.Path())
			}
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
