package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/iksnae/fileconv/internal"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	configPath  string
	baseURLFlag string
	langFlag    string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"

	// cfg is the effective configuration, loaded before every subcommand
	cfg *internal.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fileconv",
	Short: "Convert files and chat with the conversion assistant",
	Long: `A command-line client for the file conversion service.

Upload a file, pick a target format and get back a download link, or ask
the conversion assistant in your language and let it set up the conversion
for you.

Features:
  • Discover supported formats per conversion type
  • Convert text, document, image, audio, video and compressed files
  • Copy download links or share results by email
  • Multilingual chat assistant that can trigger conversions
  • Cached format catalog for fast, offline-friendly validation

Quick Start:
  fileconv formats                          # List supported formats
  fileconv convert document report.docx --to pdf
  fileconv chat --lang es                   # Chat with the assistant

Configuration lives in ~/.fileconv/config.yaml and can be overridden with
FILECONV_* environment variables or a .env file.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		internal.PrintError(fmt.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", internal.DefaultConfigPath(), "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "Conversion service base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "Language code for chat and messages (overrides config)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig resolves flags > environment > file > defaults and applies
// the logging settings.
func loadConfig() error {
	if err := internal.LoadDotEnv(); err != nil {
		return err
	}
	loaded, err := internal.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if baseURLFlag != "" {
		loaded.BaseURL = baseURLFlag
	}
	if langFlag != "" {
		loaded.Language = langFlag
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	internal.SetLogFormat(loaded.LogFormat)
	internal.SetLogLevel(internal.ParseLogLevel(loaded.LogLevel))
	if verbose {
		internal.SetVerbose(true)
	}
	cfg = loaded
	internal.LogDebug("Using %s (config %s)", cfg.BaseURL, configPath)
	return nil
}

func newClient() (*internal.Client, error) {
	opts := []internal.ClientOption{internal.WithUserAgent("fileconv/" + version)}
	if cfg.User.Token != "" {
		opts = append(opts, internal.WithToken(cfg.User.Token))
	}
	return internal.NewClient(cfg.BaseURL, opts...)
}

// openCatalog wraps client with the on-disk catalog cache. A cache that
// cannot be opened is skipped, never fatal.
func openCatalog(client *internal.Client, refresh bool) (*internal.CachedCatalog, func()) {
	store, err := internal.OpenCatalogStore(internal.DefaultCatalogStorePath(cfg.ResolvedCacheDir()))
	if err != nil {
		internal.LogWarn("Catalog cache unavailable: %v", err)
		return internal.NewCachedCatalog(client, nil, cfg.CacheTTL.Std(), refresh), func() {}
	}
	return internal.NewCachedCatalog(client, store, cfg.CacheTTL.Std(), refresh), func() { _ = store.Close() }
}

func newPresenter(client *internal.Client) *internal.Presenter {
	return internal.NewPresenter(cfg.DownloadOrigin(), internal.ThemeByName(cfg.Theme), cfg.User, client)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
