package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/EcoCheck/internal/ai"
	"github.com/IshaanNene/EcoCheck/internal/checker"
	"github.com/IshaanNene/EcoCheck/internal/config"
	"github.com/IshaanNene/EcoCheck/internal/fetcher"
	"github.com/IshaanNene/EcoCheck/internal/observability"
	"github.com/IshaanNene/EcoCheck/internal/storage"
)

var (
	cfgFile     string
	verbose     bool
	fetcherType string
	storageType string
	provider    string
	model       string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ecocheck",
		Short: "EcoCheck: environmental check for product pages",
		Long: `EcoCheck reads a product page, pulls out the signals that matter for an
environmental assessment (title, description, features, ingredients,
materials, packaging, certifications, sustainability notes) and asks an
LLM to rate the product.

Pages can be fetched over HTTP, rendered in a headless browser, or read
from a saved HTML file. The API key and the last analysis are kept in the
configured store.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&storageType, "storage", "", "storage backend: memory, file, redis, mongo")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "LLM provider: gemini, openai, ollama")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "LLM model name")

	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(detectCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(keyCmd())
	rootCmd.AddCommand(lastCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "EcoCheck %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.AI.APIKey != "" {
				cfg.AI.APIKey = "****"
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
}

// loadConfig loads, overrides and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if fromFile {
		cfg.Fetcher.Type = "file"
	} else if fetcherType != "" {
		cfg.Fetcher.Type = strings.ToLower(fetcherType)
	}
	if waitForPage {
		cfg.Detector.Wait = true
	}
	if storageType != "" {
		cfg.Storage.Type = strings.ToLower(storageType)
	}
	if provider != "" {
		cfg.AI.Provider = strings.ToLower(provider)
	}
	if model != "" {
		cfg.AI.Model = model
	}
}

// setupLogger creates a structured logger.
func setupLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// app holds the components a command needs.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *storage.Store
	fetcher fetcher.Fetcher
	metrics *observability.Metrics
	checker *checker.Checker
}

// newApp wires the components. The fetcher is only created when needed,
// since the browser fetcher launches Chromium.
func newApp(withFetcher bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: setupLogger(cfg)}

	a.store, err = storage.Open(cfg.Storage, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	if withFetcher {
		a.fetcher, err = fetcher.New(cfg.Fetcher, a.logger)
		if err != nil {
			a.store.Close()
			return nil, fmt.Errorf("create fetcher: %w", err)
		}
	} else {
		a.fetcher = fetcher.NewFileFetcher(cfg.Fetcher.MaxBodySize, a.logger)
	}

	a.metrics = observability.NewMetrics(a.logger)
	analyzer := ai.NewClient(cfg.AI, a.logger)
	a.checker = checker.New(cfg, a.fetcher, analyzer, a.store, a.logger, checker.WithMetrics(a.metrics))
	return a, nil
}

func (a *app) Close() {
	if a.fetcher != nil {
		if err := a.fetcher.Close(); err != nil {
			a.logger.Warn("fetcher close failed", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("storage close failed", "error", err)
	}
}
