package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesloom-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/salesloom-cli/internal/config"
	"github.com/KaramelBytes/salesloom-cli/internal/logging"
	"github.com/KaramelBytes/salesloom-cli/internal/sales"
	"github.com/KaramelBytes/salesloom-cli/internal/store"
)

var (
	// Global flags
	cfgFile     string
	debug       bool
	flagUser    int64
	flagStorage string
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg    *cfgpkg.Global
	cfgErr error
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "salesloom",
	Short: "SalesLoom CLI: turn sales exports into summaries and narrative reports",
	Long: `SalesLoom ingests CSV and XLSX sales exports, normalizes them into a local or
Postgres database, computes business summaries and drafts persona-styled reports
with a text-generation provider.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.salesloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Int64Var(&flagUser, "user", 0, "scope the command to this user id")
	rootCmd.PersistentFlags().StringVar(&flagStorage, "storage", "", "storage backend: auto, sqlite, postgres or memory (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: config subcommands can still repair the file
		cfg, cfgErr = nil, err
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg, cfgErr = c, nil

	f := rootCmd.PersistentFlags()
	if f.Changed("storage") && flagStorage != "" {
		cfg.Storage = flagStorage
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	l, err := logging.New(level, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v, using defaults\n", err)
		l, _ = logging.New("info", "text")
	}
	logger = l
}

// loaded returns the configuration or the error that prevented loading it.
func loaded() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	if cfgErr != nil {
		return nil, cfgErr
	}
	return nil, errors.New("configuration not loaded")
}

func appLog() logrus.FieldLogger {
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}

// owner is the --user scope, nil when unset.
func owner() *int64 { return sales.Owner(flagUser) }

func openStore(ctx context.Context) (store.Store, error) {
	c, err := loaded()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, store.Options{
		Backend:     c.Storage,
		DatabaseURL: c.DatabaseURL,
		SQLitePath:  c.SQLitePath,
	}, appLog())
}

func newGenerator(ctx context.Context, provider, model string) (ai.Generator, error) {
	c, err := loaded()
	if err != nil {
		return nil, err
	}
	if provider == "" {
		provider = c.Provider
	}
	if model == "" {
		model = c.Model
	}
	base, max := c.RetryDelays()
	return ai.GetRuntime(ctx, provider, ai.RuntimeConfig{
		APIKey:      c.APIKey,
		Model:       model,
		BaseURL:     c.BaseURL,
		HTTPTimeout: c.HTTPTimeout(),
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   base,
		MaxDelay:    max,
	})
}
