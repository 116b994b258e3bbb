package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"linkstat/internal/browser"
	"linkstat/internal/config"
	"linkstat/internal/delivery"
	"linkstat/internal/logging"
	"linkstat/internal/output"
	"linkstat/internal/pipeline"
	"linkstat/internal/schedule"
	"linkstat/internal/session"
	_ "linkstat/internal/sites/litlink"
)

var version = "dev"

var (
	configPath   string
	site         string
	webhookURL   string
	dryRun       bool
	outputFormat string
	outputFile   string
	cronSpec     string
	showUI       bool
	proxyURL     string
	snapshotDir  string
	logLevel     string
	logFormat    string
	maxScrolls   int
)

// launch starts the browser for each run.
var launch browser.Launcher = browser.New

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:     "linkstat",
		Short:   "Collect per-link click counts from a creator dashboard",
		Version: version,
		Long: `linkstat signs in to a link-in-bio creator dashboard with a session cookie
(falling back to email and password), scrolls until every link card is
loaded, extracts title, URL and click count per card, and posts the batch
as JSON to a webhook.`,
		Example: `  # Deliver today's counts to a webhook
  LINKSTAT_COOKIE="sid=..." linkstat --webhook https://hooks.example/linkstat

  # Inspect what would be sent, as CSV
  linkstat --dry-run -o links.csv

  # Run every morning at 09:00 UTC+9
  linkstat --config linkstat.toml --schedule "0 9 * * *"`,
		Args:         cobra.NoArgs,
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	rootCmd.Flags().StringVar(&site, "site", "", "Dashboard profile (default litlink)")
	rootCmd.Flags().StringVarP(&webhookURL, "webhook", "W", "", "Webhook URL, defaults to LINKSTAT_WEBHOOK_URL")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the batch instead of delivering it")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Dry-run output format (json, csv, markdown, text, html)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Dry-run output file (format inferred from extension if -f not specified)")
	rootCmd.Flags().StringVar(&cronSpec, "schedule", "", "Cron spec evaluated in UTC+9; runs once when empty")
	rootCmd.Flags().BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "Proxy URL (e.g. http://127.0.0.1:7890), defaults to LINKSTAT_PROXY")
	rootCmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "Save the loaded dashboard as HTML and Markdown here")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "", "Log format (console, json)")
	rootCmd.Flags().IntVar(&maxScrolls, "max-scrolls", 0, "Give up when the page keeps growing after this many scrolls (0 for no limit)")

	return rootCmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.HasAuth() {
		return session.ErrNoAuthMethod
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Out:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	var (
		sink      *output.Sink
		deliverer pipeline.Deliverer
	)
	if cfg.DryRun {
		if sink, err = output.NewSink(outputFormat, outputFile); err != nil {
			return err
		}
	} else {
		deliverer = delivery.New(cfg.Webhook.URL, delivery.Options{
			Timeout:   cfg.Webhook.Timeout.Std(),
			UserAgent: "linkstat/" + version,
		})
	}

	p, err := pipeline.New(opts, launch, deliverer)
	if err != nil {
		return err
	}

	job := func(ctx context.Context) error {
		res, err := p.Run(ctx)
		if err != nil {
			return err
		}
		if sink != nil {
			return sink.Write(res.Batch)
		}
		return nil
	}

	if cfg.Schedule == "" {
		return job(ctx)
	}

	zerolog.Ctx(ctx).Info().Str("schedule", cfg.Schedule).Msg("Running on schedule")
	return schedule.Run(ctx, cfg.Schedule, job)
}

// applyFlags overrides config with flags that were set explicitly.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("site") {
		cfg.Site = site
	}
	if flags.Changed("webhook") {
		cfg.Webhook.URL = webhookURL
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = dryRun
	}
	if flags.Changed("schedule") {
		cfg.Schedule = cronSpec
	}
	if flags.Changed("showui") {
		cfg.Browser.Headless = !showUI
	}
	if flags.Changed("proxy") {
		cfg.Browser.ProxyURL = proxyURL
	}
	if flags.Changed("snapshot-dir") {
		cfg.SnapshotDir = snapshotDir
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = logFormat
	}
	if flags.Changed("max-scrolls") {
		cfg.Scroll.MaxIterations = maxScrolls
	}
}
