package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"linkstat/internal/browser"
	"linkstat/internal/config"
	"linkstat/internal/convergence"
	"linkstat/internal/extractor"
	"linkstat/internal/retry"
	"linkstat/internal/scraper"
	"linkstat/internal/session"
	"linkstat/internal/snapshot"
)

// Deliverer sends a finished batch downstream.
type Deliverer interface {
	Deliver(ctx context.Context, batch scraper.Batch) (string, error)
}

// Options is everything one run needs, resolved from configuration.
type Options struct {
	Dashboard   scraper.Dashboard
	Credentials session.Credentials
	Browser     browser.Config
	Retry       retry.Policy
	Scroll      convergence.Options
	SnapshotDir string
	DryRun      bool
}

// Result describes a finished run.
type Result struct {
	Session *session.Session
	Batch   scraper.Batch
	// Ack is the webhook response body; empty on dry runs.
	Ack string
}

// Pipeline runs authenticate → load → extract → deliver.
type Pipeline struct {
	opts      Options
	resolver  *session.Resolver
	launch    browser.Launcher
	deliverer Deliverer
	now       func() time.Time
}

// New validates opts up front; deliverer may be nil only for dry runs.
func New(opts Options, launch browser.Launcher, deliverer Deliverer) (*Pipeline, error) {
	resolver, err := session.NewResolver(opts.Dashboard, opts.Credentials, opts.Retry)
	if err != nil {
		return nil, err
	}
	if deliverer == nil && !opts.DryRun {
		return nil, errors.New("a deliverer is required unless running dry")
	}
	if launch == nil {
		launch = browser.New
	}
	return &Pipeline{
		opts:      opts,
		resolver:  resolver,
		launch:    launch,
		deliverer: deliverer,
		now:       time.Now,
	}, nil
}

// Run executes one extraction pass. The browser is closed on every path and
// nothing is delivered unless every stage before delivery succeeded.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	log := zerolog.Ctx(ctx).With().Str("site", p.opts.Dashboard.Name).Logger()
	ctx = log.WithContext(ctx)
	started := time.Now()

	b, err := p.launch(p.opts.Browser)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close browser")
		}
	}()

	page, err := b.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	sess, err := p.resolver.Resolve(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	log.Info().Str("method", string(sess.Method)).Msg("Session established")

	if err := p.openLanding(ctx, page); err != nil {
		return nil, fmt.Errorf("failed to open dashboard: %w", err)
	}

	if err := convergence.LoadAll(ctx, page, p.opts.Scroll, p.opts.Retry); err != nil {
		return nil, fmt.Errorf("failed to load dashboard content: %w", err)
	}

	html, err := retry.Do(ctx, p.opts.Retry, page.HTML)
	if err != nil {
		return nil, fmt.Errorf("failed to read dashboard document: %w", err)
	}

	now := p.now()
	p.snapshot(ctx, now, html)

	records, err := extractor.ExtractHTML(ctx, html, p.opts.Dashboard.Cards)
	if err != nil {
		return nil, fmt.Errorf("failed to extract records: %w", err)
	}
	batch := scraper.NewBatch(now, records)
	log.Info().Str("date", batch.DateISO()).Int("items", batch.Len()).Msg("Batch extracted")

	result := &Result{Session: sess, Batch: batch}
	if p.opts.DryRun {
		log.Info().Msg("Dry run, skipping delivery")
		return result, nil
	}

	ack, err := p.deliverer.Deliver(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to deliver batch: %w", err)
	}
	result.Ack = ack

	log.Info().Dur("elapsed", time.Since(started)).Msg("Run finished")
	return result, nil
}

// openLanding makes sure the card list is on screen. Cookie sessions already
// land there; a credential login may stop elsewhere in the admin area.
func (p *Pipeline) openLanding(ctx context.Context, page browser.Page) error {
	current, err := page.URL(ctx)
	if err == nil && strings.HasPrefix(current, p.opts.Dashboard.LandingURL) {
		return nil
	}
	return retry.Run(ctx, p.opts.Retry, func(ctx context.Context) error {
		return page.Navigate(ctx, p.opts.Dashboard.LandingURL)
	})
}

func (p *Pipeline) snapshot(ctx context.Context, now time.Time, html string) {
	if p.opts.SnapshotDir == "" {
		return
	}
	log := zerolog.Ctx(ctx)
	name := now.In(scraper.Zone).Format("2006-01-02T150405")
	htmlPath, mdPath, err := snapshot.NewWriter(p.opts.SnapshotDir).Write(name, html)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to write snapshot")
		return
	}
	log.Info().Str("html", htmlPath).Str("markdown", mdPath).Msg("Snapshot written")
}

// OptionsFromConfig resolves the dashboard profile and maps cfg onto Options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	d, ok := scraper.Get(cfg.Site)
	if !ok {
		return Options{}, fmt.Errorf("unknown site: %s (available: %s)", cfg.Site, strings.Join(scraper.Names(), ", "))
	}
	if cfg.Dashboard.LandingURL != "" {
		d.LandingURL = cfg.Dashboard.LandingURL
	}
	if cfg.Dashboard.LoginURL != "" {
		d.LoginURL = cfg.Dashboard.LoginURL
	}
	if cfg.Dashboard.CookieDomain != "" {
		d.CookieDomain = cfg.Dashboard.CookieDomain
	}

	return Options{
		Dashboard: d,
		Credentials: session.Credentials{
			Cookie:   cfg.Auth.Cookie,
			Email:    cfg.Auth.Email,
			Password: cfg.Auth.Password,
		},
		Browser: browser.Config{
			ProxyURL:  cfg.Browser.ProxyURL,
			Headless:  cfg.Browser.Headless,
			UserAgent: cfg.Browser.UserAgent,
			Timeout:   cfg.Browser.Timeout.Std(),
		},
		Retry: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay.Std(),
		},
		Scroll: convergence.Options{
			Settle:        cfg.Scroll.Settle.Std(),
			MaxIterations: cfg.Scroll.MaxIterations,
		},
		SnapshotDir: cfg.SnapshotDir,
		DryRun:      cfg.DryRun,
	}, nil
}
