package browser

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config holds browser launch options.
type Config struct {
	ProxyURL  string
	Headless  bool
	UserAgent string
	// Timeout bounds every single page operation (navigation, element lookup, eval).
	Timeout time.Duration
}

// Launcher opens a browser. The pipeline depends on this instead of New so
// tests can substitute an in-memory browser.
type Launcher func(cfg Config) (Browser, error)

// Browser is a disposable browser process.
type Browser interface {
	NewPage() (Page, error)
	Close() error
}

// RodBrowser wraps a rod.Browser instance and the launcher that started it.
type RodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      Config
}

// New launches a Chromium instance and connects to it.
func New(cfg Config) (Browser, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	l := launcher.New().Headless(cfg.Headless)
	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &RodBrowser{
		browser:  b,
		launcher: l,
		cfg:      cfg,
	}, nil
}

// NewPage opens a blank tab with the user agent override applied and the
// webdriver flag hidden.
func (b *RodBrowser) NewPage() (Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: b.cfg.UserAgent,
	})
	_, _ = page.EvalOnNewDocument(`Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`)

	return &rodPage{page: page, timeout: b.cfg.Timeout}, nil
}

// Close closes the browser and kills the launched process.
func (b *RodBrowser) Close() error {
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			return err
		}
	}
	if b.launcher != nil {
		b.launcher.Kill()
	}
	return nil
}

var _ Browser = (*RodBrowser)(nil)

