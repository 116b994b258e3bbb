// Package browsertest provides scripted in-memory implementations of
// browser.Browser and browser.Page.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"linkstat/internal/browser"
)

// Page is a scripted browser.Page. Zero value is usable.
type Page struct {
	// Redirects maps a navigation target to the URL the page ends up on.
	Redirects map[string]string
	// ClickNavigates maps a clicked selector to the URL the page moves to.
	ClickNavigates map[string]string
	// NavigateErrs holds errors returned by successive Navigate calls for a URL.
	NavigateErrs map[string][]error
	// Heights is returned by successive ScrollHeight calls; the last value repeats.
	Heights   []int
	HeightErr error
	Document  string

	Calls        []string
	Cookies      []browser.Cookie
	CookieDomain string
	Filled       map[string]string
	Scrolls      int
	Closed       bool

	current   string
	heightIdx int
}

func (p *Page) record(format string, args ...any) {
	p.Calls = append(p.Calls, fmt.Sprintf(format, args...))
}

// CallsWithPrefix returns the recorded calls that start with prefix.
func (p *Page) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range p.Calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.record("navigate %s", url)
	if errs := p.NavigateErrs[url]; len(errs) > 0 {
		p.NavigateErrs[url] = errs[1:]
		if errs[0] != nil {
			return errs[0]
		}
	}
	if target, ok := p.Redirects[url]; ok {
		p.current = target
		return nil
	}
	p.current = url
	return nil
}

func (p *Page) URL(ctx context.Context) (string, error) {
	return p.current, nil
}

func (p *Page) SetCookies(ctx context.Context, domain string, cookies []browser.Cookie) error {
	p.record("cookies %s", domain)
	p.CookieDomain = domain
	p.Cookies = append(p.Cookies, cookies...)
	return nil
}

func (p *Page) Fill(ctx context.Context, selector, value string) error {
	p.record("fill %s", selector)
	if p.Filled == nil {
		p.Filled = make(map[string]string)
	}
	p.Filled[selector] = value
	return nil
}

func (p *Page) Click(ctx context.Context, selector string) error {
	p.record("click %s", selector)
	if target, ok := p.ClickNavigates[selector]; ok {
		p.current = target
	}
	return nil
}

func (p *Page) WaitURL(ctx context.Context, fragment string, timeout time.Duration) error {
	p.record("wait-url %s", fragment)
	if strings.Contains(p.current, fragment) {
		return nil
	}
	return fmt.Errorf("url did not reach %q: %w", fragment, context.DeadlineExceeded)
}

func (p *Page) ScrollHeight(ctx context.Context) (int, error) {
	if p.HeightErr != nil {
		return 0, p.HeightErr
	}
	if len(p.Heights) == 0 {
		return 0, nil
	}
	h := p.Heights[p.heightIdx]
	if p.heightIdx < len(p.Heights)-1 {
		p.heightIdx++
	}
	return h, nil
}

func (p *Page) ScrollToBottom(ctx context.Context) error {
	p.Scrolls++
	return nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.Document, nil
}

func (p *Page) Close() error {
	p.Closed = true
	return nil
}

// Browser hands out a single scripted Page.
type Browser struct {
	Page       *Page
	NewPageErr error
	Closed     bool
}

func (b *Browser) NewPage() (browser.Page, error) {
	if b.NewPageErr != nil {
		return nil, b.NewPageErr
	}
	if b.Page == nil {
		b.Page = &Page{}
	}
	return b.Page, nil
}

func (b *Browser) Close() error {
	b.Closed = true
	return nil
}

// Launcher returns a browser.Launcher that always yields b.
func Launcher(b *Browser) browser.Launcher {
	return func(cfg browser.Config) (browser.Browser, error) {
		return b, nil
	}
}

var (
	_ browser.Page    = (*Page)(nil)
	_ browser.Browser = (*Browser)(nil)
)
