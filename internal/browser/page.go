package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Cookie is a single name/value pair injected into the browser.
type Cookie struct {
	Name  string
	Value string
}

// Page is the subset of browser behaviour the pipeline relies on.
type Page interface {
	// Navigate loads url and waits until the network is quiet.
	Navigate(ctx context.Context, url string) error
	// URL returns the current location.
	URL(ctx context.Context) (string, error)
	// SetCookies injects cookies bound to domain.
	SetCookies(ctx context.Context, domain string, cookies []Cookie) error
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	// WaitURL blocks until the current location contains fragment or timeout elapses.
	WaitURL(ctx context.Context, fragment string, timeout time.Duration) error
	ScrollHeight(ctx context.Context) (int, error)
	ScrollToBottom(ctx context.Context) error
	// HTML serializes the current document.
	HTML(ctx context.Context) (string, error)
	Close() error
}

type rodPage struct {
	page    *rod.Page
	timeout time.Duration
}

// bound scopes the page to ctx limited by the per-operation timeout. Callers
// must call the returned cancel once the operation is done.
func (p *rodPage) bound(ctx context.Context) (*rod.Page, context.CancelFunc) {
	ctx, cancel := withTimeout(ctx, p.timeout)
	return p.page.Context(ctx), cancel
}

// withTimeout leaves ctx without a deadline when d <= 0.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	page, cancel := p.bound(ctx)
	defer cancel()

	// Images and media never settle on some dashboards; ignore them for idleness.
	wait := page.WaitRequestIdle(
		500*time.Millisecond, nil, nil,
		[]proto.NetworkResourceType{proto.NetworkResourceTypeImage, proto.NetworkResourceTypeMedia},
	)

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for page load: %w", err)
	}
	wait()
	return nil
}

func (p *rodPage) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("failed to read page info: %w", err)
	}
	return info.URL, nil
}

func (p *rodPage) SetCookies(ctx context.Context, domain string, cookies []Cookie) error {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:   c.Name,
			Value:  c.Value,
			Domain: domain,
			Path:   "/",
		})
	}
	if err := p.page.Context(ctx).SetCookies(params); err != nil {
		return fmt.Errorf("failed to set cookies: %w", err)
	}
	return nil
}

func (p *rodPage) Fill(ctx context.Context, selector, value string) error {
	page, cancel := p.bound(ctx)
	defer cancel()

	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("failed to find %q: %w", selector, err)
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("failed to focus %q: %w", selector, err)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("failed to fill %q: %w", selector, err)
	}
	return nil
}

func (p *rodPage) Click(ctx context.Context, selector string) error {
	page, cancel := p.bound(ctx)
	defer cancel()

	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("failed to find %q: %w", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click %q: %w", selector, err)
	}
	return nil
}

func (p *rodPage) WaitURL(ctx context.Context, fragment string, timeout time.Duration) error {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	err := p.page.Context(ctx).Wait(
		rod.Eval(`(fragment) => window.location.href.includes(fragment)`, fragment),
	)
	if err != nil {
		return fmt.Errorf("url did not reach %q: %w", fragment, err)
	}
	return nil
}

func (p *rodPage) ScrollHeight(ctx context.Context) (int, error) {
	page, cancel := p.bound(ctx)
	defer cancel()

	res, err := page.Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, fmt.Errorf("failed to measure document height: %w", err)
	}
	return res.Value.Int(), nil
}

func (p *rodPage) ScrollToBottom(ctx context.Context) error {
	page, cancel := p.bound(ctx)
	defer cancel()

	if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
		return fmt.Errorf("failed to scroll: %w", err)
	}
	return nil
}

// HTML copies live form values into attributes first, otherwise inputs edited
// by the page scripts serialize with stale or missing value attributes.
func (p *rodPage) HTML(ctx context.Context) (string, error) {
	page, cancel := p.bound(ctx)
	defer cancel()

	res, err := page.Eval(`() => {
		document.querySelectorAll('input, textarea').forEach(el => {
			el.setAttribute('value', el.value);
		});
		return document.documentElement.outerHTML;
	}`)
	if err != nil {
		return "", fmt.Errorf("failed to serialize document: %w", err)
	}
	return res.Value.Str(), nil
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
