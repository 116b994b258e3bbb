package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"linkstat/internal/browser"
	"linkstat/internal/retry"
	"linkstat/internal/scraper"
)

var (
	ErrNoAuthMethod               = errors.New("no authentication method available: provide a cookie or email and password")
	ErrCookieAuthFailedNoFallback = errors.New("cookie authentication failed and no credentials are configured")
	ErrLoginTimeout               = errors.New("login did not reach the authenticated area in time")
)

// LoginWait bounds the wait for the post-login redirect.
const LoginWait = 10 * time.Second

// Method is how a session was authenticated.
type Method string

const (
	MethodCookie      Method = "cookie"
	MethodCredentials Method = "credentials"
)

// Session is an authenticated browsing context.
type Session struct {
	Method Method
	Valid  bool
}

// CookieOutcome is the result of the cookie stage.
type CookieOutcome int

const (
	Authenticated CookieOutcome = iota
	NeedsFallback
)

func (o CookieOutcome) String() string {
	switch o {
	case Authenticated:
		return "authenticated"
	case NeedsFallback:
		return "needs-fallback"
	default:
		return fmt.Sprintf("CookieOutcome(%d)", int(o))
	}
}

// Credentials holds the optional authentication material.
type Credentials struct {
	Cookie   string
	Email    string
	Password string
}

func (c Credentials) hasCookie() bool {
	return strings.TrimSpace(c.Cookie) != ""
}

func (c Credentials) hasLogin() bool {
	return c.Email != "" && c.Password != ""
}

// Resolver establishes an authenticated session on a dashboard.
type Resolver struct {
	dashboard scraper.Dashboard
	creds     Credentials
	policy    retry.Policy
	loginWait time.Duration
}

// NewResolver fails with ErrNoAuthMethod when neither a cookie nor a complete
// email/password pair is available.
func NewResolver(d scraper.Dashboard, creds Credentials, policy retry.Policy) (*Resolver, error) {
	if !creds.hasCookie() && !creds.hasLogin() {
		return nil, ErrNoAuthMethod
	}
	return &Resolver{
		dashboard: d,
		creds:     creds,
		policy:    policy,
		loginWait: LoginWait,
	}, nil
}

// Resolve authenticates page, trying the cookie first and the login form second.
func (r *Resolver) Resolve(ctx context.Context, page browser.Page) (*Session, error) {
	log := zerolog.Ctx(ctx)

	cookieTried := r.creds.hasCookie()
	if cookieTried {
		outcome := r.tryCookies(ctx, page)
		log.Info().Stringer("outcome", outcome).Msg("Cookie authentication finished")
		if outcome == Authenticated {
			return &Session{Method: MethodCookie, Valid: true}, nil
		}
	}

	if !r.creds.hasLogin() {
		if cookieTried {
			return nil, ErrCookieAuthFailedNoFallback
		}
		return nil, ErrNoAuthMethod
	}

	if err := r.login(ctx, page); err != nil {
		return nil, err
	}
	log.Info().Msg("Logged in with credentials")
	return &Session{Method: MethodCredentials, Valid: true}, nil
}

// tryCookies never fails the run: any problem means the login form is next.
func (r *Resolver) tryCookies(ctx context.Context, page browser.Page) CookieOutcome {
	log := zerolog.Ctx(ctx)

	cookies := ParseCookies(r.creds.Cookie)
	if len(cookies) == 0 {
		log.Warn().Msg("Cookie header contained no usable pairs")
		return NeedsFallback
	}

	if err := page.SetCookies(ctx, r.dashboard.CookieDomain, cookies); err != nil {
		log.Warn().Err(err).Msg("Failed to inject cookies")
		return NeedsFallback
	}

	if err := page.Navigate(ctx, r.dashboard.LandingURL); err != nil {
		log.Warn().Err(err).Msg("Failed to open dashboard with cookies")
		return NeedsFallback
	}

	current, err := page.URL(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read URL after cookie navigation")
		return NeedsFallback
	}
	if r.isLoginRedirect(current) {
		log.Warn().Str("url", current).Msg("Cookie rejected, redirected to login")
		return NeedsFallback
	}
	return Authenticated
}

func (r *Resolver) isLoginRedirect(current string) bool {
	return r.dashboard.LoginMarker != "" && strings.Contains(current, r.dashboard.LoginMarker)
}

func (r *Resolver) login(ctx context.Context, page browser.Page) error {
	form := r.dashboard.Form
	return retry.Run(ctx, r.policy, func(ctx context.Context) error {
		if err := page.Navigate(ctx, r.dashboard.LoginURL); err != nil {
			return err
		}
		if err := page.Fill(ctx, form.Email, r.creds.Email); err != nil {
			return err
		}
		if err := page.Fill(ctx, form.Password, r.creds.Password); err != nil {
			return err
		}
		if err := page.Click(ctx, form.Submit); err != nil {
			return err
		}
		if err := page.WaitURL(ctx, r.dashboard.AuthenticatedMarker, r.loginWait); err != nil {
			return fmt.Errorf("%w: %w", ErrLoginTimeout, err)
		}
		return nil
	})
}
