package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkstat/internal/browser/browsertest"
	"linkstat/internal/retry"
	"linkstat/internal/scraper"
)

var testDashboard = scraper.Dashboard{
	Name:                "test",
	LandingURL:          "https://dash.example/admin/links",
	LoginURL:            "https://dash.example/login",
	CookieDomain:        ".dash.example",
	AuthenticatedMarker: "/admin",
	LoginMarker:         "/login",
	Form: scraper.LoginForm{
		Email:    "#email",
		Password: "#password",
		Submit:   "#submit",
	},
}

var fastPolicy = retry.Policy{MaxAttempts: 3}

func TestNewResolverRequiresAuthMethod(t *testing.T) {
	_, err := NewResolver(testDashboard, Credentials{}, fastPolicy)
	assert.ErrorIs(t, err, ErrNoAuthMethod)

	_, err = NewResolver(testDashboard, Credentials{Email: "a@b.c"}, fastPolicy)
	assert.ErrorIs(t, err, ErrNoAuthMethod, "half a credential pair is not an auth method")

	_, err = NewResolver(testDashboard, Credentials{Cookie: "sid=1"}, fastPolicy)
	assert.NoError(t, err)
}

func TestResolveWithValidCookie(t *testing.T) {
	page := &browsertest.Page{}
	r, err := NewResolver(testDashboard, Credentials{Cookie: "sid=abc; bad", Email: "a@b.c", Password: "pw"}, fastPolicy)
	require.NoError(t, err)

	s, err := r.Resolve(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, &Session{Method: MethodCookie, Valid: true}, s)
	assert.Equal(t, ".dash.example", page.CookieDomain)
	assert.Equal(t, []CookieCredential{{Name: "sid", Value: "abc"}}, page.Cookies)
	assert.Empty(t, page.CallsWithPrefix("fill"), "no login form interaction")
	assert.Empty(t, page.CallsWithPrefix("click"))
}

func TestResolveExpiredCookieFallsBackToLogin(t *testing.T) {
	page := &browsertest.Page{
		Redirects:      map[string]string{testDashboard.LandingURL: "https://dash.example/login?next=/admin"},
		ClickNavigates: map[string]string{"#submit": testDashboard.LandingURL},
	}
	r, err := NewResolver(testDashboard, Credentials{Cookie: "sid=old", Email: "me@dash.example", Password: "secret"}, fastPolicy)
	require.NoError(t, err)

	s, err := r.Resolve(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, MethodCredentials, s.Method)
	assert.True(t, s.Valid)
	assert.Equal(t, map[string]string{"#email": "me@dash.example", "#password": "secret"}, page.Filled)
	assert.Equal(t, []string{
		"cookies .dash.example",
		"navigate https://dash.example/admin/links",
		"navigate https://dash.example/login",
		"fill #email",
		"fill #password",
		"click #submit",
		"wait-url /admin",
	}, page.Calls)
}

func TestResolveExpiredCookieWithoutCredentials(t *testing.T) {
	page := &browsertest.Page{
		Redirects: map[string]string{testDashboard.LandingURL: "https://dash.example/login"},
	}
	r, err := NewResolver(testDashboard, Credentials{Cookie: "sid=old"}, fastPolicy)
	require.NoError(t, err)

	s, err := r.Resolve(context.Background(), page)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrCookieAuthFailedNoFallback)
}

func TestResolveUnparseableCookieWithoutCredentials(t *testing.T) {
	r, err := NewResolver(testDashboard, Credentials{Cookie: "garbage"}, fastPolicy)
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), &browsertest.Page{})
	assert.ErrorIs(t, err, ErrCookieAuthFailedNoFallback)
}

func TestResolveCookieNavigationErrorFallsBack(t *testing.T) {
	page := &browsertest.Page{
		NavigateErrs:   map[string][]error{testDashboard.LandingURL: {errors.New("net::ERR_CONNECTION_RESET")}},
		ClickNavigates: map[string]string{"#submit": testDashboard.LandingURL},
	}
	r, err := NewResolver(testDashboard, Credentials{Cookie: "sid=1", Email: "a@b.c", Password: "pw"}, fastPolicy)
	require.NoError(t, err)

	s, err := r.Resolve(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, MethodCredentials, s.Method)
}

func TestResolveCredentialsOnly(t *testing.T) {
	page := &browsertest.Page{
		ClickNavigates: map[string]string{"#submit": testDashboard.LandingURL},
	}
	r, err := NewResolver(testDashboard, Credentials{Email: "a@b.c", Password: "pw"}, fastPolicy)
	require.NoError(t, err)

	s, err := r.Resolve(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, MethodCredentials, s.Method)
	assert.Empty(t, page.CallsWithPrefix("cookies"))
}

func TestResolveLoginRetriesTransientFailure(t *testing.T) {
	page := &browsertest.Page{
		NavigateErrs:   map[string][]error{testDashboard.LoginURL: {errors.New("timeout")}},
		ClickNavigates: map[string]string{"#submit": testDashboard.LandingURL},
	}
	r, err := NewResolver(testDashboard, Credentials{Email: "a@b.c", Password: "pw"}, fastPolicy)
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), page)
	require.NoError(t, err)
	assert.Len(t, page.CallsWithPrefix("navigate "+testDashboard.LoginURL), 2)
}

func TestResolveLoginTimeoutAfterRetries(t *testing.T) {
	// Submitting never leaves the login page.
	page := &browsertest.Page{}
	r, err := NewResolver(testDashboard, Credentials{Email: "a@b.c", Password: "wrong"}, fastPolicy)
	require.NoError(t, err)

	s, err := r.Resolve(context.Background(), page)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrLoginTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, page.CallsWithPrefix("click"), 3)
}

func TestCookieOutcomeString(t *testing.T) {
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "needs-fallback", NeedsFallback.String())
}
