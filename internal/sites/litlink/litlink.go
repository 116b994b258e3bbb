// Package litlink registers the lit.link creator dashboard.
package litlink

import "linkstat/internal/scraper"

func init() {
	scraper.Register(Dashboard())
}

// Dashboard returns the lit.link profile. The admin UI ships hashed class
// names, so card selectors go from stable attributes to loose substring matches.
func Dashboard() scraper.Dashboard {
	return scraper.Dashboard{
		Name:                "litlink",
		LandingURL:          "https://lit.link/admin/creator",
		LoginURL:            "https://lit.link/login",
		CookieDomain:        ".lit.link",
		AuthenticatedMarker: "/admin",
		LoginMarker:         "/login",
		Form: scraper.LoginForm{
			Email:    `input[type="email"]`,
			Password: `input[type="password"]`,
			Submit:   `button[type="submit"]`,
		},
		Cards: scraper.CardSelectors{
			Cards: []string{
				`[data-testid="link-card"]`,
				`[class*="LinkCard"]`,
				`.link-card`,
				`li[draggable="true"]`,
			},
			Clicks: []string{
				`[data-testid="click-count"]`,
				`[class*="click"]`,
				`[class*="Click"]`,
			},
			Titles: []scraper.TitleHint{
				{Selector: `input[name="title"]`, Attr: "value"},
				{Selector: `input[type="text"]`, Attr: "value"},
				{Selector: `[data-testid="link-title"]`},
				{Selector: `[class*="title"]`},
				{Selector: `[class*="Title"]`},
			},
			Links: []string{`a[href]`},
		},
	}
}
