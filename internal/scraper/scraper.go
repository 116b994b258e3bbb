package scraper

// Dashboard describes one link-in-bio dashboard: where to log in, how to
// recognise the authenticated area and how its link cards are laid out.
type Dashboard struct {
	Name string
	// LandingURL is the authenticated page listing the link cards.
	LandingURL string
	LoginURL   string
	// CookieDomain is the domain session cookies are bound to, e.g. ".lit.link".
	CookieDomain string
	// AuthenticatedMarker is a URL fragment only present inside the authenticated area.
	AuthenticatedMarker string
	// LoginMarker is a URL fragment present when the dashboard redirected to its login page.
	LoginMarker string
	Form        LoginForm
	Cards       CardSelectors
}

// LoginForm holds the selectors of the credential login form.
type LoginForm struct {
	Email    string
	Password string
	Submit   string
}

// CardSelectors are ordered probe lists. Earlier entries win.
type CardSelectors struct {
	// Cards: the first selector that matches anything defines the card set.
	Cards []string
	// Clicks: hints searched for "<n> clicks" text before scanning the whole card.
	Clicks []string
	Titles []TitleHint
	// Links: anchors considered for the card URL.
	Links []string
}

// TitleHint selects a title candidate. With Attr set, the attribute value is
// used (e.g. "value" for inputs); otherwise the trimmed text content.
type TitleHint struct {
	Selector string
	Attr     string
}
