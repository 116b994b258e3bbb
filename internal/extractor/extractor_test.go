package extractor

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkstat/internal/scraper"
	"linkstat/internal/sites/litlink"
)

var selectors = scraper.CardSelectors{
	Cards:  []string{".missing-card", ".card"},
	Clicks: []string{".stats"},
	Titles: []scraper.TitleHint{
		{Selector: "input.title", Attr: "value"},
		{Selector: ".label"},
	},
	Links: []string{"a[href]"},
}

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

func TestExtract(t *testing.T) {
	html := `<ul>
	  <li class="card">
	    <input class="title" value="  Online shop ">
	    <a href="/edit/1">edit</a>
	    <a href="https://shop.example/">open</a>
	    <div class="stats"><span>42 clicks</span></div>
	  </li>
	  <li class="card">
	    <span class="label">Blog</span>
	    <a href="http://blog.example">open</a>
	    <p>1 click</p>
	  </li>
	  <li class="card">
	    <span class="label">No stats</span>
	    <a href="https://nostats.example">open</a>
	  </li>
	</ul>`

	got := Extract(context.Background(), doc(t, html), selectors)

	assert.Equal(t, []scraper.LinkRecord{
		{Title: "Online shop", URL: "https://shop.example/", Clicks: 42},
		{Title: "Blog", URL: "http://blog.example", Clicks: 1},
		{Title: "No stats", URL: "https://nostats.example", Clicks: 0},
	}, got)
}

func TestExtractDropsIncompleteCards(t *testing.T) {
	html := `
	  <div class="card"><span class="label">No link</span><a href="mailto:me@example.com">mail</a></div>
	  <div class="card"><a href="https://untitled.example">open</a><span>3 clicks</span></div>
	  <div class="card"><input class="title" value=""><span class="label">Fallback title</span><a href="https://ok.example">x</a></div>`

	got := Extract(context.Background(), doc(t, html), selectors)

	require.Len(t, got, 1)
	assert.Equal(t, "Fallback title", got[0].Title)
	for _, r := range got {
		assert.NotEmpty(t, r.Title)
		assert.NotEmpty(t, r.URL)
	}
}

func TestExtractNoCards(t *testing.T) {
	got := Extract(context.Background(), doc(t, `<p>Nothing here</p>`), selectors)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = Extract(context.Background(), doc(t, ``), selectors)
	assert.Empty(t, got)
}

func TestExtractFirstMatchingCardSelectorWins(t *testing.T) {
	sel := selectors
	sel.Cards = []string{".primary", ".card"}
	html := `
	  <div class="primary"><span class="label">Primary</span><a href="https://p.example">p</a></div>
	  <div class="card"><span class="label">Secondary</span><a href="https://s.example">s</a></div>`

	got := Extract(context.Background(), doc(t, html), sel)

	require.Len(t, got, 1)
	assert.Equal(t, "Primary", got[0].Title)
}

func TestClicks(t *testing.T) {
	tests := []struct {
		name string
		html string
		want int
	}{
		{"plain", `<span>17 clicks</span>`, 17},
		{"singular", `<span>1 click</span>`, 1},
		{"case insensitive", `<span>5 Clicks</span>`, 5},
		{"no space", `<span>8clicks</span>`, 8},
		{"comma separated keeps first digit group", `<span>1,234 clicks</span>`, 1},
		{"wrapper skipped for innermost", `<div>Top 10 links <span>7 clicks</span></div>`, 7},
		{"split across nodes", `<b>12</b> clicks`, 12},
		{"no match", `<span>views: 9</span>`, 0},
		{"empty", ``, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := doc(t, `<div id="card">`+tt.html+`</div>`).Find("#card")
			assert.Equal(t, tt.want, Clicks(card, nil))
		})
	}
}

func TestClicksHintsTakePriority(t *testing.T) {
	card := doc(t, `<div id="card"><p>3 clicks last week</p><div class="stats">9 clicks</div></div>`).Find("#card")
	assert.Equal(t, 9, Clicks(card, []string{".stats"}))
	assert.Equal(t, 3, Clicks(card, []string{".absent"}))

	wrapped := doc(t, `<div id="card"><p>3 clicks last week</p><div class="stats"><span>9 clicks</span></div></div>`).Find("#card")
	assert.Equal(t, 9, Clicks(wrapped, []string{".stats"}), "hinted wrapper is searched before the whole card")
	assert.Equal(t, 9, Clicks(wrapped, []string{".absent", ".stats"}))
}

func TestURLSkipsNonWebSchemes(t *testing.T) {
	card := doc(t, `<div id="card">
	  <a href="#top">top</a>
	  <a href="javascript:void(0)">js</a>
	  <a href="HTTPS://Upper.example/path">ok</a>
	</div>`).Find("#card")
	assert.Equal(t, "HTTPS://Upper.example/path", URL(card, nil))
}

func TestExtractHTMLWithLitlinkProfile(t *testing.T) {
	html := `<html><body><ul>
	  <li draggable="true">
	    <input type="text" value="Newsletter">
	    <a href="https://news.example/subscribe">link</a>
	    <div class="sc-abc clickCount">1,234 clicks</div>
	  </li>
	  <li draggable="true">
	    <input type="text" value="">
	    <a href="https://nameless.example">link</a>
	  </li>
	</ul></body></html>`

	got, err := ExtractHTML(context.Background(), html, litlink.Dashboard().Cards)

	require.NoError(t, err)
	assert.Equal(t, []scraper.LinkRecord{
		{Title: "Newsletter", URL: "https://news.example/subscribe", Clicks: 1},
	}, got)
}
