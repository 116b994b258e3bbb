package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"linkstat/internal/scraper"
)

var (
	clicksPattern = regexp.MustCompile(`(?i)\d+\s*clicks?`)
	// Only the first run of digits is read, so "1,234 clicks" yields 1.
	digitsPattern = regexp.MustCompile(`\d+`)
)

// ExtractHTML parses html and extracts the link records from it.
func ExtractHTML(ctx context.Context, html string, sel scraper.CardSelectors) ([]scraper.LinkRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return Extract(ctx, doc, sel), nil
}

// Extract returns one record per card carrying both a title and a URL, in
// document order. Cards that fail to parse are logged and skipped.
func Extract(ctx context.Context, doc *goquery.Document, sel scraper.CardSelectors) []scraper.LinkRecord {
	log := zerolog.Ctx(ctx)

	cards, selector := findCards(doc.Selection, sel.Cards)
	if cards.Length() == 0 {
		log.Warn().Msg("No link cards matched any selector")
		return []scraper.LinkRecord{}
	}
	log.Debug().Str("selector", selector).Int("cards", cards.Length()).Msg("Matched link cards")

	records := make([]scraper.LinkRecord, 0, cards.Length())
	cards.Each(func(i int, card *goquery.Selection) {
		rec, err := extractCard(card, sel)
		if err != nil {
			log.Warn().Int("card", i).Err(err).Msg("Skipping card")
			return
		}
		if !rec.Valid() {
			log.Debug().Int("card", i).Str("title", rec.Title).Str("url", rec.URL).Msg("Dropping incomplete card")
			return
		}
		records = append(records, rec)
	})
	return records
}

func findCards(root *goquery.Selection, selectors []string) (*goquery.Selection, string) {
	for _, s := range selectors {
		if found := root.Find(s); found.Length() > 0 {
			return found, s
		}
	}
	return root.Find("__none__"), ""
}

func extractCard(card *goquery.Selection, sel scraper.CardSelectors) (rec scraper.LinkRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while reading card: %v", r)
		}
	}()

	return scraper.LinkRecord{
		Title:  Title(card, sel.Titles),
		URL:    URL(card, sel.Links),
		Clicks: Clicks(card, sel.Clicks),
	}, nil
}

// Clicks looks for "<n> clicks" text under the hint selectors first, then in
// the whole card. Returns 0 when nothing matches.
func Clicks(card *goquery.Selection, hints []string) int {
	for _, h := range hints {
		hinted := card.Find(h)
		if n, ok := clicksIn(hinted.AddSelection(hinted.Find("*"))); ok {
			return n
		}
	}
	if n, ok := clicksIn(card.Find("*")); ok {
		return n
	}
	if n, ok := parseClicks(strings.TrimSpace(card.Text())); ok {
		return n
	}
	return 0
}

// clicksIn reads the first node whose text holds a click count and whose
// descendants do not, so wrappers around the counter are skipped.
func clicksIn(nodes *goquery.Selection) (int, bool) {
	var (
		n     int
		found bool
	)
	nodes.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !hasClicks(s) || s.Find("*").FilterFunction(func(_ int, d *goquery.Selection) bool {
			return hasClicks(d)
		}).Length() > 0 {
			return true
		}
		n, found = parseClicks(strings.TrimSpace(s.Text()))
		return !found
	})
	return n, found
}

func hasClicks(s *goquery.Selection) bool {
	return clicksPattern.MatchString(s.Text())
}

func parseClicks(text string) (int, bool) {
	if !clicksPattern.MatchString(text) {
		return 0, false
	}
	n, err := strconv.Atoi(digitsPattern.FindString(text))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Title returns the first non-empty candidate from the hints.
func Title(card *goquery.Selection, hints []scraper.TitleHint) string {
	for _, h := range hints {
		var title string
		card.Find(h.Selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if h.Attr != "" {
				title = strings.TrimSpace(s.AttrOr(h.Attr, ""))
			} else {
				title = strings.TrimSpace(s.Text())
			}
			return title == ""
		})
		if title != "" {
			return title
		}
	}
	return ""
}

// URL returns the href of the first anchor pointing at an http(s) target.
func URL(card *goquery.Selection, selectors []string) string {
	if len(selectors) == 0 {
		selectors = []string{"a[href]"}
	}
	for _, s := range selectors {
		var href string
		card.Find(s).EachWithBreak(func(_ int, a *goquery.Selection) bool {
			v := strings.TrimSpace(a.AttrOr("href", ""))
			if isWebURL(v) {
				href = v
				return false
			}
			return true
		})
		if href != "" {
			return href
		}
	}
	return ""
}

func isWebURL(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
