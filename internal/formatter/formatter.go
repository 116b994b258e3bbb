package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	"linkstat/internal/scraper"
)

// Formats lists the accepted --format values.
var Formats = []string{"json", "csv", "markdown", "text", "html"}

func Format(batch scraper.Batch, format string) (string, error) {
	switch format {
	case "json":
		b, err := json.MarshalIndent(batch, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	case "csv":
		return toCSV(batch)
	case "markdown":
		return toMarkdown(batch), nil
	case "text":
		return toText(batch), nil
	case "html":
		return toHTML(batch), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

func toCSV(batch scraper.Batch) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Date", "Title", "URL", "Clicks"})
	for _, r := range batch.Items() {
		_ = w.Write([]string{batch.DateISO(), r.Title, r.URL, strconv.Itoa(r.Clicks)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.String(), nil
}

func toMarkdown(batch scraper.Batch) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Link clicks %s\n\n", batch.DateISO()))
	sb.WriteString(fmt.Sprintf("%d links\n\n", batch.Len()))
	sb.WriteString("| # | Title | Clicks |\n|---|---|---|\n")
	for i, r := range batch.Items() {
		title := strings.ReplaceAll(r.Title, "|", `\|`)
		sb.WriteString(fmt.Sprintf("| %d | [%s](%s) | %d |\n", i+1, title, r.URL, r.Clicks))
	}
	return sb.String()
}

func toText(batch scraper.Batch) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Link clicks %s\n\n", batch.DateISO()))
	for i, r := range batch.Items() {
		sb.WriteString(fmt.Sprintf("%d. %s (%d clicks)\n   %s\n", i+1, r.Title, r.Clicks, r.URL))
	}
	return sb.String()
}

func toHTML(batch scraper.Batch) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<h1>Link clicks %s</h1>\n<table>\n", html.EscapeString(batch.DateISO())))
	sb.WriteString("  <tr><th>Title</th><th>Clicks</th></tr>\n")
	for _, r := range batch.Items() {
		sb.WriteString(fmt.Sprintf("  <tr><td><a href=%q>%s</a></td><td>%d</td></tr>\n",
			html.EscapeString(r.URL), html.EscapeString(r.Title), r.Clicks))
	}
	sb.WriteString("</table>\n")
	return sb.String()
}
