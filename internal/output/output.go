package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"linkstat/internal/formatter"
	"linkstat/internal/scraper"
)

// Sink renders batches for local inspection instead of webhook delivery.
type Sink struct {
	Format string
	// Path is the output file; empty writes to Stdout.
	Path   string
	Stdout io.Writer
	Stderr io.Writer
}

// NewSink infers the format from path's extension when format is empty.
func NewSink(format, path string) (*Sink, error) {
	if format == "" {
		format = InferFormat(path)
	}
	if format == "" {
		format = "json"
	}
	valid := false
	for _, f := range formatter.Formats {
		if f == format {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("invalid output format: %s (valid: %s)", format, strings.Join(formatter.Formats, ", "))
	}
	return &Sink{Format: format, Path: path, Stdout: os.Stdout, Stderr: os.Stderr}, nil
}

func (s *Sink) Write(batch scraper.Batch) error {
	content, err := formatter.Format(batch, s.Format)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if s.Path == "" {
		_, err := fmt.Fprintln(s.Stdout, content)
		return err
	}
	if err := os.WriteFile(s.Path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	fmt.Fprintf(s.Stderr, "Output written to: %s\n", s.Path)
	return nil
}

// InferFormat maps a file extension to a format name, or "" if unknown.
func InferFormat(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return "markdown"
	case ".json":
		return "json"
	case ".html", ".htm":
		return "html"
	case ".txt":
		return "text"
	case ".csv":
		return "csv"
	default:
		return ""
	}
}
