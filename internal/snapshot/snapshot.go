// Package snapshot stores the stabilized dashboard document so selector
// changes on the dashboard can be diagnosed after a run.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Writer writes snapshots into one directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write stores html as <name>.html and a Markdown rendition as <name>.md,
// returning both paths.
func (w *Writer) Write(name, html string) (htmlPath, mdPath string, err error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	htmlPath = filepath.Join(w.dir, name+".html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write html snapshot: %w", err)
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return htmlPath, "", fmt.Errorf("failed to convert snapshot to markdown: %w", err)
	}

	mdPath = filepath.Join(w.dir, name+".md")
	if err := os.WriteFile(mdPath, []byte(markdown), 0o644); err != nil {
		return htmlPath, "", fmt.Errorf("failed to write markdown snapshot: %w", err)
	}
	return htmlPath, mdPath, nil
}
