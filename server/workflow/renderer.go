package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Section is one titled block of a rendered document.
type Section struct {
	Heading string
	Body    string
}

// Document is the renderer input assembled by the report nodes.
type Document struct {
	Title    string
	Sections []Section
	Metadata map[string]string
}

// DocumentRenderer persists a document and returns the artifact path.
type DocumentRenderer interface {
	Render(doc Document) (string, error)
}

// MarkdownRenderer writes documents as markdown files under a directory.
type MarkdownRenderer struct {
	Dir string
}

func NewMarkdownRenderer(dir string) *MarkdownRenderer {
	return &MarkdownRenderer{Dir: dir}
}

func (r *MarkdownRenderer) Render(doc Document) (string, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create report directory")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	if len(doc.Metadata) > 0 {
		for _, key := range sortedKeys(doc.Metadata) {
			fmt.Fprintf(&b, "- %s: %s\n", key, doc.Metadata[key])
		}
		b.WriteString("\n")
	}
	for _, section := range doc.Sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", section.Heading, strings.TrimSpace(section.Body))
	}

	name := fmt.Sprintf("%s-%s.md", slugify(doc.Title), time.Now().UTC().Format("20060102-150405"))
	path := filepath.Join(r.Dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", errors.Wrap(err, "write report")
	}
	return path, nil
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	if len(parts) == 0 {
		return "report"
	}
	return strings.Join(parts, "-")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
