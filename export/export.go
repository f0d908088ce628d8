// Package export renders notes into shareable formats. Renders are one way;
// only the JSON backup can be read back.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ikasoba/notebox/core"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON      Format = "json"
	FormatMarkdown  Format = "md"
	FormatHTML      Format = "html"
	FormatPlainText Format = "txt"
	FormatPDF       Format = "pdf"
)

var Formats = []Format{FormatJSON, FormatMarkdown, FormatHTML, FormatPlainText, FormatPDF}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "txt", "text", "plain":
		return FormatPlainText, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", core.Errorf(core.KindMalformed, nil, "unknown export format %q", s)
}

// JSON writes notes as an indented JSON array.
func JSON(w io.Writer, notes ...*core.Note) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(notes)
}

type noteMeta struct {
	ID         string     `yaml:"id"`
	Title      string     `yaml:"title"`
	Tags       []string   `yaml:"tags"`
	Folder     string     `yaml:"folder,omitempty"`
	Pinned     bool       `yaml:"pinned,omitempty"`
	CreatedAt  time.Time  `yaml:"created_at"`
	UpdatedAt  time.Time  `yaml:"updated_at"`
	ReminderAt *time.Time `yaml:"reminder_at,omitempty"`
}

// Markdown writes the note body behind a YAML frontmatter block.
func Markdown(w io.Writer, n *core.Note) error {
	var buf bytes.Buffer

	buf.WriteString("---\n")

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	err := encoder.Encode(noteMeta{
		ID:         n.ID,
		Title:      n.Title,
		Tags:       n.Tags,
		Folder:     n.Folder,
		Pinned:     n.IsPinned,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
		ReminderAt: n.ReminderAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to encode frontmatter: %w", err)
	}

	buf.WriteString("---\n\n")
	buf.WriteString(n.Content)
	if !strings.HasSuffix(n.Content, "\n") {
		buf.WriteString("\n")
	}

	_, err = buf.WriteTo(w)

	return err
}

// PlainText writes the title and the markup-free body.
func PlainText(w io.Writer, n *core.Note) error {
	_, err := fmt.Fprintf(w, "%s\n\n%s\n", n.Title, n.PlainTextContent)
	return err
}

type Share struct {
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// ShareOf builds the payload handed to a share target.
func ShareOf(n *core.Note) Share {
	text := n.PlainTextContent
	if len(n.Tags) > 0 {
		text += "\n\n#" + strings.Join(n.Tags, " #")
	}
	return Share{Subject: n.Title, Text: text}
}

// Write renders n in format f.
func Write(w io.Writer, f Format, n *core.Note) error {
	switch f {
	case FormatJSON:
		return JSON(w, n)
	case FormatMarkdown:
		return Markdown(w, n)
	case FormatHTML:
		return HTML(w, n)
	case FormatPlainText:
		return PlainText(w, n)
	case FormatPDF:
		return PDF(w, n)
	}
	return core.Errorf(core.KindMalformed, nil, "unknown export format %q", f)
}

var unsafeFileChars = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// FileName derives a file name from the note title.
func FileName(n *core.Note, f Format) string {
	base := strings.Trim(unsafeFileChars.ReplaceAllString(n.Title, "_"), "_")
	if base == "" {
		base = n.ID
	}
	return base + "." + string(f)
}

// WriteFile renders n into dir and returns the file path.
func WriteFile(dir string, f Format, n *core.Note) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", core.Errorf(core.KindIO, err, "create export directory")
	}

	path := filepath.Join(dir, FileName(n, f))

	file, err := os.Create(path)
	if err != nil {
		return "", core.Errorf(core.KindIO, err, "create %s", path)
	}

	if err := Write(file, f, n); err != nil {
		file.Close()
		os.Remove(path)
		return "", core.Errorf(core.KindIO, err, "render %s", path)
	}

	if err := file.Close(); err != nil {
		return "", core.Errorf(core.KindIO, err, "write %s", path)
	}

	return path, nil
}
