package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/adrg/frontmatter"
)

//go:embed builtin/*.md
var builtinFS embed.FS

type builtinMeta struct {
	Name         string   `yaml:"name"`
	Category     Category `yaml:"category"`
	Description  string   `yaml:"description"`
	Placeholders []string `yaml:"placeholders"`
}

// BuiltIns parses the templates shipped with the binary. IDs and timestamps
// are left empty for the repository to fill in.
func BuiltIns() ([]*Template, error) {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, err
	}

	res := []*Template{}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}

		data, err := builtinFS.ReadFile("builtin/" + e.Name())
		if err != nil {
			return nil, err
		}

		t, err := ParseTemplate(data)
		if err != nil {
			return nil, fmt.Errorf("built-in template %s: %w", e.Name(), err)
		}

		t.IsBuiltIn = true
		t.IsPublic = true

		res = append(res, t)
	}

	return res, nil
}

// ParseTemplate reads a markdown template whose YAML frontmatter carries the
// name, category, description and placeholders.
func ParseTemplate(data []byte) (*Template, error) {
	var meta builtinMeta

	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return nil, err
	}

	if meta.Name == "" {
		return nil, fmt.Errorf("missing name")
	}

	category := meta.Category
	if !category.Valid() {
		category = CategoryGeneral
	}

	content := strings.TrimLeft(string(body), "\n")

	placeholders := meta.Placeholders
	if len(placeholders) == 0 {
		placeholders = ExtractPlaceholders(content)
	}

	return &Template{
		Name:         meta.Name,
		Category:     category,
		Description:  meta.Description,
		Content:      content,
		Placeholders: placeholders,
	}, nil
}
