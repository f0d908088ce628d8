package templates

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/ikasoba/notebox/core"
)

const bucket = "templates"

type Repository struct {
	store *core.Store
}

func NewRepository(store *core.Store) *Repository {
	return &Repository{store: store}
}

// Create stores a user template. When no placeholders are given they are
// taken from the {{name}} tokens in content.
func (r *Repository) Create(name string, category Category, content string, placeholders ...string) (*Template, error) {
	if strings.TrimSpace(name) == "" {
		return nil, core.Errorf(core.KindMalformed, nil, "template name is required")
	}

	if !category.Valid() {
		category = CategoryGeneral
	}

	if len(placeholders) == 0 {
		placeholders = ExtractPlaceholders(content)
	}

	now := r.store.Now()

	t := &Template{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Category:     category,
		Content:      content,
		Placeholders: placeholders,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := r.store.Put(bucket, t.ID, t); err != nil {
		return nil, err
	}

	return t, nil
}

func (r *Repository) Update(t *Template) error {
	var stored Template

	found, err := r.store.Modify(bucket, t.ID, &stored, func() {
		stored.Name = t.Name
		stored.Description = t.Description
		stored.Category = t.Category
		stored.Content = t.Content
		stored.Placeholders = t.Placeholders
		stored.IsPublic = t.IsPublic
		stored.UpdatedAt = r.store.Now()
	})
	if err != nil || !found {
		return err
	}

	*t = stored

	return nil
}

// Delete removes a user template. Built-in templates cannot be deleted.
func (r *Repository) Delete(id string) error {
	t, err := r.Get(id)
	if err != nil || t == nil {
		return err
	}

	if t.IsBuiltIn {
		return core.Errorf(core.KindDenied, nil, "template %q is built in", t.Name)
	}

	return r.store.Delete(bucket, id)
}

func (r *Repository) Get(id string) (*Template, error) {
	var t Template

	found, err := r.store.Get(bucket, id, &t)
	if err != nil || !found {
		return nil, err
	}

	return &t, nil
}

// List returns every template, built-ins first, then by name.
func (r *Repository) List() ([]*Template, error) {
	return r.list(func(*Template) bool { return true })
}

func (r *Repository) ByCategory(c Category) ([]*Template, error) {
	return r.list(func(t *Template) bool { return t.Category == c })
}

// CreateNoteFromTemplate returns the template content with every declared
// placeholder substituted and bumps the usage counter. A missing template
// yields the empty string.
func (r *Repository) CreateNoteFromTemplate(id string, values map[string]string) (string, error) {
	var t Template

	found, err := r.store.Modify(bucket, id, &t, func() {
		t.UsageCount++
	})
	if err != nil || !found {
		return "", err
	}

	return Fill(t.Content, t.Placeholders, values, r.store.Now()), nil
}

// Duplicate copies a template under a new identity with a fresh usage count
// and timestamps. It returns nil if the source does not exist.
func (r *Repository) Duplicate(id string) (*Template, error) {
	src, err := r.Get(id)
	if err != nil || src == nil {
		return nil, err
	}

	now := r.store.Now()

	dup := *src
	dup.ID = uuid.NewString()
	dup.UsageCount = 0
	dup.IsBuiltIn = false
	dup.CreatedAt = now
	dup.UpdatedAt = now
	dup.Placeholders = append([]string{}, src.Placeholders...)

	if err := r.store.Put(bucket, dup.ID, &dup); err != nil {
		return nil, err
	}

	return &dup, nil
}

// InitializeBuiltInTemplates seeds the shipped templates when no built-in
// template exists yet. It returns the number of templates seeded.
func (r *Repository) InitializeBuiltInTemplates() (int, error) {
	existing, err := r.list(func(t *Template) bool { return t.IsBuiltIn })
	if err != nil {
		return 0, err
	}

	if len(existing) > 0 {
		return 0, nil
	}

	builtins, err := BuiltIns()
	if err != nil {
		return 0, err
	}

	if err := r.insertBuiltIns(builtins); err != nil {
		return 0, err
	}

	return len(builtins), nil
}

// ReplaceBuiltIns deletes every built-in template and stores list in their
// place.
func (r *Repository) ReplaceBuiltIns(list []*Template) error {
	existing, err := r.list(func(t *Template) bool { return t.IsBuiltIn })
	if err != nil {
		return err
	}

	for _, t := range existing {
		if err := r.store.Delete(bucket, t.ID); err != nil {
			return err
		}
	}

	return r.insertBuiltIns(list)
}

func (r *Repository) insertBuiltIns(list []*Template) error {
	now := r.store.Now()

	for _, t := range list {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.Placeholders == nil {
			t.Placeholders = ExtractPlaceholders(t.Content)
		}

		t.IsBuiltIn = true
		t.CreatedAt = now
		t.UpdatedAt = now

		if err := r.store.Put(bucket, t.ID, t); err != nil {
			return fmt.Errorf("seed template %s: %w", t.Name, err)
		}
	}

	return nil
}

func (r *Repository) list(keep func(t *Template) bool) ([]*Template, error) {
	res := []*Template{}

	err := r.store.Each(bucket, func(key string, data []byte) error {
		var t Template
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("decode template %s: %w", key, err)
		}
		if keep(&t) {
			res = append(res, &t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(res, func(i, j int) bool {
		if res[i].IsBuiltIn != res[j].IsBuiltIn {
			return res[i].IsBuiltIn
		}
		return res[i].Name < res[j].Name
	})

	return res, nil
}
