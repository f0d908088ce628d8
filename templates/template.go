package templates

import (
	"regexp"
	"slices"
	"strings"
	"time"
)

type Category string

const (
	CategoryGeneral  Category = "general"
	CategoryMeeting  Category = "meeting"
	CategoryProject  Category = "project"
	CategoryPersonal Category = "personal"
	CategoryJournal  Category = "journal"
	CategoryTask     Category = "task"
	CategoryStudy    Category = "study"
	CategoryRecipe   Category = "recipe"
	CategoryTravel   Category = "travel"
)

var Categories = []Category{
	CategoryGeneral,
	CategoryMeeting,
	CategoryProject,
	CategoryPersonal,
	CategoryJournal,
	CategoryTask,
	CategoryStudy,
	CategoryRecipe,
	CategoryTravel,
}

func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

type Template struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Category     Category  `json:"category"`
	Content      string    `json:"content"`
	Placeholders []string  `json:"placeholders"`
	UsageCount   int       `json:"usage_count"`
	IsBuiltIn    bool      `json:"is_built_in"`
	IsPublic     bool      `json:"is_public"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	PlaceholderDate     = "{{date}}"
	PlaceholderTime     = "{{time}}"
	PlaceholderDateTime = "{{datetime}}"
)

var placeholderRegexp = regexp.MustCompile(`\{\{\w+\}\}`)

// ExtractPlaceholders lists the distinct {{name}} tokens of content in the
// order they first appear.
func ExtractPlaceholders(content string) []string {
	res := []string{}
	for _, p := range placeholderRegexp.FindAllString(content, -1) {
		if !slices.Contains(res, p) {
			res = append(res, p)
		}
	}
	return res
}

// Fill replaces every occurrence of each declared placeholder. Caller values
// win; {{date}}, {{time}} and {{datetime}} fall back to now; anything else
// becomes the empty string. Tokens that are not declared are left alone.
func Fill(content string, placeholders []string, values map[string]string, now time.Time) string {
	for _, p := range placeholders {
		v, ok := values[p]
		if !ok {
			v = defaultValue(p, now)
		}
		content = strings.ReplaceAll(content, p, v)
	}
	return content
}

func defaultValue(placeholder string, now time.Time) string {
	switch placeholder {
	case PlaceholderDate:
		return now.Format("2006-01-02")
	case PlaceholderTime:
		return now.Format("15:04")
	case PlaceholderDateTime:
		return now.Format("2006-01-02 15:04")
	}
	return ""
}
