package core

import (
	"regexp"
	"strings"
	"time"
)

const (
	maxTitleLength = 50
	untitled       = "Untitled"
)

type Note struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Content          string     `json:"content"`
	PlainTextContent string     `json:"plain_text_content"`
	Tags             []string   `json:"tags"`
	Folder           string     `json:"folder,omitempty"`
	FolderID         string     `json:"folder_id,omitempty"`
	IsPinned         bool       `json:"is_pinned"`
	IsArchived       bool       `json:"is_archived"`
	IsDeleted        bool       `json:"is_deleted"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	ReminderAt       *time.Time `json:"reminder_at,omitempty"`
	Attachments      []string   `json:"attachments,omitempty"`
}

// Derived holds the fields computed from a note's content. They are written
// only by the store, never by callers.
type Derived struct {
	PlainText string
	Tags      []string
}

var hashtagRegexp = regexp.MustCompile(`#(\w+)`)

func Derive(content string) Derived {
	return Derived{
		PlainText: StripMarkup(content),
		Tags:      ExtractHashtags(content),
	}
}

// ExtractHashtags returns the lower-cased, de-duplicated #word tokens of
// content in first-seen order, skipping numeric character references such
// as &#39;. The result is never nil.
func ExtractHashtags(content string) []string {
	tags := []string{}
	seen := map[string]struct{}{}

	for _, m := range hashtagRegexp.FindAllStringSubmatchIndex(content, -1) {
		// &#39; and friends are character references, not tags
		if m[0] > 0 && content[m[0]-1] == '&' {
			continue
		}

		tag := strings.ToLower(content[m[2]:m[3]])
		if _, ok := seen[tag]; ok {
			continue
		}

		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	return tags
}

// AutoTitle takes the first line of content, cut to 50 characters.
func AutoTitle(content string) string {
	line, _, _ := strings.Cut(content, "\n")

	r := []rune(line)
	if len(r) > maxTitleLength {
		r = r[:maxTitleLength]
	}

	title := strings.TrimSpace(string(r))
	if title == "" {
		return untitled
	}

	return title
}

func (n *Note) apply(d Derived) {
	n.PlainTextContent = d.PlainText
	n.Tags = d.Tags
}

func (n *Note) clone() *Note {
	c := *n
	c.Tags = append([]string{}, n.Tags...)
	if n.Attachments != nil {
		c.Attachments = append([]string{}, n.Attachments...)
	}
	if n.ReminderAt != nil {
		t := *n.ReminderAt
		c.ReminderAt = &t
	}
	return &c
}
