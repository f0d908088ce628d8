package assist

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	actionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\s*[-*]\s*\[ \]\s*(.+)$`),
		regexp.MustCompile(`(?i)^\s*todo:?\s+(.+)$`),
		regexp.MustCompile(`(?i)^\s*action(?: item)?:\s*(.+)$`),
		regexp.MustCompile(`(?i)^\s*(?:i |we )?(?:need to|must|have to)\s+(.+)$`),
	}

	isoDate     = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	headerLine  = regexp.MustCompile(`(?im)^\s*(#{1,6}\s|<h[1-6][\s>])`)
	reminderRef = regexp.MustCompile(`(?i)\b(remind|reminder|alarm|due)\b`)
)

const (
	shortContentLength = 50
	longContentLength  = 500
)

// ExtractActionItems returns the text of checklist entries, TODO lines,
// "Action:" lines and "need to" lines, in order.
func ExtractActionItems(content string) []string {
	items := []string{}

	for _, line := range strings.Split(content, "\n") {
		for _, p := range actionPatterns {
			if m := p.FindStringSubmatch(line); m != nil {
				items = append(items, strings.TrimSpace(m[1]))
				break
			}
		}
	}

	return items
}

type SuggestionKind string

const (
	SuggestMoreDetail SuggestionKind = "more_detail"
	SuggestHeadings   SuggestionKind = "headings"
	SuggestTaskList   SuggestionKind = "task_list"
	SuggestReminder   SuggestionKind = "reminder"
)

type Suggestion struct {
	Kind    SuggestionKind `json:"kind"`
	Message string         `json:"message"`
}

// SuggestImprovements runs the fixed rule list over content. Rules are
// independent and always reported in the same order.
func SuggestImprovements(content string) []Suggestion {
	res := []Suggestion{}

	length := len([]rune(content))

	if length < shortContentLength {
		res = append(res, Suggestion{SuggestMoreDetail, "Consider adding more detail to this note."})
	}

	if length > longContentLength && !headerLine.MatchString(content) {
		res = append(res, Suggestion{SuggestHeadings, "Long note without headings. Add headings to organize it."})
	}

	if items := ExtractActionItems(content); len(items) > 0 {
		res = append(res, Suggestion{SuggestTaskList, fmt.Sprintf("Found %d action items. Consider turning them into a checklist.", len(items))})
	}

	if isoDate.MatchString(content) && !reminderRef.MatchString(content) {
		res = append(res, Suggestion{SuggestReminder, "Dates found in this note. Consider setting a reminder."})
	}

	return res
}
