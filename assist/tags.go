package assist

import (
	"regexp"
	"strings"
)

const maxSuggestedTags = 6

type category struct {
	tag     string
	pattern *regexp.Regexp
}

var categories = []category{
	{"meeting", regexp.MustCompile(`(?i)\b(meeting|agenda|minutes|attendees|standup)\b`)},
	{"project", regexp.MustCompile(`(?i)\b(project|milestone|deadline|deliverable|roadmap)\b`)},
	{"research", regexp.MustCompile(`(?i)\b(research|study|analysis|hypothesis|experiment)\b`)},
	{"brainstorming", regexp.MustCompile(`(?i)\b(ideas?|brainstorm\w*|concepts?)\b`)},
	{"tasks", regexp.MustCompile(`(?i)(\btodo\b|\btasks?\b|\bchecklist\b|- \[ \])`)},
	{"personal", regexp.MustCompile(`(?i)\b(personal|diary|journal|family|feelings?)\b`)},
	{"recipe", regexp.MustCompile(`(?i)\b(recipe|ingredients?|cook\w*|bake|oven)\b`)},
	{"travel", regexp.MustCompile(`(?i)\b(travel|trip|flight|hotel|itinerary|vacation)\b`)},
	{"reading", regexp.MustCompile(`(?i)\b(book|chapter|author|reading|novel)\b`)},
}

// Categorize returns the fixed categories whose keywords appear in content,
// or "general" when none do.
func Categorize(content string) []string {
	res := []string{}
	for _, c := range categories {
		if c.pattern.MatchString(content) {
			res = append(res, c.tag)
		}
	}
	if len(res) == 0 {
		res = append(res, "general")
	}
	return res
}

// SuggestTags combines the matching categories with the top keywords of
// content, leaving out tags in existing. At most six tags are returned.
func SuggestTags(content string, existing []string) []string {
	skip := map[string]struct{}{}
	for _, t := range existing {
		skip[strings.ToLower(strings.TrimPrefix(t, "#"))] = struct{}{}
	}

	res := []string{}
	for _, t := range append(Categorize(content), ExtractKeywords(content, 5)...) {
		if len(res) == maxSuggestedTags {
			break
		}
		if _, ok := skip[t]; ok {
			continue
		}
		skip[t] = struct{}{}
		res = append(res, t)
	}

	return res
}
