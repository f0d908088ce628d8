// Package assist holds heuristic text analysis over note content. Every
// function is pure and safe for concurrent use.
package assist

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

type scoredSentence struct {
	text  string
	score float64
}

// Summarize shortens content to at most maxLength characters by keeping
// the highest scoring sentences. Sentences early in the text and longer
// sentences score higher. Picking stops at the first sentence that does not
// fit; lower scoring sentences after it are not tried.
func Summarize(content string, maxLength int) string {
	if utf8.RuneCountInString(content) <= maxLength {
		return content
	}

	sentences := []string{}
	for _, s := range sentenceSplit.Split(content, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}

	scored := make([]scoredSentence, len(sentences))
	for i, s := range sentences {
		position := 1.0
		if float64(i) < float64(len(sentences))/3 {
			position = 2.0
		}
		scored[i] = scoredSentence{
			text:  s,
			score: position + float64(utf8.RuneCountInString(s))/100,
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	picked := []string{}
	length := 0
	for _, s := range scored {
		n := utf8.RuneCountInString(s.text) + 2
		if length+n >= maxLength {
			break
		}
		picked = append(picked, s.text)
		length += n
	}

	if len(picked) == 0 {
		return truncate(content, maxLength)
	}

	return strings.Join(picked, ". ") + "."
}

func truncate(content string, maxLength int) string {
	keep := maxLength - 3
	if keep < 0 {
		keep = 0
	}

	r := []rune(content)
	if keep > len(r) {
		keep = len(r)
	}

	return string(r[:keep]) + "..."
}
