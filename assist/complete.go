package assist

import "strings"

const maxCompletions = 4

var (
	todoCompletions    = []string{": ", ": Review ", ": Follow up on ", ": Finish "}
	noteCompletions    = []string{": ", " to self: ", "s from today", " - "}
	meetingCompletions = []string{" notes", " agenda", " action items", " follow-up"}
)

// AutoComplete offers canned continuations for text ending in TODO or Note,
// or containing "meeting". Anything else gets no suggestions.
func AutoComplete(partialText string) []string {
	text := strings.TrimRight(partialText, " \t")

	var res []string
	switch {
	case strings.HasSuffix(text, "TODO"):
		res = todoCompletions
	case strings.HasSuffix(text, "Note"):
		res = noteCompletions
	case strings.Contains(strings.ToLower(text), "meeting"):
		res = meetingCompletions
	default:
		return []string{}
	}

	if len(res) > maxCompletions {
		res = res[:maxCompletions]
	}

	return append([]string{}, res...)
}
