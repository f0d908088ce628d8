package assist

import (
	"regexp"
	"sort"
	"strings"
)

var nonLetters = regexp.MustCompile(`[^\p{L}\s]+`)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		the and for are but not you all any can had her was one our out day get has him his how
		its may new now old see two way who boy did man men put say she too use that with have
		this will your from they know want been good much some time very when come here just like
		long make many more only over such take than them well were what into also then there
		their these those would could should about after again being below between both during
		each few further itself most other same through under until which while whom why yours
		because before above against off once own does doing having very`) {
		stopWords[w] = struct{}{}
	}
}

// ExtractKeywords returns up to maxKeywords of the most frequent words of
// content, ignoring words of three letters or fewer and common stop words.
// Ties keep the order in which the words first appear.
func ExtractKeywords(content string, maxKeywords int) []string {
	if maxKeywords <= 0 {
		return []string{}
	}

	text := nonLetters.ReplaceAllString(strings.ToLower(content), "")

	counts := map[string]int{}
	order := []string{}

	for _, w := range strings.Fields(text) {
		if len([]rune(w)) <= 3 {
			continue
		}
		if _, ok := stopWords[w]; ok {
			continue
		}
		if _, ok := counts[w]; !ok {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}

	return order
}
