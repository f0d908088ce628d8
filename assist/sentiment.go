package assist

import (
	"math"
	"regexp"
	"strings"
)

type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
	Neutral  Polarity = "neutral"
)

type Sentiment struct {
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
	Polarity   Polarity `json:"polarity"`
}

var wordSplit = regexp.MustCompile(`\W+`)

var (
	positiveWords = wordSet("good great excellent amazing wonderful happy love like best awesome fantastic brilliant success successful glad pleased enjoy excited perfect nice beautiful")
	negativeWords = wordSet("bad terrible awful horrible hate sad angry worst poor fail failed failure problem issue wrong difficult annoying disappointed broken ugly stress")
)

func wordSet(words string) map[string]struct{} {
	m := map[string]struct{}{}
	for _, w := range strings.Fields(words) {
		m[w] = struct{}{}
	}
	return m
}

// AnalyzeSentiment counts positive and negative words. Score is
// (pos-neg)/words*10 clamped to [-1, 1]; confidence is
// min(0.8, (pos+neg)/words*10).
func AnalyzeSentiment(content string) Sentiment {
	pos, neg, words := 0, 0, 0

	for _, w := range wordSplit.Split(strings.ToLower(content), -1) {
		if w == "" {
			continue
		}
		words++
		if _, ok := positiveWords[w]; ok {
			pos++
		}
		if _, ok := negativeWords[w]; ok {
			neg++
		}
	}

	if words == 0 {
		return Sentiment{Polarity: Neutral}
	}

	score := float64(pos-neg) / float64(words) * 10
	score = math.Max(-1, math.Min(1, score))

	s := Sentiment{
		Score:      score,
		Confidence: math.Min(0.8, float64(pos+neg)/float64(words)*10),
		Polarity:   Neutral,
	}

	switch {
	case pos > neg:
		s.Polarity = Positive
	case neg > pos:
		s.Polarity = Negative
	}

	return s
}
