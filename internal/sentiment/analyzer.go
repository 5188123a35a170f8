// Package sentiment scores journal text with a small polarity lexicon and
// flags crisis language. Labels follow the same thresholds the rest of the
// system expects: polarity > 0.2 is positive, < -0.2 negative, else neutral.
package sentiment

import (
	"strings"
	"unicode"
)

const (
	LabelPositive = "positive"
	LabelNeutral  = "neutral"
	LabelNegative = "negative"

	Sarcastic    = "sarcastic"
	NotSarcastic = "not sarcastic"
)

// Result is the annotation attached to a journal entry.
type Result struct {
	Sentiment     string  `json:"sentiment"`
	PolarityScore float64 `json:"polarity_score"`
	Sarcasm       string  `json:"sarcasm"`
}

// polarity per token, roughly [-1, 1].
var lexicon = map[string]float64{
	"amazing": 0.9, "awesome": 0.9, "fantastic": 0.9, "wonderful": 0.9,
	"excellent": 0.9, "great": 0.8, "love": 0.7, "loved": 0.7, "joy": 0.7,
	"happy": 0.8, "glad": 0.6, "good": 0.6, "grateful": 0.7, "proud": 0.7,
	"excited": 0.7, "calm": 0.4, "relaxed": 0.5, "peaceful": 0.5,
	"productive": 0.6, "refreshed": 0.6, "energetic": 0.6, "hopeful": 0.6,
	"nice": 0.5, "fun": 0.6, "better": 0.4, "accomplished": 0.7,
	"fine": 0.2, "okay": 0.1, "ok": 0.1,
	"tired": -0.4, "bored": -0.4, "meh": -0.2, "stressed": -0.6,
	"stress": -0.5, "anxious": -0.6, "anxiety": -0.6, "worried": -0.5,
	"sad": -0.7, "unhappy": -0.7, "depressed": -0.8, "depressing": -0.7,
	"angry": -0.7, "furious": -0.9, "hate": -0.8, "hated": -0.8,
	"terrible": -0.9, "awful": -0.9, "horrible": -0.9, "worst": -1.0,
	"bad": -0.6, "lonely": -0.7, "exhausted": -0.6, "miserable": -0.9,
	"hopeless": -0.9, "frustrated": -0.6, "frustrating": -0.6,
	"overwhelmed": -0.6, "guilty": -0.6, "afraid": -0.6, "scared": -0.6,
	"failed": -0.6, "failure": -0.7, "cried": -0.6, "crying": -0.6,
	"pain": -0.6, "hurt": -0.6, "sick": -0.5, "worse": -0.5,
}

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "isnt": {}, "wasnt": {}, "dont": {},
	"didnt": {}, "cant": {}, "couldnt": {}, "wont": {}, "hardly": {},
}

var intensifiers = map[string]float64{
	"very": 1.3, "really": 1.3, "so": 1.2, "extremely": 1.5,
	"totally": 1.3, "absolutely": 1.4, "incredibly": 1.4,
	"slightly": 0.6, "somewhat": 0.7, "bit": 0.7,
}

// Analyze scores text and returns the sentiment label, a polarity in [-1, 1],
// and a sarcasm flag.
func Analyze(text string) Result {
	tokens := tokenize(text)

	var total float64
	var scored int
	for i, token := range tokens {
		weight, ok := lexicon[token]
		if !ok {
			continue
		}
		multiplier := 1.0
		// look back two tokens for a negation or an intensifier
		for back := 1; back <= 2 && i-back >= 0; back++ {
			prev := tokens[i-back]
			if _, negated := negations[prev]; negated {
				multiplier *= -0.5
				break
			}
			if factor, ok := intensifiers[prev]; ok {
				multiplier *= factor
			}
		}
		total += weight * multiplier
		scored++
	}

	polarity := 0.0
	if scored > 0 {
		polarity = clamp(total/float64(scored), -1, 1)
	}

	label := LabelNeutral
	switch {
	case polarity > 0.2:
		label = LabelPositive
	case polarity < -0.2:
		label = LabelNegative
	}

	sarcasm := NotSarcastic
	if isSarcastic(text, polarity) {
		sarcasm = Sarcastic
	}

	return Result{Sentiment: label, PolarityScore: round4(polarity), Sarcasm: sarcasm}
}

// isSarcastic is a shallow heuristic: an ostensibly positive sentence leaning
// on scare quotes or stock sarcasm markers.
func isSarcastic(text string, polarity float64) bool {
	lower := strings.ToLower(text)
	markers := []string{"yeah right", "oh great", "oh wonderful", "just great", "just perfect", "as if", "shocker", "what a surprise"}
	for _, marker := range markers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	if polarity > 0.2 && strings.Contains(text, `"`) && strings.Contains(text, "!") {
		return true
	}
	return false
}

func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round4(v float64) float64 {
	return float64(int(v*10000+sign(v)*0.5)) / 10000
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
