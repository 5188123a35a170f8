package sentiment

import (
	"regexp"
	"strings"
)

var crisisPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bkill myself\b`),
	regexp.MustCompile(`\bsuicide\b`),
	regexp.MustCompile(`\bi want to die\b`),
	regexp.MustCompile(`\bself[- ]?harm\b`),
	regexp.MustCompile(`\boverdose\b`),
	regexp.MustCompile(`\bjump off\b`),
	regexp.MustCompile(`\bhang myself\b`),
	regexp.MustCompile(`\bcut myself\b`),
	regexp.MustCompile(`\bcan.?t go on\b`),
}

// DetectCrisis reports whether the text contains known crisis phrases.
func DetectCrisis(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for _, pattern := range crisisPatterns {
		if pattern.MatchString(lowered) {
			return true
		}
	}
	return false
}
