package planner

import (
	"regexp"
	"strings"
)

var (
	openingFence = regexp.MustCompile("^(?:```|~~~)[A-Za-z0-9_.+-]*")
	closingFence = regexp.MustCompile("(?:```|~~~)$")
)

// StripDecoration removes fenced-code-block markers wrapped around an LLM
// reply, however many times it was wrapped. Text without markers is only
// trimmed.
func StripDecoration(text string) string {
	current := strings.TrimSpace(text)
	for {
		next := strings.TrimSpace(openingFence.ReplaceAllString(current, ""))
		next = strings.TrimSpace(closingFence.ReplaceAllString(next, ""))
		if next == current {
			return current
		}
		current = next
	}
}
