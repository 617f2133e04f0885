package content

import (
	"regexp"
	"strings"
)

// tokenPattern matches maximal runs of Unicode letters and digits, used for
// both the word-count check and the duplicate-content aggregator.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// tokenize lowercases text and splits it into maximal alphanumeric runs.
func tokenize(text string) []string {
	matches := tokenPattern.FindAllString(text, -1)
	tokens := make([]string, len(matches))
	for i, m := range matches {
		tokens[i] = strings.ToLower(m)
	}
	return tokens
}

// sentenceSplitPattern splits on ". "/"! "/"? " (a terminator followed by
// whitespace) or a bare newline.
var sentenceSplitPattern = regexp.MustCompile(`[.!?]\s+|\n`)

// sentences splits text into whitespace-collapsed, lowercased sentences
// for the repeated-sentence low-information check.
func sentences(text string) []string {
	parts := sentenceSplitPattern.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		collapsed := strings.Join(strings.Fields(p), " ")
		if collapsed == "" {
			continue
		}
		out = append(out, strings.ToLower(collapsed))
	}
	return out
}
