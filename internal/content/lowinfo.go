package content

const (
	minWords         = 100
	uniqueSampleSize = 500
	minUniqueRatio   = 0.05

	sentenceSampleSize    = 300
	minRepeatedLen        = 30
	maxRepeatedOccurrence = 10
)

// isLowInformation applies three heuristics to an already tokenized,
// sentence-split document: too few words, too little lexical variety in the
// leading sample, or a long sentence repeated past a threshold. Any one
// trigger rejects the page.
func isLowInformation(tokens, sents []string) bool {
	if len(tokens) < minWords {
		return true
	}
	if lowUniqueRatio(tokens) {
		return true
	}
	return hasRepeatedSentence(sents)
}

func lowUniqueRatio(tokens []string) bool {
	sample := tokens
	if len(sample) > uniqueSampleSize {
		sample = sample[:uniqueSampleSize]
	}
	if len(sample) == 0 {
		return true
	}
	seen := make(map[string]struct{}, len(sample))
	for _, t := range sample {
		seen[t] = struct{}{}
	}
	ratio := float64(len(seen)) / float64(len(sample))
	return ratio < minUniqueRatio
}

func hasRepeatedSentence(sents []string) bool {
	sample := sents
	if len(sample) > sentenceSampleSize {
		sample = sample[:sentenceSampleSize]
	}
	counts := make(map[string]int, len(sample))
	for _, s := range sample {
		if len(s) < minRepeatedLen {
			continue
		}
		counts[s]++
		if counts[s] >= maxRepeatedOccurrence {
			return true
		}
	}
	return false
}
