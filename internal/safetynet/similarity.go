package safetynet

import "strings"

// #region stopwords

var similarityStopwords = map[string]bool{
	"about": true, "after": true, "again": true, "could": true, "doing": true,
	"every": true, "from": true, "have": true, "here": true, "just": true,
	"like": true, "more": true, "over": true, "some": true, "that": true,
	"them": true, "then": true, "there": true, "they": true, "this": true,
	"very": true, "were": true, "what": true, "when": true, "where": true,
	"which": true, "with": true, "would": true, "your": true, "yours": true,
	"please": true, "right": true, "really": true,
}

// #endregion stopwords

// #region overlap

// contentWords extracts lowercase words of length > 3 minus stopwords.
func contentWords(text string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:'\"()")
		if len(w) > 3 && !similarityStopwords[w] {
			out[w] = true
		}
	}
	return out
}

// overlap computes the Jaccard similarity of the content words of a and b.
func overlap(a, b string) float64 {
	wa, wb := contentWords(a), contentWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if wb[w] {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

// #endregion overlap

// #region ask-again

// askAgainPatterns are openers of semantically equivalent re-asks. Two
// outputs matching the same pattern within the window count as repeats even
// when their keyword overlap is low.
var askAgainPatterns = []string{
	"could you tell me",
	"can you tell me",
	"could you share",
	"can you share",
	"tell me again",
	"let me ask again",
	"once more",
	"one more time",
}

func askAgainIndex(text string) int {
	lower := strings.ToLower(text)
	for i, p := range askAgainPatterns {
		if strings.Contains(lower, p) {
			return i
		}
	}
	return -1
}

// #endregion ask-again

// #region count

// countRepeats counts how often the proposed text already occurred among the
// last window recent outputs: exact match first, then fuzzy keyword overlap
// above the threshold, then matching ask-again pattern.
func countRepeats(proposed string, recent []string, window int, fuzzyThreshold float64) int {
	if window < len(recent) {
		recent = recent[len(recent)-window:]
	}
	proposedTrim := strings.TrimSpace(proposed)
	proposedAsk := askAgainIndex(proposed)

	n := 0
	for _, prev := range recent {
		switch {
		case strings.TrimSpace(prev) == proposedTrim:
			n++
		case overlap(prev, proposed) >= fuzzyThreshold:
			n++
		case proposedAsk >= 0 && askAgainIndex(prev) == proposedAsk:
			n++
		}
	}
	return n
}

// #endregion count
