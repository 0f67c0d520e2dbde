package gate

import (
	"strconv"
	"strings"
)

// #region emotion-lexicon

// emotionLexicon maps utterance tokens to canonical emotion tokens.
// Variants normalize to one canonical value so "angry" and "anger" count
// as a single distinct emotion.
var emotionLexicon = map[string]string{
	"angry": "anger", "anger": "anger", "mad": "anger", "furious": "anger",
	"annoyed": "anger", "irritated": "anger", "frustrated": "frustration",
	"frustration": "frustration", "resentful": "resentment", "resentment": "resentment",
	"sad": "sadness", "sadness": "sadness", "down": "sadness", "gloomy": "sadness",
	"disappointed": "disappointment", "disappointment": "disappointment",
	"hurt": "hurt", "lonely": "loneliness", "loneliness": "loneliness",
	"afraid": "fear", "fear": "fear", "scared": "fear", "fearful": "fear",
	"anxious": "anxiety", "anxiety": "anxiety", "worried": "anxiety", "nervous": "anxiety",
	"ashamed": "shame", "shame": "shame", "embarrassed": "embarrassment",
	"embarrassment": "embarrassment", "guilty": "guilt", "guilt": "guilt",
	"helpless": "helplessness", "helplessness": "helplessness",
	"overwhelmed": "overwhelm", "overwhelm": "overwhelm",
	"confused": "confusion", "confusion": "confusion",
	"jealous": "jealousy", "jealousy": "jealousy", "envious": "envy", "envy": "envy",
	"happy": "joy", "joy": "joy", "glad": "joy", "excited": "excitement",
	"excitement": "excitement", "relieved": "relief", "relief": "relief",
	"proud": "pride", "pride": "pride", "grateful": "gratitude", "gratitude": "gratitude",
	"hopeful": "hope", "hope": "hope", "calm": "calm", "content": "contentment",
	"tired": "exhaustion", "exhausted": "exhaustion", "drained": "exhaustion",
	"numb": "numbness", "empty": "emptiness", "stuck": "stuckness",
	"disgusted": "disgust", "disgust": "disgust", "surprised": "surprise",
	"surprise": "surprise", "shocked": "shock", "betrayed": "betrayal",
}

// #endregion emotion-lexicon

// #region token-extraction

// ExtractEmotions returns the canonical emotion tokens found in the
// utterance, de-duplicated, in order of first appearance.
func ExtractEmotions(utterance string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range tokenize(utterance) {
		canon, ok := emotionLexicon[tok]
		if !ok || seen[canon] {
			continue
		}
		seen[canon] = true
		out = append(out, canon)
	}
	return out
}

// ExtractListItems splits an utterance into candidate value phrases on
// commas, semicolons, and "and", dropping empties and filler openings.
// Used by the forces gate to parse enumerated answers.
func ExtractListItems(utterance string) []string {
	replaced := strings.NewReplacer(";", ",", " and ", ",", "\n", ",").Replace(" " + strings.ToLower(utterance) + " ")
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(replaced, ",") {
		item := strings.Trim(strings.TrimSpace(part), ".!?")
		item = strings.TrimPrefix(item, "also ")
		item = strings.TrimPrefix(item, "maybe ")
		item = strings.TrimPrefix(item, "probably ")
		if len(item) < 3 || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// ExtractScore finds the first integer in [1,10] in the utterance.
// Returns 0 when none is present.
func ExtractScore(utterance string) int {
	wordScores := map[string]int{
		"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
		"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	}
	for _, tok := range tokenize(utterance) {
		if n, err := strconv.Atoi(tok); err == nil && n >= 1 && n <= 10 {
			return n
		}
		if n, ok := wordScores[tok]; ok {
			return n
		}
	}
	return 0
}

func tokenize(text string) []string {
	lower := strings.ToLower(text)
	return strings.FieldsFunc(lower, func(r rune) bool {
		letter := r >= 'a' && r <= 'z'
		digit := r >= '0' && r <= '9'
		return !letter && !digit && r != '\''
	})
}

// #endregion token-extraction
