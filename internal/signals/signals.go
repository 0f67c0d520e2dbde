package signals

import "strings"

// #region turn-signals

// TurnSignals carries deterministic per-utterance signals consumed by the
// intent rules, the stage gates, and the safety net. All detection is
// whole-token: a keyword embedded inside an unrelated longer word never
// matches.
type TurnSignals struct {
	Affirmation     bool // "yes", "okay", "i agree"
	Decline         bool // "no", "rather not"
	CompletionClaim bool // "done", "that's all"
	Frustration     bool // "i already answered", "move on"
	Refusal         bool // "i won't say", "skip this"
	DontKnow        bool // "no idea", "not sure"
	StopRequest     bool // "stop", "end session"
}

// #endregion turn-signals

// #region phrase-sets

var affirmationPhrases = []string{
	"yes", "yeah", "yep", "sure", "ok", "okay", "fine",
	"i agree", "go ahead", "let's do it", "i'm in", "sounds good",
	"of course", "absolutely",
}

var declinePhrases = []string{
	"no", "nope", "no thanks", "not now", "rather not",
	"i don't agree", "i do not agree", "i don't consent",
}

var completionPhrases = []string{
	"done", "i'm done", "that's it", "that's all", "that is all",
	"nothing else", "finished", "no more",
}

var frustrationPhrases = []string{
	"i already answered", "i already said", "i already told you",
	"i told you", "asked and answered", "we covered this",
	"move on", "let's move on", "can we move on", "next question",
	"stop repeating", "you keep asking", "again with this",
}

var refusalPhrases = []string{
	"i won't say", "i won't answer", "i don't want to say",
	"i don't want to answer", "i'd rather not", "i would rather not",
	"skip this", "skip that", "pass",
}

var dontKnowPhrases = []string{
	"i don't know", "i do not know", "dont know", "dunno",
	"no idea", "not sure", "i'm not sure", "no clue",
}

var stopPhrases = []string{
	"stop", "quit", "exit", "end session", "end the session",
	"goodbye", "i want to stop", "let's stop",
}

// #endregion phrase-sets

// #region detect

// Detect computes all signals for one utterance.
func Detect(utterance string) TurnSignals {
	norm := Normalize(utterance)
	return TurnSignals{
		Affirmation:     matchAny(norm, affirmationPhrases),
		Decline:         matchAny(norm, declinePhrases),
		CompletionClaim: matchAny(norm, completionPhrases),
		Frustration:     matchAny(norm, frustrationPhrases),
		Refusal:         matchAny(norm, refusalPhrases),
		DontKnow:        matchAny(norm, dontKnowPhrases),
		StopRequest:     matchAny(norm, stopPhrases),
	}
}

// #endregion detect

// #region matching

// Normalize lowercases the text, strips punctuation, and pads it with
// spaces so whole-phrase containment checks respect word boundaries.
func Normalize(text string) string {
	lower := strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(lower) + 2)
	b.WriteByte(' ')
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	b.WriteByte(' ')
	return b.String()
}

// HasPhrase reports whether phrase occurs in text as whole tokens.
// The short token "ok" must not match inside "broken".
func HasPhrase(text, phrase string) bool {
	norm := Normalize(text)
	return containsPhrase(norm, phrase)
}

func containsPhrase(norm, phrase string) bool {
	needle := " " + strings.Join(strings.Fields(strings.ToLower(phrase)), " ") + " "
	return strings.Contains(norm, needle)
}

func matchAny(norm string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(norm, p) {
			return true
		}
	}
	return false
}

// #endregion matching
