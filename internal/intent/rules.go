package intent

import (
	"github.com/danielpatrickdp/stagegate/internal/protocol"
	"github.com/danielpatrickdp/stagegate/internal/signals"
)

// #region rule

// Rule is one deterministic classification rule: a set of whole-token
// patterns, an optional stage scope, and the intent it yields. Rules are
// evaluated in order; the first match wins.
type Rule struct {
	Name     string
	Intent   Intent
	Patterns []string
	Stages   []protocol.Stage // empty = applies at any stage
}

// Matches reports whether any pattern occurs in the utterance as whole
// tokens while the rule is in scope for the stage.
func (r Rule) Matches(utterance string, stage protocol.Stage) bool {
	if len(r.Stages) > 0 {
		in := false
		for _, s := range r.Stages {
			if s == stage {
				in = true
				break
			}
		}
		if !in {
			return false
		}
	}
	for _, p := range r.Patterns {
		if signals.HasPhrase(utterance, p) {
			return true
		}
	}
	return false
}

// #endregion rule

// #region rule-table

// Rules is the single declarative rule table consolidating all keyword
// heuristics (consent, stop, meta, clarification, refusal). Order matters:
// stop requests outrank everything, consent rules apply only in the consent
// stage, and partial-answer markers outrank the model fallback.
var Rules = []Rule{
	{
		Name:   "stop_request",
		Intent: Stop,
		Patterns: []string{
			"stop", "quit", "exit", "end session", "end the session",
			"i want to stop", "let's stop", "goodbye",
		},
	},
	{
		Name:   "consent_no",
		Intent: ConsentNo,
		Stages: []protocol.Stage{protocol.StageConsent},
		Patterns: []string{
			"no", "nope", "no thanks", "not now", "rather not",
			"i don't agree", "i do not agree", "i don't consent",
		},
	},
	{
		Name:   "consent_yes",
		Intent: ConsentYes,
		Stages: []protocol.Stage{protocol.StageConsent},
		Patterns: []string{
			"yes", "yeah", "yep", "sure", "ok", "okay", "fine",
			"i agree", "go ahead", "let's do it", "i'm in", "sounds good",
		},
	},
	{
		Name:   "meta_discussion",
		Intent: MetaDiscussion,
		Patterns: []string{
			"what is this", "how does this work", "why are you asking",
			"what's the point of this", "who made you", "are you a bot",
			"is this confidential", "what happens to my answers",
		},
	},
	{
		Name:   "advice_request",
		Intent: AdviceRequest,
		Patterns: []string{
			"what should i do", "tell me what to do", "give me advice",
			"what would you do", "just tell me the answer", "fix this for me",
		},
	},
	{
		Name:   "clarify_request",
		Intent: Clarify,
		Patterns: []string{
			"what do you mean", "i don't understand", "i do not understand",
			"can you repeat", "can you rephrase", "come again",
			"didn't get that", "what was the question",
		},
	},
	{
		Name:   "answer_partial",
		Intent: AnswerPartial,
		Patterns: []string{
			"i don't know", "i do not know", "dunno", "no idea",
			"not sure", "i'm not sure", "no clue", "hard to say",
			"i won't say", "i won't answer", "i don't want to say",
			"i don't want to answer", "i'd rather not", "i would rather not",
			"skip this", "skip that",
		},
	},
	{
		Name:   "offtrack",
		Intent: Offtrack,
		Patterns: []string{
			"by the way", "unrelated but", "changing the subject",
			"different topic", "speaking of something else",
		},
	},
}

// #endregion rule-table

// #region match

// MatchRules runs the rule table against one utterance. Returns the first
// matching rule, or ok=false when no deterministic rule applies.
func MatchRules(utterance string, stage protocol.Stage) (Rule, bool) {
	for _, r := range Rules {
		if r.Matches(utterance, stage) {
			return r, true
		}
	}
	return Rule{}, false
}

// #endregion match
