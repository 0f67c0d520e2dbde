package accum

import (
	"strings"

	"github.com/danielpatrickdp/stagegate/internal/gate"
	"github.com/danielpatrickdp/stagegate/internal/session"
)

// #region placeholders

// placeholders are sentinel values that must never overwrite real evidence.
var placeholders = map[string]bool{
	"":        true,
	"-":       true,
	"n/a":     true,
	"na":      true,
	"none":    true,
	"null":    true,
	"nil":     true,
	"unknown": true,
	"tbd":     true,
}

func usable(v string) bool {
	return !placeholders[strings.ToLower(strings.TrimSpace(v))]
}

// #endregion placeholders

// #region merge

// Merge folds one turn's extracted fields into the session evidence.
// Scalar slots are overwritten only by usable values; multi-value slots are
// unioned with de-duplication, preserving the order in which distinct values
// were first seen across the whole session. Merge is idempotent: applying
// the same extraction twice yields the same evidence as applying it once.
func Merge(ev session.Evidence, f gate.Fields) session.Evidence {
	out := ev.Clone()

	if f.Consent != nil {
		out.Consent = *f.Consent
	}
	out.Topic = mergeScalar(out.Topic, f.Topic)
	out.Event = mergeScalar(out.Event, f.Event)
	out.Thought = mergeScalar(out.Thought, f.Thought)
	out.Action = mergeScalar(out.Action, f.Action)
	out.GapName = mergeScalar(out.GapName, f.GapName)
	out.PatternName = mergeScalar(out.PatternName, f.PatternName)
	out.Paradigm = mergeScalar(out.Paradigm, f.Paradigm)
	out.Stance = mergeScalar(out.Stance, f.Stance)
	out.Choice = mergeScalar(out.Choice, f.Choice)
	out.Vision = mergeScalar(out.Vision, f.Vision)
	out.Commitment = mergeScalar(out.Commitment, f.Commitment)

	if f.Readiness >= 1 && f.Readiness <= 10 {
		out.Readiness = f.Readiness
	}
	if f.GapScore >= 1 && f.GapScore <= 10 {
		out.GapScore = f.GapScore
	}

	out.Emotions = mergeUnique(out.Emotions, f.Emotions)
	out.SourceForces = mergeUnique(out.SourceForces, f.SourceForces)
	out.NatureForces = mergeUnique(out.NatureForces, f.NatureForces)

	return out
}

// #endregion merge

// #region helpers

func mergeScalar(current, incoming string) string {
	if usable(incoming) {
		return strings.TrimSpace(incoming)
	}
	return current
}

// mergeUnique unions incoming values into existing, case-insensitively
// de-duplicated, keeping first-seen order. Values already captured are
// never dropped or reordered.
func mergeUnique(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}
	out := append([]string(nil), existing...)
	seen := make(map[string]bool, len(existing)+len(incoming))
	for _, v := range existing {
		seen[normKey(v)] = true
	}
	for _, v := range incoming {
		k := normKey(v)
		if k == "" || seen[k] || placeholders[k] {
			continue
		}
		seen[k] = true
		out = append(out, strings.TrimSpace(v))
	}
	return out
}

func normKey(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// #endregion helpers
