package gate

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/danielpatrickdp/stagegate/internal/intent"
	"github.com/danielpatrickdp/stagegate/internal/protocol"
	"github.com/danielpatrickdp/stagegate/internal/session"
	"github.com/danielpatrickdp/stagegate/internal/signals"
)

// #region judge

// Judge is the external LLM collaborator contract for criteria-set gates.
type Judge interface {
	JudgeEvent(ctx context.Context, utterance string) (EventCriteria, error)
}

// #endregion judge

// #region evaluator

// Evaluator decides, per stage, whether the accumulated evidence plus this
// turn's utterance is sufficient to advance. Gates never fail a turn: any
// internal error resolves to a loop verdict with a generic repair hint.
type Evaluator struct {
	judge Judge // nil = deterministic pre-checks only
}

// NewEvaluator creates an evaluator. judge may be nil.
func NewEvaluator(judge Judge) *Evaluator {
	return &Evaluator{judge: judge}
}

// #endregion evaluator

// #region evaluate

// Evaluate runs the stage gate for one turn.
func (e *Evaluator) Evaluate(ctx context.Context, stage protocol.Stage, it intent.Intent, utterance string, ev session.Evidence) (d Decision) {
	// A gate bug must never block the turn.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[GATE] recovered from gate panic at stage %s: %v", stage, r)
			d = Decision{
				Intent:     it,
				Verdict:    VerdictLoop,
				RepairHint: "Let's stay with this for a moment. Could you say that again in your own words?",
			}
		}
	}()

	// Deterministic phrase signals outrank the classifier. A stop phrase
	// always ends the session, and an explicit refusal or don't-know counts
	// as a partial answer no matter what the model returned.
	sig := signals.Detect(utterance)
	switch {
	case sig.StopRequest:
		it = intent.Stop
	case (sig.Refusal || sig.DontKnow) && it != intent.ConsentYes && it != intent.ConsentNo:
		it = intent.AnswerPartial
	}
	d.Intent = it

	// Intent-level short-circuits apply at every stage.
	switch it {
	case intent.Stop:
		d.Verdict = VerdictStop
		return d
	case intent.Clarify:
		d.Verdict = VerdictLoop
		d.RepairHint = "No problem — let me put the question differently."
		return d
	case intent.MetaDiscussion:
		d.Verdict = VerdictLoop
		d.RepairHint = "Fair question. This is a step-by-step reflection; nothing moves on until you're ready."
		return d
	case intent.Offtrack:
		d.Verdict = VerdictLoop
		d.RepairHint = "We can come back to that. For now, let's stay with the current question."
		return d
	case intent.AdviceRequest:
		d.Verdict = VerdictLoop
		d.RepairHint = "I won't hand you an answer — the aim is to find yours. Let's keep going."
		return d
	}

	switch stage {
	case protocol.StageConsent:
		e.consentGate(&d, it, sig)
	case protocol.StageTopic:
		e.presenceGate(&d, stage, it, utterance, func(v string) { d.Fields.Topic = v })
	case protocol.StageEvent:
		e.eventGate(ctx, &d, it, utterance)
	case protocol.StageEmotion:
		e.emotionGate(&d, utterance, ev)
	case protocol.StageThought:
		e.presenceGate(&d, stage, it, utterance, func(v string) { d.Fields.Thought = v })
	case protocol.StageAction:
		e.presenceGate(&d, stage, it, utterance, func(v string) { d.Fields.Action = v })
	case protocol.StageReadiness:
		e.scoreGate(&d, stage, utterance, func(n int) { d.Fields.Readiness = n })
	case protocol.StageGap:
		e.gapGate(&d, it, utterance, ev)
	case protocol.StagePattern:
		e.patternGate(&d, it, utterance)
	case protocol.StageStance:
		e.presenceGate(&d, stage, it, utterance, func(v string) { d.Fields.Stance = v })
	case protocol.StageForces:
		e.forcesGate(&d, utterance, ev)
	case protocol.StageChoice:
		e.presenceGate(&d, stage, it, utterance, func(v string) { d.Fields.Choice = v })
	case protocol.StageVision:
		e.presenceGate(&d, stage, it, utterance, func(v string) { d.Fields.Vision = v })
	case protocol.StageCommitment:
		e.commitmentGate(&d, it, utterance)
	default:
		d.Verdict = VerdictLoop
		d.RepairHint = "Let's take that one more time."
	}

	if d.Verdict == VerdictAdvance && d.ProposedStage == "" {
		if next, ok := protocol.Next(stage); ok {
			d.ProposedStage = next
		} else {
			d.ProposedStage = stage
		}
	}
	return d
}

// #endregion evaluate

// #region consent-gate

// consentGate treats the classified intent as primary and falls back to the
// deterministic affirmation and decline phrase signals, so an unambiguous
// "absolutely" still opens the session when the model hedged.
func (e *Evaluator) consentGate(d *Decision, it intent.Intent, sig signals.TurnSignals) {
	switch {
	case it == intent.ConsentYes:
		yes := true
		d.Fields.Consent = &yes
		d.Verdict = VerdictAdvance
	case it == intent.ConsentNo:
		d.Verdict = VerdictStop
	case sig.Affirmation && !sig.Decline:
		yes := true
		d.Fields.Consent = &yes
		d.Verdict = VerdictAdvance
	case sig.Decline && !sig.Affirmation:
		d.Verdict = VerdictStop
	default:
		d.Verdict = VerdictLoop
		d.Missing = []protocol.FieldKey{protocol.FieldConsent}
		d.RepairHint = "Before we begin I need a clear yes or no: are you in?"
	}
}

// #endregion consent-gate

// #region presence-gate

// presenceGate accepts any well-formed non-empty, non-refusal value.
// Explicit refusal and "don't know" arrive as AnswerPartial and loop.
func (e *Evaluator) presenceGate(d *Decision, stage protocol.Stage, it intent.Intent, utterance string, set func(string)) {
	trimmed := strings.TrimSpace(utterance)
	if it == intent.AnswerPartial || len(trimmed) < 3 {
		d.Verdict = VerdictLoop
		d.Missing = protocol.Spec(stage).RequiredFields
		d.RepairHint = "Whatever comes to mind is fine — there's no wrong answer here."
		return
	}
	set(trimmed)
	d.Verdict = VerdictAdvance
}

// #endregion presence-gate

// #region event-gate

// eventGate is the criteria-set gate: a deterministic keyword pre-check,
// then the LLM judge for utterances the pre-check can't settle. On judge
// failure the gate is conservative and loops rather than advancing.
func (e *Evaluator) eventGate(ctx context.Context, d *Decision, it intent.Intent, utterance string) {
	trimmed := strings.TrimSpace(utterance)
	if it == intent.AnswerPartial || len(trimmed) < 3 {
		d.Verdict = VerdictLoop
		d.Missing = []protocol.FieldKey{protocol.FieldEvent}
		d.RepairHint = "Think of one concrete moment — something that actually happened, with a time and a place."
		return
	}

	pre := precheckEvent(trimmed)
	criteria := pre
	if !pre.All() && e.judge != nil {
		judged, err := e.judge.JudgeEvent(ctx, trimmed)
		if err != nil {
			log.Printf("[GATE] event judge failed, keeping conservative pre-check: %v", err)
		} else {
			criteria = judged
		}
	}

	if !criteria.All() {
		d.Verdict = VerdictLoop
		d.Missing = []protocol.FieldKey{protocol.FieldEvent}
		d.RepairHint = fmt.Sprintf("Almost there — I'm still missing %s.", strings.Join(criteria.MissingNames(), ", "))
		return
	}

	d.Fields.Event = trimmed
	d.Verdict = VerdictAdvance
}

var recentMarkers = []string{
	"yesterday", "today", "tonight", "morning", "afternoon", "evening",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"week", "earlier", "just", "recently",
}

var personMarkers = []string{
	"boss", "manager", "colleague", "coworker", "client", "friend",
	"partner", "wife", "husband", "girlfriend", "boyfriend",
	"mother", "father", "mom", "dad", "sister", "brother", "son", "daughter",
	"she", "he", "they", "them", "her", "him", "team",
}

var firstPersonMarkers = []string{"i", "me", "my", "we", "i'm", "i've", "i'd"}

func precheckEvent(utterance string) EventCriteria {
	toks := tokenize(utterance)
	set := make(map[string]bool, len(toks))
	for _, t := range toks {
		set[t] = true
	}
	hasAny := func(markers []string) bool {
		for _, m := range markers {
			if set[m] {
				return true
			}
		}
		return false
	}
	emotional := len(ExtractEmotions(utterance)) > 0 || set["felt"] || set["feel"] || set["feeling"]
	return EventCriteria{
		Recent:      hasAny(recentMarkers),
		Personal:    hasAny(firstPersonMarkers),
		Emotional:   emotional,
		OtherPerson: hasAny(personMarkers),
	}
}

// #endregion event-gate

// #region emotion-gate

// emotionGate is a threshold-accumulation gate: newly named emotions are
// merged into the session's running set and the cumulative distinct count,
// not the per-turn count, is compared against the stage threshold.
func (e *Evaluator) emotionGate(d *Decision, utterance string, ev session.Evidence) {
	threshold := protocol.Spec(protocol.StageEmotion).MinCount(protocol.FieldEmotions)

	d.Fields.Emotions = ExtractEmotions(utterance)
	cumulative := unionCount(ev.Emotions, d.Fields.Emotions)

	if cumulative >= threshold {
		d.Verdict = VerdictAdvance
		return
	}
	d.Verdict = VerdictLoop
	d.Missing = []protocol.FieldKey{protocol.FieldEmotions}
	d.Needed = threshold - cumulative
	d.RepairHint = fmt.Sprintf("You've named %d so far. What else was in the mix? (%d more to go)", cumulative, d.Needed)
}

// #endregion emotion-gate

// #region score-gate

// scoreGate is a presence gate for a 1-10 rating.
func (e *Evaluator) scoreGate(d *Decision, stage protocol.Stage, utterance string, set func(int)) {
	n := ExtractScore(utterance)
	if n == 0 {
		d.Verdict = VerdictLoop
		d.Missing = protocol.Spec(stage).RequiredFields
		d.RepairHint = "Give me a number between 1 and 10."
		return
	}
	set(n)
	d.Verdict = VerdictAdvance
}

// #endregion score-gate

// #region gap-gate

// gapGate needs both a named gap and a 1-10 score; it captures whichever
// the utterance offers and loops until both are present.
func (e *Evaluator) gapGate(d *Decision, it intent.Intent, utterance string, ev session.Evidence) {
	trimmed := strings.TrimSpace(utterance)

	hasName := ev.GapName != ""
	hasScore := ev.GapScore > 0

	if n := ExtractScore(trimmed); n > 0 && !hasScore {
		d.Fields.GapScore = n
		hasScore = true
	}
	if !hasName && it != intent.AnswerPartial && len(trimmed) >= 3 {
		d.Fields.GapName = trimmed
		hasName = true
	}

	if hasName && hasScore {
		d.Verdict = VerdictAdvance
		return
	}
	d.Verdict = VerdictLoop
	if !hasName {
		d.Missing = append(d.Missing, protocol.FieldGapName)
		d.RepairHint = "What would you call the gap between where you are and where you want to be?"
	}
	if !hasScore {
		d.Missing = append(d.Missing, protocol.FieldGapScore)
		if d.RepairHint == "" {
			d.RepairHint = "How wide is that gap, 1 to 10?"
		}
	}
}

// #endregion gap-gate

// #region pattern-gate

var paradigmMarkers = []string{"belief", "assumption", "expectation", "story", "rule", "habit"}

func (e *Evaluator) patternGate(d *Decision, it intent.Intent, utterance string) {
	trimmed := strings.TrimSpace(utterance)
	if it == intent.AnswerPartial || len(trimmed) < 3 {
		d.Verdict = VerdictLoop
		d.Missing = []protocol.FieldKey{protocol.FieldPatternName}
		d.RepairHint = "Is there a repeating pattern here — something this situation has in common with others?"
		return
	}
	d.Fields.PatternName = trimmed
	for _, tok := range tokenize(trimmed) {
		for _, m := range paradigmMarkers {
			if tok == m {
				d.Fields.Paradigm = m
			}
		}
	}
	d.Verdict = VerdictAdvance
}

// #endregion pattern-gate

// #region forces-gate

// forcesGate is a double threshold-accumulation gate: enumerated items fill
// the source-forces set first, overflow goes to nature forces, and advance
// requires both cumulative sets to reach their minimums.
func (e *Evaluator) forcesGate(d *Decision, utterance string, ev session.Evidence) {
	spec := protocol.Spec(protocol.StageForces)
	minSrc := spec.MinCount(protocol.FieldSourceForces)
	minNat := spec.MinCount(protocol.FieldNatureForces)

	items := ExtractListItems(utterance)
	needSrc := minSrc - len(ev.SourceForces)
	if needSrc < 0 {
		needSrc = 0
	}
	if needSrc > len(items) {
		needSrc = len(items)
	}
	d.Fields.SourceForces = items[:needSrc]
	d.Fields.NatureForces = items[needSrc:]

	srcCount := unionCount(ev.SourceForces, d.Fields.SourceForces)
	natCount := unionCount(ev.NatureForces, d.Fields.NatureForces)

	if srcCount >= minSrc && natCount >= minNat {
		d.Verdict = VerdictAdvance
		return
	}
	d.Verdict = VerdictLoop
	if srcCount < minSrc {
		d.Missing = append(d.Missing, protocol.FieldSourceForces)
		d.Needed += minSrc - srcCount
	}
	if natCount < minNat {
		d.Missing = append(d.Missing, protocol.FieldNatureForces)
		d.Needed += minNat - natCount
	}
	d.RepairHint = fmt.Sprintf("Name a few more forces at play — %d more will do it.", d.Needed)
}

// #endregion forces-gate

// #region commitment-gate

// commitmentGate closes the protocol: a well-formed commitment ends the
// session with a stop verdict rather than an advance past the final stage.
func (e *Evaluator) commitmentGate(d *Decision, it intent.Intent, utterance string) {
	trimmed := strings.TrimSpace(utterance)
	if it == intent.AnswerPartial || len(trimmed) < 3 {
		d.Verdict = VerdictLoop
		d.Missing = []protocol.FieldKey{protocol.FieldCommitment}
		d.RepairHint = "What's the one concrete thing you'll commit to, and by when?"
		return
	}
	d.Fields.Commitment = trimmed
	d.Verdict = VerdictStop
}

// #endregion commitment-gate

// #region helpers

// unionCount mirrors the accumulator's merge-unique semantics to compute
// the prospective cumulative cardinality without mutating evidence.
func unionCount(existing, incoming []string) int {
	seen := make(map[string]bool, len(existing)+len(incoming))
	n := 0
	for _, v := range existing {
		k := strings.ToLower(strings.TrimSpace(v))
		if k != "" && !seen[k] {
			seen[k] = true
			n++
		}
	}
	for _, v := range incoming {
		k := strings.ToLower(strings.TrimSpace(v))
		if k != "" && !seen[k] {
			seen[k] = true
			n++
		}
	}
	return n
}

// #endregion helpers
