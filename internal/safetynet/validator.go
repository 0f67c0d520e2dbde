package safetynet

import (
	"fmt"
	"log"
	"strings"

	"github.com/danielpatrickdp/stagegate/internal/protocol"
	"github.com/danielpatrickdp/stagegate/internal/session"
)

// #region validator

// Validator deterministically audits a proposed stage transition against the
// evidence snapshot and recent turn history, vetoing and correcting invalid
// transitions. It performs no external calls and holds no mutable state; it
// is safe to share across conversations.
type Validator struct {
	cfg      Config
	prompter Prompter
}

// NewValidator creates a validator. prompter may be nil; overrides then fall
// back to generic corrective texts.
func NewValidator(cfg Config, prompter Prompter) *Validator {
	return &Validator{cfg: cfg, prompter: prompter}
}

// #endregion validator

// #region validate

// Validate audits one proposed transition. Rules run in a fixed order:
// backwards veto, skip-ahead veto, repetition ceiling, stuck-loop forcing,
// completion-claim handling. The first rule that fires decides the outcome.
// A bug inside any rule must not crash the turn: the fallback is to reject
// the proposal and keep the old stage.
func (v *Validator) Validate(in Input) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[NET] recovered from validator panic: %v", r)
			out = Outcome{
				Accepted:       false,
				CorrectedStage: in.OldStage,
				Rule:           RuleInternal,
				Reason:         fmt.Sprintf("validator panic: %v", r),
			}
		}
	}()

	oldIdx := protocol.Index(in.OldStage)
	proposed := in.ProposedStage
	if !protocol.Valid(proposed) {
		proposed = in.OldStage
	}
	propIdx := protocol.Index(proposed)

	// Rule 1: backwards transitions only happen via an explicit reset.
	if propIdx < oldIdx && !in.Reset {
		return v.reject(RuleBackwards, in.OldStage,
			v.nextQuestion(in.OldStage),
			fmt.Sprintf("proposed %s is behind current %s", proposed, in.OldStage))
	}

	// Rule 2: skipping ahead requires evidence for every stage in between.
	if propIdx-oldIdx > 1 {
		if unmet, ok := firstUnmetBetween(in.OldStage, proposed, in.Evidence); ok {
			corrected := unmet
			if next, hasNext := protocol.Next(in.OldStage); hasNext && protocol.Index(unmet) > protocol.Index(next) {
				corrected = next
			}
			return v.reject(RuleSkipAhead, corrected,
				v.nextQuestion(unmet),
				fmt.Sprintf("skip from %s to %s without evidence for %s", in.OldStage, proposed, unmet))
		}
	}

	// Rule 3: the same (or near-identical) question must not go out a third
	// time; substitute the protocol-derived next question instead.
	if repeats := countRepeats(in.OutgoingText, in.RecentOutputs, v.cfg.RepeatWindow, v.cfg.FuzzyThreshold); repeats+1 >= v.cfg.MaxRepeats {
		substitute := "Let's try a different angle. " + v.nextQuestion(proposed)
		return v.reject(RuleRepetition, proposed, substitute,
			fmt.Sprintf("outgoing text repeated %d times within window", repeats+1))
	}

	// Rule 4: a stage far past its minimum turns with no new evidence gets
	// forced forward; forward progress outranks evidence sufficiency.
	if propIdx <= oldIdx {
		minTurns := protocol.Spec(in.OldStage).MinTurns
		if in.TurnsInStage >= minTurns+v.cfg.StuckMargin && in.StaleTurns >= v.cfg.StaleTurnLimit {
			if next, ok := protocol.Next(in.OldStage); ok {
				return v.reject(RuleStuckLoop, next, v.intro(next),
					fmt.Sprintf("%d turns in %s with %d stale turns", in.TurnsInStage, in.OldStage, in.StaleTurns))
			}
		}
	}

	// Rule 5: "I already answered" and completion claims. With sufficient
	// evidence the user is right and we advance; without it we explain what
	// is still missing instead of silently advancing or re-asking.
	if in.Signals.CompletionClaim || in.Signals.Frustration {
		spec := protocol.Spec(in.OldStage)
		missing := in.Evidence.MissingFor(spec)
		if len(missing) == 0 {
			if propIdx <= oldIdx {
				if next, ok := protocol.Next(in.OldStage); ok {
					return v.reject(RuleCompletion, next, v.intro(next),
						"completion claim with sufficient evidence, advancing")
				}
			}
			// Proposal already advances; let it through.
		} else if propIdx > oldIdx {
			return v.reject(RuleCompletion, in.OldStage,
				insufficientText(in.OldStage, missing),
				fmt.Sprintf("completion claim but missing %v", missing))
		} else {
			return v.reject(RuleCompletion, in.OldStage,
				insufficientText(in.OldStage, missing),
				fmt.Sprintf("frustration signal but missing %v", missing))
		}
	}

	return Outcome{Accepted: true, CorrectedStage: proposed}
}

// #endregion validate

// #region rule-helpers

func (v *Validator) reject(rule string, corrected protocol.Stage, text, reason string) Outcome {
	log.Printf("[NET] override rule=%s corrected=%s: %s", rule, corrected, reason)
	return Outcome{
		Accepted:       false,
		CorrectedStage: corrected,
		CorrectiveText: text,
		Rule:           rule,
		Reason:         reason,
	}
}

// firstUnmetBetween returns the first stage strictly between old and proposed
// whose required evidence is not yet present.
func firstUnmetBetween(old, proposed protocol.Stage, ev session.Evidence) (protocol.Stage, bool) {
	for _, s := range protocol.Between(old, proposed) {
		if !ev.Meets(protocol.Spec(s)) {
			return s, true
		}
	}
	return "", false
}

func (v *Validator) nextQuestion(stage protocol.Stage) string {
	if v.prompter != nil {
		return v.prompter.NextQuestion(stage)
	}
	return "Let's take the current question one more time, in your own words."
}

func (v *Validator) intro(stage protocol.Stage) string {
	if v.prompter != nil {
		return v.prompter.Intro(stage)
	}
	return "Let's move to the next step."
}

// fieldLabels translate evidence keys into user-facing wording for the
// insufficient-evidence explanation.
var fieldLabels = map[protocol.FieldKey]string{
	protocol.FieldConsent:      "your go-ahead",
	protocol.FieldTopic:        "a topic",
	protocol.FieldEvent:        "a specific recent moment",
	protocol.FieldEmotions:     "a few more feelings",
	protocol.FieldThought:      "the thought you had",
	protocol.FieldAction:       "what you did",
	protocol.FieldReadiness:    "a readiness number",
	protocol.FieldGapName:      "a name for the gap",
	protocol.FieldGapScore:     "a size for the gap",
	protocol.FieldPatternName:  "the repeating pattern",
	protocol.FieldStance:       "where you stand",
	protocol.FieldSourceForces: "the outside forces",
	protocol.FieldNatureForces: "the inner forces",
	protocol.FieldChoice:       "your choice",
	protocol.FieldVision:       "the picture of how you want it",
	protocol.FieldCommitment:   "a concrete commitment",
}

func insufficientText(stage protocol.Stage, missing []protocol.FieldKey) string {
	labels := make([]string, 0, len(missing))
	for _, k := range missing {
		if l, ok := fieldLabels[k]; ok {
			labels = append(labels, l)
		} else {
			labels = append(labels, string(k))
		}
	}
	return fmt.Sprintf("I hear you — and I don't want to rush past this step. Before we move on I still need %s.",
		strings.Join(labels, " and "))
}

// #endregion rule-helpers
