package safetynet

import (
	"strings"
	"testing"

	"github.com/danielpatrickdp/stagegate/internal/protocol"
	"github.com/danielpatrickdp/stagegate/internal/session"
	"github.com/danielpatrickdp/stagegate/internal/signals"
)

type fakePrompter struct{}

func (fakePrompter) NextQuestion(stage protocol.Stage) string {
	return "next question for " + string(stage)
}

func (fakePrompter) Intro(stage protocol.Stage) string {
	return "intro for " + string(stage)
}

func newValidator() *Validator {
	return NewValidator(DefaultConfig(), fakePrompter{})
}

func TestAcceptsCleanAdvance(t *testing.T) {
	v := newValidator()
	out := v.Validate(Input{
		OldStage:      protocol.StageTopic,
		ProposedStage: protocol.StageEvent,
		Evidence:      session.Evidence{Consent: true, Topic: "work"},
		OutgoingText:  "Think of one specific moment.",
	})
	if !out.Accepted {
		t.Fatalf("clean advance rejected: rule=%s reason=%s", out.Rule, out.Reason)
	}
	if out.CorrectedStage != protocol.StageEvent {
		t.Fatalf("corrected stage = %s", out.CorrectedStage)
	}
}

func TestBackwardsVeto(t *testing.T) {
	v := newValidator()
	out := v.Validate(Input{
		OldStage:      protocol.StageEmotion,
		ProposedStage: protocol.StageTopic,
	})
	if out.Accepted {
		t.Fatal("backwards transition accepted")
	}
	if out.Rule != RuleBackwards {
		t.Fatalf("rule = %s, want backwards_veto", out.Rule)
	}
	if out.CorrectedStage != protocol.StageEmotion {
		t.Fatalf("corrected stage = %s, want old stage", out.CorrectedStage)
	}
}

func TestBackwardsAllowedOnExplicitReset(t *testing.T) {
	v := newValidator()
	out := v.Validate(Input{
		OldStage:      protocol.StageEmotion,
		ProposedStage: protocol.StageConsent,
		Reset:         true,
	})
	if !out.Accepted {
		t.Fatalf("explicit reset rejected: rule=%s", out.Rule)
	}
}

func TestSkipAheadVetoWithoutEvidence(t *testing.T) {
	// At topic, a jump straight to emotion with no event evidence must be
	// corrected to event.
	v := newValidator()
	out := v.Validate(Input{
		OldStage:      protocol.StageTopic,
		ProposedStage: protocol.StageEmotion,
		Evidence:      session.Evidence{Consent: true, Topic: "work"},
	})
	if out.Accepted {
		t.Fatal("skip-ahead accepted without event evidence")
	}
	if out.Rule != RuleSkipAhead {
		t.Fatalf("rule = %s, want skip_ahead_veto", out.Rule)
	}
	if out.CorrectedStage != protocol.StageEvent {
		t.Fatalf("corrected stage = %s, want event", out.CorrectedStage)
	}
	if !strings.Contains(out.CorrectiveText, "event") {
		t.Fatalf("corrective text should target the event stage: %q", out.CorrectiveText)
	}
}

func TestSkipAheadAllowedWithEvidence(t *testing.T) {
	v := newValidator()
	out := v.Validate(Input{
		OldStage:      protocol.StageTopic,
		ProposedStage: protocol.StageEmotion,
		Evidence: session.Evidence{
			Consent: true,
			Topic:   "work",
			Event:   "argument with my boss yesterday",
		},
	})
	if !out.Accepted {
		t.Fatalf("skip with full intermediate evidence rejected: rule=%s", out.Rule)
	}
}

func TestSkipAheadCorrectionCapsAtNextStage(t *testing.T) {
	// Jump Topic → Thought where Event is met but Emotion is not: the
	// correction may move at most one stage forward.
	v := newValidator()
	out := v.Validate(Input{
		OldStage:      protocol.StageTopic,
		ProposedStage: protocol.StageThought,
		Evidence: session.Evidence{
			Consent: true,
			Topic:   "work",
			Event:   "argument with my boss yesterday",
		},
	})
	if out.Accepted {
		t.Fatal("skip accepted with unmet emotion evidence")
	}
	if protocol.Index(out.CorrectedStage) > protocol.Index(protocol.StageEvent) {
		t.Fatalf("corrected stage = %s, must be at most one ahead of topic", out.CorrectedStage)
	}
}

func TestRepetitionCeiling(t *testing.T) {
	v := newValidator()
	question := "What feelings came up in that moment?"
	out := v.Validate(Input{
		OldStage:      protocol.StageEmotion,
		ProposedStage: protocol.StageEmotion,
		OutgoingText:  question,
		RecentOutputs: []string{question, question},
	})
	if out.Accepted {
		t.Fatal("third identical question accepted")
	}
	if out.Rule != RuleRepetition {
		t.Fatalf("rule = %s, want repetition_ceiling", out.Rule)
	}
	if out.CorrectiveText == question || out.CorrectiveText == "" {
		t.Fatalf("substitute must differ from the repeated question: %q", out.CorrectiveText)
	}
}

func TestRepetitionFuzzyMatch(t *testing.T) {
	v := newValidator()
	out := v.Validate(Input{
		OldStage:      protocol.StageEmotion,
		ProposedStage: protocol.StageEmotion,
		OutgoingText:  "What feelings came up during that moment yesterday?",
		RecentOutputs: []string{
			"What feelings came up during that moment?",
			"What feelings came up during the moment?",
		},
	})
	if out.Accepted {
		t.Fatal("near-identical question accepted a third time")
	}
}

func TestTwoRepeatsAllowed(t *testing.T) {
	v := newValidator()
	question := "What feelings came up?"
	out := v.Validate(Input{
		OldStage:      protocol.StageEmotion,
		ProposedStage: protocol.StageEmotion,
		OutgoingText:  question,
		RecentOutputs: []string{question},
	})
	if !out.Accepted {
		t.Fatalf("second occurrence should pass: rule=%s", out.Rule)
	}
}

func TestStuckLoopForcesProgression(t *testing.T) {
	v := newValidator()
	out := v.Validate(Input{
		OldStage:      protocol.StageEmotion,
		ProposedStage: protocol.StageEmotion,
		TurnsInStage:  9, // min_turns 1 + margin 6, comfortably past
		StaleTurns:    4,
		OutgoingText:  "Anything else?",
	})
	if out.Accepted {
		t.Fatal("stuck loop not overridden")
	}
	if out.Rule != RuleStuckLoop {
		t.Fatalf("rule = %s, want stuck_loop_force", out.Rule)
	}
	if out.CorrectedStage != protocol.StageThought {
		t.Fatalf("corrected stage = %s, want thought", out.CorrectedStage)
	}
}

func TestStuckLoopRequiresStaleEvidence(t *testing.T) {
	v := newValidator()
	out := v.Validate(Input{
		OldStage:      protocol.StageEmotion,
		ProposedStage: protocol.StageEmotion,
		TurnsInStage:  9,
		StaleTurns:    1, // evidence still flowing in
		OutgoingText:  "Anything else?",
	})
	if !out.Accepted {
		t.Fatalf("progressing stage wrongly forced: rule=%s", out.Rule)
	}
}

func TestCompletionClaimWithSufficientEvidence(t *testing.T) {
	v := newValidator()
	out := v.Validate(Input{
		OldStage:      protocol.StageEmotion,
		ProposedStage: protocol.StageEmotion, // gate looped
		Evidence:      session.Evidence{Emotions: []string{"anger", "shame", "fear", "sadness"}},
		Signals:       signals.TurnSignals{Frustration: true},
		OutgoingText:  "What else was in the mix?",
	})
	if out.Accepted {
		t.Fatal("expected completion override")
	}
	if out.Rule != RuleCompletion {
		t.Fatalf("rule = %s, want completion_claim", out.Rule)
	}
	if out.CorrectedStage != protocol.StageThought {
		t.Fatalf("corrected stage = %s, want thought", out.CorrectedStage)
	}
}

func TestCompletionClaimWithInsufficientEvidence(t *testing.T) {
	v := newValidator()
	out := v.Validate(Input{
		OldStage:      protocol.StageEmotion,
		ProposedStage: protocol.StageThought, // a proposed silent advance
		Evidence:      session.Evidence{Emotions: []string{"anger"}},
		Signals:       signals.TurnSignals{CompletionClaim: true},
		OutgoingText:  "On to the next question.",
	})
	if out.Accepted {
		t.Fatal("insufficient evidence advance accepted")
	}
	if out.CorrectedStage != protocol.StageEmotion {
		t.Fatalf("corrected stage = %s, want emotion", out.CorrectedStage)
	}
	if !strings.Contains(out.CorrectiveText, "feelings") {
		t.Fatalf("corrective text should explain what's missing: %q", out.CorrectiveText)
	}
}

func TestInvalidProposedStageTreatedAsOld(t *testing.T) {
	v := newValidator()
	out := v.Validate(Input{
		OldStage:      protocol.StageTopic,
		ProposedStage: protocol.Stage("garbage"),
		OutgoingText:  "What should we look at?",
	})
	if !out.Accepted {
		t.Fatalf("rule = %s", out.Rule)
	}
	if out.CorrectedStage != protocol.StageTopic {
		t.Fatalf("corrected stage = %s, want topic", out.CorrectedStage)
	}
}

type panickyPrompter struct{}

func (panickyPrompter) NextQuestion(protocol.Stage) string { panic("prompter blew up") }
func (panickyPrompter) Intro(protocol.Stage) string        { panic("prompter blew up") }

func TestPanicRejectsAndKeepsOldStage(t *testing.T) {
	// A failure inside a rule must resolve to a rejection that holds the
	// current stage, never to a crashed or silently accepted transition.
	v := NewValidator(DefaultConfig(), panickyPrompter{})
	out := v.Validate(Input{
		OldStage:      protocol.StageEmotion,
		ProposedStage: protocol.StageTopic, // backwards, so a corrective text is built
	})
	if out.Accepted {
		t.Fatal("transition accepted after an internal failure")
	}
	if out.Rule != RuleInternal {
		t.Fatalf("rule = %s, want validator_error", out.Rule)
	}
	if out.CorrectedStage != protocol.StageEmotion {
		t.Fatalf("corrected stage = %s, want old stage", out.CorrectedStage)
	}
	if out.Reason == "" {
		t.Fatal("reason missing after an internal failure")
	}
}

func TestNilPrompterFallbackTexts(t *testing.T) {
	v := NewValidator(DefaultConfig(), nil)
	out := v.Validate(Input{
		OldStage:      protocol.StageEmotion,
		ProposedStage: protocol.StageTopic,
	})
	if out.Accepted || out.CorrectiveText == "" {
		t.Fatal("nil prompter should still produce a corrective text")
	}
}
