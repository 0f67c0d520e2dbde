package replay

import (
	"testing"

	"github.com/danielpatrickdp/stagegate/internal/gate"
	"github.com/danielpatrickdp/stagegate/internal/intent"
	"github.com/danielpatrickdp/stagegate/internal/protocol"
	"github.com/danielpatrickdp/stagegate/internal/safetynet"
	"github.com/danielpatrickdp/stagegate/internal/session"
)

// #region harness-tests

func TestReplayDoesNotMutateStartState(t *testing.T) {
	start := session.NewState("replay")
	start.Evidence.Emotions = []string{"anger"}

	Replay(start, []Interaction{
		{TurnID: "t01", Utterance: "yes, let's start"},
	}, safetynet.DefaultConfig())

	if start.CurrentStage != protocol.StageConsent {
		t.Fatalf("start state mutated: stage = %s", start.CurrentStage)
	}
	if len(start.Evidence.Emotions) != 1 {
		t.Fatalf("start evidence mutated: %v", start.Evidence.Emotions)
	}
}

func TestReplayFailsClosedWithoutScriptedIntent(t *testing.T) {
	start := session.NewState("replay")
	start.CurrentStage = protocol.StageTopic
	start.Evidence.Consent = true

	// No rule matches and the scripted judge has no reply, so the classifier
	// must fail closed to clarify and the stage must hold.
	results := Replay(start, []Interaction{
		{TurnID: "t01", Utterance: "work stress"},
	}, safetynet.DefaultConfig())

	if results[0].Intent != intent.Clarify {
		t.Fatalf("intent = %s, want clarify", results[0].Intent)
	}
	if results[0].Stage != protocol.StageTopic {
		t.Fatalf("stage = %s, want topic", results[0].Stage)
	}
	if results[0].Verdict != gate.VerdictLoop {
		t.Fatalf("verdict = %s, want loop", results[0].Verdict)
	}
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Verdict: gate.VerdictAdvance, Stage: protocol.StageTopic},
		{Verdict: gate.VerdictLoop, Stage: protocol.StageTopic, OverrideRule: safetynet.RuleRepetition},
		{Verdict: gate.VerdictStop, Stage: protocol.StageTopic},
	}
	s := Summarize(results)
	if s.TotalTurns != 3 || s.Advances != 1 || s.Loops != 1 || s.Stops != 1 || s.Overrides != 1 {
		t.Fatalf("summary = %+v", s)
	}
	if s.FinalStage != protocol.StageTopic {
		t.Fatalf("final stage = %s", s.FinalStage)
	}
}

// #endregion harness-tests
