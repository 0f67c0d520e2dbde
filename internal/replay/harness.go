package replay

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/stagegate/internal/accum"
	"github.com/danielpatrickdp/stagegate/internal/gate"
	"github.com/danielpatrickdp/stagegate/internal/intent"
	"github.com/danielpatrickdp/stagegate/internal/protocol"
	"github.com/danielpatrickdp/stagegate/internal/respond"
	"github.com/danielpatrickdp/stagegate/internal/safetynet"
	"github.com/danielpatrickdp/stagegate/internal/session"
	"github.com/danielpatrickdp/stagegate/internal/signals"
)

// #region types

// Interaction represents a single recorded turn for replay. ModelIntent and
// Event script the LLM collaborators so a replay run is fully deterministic;
// ForceStage simulates a misbehaving planner proposing an arbitrary jump,
// which is how fixtures exercise the safety net.
type Interaction struct {
	TurnID      string
	Utterance   string
	ModelIntent intent.Intent       // scripted judge reply; empty = judge error
	Event       *gate.EventCriteria // scripted event judgment; nil = judge error
	ForceStage  protocol.Stage      // override the proposed stage before validation
}

// Result captures the outcome of replaying one interaction through the
// full pipeline.
type Result struct {
	TurnID       string
	Intent       intent.Intent
	Verdict      gate.Verdict
	Stage        protocol.Stage // final stage after the safety net
	OverrideRule string         // safety-net rule that fired, empty when accepted
	Text         string
	Done         bool
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalTurns int
	Advances   int
	Loops      int
	Overrides  int
	Stops      int
	FinalStage protocol.Stage
}

// #endregion types

// #region scripted-judges

type scriptedIntentJudge struct{ it intent.Intent }

func (j scriptedIntentJudge) ClassifyIntent(ctx context.Context, utterance string, stage protocol.Stage, language string) (intent.Intent, float32, error) {
	if j.it == "" {
		return "", 0, fmt.Errorf("no scripted intent for this turn")
	}
	return j.it, 0.9, nil
}

type scriptedEventJudge struct{ crit *gate.EventCriteria }

func (j scriptedEventJudge) JudgeEvent(ctx context.Context, utterance string) (gate.EventCriteria, error) {
	if j.crit == nil {
		return gate.EventCriteria{}, fmt.Errorf("no scripted event judgment for this turn")
	}
	return *j.crit, nil
}

// #endregion scripted-judges

// #region replay

// Replay iterates through interactions, applying the full pipeline per turn:
// classify → gate → accumulate → render → validate. Operates entirely
// in-memory; nothing is persisted.
func Replay(start *session.State, interactions []Interaction, cfg safetynet.Config) []Result {
	st := *start
	st.Evidence = start.Evidence.Clone()
	st.RecentOutputs = append([]string(nil), start.RecentOutputs...)

	scripted := respond.NewScripted()
	validator := safetynet.NewValidator(cfg, scripted)
	results := make([]Result, 0, len(interactions))

	for _, inter := range interactions {
		sig := signals.Detect(inter.Utterance)
		classifier := intent.NewClassifier(scriptedIntentJudge{it: inter.ModelIntent})
		evaluator := gate.NewEvaluator(scriptedEventJudge{crit: inter.Event})

		cls := classifier.Classify(context.Background(), inter.Utterance, st.CurrentStage, "en")
		d := evaluator.Evaluate(context.Background(), st.CurrentStage, cls.Intent, inter.Utterance, st.Evidence)

		merged := accum.Merge(st.Evidence, d.Fields)
		staleAfter := st.StaleTurns + 1
		if merged.FieldCount() > st.Evidence.FieldCount() {
			staleAfter = 0
		}

		if d.Verdict == gate.VerdictStop {
			st.Evidence = merged
			results = append(results, Result{
				TurnID:  inter.TurnID,
				Intent:  cls.Intent,
				Verdict: gate.VerdictStop,
				Stage:   st.CurrentStage,
				Done:    true,
			})
			continue
		}

		proposed := st.CurrentStage
		var text string
		if d.Verdict == gate.VerdictAdvance {
			proposed = d.ProposedStage
			text = scripted.Render(proposed, respond.KindIntro, "", "en")
		} else {
			text = scripted.Render(st.CurrentStage, respond.KindRepair, d.RepairHint, "en")
		}
		if inter.ForceStage != "" {
			proposed = inter.ForceStage
		}

		out := validator.Validate(safetynet.Input{
			OldStage:      st.CurrentStage,
			ProposedStage: proposed,
			Evidence:      merged,
			OutgoingText:  text,
			RecentOutputs: st.RecentOutputs,
			TurnsInStage:  st.TurnsInStage,
			StaleTurns:    staleAfter,
			Signals:       sig,
		})

		finalStage := proposed
		if !out.Accepted {
			finalStage = out.CorrectedStage
			if out.CorrectiveText != "" {
				text = out.CorrectiveText
			}
		}

		if finalStage != st.CurrentStage {
			st.CurrentStage = finalStage
			st.TurnsInStage = 0
			st.StaleTurns = 0
		} else {
			st.TurnsInStage++
			st.StaleTurns = staleAfter
		}
		st.Evidence = merged
		st.PushOutput(text)

		results = append(results, Result{
			TurnID:       inter.TurnID,
			Intent:       cls.Intent,
			Verdict:      d.Verdict,
			Stage:        finalStage,
			OverrideRule: out.Rule,
			Text:         text,
		})
	}

	return results
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []Result) Summary {
	s := Summary{TotalTurns: len(results)}
	for _, r := range results {
		switch r.Verdict {
		case gate.VerdictAdvance:
			s.Advances++
		case gate.VerdictLoop:
			s.Loops++
		case gate.VerdictStop:
			s.Stops++
		}
		if r.OverrideRule != "" {
			s.Overrides++
		}
	}
	if len(results) > 0 {
		s.FinalStage = results[len(results)-1].Stage
	}
	return s
}

// #endregion replay
