package orchestrator

// #region imports
import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/stagegate/internal/accum"
	"github.com/danielpatrickdp/stagegate/internal/audit"
	"github.com/danielpatrickdp/stagegate/internal/gate"
	"github.com/danielpatrickdp/stagegate/internal/intent"
	"github.com/danielpatrickdp/stagegate/internal/protocol"
	"github.com/danielpatrickdp/stagegate/internal/respond"
	"github.com/danielpatrickdp/stagegate/internal/safetynet"
	"github.com/danielpatrickdp/stagegate/internal/session"
	"github.com/danielpatrickdp/stagegate/internal/signals"
)

// #endregion

// #region result

// TurnResult is what a caller (CLI, replay harness) gets back for one turn.
type TurnResult struct {
	TurnID         string
	ConversationID string
	Intent         intent.Intent
	Verdict        gate.Verdict
	Stage          protocol.Stage // final stage after the safety net
	Text           string         // outgoing text, corrective text already applied
	OverrideRule   string         // safety-net rule that fired, empty when accepted
	Done           bool           // session ended this turn
}

// #endregion

// #region orchestrator-struct

// Orchestrator is the top-level coordinator for one conversation turn:
// classify, gate, accumulate, render, validate, persist, audit. State flows
// load-mutate-save exactly once per turn; a per-conversation lock serializes
// concurrent turns for the same conversation.
type Orchestrator struct {
	classifier *intent.Classifier
	evaluator  *gate.Evaluator
	validator  *safetynet.Validator
	store      *session.Store
	selector   respond.Selector
	locale     string

	mu    sync.Mutex
	locks map[string]*convLock
}

// convLock serializes turns for one conversation. Entries are reference
// counted and dropped from the map once no turn holds or waits on them, so
// a long-running process does not retain a mutex per conversation ever seen.
type convLock struct {
	mu   sync.Mutex
	refs int
}

// NewOrchestrator creates a fully wired orchestrator. judges may be nil; the
// classifier and gate then run their deterministic layers only.
func NewOrchestrator(store *session.Store, intentJudge intent.Judge, eventJudge gate.Judge, locale string) *Orchestrator {
	scripted := respond.NewScripted()
	if locale == "" {
		locale = "en"
	}
	return &Orchestrator{
		classifier: intent.NewClassifier(intentJudge),
		evaluator:  gate.NewEvaluator(eventJudge),
		validator:  safetynet.NewValidator(safetynet.DefaultConfig(), scripted),
		store:      store,
		selector:   scripted,
		locale:     locale,
		locks:      make(map[string]*convLock),
	}
}

func (o *Orchestrator) acquire(conversationID string) *convLock {
	o.mu.Lock()
	l, ok := o.locks[conversationID]
	if !ok {
		l = &convLock{}
		o.locks[conversationID] = l
	}
	l.refs++
	o.mu.Unlock()

	l.mu.Lock()
	return l
}

func (o *Orchestrator) release(conversationID string, l *convLock) {
	l.mu.Unlock()

	o.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(o.locks, conversationID)
	}
	o.mu.Unlock()
}

// #endregion

// #region process-turn

const stopAcknowledgement = "Okay, we'll stop here. You can pick this back up whenever you like."

// ProcessTurn runs the full pipeline for one user utterance.
func (o *Orchestrator) ProcessTurn(ctx context.Context, conversationID, utterance string) (*TurnResult, error) {
	l := o.acquire(conversationID)
	defer o.release(conversationID, l)

	st, err := o.store.Load(conversationID)
	if err != nil {
		return nil, fmt.Errorf("process turn: %w", err)
	}

	turnID := uuid.NewString()
	now := time.Now().UTC()
	sig := signals.Detect(utterance)

	cls := o.classifier.Classify(ctx, utterance, st.CurrentStage, o.locale)
	log.Printf("[ORCH] classify: conv=%s stage=%s intent=%s source=%s conf=%.2f",
		conversationID, st.CurrentStage, cls.Intent, cls.Source, cls.Confidence)

	d := o.evaluator.Evaluate(ctx, st.CurrentStage, cls.Intent, utterance, st.Evidence)

	merged := accum.Merge(st.Evidence, d.Fields)
	staleAfter := st.StaleTurns + 1
	if merged.FieldCount() > st.Evidence.FieldCount() {
		staleAfter = 0
	}

	// Stop ends the session without a transition for the safety net to audit.
	if d.Verdict == gate.VerdictStop {
		text := stopAcknowledgement
		if cls.Intent != intent.Stop {
			text = o.selector.Render(st.CurrentStage, respond.KindClosing, "", o.locale)
		}
		st.Evidence = merged
		st.Append("user", utterance, now)
		st.Append("assistant", text, now)
		st.UpdatedAt = now
		if err := o.store.Save(st); err != nil {
			return nil, fmt.Errorf("process turn: %w", err)
		}
		o.logAudit(audit.Entry{
			ConversationID: conversationID,
			TurnID:         turnID,
			StageBefore:    string(st.CurrentStage),
			Intent:         string(cls.Intent),
			Verdict:        string(gate.VerdictStop),
			StageAfter:     string(st.CurrentStage),
			CreatedAt:      now,
		})
		return &TurnResult{
			TurnID:         turnID,
			ConversationID: conversationID,
			Intent:         cls.Intent,
			Verdict:        gate.VerdictStop,
			Stage:          st.CurrentStage,
			Text:           text,
			Done:           true,
		}, nil
	}

	proposed := st.CurrentStage
	var text string
	if d.Verdict == gate.VerdictAdvance {
		proposed = d.ProposedStage
		text = o.selector.Render(proposed, respond.KindIntro, "", o.locale)
	} else {
		text = o.selector.Render(st.CurrentStage, respond.KindRepair, d.RepairHint, o.locale)
	}

	out := o.validator.Validate(safetynet.Input{
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

	before := st.CurrentStage
	st.Append("user", utterance, now)
	if finalStage != st.CurrentStage {
		st.CurrentStage = finalStage
		st.TurnsInStage = 0
		st.StaleTurns = 0
	} else {
		st.TurnsInStage++
		st.StaleTurns = staleAfter
	}
	st.Evidence = merged
	st.Append("assistant", text, now)
	st.PushOutput(text)
	st.UpdatedAt = now

	if err := o.store.Save(st); err != nil {
		return nil, fmt.Errorf("process turn: %w", err)
	}
	o.logAudit(audit.Entry{
		ConversationID: conversationID,
		TurnID:         turnID,
		StageBefore:    string(before),
		Intent:         string(cls.Intent),
		Verdict:        string(d.Verdict),
		StageAfter:     string(finalStage),
		OverrideRule:   out.Rule,
		Reason:         out.Reason,
		CreatedAt:      now,
	})

	log.Printf("[ORCH] turn %s: conv=%s %s → %s verdict=%s override=%s",
		turnID, conversationID, before, finalStage, d.Verdict, out.Rule)

	return &TurnResult{
		TurnID:         turnID,
		ConversationID: conversationID,
		Intent:         cls.Intent,
		Verdict:        d.Verdict,
		Stage:          finalStage,
		Text:           text,
		OverrideRule:   out.Rule,
	}, nil
}

// #endregion

// #region reset

// Reset deliberately moves a conversation back to the initial stage, clearing
// the accumulated evidence. This is the only sanctioned backwards transition;
// it is logged and audited like any turn.
func (o *Orchestrator) Reset(ctx context.Context, conversationID string) (*TurnResult, error) {
	l := o.acquire(conversationID)
	defer o.release(conversationID, l)

	st, err := o.store.Load(conversationID)
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}

	turnID := uuid.NewString()
	now := time.Now().UTC()
	before := st.CurrentStage

	st.CurrentStage = protocol.Initial()
	st.Evidence = session.Evidence{}
	st.TurnsInStage = 0
	st.StaleTurns = 0
	st.RecentOutputs = nil
	st.UpdatedAt = now

	text := o.selector.Render(protocol.Initial(), respond.KindIntro, "", o.locale)
	st.Append("assistant", text, now)
	st.PushOutput(text)

	if err := o.store.Save(st); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	o.logAudit(audit.Entry{
		ConversationID: conversationID,
		TurnID:         turnID,
		StageBefore:    string(before),
		Intent:         "reset",
		Verdict:        "reset",
		StageAfter:     string(protocol.Initial()),
		Reason:         "explicit reset requested",
		CreatedAt:      now,
	})

	log.Printf("[ORCH] reset: conv=%s %s → %s", conversationID, before, protocol.Initial())
	return &TurnResult{
		TurnID:         turnID,
		ConversationID: conversationID,
		Stage:          protocol.Initial(),
		Text:           text,
	}, nil
}

// #endregion

// #region greeting

// Greeting returns the scripted opener for a conversation's current stage,
// for callers that print a prompt before the first user turn.
func (o *Orchestrator) Greeting(conversationID string) (string, error) {
	st, err := o.store.Load(conversationID)
	if err != nil {
		return "", fmt.Errorf("greeting: %w", err)
	}
	return o.selector.Render(st.CurrentStage, respond.KindIntro, "", o.locale), nil
}

// #endregion

// #region audit-helper

// logAudit writes the audit row; audit failures never fail the turn.
func (o *Orchestrator) logAudit(e audit.Entry) {
	if err := audit.LogTurn(o.store.DB(), e); err != nil {
		log.Printf("[ORCH] failed to write audit entry for turn %s: %v", e.TurnID, err)
	}
}

// #endregion
