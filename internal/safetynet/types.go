package safetynet

import (
	"github.com/danielpatrickdp/stagegate/internal/protocol"
	"github.com/danielpatrickdp/stagegate/internal/session"
	"github.com/danielpatrickdp/stagegate/internal/signals"
)

// #region rules

// Rule names recorded in the audit log when an override fires.
const (
	RuleBackwards  = "backwards_veto"
	RuleSkipAhead  = "skip_ahead_veto"
	RuleRepetition = "repetition_ceiling"
	RuleStuckLoop  = "stuck_loop_force"
	RuleCompletion = "completion_claim"
	RuleInternal   = "validator_error"
)

// #endregion rules

// #region config

// Config holds the safety-net thresholds.
type Config struct {
	RepeatWindow   int     // K recent outputs examined by the repetition detector
	MaxRepeats     int     // proposed output rejected at this occurrence count
	FuzzyThreshold float64 // keyword-overlap similarity counting as near-identical
	StuckMargin    int     // turns past the stage's MinTurns before forcing progression
	StaleTurnLimit int     // consecutive no-new-evidence turns required for stuck detection
}

// DefaultConfig returns the canonical thresholds: the third near-identical
// question in a row is rejected and replaced.
func DefaultConfig() Config {
	return Config{
		RepeatWindow:   6,
		MaxRepeats:     3,
		FuzzyThreshold: 0.8,
		StuckMargin:    6,
		StaleTurnLimit: 3,
	}
}

// #endregion config

// #region prompter

// Prompter supplies deterministic protocol-derived texts the validator
// substitutes when it overrides a transition. Implemented by respond.Scripted.
type Prompter interface {
	NextQuestion(stage protocol.Stage) string
	Intro(stage protocol.Stage) string
}

// #endregion prompter

// #region input-outcome

// Input is the immutable snapshot the validator audits. It carries no
// handles to external services; validation is pure computation.
type Input struct {
	OldStage      protocol.Stage
	ProposedStage protocol.Stage
	Evidence      session.Evidence
	OutgoingText  string
	RecentOutputs []string // newest last
	TurnsInStage  int
	StaleTurns    int
	Signals       signals.TurnSignals
	Reset         bool // explicit, logged reset; exempts the backwards veto
}

// Outcome is the validator's verdict. When Accepted is false the orchestrator
// must use CorrectedStage and, if non-empty, CorrectiveText verbatim.
type Outcome struct {
	Accepted       bool
	CorrectedStage protocol.Stage
	CorrectiveText string
	Rule           string // which rule fired; empty when accepted
	Reason         string
}

// #endregion input-outcome
