package gate

import (
	"github.com/danielpatrickdp/stagegate/internal/intent"
	"github.com/danielpatrickdp/stagegate/internal/protocol"
)

// #region verdict

// Verdict is the gate's decision for one turn.
type Verdict string

const (
	VerdictAdvance Verdict = "advance"
	VerdictLoop    Verdict = "loop"
	VerdictStop    Verdict = "stop"
)

// #endregion verdict

// #region fields

// Fields carries evidence values extracted from one utterance, to be merged
// into the session evidence by the accumulator. Zero values mean "nothing
// extracted"; Consent uses a pointer to distinguish unset from false.
type Fields struct {
	Consent      *bool
	Topic        string
	Event        string
	Emotions     []string
	Thought      string
	Action       string
	Readiness    int
	GapName      string
	GapScore     int
	PatternName  string
	Paradigm     string
	Stance       string
	SourceForces []string
	NatureForces []string
	Choice       string
	Vision       string
	Commitment   string
}

// #endregion fields

// #region decision

// Decision is the ephemeral per-turn output of the gate evaluator. It is
// consumed by the accumulator and the safety net, then discarded.
type Decision struct {
	Intent        intent.Intent
	Verdict       Verdict
	ProposedStage protocol.Stage // next stage when Verdict == advance
	Fields        Fields
	Missing       []protocol.FieldKey
	Needed        int // remaining count for threshold gates, 0 otherwise
	RepairHint    string
}

// #endregion decision

// #region event-criteria

// EventCriteria is the criteria-set checklist for the event stage. Advance
// requires all four.
type EventCriteria struct {
	Recent      bool `json:"recent" jsonschema:"description=The event happened within roughly the last two weeks"`
	Personal    bool `json:"personal" jsonschema:"description=The speaker was personally involved"`
	Emotional   bool `json:"emotional" jsonschema:"description=The event carries an emotional signature"`
	OtherPerson bool `json:"other_person" jsonschema:"description=Another person was present or involved"`
}

// All reports whether every criterion is satisfied.
func (c EventCriteria) All() bool {
	return c.Recent && c.Personal && c.Emotional && c.OtherPerson
}

// MissingNames lists the unmet criteria for repair hints.
func (c EventCriteria) MissingNames() []string {
	var out []string
	if !c.Recent {
		out = append(out, "a recent moment")
	}
	if !c.Personal {
		out = append(out, "your own involvement")
	}
	if !c.Emotional {
		out = append(out, "what it stirred in you")
	}
	if !c.OtherPerson {
		out = append(out, "who else was there")
	}
	return out
}

// #endregion event-criteria
