package intent

// #region intent

// Intent classifies one user utterance into the fixed intent set the gate
// evaluator understands.
type Intent string

const (
	ConsentYes     Intent = "consent_yes"
	ConsentNo      Intent = "consent_no"
	AnswerOk       Intent = "answer_ok"
	AnswerPartial  Intent = "answer_partial"
	Clarify        Intent = "clarify"
	Offtrack       Intent = "offtrack"
	AdviceRequest  Intent = "advice_request"
	Stop           Intent = "stop"
	MetaDiscussion Intent = "meta_discussion"
)

// All lists every member of the closed intent set.
var All = []Intent{
	ConsentYes, ConsentNo, AnswerOk, AnswerPartial,
	Clarify, Offtrack, AdviceRequest, Stop, MetaDiscussion,
}

// Valid reports whether i is a member of the closed intent set.
func Valid(i Intent) bool {
	for _, v := range All {
		if v == i {
			return true
		}
	}
	return false
}

// #endregion intent

// #region result

// Source records which classifier layer produced the intent.
type Source string

const (
	SourceRule     Source = "rule"     // deterministic pattern rule
	SourceModel    Source = "model"    // LLM fallback
	SourceFailsafe Source = "failsafe" // fail-closed default after model failure
)

// Result is the classification output for one utterance.
type Result struct {
	Intent     Intent
	Confidence float32
	Source     Source
	RuleName   string // set when Source == SourceRule
}

// #endregion result
