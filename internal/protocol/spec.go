package protocol

// #region field-key

// FieldKey names one evidence deliverable captured by a stage.
type FieldKey string

const (
	FieldConsent      FieldKey = "consent"
	FieldTopic        FieldKey = "topic"
	FieldEvent        FieldKey = "event"
	FieldEmotions     FieldKey = "emotions"
	FieldThought      FieldKey = "thought"
	FieldAction       FieldKey = "action"
	FieldReadiness    FieldKey = "readiness"
	FieldGapName      FieldKey = "gap_name"
	FieldGapScore     FieldKey = "gap_score"
	FieldPatternName  FieldKey = "pattern_name"
	FieldParadigm     FieldKey = "paradigm"
	FieldStance       FieldKey = "stance"
	FieldSourceForces FieldKey = "source_forces"
	FieldNatureForces FieldKey = "nature_forces"
	FieldChoice       FieldKey = "choice"
	FieldVision       FieldKey = "vision"
	FieldCommitment   FieldKey = "commitment"
)

// #endregion field-key

// #region stage-spec

// StageSpec describes the completion criteria for one stage: how many turns
// it must hold at minimum, which evidence fields it must produce, and the
// minimum cardinality for multi-value fields.
type StageSpec struct {
	MinTurns       int
	RequiredFields []FieldKey
	MinCounts      map[FieldKey]int
}

// specs is the static protocol table. Read-only after init; safe to share
// process-wide without locking.
//
// Canonical thresholds: the emotion gate requires 4 distinct tokens and the
// forces gate requires 2 source + 2 nature forces.
var specs = map[Stage]StageSpec{
	StageConsent: {
		MinTurns:       0,
		RequiredFields: []FieldKey{FieldConsent},
	},
	StageTopic: {
		MinTurns:       1,
		RequiredFields: []FieldKey{FieldTopic},
	},
	StageEvent: {
		MinTurns:       1,
		RequiredFields: []FieldKey{FieldEvent},
	},
	StageEmotion: {
		MinTurns:       1,
		RequiredFields: []FieldKey{FieldEmotions},
		MinCounts:      map[FieldKey]int{FieldEmotions: 4},
	},
	StageThought: {
		MinTurns:       1,
		RequiredFields: []FieldKey{FieldThought},
	},
	StageAction: {
		MinTurns:       1,
		RequiredFields: []FieldKey{FieldAction},
	},
	StageReadiness: {
		MinTurns:       1,
		RequiredFields: []FieldKey{FieldReadiness},
	},
	StageGap: {
		MinTurns:       1,
		RequiredFields: []FieldKey{FieldGapName, FieldGapScore},
	},
	StagePattern: {
		MinTurns:       1,
		RequiredFields: []FieldKey{FieldPatternName},
	},
	StageStance: {
		MinTurns:       1,
		RequiredFields: []FieldKey{FieldStance},
	},
	StageForces: {
		MinTurns:       1,
		RequiredFields: []FieldKey{FieldSourceForces, FieldNatureForces},
		MinCounts: map[FieldKey]int{
			FieldSourceForces: 2,
			FieldNatureForces: 2,
		},
	},
	StageChoice: {
		MinTurns:       1,
		RequiredFields: []FieldKey{FieldChoice},
	},
	StageVision: {
		MinTurns:       1,
		RequiredFields: []FieldKey{FieldVision},
	},
	StageCommitment: {
		MinTurns:       1,
		RequiredFields: []FieldKey{FieldCommitment},
	},
}

// Spec returns the completion criteria for a stage. Unknown stages return
// a zero spec.
func Spec(s Stage) StageSpec {
	return specs[s]
}

// MinCount returns the minimum cardinality for a multi-value field of the
// stage, or 1 when the field is required without an explicit count.
func (sp StageSpec) MinCount(k FieldKey) int {
	if n, ok := sp.MinCounts[k]; ok {
		return n
	}
	return 1
}

// #endregion stage-spec
