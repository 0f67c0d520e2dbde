package protocol

// #region stage

// Stage identifies one ordered step of the coaching protocol.
type Stage string

const (
	StageConsent    Stage = "consent"
	StageTopic      Stage = "topic"
	StageEvent      Stage = "event"
	StageEmotion    Stage = "emotion"
	StageThought    Stage = "thought"
	StageAction     Stage = "action"
	StageReadiness  Stage = "readiness"
	StageGap        Stage = "gap"
	StagePattern    Stage = "pattern"
	StageStance     Stage = "stance"
	StageForces     Stage = "forces"
	StageChoice     Stage = "choice"
	StageVision     Stage = "vision"
	StageCommitment Stage = "commitment"
)

// Order is the canonical stage sequence. Position in this slice defines
// "next" and "previous"; the ordering is total and never changes at runtime.
var Order = []Stage{
	StageConsent,
	StageTopic,
	StageEvent,
	StageEmotion,
	StageThought,
	StageAction,
	StageReadiness,
	StageGap,
	StagePattern,
	StageStance,
	StageForces,
	StageChoice,
	StageVision,
	StageCommitment,
}

// #endregion stage

// #region ordering

var indexOf = func() map[Stage]int {
	m := make(map[Stage]int, len(Order))
	for i, s := range Order {
		m[s] = i
	}
	return m
}()

// Index returns the position of s in the canonical order, or -1 for an
// unknown stage.
func Index(s Stage) int {
	if i, ok := indexOf[s]; ok {
		return i
	}
	return -1
}

// Valid reports whether s is a member of the closed stage set.
func Valid(s Stage) bool {
	_, ok := indexOf[s]
	return ok
}

// Initial returns the first stage of the protocol.
func Initial() Stage {
	return Order[0]
}

// Final returns the last stage of the protocol.
func Final() Stage {
	return Order[len(Order)-1]
}

// Next returns the stage after s. ok is false when s is the final stage
// or unknown.
func Next(s Stage) (Stage, bool) {
	i := Index(s)
	if i < 0 || i+1 >= len(Order) {
		return s, false
	}
	return Order[i+1], true
}

// Prev returns the stage before s. ok is false when s is the initial stage
// or unknown.
func Prev(s Stage) (Stage, bool) {
	i := Index(s)
	if i <= 0 {
		return s, false
	}
	return Order[i-1], true
}

// Between returns the stages strictly between a and b in protocol order.
// Returns nil when the stages are adjacent, equal, or out of order.
func Between(a, b Stage) []Stage {
	ai, bi := Index(a), Index(b)
	if ai < 0 || bi < 0 || bi-ai <= 1 {
		return nil
	}
	return Order[ai+1 : bi]
}

// #endregion ordering
