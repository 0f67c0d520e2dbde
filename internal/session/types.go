package session

import (
	"time"

	"github.com/danielpatrickdp/stagegate/internal/protocol"
)

// #region evidence

// Evidence is the structured data accumulated from the user across turns,
// one slot per stage deliverable. Scalar slots are overwritten only by
// non-empty, non-placeholder values; multi-value slots grow by union with
// first-seen order preserved (see internal/accum).
type Evidence struct {
	Consent      bool     `json:"consent"`
	Topic        string   `json:"topic,omitempty"`
	Event        string   `json:"event,omitempty"`
	Emotions     []string `json:"emotions,omitempty"`
	Thought      string   `json:"thought,omitempty"`
	Action       string   `json:"action,omitempty"`
	Readiness    int      `json:"readiness,omitempty"` // 1-10, 0 = unset
	GapName      string   `json:"gap_name,omitempty"`
	GapScore     int      `json:"gap_score,omitempty"` // 1-10, 0 = unset
	PatternName  string   `json:"pattern_name,omitempty"`
	Paradigm     string   `json:"paradigm,omitempty"`
	Stance       string   `json:"stance,omitempty"`
	SourceForces []string `json:"source_forces,omitempty"`
	NatureForces []string `json:"nature_forces,omitempty"`
	Choice       string   `json:"choice,omitempty"`
	Vision       string   `json:"vision,omitempty"`
	Commitment   string   `json:"commitment,omitempty"`
}

// Clone returns a deep copy; multi-value slices are not shared.
func (e Evidence) Clone() Evidence {
	c := e
	c.Emotions = append([]string(nil), e.Emotions...)
	c.SourceForces = append([]string(nil), e.SourceForces...)
	c.NatureForces = append([]string(nil), e.NatureForces...)
	return c
}

// Count returns the cardinality of a multi-value field, or 1/0 for a
// scalar field depending on presence.
func (e Evidence) Count(k protocol.FieldKey) int {
	switch k {
	case protocol.FieldEmotions:
		return len(e.Emotions)
	case protocol.FieldSourceForces:
		return len(e.SourceForces)
	case protocol.FieldNatureForces:
		return len(e.NatureForces)
	default:
		if e.Has(k) {
			return 1
		}
		return 0
	}
}

// Has reports whether the field holds a usable value.
func (e Evidence) Has(k protocol.FieldKey) bool {
	switch k {
	case protocol.FieldConsent:
		return e.Consent
	case protocol.FieldTopic:
		return e.Topic != ""
	case protocol.FieldEvent:
		return e.Event != ""
	case protocol.FieldEmotions:
		return len(e.Emotions) > 0
	case protocol.FieldThought:
		return e.Thought != ""
	case protocol.FieldAction:
		return e.Action != ""
	case protocol.FieldReadiness:
		return e.Readiness > 0
	case protocol.FieldGapName:
		return e.GapName != ""
	case protocol.FieldGapScore:
		return e.GapScore > 0
	case protocol.FieldPatternName:
		return e.PatternName != ""
	case protocol.FieldParadigm:
		return e.Paradigm != ""
	case protocol.FieldStance:
		return e.Stance != ""
	case protocol.FieldSourceForces:
		return len(e.SourceForces) > 0
	case protocol.FieldNatureForces:
		return len(e.NatureForces) > 0
	case protocol.FieldChoice:
		return e.Choice != ""
	case protocol.FieldVision:
		return e.Vision != ""
	case protocol.FieldCommitment:
		return e.Commitment != ""
	}
	return false
}

// MissingFor returns the required fields of spec that the evidence does not
// yet satisfy, including multi-value fields below their minimum count.
func (e Evidence) MissingFor(spec protocol.StageSpec) []protocol.FieldKey {
	var missing []protocol.FieldKey
	for _, k := range spec.RequiredFields {
		if e.Count(k) < spec.MinCount(k) {
			missing = append(missing, k)
		}
	}
	return missing
}

// Meets reports whether all required fields of spec are satisfied.
func (e Evidence) Meets(spec protocol.StageSpec) bool {
	return len(e.MissingFor(spec)) == 0
}

// FieldCount returns the number of evidence fields currently populated.
// Used by the stuck-loop detector to notice turns that add nothing.
func (e Evidence) FieldCount() int {
	n := 0
	for _, s := range protocol.Order {
		for _, k := range protocol.Spec(s).RequiredFields {
			n += e.Count(k)
		}
	}
	if e.Paradigm != "" {
		n++
	}
	return n
}

// #endregion evidence

// #region messages

// Message is one entry of the conversation transcript.
type Message struct {
	Sender    string         `json:"sender"` // "user" | "assistant"
	Text      string         `json:"text"`
	Stage     protocol.Stage `json:"stage"`
	CreatedAt time.Time      `json:"created_at"`
}

// #endregion messages

// #region session-state

// maxRecentOutputs bounds the ring of recent system outputs kept for the
// repetition detector.
const maxRecentOutputs = 8

// State is the per-conversation protocol state. It is owned exclusively by
// the orchestrator for the duration of one turn: load, mutate once, persist.
type State struct {
	ConversationID string         `json:"conversation_id"`
	CurrentStage   protocol.Stage `json:"current_stage"`
	Evidence       Evidence       `json:"evidence"`
	TurnsInStage   int            `json:"turns_in_stage"`
	StaleTurns     int            `json:"stale_turns"` // consecutive turns in stage with no new evidence
	History        []Message      `json:"history"`
	RecentOutputs  []string       `json:"recent_outputs"` // bounded ring, newest last
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewState creates the default state for a first turn.
func NewState(conversationID string) *State {
	return &State{
		ConversationID: conversationID,
		CurrentStage:   protocol.Initial(),
	}
}

// PushOutput appends an outgoing text to the bounded ring of recent
// system outputs, evicting the oldest entry when full.
func (s *State) PushOutput(text string) {
	s.RecentOutputs = append(s.RecentOutputs, text)
	if len(s.RecentOutputs) > maxRecentOutputs {
		s.RecentOutputs = s.RecentOutputs[len(s.RecentOutputs)-maxRecentOutputs:]
	}
}

// Append records a transcript message stamped with the current stage.
func (s *State) Append(sender, text string, at time.Time) {
	s.History = append(s.History, Message{
		Sender:    sender,
		Text:      text,
		Stage:     s.CurrentStage,
		CreatedAt: at,
	})
}

// #endregion session-state
