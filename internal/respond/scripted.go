package respond

import (
	"github.com/danielpatrickdp/stagegate/internal/protocol"
)

// #region kind

// Kind selects which flavor of text the selector renders.
type Kind int

const (
	KindIntro      Kind = iota // scripted stage-intro question
	KindRepair                 // short loop/repair prompt
	KindCorrective             // pass-through corrective text from the safety net
	KindClosing                // end-of-session text
)

// #endregion kind

// #region selector

// Selector renders outgoing text for a stage. The orchestrator only needs a
// stage intro, a repair prompt, and verbatim pass-through of corrective text.
type Selector interface {
	Render(stage protocol.Stage, kind Kind, hint string, locale string) string
}

// #endregion selector

// #region scripts

// stageIntros holds the scripted opening question per stage, keyed by locale.
var stageIntros = map[string]map[protocol.Stage]string{
	"en": {
		protocol.StageConsent:    "This is a short guided reflection. We go step by step, and nothing moves on until you're ready. Shall we start?",
		protocol.StageTopic:      "What's the topic on your mind right now?",
		protocol.StageEvent:      "Think of one specific, recent moment connected to that — something that actually happened, with you in it. What was it?",
		protocol.StageEmotion:    "Stay with that moment. What feelings came up? Name as many as you can.",
		protocol.StageThought:    "And what went through your head right then — the exact thought?",
		protocol.StageAction:     "What did you actually do in that moment?",
		protocol.StageReadiness:  "How ready are you to work on this, from 1 to 10?",
		protocol.StageGap:        "What's the gap between where you are and where you want to be — and how wide is it, 1 to 10?",
		protocol.StagePattern:    "Does this remind you of other situations? What's the repeating pattern?",
		protocol.StageStance:     "Where do you stand toward that pattern right now?",
		protocol.StageForces:     "What forces keep this pattern in place — both around you and inside you?",
		protocol.StageChoice:     "Knowing all that, what do you choose?",
		protocol.StageVision:     "Picture it going the way you want. What does that look like?",
		protocol.StageCommitment: "What's the one concrete step you'll commit to, and by when?",
	},
}

// stageRepairs holds the generic re-ask per stage when no specific hint is
// supplied by the gate.
var stageRepairs = map[string]map[protocol.Stage]string{
	"en": {
		protocol.StageConsent:    "I just need a clear yes or no before we begin.",
		protocol.StageTopic:      "One or two words is enough — what should we look at?",
		protocol.StageEvent:      "Try one concrete moment: when was it, and who was there?",
		protocol.StageEmotion:    "What else was in the mix? Even faint feelings count.",
		protocol.StageThought:    "If that moment had a caption, what would it say?",
		protocol.StageAction:     "What did you do — or hold back from doing?",
		protocol.StageReadiness:  "Just a number between 1 and 10 is fine.",
		protocol.StageGap:        "Name the gap first, then size it 1 to 10.",
		protocol.StagePattern:    "When has something like this happened before?",
		protocol.StageStance:     "However you'd put it — what's your position toward this?",
		protocol.StageForces:     "List a few — outside pressures and inner ones both count.",
		protocol.StageChoice:     "There's no wrong answer. What feels like your call?",
		protocol.StageVision:     "Describe the picture — what's different in it?",
		protocol.StageCommitment: "Make it small and concrete: one step, one deadline.",
	},
}

var closingText = map[string]string{
	"en": "That's a real commitment — well done. We'll leave it here.",
}

const defaultLocale = "en"

// #endregion scripts

// #region scripted

// Scripted is the default selector: static locale-keyed scripts with no
// external calls. Corrective text is always passed through verbatim.
type Scripted struct{}

// NewScripted returns the scripted selector.
func NewScripted() *Scripted {
	return &Scripted{}
}

// Render produces the outgoing text for one turn.
func (s *Scripted) Render(stage protocol.Stage, kind Kind, hint string, locale string) string {
	if kind == KindCorrective && hint != "" {
		return hint
	}
	if _, ok := stageIntros[locale]; !ok {
		locale = defaultLocale
	}
	switch kind {
	case KindIntro:
		return stageIntros[locale][stage]
	case KindRepair:
		if hint != "" {
			return hint
		}
		return stageRepairs[locale][stage]
	case KindClosing:
		return closingText[locale]
	}
	return stageRepairs[locale][stage]
}

// NextQuestion returns the deterministic repair question for a stage. The
// safety net substitutes this when it rejects a repetitive proposed output.
func (s *Scripted) NextQuestion(stage protocol.Stage) string {
	return stageRepairs[defaultLocale][stage]
}

// Intro returns the scripted opening question for a stage. Used by the
// safety net when it forces progression to a new stage.
func (s *Scripted) Intro(stage protocol.Stage) string {
	return stageIntros[defaultLocale][stage]
}

// #endregion scripted
