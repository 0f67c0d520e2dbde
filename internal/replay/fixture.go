package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/stagegate/internal/gate"
	"github.com/danielpatrickdp/stagegate/internal/intent"
	"github.com/danielpatrickdp/stagegate/internal/protocol"
	"github.com/danielpatrickdp/stagegate/internal/session"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	StartStage      string                  `json:"start_stage"`
	StartEvidence   session.Evidence        `json:"start_evidence"`
	Interactions    []FixtureInteraction    `json:"interactions"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureEventCriteria mirrors gate.EventCriteria with JSON tags.
type FixtureEventCriteria struct {
	Recent      bool `json:"recent"`
	Personal    bool `json:"personal"`
	Emotional   bool `json:"emotional"`
	OtherPerson bool `json:"other_person"`
}

// FixtureInteraction mirrors replay.Interaction with JSON tags.
type FixtureInteraction struct {
	TurnID      string                `json:"turn_id"`
	Utterance   string                `json:"utterance"`
	ModelIntent string                `json:"model_intent,omitempty"`
	Event       *FixtureEventCriteria `json:"event,omitempty"`
	ForceStage  string                `json:"force_stage,omitempty"`
}

// FixtureExpectedResult captures the expected outcome per turn.
type FixtureExpectedResult struct {
	TurnID       string `json:"turn_id"`
	Verdict      string `json:"verdict"`
	Stage        string `json:"stage"`
	OverrideRule string `json:"override_rule,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToStartState converts the fixture's start block to a session state.
func (f *Fixture) ToStartState() (*session.State, error) {
	st := session.NewState("replay")
	if f.StartStage != "" {
		stage := protocol.Stage(f.StartStage)
		if !protocol.Valid(stage) {
			return nil, fmt.Errorf("fixture start stage %q invalid", f.StartStage)
		}
		st.CurrentStage = stage
	}
	st.Evidence = f.StartEvidence.Clone()
	return st, nil
}

// ToInteraction converts a FixtureInteraction to a domain Interaction.
func (fi *FixtureInteraction) ToInteraction() Interaction {
	inter := Interaction{
		TurnID:      fi.TurnID,
		Utterance:   fi.Utterance,
		ModelIntent: intent.Intent(fi.ModelIntent),
		ForceStage:  protocol.Stage(fi.ForceStage),
	}
	if fi.Event != nil {
		inter.Event = &gate.EventCriteria{
			Recent:      fi.Event.Recent,
			Personal:    fi.Event.Personal,
			Emotional:   fi.Event.Emotional,
			OtherPerson: fi.Event.OtherPerson,
		}
	}
	return inter
}

// ToInteractions converts every fixture interaction.
func (f *Fixture) ToInteractions() []Interaction {
	out := make([]Interaction, len(f.Interactions))
	for i := range f.Interactions {
		out[i] = f.Interactions[i].ToInteraction()
	}
	return out
}

// #endregion fixture-loader
