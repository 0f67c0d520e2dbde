package respond

import (
	"testing"

	"github.com/danielpatrickdp/stagegate/internal/protocol"
)

func TestIntroCoversEveryStage(t *testing.T) {
	s := NewScripted()
	for _, stage := range protocol.Order {
		if s.Render(stage, KindIntro, "", "en") == "" {
			t.Errorf("no intro script for stage %s", stage)
		}
		if s.NextQuestion(stage) == "" {
			t.Errorf("no repair script for stage %s", stage)
		}
	}
}

func TestCorrectiveHintPassedVerbatim(t *testing.T) {
	s := NewScripted()
	hint := "Before we move on I still need a few more feelings."
	if got := s.Render(protocol.StageEmotion, KindCorrective, hint, "en"); got != hint {
		t.Fatalf("corrective render = %q, want hint verbatim", got)
	}
}

func TestRepairPrefersGateHint(t *testing.T) {
	s := NewScripted()
	hint := "Name two or three more."
	if got := s.Render(protocol.StageEmotion, KindRepair, hint, "en"); got != hint {
		t.Fatalf("repair render = %q, want hint", got)
	}
	if got := s.Render(protocol.StageEmotion, KindRepair, "", "en"); got != stageRepairs["en"][protocol.StageEmotion] {
		t.Fatalf("repair render without hint = %q", got)
	}
}

func TestUnknownLocaleFallsBack(t *testing.T) {
	s := NewScripted()
	en := s.Render(protocol.StageTopic, KindIntro, "", "en")
	if got := s.Render(protocol.StageTopic, KindIntro, "", "xx"); got != en {
		t.Fatalf("locale fallback render = %q, want %q", got, en)
	}
}

func TestClosing(t *testing.T) {
	s := NewScripted()
	if s.Render(protocol.StageCommitment, KindClosing, "", "en") == "" {
		t.Fatal("empty closing text")
	}
}
