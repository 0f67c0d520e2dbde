package protocol

import "testing"

func TestOrderIsTotal(t *testing.T) {
	if len(Order) != 14 {
		t.Fatalf("expected 14 stages, got %d", len(Order))
	}
	seen := make(map[Stage]bool)
	for i, s := range Order {
		if seen[s] {
			t.Fatalf("duplicate stage %s", s)
		}
		seen[s] = true
		if Index(s) != i {
			t.Errorf("Index(%s) = %d, want %d", s, Index(s), i)
		}
	}
}

func TestIndexUnknownStage(t *testing.T) {
	if Index(Stage("nonsense")) != -1 {
		t.Fatal("unknown stage should index to -1")
	}
	if Valid(Stage("nonsense")) {
		t.Fatal("unknown stage should not be valid")
	}
}

func TestNextPrev(t *testing.T) {
	if s, ok := Next(StageConsent); !ok || s != StageTopic {
		t.Fatalf("Next(consent) = %s, %v", s, ok)
	}
	if _, ok := Next(StageCommitment); ok {
		t.Fatal("final stage should have no next")
	}
	if s, ok := Prev(StageTopic); !ok || s != StageConsent {
		t.Fatalf("Prev(topic) = %s, %v", s, ok)
	}
	if _, ok := Prev(StageConsent); ok {
		t.Fatal("initial stage should have no prev")
	}
}

func TestInitialFinal(t *testing.T) {
	if Initial() != StageConsent {
		t.Fatalf("Initial() = %s", Initial())
	}
	if Final() != StageCommitment {
		t.Fatalf("Final() = %s", Final())
	}
}

func TestBetween(t *testing.T) {
	mid := Between(StageTopic, StageEmotion)
	if len(mid) != 1 || mid[0] != StageEvent {
		t.Fatalf("Between(topic, emotion) = %v", mid)
	}
	if Between(StageTopic, StageEvent) != nil {
		t.Fatal("adjacent stages have nothing between")
	}
	if Between(StageEmotion, StageTopic) != nil {
		t.Fatal("out-of-order stages have nothing between")
	}
}

func TestEveryStageHasSpec(t *testing.T) {
	for _, s := range Order {
		sp := Spec(s)
		if len(sp.RequiredFields) == 0 {
			t.Errorf("stage %s has no required fields", s)
		}
	}
}

func TestEmotionThresholdIsFour(t *testing.T) {
	sp := Spec(StageEmotion)
	if sp.MinCount(FieldEmotions) != 4 {
		t.Fatalf("emotion threshold = %d, want 4", sp.MinCount(FieldEmotions))
	}
}

func TestMinCountDefaultsToOne(t *testing.T) {
	sp := Spec(StageTopic)
	if sp.MinCount(FieldTopic) != 1 {
		t.Fatalf("scalar field min count = %d, want 1", sp.MinCount(FieldTopic))
	}
}
