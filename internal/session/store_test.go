package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/stagegate/internal/protocol"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadUnknownConversationReturnsDefault(t *testing.T) {
	store := newTestStore(t)
	st, err := store.Load("never-seen")
	if err != nil {
		t.Fatal(err)
	}
	if st.CurrentStage != protocol.Initial() {
		t.Fatalf("stage = %s, want initial", st.CurrentStage)
	}
	if st.TurnsInStage != 0 || len(st.History) != 0 {
		t.Fatalf("default state not empty: %+v", st)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)

	st := NewState("conv-1")
	st.CurrentStage = protocol.StageEmotion
	st.Evidence.Consent = true
	st.Evidence.Topic = "work"
	st.Evidence.Emotions = []string{"anger", "sadness"}
	st.TurnsInStage = 3
	st.StaleTurns = 1
	st.Append("user", "I felt angry and sad", now)
	st.PushOutput("What else was in the mix?")
	st.UpdatedAt = now

	if err := store.Save(st); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load("conv-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentStage != protocol.StageEmotion {
		t.Fatalf("stage = %s", got.CurrentStage)
	}
	if !got.Evidence.Consent || got.Evidence.Topic != "work" || len(got.Evidence.Emotions) != 2 {
		t.Fatalf("evidence = %+v", got.Evidence)
	}
	if got.TurnsInStage != 3 || got.StaleTurns != 1 {
		t.Fatalf("counters = %d/%d", got.TurnsInStage, got.StaleTurns)
	}
	if len(got.History) != 1 || got.History[0].Text != "I felt angry and sad" {
		t.Fatalf("history = %+v", got.History)
	}
	if len(got.RecentOutputs) != 1 {
		t.Fatalf("recent outputs = %v", got.RecentOutputs)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Fatalf("updated_at = %s, want %s", got.UpdatedAt, now)
	}
}

func TestSaveUpsertsSameConversation(t *testing.T) {
	store := newTestStore(t)
	st := NewState("conv-2")
	if err := store.Save(st); err != nil {
		t.Fatal(err)
	}
	st.CurrentStage = protocol.StageTopic
	if err := store.Save(st); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load("conv-2")
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentStage != protocol.StageTopic {
		t.Fatalf("stage = %s after upsert", got.CurrentStage)
	}
}

func TestSaveRejectsInvalidStage(t *testing.T) {
	store := newTestStore(t)
	st := NewState("conv-3")
	st.CurrentStage = protocol.Stage("garbage")
	if err := store.Save(st); err == nil {
		t.Fatal("expected error for invalid stage")
	}
}

func TestLoadRejectsCorruptStage(t *testing.T) {
	store := newTestStore(t)
	_, err := store.DB().Exec(
		`INSERT INTO sessions (conversation_id, current_stage, evidence_json, history_json, recent_outputs, updated_at)
		 VALUES ('conv-4', 'garbage', '{}', '[]', '[]', '2026-01-01T00:00:00Z')`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load("conv-4"); err == nil {
		t.Fatal("expected error for corrupt persisted stage")
	}
}

func TestListConversations(t *testing.T) {
	store := newTestStore(t)
	for i, id := range []string{"a", "b", "c"} {
		st := NewState(id)
		st.UpdatedAt = time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC)
		if err := store.Save(st); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := store.ListConversations(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "c" || ids[1] != "b" {
		t.Fatalf("ids = %v, want most recent first", ids)
	}
}

func TestPushOutputEvictsOldest(t *testing.T) {
	st := NewState("conv-ring")
	for i := 0; i < maxRecentOutputs+3; i++ {
		st.PushOutput(string(rune('a' + i)))
	}
	if len(st.RecentOutputs) != maxRecentOutputs {
		t.Fatalf("ring length = %d", len(st.RecentOutputs))
	}
	if st.RecentOutputs[0] != "d" {
		t.Fatalf("oldest = %q, want d", st.RecentOutputs[0])
	}
}
