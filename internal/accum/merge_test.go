package accum

import (
	"reflect"
	"testing"

	"github.com/danielpatrickdp/stagegate/internal/gate"
	"github.com/danielpatrickdp/stagegate/internal/session"
)

func TestMergeIdempotent(t *testing.T) {
	ev := session.Evidence{
		Topic:    "work stress",
		Emotions: []string{"anger"},
	}
	f := gate.Fields{
		Event:    "argument with my boss yesterday",
		Emotions: []string{"anger", "shame", "fear"},
	}

	once := Merge(ev, f)
	twice := Merge(once, f)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merge not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestMergeUnionPreservesFirstSeenOrder(t *testing.T) {
	ev := session.Evidence{Emotions: []string{"anger", "sadness"}}
	f := gate.Fields{Emotions: []string{"sadness", "shame", "anger", "fear"}}

	out := Merge(ev, f)

	want := []string{"anger", "sadness", "shame", "fear"}
	if !reflect.DeepEqual(out.Emotions, want) {
		t.Fatalf("emotions = %v, want %v", out.Emotions, want)
	}
}

func TestMergeNeverDropsValues(t *testing.T) {
	ev := session.Evidence{SourceForces: []string{"fear of conflict", "pressure from above"}}
	out := Merge(ev, gate.Fields{NatureForces: []string{"perfectionism"}})

	if len(out.SourceForces) != 2 {
		t.Fatalf("source forces shrank: %v", out.SourceForces)
	}
}

func TestScalarOverwriteRules(t *testing.T) {
	ev := session.Evidence{Topic: "work stress"}

	// Placeholders never overwrite.
	for _, p := range []string{"", "  ", "n/a", "none", "unknown", "NULL"} {
		out := Merge(ev, gate.Fields{Topic: p})
		if out.Topic != "work stress" {
			t.Errorf("placeholder %q overwrote topic: %q", p, out.Topic)
		}
	}

	// Real values do.
	out := Merge(ev, gate.Fields{Topic: "my marriage"})
	if out.Topic != "my marriage" {
		t.Fatalf("topic = %q, want overwrite", out.Topic)
	}
}

func TestScoreBounds(t *testing.T) {
	ev := session.Evidence{GapScore: 5}
	if out := Merge(ev, gate.Fields{GapScore: 0}); out.GapScore != 5 {
		t.Fatal("zero score must not overwrite")
	}
	if out := Merge(ev, gate.Fields{GapScore: 11}); out.GapScore != 5 {
		t.Fatal("out-of-range score must not overwrite")
	}
	if out := Merge(ev, gate.Fields{GapScore: 8}); out.GapScore != 8 {
		t.Fatal("valid score should overwrite")
	}
}

func TestMergeDoesNotShareSlices(t *testing.T) {
	ev := session.Evidence{Emotions: []string{"anger"}}
	out := Merge(ev, gate.Fields{Emotions: []string{"fear"}})

	out.Emotions[0] = "mutated"
	if ev.Emotions[0] != "anger" {
		t.Fatal("merge aliased the input slice")
	}
}

func TestConsentPointer(t *testing.T) {
	ev := session.Evidence{}
	if out := Merge(ev, gate.Fields{}); out.Consent {
		t.Fatal("unset consent must stay false")
	}
	yes := true
	if out := Merge(ev, gate.Fields{Consent: &yes}); !out.Consent {
		t.Fatal("consent not recorded")
	}
}
