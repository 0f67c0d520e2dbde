package signals

import "testing"

func TestWholeTokenMatching(t *testing.T) {
	cases := []struct {
		text   string
		phrase string
		want   bool
	}{
		{"that's broken", "ok", false},
		{"ok let's go", "ok", true},
		{"it is ok.", "ok", true},
		{"i noticed something", "no", false},
		{"no, not that", "no", true},
		{"nothing else to add", "no", false},
		{"we are done here", "done", true},
		{"i abandoned the plan", "done", false},
		{"stop", "stop", true},
		{"unstoppable", "stop", false},
	}
	for _, c := range cases {
		if got := HasPhrase(c.text, c.phrase); got != c.want {
			t.Errorf("HasPhrase(%q, %q) = %v, want %v", c.text, c.phrase, got, c.want)
		}
	}
}

func TestMultiWordPhrase(t *testing.T) {
	if !HasPhrase("ugh, I already answered that!", "i already answered") {
		t.Fatal("multi-word phrase should match across punctuation")
	}
	if HasPhrase("the answer eludes me", "i already answered") {
		t.Fatal("partial phrase should not match")
	}
}

func TestDetect(t *testing.T) {
	cases := []struct {
		text  string
		check func(TurnSignals) bool
		name  string
	}{
		{"yes, let's do it", func(s TurnSignals) bool { return s.Affirmation }, "affirmation"},
		{"no thanks", func(s TurnSignals) bool { return s.Decline }, "decline"},
		{"that's all from me", func(s TurnSignals) bool { return s.CompletionClaim }, "completion"},
		{"I already said that, move on", func(s TurnSignals) bool { return s.Frustration }, "frustration"},
		{"I'd rather not", func(s TurnSignals) bool { return s.Refusal }, "refusal"},
		{"honestly, no idea", func(s TurnSignals) bool { return s.DontKnow }, "dont-know"},
		{"please stop", func(s TurnSignals) bool { return s.StopRequest }, "stop"},
	}
	for _, c := range cases {
		if !c.check(Detect(c.text)) {
			t.Errorf("%s: Detect(%q) missed expected signal", c.name, c.text)
		}
	}
}

func TestDetectNoFalsePositives(t *testing.T) {
	s := Detect("my workshop is booked this week")
	if s.StopRequest || s.Affirmation || s.Decline || s.CompletionClaim {
		t.Fatalf("unexpected signals for neutral utterance: %+v", s)
	}
}
