package classify

import (
	"testing"

	"history-shorts-pipeline/types"
)

func TestAssignShot_HookSegment(t *testing.T) {
	c := New(DefaultConfig())
	cases := map[types.ContentType]types.ShotType{
		types.CharacterAction:        types.MediumShot,
		types.EmotionalMoment:        types.CloseUp,
		types.DialogueConfrontation:  types.TwoShot,
		types.EnvironmentDescription: types.EstablishingShot,
		types.ExpositionSetup:        types.WideShot,
	}
	for ct, want := range cases {
		var h SelectionHistory
		if got := c.AssignShot(ct, 1, 12, &h); got != want {
			t.Errorf("hook shot for %s = %s, want %s", ct, got, want)
		}
	}
}

func TestAssignShot_NoBackToBackRepeats(t *testing.T) {
	c := New(DefaultConfig())
	contentTypes := []types.ContentType{
		types.ExpositionSetup,
		types.ExpositionSetup,
		types.EnvironmentDescription,
		types.CharacterAction,
		types.CharacterAction,
		types.EmotionalMoment,
		types.DialogueConfrontation,
		types.ExpositionSetup,
		types.EmotionalMoment,
		types.EmotionalMoment,
		types.CharacterAction,
		types.DialogueConfrontation,
	}

	var h SelectionHistory
	var prev types.ShotType
	for i, ct := range contentTypes {
		got := c.AssignShot(ct, i+1, len(contentTypes), &h)
		if i > 0 && got == prev {
			t.Errorf("segment %d repeats previous shot %s", i+1, got)
		}
		h.Push(got)
		prev = got
	}
}

func TestAssignShot_ForcedChangeAfterDouble(t *testing.T) {
	c := New(DefaultConfig())
	var h SelectionHistory
	h.Push(types.WideShot)
	h.Push(types.WideShot)

	got := c.AssignShot(types.ExpositionSetup, 6, 12, &h)
	if got == types.WideShot {
		t.Errorf("shot after an identical pair = %s, want a forced change", got)
	}
}

func TestAssignShot_EarlyPositionBias(t *testing.T) {
	c := New(DefaultConfig())
	var h SelectionHistory
	h.Push(types.CloseUp)

	// Segment 2 of 12 sits at position 1/12 < 0.25.
	got := c.AssignShot(types.EmotionalMoment, 2, 12, &h)
	if got != types.EstablishingShot && got != types.WideShot {
		t.Errorf("early segment shot = %s, want establishing or wide", got)
	}
}

func TestAssignShot_LatePositionBias(t *testing.T) {
	c := New(DefaultConfig())
	var h SelectionHistory
	h.Push(types.EstablishingShot)

	// Segment 12 of 12 sits at position 11/12 > 0.75.
	got := c.AssignShot(types.EnvironmentDescription, 12, 12, &h)
	if got != types.CloseUp && got != types.MediumShot {
		t.Errorf("late segment shot = %s, want close_up or medium", got)
	}
}

func TestAssignShot_UnknownContentType(t *testing.T) {
	c := New(DefaultConfig())
	var h SelectionHistory
	got := c.AssignShot(types.ContentType("mystery"), 5, 12, &h)
	if got == "" {
		t.Fatal("expected a shot for an unknown content type")
	}
}

func TestSelectionHistory_Tracking(t *testing.T) {
	var h SelectionHistory
	if _, ok := h.Last(); ok {
		t.Error("empty history should report no last shot")
	}
	if h.LastTwoSame() {
		t.Error("empty history should not report a double")
	}
	h.Push(types.WideShot)
	if last, ok := h.Last(); !ok || last != types.WideShot {
		t.Errorf("last = %s, %v", last, ok)
	}
	h.Push(types.WideShot)
	if !h.LastTwoSame() {
		t.Error("two identical pushes should report a double")
	}
	h.Push(types.CloseUp)
	if h.LastTwoSame() {
		t.Error("double should clear after a different push")
	}
}
