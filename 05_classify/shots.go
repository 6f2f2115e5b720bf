package classify

import (
	"history-shorts-pipeline/types"
)

// SelectionHistory remembers the last two shot assignments. It is passed
// into AssignShot explicitly so repetition state is never hidden in a
// closure or package variable.
type SelectionHistory struct {
	shots [2]types.ShotType
	n     int
}

// Push records a new assignment, discarding the oldest.
func (h *SelectionHistory) Push(s types.ShotType) {
	h.shots[0] = h.shots[1]
	h.shots[1] = s
	if h.n < 2 {
		h.n++
	}
}

// Last returns the most recent assignment.
func (h *SelectionHistory) Last() (types.ShotType, bool) {
	if h.n == 0 {
		return "", false
	}
	return h.shots[1], true
}

// LastTwoSame reports whether the two most recent assignments are equal.
func (h *SelectionHistory) LastTwoSame() bool {
	return h.n >= 2 && h.shots[0] == h.shots[1]
}

// AssignShot picks a shot treatment for one segment.
//
// Policy (in priority order):
//  1. The first segment gets the hook treatment: a shot chosen for
//     immediate visual impact rather than from the preference list.
//  2. Never repeat the immediately preceding segment's shot; if the last
//     two assignments were identical, any non-matching shot from the
//     content type's allowed list is forced.
//  3. Segments in the first quarter of the schedule bias toward
//     establishing/wide shots, the last quarter toward close/medium;
//     the middle uses the content type's preference order.
//
// AssignShot never fails: unknown content types resolve through the
// exposition_setup preferences, and medium_shot is the terminal default.
func (c *Classifier) AssignShot(contentType types.ContentType, index, n int, history *SelectionHistory) types.ShotType {
	if index == 1 {
		return hookShot(contentType)
	}

	allowed := c.cfg.ShotPreferences[contentType]
	if len(allowed) == 0 {
		allowed = c.cfg.ShotPreferences[types.ExpositionSetup]
	}
	if len(allowed) == 0 {
		return types.MediumShot
	}

	last, hasLast := history.Last()

	if history.LastTwoSame() {
		for _, s := range allowed {
			if s != last {
				return s
			}
		}
		return types.MediumShot
	}

	var preferred []types.ShotType
	position := float64(index-1) / float64(n)
	switch {
	case position < 0.25:
		preferred = []types.ShotType{types.EstablishingShot, types.WideShot}
	case position > 0.75:
		preferred = []types.ShotType{types.CloseUp, types.MediumShot}
	default:
		preferred = allowed
	}

	for _, s := range preferred {
		if !inShots(allowed, s) {
			continue
		}
		if hasLast && s == last {
			continue
		}
		return s
	}
	// Preference lists exhausted (all filtered by the repeat rule): take
	// anything allowed that is not the previous shot.
	for _, s := range allowed {
		if !hasLast || s != last {
			return s
		}
	}
	return types.MediumShot
}

// hookShot is the documented first-segment special case: maximize the
// immediate visual hook instead of following the preference tables.
func hookShot(contentType types.ContentType) types.ShotType {
	switch contentType {
	case types.CharacterAction:
		return types.MediumShot
	case types.EmotionalMoment:
		return types.CloseUp
	case types.DialogueConfrontation:
		return types.TwoShot
	case types.EnvironmentDescription:
		return types.EstablishingShot
	default:
		return types.WideShot
	}
}

func inShots(list []types.ShotType, s types.ShotType) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
