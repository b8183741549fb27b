package assets

import (
	"flipclock/internal/clockface"
	"flipclock/internal/digit"
)

// Transition is an ordered character pair that some cell may flip through.
type Transition struct {
	From, To rune
}

func (t Transition) String() string {
	return string([]rune{t.From, t.To})
}

// specialTransitions are produced by time arithmetic rather than by
// stepping through an alphabet: the hour-units cell wraps 12 → 01 on a
// 12-hour clock and 23 → 00 on a 24-hour clock.
var specialTransitions = []Transition{
	{'2', '1'},
	{'3', '0'},
}

// Transitions lists every pair the clock face can request, in a stable
// order and without duplicates: the adjacent wrap-around pairs of the ones,
// tens-minute and every tens-hour alphabet, plus the hour wraps.
func Transitions() []Transition {
	alphabets := []digit.Alphabet{digit.Ones, digit.MinuteTens}
	for _, f := range clockface.Formats() {
		alphabets = append(alphabets, f.HourTens())
	}

	seen := make(map[Transition]bool)
	var out []Transition
	add := func(t Transition) {
		if t.From == t.To || seen[t] {
			return
		}
		seen[t] = true
		out = append(out, t)
	}

	for _, a := range alphabets {
		for _, p := range a.Pairs() {
			add(Transition{From: p[0], To: p[1]})
		}
	}
	for _, t := range specialTransitions {
		add(t)
	}
	return out
}
