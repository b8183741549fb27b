package model

import "fmt"

// Names of the static frames that sit outside the digit model.
const (
	ColonOff     = "colon0"
	ColonOn      = "colon1"
	TopButton    = "top_button"
	BottomButton = "bottom_button"
	Logo         = "logo"
)

// FrameKey identifies one pre-generated frame of a digit flip.
//
// From == To with Step 0 denotes the settled image for that character.
// Steps 1..3 are the intermediate poses of the From → To transition.
type FrameKey struct {
	From rune
	To   rune
	Step int
}

// Settled returns the key of the resting image for ch.
func Settled(ch rune) FrameKey {
	return FrameKey{From: ch, To: ch}
}

// IsSettled reports whether k names a resting image.
func (k FrameKey) IsSettled() bool {
	return k.Step == 0
}

// Name returns the file stem used for this frame, e.g. "121" for the first
// step of the 1 → 2 flip or "330" for a settled 3.
func (k FrameKey) Name() string {
	return fmt.Sprintf("%c%c%d", k.From, k.To, k.Step)
}

func (k FrameKey) String() string {
	return k.Name()
}

// ParseFrameKey is the inverse of FrameKey.Name.
func ParseFrameKey(name string) (FrameKey, error) {
	r := []rune(name)
	if len(r) != 3 {
		return FrameKey{}, fmt.Errorf("model: frame name %q must be 3 characters", name)
	}
	step := int(r[2] - '0')
	if step < 0 || step > 3 {
		return FrameKey{}, fmt.Errorf("model: frame name %q has invalid step", name)
	}
	k := FrameKey{From: r[0], To: r[1], Step: step}
	if step == 0 && k.From != k.To {
		return FrameKey{}, fmt.Errorf("model: settled frame %q must repeat its character", name)
	}
	return k, nil
}
