package runner

import (
	"flipclock/internal/clockface"
	"flipclock/internal/model"
)

// State is what a display needs to draw the clock at one instant.
type State struct {
	Format    string                             `json:"format"`
	Digits    string                             `json:"digits"`
	Frames    [clockface.NumCells]string         `json:"frames"`
	Keys      [clockface.NumCells]model.FrameKey `json:"-"`
	Colon     bool                               `json:"colon"`
	Animating bool                               `json:"animating"`
	Hours     int                                `json:"hours"`
	Minutes   int                                `json:"minutes"`
	Demo      bool                               `json:"demo"`
}

// ColonName is the asset name of the colon image for this state.
func (s State) ColonName() string {
	if s.Colon {
		return model.ColonOn
	}
	return model.ColonOff
}

// Sink receives every visible change of the clock.
type Sink interface {
	Name() string
	Update(State) error
}
