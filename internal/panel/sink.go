package panel

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	appLog "flipclock/internal/log"
	"flipclock/internal/metrics"
	"flipclock/internal/runner"
	"flipclock/internal/screen"
)

// Blitter is a display that can be cleared and written rectangle by
// rectangle. *Display implements it.
type Blitter interface {
	Fill(c color.RGBA) error
	Blit(r image.Rectangle, img image.Image) error
}

// Sink mirrors the clock state onto a Blitter, sending only what changed.
type Sink struct {
	screen *screen.Screen
	dev    Blitter

	mu   sync.Mutex
	prev *runner.State
}

func NewSink(s *screen.Screen, dev Blitter) *Sink {
	return &Sink{screen: s, dev: dev}
}

func (s *Sink) Name() string { return "panel" }

// Update draws the regions that differ from the last successful update. The
// first update, and any update after a failure, clears and redraws
// everything.
func (s *Sink) Update(st runner.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if s.prev == nil {
		if err := s.dev.Fill(s.screen.Background()); err != nil {
			return fmt.Errorf("panel: clear: %w", err)
		}
	}
	regions := s.screen.Changes(s.prev, st)
	for _, r := range regions {
		img, err := s.screen.Image(r)
		if err != nil {
			s.prev = nil
			return err
		}
		if err := s.dev.Blit(r.Rect, img); err != nil {
			s.prev = nil
			return err
		}
	}
	if len(regions) > 0 {
		metrics.FrameBlitTime.Observe(time.Since(start).Seconds())
		appLog.Debug("panel updated", "regions", len(regions), "digits", st.Digits)
	}

	s.prev = &st
	return nil
}

// Reset forces a full redraw on the next update.
func (s *Sink) Reset() {
	s.mu.Lock()
	s.prev = nil
	s.mu.Unlock()
}
