// Package runner drives a clock face from the wall clock and publishes every
// visible change to the attached sinks.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"flipclock/internal/clockface"
	appLog "flipclock/internal/log"
	"flipclock/internal/metrics"
)

// Demo mode starts a few minutes before a 12:59 → 01:00 rollover so every
// hour-digit transition shows up quickly.
const (
	demoStartHour   = 12
	demoStartMinute = 56
)

const minutesPerDay = 24 * 60

// Options configures a Runner. Zero values pick the defaults noted per field.
type Options struct {
	Format clockface.DisplayFormat

	// Location of the wall clock; nil means time.Local.
	Location *time.Location

	Demo bool
	// DemoPeriod is how often the demo clock advances one minute (6s).
	DemoPeriod time.Duration

	// StepInterval is the delay between animation ticks (100ms).
	StepInterval time.Duration

	// ColonSpec is the cron spec of the colon toggle ("@every 1s").
	ColonSpec string

	// Now replaces time.Now in tests.
	Now func() time.Time
}

func (o *Options) normalize() {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.DemoPeriod <= 0 {
		o.DemoPeriod = 6 * time.Second
	}
	if o.StepInterval <= 0 {
		o.StepInterval = 100 * time.Millisecond
	}
	if o.ColonSpec == "" {
		o.ColonSpec = "@every 1s"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Runner owns one clock face. All face access goes through r.mu; cron jobs
// and the step ticker only call exported methods.
type Runner struct {
	opts Options

	mu      sync.Mutex
	face    *clockface.Face
	hours   int // 0..23, before format normalisation
	minutes int
	colon   bool
	demo    bool
	// pending is a minute change that arrived mid-flip.
	pending bool

	cron     *cron.Cron
	minuteID cron.EntryID

	// pubMu is taken before mu, never while holding it.
	pubMu sync.Mutex
	sinks []Sink
}

func New(opts Options, sinks ...Sink) (*Runner, error) {
	opts.normalize()
	face, err := clockface.New(opts.Format)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		opts:  opts,
		face:  face,
		demo:  opts.Demo,
		sinks: sinks,
	}
	r.mu.Lock()
	r.resetLocked()
	r.mu.Unlock()
	return r, nil
}

// AddSink attaches another display. It receives the current state at once.
func (r *Runner) AddSink(s Sink) {
	// Snapshot under pubMu so no newer publish can reach s before it.
	r.pubMu.Lock()
	defer r.pubMu.Unlock()
	r.sinks = append(r.sinks, s)
	r.send(s, r.State())
}

// State returns a snapshot of the clock.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

// Run schedules the minute and colon jobs, steps the animation every
// StepInterval and blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(r.opts.Location))
	if _, err := c.AddFunc(r.opts.ColonSpec, r.ToggleColon); err != nil {
		return fmt.Errorf("runner: colon schedule %q: %w", r.opts.ColonSpec, err)
	}

	r.mu.Lock()
	r.cron = c
	err := r.scheduleMinuteLocked()
	r.mu.Unlock()
	if err != nil {
		return err
	}

	appLog.Info("runner started",
		"format", r.opts.Format.String(),
		"demo", r.opts.Demo,
		"step_interval", r.opts.StepInterval.String(),
	)
	r.publish()

	c.Start()
	ticker := time.NewTicker(r.opts.StepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			<-c.Stop().Done()
			r.mu.Lock()
			r.cron, r.minuteID = nil, 0
			r.mu.Unlock()
			appLog.Info("runner stopped")
			return nil
		case <-ticker.C:
			r.Step()
		}
	}
}

// Step advances the animation by one tick. When the cascade finishes and a
// minute change was deferred, that change starts now.
func (r *Runner) Step() {
	r.mu.Lock()
	if !r.face.IsAnimating() {
		r.mu.Unlock()
		return
	}
	if r.face.Tick() {
		metrics.Ticks.Inc()
	} else {
		metrics.Animating.Set(0)
		if r.pending {
			r.pending = false
			r.advanceLocked()
		}
	}
	r.mu.Unlock()
	r.publish()
}

// MinuteTick moves the clock to the next minute with animation. While a
// flip is still running the change is held back until it settles.
func (r *Runner) MinuteTick() {
	r.mu.Lock()
	if r.face.IsAnimating() {
		r.pending = true
		digits := r.face.Digits()
		r.mu.Unlock()
		appLog.Debug("minute change deferred", "digits", digits)
		return
	}
	r.advanceLocked()
	r.mu.Unlock()
	r.publish()
}

// ToggleColon blinks the separator.
func (r *Runner) ToggleColon() {
	r.mu.Lock()
	r.colon = !r.colon
	r.mu.Unlock()
	r.publish()
}

// CycleFormat switches to the next display format and redraws the current
// time without animation.
func (r *Runner) CycleFormat() clockface.DisplayFormat {
	r.mu.Lock()
	next := r.face.Format().Next()
	r.applyFormatLocked(next)
	r.mu.Unlock()
	r.publish()
	return next
}

// SetFormat switches to format and redraws the current time without
// animation.
func (r *Runner) SetFormat(format clockface.DisplayFormat) error {
	if !format.Valid() {
		return fmt.Errorf("runner: invalid display format %d", int(format))
	}
	r.mu.Lock()
	r.applyFormatLocked(format)
	r.mu.Unlock()
	r.publish()
	return nil
}

// SetDemo toggles demo timing and resets the clock.
func (r *Runner) SetDemo(on bool) error {
	r.mu.Lock()
	r.demo = on
	r.resetLocked()
	err := r.scheduleMinuteLocked()
	r.mu.Unlock()

	appLog.Info("demo mode", "on", on)
	r.publish()
	return err
}

func (r *Runner) applyFormatLocked(format clockface.DisplayFormat) {
	// Only fails for an invalid format, which callers rule out.
	if err := r.face.SetDisplayFormat(format); err != nil {
		panic(err)
	}
	r.face.SetTime(r.hours, r.minutes, false)
	r.pending = false
	metrics.FormatChanges.Inc()
	metrics.Animating.Set(0)
	appLog.Info("display format changed", "format", format.String(), "digits", r.face.Digits())
}

// resetLocked shows the start time without animation.
func (r *Runner) resetLocked() {
	if r.demo {
		r.hours, r.minutes = demoStartHour, demoStartMinute
	} else {
		now := r.opts.Now().In(r.opts.Location)
		r.hours, r.minutes = now.Hour(), now.Minute()
	}
	r.pending = false
	r.face.SetTime(r.hours, r.minutes, false)
	metrics.Animating.Set(0)
}

// advanceLocked targets the next minute and starts the flip. Frames only
// exist for single-minute steps, so a wall clock that moved by anything else
// (NTP, suspend, DST) is shown without animation.
func (r *Runner) advanceLocked() {
	next := (r.hours*60 + r.minutes + 1) % minutesPerDay
	if r.demo {
		r.hours, r.minutes = next/60, next%60
	} else {
		now := r.opts.Now().In(r.opts.Location)
		r.hours, r.minutes = now.Hour(), now.Minute()
		if r.hours*60+r.minutes != next {
			r.face.SetTime(r.hours, r.minutes, false)
			metrics.Animating.Set(0)
			appLog.Info("wall clock jumped, resynced", "hours", r.hours, "minutes", r.minutes)
			return
		}
	}
	r.face.SetTime(r.hours, r.minutes, true)
	metrics.MinuteUpdates.Inc()
	metrics.Animating.Set(1)
	appLog.Debug("minute", "hours", r.hours, "minutes", r.minutes)
}

// scheduleMinuteLocked (re)installs the minute job for the current mode. It
// is a no-op before Run.
func (r *Runner) scheduleMinuteLocked() error {
	if r.cron == nil {
		return nil
	}
	if r.minuteID != 0 {
		r.cron.Remove(r.minuteID)
		r.minuteID = 0
	}
	spec := "* * * * *"
	if r.demo {
		spec = "@every " + r.opts.DemoPeriod.String()
	}
	id, err := r.cron.AddFunc(spec, r.MinuteTick)
	if err != nil {
		return fmt.Errorf("runner: minute schedule %q: %w", spec, err)
	}
	r.minuteID = id
	return nil
}

func (r *Runner) stateLocked() State {
	keys := r.face.FrameKeys()
	st := State{
		Format:    r.face.Format().String(),
		Digits:    r.face.Digits(),
		Keys:      keys,
		Colon:     r.colon,
		Animating: r.face.IsAnimating(),
		Hours:     r.hours,
		Minutes:   r.minutes,
		Demo:      r.demo,
	}
	for i, k := range keys {
		st.Frames[i] = k.Name()
	}
	return st
}

// publish sends the current state to every sink. The snapshot is taken
// under pubMu so sinks never see states out of order.
func (r *Runner) publish() {
	r.pubMu.Lock()
	defer r.pubMu.Unlock()
	st := r.State()
	for _, s := range r.sinks {
		r.send(s, st)
	}
}

func (r *Runner) send(s Sink, st State) {
	if err := s.Update(st); err != nil {
		metrics.SinkErrors.WithLabelValues(s.Name()).Inc()
		appLog.Error("sink update failed", err, "sink", s.Name())
	}
}
