// Package assets generates every frame the clock face can ask for and reads
// them back for display.
package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"flipclock/internal/flip"
	appLog "flipclock/internal/log"
	"flipclock/internal/metrics"
	"flipclock/internal/model"
)

// Rasterizer renders a single digit card. Every card it returns must have
// the same size.
type Rasterizer interface {
	Rasterize(ch rune) (*image.RGBA, error)
}

// Decorations renders the images that sit outside the digit model. A nil
// image with a nil error leaves that asset out.
type Decorations interface {
	Colon(lit bool) (*image.RGBA, error)
	Button(top bool) (*image.RGBA, error)
	Logo() (*image.RGBA, error)
}

// AssetError reports a single asset that could not be produced.
type AssetError struct {
	Name string // file stem, e.g. "121" or "colon1"
	Op   string // "rasterize", "synthesize" or "save"
	Err  error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("assets: %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *AssetError) Unwrap() error { return e.Err }

// Report summarises a Generate run.
type Report struct {
	Written  []string
	Failures []*AssetError
}

// Err joins all failures, or returns nil.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Pipeline writes one file per frame into Dir.
type Pipeline struct {
	Dir         string
	Format      Format
	Cards       Rasterizer
	Decorations Decorations // optional
	Synth       flip.Synthesizer

	// Transitions defaults to Transitions().
	Transitions []Transition
}

// Generate produces every transition, the colon frames and the decoration
// images. A failing asset is recorded and skipped; the remaining assets are
// still generated. Only an unusable output directory or a cancelled context
// stop the run early.
func (p *Pipeline) Generate(ctx context.Context) (*Report, error) {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("assets: create output dir: %w", err)
	}
	transitions := p.Transitions
	if transitions == nil {
		transitions = Transitions()
	}

	rep := &Report{}
	settled := make(map[rune]bool)

	appLog.Info("asset generation start",
		"dir", p.Dir,
		"format", string(p.Format),
		"transitions", len(transitions),
	)

	for _, t := range transitions {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		p.transition(rep, t, settled)
	}

	if p.Decorations != nil {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		p.decorations(rep)
	}

	appLog.Info("asset generation done",
		"written", len(rep.Written),
		"failed", len(rep.Failures),
	)
	return rep, nil
}

// transition writes the settled image of t.From (once per run) and the
// three intermediate steps of t.
func (p *Pipeline) transition(rep *Report, t Transition, settled map[rune]bool) {
	initial, err := p.Cards.Rasterize(t.From)
	if err != nil {
		p.fail(rep, model.Settled(t.From).Name(), "rasterize", err)
		return
	}
	final, err := p.Cards.Rasterize(t.To)
	if err != nil {
		p.fail(rep, model.Settled(t.To).Name(), "rasterize", err)
		return
	}

	frames, err := p.Synth.Synthesize(initial, final)
	if err != nil {
		p.fail(rep, t.String(), "synthesize", err)
		return
	}

	if !settled[t.From] {
		if p.save(rep, model.Settled(t.From).Name(), frames[0]) {
			settled[t.From] = true
		}
	}
	for step := 1; step < len(frames); step++ {
		key := model.FrameKey{From: t.From, To: t.To, Step: step}
		p.save(rep, key.Name(), frames[step])
	}
}

func (p *Pipeline) decorations(rep *Report) {
	type deco struct {
		name   string
		render func() (*image.RGBA, error)
	}
	d := p.Decorations
	list := []deco{
		{model.ColonOff, func() (*image.RGBA, error) { return d.Colon(false) }},
		{model.ColonOn, func() (*image.RGBA, error) { return d.Colon(true) }},
		{model.TopButton, func() (*image.RGBA, error) { return d.Button(true) }},
		{model.BottomButton, func() (*image.RGBA, error) { return d.Button(false) }},
		{model.Logo, d.Logo},
	}
	for _, it := range list {
		img, err := it.render()
		if err != nil {
			p.fail(rep, it.name, "rasterize", err)
			continue
		}
		if img == nil {
			appLog.Debug("asset skipped", "name", it.name)
			continue
		}
		p.save(rep, it.name, img)
	}
}

func (p *Pipeline) save(rep *Report, name string, img image.Image) bool {
	path := p.Format.Path(p.Dir, name)
	if err := p.Format.Save(path, img); err != nil {
		p.fail(rep, name, "save", err)
		return false
	}
	rep.Written = append(rep.Written, path)
	metrics.AssetsWritten.WithLabelValues(string(p.Format)).Inc()
	appLog.Debug("asset written", "path", path)
	return true
}

func (p *Pipeline) fail(rep *Report, name, op string, err error) {
	ae := &AssetError{Name: name, Op: op, Err: err}
	rep.Failures = append(rep.Failures, ae)
	metrics.AssetFailures.Inc()
	appLog.Error("asset failed", err, "name", name, "op", op)
}
