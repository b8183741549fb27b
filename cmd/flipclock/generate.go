package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v2"
	_ "golang.org/x/image/bmp"

	"flipclock/internal/assets"
	"flipclock/internal/config"
	"flipclock/internal/convert"
	"flipclock/internal/flip"
	"flipclock/internal/glyph"
	appLog "flipclock/internal/log"
)

func generateAction(c *cli.Context) error {
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}
	a := conf.Assets
	if c.IsSet(dirFlagName) {
		a.Dir = c.String(dirFlagName)
	}
	if c.IsSet(formatFlagName) {
		a.Format = c.String(formatFlagName)
	}

	p, err := newPipeline(a)
	if err != nil {
		return err
	}
	rep, err := p.Generate(c.Context)
	if err != nil {
		return err
	}
	if err := rep.Err(); err != nil {
		return fmt.Errorf("%d of %d assets failed: %w", len(rep.Failures), len(rep.Failures)+len(rep.Written), err)
	}
	return nil
}

// newPipeline sizes the cards for the configured screen and returns a
// pipeline that renders them.
func newPipeline(a config.AssetsConfig) (*assets.Pipeline, error) {
	format, err := assets.ParseFormat(a.Format)
	if err != nil {
		return nil, err
	}
	style, err := styleFromConfig(a)
	if err != nil {
		return nil, err
	}

	f, err := glyph.LoadFont(a.Font)
	if err != nil {
		return nil, err
	}
	layout, err := glyph.ComputeLayout(f, a.ScreenWidth, a.ScreenHeight, a.PaddingLR, a.PaddingTB)
	if err != nil {
		return nil, err
	}
	appLog.Info("card layout",
		"font_size", layout.FontSize,
		"digit_w", layout.DigitWidth,
		"digit_h", layout.DigitHeight,
	)

	cards := glyph.NewCards(glyph.NewFace(f, layout.FontSize), layout.DigitWidth, layout.DigitHeight, style)
	if a.LogoText != "" {
		lf, err := glyph.LoadLogoFont(a.LogoFont)
		if err != nil {
			return nil, err
		}
		// The logo strip is half a card wide once rotated.
		size := max(layout.DigitWidth/2-4, 1)
		cards.SetLogo(glyph.NewFace(lf, float64(size)), a.LogoText)
	}

	return &assets.Pipeline{
		Dir:         a.Dir,
		Format:      format,
		Cards:       cards,
		Decorations: decorations{cards, a.LogoText != ""},
		Synth:       flip.Synthesizer{Divider: style.Separator, Inset: style.Radius},
	}, nil
}

// decorations leaves the logo out when no logo text is configured.
type decorations struct {
	*glyph.Cards
	logo bool
}

func (d decorations) Logo() (*image.RGBA, error) {
	if !d.logo {
		return nil, nil
	}
	return d.Cards.Logo()
}

func styleFromConfig(a config.AssetsConfig) (glyph.Style, error) {
	s := glyph.DefaultStyle()
	s.Radius = a.Radius
	s.FoldWidth = a.FoldWidth
	var err error
	parse := func(dst *color.RGBA, val string) {
		if err != nil {
			return
		}
		*dst, err = glyph.ParseColor(val)
	}
	parse(&s.ScreenBG, a.ScreenBG)
	parse(&s.DigitBG, a.DigitBG)
	parse(&s.DigitFG, a.DigitFG)
	parse(&s.Separator, a.Separator)
	parse(&s.ButtonFG, a.ButtonFG)
	parse(&s.LogoFG, a.LogoFG)
	return s, err
}

func encodeAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("encode requires 2 arguments, see help encode")
	}
	in, out := c.Args().Get(0), c.Args().Get(1)

	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", in, err)
	}
	if err := convert.WriteFile(out, img); err != nil {
		return err
	}
	appLog.Info("encoded", "in", in, "out", out, "size", img.Bounds().Size().String())
	return nil
}

func decodeAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("decode requires 2 arguments, see help decode")
	}
	in, out := c.Args().Get(0), c.Args().Get(1)

	img, err := convert.ReadFile(in)
	if err != nil {
		return err
	}
	if ext := strings.ToLower(filepath.Ext(out)); ext != ".png" {
		return fmt.Errorf("decode writes PNG, got %q", ext)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", out, err)
	}
	return f.Close()
}
