package assets

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	_ "golang.org/x/image/bmp"

	_ "flipclock/internal/convert"
	"flipclock/internal/model"
)

// Store loads generated frames from disk and keeps them in memory.
type Store struct {
	dir    string
	format Format

	mu    sync.RWMutex
	cache map[string]*image.RGBA
}

func NewStore(dir string, format Format) *Store {
	return &Store{dir: dir, format: format, cache: make(map[string]*image.RGBA)}
}

func (s *Store) Dir() string    { return s.dir }
func (s *Store) Format() Format { return s.format }

// Frame returns the image for a digit frame key.
func (s *Store) Frame(k model.FrameKey) (*image.RGBA, error) {
	return s.Image(k.Name())
}

// Image returns the image stored under name, e.g. "colon1" or "340".
func (s *Store) Image(name string) (*image.RGBA, error) {
	s.mu.RLock()
	img, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return img, nil
	}

	img, err := s.load(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[name] = img
	s.mu.Unlock()
	return img, nil
}

// Path is where name lives on disk.
func (s *Store) Path(name string) string {
	return s.format.Path(s.dir, name)
}

// Preload reads every frame the clock face can ask for, so a missing file
// is reported at startup rather than mid-flip.
func (s *Store) Preload() error {
	seen := make(map[rune]bool)
	for _, t := range Transitions() {
		if !seen[t.From] {
			seen[t.From] = true
			if _, err := s.Frame(model.Settled(t.From)); err != nil {
				return err
			}
		}
		for step := 1; step < 4; step++ {
			if _, err := s.Frame(model.FrameKey{From: t.From, To: t.To, Step: step}); err != nil {
				return err
			}
		}
	}
	for _, name := range []string{model.ColonOff, model.ColonOn} {
		if _, err := s.Image(name); err != nil {
			return err
		}
	}
	return nil
}

// Purge drops all cached images.
func (s *Store) Purge() {
	s.mu.Lock()
	s.cache = make(map[string]*image.RGBA)
	s.mu.Unlock()
}

func (s *Store) load(name string) (*image.RGBA, error) {
	path := s.Path(name)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("assets: decode %s: %w", path, err)
	}
	if rgba, ok := src.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba, nil
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst, nil
}
