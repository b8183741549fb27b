package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"flipclock/internal/clockface"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// AssetsConfig controls frame generation and where the runtime finds frames.
type AssetsConfig struct {
	// Dir is the output directory of `generate` and the input of `run`.
	Dir string `yaml:"dir" json:"dir"`

	// Format is one of "rgb565", "png", "bmp" or "jpg".
	Format string `yaml:"format" json:"format"`

	// Font and LogoFont are TrueType paths. Empty selects the embedded Go fonts.
	Font     string `yaml:"font" json:"font"`
	LogoFont string `yaml:"logo_font" json:"logo_font"`
	LogoText string `yaml:"logo_text" json:"logo_text"`

	// ScreenWidth/ScreenHeight is the target display, landscape.
	ScreenWidth  int `yaml:"screen_width" json:"screen_width"`
	ScreenHeight int `yaml:"screen_height" json:"screen_height"`
	PaddingLR    int `yaml:"padding_lr" json:"padding_lr"`
	PaddingTB    int `yaml:"padding_tb" json:"padding_tb"`

	Radius    int `yaml:"radius" json:"radius"`
	FoldWidth int `yaml:"fold_width" json:"fold_width"`

	// Colours as "#rrggbb" or a basic name.
	ScreenBG  string `yaml:"screen_bg" json:"screen_bg"`
	DigitBG   string `yaml:"digit_bg" json:"digit_bg"`
	DigitFG   string `yaml:"digit_fg" json:"digit_fg"`
	Separator string `yaml:"separator" json:"separator"`
	ButtonFG  string `yaml:"button_fg" json:"button_fg"`
	LogoFG    string `yaml:"logo_fg" json:"logo_fg"`
}

// PanelConfig describes an SPI-attached ST7789 panel.
type PanelConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	SPIPort string `yaml:"spi_port" json:"spi_port"`
	SpeedHz int64  `yaml:"speed_hz" json:"speed_hz"`
	DCPin   string `yaml:"dc_pin" json:"dc_pin"`
	RSTPin  string `yaml:"rst_pin" json:"rst_pin"`
	BLPin   string `yaml:"bl_pin" json:"bl_pin"`
	Width   int    `yaml:"width" json:"width"`
	Height  int    `yaml:"height" json:"height"`
	// Offsets of the visible window inside the controller's RAM.
	OffsetX int `yaml:"offset_x" json:"offset_x"`
	OffsetY int `yaml:"offset_y" json:"offset_y"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// LogLevel is "debug", "info" or "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// DisplayFormat is "24h", "12h" or "12h-blank".
	DisplayFormat string `yaml:"display_format" json:"display_format"`

	// Timezone is the IANA zone the clock shows. Empty means local time.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Demo advances the clock one minute every DemoPeriod instead of following
	// the wall clock.
	Demo       bool   `yaml:"demo" json:"demo"`
	DemoPeriod string `yaml:"demo_period" json:"demo_period"`

	// StepInterval is the delay between animation ticks, e.g. "100ms".
	StepInterval string `yaml:"step_interval" json:"step_interval"`

	// ColonCron toggles the colon.
	ColonCron string `yaml:"colon_cron" json:"colon_cron"`

	Assets AssetsConfig `yaml:"assets" json:"assets"`
	Panel  PanelConfig  `yaml:"panel" json:"panel"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration sized for a
// 240x135 ST7789 panel.
func DefaultConfig() *Config {
	return &Config{
		Listen:        "127.0.0.1:8080",
		LogLevel:      "info",
		DisplayFormat: "12h",
		DemoPeriod:    "6s",
		StepInterval:  "100ms",
		ColonCron:     "@every 1s",
		Assets: AssetsConfig{
			Dir:          "frames",
			Format:       "rgb565",
			LogoText:     "FLIP",
			ScreenWidth:  240,
			ScreenHeight: 135,
			PaddingLR:    8,
			PaddingTB:    8,
			Radius:       10,
			FoldWidth:    4,
			ScreenBG:     "black",
			DigitBG:      "#696969",
			DigitFG:      "white",
			Separator:    "black",
			ButtonFG:     "orange",
			LogoFG:       "#404040",
		},
		Panel: PanelConfig{
			SPIPort: "",
			SpeedHz: 40_000_000,
			DCPin:   "GPIO25",
			RSTPin:  "GPIO27",
			BLPin:   "GPIO18",
			Width:   240,
			Height:  135,
			OffsetX: 40,
			OffsetY: 53,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	d := DefaultConfig()

	if c.Listen == "" {
		c.Listen = d.Listen
	}
	switch c.LogLevel {
	case "debug", "info", "error":
	default:
		c.LogLevel = d.LogLevel
	}
	if f, err := clockface.ParseDisplayFormat(c.DisplayFormat); err == nil {
		c.DisplayFormat = f.String()
	} else {
		// Unknown value; fall back to the default rather than refusing to start.
		c.DisplayFormat = d.DisplayFormat
	}
	if c.DemoPeriod == "" {
		c.DemoPeriod = d.DemoPeriod
	}
	if c.StepInterval == "" {
		c.StepInterval = d.StepInterval
	}
	if c.ColonCron == "" {
		c.ColonCron = d.ColonCron
	}

	a, da := &c.Assets, d.Assets
	if a.Dir == "" {
		a.Dir = da.Dir
	}
	if a.Format == "" {
		a.Format = da.Format
	}
	if a.ScreenWidth <= 0 || a.ScreenHeight <= 0 {
		a.ScreenWidth, a.ScreenHeight = da.ScreenWidth, da.ScreenHeight
	}
	if a.PaddingLR < 0 {
		a.PaddingLR = 0
	}
	if a.PaddingTB < 0 {
		a.PaddingTB = 0
	}
	if a.Radius < 0 {
		a.Radius = 0
	}
	if a.FoldWidth < 0 {
		a.FoldWidth = 0
	}
	fillColor(&a.ScreenBG, da.ScreenBG)
	fillColor(&a.DigitBG, da.DigitBG)
	fillColor(&a.DigitFG, da.DigitFG)
	fillColor(&a.Separator, da.Separator)
	fillColor(&a.ButtonFG, da.ButtonFG)
	fillColor(&a.LogoFG, da.LogoFG)

	p, dp := &c.Panel, d.Panel
	if p.SpeedHz <= 0 {
		p.SpeedHz = dp.SpeedHz
	}
	if p.Width <= 0 || p.Height <= 0 {
		p.Width, p.Height = dp.Width, dp.Height
	}
}

func fillColor(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename) with 0600 permissions. The parent directory is
// created with 0700 if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".flipclock-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
