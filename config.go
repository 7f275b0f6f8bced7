package textdisplay

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultText            = "Hello, World!"
	DefaultFontPath        = "assets/fonts/PressStart2P-Regular.ttf"
	DefaultFontSize        = 8
	DefaultScrollSpeed     = 30.0
	DefaultScrollGapWidth  = 32
	DefaultDisplayDuration = 10.0

	MinFontSize    = 4
	MaxFontSize    = 32
	MinScrollSpeed = 1.0
	MaxScrollSpeed = 200.0
)

// RGB is a color triple. Channels outside 0-255 are clamped by Normalize.
type RGB [3]int

func (c RGB) Color() color.RGBA {
	return color.RGBA{uint8(c[0]), uint8(c[1]), uint8(c[2]), 255}
}

func (c RGB) valid() bool {
	for _, v := range c {
		if v < 0 || v > 255 {
			return false
		}
	}
	return true
}

func (c RGB) clamp() RGB {
	for i, v := range c {
		c[i] = clampInt(v, 0, 255)
	}
	return c
}

// UnmarshalJSON accepts [r, g, b] or "#rrggbb".
func (c *RGB) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var hex string
		if err := json.Unmarshal(data, &hex); err != nil {
			return err
		}
		rgb, err := parseHexColor(hex)
		if err != nil {
			return err
		}
		*c = rgb
		return nil
	}

	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("color must be [r, g, b] or \"#rrggbb\": %w", err)
	}
	return c.setValues(values)
}

// UnmarshalYAML accepts a sequence of three ints or a "#rrggbb" scalar.
func (c *RGB) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		rgb, err := parseHexColor(value.Value)
		if err != nil {
			return err
		}
		*c = rgb
		return nil
	}

	var values []int
	if err := value.Decode(&values); err != nil {
		return fmt.Errorf("color must be [r, g, b] or \"#rrggbb\": %w", err)
	}
	return c.setValues(values)
}

func (c *RGB) setValues(values []int) error {
	if len(values) != 3 {
		return fmt.Errorf("color must have 3 components, got %d", len(values))
	}
	copy(c[:], values)
	return nil
}

func parseHexColor(hexColor string) (RGB, error) {
	hexColor = strings.TrimPrefix(hexColor, "#")
	if len(hexColor) != 6 {
		return RGB{}, fmt.Errorf("invalid hex color %q", hexColor)
	}

	var rgb RGB
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(hexColor[i*2:i*2+2], 16, 8)
		if err != nil {
			return RGB{}, fmt.Errorf("invalid hex color %q: %w", hexColor, err)
		}
		rgb[i] = int(v)
	}
	return rgb, nil
}

// Options is the configuration payload handed over by the host. Nil fields
// take their defaults.
type Options struct {
	Enabled         *bool    `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Text            *string  `json:"text,omitempty" yaml:"text,omitempty"`
	FontPath        *string  `json:"font_path,omitempty" yaml:"font_path,omitempty"`
	FontSize        *int     `json:"font_size,omitempty" yaml:"font_size,omitempty"`
	Scroll          *bool    `json:"scroll,omitempty" yaml:"scroll,omitempty"`
	ScrollSpeed     *float64 `json:"scroll_speed,omitempty" yaml:"scroll_speed,omitempty"`
	ScrollGapWidth  *int     `json:"scroll_gap_width,omitempty" yaml:"scroll_gap_width,omitempty"`
	TextColor       *RGB     `json:"text_color,omitempty" yaml:"text_color,omitempty"`
	BackgroundColor *RGB     `json:"background_color,omitempty" yaml:"background_color,omitempty"`
	DisplayDuration *float64 `json:"display_duration,omitempty" yaml:"display_duration,omitempty"`
}

func (o *Options) GetEnabled() bool {
	if o.Enabled == nil {
		return true
	}
	return *o.Enabled
}

func (o *Options) GetText() string {
	if o.Text == nil {
		return DefaultText
	}
	return *o.Text
}

func (o *Options) GetFontPath() string {
	if o.FontPath == nil {
		return DefaultFontPath
	}
	return *o.FontPath
}

func (o *Options) GetScroll() bool {
	if o.Scroll == nil {
		return true
	}
	return *o.Scroll
}

// TextConfig is the normalized, immutable rendering configuration.
type TextConfig struct {
	Enabled         bool
	Text            string
	FontPath        string
	FontSize        int
	Scroll          bool
	ScrollSpeed     float64 // pixels per second
	ScrollGapWidth  int     // pixels
	TextColor       RGB
	BackgroundColor RGB
	DisplayDuration float64 // seconds, advisory
}

func (c TextConfig) Duration() time.Duration {
	return time.Duration(c.DisplayDuration * float64(time.Second))
}

// Normalize fills defaults and clamps out-of-range values. Every clamped
// field is reported as a *ConfigError; none of them is fatal.
func (o *Options) Normalize() (TextConfig, []error) {
	var errs []error

	cfg := TextConfig{
		Enabled:         o.GetEnabled(),
		Text:            o.GetText(),
		FontPath:        o.GetFontPath(),
		FontSize:        DefaultFontSize,
		Scroll:          o.GetScroll(),
		ScrollSpeed:     DefaultScrollSpeed,
		ScrollGapWidth:  DefaultScrollGapWidth,
		TextColor:       RGB{255, 255, 255},
		BackgroundColor: RGB{0, 0, 0},
		DisplayDuration: DefaultDisplayDuration,
	}

	if o.FontSize != nil {
		cfg.FontSize = clampInt(*o.FontSize, MinFontSize, MaxFontSize)
		if cfg.FontSize != *o.FontSize {
			errs = append(errs, &ConfigError{Field: "font_size", Value: *o.FontSize, Clamped: cfg.FontSize})
		}
	}

	if o.ScrollSpeed != nil {
		cfg.ScrollSpeed = clampFloat(*o.ScrollSpeed, MinScrollSpeed, MaxScrollSpeed)
		if cfg.ScrollSpeed != *o.ScrollSpeed {
			errs = append(errs, &ConfigError{Field: "scroll_speed", Value: *o.ScrollSpeed, Clamped: cfg.ScrollSpeed})
		}
	}

	if o.ScrollGapWidth != nil {
		cfg.ScrollGapWidth = *o.ScrollGapWidth
		if cfg.ScrollGapWidth < 0 {
			cfg.ScrollGapWidth = 0
			errs = append(errs, &ConfigError{Field: "scroll_gap_width", Value: *o.ScrollGapWidth, Clamped: 0})
		}
	}

	if o.TextColor != nil {
		cfg.TextColor = o.TextColor.clamp()
		if !o.TextColor.valid() {
			errs = append(errs, &ConfigError{Field: "text_color", Value: *o.TextColor, Clamped: cfg.TextColor})
		}
	}

	if o.BackgroundColor != nil {
		cfg.BackgroundColor = o.BackgroundColor.clamp()
		if !o.BackgroundColor.valid() {
			errs = append(errs, &ConfigError{Field: "background_color", Value: *o.BackgroundColor, Clamped: cfg.BackgroundColor})
		}
	}

	if o.DisplayDuration != nil {
		cfg.DisplayDuration = *o.DisplayDuration
		if cfg.DisplayDuration < 0 || cfg.DisplayDuration != cfg.DisplayDuration {
			cfg.DisplayDuration = 0
			errs = append(errs, &ConfigError{Field: "display_duration", Value: *o.DisplayDuration, Clamped: 0.0})
		}
	}

	return cfg, errs
}

// Validate is the strict check for hosts that refuse to start a widget with
// bad options. Configure never calls it; it clamps instead.
func (o *Options) Validate() error {
	var errs []error
	if o.GetText() == "" {
		errs = append(errs, errors.New("no text specified"))
	}
	_, clamped := o.Normalize()
	errs = append(errs, clamped...)
	return errors.Join(errs...)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// LoadOptions reads a JSON or YAML options file, chosen by extension.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return decodeOptions(data, filepath.Ext(path))
}

func decodeOptions(data []byte, ext string) (*Options, error) {
	var opts Options
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &opts); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case ".json", "":
		if err := json.Unmarshal(data, &opts); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return &opts, nil
}

var configExtensions = []string{".json", ".yaml", ".yml"}

// ConfigManager loads named widget configurations from a directory.
type ConfigManager struct {
	configDir string
	configs   map[string]*Options
}

func NewConfigManager(configDir string) *ConfigManager {
	return &ConfigManager{
		configDir: configDir,
		configs:   make(map[string]*Options),
	}
}

// LoadConfig returns the options stored as <name>.json, <name>.yaml or
// <name>.yml, in that order of preference.
func (cm *ConfigManager) LoadConfig(configName string) (*Options, error) {
	if opts, exists := cm.configs[configName]; exists {
		return opts, nil
	}

	for _, ext := range configExtensions {
		configFile := filepath.Join(cm.configDir, configName+ext)
		if _, err := os.Stat(configFile); err != nil {
			continue
		}
		opts, err := LoadOptions(configFile)
		if err != nil {
			return nil, err
		}
		cm.configs[configName] = opts
		return opts, nil
	}

	return nil, fmt.Errorf("config file not found: %s", filepath.Join(cm.configDir, configName))
}

func (cm *ConfigManager) ListConfigs() ([]string, error) {
	files, err := os.ReadDir(cm.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	seen := make(map[string]bool)
	var configs []string
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		ext := filepath.Ext(file.Name())
		if !isConfigExtension(ext) {
			continue
		}
		name := strings.TrimSuffix(file.Name(), ext)
		if !seen[name] {
			seen[name] = true
			configs = append(configs, name)
		}
	}

	return configs, nil
}

func isConfigExtension(ext string) bool {
	for _, e := range configExtensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
