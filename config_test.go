package textdisplay

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool { return &v }
func stringPtr(v string) *string { return &v }
func rgbPtr(r, g, b int) *RGB { return &RGB{r, g, b} }

func TestNormalizeDefaults(t *testing.T) {
	cfg, errs := (&Options{}).Normalize()
	if len(errs) != 0 {
		t.Fatalf("Normalize() errors = %v, want none", errs)
	}

	want := TextConfig{
		Enabled:         true,
		Text:            DefaultText,
		FontPath:        DefaultFontPath,
		FontSize:        DefaultFontSize,
		Scroll:          true,
		ScrollSpeed:     DefaultScrollSpeed,
		ScrollGapWidth:  DefaultScrollGapWidth,
		TextColor:       RGB{255, 255, 255},
		BackgroundColor: RGB{0, 0, 0},
		DisplayDuration: DefaultDisplayDuration,
	}
	if cfg != want {
		t.Errorf("Normalize() = %+v, want %+v", cfg, want)
	}
}

func TestNormalizeClamps(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		field string
		check func(TextConfig) bool
	}{
		{
			name:  "font size too small",
			opts:  Options{FontSize: intPtr(2)},
			field: "font_size",
			check: func(c TextConfig) bool { return c.FontSize == MinFontSize },
		},
		{
			name:  "font size too large",
			opts:  Options{FontSize: intPtr(40)},
			field: "font_size",
			check: func(c TextConfig) bool { return c.FontSize == MaxFontSize },
		},
		{
			name:  "scroll speed zero",
			opts:  Options{ScrollSpeed: floatPtr(0)},
			field: "scroll_speed",
			check: func(c TextConfig) bool { return c.ScrollSpeed == MinScrollSpeed },
		},
		{
			name:  "scroll speed too fast",
			opts:  Options{ScrollSpeed: floatPtr(500)},
			field: "scroll_speed",
			check: func(c TextConfig) bool { return c.ScrollSpeed == MaxScrollSpeed },
		},
		{
			name:  "negative gap",
			opts:  Options{ScrollGapWidth: intPtr(-5)},
			field: "scroll_gap_width",
			check: func(c TextConfig) bool { return c.ScrollGapWidth == 0 },
		},
		{
			name:  "text color channels",
			opts:  Options{TextColor: rgbPtr(300, -1, 10)},
			field: "text_color",
			check: func(c TextConfig) bool { return c.TextColor == RGB{255, 0, 10} },
		},
		{
			name:  "background color channel",
			opts:  Options{BackgroundColor: rgbPtr(0, 0, 256)},
			field: "background_color",
			check: func(c TextConfig) bool { return c.BackgroundColor == RGB{0, 0, 255} },
		},
		{
			name:  "negative duration",
			opts:  Options{DisplayDuration: floatPtr(-1)},
			field: "display_duration",
			check: func(c TextConfig) bool { return c.DisplayDuration == 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, errs := tt.opts.Normalize()
			if len(errs) != 1 {
				t.Fatalf("Normalize() errors = %v, want exactly one", errs)
			}
			var cerr *ConfigError
			if !errors.As(errs[0], &cerr) {
				t.Fatalf("error %v is not a *ConfigError", errs[0])
			}
			if cerr.Field != tt.field {
				t.Errorf("ConfigError.Field = %q, want %q", cerr.Field, tt.field)
			}
			if !tt.check(cfg) {
				t.Errorf("Normalize() = %+v, clamp not applied", cfg)
			}
		})
	}
}

func TestNormalizeKeepsValidBounds(t *testing.T) {
	opts := Options{
		FontSize:       intPtr(MaxFontSize),
		ScrollSpeed:    floatPtr(MinScrollSpeed),
		ScrollGapWidth: intPtr(0),
		Scroll:         boolPtr(false),
		Enabled:        boolPtr(false),
		Text:           stringPtr(""),
	}
	cfg, errs := opts.Normalize()
	if len(errs) != 0 {
		t.Fatalf("Normalize() errors = %v, want none", errs)
	}
	if cfg.FontSize != MaxFontSize || cfg.ScrollSpeed != MinScrollSpeed || cfg.ScrollGapWidth != 0 {
		t.Errorf("Normalize() changed in-range values: %+v", cfg)
	}
	if cfg.Scroll || cfg.Enabled || cfg.Text != "" {
		t.Errorf("Normalize() ignored explicit false/empty values: %+v", cfg)
	}
}

func TestDecodeOptions(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		data string
	}{
		{
			name: "json arrays",
			ext:  ".json",
			data: `{"text": "HI", "font_size": 12, "scroll": false, "text_color": [255, 0, 0], "background_color": [0, 0, 16]}`,
		},
		{
			name: "json hex",
			ext:  ".json",
			data: `{"text": "HI", "font_size": 12, "scroll": false, "text_color": "#ff0000", "background_color": "#000010"}`,
		},
		{
			name: "yaml arrays",
			ext:  ".yaml",
			data: "text: HI\nfont_size: 12\nscroll: false\ntext_color: [255, 0, 0]\nbackground_color: [0, 0, 16]\n",
		},
		{
			name: "yaml hex",
			ext:  ".yml",
			data: "text: HI\nfont_size: 12\nscroll: false\ntext_color: \"#ff0000\"\nbackground_color: \"#000010\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := decodeOptions([]byte(tt.data), tt.ext)
			if err != nil {
				t.Fatalf("decodeOptions() error = %v", err)
			}
			cfg, errs := opts.Normalize()
			if len(errs) != 0 {
				t.Fatalf("Normalize() errors = %v", errs)
			}
			if cfg.Text != "HI" || cfg.FontSize != 12 || cfg.Scroll {
				t.Errorf("decoded %+v", cfg)
			}
			if cfg.TextColor != (RGB{255, 0, 0}) || cfg.BackgroundColor != (RGB{0, 0, 16}) {
				t.Errorf("colors = %v / %v", cfg.TextColor, cfg.BackgroundColor)
			}
		})
	}
}

func TestDecodeOptionsErrors(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		data string
	}{
		{"short color", ".json", `{"text_color": [1, 2]}`},
		{"bad hex", ".json", `{"text_color": "#zzzzzz"}`},
		{"bad yaml color", ".yaml", "text_color: [1, 2, 3, 4]\n"},
		{"unknown format", ".toml", `text = "x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeOptions([]byte(tt.data), tt.ext); err == nil {
				t.Error("decodeOptions() error = nil, want error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := (&Options{}).Validate(); err != nil {
		t.Errorf("Validate() defaults error = %v", err)
	}
	if err := (&Options{Text: stringPtr("")}).Validate(); err == nil {
		t.Error("Validate() with empty text = nil, want error")
	}
	err := (&Options{TextColor: rgbPtr(0, 0, 999)}).Validate()
	var cerr *ConfigError
	if !errors.As(err, &cerr) || cerr.Field != "text_color" {
		t.Errorf("Validate() = %v, want text_color ConfigError", err)
	}
}

func TestConfigManager(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"alpha.json": `{"text": "alpha"}`,
		"beta.yaml":  "text: beta\n",
		"notes.txt":  "ignored",
		"gamma.yml":  "text: gamma\n",
		"gamma.json": `{"text": "gamma-json"}`,
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cm := NewConfigManager(dir)

	names, err := cm.ListConfigs()
	if err != nil {
		t.Fatalf("ListConfigs() error = %v", err)
	}
	if want := []string{"alpha", "beta", "gamma"}; !reflect.DeepEqual(names, want) {
		t.Errorf("ListConfigs() = %v, want %v", names, want)
	}

	for name, want := range map[string]string{"alpha": "alpha", "beta": "beta", "gamma": "gamma-json"} {
		opts, err := cm.LoadConfig(name)
		if err != nil {
			t.Fatalf("LoadConfig(%q) error = %v", name, err)
		}
		if got := opts.GetText(); got != want {
			t.Errorf("LoadConfig(%q) text = %q, want %q", name, got, want)
		}
	}

	if _, err := cm.LoadConfig("missing"); err == nil {
		t.Error("LoadConfig(missing) error = nil, want error")
	}
}

func TestDurationConversion(t *testing.T) {
	cfg := TextConfig{DisplayDuration: 2.5}
	if got := cfg.Duration().Milliseconds(); got != 2500 {
		t.Errorf("Duration() = %dms, want 2500ms", got)
	}
}
