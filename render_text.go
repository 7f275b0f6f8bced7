package textdisplay

import (
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

const TextWidgetType = "text"

// Info summarizes the widget state for host UIs.
type Info struct {
	Type          string  `json:"type"`
	Enabled       bool    `json:"enabled"`
	Text          string  `json:"text"`
	TextWidth     int     `json:"text_width"`
	ScrollEnabled bool    `json:"scroll_enabled"`
	ScrollSpeed   float64 `json:"scroll_speed"`
	FontPath      string  `json:"font_path"`
	FontKind      string  `json:"font_kind"`
	FontSize      int     `json:"font_size"`
	Mode          string  `json:"mode"`
	Offset        float64 `json:"offset"`
}

type fontKey struct {
	path string
	size int
}

// TextRenderer draws one line of static or scrolling text. It owns its font,
// glyph cache and scroll state; callers must not use it concurrently.
type TextRenderer struct {
	log   *logrus.Entry
	fonts *fontLoader

	cfg        TextConfig
	configured bool

	font         Font
	fontKey      fontKey
	fontWarnings []error

	cache    *GlyphCache
	scroll   ScrollState
	mode     ScrollMode
	warnings []error

	// dirty forces the next Render to draw even if nothing moved.
	dirty     bool
	surface   image.Rectangle
	lastStart int
}

func NewTextRenderer(logger logrus.FieldLogger) *TextRenderer {
	return &TextRenderer{
		log:   moduleLogger(logger, "text"),
		fonts: newFontLoader(logger),
	}
}

func (r *TextRenderer) GetType() string {
	return TextWidgetType
}

// Configure replaces the configuration. It loads the font when path or size
// changed, rebuilds the glyph cache and rewinds the scroll position.
func (r *TextRenderer) Configure(opts Options) {
	cfg, warnings := opts.Normalize()
	for _, w := range warnings {
		r.log.Warnf("Invalid option: %v", w)
	}
	r.apply(cfg, warnings)
}

// SetText swaps the displayed text and keeps every other option.
func (r *TextRenderer) SetText(text string) {
	cfg := r.cfg
	if !r.configured {
		cfg, _ = (&Options{}).Normalize()
	}
	cfg.Text = text
	r.apply(cfg, nil)
}

func (r *TextRenderer) apply(cfg TextConfig, warnings []error) {
	key := fontKey{path: cfg.FontPath, size: cfg.FontSize}
	if r.font == nil || key != r.fontKey {
		r.releaseFont()
		r.font, r.fontWarnings = r.fonts.load(cfg.FontPath, cfg.FontSize)
		r.fontKey = key
	}
	warnings = append(warnings, r.fontWarnings...)

	r.cfg = cfg
	r.configured = true
	r.warnings = warnings
	r.cache = buildGlyphCache(r.font, cfg)
	r.scroll.Reset()
	r.mode = ModeIdle
	r.dirty = true

	if r.font == nil {
		r.log.Warn("No usable font, text will not be rendered")
		return
	}

	width := 0
	if r.cache != nil {
		width = r.cache.Width()
	}
	r.log.Infof("Text configured: '%s' (%dpx)", truncate(cfg.Text, 30), width)
	r.log.Debugf("Font: %s (%s), Size: %d, Scroll: %v, Speed: %.0f px/s, Gap: %d",
		cfg.FontPath, r.font.Kind(), cfg.FontSize, cfg.Scroll, cfg.ScrollSpeed, cfg.ScrollGapWidth)
}

// Render draws the current frame onto dst. It returns false when dst was left
// untouched: widget disabled, nothing to draw, or nothing moved since the last
// call.
func (r *TextRenderer) Render(dst draw.Image, elapsed time.Duration) bool {
	if !r.configured || !r.cfg.Enabled || r.cfg.Text == "" || r.font == nil || dst == nil {
		return false
	}

	bounds := dst.Bounds()
	if bounds.Empty() {
		return false
	}

	if r.cache == nil {
		r.cache = buildGlyphCache(r.font, r.cfg)
		if r.cache == nil {
			return false
		}
		r.dirty = true
	}

	if bounds != r.surface {
		r.surface = bounds
		r.dirty = true
	}

	mode := evaluateMode(r.cache.Width(), bounds.Dx(), r.cfg.Scroll)
	if mode != r.mode {
		r.log.Debugf("Mode %s -> %s", r.mode, mode)
		r.mode = mode
		r.scroll.Reset()
		r.dirty = true
	}

	switch r.mode {
	case ModeScrolling:
		r.scroll.Advance(elapsed.Seconds(), r.cfg.ScrollSpeed, r.period())
		start := r.scroll.Start()
		if !r.dirty && start == r.lastStart {
			return false
		}
		r.drawWindow(dst, start)
		r.lastStart = start
	default:
		if !r.dirty {
			return false
		}
		r.drawCentered(dst)
	}

	r.dirty = false
	return true
}

// period is the logical loop length: text followed by the gap.
func (r *TextRenderer) period() int {
	return r.cache.Width() + r.cfg.ScrollGapWidth
}

func (r *TextRenderer) lineTop(b image.Rectangle) int {
	return b.Min.Y + (b.Dy()-r.cache.Height())/2
}

func (r *TextRenderer) fillBackground(dst draw.Image) {
	bg := image.NewUniform(r.cfg.BackgroundColor.Color())
	draw.Draw(dst, dst.Bounds(), bg, image.Point{}, draw.Src)
}

func (r *TextRenderer) drawCentered(dst draw.Image) {
	b := dst.Bounds()
	r.fillBackground(dst)

	x := b.Min.X + (b.Dx()-r.cache.Width())/2
	draw.Copy(dst, image.Pt(x, r.lineTop(b)), r.cache.img, r.cache.img.Bounds(), draw.Src, nil)
}

// drawWindow copies the columns [start, start+width) of the looped text,
// where columns past the text and inside the gap stay background.
func (r *TextRenderer) drawWindow(dst draw.Image, start int) {
	b := dst.Bounds()
	r.fillBackground(dst)

	period := r.period()
	textWidth := r.cache.Width()
	y := r.lineTop(b)

	pos := start % period
	for x := 0; x < b.Dx(); {
		var n int
		if pos < textWidth {
			n = min(textWidth-pos, b.Dx()-x)
			sr := image.Rect(pos, 0, pos+n, r.cache.Height())
			draw.Copy(dst, image.Pt(b.Min.X+x, y), r.cache.img, sr, draw.Src, nil)
		} else {
			n = min(period-pos, b.Dx()-x)
		}
		x += n
		pos = (pos + n) % period
	}
}

func (r *TextRenderer) DisplayDuration() time.Duration {
	return r.cfg.Duration()
}

// Config returns the active normalized configuration.
func (r *TextRenderer) Config() TextConfig {
	return r.cfg
}

// Warnings lists what the last configuration clamped or replaced.
func (r *TextRenderer) Warnings() []error {
	return r.warnings
}

func (r *TextRenderer) Mode() ScrollMode {
	return r.mode
}

func (r *TextRenderer) Offset() float64 {
	return r.scroll.Offset()
}

func (r *TextRenderer) Info() Info {
	info := Info{
		Type:          TextWidgetType,
		Enabled:       r.cfg.Enabled,
		Text:          truncate(r.cfg.Text, 50),
		ScrollEnabled: r.cfg.Scroll,
		ScrollSpeed:   r.cfg.ScrollSpeed,
		FontPath:      r.cfg.FontPath,
		FontSize:      r.cfg.FontSize,
		Mode:          r.mode.String(),
		Offset:        r.scroll.Offset(),
	}
	if r.cache != nil {
		info.TextWidth = r.cache.Width()
	}
	if r.font != nil {
		info.FontKind = r.font.Kind().String()
	}
	return info
}

// Close drops the glyph cache and font. A later Configure starts afresh.
func (r *TextRenderer) Close() error {
	r.cache = nil
	r.configured = false
	r.scroll.Reset()
	r.surface = image.Rectangle{}
	err := r.releaseFont()
	r.log.Debug("Text renderer closed")
	return err
}

func (r *TextRenderer) releaseFont() error {
	if r.font == nil {
		return nil
	}
	err := r.font.Close()
	r.font = nil
	r.fontWarnings = nil
	return err
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
