package textdisplay

import (
	"image"

	"github.com/fogleman/gg"
)

// GlyphCache is the text rasterized once per configuration: text color on
// background color, one line high, exactly as wide as the text advance.
type GlyphCache struct {
	img        *image.RGBA
	textWidth  int
	lineHeight int
	ascent     int
}

// buildGlyphCache returns nil when there is nothing to draw.
func buildGlyphCache(f Font, cfg TextConfig) *GlyphCache {
	if f == nil || cfg.Text == "" {
		return nil
	}

	width := f.MeasureString(cfg.Text)
	height := f.LineHeight()
	if width <= 0 || height <= 0 {
		return nil
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(cfg.BackgroundColor.Color())
	dc.Clear()

	ascent := f.Ascent()
	dc.SetFontFace(f.Face())
	dc.SetColor(cfg.TextColor.Color())
	dc.DrawString(cfg.Text, 0, float64(ascent))

	return &GlyphCache{
		img:        dc.Image().(*image.RGBA),
		textWidth:  width,
		lineHeight: height,
		ascent:     ascent,
	}
}

func (c *GlyphCache) Width() int { return c.textWidth }

func (c *GlyphCache) Height() int { return c.lineHeight }

func (c *GlyphCache) Image() *image.RGBA { return c.img }
