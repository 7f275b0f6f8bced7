package textdisplay

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/sirupsen/logrus"
	bdf "github.com/zachomedia/go-bdf"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontKind is the closed set of font sources the renderer understands.
type FontKind int

const (
	FontDefault FontKind = iota
	FontTrueType
	FontBitmap
)

func (k FontKind) String() string {
	switch k {
	case FontTrueType:
		return "truetype"
	case FontBitmap:
		return "bitmap"
	default:
		return "default"
	}
}

var (
	errUnsupportedFont = errors.New("unsupported font type")
	errEmptyFont       = errors.New("font has no usable metrics")
)

// Font exposes the glyph metrics the cache builder needs. Every FontKind
// implements it.
type Font interface {
	Kind() FontKind
	Face() font.Face
	// LineHeight is the pixel height of one rendered line.
	LineHeight() int
	// Ascent is the distance from the top of the line to the baseline.
	Ascent() int
	// MeasureString is the advance width of s in pixels, kerning included.
	MeasureString(s string) int
	Close() error
}

// faceFont carries the metrics shared by all variants.
type faceFont struct {
	face font.Face
}

func (f *faceFont) Face() font.Face { return f.face }

func (f *faceFont) LineHeight() int {
	m := f.face.Metrics()
	h := m.Height
	if sum := m.Ascent + m.Descent; sum > h {
		h = sum
	}
	return h.Ceil()
}

func (f *faceFont) Ascent() int {
	return f.face.Metrics().Ascent.Ceil()
}

func (f *faceFont) MeasureString(s string) int {
	return font.MeasureString(f.face, s).Ceil()
}

func (f *faceFont) Close() error {
	return f.face.Close()
}

type trueTypeFont struct {
	faceFont
	path string
}

func (f *trueTypeFont) Kind() FontKind { return FontTrueType }

type bitmapFont struct {
	faceFont
	path string
}

func (f *bitmapFont) Kind() FontKind { return FontBitmap }

type defaultFont struct {
	faceFont
}

func (f *defaultFont) Kind() FontKind { return FontDefault }

// fontKindForPath picks the variant from the file extension.
func fontKindForPath(path string) (FontKind, error) {
	if path == "" {
		return FontDefault, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttf", ".otf":
		return FontTrueType, nil
	case ".bdf":
		return FontBitmap, nil
	}
	return FontDefault, errUnsupportedFont
}

// LoadFont loads the font at path at the given pixel size. An empty path
// yields the built-in font.
func LoadFont(path string, size int) (Font, error) {
	kind, err := fontKindForPath(path)
	if err != nil {
		return nil, &FontLoadError{Path: path, Err: err}
	}

	switch kind {
	case FontTrueType:
		return loadTrueTypeFont(path, size)
	case FontBitmap:
		return loadBitmapFont(path)
	default:
		return loadDefaultFont(size)
	}
}

func loadTrueTypeFont(path string, size int) (Font, error) {
	if strings.EqualFold(filepath.Ext(path), ".otf") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &FontLoadError{Path: path, Err: err}
		}
		parsed, err := opentype.Parse(data)
		if err != nil {
			return nil, &FontLoadError{Path: path, Err: err}
		}
		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    float64(size),
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, &FontLoadError{Path: path, Err: err}
		}
		return &trueTypeFont{faceFont: faceFont{face: face}, path: path}, nil
	}

	// gg loads at 72 DPI, so points equal pixels.
	face, err := gg.LoadFontFace(path, float64(size))
	if err != nil {
		return nil, &FontLoadError{Path: path, Err: err}
	}
	return &trueTypeFont{faceFont: faceFont{face: face}, path: path}, nil
}

func loadBitmapFont(path string) (Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FontLoadError{Path: path, Err: err}
	}
	parsed, err := bdf.Parse(data)
	if err != nil {
		return nil, &FontLoadError{Path: path, Err: err}
	}
	f := &bitmapFont{faceFont: faceFont{face: parsed.NewFace()}, path: path}
	if f.LineHeight() <= 0 {
		return nil, &FontLoadError{Path: path, Err: errEmptyFont}
	}
	return f, nil
}

// loadDefaultFont returns Go Regular at size, or the fixed 7x13 face when the
// embedded font cannot be parsed.
func loadDefaultFont(size int) (Font, error) {
	parsed, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return &defaultFont{faceFont: faceFont{face: basicfont.Face7x13}}, nil
	}
	face := truetype.NewFace(parsed, &truetype.Options{
		Size:    float64(size),
		Hinting: font.HintingFull,
	})
	return &defaultFont{faceFont: faceFont{face: face}}, nil
}

// fontLoader resolves a configured font, falling back to the built-in one.
type fontLoader struct {
	log         *logrus.Entry
	loadDefault func(size int) (Font, error)
}

func newFontLoader(logger logrus.FieldLogger) *fontLoader {
	return &fontLoader{
		log:         moduleLogger(logger, "font"),
		loadDefault: loadDefaultFont,
	}
}

// load never fails outright unless the fallback does too. The returned
// warnings describe what was replaced.
func (l *fontLoader) load(path string, size int) (Font, []error) {
	var warnings []error

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			warnings = append(warnings, &FontLoadError{Path: path, Err: err})
			l.log.Warnf("Font file not found: %s, using default", path)
		} else if f, err := LoadFont(path, size); err != nil {
			warnings = append(warnings, err)
			l.log.Warnf("Failed to load font %s: %v, using default", path, err)
		} else {
			if f.Kind() == FontBitmap && f.LineHeight() != size {
				l.log.Debugf("Bitmap font %s has native height %d, font_size %d ignored", path, f.LineHeight(), size)
			}
			l.log.Infof("Loaded %s font: %s", f.Kind(), filepath.Base(path))
			return f, nil
		}
	}

	f, err := l.loadDefault(size)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrNoFont, err)
		warnings = append(warnings, err)
		l.log.Warnf("Default font unavailable: %v", err)
		return nil, warnings
	}
	return f, warnings
}
