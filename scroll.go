package textdisplay

import "math"

// ScrollMode is the compositor state: Idle draws the text centered once,
// Scrolling slides a window over the glyph cache every tick.
type ScrollMode int

const (
	ModeIdle ScrollMode = iota
	ModeScrolling
)

func (m ScrollMode) String() string {
	if m == ModeScrolling {
		return "scrolling"
	}
	return "idle"
}

// wrapEpsilon absorbs float error so that one full period lands on 0.
const wrapEpsilon = 1e-4

// evaluateMode scrolls only text that overflows the surface.
func evaluateMode(textWidth, surfaceWidth int, scroll bool) ScrollMode {
	if scroll && textWidth > surfaceWidth {
		return ModeScrolling
	}
	return ModeIdle
}

// ScrollState is the horizontal position inside one loop of text plus gap.
type ScrollState struct {
	offset  float64
	elapsed float64
}

func (s *ScrollState) Reset() {
	*s = ScrollState{}
}

// Offset is the current position in pixels, always in [0, period).
func (s *ScrollState) Offset() float64 { return s.offset }

// Elapsed is the total scrolling time accumulated since the last reset.
func (s *ScrollState) Elapsed() float64 { return s.elapsed }

// Advance moves the offset by speed*seconds and wraps it into [0, period).
// Non-positive or non-finite seconds leave the state untouched.
func (s *ScrollState) Advance(seconds, speed float64, period int) {
	if period <= 0 || !(seconds > 0) || math.IsInf(seconds, 0) {
		return
	}
	p := float64(period)
	s.elapsed += seconds
	raw := s.offset + speed*seconds
	wrapped := raw >= p
	s.offset = math.Mod(raw, p)
	if s.offset < 0 {
		s.offset += p
	}
	if p-s.offset < wrapEpsilon || (wrapped && s.offset < wrapEpsilon) {
		s.offset = 0
	}
}

// Start is the first visible column of the window.
func (s *ScrollState) Start() int {
	return int(math.Floor(s.offset))
}
