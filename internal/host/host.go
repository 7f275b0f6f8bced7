// Package host is a small stand-in for the display manager that normally
// drives text widgets: it ticks them, rotates between them and publishes
// frames to outputs.
package host

import (
	"context"
	"image"
	"time"

	"github.com/fogleman/gg"
	"github.com/sirupsen/logrus"

	"textdisplay"
)

// DefaultInterval matches the 30 Hz cadence hosts declare for text widgets.
const DefaultInterval = 33 * time.Millisecond

type Config struct {
	Width    int
	Height   int
	Interval time.Duration
}

type slot struct {
	name   string
	widget textdisplay.Widget
	dc     *gg.Context
}

// WidgetStatus is one entry of Host.Status.
type WidgetStatus struct {
	Name   string           `json:"name"`
	Active bool             `json:"active"`
	Info   textdisplay.Info `json:"info"`
}

// Host owns one surface per widget so a widget that reports "unchanged" can
// trust its surface still holds its last frame.
type Host struct {
	width    int
	height   int
	interval time.Duration

	slots     []*slot
	active    int
	shownFor  time.Duration
	switched  bool
	outputs   *OutputManager
	log       *logrus.Entry
	lastFrame image.Image
}

func New(cfg Config, outputs *OutputManager, logger logrus.FieldLogger) *Host {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Host{
		width:    cfg.Width,
		height:   cfg.Height,
		interval: interval,
		outputs:  outputs,
		log:      logger.WithField("module", "host"),
	}
}

func (h *Host) Add(name string, w textdisplay.Widget) {
	dc := gg.NewContext(h.width, h.height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	h.slots = append(h.slots, &slot{name: name, widget: w, dc: dc})
	if len(h.slots) == 1 {
		h.switched = true
	}
}

// Tick renders the active widget and returns its surface when it should be
// published: the widget changed it, or the widget just became active.
func (h *Host) Tick(elapsed time.Duration) (image.Image, bool) {
	if len(h.slots) == 0 {
		return nil, false
	}

	h.rotate(elapsed)

	s := h.slots[h.active]
	surface := s.dc.Image().(*image.RGBA)
	changed := s.widget.Render(surface, elapsed)
	if h.switched {
		changed = true
		h.switched = false
	}
	if !changed {
		return nil, false
	}
	return surface, true
}

// rotate moves to the next widget once the active one has been shown for
// its display duration. A zero duration pins the widget.
func (h *Host) rotate(elapsed time.Duration) {
	h.shownFor += elapsed
	if len(h.slots) < 2 {
		return
	}
	d := h.slots[h.active].widget.DisplayDuration()
	if d <= 0 || h.shownFor < d {
		return
	}
	h.active = (h.active + 1) % len(h.slots)
	h.shownFor = 0
	h.switched = true
	h.log.Debugf("Rotating to %s", h.slots[h.active].name)
}

func (h *Host) Active() string {
	if len(h.slots) == 0 {
		return ""
	}
	return h.slots[h.active].name
}

func (h *Host) Status() []WidgetStatus {
	status := make([]WidgetStatus, 0, len(h.slots))
	for i, s := range h.slots {
		status = append(status, WidgetStatus{
			Name:   s.name,
			Active: i == h.active,
			Info:   s.widget.Info(),
		})
	}
	return status
}

// RunFrames ticks n times with a fixed interval and publishes synchronously.
// It returns how many frames were published.
func (h *Host) RunFrames(n int) int {
	published := 0
	for i := 0; i < n; i++ {
		img, changed := h.Tick(h.interval)
		if !changed {
			continue
		}
		h.lastFrame = img
		if err := h.outputs.Output(img); err != nil {
			h.log.Warnf("Output failed: %v", err)
			continue
		}
		published++
	}
	return published
}

// LastFrame is the most recent frame RunFrames published.
func (h *Host) LastFrame() image.Image {
	return h.lastFrame
}

// Run ticks in real time until ctx is done. Encoding and I/O happen on a
// separate goroutine so a slow output drops frames instead of slowing ticks.
func (h *Host) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	outputChan := make(chan image.Image, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for img := range outputChan {
			outputStart := time.Now()
			if err := h.outputs.Output(img); err != nil {
				h.log.Warnf("Output failed: %v", err)
			} else {
				h.log.Debugf("Output time: %v", time.Since(outputStart))
			}
		}
	}()
	defer func() {
		close(outputChan)
		<-done
	}()

	h.log.Infof("Running %d widget(s) on %dx%d every %v", len(h.slots), h.width, h.height, h.interval)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			h.log.Info("Shutdown initiated")
			return ctx.Err()
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now

			img, changed := h.Tick(elapsed)
			if !changed {
				continue
			}

			select {
			case outputChan <- cloneRGBA(img):
			default:
				h.log.Warn("Output queue full, skipping frame")
			}
		}
	}
}

// Close releases every widget.
func (h *Host) Close() {
	for _, s := range h.slots {
		if err := s.widget.Close(); err != nil {
			h.log.Warnf("Closing %s: %v", s.name, err)
		}
	}
}

func cloneRGBA(img image.Image) image.Image {
	src, ok := img.(*image.RGBA)
	if !ok {
		return img
	}
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}
