package host

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/image/draw"

	"textdisplay"
)

// fakeWidget paints a solid color on its first render and reports no change
// afterwards.
type fakeWidget struct {
	fill     color.RGBA
	duration time.Duration
	renders  int
	drawn    bool
	closed   bool
}

func (w *fakeWidget) GetType() string { return "fake" }

func (w *fakeWidget) Configure(textdisplay.Options) {}

func (w *fakeWidget) DisplayDuration() time.Duration { return w.duration }

func (w *fakeWidget) Info() textdisplay.Info { return textdisplay.Info{Type: "fake"} }

func (w *fakeWidget) Render(dst draw.Image, elapsed time.Duration) bool {
	w.renders++
	if w.drawn {
		return false
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(w.fill), image.Point{}, draw.Src)
	w.drawn = true
	return true
}

func (w *fakeWidget) Close() error {
	w.closed = true
	return nil
}

// captureHandler records every published frame.
type captureHandler struct {
	frames []image.Image
	err    error
}

func (c *captureHandler) Output(img image.Image) error {
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, img)
	return nil
}

func (c *captureHandler) Close() error { return nil }

func (c *captureHandler) GetType() string { return "capture" }

func newTestHost(t *testing.T, handlers ...OutputHandler) *Host {
	t.Helper()
	logger, _ := test.NewNullLogger()
	om := NewOutputManager(logger)
	for _, h := range handlers {
		om.AddHandler(h)
	}
	return New(Config{Width: 16, Height: 8}, om, logger)
}

func TestHostTickWithoutWidgets(t *testing.T) {
	h := newTestHost(t)
	if img, changed := h.Tick(DefaultInterval); img != nil || changed {
		t.Error("Tick() without widgets published a frame")
	}
	if h.Active() != "" {
		t.Errorf("Active() = %q", h.Active())
	}
}

func TestHostPublishesOnlyChanges(t *testing.T) {
	h := newTestHost(t)
	w := &fakeWidget{fill: color.RGBA{255, 0, 0, 255}}
	h.Add("red", w)

	img, changed := h.Tick(DefaultInterval)
	if !changed {
		t.Fatal("first Tick() did not publish")
	}
	if got := img.(*image.RGBA).RGBAAt(3, 3); got != w.fill {
		t.Errorf("pixel = %v, want %v", got, w.fill)
	}
	for i := 0; i < 5; i++ {
		if _, changed := h.Tick(DefaultInterval); changed {
			t.Errorf("Tick() #%d published an unchanged frame", i+2)
		}
	}
	if w.renders != 6 {
		t.Errorf("renders = %d, want 6", w.renders)
	}
}

func TestHostRotation(t *testing.T) {
	h := newTestHost(t)
	a := &fakeWidget{fill: color.RGBA{255, 0, 0, 255}, duration: 100 * time.Millisecond}
	b := &fakeWidget{fill: color.RGBA{0, 0, 255, 255}, duration: 100 * time.Millisecond}
	h.Add("a", a)
	h.Add("b", b)

	var active []string
	var published []bool
	for i := 0; i < 8; i++ {
		_, changed := h.Tick(DefaultInterval)
		active = append(active, h.Active())
		published = append(published, changed)
	}

	// The tick that switches does not count towards the new widget's time.
	wantActive := []string{"a", "a", "a", "b", "b", "b", "b", "a"}
	wantPublished := []bool{true, false, false, true, false, false, false, true}
	for i := range wantActive {
		if active[i] != wantActive[i] || published[i] != wantPublished[i] {
			t.Fatalf("tick %d: active %q published %v, want %q %v",
				i+1, active[i], published[i], wantActive[i], wantPublished[i])
		}
	}

	status := h.Status()
	if len(status) != 2 || !status[0].Active || status[1].Active {
		t.Errorf("Status() = %+v", status)
	}
}

func TestHostPinnedWidget(t *testing.T) {
	h := newTestHost(t)
	h.Add("a", &fakeWidget{})
	h.Add("b", &fakeWidget{})
	for i := 0; i < 100; i++ {
		h.Tick(DefaultInterval)
	}
	if h.Active() != "a" {
		t.Errorf("Active() = %q, want a widget with zero duration to stay", h.Active())
	}
}

func TestHostRunFramesWithTextWidget(t *testing.T) {
	capture := &captureHandler{}
	h := newTestHost(t, capture)
	logger, _ := test.NewNullLogger()

	static := "HI"
	scroll := false
	fontPath := ""
	w := textdisplay.NewTextRenderer(logger)
	w.Configure(textdisplay.Options{Text: &static, Scroll: &scroll, FontPath: &fontPath})
	h.Add("static", w)

	if got := h.RunFrames(10); got != 1 {
		t.Errorf("RunFrames() published %d frames of static text, want 1", got)
	}
	if len(capture.frames) != 1 || h.LastFrame() == nil {
		t.Fatalf("captured %d frames", len(capture.frames))
	}

	h.Close()
	if w.Info().TextWidth != 0 {
		t.Error("Close() did not release the widget")
	}
}

func TestHostRunFramesScrolling(t *testing.T) {
	capture := &captureHandler{}
	h := newTestHost(t, capture)
	logger, _ := test.NewNullLogger()

	text := "a scrolling banner"
	fontPath := ""
	w := textdisplay.NewTextRenderer(logger)
	w.Configure(textdisplay.Options{Text: &text, FontPath: &fontPath})
	h.Add("scroll", w)

	if got := h.RunFrames(30); got < 20 {
		t.Errorf("RunFrames() published %d frames of scrolling text, want most of 30", got)
	}
}

func TestHostRunFramesOutputFailure(t *testing.T) {
	h := newTestHost(t, &captureHandler{err: errors.New("disk full")})
	h.Add("a", &fakeWidget{})
	if got := h.RunFrames(3); got != 0 {
		t.Errorf("RunFrames() = %d, want 0 when every output fails", got)
	}
	if h.LastFrame() == nil {
		t.Error("LastFrame() = nil after a rendered tick")
	}
}

func TestHostClose(t *testing.T) {
	h := newTestHost(t)
	w := &fakeWidget{}
	h.Add("a", w)
	h.Close()
	if !w.closed {
		t.Error("Close() did not close the widget")
	}
}

func TestCloneRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.SetRGBA(1, 1, color.RGBA{1, 2, 3, 255})
	dst := cloneRGBA(src).(*image.RGBA)
	src.SetRGBA(1, 1, color.RGBA{})
	if got := dst.RGBAAt(1, 1); got != (color.RGBA{1, 2, 3, 255}) {
		t.Errorf("clone shares pixels with source: %v", got)
	}
}

func TestHostRun(t *testing.T) {
	capture := &captureHandler{}
	logger, _ := test.NewNullLogger()
	om := NewOutputManager(logger)
	om.AddHandler(capture)
	h := New(Config{Width: 16, Height: 8, Interval: 10 * time.Millisecond}, om, logger)
	h.Add("a", &fakeWidget{fill: color.RGBA{0, 255, 0, 255}})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := h.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want deadline exceeded", err)
	}
	if len(capture.frames) != 1 {
		t.Errorf("Run() published %d frames, want 1", len(capture.frames))
	}
}
