package textdisplay

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

// Widget is the contract between a display host and one of its widgets.
// The host serializes every call.
type Widget interface {
	GetType() string
	Configure(opts Options)
	// Render draws onto dst and reports whether dst changed.
	Render(dst draw.Image, elapsed time.Duration) bool
	DisplayDuration() time.Duration
	Info() Info
	Close() error
}

// WidgetFactory builds a widget that logs through logger.
type WidgetFactory func(logger logrus.FieldLogger) Widget

// WidgetRegistry maps widget type names to constructors.
type WidgetRegistry struct {
	factories map[string]WidgetFactory
}

func NewWidgetRegistry() *WidgetRegistry {
	wr := &WidgetRegistry{
		factories: make(map[string]WidgetFactory),
	}

	wr.Register(TextWidgetType, func(logger logrus.FieldLogger) Widget {
		return NewTextRenderer(logger)
	})

	return wr
}

func (wr *WidgetRegistry) Register(widgetType string, factory WidgetFactory) {
	wr.factories[widgetType] = factory
}

// New builds and configures a widget of the given type.
func (wr *WidgetRegistry) New(widgetType string, opts Options, logger logrus.FieldLogger) (Widget, error) {
	factory, exists := wr.factories[widgetType]
	if !exists {
		return nil, fmt.Errorf("unknown widget type %q", widgetType)
	}
	w := factory(logger)
	w.Configure(opts)
	return w, nil
}

func (wr *WidgetRegistry) Types() []string {
	types := make([]string, 0, len(wr.factories))
	for t := range wr.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
