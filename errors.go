package textdisplay

import (
	"errors"
	"fmt"
)

// ErrNoFont is reported when neither the configured font nor the built-in
// fallback could be loaded. The renderer draws nothing while it holds.
var ErrNoFont = errors.New("no usable font")

// ConfigError describes an option that was out of range and has been clamped.
type ConfigError struct {
	Field   string
	Value   interface{}
	Clamped interface{}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %v out of range, using %v", e.Field, e.Value, e.Clamped)
}

// FontLoadError wraps the reason a font file could not be used.
type FontLoadError struct {
	Path string
	Err  error
}

func (e *FontLoadError) Error() string {
	return fmt.Sprintf("font %q: %v", e.Path, e.Err)
}

func (e *FontLoadError) Unwrap() error {
	return e.Err
}
