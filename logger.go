package textdisplay

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// CustomFormatter prints entries as "[LEVEL timestamp] [module] message".
type CustomFormatter struct {
	// Color enables ANSI level colors; off when writing to files.
	Color bool
}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format("2006-01-02 15:04:05")

	var levelColor string
	var levelText string
	switch entry.Level {
	case logrus.InfoLevel:
		levelColor = "\033[36m" // Cyan
		levelText = " INFO"
	case logrus.WarnLevel:
		levelColor = "\033[33m" // Yellow
		levelText = " WARN"
	case logrus.ErrorLevel:
		levelColor = "\033[31m" // Red
		levelText = "ERROR"
	case logrus.DebugLevel:
		levelColor = "\033[37m" // White
		levelText = "DEBUG"
	default:
		levelColor = "\033[0m"
		levelText = strings.ToUpper(entry.Level.String())
	}

	reset := "\033[0m"
	if !f.Color {
		levelColor, reset = "", ""
	}

	module := "main"
	if moduleField, exists := entry.Data["module"]; exists {
		if moduleStr, ok := moduleField.(string); ok {
			module = moduleStr
		}
	}

	return []byte(fmt.Sprintf("[%s%s%s %s] [%8s] %s\n",
		levelColor, levelText, reset, timestamp, module, entry.Message)), nil
}

// NewLogger returns a logrus logger writing to out with the package formatter.
func NewLogger(out io.Writer, level logrus.Level, color bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	logger.SetFormatter(&CustomFormatter{Color: color})
	return logger
}

// moduleLogger tags every entry with the given module name. A nil logger
// yields one that discards everything so hosts may omit it.
func moduleLogger(logger logrus.FieldLogger, module string) *logrus.Entry {
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	return logger.WithField("module", module)
}
