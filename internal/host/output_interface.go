package host

import (
	"image"

	"github.com/sirupsen/logrus"
)

// OutputHandler receives every frame the host decides to publish.
type OutputHandler interface {
	Output(img image.Image) error
	Close() error
	GetType() string
}

type OutputManager struct {
	handlers []OutputHandler
	log      *logrus.Entry
}

func NewOutputManager(logger logrus.FieldLogger) *OutputManager {
	return &OutputManager{
		handlers: make([]OutputHandler, 0),
		log:      logger.WithField("module", "output"),
	}
}

func (om *OutputManager) AddHandler(handler OutputHandler) {
	om.handlers = append(om.handlers, handler)
}

func (om *OutputManager) Len() int {
	return len(om.handlers)
}

// Output fans img out to every handler. It fails only when all of them do.
func (om *OutputManager) Output(img image.Image) error {
	var lastErr error
	hasSuccess := false

	for _, handler := range om.handlers {
		if err := handler.Output(img); err != nil {
			om.log.Warnf("%s failed: %v", handler.GetType(), err)
			lastErr = err
		} else {
			hasSuccess = true
		}
	}

	if !hasSuccess && lastErr != nil {
		return lastErr
	}

	return nil
}

func (om *OutputManager) Close() {
	for _, handler := range om.handlers {
		if err := handler.Close(); err != nil {
			om.log.Warnf("%s close failed: %v", handler.GetType(), err)
		}
	}
}
