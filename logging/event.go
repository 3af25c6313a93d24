package logging

import "github.com/sirupsen/logrus"

type EventKind string

const (
	EventStart EventKind = "Start"
	EventInfo  EventKind = "Info"
	EventError EventKind = "Error"
	EventEnd   EventKind = "End"
)

// EventLogger records run events as logrus entries carrying an "event" field and the
// source they belong to.
type EventLogger struct {
	logger logrus.FieldLogger
	source string
}

func NewEventLogger(logger logrus.FieldLogger, source string) *EventLogger {
	return &EventLogger{logger: logger, source: source}
}

func (e *EventLogger) LogEvent(kind EventKind, message string) {
	entry := e.logger.WithFields(logrus.Fields{"event": string(kind), "source": e.source})
	if kind == EventError {
		entry.Error(message)
		return
	}
	entry.Info(message)
}
