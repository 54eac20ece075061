package events

import (
	"bigsis-chat/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
)

// watermillLogger routes watermill's internal logs into the application
// logger under the EVENTS module.
type watermillLogger struct {
	logger logger.ILogger
	fields watermill.LogFields
}

func NewWatermillLogger(l logger.ILogger) watermill.LoggerAdapter {
	return &watermillLogger{logger: l}
}

func (w *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	details := w.details(fields)
	if err != nil {
		details["error"] = err.Error()
	}
	w.logger.Error(logger.ModuleEvents, msg, details)
}

func (w *watermillLogger) Info(msg string, fields watermill.LogFields) {
	w.logger.Info(logger.ModuleEvents, msg, w.details(fields))
}

func (w *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	w.logger.Debug(logger.ModuleEvents, msg, w.details(fields))
}

// Trace is folded into debug.
func (w *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	w.logger.Debug(logger.ModuleEvents, msg, w.details(fields))
}

func (w *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{logger: w.logger, fields: w.fields.Add(fields)}
}

func (w *watermillLogger) details(fields watermill.LogFields) map[string]interface{} {
	merged := w.fields.Add(fields)
	details := make(map[string]interface{}, len(merged))
	for k, v := range merged {
		details[k] = v
	}
	return details
}
