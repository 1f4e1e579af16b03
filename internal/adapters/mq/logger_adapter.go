package mq

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/pathwise/engine/pkg/logger"
)

// loggerAdapter bridges watermill's logging into the process logger.
// Trace output is dropped.
type loggerAdapter struct {
	log    logger.Logger
	fields watermill.LogFields
}

func newLoggerAdapter(log logger.Logger) watermill.LoggerAdapter {
	return &loggerAdapter{log: log}
}

func (a *loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(context.Background(), msg, append(a.convert(fields), logger.Error(err))...)
}

func (a *loggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(context.Background(), msg, a.convert(fields)...)
}

func (a *loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(context.Background(), msg, a.convert(fields)...)
}

func (a *loggerAdapter) Trace(string, watermill.LogFields) {}

func (a *loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &loggerAdapter{log: a.log, fields: a.fields.Add(fields)}
}

func (a *loggerAdapter) convert(fields watermill.LogFields) []logger.Field {
	merged := a.fields.Add(fields)
	out := make([]logger.Field, 0, len(merged))
	for key, value := range merged {
		out = append(out, logger.Any(key, value))
	}
	return out
}
