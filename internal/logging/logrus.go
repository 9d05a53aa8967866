package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/harborml/gateway/common"
)

type logrusLogger struct {
	logger *logrus.Logger
}

// NewLogrusLogger returns a Logger backed by logrus. Logging starts disabled,
// matching the default logger.
func NewLogrusLogger() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &logrusLogger{logger: l}
}

func (l *logrusLogger) Debug(args ...interface{}) { l.logger.Debug(args...) }
func (l *logrusLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}
func (l *logrusLogger) Info(args ...interface{}) { l.logger.Info(args...) }
func (l *logrusLogger) Infof(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}
func (l *logrusLogger) Warn(args ...interface{}) { l.logger.Warn(args...) }
func (l *logrusLogger) Warnf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}
func (l *logrusLogger) Error(args ...interface{}) { l.logger.Error(args...) }
func (l *logrusLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *logrusLogger) SetLevel(level common.LogLevel) {
	if level == common.DisabledLevel {
		l.logger.SetOutput(io.Discard)
		return
	}

	l.logger.SetOutput(os.Stderr)
	switch level {
	case common.DebugLevel:
		l.logger.SetLevel(logrus.DebugLevel)
	case common.InfoLevel:
		l.logger.SetLevel(logrus.InfoLevel)
	case common.WarnLevel:
		l.logger.SetLevel(logrus.WarnLevel)
	case common.ErrorLevel:
		l.logger.SetLevel(logrus.ErrorLevel)
	}
}
