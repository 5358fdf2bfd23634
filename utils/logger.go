package utils

import (
	"io"

	"github.com/sirupsen/logrus"
)

var (
	isVerbose bool
	logger    = newLogger()
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05.000000",
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

func SetVerbose(verbose bool) {
	isVerbose = verbose
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
}

func IsVerbose() bool {
	return isVerbose
}

// SetOutput redirects all log output, tests use it to capture lines.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Logger exposes the underlying logger for callers that want structured fields.
func Logger() *logrus.Logger {
	return logger
}

func Verbose(format string, args ...interface{}) {
	if isVerbose {
		logger.Debugf(format, args...)
	}
}

func Info(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

func Warn(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

func Error(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}
