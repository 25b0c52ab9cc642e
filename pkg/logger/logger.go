package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Logger
}

// NewLogger writes to stderr so documents streamed to stdout stay clean.
func NewLogger(verbose bool) *Logger {
	return NewLoggerWithOutput(os.Stderr, verbose)
}

func NewLoggerWithOutput(out io.Writer, verbose bool) *Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   out == os.Stderr,
	})

	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	return &Logger{Logger: log}
}

// Discard returns a logger that drops every entry; tests use it.
func Discard() *Logger {
	return NewLoggerWithOutput(io.Discard, false)
}
