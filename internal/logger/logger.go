package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing plain text to w. Only warnings and
// errors are shown unless verbose is set.
func New(w io.Writer, verbose bool) *logrus.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return NewWithLevel(w, level)
}

// NewWithLevel is like New but takes a logrus level name. Unknown names
// fall back to info.
func NewWithLevel(w io.Writer, level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
