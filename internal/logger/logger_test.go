package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	log := New(&buf, false)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	log.WithField("path", "a.txt").Debug("scanning file")
	assert.Empty(t, buf.String())

	log.Warn("config ignored")
	assert.Contains(t, buf.String(), "config ignored")

	buf.Reset()
	log = New(&buf, true)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	log.WithField("path", "a.txt").Debug("scanning file")
	assert.Contains(t, buf.String(), "scanning file")
	assert.Contains(t, buf.String(), "path=a.txt")
}

func TestNewWithLevel(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, logrus.ErrorLevel, NewWithLevel(&buf, "error").GetLevel())
	// should default to info
	assert.Equal(t, logrus.InfoLevel, NewWithLevel(&buf, "invalid").GetLevel())
}
