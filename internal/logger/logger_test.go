package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLevel_FiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetLevel("info")

	SetLevel("warn")
	Info("hidden %d", 1)
	Warn("shown %d", 2)
	Flush()

	out := buf.String()
	assert.NotContains(t, out, "hidden 1")
	assert.Contains(t, out, "shown 2")
}

func TestSetLevel_Debug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetLevel("info")

	SetLevel("debug")
	Debug("geocode %s", "miss")
	Flush()

	assert.Contains(t, buf.String(), "geocode miss")
}
