package utils

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestInitLevel(t *testing.T) {
	defer Init("info")

	Init("debug")
	assert.Equal(t, log.DebugLevel, Log.GetLevel())

	Init("nonsense")
	assert.Equal(t, log.InfoLevel, Log.GetLevel())
}

func TestLoggerPrefix(t *testing.T) {
	l := Logger("room")
	assert.Equal(t, "room", l.GetPrefix())
	assert.NotSame(t, Log, l)
}
