package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}

func TestPairsDropsMalformed(t *testing.T) {
	got := pairs([]any{"a", 1, 2, "b", "c"})
	assert.Equal(t, []any{"a", 1}, got)
}

func TestSetLevel(t *testing.T) {
	SetLevel(LevelError)
	assert.False(t, level.Enabled(toZap(LevelInfo)))
	SetLevel(LevelDebug)
	assert.True(t, level.Enabled(toZap(LevelDebug)))
	SetLevel(LevelInfo)
}
