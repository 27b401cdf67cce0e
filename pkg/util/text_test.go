package util

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCollapseSpace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseSpace("  a \n\t b   c "))
	assert.Equal(t, "", CollapseSpace(" \n "))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "你好", TruncateRunes("你好世界", 2))
	assert.Equal(t, "abc", TruncateRunes("abc", 10))
	assert.Equal(t, "", TruncateRunes("abc", 0))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short body", Preview("short\n\nbody", 140))

	long := strings.Repeat("word ", 60)
	p := Preview(long, 140)
	assert.True(t, strings.HasSuffix(p, "…"))
	assert.LessOrEqual(t, utf8.RuneCountInString(p), 141)
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, 0, CeilDiv(0, 6))
	assert.Equal(t, 1, CeilDiv(6, 6))
	assert.Equal(t, 2, CeilDiv(7, 6))
	assert.Panics(t, func() { CeilDiv(1, 0) })
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("2d")
	assert.NoError(t, err)
	assert.Equal(t, 48*time.Hour, d)

	d, err = ParseDuration("30")
	assert.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)

	_, err = ParseDuration("xd")
	assert.Error(t, err)

	assert.Equal(t, time.Minute, MustParseDuration("", time.Minute))
	assert.Equal(t, time.Minute, MustParseDuration("bogus", time.Minute))
	assert.Equal(t, 90*time.Minute, MustParseDuration("90m", time.Minute))
}
