package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToInt(t *testing.T) {
	assert.Equal(t, 42, ToInt(42))
	assert.Equal(t, 42, ToInt(int64(42)))
	assert.Equal(t, 42, ToInt(42.9))
	assert.Equal(t, 42, ToInt(" 42 "))
	assert.Equal(t, 0, ToInt("abc"))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "1.5", ToString(1.5))
	assert.Equal(t, "7", ToString(float64(7)))
	assert.Equal(t, "x", ToString([]byte("x")))
}

func TestToBool(t *testing.T) {
	assert.True(t, ToBool(true))
	assert.True(t, ToBool("YES"))
	assert.True(t, ToBool(1))
	assert.False(t, ToBool("0"))
	assert.False(t, ToBool(nil))
}

func TestToStringSlice(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ToStringSlice([]any{"a", "", "b"}))
	assert.Equal(t, []string{"a", "b"}, ToStringSlice("a, b,"))
	assert.Nil(t, ToStringSlice(12))
}

func TestToTime(t *testing.T) {
	want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	got, ok := ToTime("2024-05-01T12:00:00Z")
	assert.True(t, ok)
	assert.Equal(t, want, got)

	got, ok = ToTime(float64(want.Unix()))
	assert.True(t, ok)
	assert.Equal(t, want, got)

	got, ok = ToTime(want.UnixMilli())
	assert.True(t, ok)
	assert.Equal(t, want, got)

	_, ok = ToTime("yesterday")
	assert.False(t, ok)
}
