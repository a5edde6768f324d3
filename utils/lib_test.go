package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToString(t *testing.T) {
	assert.Equal(t, "hello", ToString("hello"))
	assert.Equal(t, "42", ToString(42))
	assert.Equal(t, "42", ToString(int64(42)))
	assert.Equal(t, "3.5", ToString(3.5))
	assert.Equal(t, "true", ToString(true))
	assert.Equal(t, "false", ToString(false))
	assert.Equal(t, "bytes", ToString([]byte("bytes")))
}

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "", JoinKey[string](nil))
	assert.Equal(t, "a", JoinKey([]string{"a"}))
	assert.Equal(t, "a\x1fb", JoinKey([]string{"a", "b"}))
	assert.NotEqual(t, JoinKey([]string{"ab", "c"}), JoinKey([]string{"a", "bc"}))
	assert.Equal(t, "1\x1f2", JoinKey([]int{1, 2}))
}

func TestUnsafeRoundTrip(t *testing.T) {
	s := "frequent"
	assert.Equal(t, s, UnsafeString(UnsafeBytes(s)))
}

func TestAbs(t *testing.T) {
	assert.Equal(t, 3, Abs(-3))
	assert.Equal(t, 3, Abs(3))
	assert.Equal(t, 0, Abs(0))
}
