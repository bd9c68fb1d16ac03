package prefs

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"securedprefs/pkg/codec"
	"securedprefs/storage"
)

// newTestHandle returns a handle over an in-memory backend and the buffer its
// logger writes to.
func newTestHandle(t *testing.T) (*Handle, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	h := newHandle("test", false, storage.NewNativeStore(storage.NewMemoryStorage()), codec.JSON, logger)
	t.Cleanup(func() { _ = h.Close() })
	return h, &logs
}

func TestHandleScalarRoundTrip(t *testing.T) {
	h, _ := newTestHandle(t)

	require.NoError(t, h.PutBool("bool", true))
	require.NoError(t, h.PutInt32("int32", math.MinInt32))
	require.NoError(t, h.PutString("string", "hello"))
	require.NoError(t, h.PutFloat32("float32", 2.5))
	require.NoError(t, h.PutInt64("int64", math.MaxInt64))
	require.NoError(t, h.PutFloat64("float64", 3.14159))
	require.NoError(t, h.PutInt16("int16", -32768))
	require.NoError(t, h.PutInt8("int8", 127))
	require.NoError(t, h.PutChar("char", 'A'))

	b, err := h.GetBool("bool", false)
	require.NoError(t, err)
	assert.True(t, b)

	i32, err := h.GetInt32("int32", 0)
	require.NoError(t, err)
	assert.Equal(t, int32(math.MinInt32), i32)

	s, err := h.GetString("string", "")
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	f32, err := h.GetFloat32("float32", 0)
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), f32)

	i64, err := h.GetInt64("int64", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), i64)

	f64, err := h.GetFloat64("float64", 0)
	require.NoError(t, err)
	assert.Equal(t, 3.14159, f64)

	i16, err := h.GetInt16("int16", 0)
	require.NoError(t, err)
	assert.Equal(t, int16(-32768), i16)

	i8, err := h.GetInt8("int8", 0)
	require.NoError(t, err)
	assert.Equal(t, int8(127), i8)

	c, err := h.GetChar("char", 0)
	require.NoError(t, err)
	assert.Equal(t, 'A', c)

	asInt, err := h.GetInt32("char", 0)
	require.NoError(t, err)
	assert.Equal(t, int32(65), asInt)
}

func TestHandleDefaultsForMissingKeys(t *testing.T) {
	h, _ := newTestHandle(t)

	b, err := h.GetBool("missing", true)
	require.NoError(t, err)
	assert.True(t, b)

	i, err := h.GetInt32("missing", 9)
	require.NoError(t, err)
	assert.Equal(t, int32(9), i)

	s, err := h.GetString("missing", "def")
	require.NoError(t, err)
	assert.Equal(t, "def", s)

	f32, err := h.GetFloat32("missing", 1.25)
	require.NoError(t, err)
	assert.Equal(t, float32(1.25), f32)

	i64, err := h.GetInt64("missing", -5)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), i64)

	f64, err := h.GetFloat64("missing", 2.75)
	require.NoError(t, err)
	assert.Equal(t, 2.75, f64)

	i16, err := h.GetInt16("missing", 300)
	require.NoError(t, err)
	assert.Equal(t, int16(300), i16)

	i8, err := h.GetInt8("missing", -3)
	require.NoError(t, err)
	assert.Equal(t, int8(-3), i8)

	c, err := h.GetChar("missing", 'z')
	require.NoError(t, err)
	assert.Equal(t, 'z', c)

	ok, err := h.Contains("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandleRemove(t *testing.T) {
	h, _ := newTestHandle(t)
	require.NoError(t, h.PutInt64("k", 10))

	ok, err := h.Contains("k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, h.Remove("k"))

	ok, err = h.Contains("k")
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := h.GetInt64("k", 77)
	require.NoError(t, err)
	assert.Equal(t, int64(77), v)

	require.NoError(t, h.Remove("k"), "removing twice is fine")
}

func TestHandleLastWriteWins(t *testing.T) {
	h, _ := newTestHandle(t)
	require.NoError(t, h.PutString("k", "first"))
	require.NoError(t, h.PutString("k", "second"))

	s, err := h.GetString("k", "")
	require.NoError(t, err)
	assert.Equal(t, "second", s)
}

func TestHandleNativeKindMismatchPropagates(t *testing.T) {
	h, _ := newTestHandle(t)
	require.NoError(t, h.PutString("s", "abc"))
	require.NoError(t, h.PutInt32("i", 1))

	_, err := h.GetInt32("s", 0)
	assert.ErrorIs(t, err, storage.ErrTypeMismatch)

	_, err = h.GetBool("i", false)
	assert.ErrorIs(t, err, storage.ErrTypeMismatch)

	_, err = h.GetInt64("i", 0)
	assert.ErrorIs(t, err, storage.ErrTypeMismatch)

	_, err = h.GetFloat32("s", 0)
	assert.ErrorIs(t, err, storage.ErrTypeMismatch)

	// Text-encoded kinds read from a native int.
	_, err = h.GetFloat64("i", 0)
	assert.ErrorIs(t, err, storage.ErrTypeMismatch)
}

func TestHandleTextScalarParseFailurePropagates(t *testing.T) {
	h, _ := newTestHandle(t)
	require.NoError(t, h.PutString("s", "not a number"))
	require.NoError(t, h.PutInt16("big", 1000))

	_, err := h.GetFloat64("s", 0)
	assert.ErrorIs(t, err, codec.ErrParse)

	_, err = h.GetInt16("s", 0)
	assert.ErrorIs(t, err, codec.ErrParse)

	// 1000 does not fit an int8.
	_, err = h.GetInt8("big", 0)
	assert.ErrorIs(t, err, codec.ErrParse)
}

func TestHandleTextScalarsShareStringKind(t *testing.T) {
	h, _ := newTestHandle(t)
	require.NoError(t, h.PutFloat64("d", 0.5))

	s, err := h.GetString("d", "")
	require.NoError(t, err)
	assert.Equal(t, "0.5", s)

	require.NoError(t, h.PutString("n", "42"))
	n, err := h.GetInt8("n", 0)
	require.NoError(t, err)
	assert.Equal(t, int8(42), n)
}

func TestHandleAccessors(t *testing.T) {
	h, _ := newTestHandle(t)
	assert.Equal(t, "test", h.Name())
	assert.False(t, h.Encrypted())
}
