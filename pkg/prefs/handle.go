package prefs

import (
	"log/slog"

	"securedprefs/pkg/codec"
	"securedprefs/storage"
)

// Handle is the typed facade over one store. It is safe for concurrent use;
// writes to different keys are independent of each other.
//
// Scalar getters return the default when the key is missing and an error when
// the stored value has a different kind or cannot be parsed. Structured
// getters (GetObject, GetArray, GetMap) never return an error: a missing or
// undecodable value comes back as nil and decode failures are logged.
type Handle struct {
	name      string
	encrypted bool
	store     *storage.NativeStore
	format    codec.Format
	logger    *slog.Logger
}

func newHandle(name string, encrypted bool, store *storage.NativeStore, format codec.Format, logger *slog.Logger) *Handle {
	return &Handle{
		name:      name,
		encrypted: encrypted,
		store:     store,
		format:    format,
		logger:    logger,
	}
}

// Name returns the store name the handle was opened with.
func (h *Handle) Name() string { return h.name }

// Encrypted reports whether the store is encrypted at rest.
func (h *Handle) Encrypted() bool { return h.encrypted }

// get reads key as kind k and decodes it, or returns def when key is missing.
func get[T any](h *Handle, key string, k codec.Kind, def T, decode func(storage.Value) (T, error)) (T, error) {
	v, ok, err := h.store.Get(key, k.Native())
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	return decode(v)
}

// PutBool stores v under key, replacing any previous value.
func (h *Handle) PutBool(key string, v bool) error {
	return h.store.Put(key, codec.EncodeBool(v))
}

// GetBool returns the bool stored under key, or def if key is missing.
func (h *Handle) GetBool(key string, def bool) (bool, error) {
	return get(h, key, codec.KindBool, def, codec.DecodeBool)
}

// PutInt32 stores v under key.
func (h *Handle) PutInt32(key string, v int32) error {
	return h.store.Put(key, codec.EncodeInt32(v))
}

// GetInt32 returns the int32 stored under key, or def if key is missing.
func (h *Handle) GetInt32(key string, def int32) (int32, error) {
	return get(h, key, codec.KindInt32, def, codec.DecodeInt32)
}

// PutString stores v under key.
func (h *Handle) PutString(key string, v string) error {
	return h.store.Put(key, codec.EncodeString(v))
}

// GetString returns the string stored under key, or def if key is missing.
// Float64, int16 and int8 values are also strings and read back as their
// decimal text.
func (h *Handle) GetString(key string, def string) (string, error) {
	return get(h, key, codec.KindString, def, codec.DecodeString)
}

// PutFloat32 stores v under key.
func (h *Handle) PutFloat32(key string, v float32) error {
	return h.store.Put(key, codec.EncodeFloat32(v))
}

// GetFloat32 returns the float32 stored under key, or def if key is missing.
func (h *Handle) GetFloat32(key string, def float32) (float32, error) {
	return get(h, key, codec.KindFloat32, def, codec.DecodeFloat32)
}

// PutInt64 stores v under key.
func (h *Handle) PutInt64(key string, v int64) error {
	return h.store.Put(key, codec.EncodeInt64(v))
}

// GetInt64 returns the int64 stored under key, or def if key is missing.
func (h *Handle) GetInt64(key string, def int64) (int64, error) {
	return get(h, key, codec.KindInt64, def, codec.DecodeInt64)
}

// PutFloat64 stores v as decimal text.
func (h *Handle) PutFloat64(key string, v float64) error {
	return h.store.Put(key, codec.EncodeFloat64(v))
}

// GetFloat64 parses the decimal text stored under key. Text that is not a
// float64 yields codec.ErrParse.
func (h *Handle) GetFloat64(key string, def float64) (float64, error) {
	return get(h, key, codec.KindFloat64, def, codec.DecodeFloat64)
}

// PutInt16 stores v as decimal text.
func (h *Handle) PutInt16(key string, v int16) error {
	return h.store.Put(key, codec.EncodeInt16(v))
}

// GetInt16 parses the decimal text stored under key. Text outside the int16
// range yields codec.ErrParse.
func (h *Handle) GetInt16(key string, def int16) (int16, error) {
	return get(h, key, codec.KindInt16, def, codec.DecodeInt16)
}

// PutInt8 stores v as decimal text.
func (h *Handle) PutInt8(key string, v int8) error {
	return h.store.Put(key, codec.EncodeInt8(v))
}

// GetInt8 is GetInt16 for the int8 range.
func (h *Handle) GetInt8(key string, def int8) (int8, error) {
	return get(h, key, codec.KindInt8, def, codec.DecodeInt8)
}

// PutChar stores the code point of v; it can be read back with GetInt32.
func (h *Handle) PutChar(key string, v rune) error {
	return h.store.Put(key, codec.EncodeChar(v))
}

// GetChar returns the code point stored under key as a rune, unvalidated.
func (h *Handle) GetChar(key string, def rune) (rune, error) {
	return get(h, key, codec.KindChar, def, codec.DecodeChar)
}

// Contains reports whether key holds a value of any kind.
func (h *Handle) Contains(key string) (bool, error) {
	return h.store.Contains(key)
}

// Remove deletes key. Removing a missing key is not an error.
func (h *Handle) Remove(key string) error {
	return h.store.Remove(key)
}

// Close releases a handle obtained from Open. The process-wide handle owned
// by a Manager lives as long as the process and must not be closed.
func (h *Handle) Close() error {
	return h.store.Close()
}
