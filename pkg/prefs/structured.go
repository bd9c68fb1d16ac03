package prefs

import (
	"securedprefs/pkg/codec"
)

// PutObject serializes v with the store's format and saves it under key.
func (h *Handle) PutObject(key string, v any) error {
	nv, err := codec.EncodeStructured(h.format, v)
	if err != nil {
		return err
	}
	return h.store.Put(key, nv)
}

// PutArray saves an ordered list under key.
func PutArray[T any](h *Handle, key string, list []T) error {
	return h.PutObject(key, list)
}

// PutMap saves a map under key.
func PutMap[K comparable, V any](h *Handle, key string, m map[K]V) error {
	return h.PutObject(key, m)
}

// GetObject decodes the value under key into a new T. It returns nil when the
// key is missing, holds a non-text value, or cannot be decoded into T.
func GetObject[T any](h *Handle, key string) *T {
	return decodeStructured[*T](h, key, codec.KindObject)
}

// GetArray decodes the list under key, preserving order. It returns nil on
// the same conditions as GetObject.
func GetArray[T any](h *Handle, key string) []T {
	return decodeStructured[[]T](h, key, codec.KindList)
}

// GetMap decodes the map under key. It returns nil on the same conditions as
// GetObject.
func GetMap[K comparable, V any](h *Handle, key string) map[K]V {
	return decodeStructured[map[K]V](h, key, codec.KindMap)
}

// decodeStructured is the one place where read failures are turned into an
// absent value. Nothing here returns an error to the caller.
func decodeStructured[T any](h *Handle, key string, k codec.Kind) T {
	var zero T

	v, ok, err := h.store.Get(key, k.Native())
	if err != nil {
		h.logger.Error("structured read failed", "key", key, "kind", k, "error", err)
		return zero
	}
	if !ok {
		return zero
	}
	text, err := v.Text()
	if err != nil {
		h.logger.Error("structured read failed", "key", key, "kind", k, "error", err)
		return zero
	}

	res := codec.DecodeStructured[T](h.format, text)
	if err := res.Err(); err != nil {
		h.logger.Error("structured decode failed",
			"key", key, "kind", k, "format", h.format.Name(), "error", err)
	}
	return res.OrZero()
}
