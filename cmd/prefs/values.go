package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"

	"securedprefs/pkg/codec"
	"securedprefs/pkg/prefs"
)

// putValue parses raw as kind k and stores it under key. Compound kinds take
// JSON text.
func putValue(h *prefs.Handle, k codec.Kind, key, raw string) error {
	switch k {
	case codec.KindBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		return h.PutBool(key, v)
	case codec.KindInt32:
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return err
		}
		return h.PutInt32(key, int32(v))
	case codec.KindString:
		return h.PutString(key, raw)
	case codec.KindFloat32:
		v, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return err
		}
		return h.PutFloat32(key, float32(v))
	case codec.KindInt64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		return h.PutInt64(key, v)
	case codec.KindFloat64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		return h.PutFloat64(key, v)
	case codec.KindInt16:
		v, err := strconv.ParseInt(raw, 10, 16)
		if err != nil {
			return err
		}
		return h.PutInt16(key, int16(v))
	case codec.KindInt8:
		v, err := strconv.ParseInt(raw, 10, 8)
		if err != nil {
			return err
		}
		return h.PutInt8(key, int8(v))
	case codec.KindChar:
		r, err := parseChar(raw)
		if err != nil {
			return err
		}
		return h.PutChar(key, r)
	case codec.KindObject:
		v, err := codec.DecodeStructured[any](codec.JSON, raw).Get()
		if err != nil {
			return err
		}
		return h.PutObject(key, v)
	case codec.KindList:
		v, err := codec.DecodeStructured[[]any](codec.JSON, raw).Get()
		if err != nil {
			return err
		}
		return prefs.PutArray(h, key, v)
	case codec.KindMap:
		v, err := codec.DecodeStructured[map[string]any](codec.JSON, raw).Get()
		if err != nil {
			return err
		}
		return prefs.PutMap(h, key, v)
	}
	return fmt.Errorf("unsupported kind %s", k)
}

// getValue reads key as kind k and formats it for output. def is parsed as
// kind k and used when the key is missing; it is ignored for compound kinds,
// which print "(nil)" instead.
func getValue(h *prefs.Handle, k codec.Kind, key, def string) (string, error) {
	if k.Structured() {
		var v any
		switch k {
		case codec.KindObject:
			if p := prefs.GetObject[any](h, key); p != nil {
				v = *p
			}
		case codec.KindList:
			if l := prefs.GetArray[any](h, key); l != nil {
				v = l
			}
		case codec.KindMap:
			if m := prefs.GetMap[string, any](h, key); m != nil {
				v = m
			}
		}
		if v == nil {
			return "(nil)", nil
		}
		b, err := json.Marshal(v)
		return string(b), err
	}

	switch k {
	case codec.KindBool:
		d, err := parseDefault(def, strconv.ParseBool)
		if err != nil {
			return "", err
		}
		v, err := h.GetBool(key, d)
		return strconv.FormatBool(v), err
	case codec.KindInt32:
		d, err := parseDefault(def, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 32) })
		if err != nil {
			return "", err
		}
		v, err := h.GetInt32(key, int32(d))
		return strconv.FormatInt(int64(v), 10), err
	case codec.KindString:
		return h.GetString(key, def)
	case codec.KindFloat32:
		d, err := parseDefault(def, func(s string) (float64, error) { return strconv.ParseFloat(s, 32) })
		if err != nil {
			return "", err
		}
		v, err := h.GetFloat32(key, float32(d))
		return strconv.FormatFloat(float64(v), 'g', -1, 32), err
	case codec.KindInt64:
		d, err := parseDefault(def, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
		if err != nil {
			return "", err
		}
		v, err := h.GetInt64(key, d)
		return strconv.FormatInt(v, 10), err
	case codec.KindFloat64:
		d, err := parseDefault(def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
		if err != nil {
			return "", err
		}
		v, err := h.GetFloat64(key, d)
		return strconv.FormatFloat(v, 'g', -1, 64), err
	case codec.KindInt16:
		d, err := parseDefault(def, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 16) })
		if err != nil {
			return "", err
		}
		v, err := h.GetInt16(key, int16(d))
		return strconv.FormatInt(int64(v), 10), err
	case codec.KindInt8:
		d, err := parseDefault(def, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 8) })
		if err != nil {
			return "", err
		}
		v, err := h.GetInt8(key, int8(d))
		return strconv.FormatInt(int64(v), 10), err
	case codec.KindChar:
		var d rune
		if def != "" {
			r, err := parseChar(def)
			if err != nil {
				return "", err
			}
			d = r
		}
		v, err := h.GetChar(key, d)
		return string(v), err
	}
	return "", fmt.Errorf("unsupported kind %s", k)
}

// parseDefault parses a --default flag; an empty flag is the zero value.
func parseDefault[T any](s string, parse func(string) (T, error)) (T, error) {
	var zero T
	if s == "" {
		return zero, nil
	}
	v, err := parse(s)
	if err != nil {
		return zero, fmt.Errorf("invalid --default %q: %w", s, err)
	}
	return v, nil
}

func parseChar(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("char value must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
