package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"securedprefs/storage"
)

// Format encodes and decodes compound values as text.
type Format interface {
	// Marshal serializes v into bytes.
	Marshal(v any) ([]byte, error)
	// Unmarshal deserializes data into v (must be a pointer).
	Unmarshal(data []byte, v any) error
	// Name returns the format identifier used in configuration and logs.
	Name() string
}

type jsonFormat struct{}

func (jsonFormat) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonFormat) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonFormat) Name() string                       { return "json" }

type yamlFormat struct{}

func (yamlFormat) Marshal(v any) ([]byte, error)      { return yaml.Marshal(v) }
func (yamlFormat) Unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }
func (yamlFormat) Name() string                       { return "yaml" }

var (
	JSON Format = jsonFormat{}
	YAML Format = yamlFormat{}
)

// FormatByName returns the format registered under name. An empty name
// selects JSON.
func FormatByName(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return nil, fmt.Errorf("unknown structured format %q", name)
}

// EncodeStructured serializes v with f into a string value. Cyclic values
// are not detected here; the format reports them if it can.
func EncodeStructured(f Format, v any) (storage.Value, error) {
	b, err := f.Marshal(v)
	if err != nil {
		return storage.Value{}, fmt.Errorf("%s encode: %w", f.Name(), err)
	}
	return storage.StringValue(string(b)), nil
}

// Result is the outcome of decoding a compound value: either a value or the
// error that prevented it.
type Result[T any] struct {
	value T
	err   error
}

// Get returns the decoded value and the decoding error, if any.
func (r Result[T]) Get() (T, error) { return r.value, r.err }

func (r Result[T]) Err() error { return r.err }

// Present reports whether decoding produced a value.
func (r Result[T]) Present() bool { return r.err == nil }

// OrZero returns the decoded value, or the zero T when decoding failed.
func (r Result[T]) OrZero() T {
	if r.err != nil {
		var zero T
		return zero
	}
	return r.value
}

// DecodeStructured parses text produced by EncodeStructured into a T.
func DecodeStructured[T any](f Format, text string) Result[T] {
	var v T
	if err := f.Unmarshal([]byte(text), &v); err != nil {
		return Result[T]{err: fmt.Errorf("%s decode into %T: %w", f.Name(), v, err)}
	}
	return Result[T]{value: v}
}
