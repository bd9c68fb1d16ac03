package storage

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Kind identifies one of the value kinds a NativeStore holds directly.
type Kind uint8

const (
	KindBool Kind = iota + 1
	KindInt
	KindString
	KindFloat
	KindLong
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindLong:
		return "long"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is a tagged native value. The zero Value is invalid.
type Value struct {
	kind Kind
	b    bool
	i    int32
	l    int64
	f    float32
	s    string
}

// Constructors for each native kind.
func BoolValue(v bool) Value     { return Value{kind: KindBool, b: v} }
func IntValue(v int32) Value     { return Value{kind: KindInt, i: v} }
func StringValue(v string) Value { return Value{kind: KindString, s: v} }
func FloatValue(v float32) Value { return Value{kind: KindFloat, f: v} }
func LongValue(v int64) Value    { return Value{kind: KindLong, l: v} }

// Kind returns the kind the value was constructed with.
func (v Value) Kind() Kind { return v.kind }

// Valid reports whether v was built by one of the constructors. Writing an
// invalid Value fails with ErrInvalidValue.
func (v Value) Valid() bool { return v.kind >= KindBool && v.kind <= KindLong }

func (v Value) mismatch(want Kind) error {
	return fmt.Errorf("%w: stored %s, requested %s", ErrTypeMismatch, v.kind, want)
}

// Bool returns the boolean payload, or ErrTypeMismatch for any other kind.
func (v Value) Bool() (bool, error) {
	if v.kind != KindBool {
		return false, v.mismatch(KindBool)
	}
	return v.b, nil
}

// Int returns the int32 payload.
func (v Value) Int() (int32, error) {
	if v.kind != KindInt {
		return 0, v.mismatch(KindInt)
	}
	return v.i, nil
}

// Text returns the string payload.
func (v Value) Text() (string, error) {
	if v.kind != KindString {
		return "", v.mismatch(KindString)
	}
	return v.s, nil
}

// Float returns the float32 payload.
func (v Value) Float() (float32, error) {
	if v.kind != KindFloat {
		return 0, v.mismatch(KindFloat)
	}
	return v.f, nil
}

// Long returns the int64 payload.
func (v Value) Long() (int64, error) {
	if v.kind != KindLong {
		return 0, v.mismatch(KindLong)
	}
	return v.l, nil
}

// MarshalBinary encodes the value as a kind tag followed by its payload.
// Fixed-width numbers are big-endian.
func (v Value) MarshalBinary() ([]byte, error) {
	switch v.kind {
	case KindBool:
		if v.b {
			return []byte{byte(KindBool), 1}, nil
		}
		return []byte{byte(KindBool), 0}, nil
	case KindInt:
		return binary.BigEndian.AppendUint32([]byte{byte(KindInt)}, uint32(v.i)), nil
	case KindFloat:
		return binary.BigEndian.AppendUint32([]byte{byte(KindFloat)}, math.Float32bits(v.f)), nil
	case KindLong:
		return binary.BigEndian.AppendUint64([]byte{byte(KindLong)}, uint64(v.l)), nil
	case KindString:
		return append([]byte{byte(KindString)}, v.s...), nil
	}
	return nil, fmt.Errorf("marshal %s: %w", v.kind, ErrInvalidValue)
}

// UnmarshalBinary decodes data produced by MarshalBinary.
func (v *Value) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty value", ErrCorrupt)
	}
	kind, payload := Kind(data[0]), data[1:]

	want := map[Kind]int{KindBool: 1, KindInt: 4, KindFloat: 4, KindLong: 8}
	if n, fixed := want[kind]; fixed && len(payload) != n {
		return fmt.Errorf("%w: %s payload of %d bytes", ErrCorrupt, kind, len(payload))
	}

	switch kind {
	case KindBool:
		*v = BoolValue(payload[0] != 0)
	case KindInt:
		*v = IntValue(int32(binary.BigEndian.Uint32(payload)))
	case KindFloat:
		*v = FloatValue(math.Float32frombits(binary.BigEndian.Uint32(payload)))
	case KindLong:
		*v = LongValue(int64(binary.BigEndian.Uint64(payload)))
	case KindString:
		*v = StringValue(string(payload))
	default:
		return fmt.Errorf("%w: unknown kind tag %d", ErrCorrupt, data[0])
	}
	return nil
}
