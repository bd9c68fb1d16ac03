package codec

import (
	"errors"
	"fmt"
	"strconv"

	"securedprefs/storage"
)

// ErrParse is returned when a text-encoded scalar does not hold a valid
// number of the requested kind.
var ErrParse = errors.New("malformed stored number")

func EncodeBool(v bool) storage.Value { return storage.BoolValue(v) }

func DecodeBool(n storage.Value) (bool, error) { return n.Bool() }

func EncodeInt32(v int32) storage.Value { return storage.IntValue(v) }

func DecodeInt32(n storage.Value) (int32, error) { return n.Int() }

func EncodeString(v string) storage.Value { return storage.StringValue(v) }

func DecodeString(n storage.Value) (string, error) { return n.Text() }

func EncodeFloat32(v float32) storage.Value { return storage.FloatValue(v) }

func DecodeFloat32(n storage.Value) (float32, error) { return n.Float() }

func EncodeInt64(v int64) storage.Value { return storage.LongValue(v) }

func DecodeInt64(n storage.Value) (int64, error) { return n.Long() }

// EncodeFloat64 stores v as the shortest decimal text that parses back to
// exactly v.
func EncodeFloat64(v float64) storage.Value {
	return storage.StringValue(strconv.FormatFloat(v, 'g', -1, 64))
}

func DecodeFloat64(n storage.Value) (float64, error) {
	s, err := n.Text()
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, parseError(KindFloat64, s, err)
	}
	return f, nil
}

func EncodeInt16(v int16) storage.Value {
	return storage.StringValue(strconv.FormatInt(int64(v), 10))
}

func DecodeInt16(n storage.Value) (int16, error) {
	i, err := decodeInt(n, KindInt16, 16)
	return int16(i), err
}

func EncodeInt8(v int8) storage.Value {
	return storage.StringValue(strconv.FormatInt(int64(v), 10))
}

func DecodeInt8(n storage.Value) (int8, error) {
	i, err := decodeInt(n, KindInt8, 8)
	return int8(i), err
}

// EncodeChar stores a character as its code point.
func EncodeChar(v rune) storage.Value { return storage.IntValue(v) }

// DecodeChar returns the stored int as a rune. Any int32 is accepted, so a
// value that is not a valid Unicode code point comes back unchanged.
func DecodeChar(n storage.Value) (rune, error) { return n.Int() }

func decodeInt(n storage.Value, k Kind, bits int) (int64, error) {
	s, err := n.Text()
	if err != nil {
		return 0, err
	}
	i, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		return 0, parseError(k, s, err)
	}
	return i, nil
}

func parseError(k Kind, text string, err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		err = ne.Err
	}
	return fmt.Errorf("%w: %s from %q: %v", ErrParse, k, text, err)
}
