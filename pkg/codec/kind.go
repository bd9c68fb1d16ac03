// Package codec maps the typed values the preferences API accepts onto the
// native kinds a storage.NativeStore holds, and serializes compound values
// to text.
package codec

import (
	"fmt"

	"securedprefs/storage"
)

// Kind is the closed set of value categories the typed API distinguishes.
type Kind uint8

const (
	KindBool Kind = iota + 1
	KindInt32
	KindString
	KindFloat32
	KindInt64
	KindFloat64
	KindInt16
	KindInt8
	KindChar
	KindObject
	KindList
	KindMap
)

// Kinds lists every Kind in declaration order.
var Kinds = []Kind{
	KindBool, KindInt32, KindString, KindFloat32, KindInt64, KindFloat64,
	KindInt16, KindInt8, KindChar, KindObject, KindList, KindMap,
}

var kindNames = map[Kind]string{
	KindBool:    "bool",
	KindInt32:   "int32",
	KindString:  "string",
	KindFloat32: "float32",
	KindInt64:   "int64",
	KindFloat64: "float64",
	KindInt16:   "int16",
	KindInt8:    "int8",
	KindChar:    "char",
	KindObject:  "object",
	KindList:    "list",
	KindMap:     "map",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind resolves a kind by its String name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown kind %q", name)
}

// Native returns the storage kind values of k are persisted as.
func (k Kind) Native() storage.Kind {
	switch k {
	case KindBool:
		return storage.KindBool
	case KindInt32, KindChar:
		return storage.KindInt
	case KindFloat32:
		return storage.KindFloat
	case KindInt64:
		return storage.KindLong
	case KindString, KindFloat64, KindInt16, KindInt8, KindObject, KindList, KindMap:
		return storage.KindString
	}
	panic(fmt.Sprintf("codec: no native kind for %s", k))
}

// Structured reports whether k is serialized through a Format.
func (k Kind) Structured() bool {
	return k == KindObject || k == KindList || k == KindMap
}
