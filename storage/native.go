package storage

import "fmt"

// NativeStore is a typed view over a Backend holding bool, int, string,
// float and long values. Every value carries its kind, so reading a key with
// the wrong accessor fails with ErrTypeMismatch instead of reinterpreting
// bytes.
type NativeStore struct {
	b Backend
}

// NewNativeStore returns a NativeStore that owns b; closing it closes b.
func NewNativeStore(b Backend) *NativeStore {
	return &NativeStore{b: b}
}

// Get returns the value stored under key and whether it exists. An existing
// value of a different kind yields ErrTypeMismatch.
func (n *NativeStore) Get(key string, kind Kind) (Value, bool, error) {
	raw, ok, err := n.b.Get(key)
	if err != nil || !ok {
		return Value{}, false, err
	}
	var v Value
	if err := v.UnmarshalBinary(raw); err != nil {
		return Value{}, false, fmt.Errorf("decode %q: %w", key, err)
	}
	if v.kind != kind {
		return Value{}, false, fmt.Errorf("key %q: %w", key, v.mismatch(kind))
	}
	return v, true, nil
}

// GetBool and the other typed getters return def when key is missing and
// ErrTypeMismatch when it holds another kind.
func (n *NativeStore) GetBool(key string, def bool) (bool, error) {
	v, ok, err := n.Get(key, KindBool)
	if err != nil || !ok {
		return def, err
	}
	return v.Bool()
}

func (n *NativeStore) GetInt(key string, def int32) (int32, error) {
	v, ok, err := n.Get(key, KindInt)
	if err != nil || !ok {
		return def, err
	}
	return v.Int()
}

func (n *NativeStore) GetString(key string, def string) (string, error) {
	v, ok, err := n.Get(key, KindString)
	if err != nil || !ok {
		return def, err
	}
	return v.Text()
}

func (n *NativeStore) GetFloat(key string, def float32) (float32, error) {
	v, ok, err := n.Get(key, KindFloat)
	if err != nil || !ok {
		return def, err
	}
	return v.Float()
}

func (n *NativeStore) GetLong(key string, def int64) (int64, error) {
	v, ok, err := n.Get(key, KindLong)
	if err != nil || !ok {
		return def, err
	}
	return v.Long()
}

// Put stores a single value.
func (n *NativeStore) Put(key string, v Value) error {
	return n.Edit().Put(key, v).Apply()
}

// Contains reports whether key holds a value of any kind.
func (n *NativeStore) Contains(key string) (bool, error) {
	return n.b.Exists(key)
}

// Remove deletes key. Removing a missing key is not an error.
func (n *NativeStore) Remove(key string) error {
	return n.Edit().Remove(key).Apply()
}

// Close closes the underlying backend.
func (n *NativeStore) Close() error {
	return n.b.Close()
}

// Edit starts a batch of changes that take effect on Apply.
func (n *NativeStore) Edit() *Editor {
	return &Editor{n: n}
}

type editOp struct {
	key    string
	value  Value
	remove bool
}

// Editor collects puts and removes. Operations are applied in order, each
// key independently; there is no atomicity across keys.
type Editor struct {
	n   *NativeStore
	ops []editOp
}

// Put queues a write of v under key.
func (e *Editor) Put(key string, v Value) *Editor {
	e.ops = append(e.ops, editOp{key: key, value: v})
	return e
}

func (e *Editor) PutBool(key string, v bool) *Editor     { return e.Put(key, BoolValue(v)) }
func (e *Editor) PutInt(key string, v int32) *Editor     { return e.Put(key, IntValue(v)) }
func (e *Editor) PutString(key string, v string) *Editor { return e.Put(key, StringValue(v)) }
func (e *Editor) PutFloat(key string, v float32) *Editor { return e.Put(key, FloatValue(v)) }
func (e *Editor) PutLong(key string, v int64) *Editor    { return e.Put(key, LongValue(v)) }

// Remove queues a delete of key.
func (e *Editor) Remove(key string) *Editor {
	e.ops = append(e.ops, editOp{key: key, remove: true})
	return e
}

// Apply writes the collected operations and stops at the first failure.
// Operations before the failing one stay applied.
func (e *Editor) Apply() error {
	for _, op := range e.ops {
		if op.remove {
			if _, err := e.n.b.Delete(op.key); err != nil {
				return fmt.Errorf("remove %q: %w", op.key, err)
			}
			continue
		}
		if !op.value.Valid() {
			return fmt.Errorf("put %q: %w", op.key, ErrInvalidValue)
		}
		raw, err := op.value.MarshalBinary()
		if err != nil {
			return fmt.Errorf("put %q: %w", op.key, err)
		}
		if err := e.n.b.Set(op.key, raw); err != nil {
			return fmt.Errorf("put %q: %w", op.key, err)
		}
	}
	e.ops = nil
	return nil
}
