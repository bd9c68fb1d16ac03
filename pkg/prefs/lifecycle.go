package prefs

import (
	"sync"
	"sync/atomic"
)

// Manager owns a single Handle for its lifetime. The first successful
// Initialize constructs it; every later call returns the same Handle and
// ignores its Options. There is no way to reset or replace the Handle.
type Manager struct {
	open OpenFunc

	handle atomic.Pointer[Handle]
	mu     sync.Mutex // held only while constructing
}

// NewManager returns a manager that constructs its handle with open.
func NewManager(open OpenFunc) *Manager {
	return &Manager{open: open}
}

// Initialize returns the manager's handle, constructing it from o if this is
// the first successful call. Concurrent first calls block until one of them
// has finished constructing. A failed construction is returned to its caller
// and leaves the manager uninitialized.
func (m *Manager) Initialize(o Options) (*Handle, error) {
	if h := m.handle.Load(); h != nil {
		return h, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if h := m.handle.Load(); h != nil {
		return h, nil
	}
	h, err := m.open(o)
	if err != nil {
		return nil, err
	}
	m.handle.Store(h)
	return h, nil
}

// Current returns the handle, or nil if Initialize has not yet succeeded.
func (m *Manager) Current() *Handle {
	return m.handle.Load()
}

var defaultManager = NewManager(Open)

// Initialize returns the process-wide handle, opening it with o on the first
// successful call. See Manager.Initialize.
func Initialize(o Options) (*Handle, error) {
	return defaultManager.Initialize(o)
}

// MustInitialize is like Initialize but panics if the store cannot be
// opened.
func MustInitialize(o Options) *Handle {
	h, err := Initialize(o)
	if err != nil {
		panic(err)
	}
	return h
}

// Current returns the process-wide handle, or nil before Initialize has
// succeeded.
func Current() *Handle {
	return defaultManager.Current()
}
