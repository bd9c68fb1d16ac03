package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	defaultGCInterval = 5 * time.Minute
	gcDiscardRatio    = 0.7
	indexCacheSize    = 16 << 20
)

// BadgerOptions configures a BadgerStorage.
type BadgerOptions struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string
	// InMemory keeps all data in memory; used by tests.
	InMemory bool
	// EncryptionKey enables Badger's file-level AES encryption. It must be
	// 16, 24 or 32 bytes long.
	EncryptionKey []byte
	// SyncWrites makes every write wait for fsync. When false the data is
	// visible immediately and flushed to disk asynchronously.
	SyncWrites bool
	// GCInterval is the value log GC period. Zero selects the default,
	// a negative value disables the loop.
	GCInterval time.Duration
	Logger     *slog.Logger
}

// BadgerStorage implements Backend using BadgerDB
type BadgerStorage struct {
	db   *badger.DB
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewBadgerStorage opens (or creates) a BadgerDB storage instance
func NewBadgerStorage(o BadgerOptions) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(o.Dir).
		WithLogger(newBadgerLogger(o.Logger)).
		WithLoggingLevel(badger.ERROR).
		WithSyncWrites(o.SyncWrites)
	if o.InMemory {
		opts = opts.WithDir("").WithValueDir("").WithInMemory(true)
	}
	if len(o.EncryptionKey) > 0 {
		opts = opts.WithEncryptionKey(o.EncryptionKey).
			WithIndexCacheSize(indexCacheSize)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	storage := &BadgerStorage{db: db, stop: make(chan struct{})}

	interval := o.GCInterval
	if interval == 0 {
		interval = defaultGCInterval
	}
	if interval > 0 && !o.InMemory {
		storage.wg.Add(1)
		go storage.runGC(interval)
	}

	return storage, nil
}

// runGC runs the value log garbage collector periodically until Close.
func (s *BadgerStorage) runGC(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			// One call rewrites at most one file; repeat until nothing is left.
			for s.db.RunValueLogGC(gcDiscardRatio) == nil {
			}
		}
	}
}

// Set stores a key-value pair
func (s *BadgerStorage) Set(key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), value))
	})
}

// Get retrieves a value by key
func (s *BadgerStorage) Get(key string) ([]byte, bool, error) {
	var value []byte
	var found bool

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		found = true
		value, err = item.ValueCopy(nil)
		return err
	})

	return value, found, err
}

// Delete removes one or more keys
func (s *BadgerStorage) Delete(keys ...string) (int, error) {
	deleted := 0

	err := s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			_, err := txn.Get([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}

// Exists checks if a key exists
func (s *BadgerStorage) Exists(key string) (bool, error) {
	var exists bool

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			exists = true
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})

	return exists, err
}

// Close stops the GC loop and closes the database.
func (s *BadgerStorage) Close() error {
	var err error
	s.once.Do(func() {
		close(s.stop)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}
