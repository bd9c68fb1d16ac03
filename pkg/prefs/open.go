package prefs

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"securedprefs/config"
	"securedprefs/pkg/codec"
	"securedprefs/pkg/keystore"
	"securedprefs/storage"
)

// Store names used when Options.Name is empty.
const (
	DefaultName        = "APP_SP_DB"
	DefaultSecuredName = "APP_SP_DB_SECURED"
)

// ErrInit wraps every failure to construct a store.
var ErrInit = errors.New("prefs: store initialization failed")

// Options selects the store to open. Only the options passed to the first
// successful Initialize take effect.
type Options struct {
	Name      string
	Encrypted bool

	// Dir is the parent directory of the store directory.
	Dir string
	// Backend is "badger" (default) or "memory".
	Backend string
	// Format is the structured serialization format, "json" (default) or "yaml".
	Format string

	Passphrase string
	// KeyFile defaults to <Dir>/master_key.json.
	KeyFile string
	// KeyParams overrides the scrypt cost of a newly created key file.
	KeyParams *keystore.Params

	SyncWrites bool
	GCInterval time.Duration
	Logger     *slog.Logger
}

// OptionsFromConfig converts loaded configuration into Options.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		Name:       cfg.Store.Name,
		Encrypted:  cfg.Store.Encrypted,
		Dir:        cfg.Store.DataDir,
		Backend:    cfg.Store.Backend,
		Format:     cfg.Store.Format,
		Passphrase: cfg.Security.Passphrase,
		KeyFile:    cfg.Security.KeyFile,
		SyncWrites: cfg.Store.SyncWrites,
		GCInterval: cfg.Store.GCInterval,
		Logger:     logger,
	}
}

// StoreName returns the effective store name.
func (o Options) StoreName() string {
	switch {
	case o.Name != "":
		return o.Name
	case o.Encrypted:
		return DefaultSecuredName
	default:
		return DefaultName
	}
}

func (o Options) keyFile() string {
	if o.KeyFile != "" {
		return o.KeyFile
	}
	return filepath.Join(o.Dir, "master_key.json")
}

// OpenFunc constructs a handle. Open is the production implementation.
type OpenFunc func(Options) (*Handle, error)

// Open constructs a new handle for o. Every failure wraps ErrInit.
func Open(o Options) (*Handle, error) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := o.StoreName()
	logger = logger.With("store", name, "encrypted", o.Encrypted)

	format, err := codec.FormatByName(o.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}

	var mk *keystore.MasterKey
	if o.Encrypted {
		params := keystore.DefaultParams
		if o.KeyParams != nil {
			params = *o.KeyParams
		}
		mk, err = keystore.CreateOrRetrieveWithParams(o.keyFile(), o.Passphrase, params)
		if err != nil {
			return nil, fmt.Errorf("%w: master key: %w", ErrInit, err)
		}
	}

	var backend storage.Backend
	kind := o.Backend
	if kind == "" {
		kind = "badger"
	}
	switch kind {
	case "badger":
		bo := storage.BadgerOptions{
			Dir:        filepath.Join(o.Dir, name),
			SyncWrites: o.SyncWrites,
			GCInterval: o.GCInterval,
			Logger:     logger,
		}
		if mk != nil {
			bo.EncryptionKey = mk.Derive(keystore.PurposeFile)
		}
		backend, err = storage.NewBadgerStorage(bo)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInit, err)
		}
	case "memory":
		backend = storage.NewMemoryStorage()
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInit, o.Backend)
	}

	if mk != nil {
		enc, err := storage.NewEncryptedStorage(backend,
			mk.Derive(keystore.PurposeKey), mk.Derive(keystore.PurposeValue))
		if err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("%w: %w", ErrInit, err)
		}
		backend = enc
		logger.Debug("master key loaded", "key_id", mk.ID)
	}

	logger.Debug("store opened", "backend", kind, "format", format.Name())
	return newHandle(name, o.Encrypted, storage.NewNativeStore(backend), format, logger), nil
}
