// Package keystore creates and retrieves the master key that protects
// encrypted stores. The key is random, generated once, and kept on disk
// wrapped by a passphrase-derived key.
package keystore

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/scrypt"
)

const (
	// The current supported version of the key file format.
	keyFileVersion = 1

	// KeySize is the length of the master key and of every derived key.
	KeySize = chacha20poly1305.KeySize

	saltSize = 16
)

var (
	// ErrSecurityConfig is returned when no passphrase is configured, so the
	// master key cannot be protected.
	ErrSecurityConfig = errors.New("secure key storage is not configured")

	// Returned when the passphrase is incorrect or the key file has been modified / corrupted.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted key file")
)

// Purposes for Derive. Each yields an independent key.
const (
	PurposeFile  = "file"
	PurposeKey   = "entry-key"
	PurposeValue = "entry-value"
)

// MasterKey is the decrypted master key.
type MasterKey struct {
	ID  uuid.UUID
	key []byte
}

// Derive returns a KeySize key bound to purpose.
func (m *MasterKey) Derive(purpose string) []byte {
	out := make([]byte, KeySize)
	r := hkdf.New(sha256.New, m.key, m.ID[:], []byte("securedprefs/"+purpose))
	if _, err := io.ReadFull(r, out); err != nil {
		// hkdf can only fail past 255 blocks of output.
		panic(err)
	}
	return out
}

// keyFile is the on-disk JSON structure holding the wrapped key and KDF
// parameters.
type keyFile struct {
	V      int       `json:"v"`
	ID     uuid.UUID `json:"id"`
	Salt   []byte    `json:"salt"`
	N      int       `json:"scrypt_N"`
	R      int       `json:"scrypt_r"`
	P      int       `json:"scrypt_p"`
	Cipher []byte    `json:"cipher"`
}

// loadKeyFile reads the key file at path. A missing file yields nil, nil.
func loadKeyFile(path string) (*keyFile, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	kf := new(keyFile)
	if err := json.Unmarshal(b, kf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrongPassphrase, err)
	}
	if kf.V > keyFileVersion {
		return nil, fmt.Errorf("unsupported key file version %d", kf.V)
	}
	return kf, nil
}

// save writes kf to path readable by the owner only. Readers see either the
// complete file or no file.
func (kf *keyFile) save(path string) (err error) {
	b, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	partial := path + ".partial"
	f, err := os.OpenFile(partial, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(partial)
		}
	}()

	_, err = f.Write(b)
	if err == nil {
		err = f.Chmod(0o600)
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return os.Rename(partial, path)
}

// Params are the scrypt cost parameters used when a key file is created.
type Params struct {
	N, R, P int
}

// DefaultParams are the scrypt parameters for new key files.
var DefaultParams = Params{N: 1 << 15, R: 8, P: 1}

// CreateOrRetrieve loads the master key at path, or generates and stores a
// new one if path does not exist.
func CreateOrRetrieve(path, passphrase string) (*MasterKey, error) {
	return CreateOrRetrieveWithParams(path, passphrase, DefaultParams)
}

// CreateOrRetrieveWithParams is CreateOrRetrieve with explicit scrypt
// parameters for newly created key files. Existing files keep their own.
func CreateOrRetrieveWithParams(path, passphrase string, p Params) (*MasterKey, error) {
	if passphrase == "" {
		return nil, ErrSecurityConfig
	}

	kf, err := loadKeyFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	if kf != nil {
		return kf.open(passphrase)
	}

	mk := &MasterKey{ID: uuid.New(), key: make([]byte, KeySize)}
	if _, err := rand.Read(mk.key); err != nil {
		return nil, err
	}
	kf, err = seal(passphrase, mk, p)
	if err != nil {
		return nil, err
	}
	if err := kf.save(path); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}
	return mk, nil
}

// seal wraps the master key with a key derived from passphrase.
func seal(passphrase string, mk *MasterKey, p Params) (*keyFile, error) {
	var salt [saltSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	kek, err := scrypt.Key([]byte(passphrase), salt[:], p.N, p.R, p.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(kek)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte // zero nonce; the salt makes every kek unique
	ct := aead.Seal(nil, nonce[:], mk.key, mk.ID[:])

	return &keyFile{
		V:      keyFileVersion,
		ID:     mk.ID,
		Salt:   salt[:],
		N:      p.N,
		R:      p.R,
		P:      p.P,
		Cipher: ct,
	}, nil
}

// open unwraps the master key sealed in kf.
func (kf *keyFile) open(passphrase string) (*MasterKey, error) {
	kek, err := scrypt.Key([]byte(passphrase), kf.Salt, kf.N, kf.R, kf.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(kek)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	key, err := aead.Open(nil, nonce[:], kf.Cipher, kf.ID[:])
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return &MasterKey{ID: kf.ID, key: key}, nil
}
