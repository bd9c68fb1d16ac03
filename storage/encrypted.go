package storage

import (
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const encryptedKeyInfo = "securedprefs/entry-key/v1"

// EncryptedStorage wraps a Backend so that neither keys nor values reach it
// in plaintext. Keys are encrypted deterministically (the same key always
// maps to the same stored key, so lookups work); values are encrypted with a
// fresh random nonce on every write and bound to their encrypted key.
type EncryptedStorage struct {
	b        Backend
	nonceKey []byte
	keyAEAD  cipher.AEAD
	valAEAD  cipher.AEAD
}

// NewEncryptedStorage creates an encrypted view over b. keyKey protects entry
// keys and valueKey protects entry values; both must be 32 bytes.
func NewEncryptedStorage(b Backend, keyKey, valueKey []byte) (*EncryptedStorage, error) {
	if len(keyKey) != chacha20poly1305.KeySize || len(valueKey) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("encryption keys must be %d bytes", chacha20poly1305.KeySize)
	}

	// Split keyKey into independent nonce-derivation and cipher keys.
	sub := make([]byte, 2*chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, keyKey, nil, []byte(encryptedKeyInfo)), sub); err != nil {
		return nil, err
	}

	keyAEAD, err := chacha20poly1305.NewX(sub[chacha20poly1305.KeySize:])
	if err != nil {
		return nil, err
	}
	valAEAD, err := chacha20poly1305.NewX(valueKey)
	if err != nil {
		return nil, err
	}

	return &EncryptedStorage{
		b:        b,
		nonceKey: sub[:chacha20poly1305.KeySize],
		keyAEAD:  keyAEAD,
		valAEAD:  valAEAD,
	}, nil
}

// sealKey encrypts a plaintext key. The nonce is an HMAC of the key so equal
// keys produce equal ciphertexts.
func (e *EncryptedStorage) sealKey(key string) string {
	mac := hmac.New(sha256.New, e.nonceKey)
	mac.Write([]byte(key))
	nonce := mac.Sum(nil)[:chacha20poly1305.NonceSizeX]

	out := e.keyAEAD.Seal(append([]byte(nil), nonce...), nonce, []byte(key), nil)
	return base64.RawURLEncoding.EncodeToString(out)
}

func (e *EncryptedStorage) sealValue(storedKey string, value []byte) ([]byte, error) {
	nonce := make([]byte, chacha20poly1305.NonceSizeX, chacha20poly1305.NonceSizeX+len(value)+e.valAEAD.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return e.valAEAD.Seal(nonce, nonce, value, []byte(storedKey)), nil
}

func (e *EncryptedStorage) openValue(storedKey string, blob []byte) ([]byte, error) {
	if len(blob) < chacha20poly1305.NonceSizeX+e.valAEAD.Overhead() {
		return nil, ErrCorrupt
	}
	nonce, ct := blob[:chacha20poly1305.NonceSizeX], blob[chacha20poly1305.NonceSizeX:]
	pt, err := e.valAEAD.Open(nil, nonce, ct, []byte(storedKey))
	if err != nil {
		return nil, ErrCorrupt
	}
	return pt, nil
}

func (e *EncryptedStorage) Set(key string, value []byte) error {
	sk := e.sealKey(key)
	blob, err := e.sealValue(sk, value)
	if err != nil {
		return fmt.Errorf("encrypt value: %w", err)
	}
	return e.b.Set(sk, blob)
}

func (e *EncryptedStorage) Get(key string) ([]byte, bool, error) {
	sk := e.sealKey(key)
	blob, ok, err := e.b.Get(sk)
	if err != nil || !ok {
		return nil, ok, err
	}
	pt, err := e.openValue(sk, blob)
	if err != nil {
		return nil, false, fmt.Errorf("decrypt value for %q: %w", key, err)
	}
	return pt, true, nil
}

func (e *EncryptedStorage) Delete(keys ...string) (int, error) {
	sealed := make([]string, len(keys))
	for i, k := range keys {
		sealed[i] = e.sealKey(k)
	}
	return e.b.Delete(sealed...)
}

func (e *EncryptedStorage) Exists(key string) (bool, error) {
	return e.b.Exists(e.sealKey(key))
}

func (e *EncryptedStorage) Close() error {
	return e.b.Close()
}
