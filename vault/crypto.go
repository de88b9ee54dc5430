// Package vault stores third-party API credentials encrypted at rest and
// derives the unified capability tokens that let anonymous callers use the
// proxy without ever holding the real upstream secret.
//
// All secrets are sealed under a single process-wide AES-256 key loaded at
// startup. Key rotation is not modeled: a decrypt under the wrong key is
// indistinguishable from tampering and surfaces as ErrCorruptedCiphertext.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const keySize = 32 // AES-256

// ErrCorruptedCiphertext indicates a token that failed integrity
// verification or was encrypted under a different key. It is an internal
// fault, never a user error.
var ErrCorruptedCiphertext = errors.New("corrupted ciphertext")

// Crypto handles encryption and decryption of stored secrets
type Crypto struct {
	key []byte
}

// NewCrypto creates a Crypto from a base64-encoded 32-byte key
func NewCrypto(encodedKey string) (*Crypto, error) {
	if encodedKey == "" {
		return nil, errors.New("encryption key is required")
	}
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", keySize, len(key))
	}
	return &Crypto{key: key}, nil
}

// EncryptString encrypts plaintext using AES-256-GCM and returns a
// self-describing base64url token (nonce prepended, auth tag included).
func (c *Crypto) EncryptString(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// DecryptString decrypts a token produced by EncryptString. Any integrity
// failure returns ErrCorruptedCiphertext; plaintext is never returned
// partially decrypted.
func (c *Crypto) DecryptString(token string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: bad encoding", ErrCorruptedCiphertext)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(data) < gcm.NonceSize() {
		return "", fmt.Errorf("%w: token too short", ErrCorruptedCiphertext)
	}

	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrCorruptedCiphertext)
	}

	return string(plaintext), nil
}

// DeriveUnifiedKey derives the unified capability token for a credential.
// The derivation is deterministic over provider and name slug only; two
// raw secrets stored under the same provider+name yield the same unified
// key, which is intentional (it names the slot, not the secret).
func (c *Crypto) DeriveUnifiedKey(providerSlug, nameSlug string) string {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(providerSlug))
	mac.Write([]byte{'/'})
	mac.Write([]byte(nameSlug))
	return "uk-" + hex.EncodeToString(mac.Sum(nil))[:40]
}

// GenerateKey returns a fresh base64-encoded key suitable for NewCrypto
func GenerateKey() (string, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
