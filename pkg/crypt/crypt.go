package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyLength  = 32
	iterations = 100000
)

// ErrDecryptFailed reports ciphertext that could not be authenticated or
// decoded, including ciphertext produced under a different passphrase.
var ErrDecryptFailed = errors.New("crypt: decrypt failed")

// Cipher encrypts sensitive fields (employee display names) at rest with
// AES-256-GCM under a key derived from a passphrase via PBKDF2.
type Cipher struct {
	aead cipher.AEAD
}

// New derives a 256-bit key from passphrase and salt (PBKDF2, SHA-256,
// 100000 iterations) and returns a ready cipher.
func New(passphrase, salt string) (*Cipher, error) {
	if passphrase == "" {
		return nil, errors.New("crypt: passphrase is required")
	}

	key := pbkdf2.Key([]byte(passphrase), []byte(salt), iterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypt: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypt: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext and returns url-safe base64 of nonce||ciphertext.
// Empty input passes through empty.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("crypt: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Empty input passes through empty.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}

	sealed, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecryptFailed
	}
	if len(sealed) < c.aead.NonceSize() {
		return "", ErrDecryptFailed
	}

	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptFailed
	}

	return string(plaintext), nil
}

// MaskName masks a display name for log fields, keeping only the first
// character of each word (e.g. "John Doe" -> "J*** D**").
func MaskName(name string) string {
	if name == "" {
		return ""
	}

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		masked := string(runes[0]) + strings.Repeat("*", len(runes)-1)
		words[i] = masked
	}
	return strings.Join(words, " ")
}
