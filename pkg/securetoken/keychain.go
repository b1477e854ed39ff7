package securetoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
)

// MinKeyLength is the minimum acceptable signing key length in bytes.
const MinKeyLength = 32

var (
	// ErrMalformed reports a structurally invalid token or claims payload.
	ErrMalformed = errors.New("securetoken: malformed token")
	// ErrUnsupportedVersion reports a version tag with no matching decoder.
	ErrUnsupportedVersion = errors.New("securetoken: unsupported version")
	// ErrInvalidSignature reports a signature that does not match the payload.
	ErrInvalidSignature = errors.New("securetoken: invalid signature")
	// ErrKeyTooShort reports a signing key below MinKeyLength.
	ErrKeyTooShort = errors.New("securetoken: signing key must be at least 32 bytes")
)

// Keychain signs with the current key and verifies against the current key
// plus any recently retired keys, enabling rotation without invalidating
// tokens issued under the previous key.
type Keychain struct {
	keys [][]byte
}

// NewKeychain builds a keychain. The current key is used for signing;
// retired keys remain acceptable for verification only. Every key must be
// at least MinKeyLength bytes.
func NewKeychain(current []byte, retired ...[]byte) (*Keychain, error) {
	keys := append([][]byte{current}, retired...)
	for _, key := range keys {
		if len(key) < MinKeyLength {
			return nil, ErrKeyTooShort
		}
	}
	return &Keychain{keys: keys}, nil
}

// Sign computes an HMAC-SHA256 signature over the version tag and encoded
// claims under the current key. The version tag is included so it is
// authenticated together with the claims.
func (k *Keychain) Sign(versionTag string, encodedClaims []byte) []byte {
	return sign(k.keys[0], versionTag, encodedClaims)
}

// Verify reports whether the signature matches the payload under any
// acceptable key. Comparison is constant time with respect to the secret.
func (k *Keychain) Verify(versionTag string, encodedClaims, signature []byte) bool {
	for _, key := range k.keys {
		expected := sign(key, versionTag, encodedClaims)
		if hmac.Equal(signature, expected) {
			return true
		}
	}
	return false
}

func sign(key []byte, versionTag string, encodedClaims []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(versionTag))
	mac.Write([]byte(Delimiter))
	mac.Write(encodedClaims)
	return mac.Sum(nil)
}
