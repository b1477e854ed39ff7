package securetoken

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Format classifies raw redemption input.
type Format string

const (
	// FormatToken is a full signed token: "V2|<claims>|<signature>".
	FormatToken Format = "TOKEN"
	// FormatBare is a bare 12-character code with no signature envelope,
	// as issued before signed tokens existed or typed in by hand.
	FormatBare Format = "BARE"
	// FormatUnknown is anything else.
	FormatUnknown Format = "UNKNOWN"
)

// DetectFormat classifies raw input without validating it.
func DetectFormat(raw string) Format {
	if strings.Contains(raw, Delimiter) {
		return FormatToken
	}
	if IsBareCode(raw) {
		return FormatBare
	}
	return FormatUnknown
}

// IsBareCode reports whether s is a plausible bare voucher code: fixed
// length, drawn entirely from the code alphabet.
func IsBareCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(CodeAlphabet, r) {
			return false
		}
	}
	return true
}

// Seal encodes and signs claims into the wire token
// "<version>|<base64 claims>|<base64 signature>". The signature covers the
// version tag and the base64 claims segment.
func (k *Keychain) Seal(claims *Claims) (string, error) {
	encoded, err := EncodeClaims(claims)
	if err != nil {
		return "", err
	}
	payload := base64.StdEncoding.EncodeToString(encoded)
	signature := k.Sign(Version, []byte(payload))
	return Version + Delimiter + payload + Delimiter + base64.StdEncoding.EncodeToString(signature), nil
}

// Open parses and verifies a wire token, returning its claims. The version
// tag is dispatched explicitly: an unrecognized tag is ErrUnsupportedVersion,
// never a best-effort parse. Signature verification happens before the
// claims payload is decoded, so tampered bytes are rejected as
// ErrInvalidSignature rather than as a parse failure.
func (k *Keychain) Open(token string) (*Claims, error) {
	parts := strings.Split(token, Delimiter)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(parts))
	}

	versionTag, payload, encodedSignature := parts[0], parts[1], parts[2]

	switch versionTag {
	case Version:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, versionTag)
	}

	signature, err := base64.StdEncoding.DecodeString(encodedSignature)
	if err != nil {
		return nil, fmt.Errorf("%w: bad signature encoding", ErrMalformed)
	}

	if !k.Verify(versionTag, []byte(payload), signature) {
		return nil, ErrInvalidSignature
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: bad claims encoding", ErrMalformed)
	}

	return DecodeClaims(decoded)
}
