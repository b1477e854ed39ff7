package securetoken

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Version is the current wire format version tag.
const Version = "V2"

// Delimiter separates the token segments. It never appears inside a
// segment because both payload segments are standard base64.
const Delimiter = "|"

// CodeAlphabet is the character set for voucher codes. Visually
// ambiguous glyphs (0, O, I, 1) are excluded so codes survive manual entry.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the fixed length of a voucher code.
const CodeLength = 12

// Claims is the signed payload of a voucher token.
// Fields are declared in alphabetical key order so the JSON encoding is
// canonical: the same claims always serialize to the same bytes, which the
// signature depends on.
type Claims struct {
	Code         string    `json:"code"`
	CreatedAt    time.Time `json:"created_at"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	ExpiresAt    time.Time `json:"expires_at"`
	Version      string    `json:"version"`
}

// EncodeClaims serializes claims to their canonical JSON form.
func EncodeClaims(claims *Claims) ([]byte, error) {
	if claims == nil {
		return nil, fmt.Errorf("%w: nil claims", ErrMalformed)
	}
	data, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return data, nil
}

// DecodeClaims parses canonical claims JSON. Unknown fields are rejected
// rather than ignored to prevent confusion between format versions, and
// all fields are required.
func DecodeClaims(data []byte) (*Claims, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var claims Claims
	if err := decoder.Decode(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("%w: trailing data after claims", ErrMalformed)
	}

	switch {
	case claims.Code == "":
		return nil, fmt.Errorf("%w: missing code", ErrMalformed)
	case claims.EmployeeID == "":
		return nil, fmt.Errorf("%w: missing employee_id", ErrMalformed)
	case claims.EmployeeName == "":
		return nil, fmt.Errorf("%w: missing employee_name", ErrMalformed)
	case claims.CreatedAt.IsZero():
		return nil, fmt.Errorf("%w: missing created_at", ErrMalformed)
	case claims.ExpiresAt.IsZero():
		return nil, fmt.Errorf("%w: missing expires_at", ErrMalformed)
	case claims.Version == "":
		return nil, fmt.Errorf("%w: missing version", ErrMalformed)
	}

	return &claims, nil
}
