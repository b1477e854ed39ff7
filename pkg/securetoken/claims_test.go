package securetoken

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClaims() *Claims {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &Claims{
		Code:         "ABCDEFGH2345",
		CreatedAt:    created,
		EmployeeID:   "EMP001",
		EmployeeName: "John Doe",
		ExpiresAt:    created.Add(24 * time.Hour),
		Version:      Version,
	}
}

func TestEncodeClaimsCanonical(t *testing.T) {
	claims := testClaims()

	first, err := EncodeClaims(claims)
	require.NoError(t, err)
	second, err := EncodeClaims(claims)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	// Keys appear in alphabetical order in the canonical form.
	assert.Regexp(t, `^\{"code":.*"created_at":.*"employee_id":.*"employee_name":.*"expires_at":.*"version":.*\}$`, string(first))
}

func TestDecodeClaimsRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	codeGen := gen.SliceOfN(CodeLength, gen.RuneRange('A', 'H')).Map(func(rs []rune) string {
		return string(rs)
	})

	properties.Property("decode(encode(claims)) == claims", prop.ForAll(
		func(code string, employeeID string, employeeName string, createdUnix int64, validitySeconds int64) bool {
			created := time.Unix(createdUnix, 0).UTC()
			claims := &Claims{
				Code:         code,
				CreatedAt:    created,
				EmployeeID:   employeeID,
				EmployeeName: employeeName,
				ExpiresAt:    created.Add(time.Duration(validitySeconds) * time.Second),
				Version:      Version,
			}

			encoded, err := EncodeClaims(claims)
			if err != nil {
				return false
			}
			decoded, err := DecodeClaims(encoded)
			if err != nil {
				return false
			}
			return decoded.Code == claims.Code &&
				decoded.EmployeeID == claims.EmployeeID &&
				decoded.EmployeeName == claims.EmployeeName &&
				decoded.CreatedAt.Equal(claims.CreatedAt) &&
				decoded.ExpiresAt.Equal(claims.ExpiresAt) &&
				decoded.Version == claims.Version
		},
		codeGen,
		gen.Identifier(),
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
		gen.Int64Range(0, 4_000_000_000),
		gen.Int64Range(1, 86400*30),
	))

	properties.TestingRun(t)
}

func TestDecodeClaimsRejectsUnknownFields(t *testing.T) {
	payload := `{"code":"ABCDEFGH2345","created_at":"2025-06-01T12:00:00Z","employee_id":"EMP001",` +
		`"employee_name":"John Doe","expires_at":"2025-06-02T12:00:00Z","version":"V2","extra":"x"}`

	_, err := DecodeClaims([]byte(payload))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeClaimsRejectsMissingFields(t *testing.T) {
	cases := map[string]string{
		"missing code":       `{"created_at":"2025-06-01T12:00:00Z","employee_id":"EMP001","employee_name":"John Doe","expires_at":"2025-06-02T12:00:00Z","version":"V2"}`,
		"missing employee":   `{"code":"ABCDEFGH2345","created_at":"2025-06-01T12:00:00Z","employee_name":"John Doe","expires_at":"2025-06-02T12:00:00Z","version":"V2"}`,
		"missing expires_at": `{"code":"ABCDEFGH2345","created_at":"2025-06-01T12:00:00Z","employee_id":"EMP001","employee_name":"John Doe","version":"V2"}`,
		"missing version":    `{"code":"ABCDEFGH2345","created_at":"2025-06-01T12:00:00Z","employee_id":"EMP001","employee_name":"John Doe","expires_at":"2025-06-02T12:00:00Z"}`,
		"not json":           `not-json`,
		"trailing data":      `{"code":"ABCDEFGH2345","created_at":"2025-06-01T12:00:00Z","employee_id":"EMP001","employee_name":"John Doe","expires_at":"2025-06-02T12:00:00Z","version":"V2"}{}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeClaims([]byte(payload))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}
