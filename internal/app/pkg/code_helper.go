package pkg

import (
	"crypto/rand"

	"github.com/sirupsen/logrus"

	"github.com/heyheylabs/bdvoucher-core/pkg/securetoken"
)

// GenerateCode returns a fixed-length voucher code drawn uniformly from the
// restricted alphabet using crypto/rand. Entropy-source exhaustion is fatal:
// the process cannot safely continue issuing codes without it.
func GenerateCode() string {
	buf := make([]byte, securetoken.CodeLength)
	if _, err := rand.Read(buf); err != nil {
		logrus.Fatalf("failed to read entropy source: %v", err)
	}

	alphabet := securetoken.CodeAlphabet
	code := make([]byte, len(buf))
	for i, b := range buf {
		// 256 % 32 == 0, so modulo keeps the distribution uniform
		code[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(code)
}
