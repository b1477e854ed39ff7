package infrastructures

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/heyheylabs/bdvoucher-core/pkg/securetoken"
)

type AppConfig struct {
	DATABASE_URL   string
	REDIS_ADDRESS  string
	REDIS_PASSWORD string

	// VOUCHER_SECRET_KEY signs new tokens; VOUCHER_RETIRED_KEYS (comma
	// separated) stay acceptable for verification during key rotation.
	VOUCHER_SECRET_KEY   string
	VOUCHER_RETIRED_KEYS []string

	VOUCHER_VALIDITY_HOURS    int
	RATE_LIMIT_MAX_ATTEMPTS   int
	RATE_LIMIT_WINDOW_SECONDS int

	LEGACY_CODES_ENABLED bool
	LEGACY_CUTOFF        *time.Time

	ENCRYPTION_PASSWORD string
	ENCRYPTION_SALT     string
}

var Config *AppConfig

// LoadConfig reads configuration once at startup. A missing or too-short
// signing key, or any unparseable value, refuses startup: the engine must
// not run insecurely.
func LoadConfig() *AppConfig {
	godotenv.Load()

	Config = &AppConfig{
		DATABASE_URL:   os.Getenv("DATABASE_URL"),
		REDIS_ADDRESS:  os.Getenv("REDIS_ADDRESS"),
		REDIS_PASSWORD: os.Getenv("REDIS_PASSWORD"),

		VOUCHER_SECRET_KEY: os.Getenv("VOUCHER_SECRET_KEY"),

		VOUCHER_VALIDITY_HOURS:    getEnvInt("VOUCHER_VALIDITY_HOURS", 24),
		RATE_LIMIT_MAX_ATTEMPTS:   getEnvInt("RATE_LIMIT_MAX_ATTEMPTS", 10),
		RATE_LIMIT_WINDOW_SECONDS: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 3600),

		LEGACY_CODES_ENABLED: getEnvBool("LEGACY_CODES_ENABLED", true),

		ENCRYPTION_PASSWORD: os.Getenv("ENCRYPTION_PASSWORD"),
		ENCRYPTION_SALT:     os.Getenv("ENCRYPTION_SALT"),
	}

	if len(Config.VOUCHER_SECRET_KEY) < securetoken.MinKeyLength {
		logrus.Fatalf("VOUCHER_SECRET_KEY must be at least %d bytes", securetoken.MinKeyLength)
	}

	if retired := os.Getenv("VOUCHER_RETIRED_KEYS"); retired != "" {
		for _, key := range strings.Split(retired, ",") {
			key = strings.TrimSpace(key)
			if len(key) < securetoken.MinKeyLength {
				logrus.Fatalf("VOUCHER_RETIRED_KEYS entries must be at least %d bytes", securetoken.MinKeyLength)
			}
			Config.VOUCHER_RETIRED_KEYS = append(Config.VOUCHER_RETIRED_KEYS, key)
		}
	}

	if cutoff := os.Getenv("LEGACY_CUTOFF"); cutoff != "" {
		parsed, err := time.Parse(time.RFC3339, cutoff)
		if err != nil {
			logrus.Fatalf("LEGACY_CUTOFF must be RFC 3339: %v", err)
		}
		Config.LEGACY_CUTOFF = &parsed
	}

	return Config
}

func getEnvInt(name string, fallback int) int {
	value := os.Getenv(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logrus.Fatalf("%s must be an integer: %v", name, err)
	}
	return parsed
}

func getEnvBool(name string, fallback bool) bool {
	value := os.Getenv(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logrus.Fatalf("%s must be a boolean: %v", name, err)
	}
	return parsed
}
