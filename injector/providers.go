package injector

import (
	"time"

	"github.com/redis/go-redis/v9"

	pkghelpers "github.com/heyheylabs/bdvoucher-core/internal/app/pkg"
	"github.com/heyheylabs/bdvoucher-core/internal/app/services"
	"github.com/heyheylabs/bdvoucher-core/internal/infrastructures"
	"github.com/heyheylabs/bdvoucher-core/pkg/crypt"
	"github.com/heyheylabs/bdvoucher-core/pkg/ratelimit"
	"github.com/heyheylabs/bdvoucher-core/pkg/securetoken"
)

func provideClock() pkghelpers.Clock {
	return pkghelpers.NewSystemClock()
}

func provideKeychain(config *infrastructures.AppConfig) (*securetoken.Keychain, error) {
	retired := make([][]byte, 0, len(config.VOUCHER_RETIRED_KEYS))
	for _, key := range config.VOUCHER_RETIRED_KEYS {
		retired = append(retired, []byte(key))
	}
	return securetoken.NewKeychain([]byte(config.VOUCHER_SECRET_KEY), retired...)
}

func provideCipher(config *infrastructures.AppConfig) (*crypt.Cipher, error) {
	if config.ENCRYPTION_PASSWORD == "" {
		// Names stored in plaintext when at-rest encryption is not configured.
		return nil, nil
	}
	return crypt.New(config.ENCRYPTION_PASSWORD, config.ENCRYPTION_SALT)
}

func provideLimiter(client *redis.Client, config *infrastructures.AppConfig) *ratelimit.RedisLimiter {
	rate := ratelimit.Rate{
		Attempts: config.RATE_LIMIT_MAX_ATTEMPTS,
		Window:   time.Duration(config.RATE_LIMIT_WINDOW_SECONDS) * time.Second,
	}
	return ratelimit.NewRedisLimiter(client, "bdvoucher", rate)
}

func provideEngineOptions(config *infrastructures.AppConfig) services.EngineOptions {
	return services.EngineOptions{
		DefaultValidity:    time.Duration(config.VOUCHER_VALIDITY_HOURS) * time.Hour,
		LegacyCodesEnabled: config.LEGACY_CODES_ENABLED,
		LegacyCutoff:       config.LEGACY_CUTOFF,
	}
}
