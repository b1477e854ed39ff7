//go:build wireinject
// +build wireinject

package injector

import (
	"github.com/google/wire"

	"github.com/heyheylabs/bdvoucher-core/internal/app/services"
	"github.com/heyheylabs/bdvoucher-core/internal/app/stores"
	"github.com/heyheylabs/bdvoucher-core/internal/infrastructures"
	"github.com/heyheylabs/bdvoucher-core/pkg/ratelimit"
)

// Application represents the main application container for bdvoucher-core
type Application struct {
	Vouchers *services.VoucherService
	Audit    *services.AuditService
}

// Infrastructure providers
var infrastructureSet = wire.NewSet(
	infrastructures.LoadConfig,
	infrastructures.NewDatabase,
	infrastructures.NewRedisClient,
	infrastructures.NewValidator,
	provideClock,
	provideKeychain,
	provideCipher,
	provideEngineOptions,
	wire.Bind(new(ratelimit.Limiter), new(*ratelimit.RedisLimiter)),
	provideLimiter,
	wire.Bind(new(stores.VoucherStore), new(*stores.GormVoucherStore)),
	stores.NewGormVoucherStore,
	wire.Bind(new(stores.EventStore), new(*stores.GormEventStore)),
	stores.NewGormEventStore,
)

// Service providers
var serviceSet = wire.NewSet(
	services.NewAuditService,
	services.NewVoucherService,
	wire.Struct(new(Application), "*"), // This tells Wire to build the Application struct
)

// InitializeApplication initializes the application with all its dependencies
func InitializeApplication() (*Application, error) {
	wire.Build(
		infrastructureSet,
		serviceSet,
	)
	return &Application{}, nil // Wire will populate the Application struct based on serviceSet
}
