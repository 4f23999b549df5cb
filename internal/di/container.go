package di

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/clickbazaar/api/internal/payments"
	"github.com/clickbazaar/api/internal/platform/config"
	"github.com/clickbazaar/api/internal/platform/observability"
	"github.com/clickbazaar/api/internal/repositories"
	"github.com/clickbazaar/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Orders     services.OrderService
	Payments   services.PaymentService
	Rewards    services.RewardService
	Catalog    services.CatalogService
	Categories services.CategoryService
	Support    services.SupportService
	System     services.SystemService
	Jobs       *services.BackgroundDispatcher
}

// Deps carries the infrastructure the container assembles services from.
type Deps struct {
	Config     config.Config
	Registry   repositories.Registry
	UnitOfWork repositories.UnitOfWork
	Gateways   *payments.Manager
	Logger     *zap.Logger
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring provides
// gorm-backed repositories, while tests can supply in-memory registries.
func NewContainer(deps Deps) (*Container, error) {
	if deps.Registry == nil {
		return nil, errors.New("di: repository registry is required")
	}
	if deps.UnitOfWork == nil {
		return nil, errors.New("di: unit of work is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	svc, err := buildServices(deps, logger)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       deps.Config,
		Repositories: deps.Registry,
		Services:     svc,
	}, nil
}

// Close drains background jobs and releases repository resources.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.Services.Jobs != nil {
		c.Services.Jobs.Wait()
	}
	if c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(deps Deps, logger *zap.Logger) (Services, error) {
	var svc Services
	cfg := deps.Config
	reg := deps.Registry

	svc.Jobs = services.NewBackgroundDispatcher(observability.EventLogger(logger.Named("jobs")))

	rewards, err := services.NewRewardService(services.RewardServiceDeps{
		Ledger:        reg.RewardPoints(),
		Rules:         reg.RewardRules(),
		UnitOfWork:    deps.UnitOfWork,
		Logger:        observability.EventLogger(logger.Named("rewards")),
		UnitsPerPoint: cfg.Rewards.UnitsPerPoint,
		ExpiryDays:    cfg.Rewards.ExpiryDays,
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: build reward service: %w", err)
	}
	svc.Rewards = rewards

	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:          reg.Orders(),
		Products:        reg.Products(),
		Users:           reg.Users(),
		Addresses:       reg.Addresses(),
		ShippingMethods: reg.ShippingMethods(),
		Rewards:         rewards,
		Dispatcher:      svc.Jobs,
		UnitOfWork:      deps.UnitOfWork,
		Logger:          observability.EventLogger(logger.Named("orders")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: build order service: %w", err)
	}
	svc.Orders = orders

	converter, err := services.NewCurrencyConverter(cfg.Payments.SettlementCurrency, cfg.Payments.ExchangeRates)
	if err != nil {
		return Services{}, fmt.Errorf("di: build currency converter: %w", err)
	}
	paymentsSvc, err := services.NewPaymentService(services.PaymentServiceDeps{
		Orders:           reg.Orders(),
		Payments:         reg.Payments(),
		Gateways:         deps.Gateways,
		Converter:        converter,
		UnitOfWork:       deps.UnitOfWork,
		Logger:           observability.EventLogger(logger.Named("payments")),
		AllowOverpayment: cfg.Payments.AllowOverpayment,
		GatewayTimeout:   cfg.Payments.GatewayTimeout,
		SuccessURL:       cfg.Payments.SuccessURL,
		CancelURL:        cfg.Payments.CancelURL,
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: build payment service: %w", err)
	}
	svc.Payments = paymentsSvc

	catalog, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products:        reg.Products(),
		Categories:      reg.Categories(),
		ShippingMethods: reg.ShippingMethods(),
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: build catalog service: %w", err)
	}
	svc.Catalog = catalog

	categories, err := services.NewCategoryService(services.CategoryServiceDeps{
		Categories: reg.Categories(),
		Logger:     observability.EventLogger(logger.Named("categories")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: build category service: %w", err)
	}
	svc.Categories = categories

	support, err := services.NewSupportService(services.SupportServiceDeps{
		Messages: reg.Support(),
		Logger:   observability.EventLogger(logger.Named("support")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: build support service: %w", err)
	}
	svc.Support = support

	system, err := services.NewSystemService(services.SystemServiceDeps{
		Health: reg.Health(),
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: build system service: %w", err)
	}
	svc.System = system

	return svc, nil
}
