// Package gormrepo implements the repository contracts on MySQL via gorm.
package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/clickbazaar/api/internal/platform/database"
	"github.com/clickbazaar/api/internal/repositories"
)

// Registry wires all gorm-backed repositories over a shared handle.
type Registry struct {
	db   *gorm.DB
	uow  *database.GormUnitOfWork
	deps deps
}

type deps struct {
	users           *UserRepository
	addresses       *AddressRepository
	categories      *CategoryRepository
	products        *ProductRepository
	shippingMethods *ShippingMethodRepository
	orders          *OrderRepository
	payments        *PaymentRepository
	rewardPoints    *RewardPointRepository
	rewardRules     *RewardRuleRepository
	support         *SupportRepository
	health          *HealthRepository
}

// NewRegistry constructs a Registry over the supplied gorm handle.
func NewRegistry(db *gorm.DB) (*Registry, error) {
	if db == nil {
		return nil, errors.New("gormrepo: db handle is required")
	}
	uow, err := database.NewUnitOfWork(db)
	if err != nil {
		return nil, fmt.Errorf("gormrepo: unit of work: %w", err)
	}
	return &Registry{
		db:  db,
		uow: uow,
		deps: deps{
			users:           &UserRepository{db: db},
			addresses:       &AddressRepository{db: db},
			categories:      &CategoryRepository{db: db},
			products:        &ProductRepository{db: db},
			shippingMethods: &ShippingMethodRepository{db: db},
			orders:          &OrderRepository{db: db},
			payments:        &PaymentRepository{db: db},
			rewardPoints:    &RewardPointRepository{db: db},
			rewardRules:     &RewardRuleRepository{db: db},
			support:         &SupportRepository{db: db},
			health:          &HealthRepository{db: db},
		},
	}, nil
}

// Close releases the underlying connection pool.
func (r *Registry) Close(context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("gormrepo: access pool: %w", err)
	}
	return sqlDB.Close()
}

// RunInTx implements repositories.UnitOfWork.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.uow.RunInTx(ctx, fn)
}

// Users implements repositories.Registry.
func (r *Registry) Users() repositories.UserRepository { return r.deps.users }

// Addresses implements repositories.Registry.
func (r *Registry) Addresses() repositories.AddressRepository { return r.deps.addresses }

// Categories implements repositories.Registry.
func (r *Registry) Categories() repositories.CategoryRepository { return r.deps.categories }

// Products implements repositories.Registry.
func (r *Registry) Products() repositories.ProductRepository { return r.deps.products }

// ShippingMethods implements repositories.Registry.
func (r *Registry) ShippingMethods() repositories.ShippingMethodRepository {
	return r.deps.shippingMethods
}

// Orders implements repositories.Registry.
func (r *Registry) Orders() repositories.OrderRepository { return r.deps.orders }

// Payments implements repositories.Registry.
func (r *Registry) Payments() repositories.PaymentRepository { return r.deps.payments }

// RewardPoints implements repositories.Registry.
func (r *Registry) RewardPoints() repositories.RewardPointRepository { return r.deps.rewardPoints }

// RewardRules implements repositories.Registry.
func (r *Registry) RewardRules() repositories.RewardRuleRepository { return r.deps.rewardRules }

// Support implements repositories.Registry.
func (r *Registry) Support() repositories.SupportRepository { return r.deps.support }

// Health implements repositories.Registry.
func (r *Registry) Health() repositories.HealthRepository { return r.deps.health }
