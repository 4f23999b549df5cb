package repositories

import (
	"context"
	"time"

	"github.com/clickbazaar/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Users() UserRepository
	Addresses() AddressRepository
	Categories() CategoryRepository
	Products() ProductRepository
	ShippingMethods() ShippingMethodRepository
	Orders() OrderRepository
	Payments() PaymentRepository
	RewardPoints() RewardPointRepository
	RewardRules() RewardRuleRepository
	Support() SupportRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository persists buyer and admin accounts.
type UserRepository interface {
	Insert(ctx context.Context, user domain.User) error
	Update(ctx context.Context, user domain.User) error
	FindByID(ctx context.Context, userID string) (domain.User, error)
	// FindRegisteredByEmail matches only non-guest accounts; guest records
	// sharing the email are ignored so a returning guest gets a fresh record.
	FindRegisteredByEmail(ctx context.Context, email string) (domain.User, error)
}

// AddressRepository persists shipping and billing addresses.
type AddressRepository interface {
	Insert(ctx context.Context, address domain.Address) error
	FindByID(ctx context.Context, addressID string) (domain.Address, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Address, error)
}

// CategoryRepository persists the product category tree.
type CategoryRepository interface {
	Insert(ctx context.Context, category domain.Category) error
	Update(ctx context.Context, category domain.Category) error
	Delete(ctx context.Context, categoryID string) error
	FindByID(ctx context.Context, categoryID string) (domain.Category, error)
	FindBySlug(ctx context.Context, slug string) (domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	CountProducts(ctx context.Context, categoryID string) (int64, error)
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	CategoryID string
	Query      string
	MinPrice   *int64
	MaxPrice   *int64
	InStock    bool
}

// ProductRepository persists products and their variation combinations.
type ProductRepository interface {
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	// FindBatch loads the given products with combinations preloaded. Missing
	// IDs are simply absent from the result.
	FindBatch(ctx context.Context, productIDs []string) (map[string]domain.Product, error)
	List(ctx context.Context, filter ProductFilter, page domain.Pagination) (domain.Page[domain.Product], error)
	// DecrementCombinationStock atomically reduces stock for a variation
	// combination, failing when availability is insufficient.
	DecrementCombinationStock(ctx context.Context, combinationID string, quantity int) error
	// DecrementBaseStock atomically reduces base stock for an untracked product.
	DecrementBaseStock(ctx context.Context, productID string, quantity int) error
}

// ShippingMethodRepository persists the configured delivery options.
type ShippingMethodRepository interface {
	FindByID(ctx context.Context, methodID string) (domain.ShippingMethod, error)
	ListActive(ctx context.Context) ([]domain.ShippingMethod, error)
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID string
	Status domain.OrderStatus
}

// OrderRepository persists orders and their line items.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	// FindByIDForUpdate locks the order row for the duration of the
	// surrounding transaction so concurrent settlements serialize.
	FindByIDForUpdate(ctx context.Context, orderID string) (domain.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (domain.Order, error)
	List(ctx context.Context, filter OrderFilter, page domain.Pagination) (domain.Page[domain.Order], error)
}

// PaymentRepository persists settlement records against orders.
type PaymentRepository interface {
	Insert(ctx context.Context, payment domain.Payment) error
	ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error)
	SumByOrder(ctx context.Context, orderID string) (int64, error)
}

// RewardPointRepository persists the reward point ledger.
type RewardPointRepository interface {
	Insert(ctx context.Context, entry domain.RewardPointEntry) error
	// ActiveBalance sums unredeemed, unexpired positive entries minus redemptions.
	ActiveBalance(ctx context.Context, userID string, now time.Time) (int64, error)
	// ListRedeemable returns unused positive entries ordered by soonest expiry.
	ListRedeemable(ctx context.Context, userID string, now time.Time) ([]domain.RewardPointEntry, error)
	MarkUsed(ctx context.Context, entryIDs []string, usedOrderID string) error
	ListByUser(ctx context.Context, userID string, page domain.Pagination) (domain.Page[domain.RewardPointEntry], error)
}

// RewardRuleRepository persists per-product accrual rules.
type RewardRuleRepository interface {
	// FindActiveForProducts returns, per product, the highest priority rule
	// active at the given instant.
	FindActiveForProducts(ctx context.Context, productIDs []string, at time.Time) (map[string]domain.RewardRule, error)
}

// SupportThreadFilter narrows support inbox listings.
type SupportThreadFilter struct {
	UserID     string
	UnreadOnly bool
}

// SupportRepository persists support chat messages.
type SupportRepository interface {
	Insert(ctx context.Context, message domain.SupportMessage) error
	ListThread(ctx context.Context, userID string, page domain.Pagination) (domain.Page[domain.SupportMessage], error)
	ListThreads(ctx context.Context, filter SupportThreadFilter, page domain.Pagination) (domain.Page[domain.SupportThread], error)
	MarkRead(ctx context.Context, userID string, reader domain.SupportSender) error
}

// HealthRepository verifies connectivity with the backing store.
type HealthRepository interface {
	Check(ctx context.Context) error
}
