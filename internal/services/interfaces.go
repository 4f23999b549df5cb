package services

import (
	"context"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/repositories"
)

// Logger is the event logging contract shared by all services.
type Logger func(ctx context.Context, event string, fields map[string]any)

// JobDispatcher runs best-effort work decoupled from the caller's result.
type JobDispatcher interface {
	Dispatch(ctx context.Context, name string, job func(ctx context.Context) error)
}

// GuestContact carries the identifying fields a guest submits at checkout.
type GuestContact struct {
	FullName string
	Email    string
	MobileNo string
}

// Buyer is the unified purchaser variant: an authenticated account or a guest
// identified by contact details only.
type Buyer struct {
	userID string
	guest  *GuestContact
}

// AuthenticatedBuyer constructs the authenticated variant.
func AuthenticatedBuyer(userID string) Buyer {
	return Buyer{userID: userID}
}

// GuestBuyer constructs the guest variant.
func GuestBuyer(contact GuestContact) Buyer {
	return Buyer{guest: &contact}
}

// Authenticated reports whether the buyer carries an account id.
func (b Buyer) Authenticated() bool {
	return b.userID != ""
}

// UserID returns the account id for authenticated buyers.
func (b Buyer) UserID() string {
	return b.userID
}

// Guest returns the contact details for guest buyers.
func (b Buyer) Guest() (GuestContact, bool) {
	if b.guest == nil {
		return GuestContact{}, false
	}
	return *b.guest, true
}

// CartLine is one product/variation/quantity entry submitted at checkout.
type CartLine struct {
	ProductID string
	Quantity  int
	// VariationCombinationID is nil for descriptive-only variations and for
	// products without variations; those lines track the product base stock.
	VariationCombinationID *string
}

// GuestAddressInput is the free-form address a guest submits.
type GuestAddressInput struct {
	AddressLine string
	City        string
}

// PlaceOrderCommand captures everything needed to create an order.
type PlaceOrderCommand struct {
	Buyer            Buyer
	Items            []CartLine
	ShippingMethodID string

	// Authenticated buyers reference saved addresses.
	ShippingAddressID string
	BillingAddressID  string

	// Guests submit raw addresses; a nil billing address reuses shipping.
	GuestShippingAddress *GuestAddressInput
	GuestBillingAddress  *GuestAddressInput

	// RedeemPoints > 0 applies a reward discount of that many minor units.
	RedeemPoints int
}

// OrderService creates orders and exposes order history.
type OrderService interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (domain.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (domain.Order, error)
	ListOrders(ctx context.Context, userID string, status domain.OrderStatus, page domain.Pagination) (domain.Page[domain.Order], error)
}

// AccrualCommand asks the ledger to credit points for a committed order.
type AccrualCommand struct {
	OrderID     string
	UserID      string
	TotalAmount int64
	Items       []domain.OrderItem
}

// RedemptionCommand asks the ledger to consume points against an order.
type RedemptionCommand struct {
	OrderID string
	UserID  string
	Points  int
}

// RewardSummary is the customer-facing points view.
type RewardSummary struct {
	AvailablePoints int64
	History         domain.Page[domain.RewardPointEntry]
}

// RewardService maintains the reward point ledger.
type RewardService interface {
	AccrueForOrder(ctx context.Context, cmd AccrualCommand) (int, error)
	RecordRedemption(ctx context.Context, cmd RedemptionCommand) error
	AvailableBalance(ctx context.Context, userID string) (int64, error)
	Summary(ctx context.Context, userID string, page domain.Pagination) (RewardSummary, error)
}

// DirectPaymentCommand records an immediate manual settlement.
type DirectPaymentCommand struct {
	OrderID         string
	Amount          int64
	DisplayCurrency string
	Method          string
}

// InitiatePaymentCommand starts a gateway checkout session.
type InitiatePaymentCommand struct {
	OrderID         string
	Amount          int64
	DisplayCurrency string
	Method          string
	IdempotencyKey  string
}

// PaymentSession is the redirect instruction returned for gateway methods.
type PaymentSession struct {
	SessionID   string
	Provider    string
	RedirectURL string
	Amount      int64
	Currency    string
}

// PaymentService settles orders across manual and gateway methods.
type PaymentService interface {
	RecordDirectPayment(ctx context.Context, cmd DirectPaymentCommand) (domain.Payment, error)
	InitiateGatewayPayment(ctx context.Context, cmd InitiatePaymentCommand) (PaymentSession, error)
	RemainingAmount(ctx context.Context, orderID string) (int64, error)
	ListPayments(ctx context.Context, orderID string) ([]domain.Payment, error)
}

// ProductQuery narrows catalog listings.
type ProductQuery struct {
	CategoryID string
	Search     string
	MinPrice   *int64
	MaxPrice   *int64
	InStock    bool
	Page       domain.Pagination
}

// CatalogService exposes public product browsing.
type CatalogService interface {
	ListProducts(ctx context.Context, query ProductQuery) (domain.Page[domain.Product], error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListShippingMethods(ctx context.Context) ([]domain.ShippingMethod, error)
}

// CategoryInput carries admin create/update fields.
type CategoryInput struct {
	Name     string
	Slug     string
	ParentID *string
}

// CategoryService is the admin-facing category CRUD surface.
type CategoryService interface {
	Create(ctx context.Context, input CategoryInput) (domain.Category, error)
	Update(ctx context.Context, categoryID string, input CategoryInput) (domain.Category, error)
	Delete(ctx context.Context, categoryID string) error
	Get(ctx context.Context, categoryID string) (domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

// SendMessageCommand posts one support chat message.
type SendMessageCommand struct {
	UserID string
	Sender domain.SupportSender
	Body   string
}

// SupportService is the support chat surface for customers and agents.
type SupportService interface {
	SendMessage(ctx context.Context, cmd SendMessageCommand) (domain.SupportMessage, error)
	Thread(ctx context.Context, userID string, reader domain.SupportSender, page domain.Pagination) (domain.Page[domain.SupportMessage], error)
	Inbox(ctx context.Context, filter repositories.SupportThreadFilter, page domain.Pagination) (domain.Page[domain.SupportThread], error)
}

// SystemService reports process health.
type SystemService interface {
	Ready(ctx context.Context) error
}
