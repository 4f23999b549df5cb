package domain

import (
	"time"
)

// OrderStatus enumerates the lifecycle states of an order.
type OrderStatus string

const (
	OrderStatusPending     OrderStatus = "PENDING"
	OrderStatusProcessing  OrderStatus = "PROCESSING"
	OrderStatusPartialPaid OrderStatus = "PARTIAL_PAID"
	OrderStatusPaid        OrderStatus = "PAID"
	OrderStatusShipped     OrderStatus = "SHIPPED"
	OrderStatusDelivered   OrderStatus = "DELIVERED"
	OrderStatusCancelled   OrderStatus = "CANCELLED"
)

// AddressType distinguishes shipping from billing rows.
type AddressType string

const (
	AddressTypeShipping AddressType = "shipping"
	AddressTypeBilling  AddressType = "billing"
)

// SupportSender identifies which side of a support thread authored a message.
type SupportSender string

const (
	SupportSenderCustomer SupportSender = "customer"
	SupportSenderAgent    SupportSender = "agent"
)

// User is a purchasing account. Guest checkouts create rows flagged IsGuest;
// guest rows are never matched when resolving a buyer by email.
type User struct {
	ID        string    `gorm:"primaryKey;size:40" json:"id"`
	Email     string    `gorm:"size:255;index" json:"email"`
	FullName  string    `gorm:"size:255" json:"fullName"`
	MobileNo  string    `gorm:"size:32" json:"mobileNo"`
	IsGuest   bool      `gorm:"index" json:"isGuest"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

// Category is an admin-managed product grouping.
type Category struct {
	ID        string    `gorm:"primaryKey;size:40" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	Slug      string    `gorm:"size:255;uniqueIndex" json:"slug"`
	ParentID  *string   `gorm:"size:40;index" json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Product is a purchasable item. BaseStockQuantity tracks inventory for lines
// without their own variation-combination stock pool.
type Product struct {
	ID                string                 `gorm:"primaryKey;size:40" json:"id"`
	Name              string                 `gorm:"size:255" json:"name"`
	Description       string                 `gorm:"type:text" json:"description"`
	CategoryID        *string                `gorm:"size:40;index" json:"categoryId,omitempty"`
	BasePrice         int64                  `json:"basePrice"`
	BaseStockQuantity int                    `json:"baseStockQuantity"`
	Combinations      []VariationCombination `gorm:"foreignKey:ProductID" json:"combinations,omitempty"`
	CreatedAt         time.Time              `json:"createdAt"`
	UpdatedAt         time.Time              `json:"updatedAt"`
}

// VariationCombination is a concrete purchasable SKU (up to three axes) with
// its own price and stock pool, independent of the product's base stock.
type VariationCombination struct {
	ID            string `gorm:"primaryKey;size:40" json:"id"`
	ProductID     string `gorm:"size:40;index" json:"productId"`
	Price         int64  `json:"price"`
	OfferPrice    *int64 `json:"offerPrice,omitempty"`
	StockQuantity int    `json:"stockQuantity"`
	Axis1         string `gorm:"size:120" json:"axis1"`
	Axis2         string `gorm:"size:120" json:"axis2"`
	Axis3         string `gorm:"size:120" json:"axis3"`
}

// Label renders the axes as a human readable variation label.
func (v VariationCombination) Label() string {
	label := v.Axis1
	if v.Axis2 != "" {
		label += " / " + v.Axis2
	}
	if v.Axis3 != "" {
		label += " / " + v.Axis3
	}
	return label
}

// Address is owned by a user, or by no one when created for a guest order.
// Guest rows are excluded from address listings and never mutated after the
// order that created them.
type Address struct {
	ID                string      `gorm:"primaryKey;size:40" json:"id"`
	UserID            *string     `gorm:"size:40;index" json:"userId,omitempty"`
	FullName          string      `gorm:"size:255" json:"fullName"`
	MobileNo          string      `gorm:"size:32" json:"mobileNo"`
	AddressLine       string      `gorm:"size:512" json:"addressLine"`
	City              string      `gorm:"size:120" json:"city"`
	IsGuest           bool        `gorm:"index" json:"isGuest"`
	IsDefaultShipping bool        `json:"isDefaultShipping"`
	IsDefaultBilling  bool        `json:"isDefaultBilling"`
	AddressType       AddressType `gorm:"size:16" json:"addressType"`
	CreatedAt         time.Time   `json:"createdAt"`
}

// ShippingMethod is a named delivery option with a flat base cost.
type ShippingMethod struct {
	ID       string `gorm:"primaryKey;size:40" json:"id"`
	Name     string `gorm:"size:120" json:"name"`
	BaseCost int64  `json:"baseCost"`
	Active   bool   `json:"active"`
}

// Order is created atomically with its items and is immutable afterwards
// except for Status and payment linkage. Amounts are minor currency units.
type Order struct {
	ID                 string      `gorm:"primaryKey;size:40" json:"id"`
	OrderNumber        string      `gorm:"size:40;uniqueIndex" json:"orderNumber"`
	UserID             string      `gorm:"size:40;index" json:"userId"`
	OrderDate          time.Time   `json:"orderDate"`
	Subtotal           int64       `json:"subtotal"`
	ShippingCharge     int64       `json:"shippingCharge"`
	RewardDiscount     int64       `json:"rewardDiscount"`
	TotalAmount        int64       `json:"totalAmount"`
	Status             OrderStatus `gorm:"size:16;index" json:"status"`
	ShippingAddressID  string      `gorm:"size:40" json:"shippingAddressId"`
	BillingAddressID   string      `gorm:"size:40" json:"billingAddressId"`
	ShippingMethodName string      `gorm:"size:120" json:"shippingMethodName"`
	Items              []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Payments           []Payment   `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// OrderItem belongs to exactly one order and is never mutated once written.
type OrderItem struct {
	ID                     string  `gorm:"primaryKey;size:40" json:"id"`
	OrderID                string  `gorm:"size:40;index" json:"orderId"`
	ProductID              string  `gorm:"size:40;index" json:"productId"`
	Quantity               int     `json:"quantity"`
	ItemPrice              int64   `json:"itemPrice"`
	VariationCombinationID *string `gorm:"size:40" json:"variationCombinationId,omitempty"`
	VariationLabel         string  `gorm:"size:400" json:"variationLabel,omitempty"`
}

// RewardPointEntry is a signed ledger row. Positive rows are earnings with an
// expiry; negative rows record a redemption against an order. Rows are
// appended, never deleted; consumption flips IsUsed and sets UsedOrderID.
type RewardPointEntry struct {
	ID          string    `gorm:"primaryKey;size:40" json:"id"`
	UserID      string    `gorm:"size:40;index" json:"userId"`
	OrderID     *string   `gorm:"size:40;index" json:"orderId,omitempty"`
	Points      int       `json:"points"`
	EarnedDate  time.Time `json:"earnedDate"`
	ExpiryDate  time.Time `json:"expiryDate"`
	IsUsed      bool      `gorm:"index" json:"isUsed"`
	UsedOrderID *string   `gorm:"size:40" json:"usedOrderId,omitempty"`
}

// RewardRule attaches a per-unit point bonus to a product. When several rules
// are active for the same product the highest Priority wins.
type RewardRule struct {
	ID            string     `gorm:"primaryKey;size:40" json:"id"`
	ProductID     string     `gorm:"size:40;index" json:"productId"`
	PointsPerUnit int        `json:"pointsPerUnit"`
	Priority      int        `json:"priority"`
	Active        bool       `json:"active"`
	StartsAt      *time.Time `json:"startsAt,omitempty"`
	EndsAt        *time.Time `json:"endsAt,omitempty"`
}

// Payment is an append-only settlement record. An order may carry several
// partial payments; gateway callbacks update the order status but never
// delete a payment.
type Payment struct {
	ID            string    `gorm:"primaryKey;size:40" json:"id"`
	OrderID       string    `gorm:"size:40;index" json:"orderId"`
	PaymentMethod string    `gorm:"size:32" json:"paymentMethod"`
	PaymentAmount int64     `json:"paymentAmount"`
	PaymentDate   time.Time `json:"paymentDate"`
	TransactionID *string   `gorm:"size:120" json:"transactionId,omitempty"`
}

// SupportMessage is one message in a user's support thread.
type SupportMessage struct {
	ID        string        `gorm:"primaryKey;size:40" json:"id"`
	UserID    string        `gorm:"size:40;index" json:"userId"`
	Sender    SupportSender `gorm:"size:16" json:"sender"`
	Body      string        `gorm:"type:text" json:"body"`
	IsRead    bool          `json:"isRead"`
	CreatedAt time.Time     `json:"createdAt"`
}

// SupportThread is the inbox projection of one user's conversation: the
// latest message plus how many user messages an admin has not read yet.
type SupportThread struct {
	UserID        string        `json:"userId"`
	UserEmail     string        `json:"userEmail"`
	UserFullName  string        `json:"userFullName"`
	LastMessage   string        `json:"lastMessage"`
	LastSender    SupportSender `json:"lastSender"`
	LastMessageAt time.Time     `json:"lastMessageAt"`
	UnreadCount   int64         `json:"unreadCount"`
}

// Page is an offset-paginated result set.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

// Pagination carries offset paging parameters through repositories.
type Pagination struct {
	Page     int
	PageSize int
}

// Offset converts the page number into a row offset.
func (p Pagination) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}
