package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/repositories"
)

const (
	orderEventCreated        = "order.created"
	orderEventRewardDispatch = "order.reward.dispatched"

	orderIDPrefix     = "ord_"
	orderItemIDPrefix = "itm_"
	addressIDPrefix   = "adr_"
	userIDPrefix      = "usr_"
	orderNumberPrefix = "CB-"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrProductNotFound indicates a cart line references an unknown product.
	ErrProductNotFound = errors.New("order: product not found")
	// ErrVariationNotFound indicates a cart line references an unknown variation combination.
	ErrVariationNotFound = errors.New("order: variation combination not found")
	// ErrInsufficientStock indicates requested quantity exceeds availability.
	ErrInsufficientStock = errors.New("order: insufficient stock")
	// ErrAddressNotFound indicates a referenced address is absent or owned by someone else.
	ErrAddressNotFound = errors.New("order: address not found")
	// ErrInvalidShippingMethod indicates the chosen shipping method is unknown or inactive.
	ErrInvalidShippingMethod = errors.New("order: invalid shipping method")
	// ErrOrderCreationFailed wraps transactional failures during order creation.
	ErrOrderCreationFailed = errors.New("order: creation failed")
)

// stockTargetKind discriminates the StockTarget variant.
type stockTargetKind int

const (
	variationTracked stockTargetKind = iota
	productTracked
)

// StockTarget is the per-line inventory pool resolved once at validation
// time: either a variation combination with its own stock, or the parent
// product's base stock for descriptive-only and variation-less lines.
type StockTarget struct {
	kind          stockTargetKind
	combinationID string
	productID     string
}

// VariationTracked constructs the combination-tracked variant.
func VariationTracked(combinationID string) StockTarget {
	return StockTarget{kind: variationTracked, combinationID: combinationID}
}

// ProductTracked constructs the base-stock variant.
func ProductTracked(productID string) StockTarget {
	return StockTarget{kind: productTracked, productID: productID}
}

// resolvedLine couples a cart line with its pricing and stock resolution.
type resolvedLine struct {
	line      CartLine
	product   domain.Product
	target    StockTarget
	unitPrice int64
	label     string
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders          repositories.OrderRepository
	Products        repositories.ProductRepository
	Users           repositories.UserRepository
	Addresses       repositories.AddressRepository
	ShippingMethods repositories.ShippingMethodRepository
	Rewards         RewardService
	Dispatcher      JobDispatcher
	UnitOfWork      repositories.UnitOfWork
	Clock           func() time.Time
	IDGenerator     func() string
	Logger          Logger
}

type orderService struct {
	orders          repositories.OrderRepository
	products        repositories.ProductRepository
	users           repositories.UserRepository
	addresses       repositories.AddressRepository
	shippingMethods repositories.ShippingMethodRepository
	rewards         RewardService
	dispatcher      JobDispatcher
	unitOfWork      repositories.UnitOfWork
	clock           func() time.Time
	newID           func() string
	logger          Logger
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("order service: product repository is required")
	}
	if deps.Users == nil {
		return nil, errors.New("order service: user repository is required")
	}
	if deps.Addresses == nil {
		return nil, errors.New("order service: address repository is required")
	}
	if deps.ShippingMethods == nil {
		return nil, errors.New("order service: shipping method repository is required")
	}
	if deps.UnitOfWork == nil {
		return nil, errors.New("order service: unit of work is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &orderService{
		orders:          deps.Orders,
		products:        deps.Products,
		users:           deps.Users,
		addresses:       deps.Addresses,
		shippingMethods: deps.ShippingMethods,
		rewards:         deps.Rewards,
		dispatcher:      deps.Dispatcher,
		unitOfWork:      deps.UnitOfWork,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

// PlaceOrder validates the cart, then creates the order header, items, guest
// rows, and variation stock decrements in one transaction. Reward accrual and
// redemption run after commit and never fail the order.
func (s *orderService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (domain.Order, error) {
	if err := validatePlaceOrder(cmd); err != nil {
		return domain.Order{}, err
	}

	lines, subtotal, err := s.resolveLines(ctx, cmd.Items)
	if err != nil {
		return domain.Order{}, err
	}

	method, err := s.shippingMethods.FindByID(ctx, cmd.ShippingMethodID)
	if err != nil {
		if isNotFound(err) {
			return domain.Order{}, fmt.Errorf("%w: %s", ErrInvalidShippingMethod, cmd.ShippingMethodID)
		}
		return domain.Order{}, fmt.Errorf("%w: load shipping method: %v", ErrOrderCreationFailed, err)
	}
	if !method.Active {
		return domain.Order{}, fmt.Errorf("%w: %s is inactive", ErrInvalidShippingMethod, method.ID)
	}

	rewardDiscount := int64(0)
	if cmd.RedeemPoints > 0 {
		if !cmd.Buyer.Authenticated() {
			return domain.Order{}, fmt.Errorf("%w: guests cannot redeem reward points", ErrOrderInvalidInput)
		}
		if s.rewards == nil {
			return domain.Order{}, fmt.Errorf("%w: reward redemption is not configured", ErrOrderInvalidInput)
		}
		balance, err := s.rewards.AvailableBalance(ctx, cmd.Buyer.UserID())
		if err != nil {
			return domain.Order{}, fmt.Errorf("%w: load reward balance: %v", ErrOrderCreationFailed, err)
		}
		if int64(cmd.RedeemPoints) > balance {
			return domain.Order{}, fmt.Errorf("%w: requested %d, available %d", ErrRedemptionExceedsBalance, cmd.RedeemPoints, balance)
		}
		rewardDiscount = int64(cmd.RedeemPoints)
	}

	now := s.clock()
	total := subtotal + method.BaseCost - rewardDiscount
	if total < 0 {
		total = 0
	}

	var order domain.Order
	err = s.unitOfWork.RunInTx(ctx, func(ctx context.Context) error {
		buyerID, err := s.resolveBuyer(ctx, cmd.Buyer, now)
		if err != nil {
			return err
		}
		shippingID, billingID, err := s.resolveAddresses(ctx, cmd, buyerID, now)
		if err != nil {
			return err
		}

		orderID := orderIDPrefix + s.newID()
		items := make([]domain.OrderItem, 0, len(lines))
		for _, resolved := range lines {
			items = append(items, domain.OrderItem{
				ID:                     orderItemIDPrefix + s.newID(),
				OrderID:                orderID,
				ProductID:              resolved.product.ID,
				Quantity:               resolved.line.Quantity,
				ItemPrice:              resolved.unitPrice,
				VariationCombinationID: resolved.line.VariationCombinationID,
				VariationLabel:         resolved.label,
			})
		}

		order = domain.Order{
			ID:                 orderID,
			OrderNumber:        orderNumberPrefix + s.newID(),
			UserID:             buyerID,
			OrderDate:          now,
			Subtotal:           subtotal,
			ShippingCharge:     method.BaseCost,
			RewardDiscount:     rewardDiscount,
			TotalAmount:        total,
			Status:             domain.OrderStatusPending,
			ShippingAddressID:  shippingID,
			BillingAddressID:   billingID,
			ShippingMethodName: method.Name,
			Items:              items,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := s.orders.Insert(ctx, order); err != nil {
			return fmt.Errorf("%w: insert order: %v", ErrOrderCreationFailed, err)
		}

		for _, resolved := range lines {
			if resolved.target.kind != variationTracked {
				continue
			}
			err := s.products.DecrementCombinationStock(ctx, resolved.target.combinationID, resolved.line.Quantity)
			if err != nil {
				if isConflict(err) {
					return fmt.Errorf("%w: variation %s", ErrInsufficientStock, resolved.target.combinationID)
				}
				return fmt.Errorf("%w: decrement stock: %v", ErrOrderCreationFailed, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrAddressNotFound) ||
			errors.Is(err, ErrOrderInvalidInput) || errors.Is(err, ErrOrderCreationFailed) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("%w: %v", ErrOrderCreationFailed, err)
	}

	s.logger(ctx, orderEventCreated, map[string]any{
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"userId":      order.UserID,
		"total":       order.TotalAmount,
		"guest":       !cmd.Buyer.Authenticated(),
	})

	s.dispatchRewards(ctx, cmd, order)
	return order, nil
}

// dispatchRewards hands accrual and redemption to the background dispatcher.
// Guests earn nothing; redemption only runs when requested at checkout.
func (s *orderService) dispatchRewards(ctx context.Context, cmd PlaceOrderCommand, order domain.Order) {
	if s.rewards == nil || s.dispatcher == nil || !cmd.Buyer.Authenticated() {
		return
	}

	userID := cmd.Buyer.UserID()
	if cmd.RedeemPoints > 0 {
		points := cmd.RedeemPoints
		s.dispatcher.Dispatch(ctx, "reward.redeem", func(ctx context.Context) error {
			return s.rewards.RecordRedemption(ctx, RedemptionCommand{
				OrderID: order.ID,
				UserID:  userID,
				Points:  points,
			})
		})
	}
	s.dispatcher.Dispatch(ctx, "reward.accrue", func(ctx context.Context) error {
		_, err := s.rewards.AccrueForOrder(ctx, AccrualCommand{
			OrderID:     order.ID,
			UserID:      userID,
			TotalAmount: order.TotalAmount,
			Items:       order.Items,
		})
		return err
	})

	s.logger(ctx, orderEventRewardDispatch, map[string]any{
		"orderId": order.ID,
		"userId":  userID,
	})
}

// resolveLines batch-fetches products and resolves each line's price, label,
// and stock target, failing fast on the first invalid line. Base-stock lines
// are checked here; variation-tracked lines defer to the conditional
// decrement inside the transaction.
func (s *orderService) resolveLines(ctx context.Context, items []CartLine) ([]resolvedLine, int64, error) {
	productIDs := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, line := range items {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		productIDs = append(productIDs, line.ProductID)
	}

	batch, err := s.products.FindBatch(ctx, productIDs)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: load products: %v", ErrOrderCreationFailed, err)
	}

	resolved := make([]resolvedLine, 0, len(items))
	var subtotal int64
	for _, line := range items {
		product, ok := batch[line.ProductID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
		}

		entry := resolvedLine{line: line, product: product}
		if line.VariationCombinationID != nil {
			combination, ok := findCombination(product, *line.VariationCombinationID)
			if !ok {
				return nil, 0, fmt.Errorf("%w: %s", ErrVariationNotFound, *line.VariationCombinationID)
			}
			if combination.StockQuantity < line.Quantity {
				return nil, 0, fmt.Errorf("%w: variation %s has %d available", ErrInsufficientStock, combination.ID, combination.StockQuantity)
			}
			entry.target = VariationTracked(combination.ID)
			entry.unitPrice = combination.Price
			if combination.OfferPrice != nil && *combination.OfferPrice > 0 {
				entry.unitPrice = *combination.OfferPrice
			}
			entry.label = combination.Label()
		} else {
			if product.BaseStockQuantity < line.Quantity {
				return nil, 0, fmt.Errorf("%w: product %s has %d available", ErrInsufficientStock, product.ID, product.BaseStockQuantity)
			}
			entry.target = ProductTracked(product.ID)
			entry.unitPrice = product.BasePrice
		}

		subtotal += entry.unitPrice * int64(line.Quantity)
		resolved = append(resolved, entry)
	}
	return resolved, subtotal, nil
}

// resolveBuyer returns the purchasing account id. Guest emails match only
// registered accounts; prior guest rows are never reused so strangers'
// orders cannot merge.
func (s *orderService) resolveBuyer(ctx context.Context, buyer Buyer, now time.Time) (string, error) {
	if buyer.Authenticated() {
		user, err := s.users.FindByID(ctx, buyer.UserID())
		if err != nil {
			if isNotFound(err) {
				return "", fmt.Errorf("%w: unknown user %s", ErrOrderInvalidInput, buyer.UserID())
			}
			return "", fmt.Errorf("%w: load user: %v", ErrOrderCreationFailed, err)
		}
		return user.ID, nil
	}

	contact, _ := buyer.Guest()
	email := strings.ToLower(strings.TrimSpace(contact.Email))
	existing, err := s.users.FindRegisteredByEmail(ctx, email)
	if err == nil {
		return existing.ID, nil
	}
	if !isNotFound(err) {
		return "", fmt.Errorf("%w: look up buyer: %v", ErrOrderCreationFailed, err)
	}

	guest := domain.User{
		ID:        userIDPrefix + s.newID(),
		Email:     email,
		FullName:  contact.FullName,
		MobileNo:  contact.MobileNo,
		IsGuest:   true,
		CreatedAt: now,
	}
	if err := s.users.Insert(ctx, guest); err != nil {
		return "", fmt.Errorf("%w: create guest user: %v", ErrOrderCreationFailed, err)
	}
	return guest.ID, nil
}

// resolveAddresses returns shipping and billing address ids. Authenticated
// buyers must own referenced rows; guests get fresh flagged rows, with the
// shipping row reused when billing is absent or identical.
func (s *orderService) resolveAddresses(ctx context.Context, cmd PlaceOrderCommand, buyerID string, now time.Time) (string, string, error) {
	if cmd.Buyer.Authenticated() {
		shipping, err := s.ownedAddress(ctx, cmd.ShippingAddressID, cmd.Buyer.UserID())
		if err != nil {
			return "", "", err
		}
		billingID := cmd.BillingAddressID
		if billingID == "" || billingID == shipping.ID {
			return shipping.ID, shipping.ID, nil
		}
		billing, err := s.ownedAddress(ctx, billingID, cmd.Buyer.UserID())
		if err != nil {
			return "", "", err
		}
		return shipping.ID, billing.ID, nil
	}

	contact, _ := cmd.Buyer.Guest()
	shipping, err := s.insertGuestAddress(ctx, *cmd.GuestShippingAddress, contact, buyerID, domain.AddressTypeShipping, now)
	if err != nil {
		return "", "", err
	}
	billingInput := cmd.GuestBillingAddress
	if billingInput == nil || sameGuestAddress(*cmd.GuestShippingAddress, *billingInput) {
		return shipping.ID, shipping.ID, nil
	}
	billing, err := s.insertGuestAddress(ctx, *billingInput, contact, buyerID, domain.AddressTypeBilling, now)
	if err != nil {
		return "", "", err
	}
	return shipping.ID, billing.ID, nil
}

func (s *orderService) ownedAddress(ctx context.Context, addressID, userID string) (domain.Address, error) {
	address, err := s.addresses.FindByID(ctx, addressID)
	if err != nil {
		if isNotFound(err) {
			return domain.Address{}, fmt.Errorf("%w: %s", ErrAddressNotFound, addressID)
		}
		return domain.Address{}, fmt.Errorf("%w: load address: %v", ErrOrderCreationFailed, err)
	}
	if address.UserID == nil || *address.UserID != userID {
		return domain.Address{}, fmt.Errorf("%w: %s", ErrAddressNotFound, addressID)
	}
	return address, nil
}

func (s *orderService) insertGuestAddress(ctx context.Context, input GuestAddressInput, contact GuestContact, buyerID string, addressType domain.AddressType, now time.Time) (domain.Address, error) {
	owner := buyerID
	address := domain.Address{
		ID:          addressIDPrefix + s.newID(),
		UserID:      &owner,
		FullName:    contact.FullName,
		MobileNo:    contact.MobileNo,
		AddressLine: strings.TrimSpace(input.AddressLine),
		City:        strings.TrimSpace(input.City),
		IsGuest:     true,
		AddressType: addressType,
		CreatedAt:   now,
	}
	if err := s.addresses.Insert(ctx, address); err != nil {
		return domain.Address{}, fmt.Errorf("%w: create guest address: %v", ErrOrderCreationFailed, err)
	}
	return address, nil
}

// GetOrder loads an order scoped to its owner.
func (s *orderService) GetOrder(ctx context.Context, userID, orderID string) (domain.Order, error) {
	if userID == "" || orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: user id and order id are required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return domain.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return domain.Order{}, fmt.Errorf("order: load order: %w", err)
	}
	if order.UserID != userID {
		return domain.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return order, nil
}

// ListOrders pages through a user's own orders, optionally by status.
func (s *orderService) ListOrders(ctx context.Context, userID string, status domain.OrderStatus, page domain.Pagination) (domain.Page[domain.Order], error) {
	if userID == "" {
		return domain.Page[domain.Order]{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	result, err := s.orders.List(ctx, repositories.OrderFilter{UserID: userID, Status: status}, normalisePage(page))
	if err != nil {
		return domain.Page[domain.Order]{}, fmt.Errorf("order: list orders: %w", err)
	}
	return result, nil
}

func validatePlaceOrder(cmd PlaceOrderCommand) error {
	if len(cmd.Items) == 0 {
		return fmt.Errorf("%w: cart is empty", ErrOrderInvalidInput)
	}
	for _, line := range cmd.Items {
		if strings.TrimSpace(line.ProductID) == "" {
			return fmt.Errorf("%w: cart line missing product id", ErrOrderInvalidInput)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: cart line quantity must be positive", ErrOrderInvalidInput)
		}
	}
	if strings.TrimSpace(cmd.ShippingMethodID) == "" {
		return fmt.Errorf("%w: shipping method is required", ErrOrderInvalidInput)
	}

	if cmd.Buyer.Authenticated() {
		if strings.TrimSpace(cmd.ShippingAddressID) == "" {
			return fmt.Errorf("%w: shipping address is required", ErrOrderInvalidInput)
		}
		return nil
	}

	contact, ok := cmd.Buyer.Guest()
	if !ok {
		return fmt.Errorf("%w: buyer is required", ErrOrderInvalidInput)
	}
	if strings.TrimSpace(contact.FullName) == "" || strings.TrimSpace(contact.Email) == "" || strings.TrimSpace(contact.MobileNo) == "" {
		return fmt.Errorf("%w: guest contact details are required", ErrOrderInvalidInput)
	}
	if cmd.GuestShippingAddress == nil || strings.TrimSpace(cmd.GuestShippingAddress.AddressLine) == "" || strings.TrimSpace(cmd.GuestShippingAddress.City) == "" {
		return fmt.Errorf("%w: guest shipping address is required", ErrOrderInvalidInput)
	}
	return nil
}

func findCombination(product domain.Product, combinationID string) (domain.VariationCombination, bool) {
	for _, combination := range product.Combinations {
		if combination.ID == combinationID {
			return combination, true
		}
	}
	return domain.VariationCombination{}, false
}

func sameGuestAddress(a, b GuestAddressInput) bool {
	return strings.EqualFold(strings.TrimSpace(a.AddressLine), strings.TrimSpace(b.AddressLine)) &&
		strings.EqualFold(strings.TrimSpace(a.City), strings.TrimSpace(b.City))
}

func normalisePage(page domain.Pagination) domain.Pagination {
	if page.Page <= 0 {
		page.Page = 1
	}
	if page.PageSize <= 0 || page.PageSize > 100 {
		page.PageSize = 20
	}
	return page
}

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func isConflict(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}
