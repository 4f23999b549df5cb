package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/payments"
	"github.com/clickbazaar/api/internal/repositories"
)

const (
	paymentEventRecorded  = "payment.recorded"
	paymentEventInitiated = "payment.session.initiated"

	paymentIDPrefix = "pay_"

	// PaymentMethodManual settles immediately without a gateway.
	PaymentMethodManual = "manual"
	// PaymentMethodCard routes to the hosted card gateway.
	PaymentMethodCard = "card"
	// PaymentMethodBkash routes to the bKash wallet gateway.
	PaymentMethodBkash = "bkash"

	minPartialNumerator = 10 // amount*10 >= remaining enforces the 10% floor without float math
)

var (
	// ErrPaymentInvalidInput signals the caller provided invalid data.
	ErrPaymentInvalidInput = errors.New("payment: invalid input")
	// ErrPaymentOrderNotFound indicates the referenced order does not exist.
	ErrPaymentOrderNotFound = errors.New("payment: order not found")
	// ErrInvalidPartialAmount indicates the amount is below the 10% partial floor.
	ErrInvalidPartialAmount = errors.New("payment: partial amount out of bounds")
	// ErrPaymentExceedsRemaining indicates an overpayment under the reject policy.
	ErrPaymentExceedsRemaining = errors.New("payment: amount exceeds remaining balance")
	// ErrOrderAlreadySettled indicates nothing is left to pay.
	ErrOrderAlreadySettled = errors.New("payment: order already settled")
	// ErrUnsupportedPaymentMethod indicates an unknown payment method.
	ErrUnsupportedPaymentMethod = errors.New("payment: unsupported method")
)

// methodProviderRoutes maps payment methods onto gateway provider keys.
var methodProviderRoutes = map[string]string{
	PaymentMethodCard:  "stripe",
	PaymentMethodBkash: "bkash",
}

// PaymentServiceDeps bundles collaborators required to construct the payment service.
type PaymentServiceDeps struct {
	Orders      repositories.OrderRepository
	Payments    repositories.PaymentRepository
	Gateways    *payments.Manager
	Converter   *CurrencyConverter
	UnitOfWork  repositories.UnitOfWork
	Clock       func() time.Time
	IDGenerator func() string
	Logger      Logger

	// AllowOverpayment accepts amounts above the remaining balance as credit.
	AllowOverpayment bool
	GatewayTimeout   time.Duration
	SuccessURL       string
	CancelURL        string
}

type paymentService struct {
	orders           repositories.OrderRepository
	payments         repositories.PaymentRepository
	gateways         *payments.Manager
	converter        *CurrencyConverter
	unitOfWork       repositories.UnitOfWork
	clock            func() time.Time
	newID            func() string
	logger           Logger
	allowOverpayment bool
	gatewayTimeout   time.Duration
	successURL       string
	cancelURL        string
}

// NewPaymentService wires dependencies into a concrete PaymentService implementation.
func NewPaymentService(deps PaymentServiceDeps) (PaymentService, error) {
	if deps.Orders == nil {
		return nil, errors.New("payment service: order repository is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("payment service: payment repository is required")
	}
	if deps.Converter == nil {
		return nil, errors.New("payment service: currency converter is required")
	}
	if deps.UnitOfWork == nil {
		return nil, errors.New("payment service: unit of work is required")
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
	timeout := deps.GatewayTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &paymentService{
		orders:     deps.Orders,
		payments:   deps.Payments,
		gateways:   deps.Gateways,
		converter:  deps.Converter,
		unitOfWork: deps.UnitOfWork,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:            idGen,
		logger:           logger,
		allowOverpayment: deps.AllowOverpayment,
		gatewayTimeout:   timeout,
		successURL:       deps.SuccessURL,
		cancelURL:        deps.CancelURL,
	}, nil
}

// RecordDirectPayment settles a manual payment immediately: one Payment row
// and an order status move to PARTIAL_PAID or PAID inside one transaction.
func (s *paymentService) RecordDirectPayment(ctx context.Context, cmd DirectPaymentCommand) (domain.Payment, error) {
	if strings.TrimSpace(cmd.OrderID) == "" {
		return domain.Payment{}, fmt.Errorf("%w: order id is required", ErrPaymentInvalidInput)
	}
	method := strings.ToLower(strings.TrimSpace(cmd.Method))
	if method == "" {
		method = PaymentMethodManual
	}
	if _, gateway := methodProviderRoutes[method]; gateway {
		return domain.Payment{}, fmt.Errorf("%w: %s requires session initiation", ErrUnsupportedPaymentMethod, method)
	}

	var payment domain.Payment
	err := s.unitOfWork.RunInTx(ctx, func(ctx context.Context) error {
		order, remaining, err := s.orderAndRemaining(ctx, cmd.OrderID, true)
		if err != nil {
			return err
		}

		amount, err := s.settleableAmount(cmd.Amount, cmd.DisplayCurrency, remaining)
		if err != nil {
			return err
		}

		now := s.clock()
		payment = domain.Payment{
			ID:            paymentIDPrefix + s.newID(),
			OrderID:       order.ID,
			PaymentMethod: method,
			PaymentAmount: amount,
			PaymentDate:   now,
		}
		if err := s.payments.Insert(ctx, payment); err != nil {
			return fmt.Errorf("payment: persist payment: %w", err)
		}

		status := domain.OrderStatusPartialPaid
		if amount >= remaining {
			status = domain.OrderStatusPaid
		}
		if err := s.orders.UpdateStatus(ctx, order.ID, status, now); err != nil {
			return fmt.Errorf("payment: update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}

	s.logger(ctx, paymentEventRecorded, map[string]any{
		"orderId":   payment.OrderID,
		"paymentId": payment.ID,
		"method":    payment.PaymentMethod,
		"amount":    payment.PaymentAmount,
	})
	return payment, nil
}

// InitiateGatewayPayment creates a hosted checkout session and returns the
// redirect. No Payment row is written; the gateway callback settles later.
func (s *paymentService) InitiateGatewayPayment(ctx context.Context, cmd InitiatePaymentCommand) (PaymentSession, error) {
	if strings.TrimSpace(cmd.OrderID) == "" {
		return PaymentSession{}, fmt.Errorf("%w: order id is required", ErrPaymentInvalidInput)
	}
	method := strings.ToLower(strings.TrimSpace(cmd.Method))
	provider, ok := methodProviderRoutes[method]
	if !ok {
		return PaymentSession{}, fmt.Errorf("%w: %s", ErrUnsupportedPaymentMethod, cmd.Method)
	}
	if s.gateways == nil {
		return PaymentSession{}, fmt.Errorf("%w: no gateways configured", ErrUnsupportedPaymentMethod)
	}

	order, remaining, err := s.orderAndRemaining(ctx, cmd.OrderID, false)
	if err != nil {
		return PaymentSession{}, err
	}
	amount, err := s.settleableAmount(cmd.Amount, cmd.DisplayCurrency, remaining)
	if err != nil {
		return PaymentSession{}, err
	}

	items := make([]payments.SessionLineItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, payments.SessionLineItem{
			Name:     item.VariationLabel,
			SKU:      item.ProductID,
			Quantity: int64(item.Quantity),
			Amount:   item.ItemPrice,
			Currency: s.converter.Settlement(),
		})
	}
	// Partial amounts cannot be expressed as line items; collapse to one line.
	if amount != order.TotalAmount {
		items = []payments.SessionLineItem{{
			Name:     "Order " + order.OrderNumber,
			Quantity: 1,
			Amount:   amount,
			Currency: s.converter.Settlement(),
		}}
	}

	gatewayCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	session, err := s.gateways.CreateSession(gatewayCtx,
		payments.PaymentContext{PreferredProvider: provider, Currency: s.converter.Settlement()},
		payments.SessionRequest{
			OrderNumber:    order.OrderNumber,
			Amount:         amount,
			Currency:       s.converter.Settlement(),
			SuccessURL:     s.successURL,
			CancelURL:      s.cancelURL,
			IdempotencyKey: cmd.IdempotencyKey,
			Metadata: map[string]string{
				"order_id":     order.ID,
				"order_number": order.OrderNumber,
			},
			Items: items,
		})
	if err != nil {
		return PaymentSession{}, err
	}

	s.logger(ctx, paymentEventInitiated, map[string]any{
		"orderId":  order.ID,
		"provider": session.Provider,
		"session":  session.ID,
		"amount":   amount,
	})
	return PaymentSession{
		SessionID:   session.ID,
		Provider:    session.Provider,
		RedirectURL: session.RedirectURL,
		Amount:      amount,
		Currency:    s.converter.Settlement(),
	}, nil
}

// RemainingAmount reports the unpaid balance, floored at zero.
func (s *paymentService) RemainingAmount(ctx context.Context, orderID string) (int64, error) {
	_, remaining, err := s.orderAndRemaining(ctx, orderID, false)
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// ListPayments returns an order's settlement records.
func (s *paymentService) ListPayments(ctx context.Context, orderID string) ([]domain.Payment, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrPaymentInvalidInput)
	}
	records, err := s.payments.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("payment: list payments: %w", err)
	}
	return records, nil
}

// orderAndRemaining loads the order and its unpaid balance. With lock set the
// order row is read FOR UPDATE so concurrent settlements inside a transaction
// serialize on it and cannot jointly exceed the total.
func (s *paymentService) orderAndRemaining(ctx context.Context, orderID string, lock bool) (domain.Order, int64, error) {
	find := s.orders.FindByID
	if lock {
		find = s.orders.FindByIDForUpdate
	}
	order, err := find(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return domain.Order{}, 0, fmt.Errorf("%w: %s", ErrPaymentOrderNotFound, orderID)
		}
		return domain.Order{}, 0, fmt.Errorf("payment: load order: %w", err)
	}

	total := order.TotalAmount
	if total <= 0 {
		// Stored total absent; re-derive from the components.
		total = order.Subtotal + order.ShippingCharge - order.RewardDiscount
		if total < 0 {
			total = 0
		}
		order.TotalAmount = total
	}

	paid, err := s.payments.SumByOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, 0, fmt.Errorf("payment: sum payments: %w", err)
	}

	remaining := total - paid
	if remaining < 0 {
		remaining = 0
	}
	return order, remaining, nil
}

// settleableAmount converts the display-currency amount into the settlement
// currency and enforces the partial bounds against the remaining balance.
func (s *paymentService) settleableAmount(amount int64, displayCurrency string, remaining int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrPaymentInvalidInput)
	}
	if remaining <= 0 {
		return 0, ErrOrderAlreadySettled
	}

	settled, err := s.converter.ToSettlement(amount, displayCurrency)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPaymentInvalidInput, err)
	}
	if settled <= 0 {
		return 0, fmt.Errorf("%w: amount rounds to zero in %s", ErrPaymentInvalidInput, s.converter.Settlement())
	}

	if settled*minPartialNumerator < remaining {
		return 0, fmt.Errorf("%w: minimum is 10%% of remaining %d", ErrInvalidPartialAmount, remaining)
	}
	if settled > remaining && !s.allowOverpayment {
		return 0, fmt.Errorf("%w: remaining %d", ErrPaymentExceedsRemaining, remaining)
	}
	return settled, nil
}
