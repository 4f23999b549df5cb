package handlers

import (
	"context"
	"net/http"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/platform/auth"
	"github.com/clickbazaar/api/internal/repositories"
	"github.com/clickbazaar/api/internal/services"
)

// identityMiddleware injects a fixed identity, standing in for the JWT
// middleware in handler tests.
func identityMiddleware(identity *auth.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

type stubOrderService struct {
	placeOrder func(ctx context.Context, cmd services.PlaceOrderCommand) (domain.Order, error)
	getOrder   func(ctx context.Context, userID, orderID string) (domain.Order, error)
	listOrders func(ctx context.Context, userID string, status domain.OrderStatus, page domain.Pagination) (domain.Page[domain.Order], error)
}

func (s *stubOrderService) PlaceOrder(ctx context.Context, cmd services.PlaceOrderCommand) (domain.Order, error) {
	return s.placeOrder(ctx, cmd)
}

func (s *stubOrderService) GetOrder(ctx context.Context, userID, orderID string) (domain.Order, error) {
	return s.getOrder(ctx, userID, orderID)
}

func (s *stubOrderService) ListOrders(ctx context.Context, userID string, status domain.OrderStatus, page domain.Pagination) (domain.Page[domain.Order], error) {
	return s.listOrders(ctx, userID, status, page)
}

type stubPaymentService struct {
	recordDirect func(ctx context.Context, cmd services.DirectPaymentCommand) (domain.Payment, error)
	initiate     func(ctx context.Context, cmd services.InitiatePaymentCommand) (services.PaymentSession, error)
	remaining    func(ctx context.Context, orderID string) (int64, error)
	list         func(ctx context.Context, orderID string) ([]domain.Payment, error)
}

func (s *stubPaymentService) RecordDirectPayment(ctx context.Context, cmd services.DirectPaymentCommand) (domain.Payment, error) {
	return s.recordDirect(ctx, cmd)
}

func (s *stubPaymentService) InitiateGatewayPayment(ctx context.Context, cmd services.InitiatePaymentCommand) (services.PaymentSession, error) {
	return s.initiate(ctx, cmd)
}

func (s *stubPaymentService) RemainingAmount(ctx context.Context, orderID string) (int64, error) {
	return s.remaining(ctx, orderID)
}

func (s *stubPaymentService) ListPayments(ctx context.Context, orderID string) ([]domain.Payment, error) {
	return s.list(ctx, orderID)
}

type stubCatalogService struct {
	listProducts        func(ctx context.Context, query services.ProductQuery) (domain.Page[domain.Product], error)
	getProduct          func(ctx context.Context, productID string) (domain.Product, error)
	listCategories      func(ctx context.Context) ([]domain.Category, error)
	listShippingMethods func(ctx context.Context) ([]domain.ShippingMethod, error)
}

func (s *stubCatalogService) ListProducts(ctx context.Context, query services.ProductQuery) (domain.Page[domain.Product], error) {
	return s.listProducts(ctx, query)
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	return s.getProduct(ctx, productID)
}

func (s *stubCatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.listCategories(ctx)
}

func (s *stubCatalogService) ListShippingMethods(ctx context.Context) ([]domain.ShippingMethod, error) {
	return s.listShippingMethods(ctx)
}

type stubRewardService struct {
	summary func(ctx context.Context, userID string, page domain.Pagination) (services.RewardSummary, error)
}

func (s *stubRewardService) AccrueForOrder(context.Context, services.AccrualCommand) (int, error) {
	return 0, nil
}

func (s *stubRewardService) RecordRedemption(context.Context, services.RedemptionCommand) error {
	return nil
}

func (s *stubRewardService) AvailableBalance(context.Context, string) (int64, error) {
	return 0, nil
}

func (s *stubRewardService) Summary(ctx context.Context, userID string, page domain.Pagination) (services.RewardSummary, error) {
	return s.summary(ctx, userID, page)
}

type stubSupportService struct {
	send   func(ctx context.Context, cmd services.SendMessageCommand) (domain.SupportMessage, error)
	thread func(ctx context.Context, userID string, reader domain.SupportSender, page domain.Pagination) (domain.Page[domain.SupportMessage], error)
	inbox  func(ctx context.Context, filter repositories.SupportThreadFilter, page domain.Pagination) (domain.Page[domain.SupportThread], error)
}

func (s *stubSupportService) SendMessage(ctx context.Context, cmd services.SendMessageCommand) (domain.SupportMessage, error) {
	return s.send(ctx, cmd)
}

func (s *stubSupportService) Thread(ctx context.Context, userID string, reader domain.SupportSender, page domain.Pagination) (domain.Page[domain.SupportMessage], error) {
	return s.thread(ctx, userID, reader, page)
}

func (s *stubSupportService) Inbox(ctx context.Context, filter repositories.SupportThreadFilter, page domain.Pagination) (domain.Page[domain.SupportThread], error) {
	return s.inbox(ctx, filter, page)
}

type stubCategoryService struct {
	create func(ctx context.Context, input services.CategoryInput) (domain.Category, error)
	update func(ctx context.Context, categoryID string, input services.CategoryInput) (domain.Category, error)
	remove func(ctx context.Context, categoryID string) error
	get    func(ctx context.Context, categoryID string) (domain.Category, error)
	list   func(ctx context.Context) ([]domain.Category, error)
}

func (s *stubCategoryService) Create(ctx context.Context, input services.CategoryInput) (domain.Category, error) {
	return s.create(ctx, input)
}

func (s *stubCategoryService) Update(ctx context.Context, categoryID string, input services.CategoryInput) (domain.Category, error) {
	return s.update(ctx, categoryID, input)
}

func (s *stubCategoryService) Delete(ctx context.Context, categoryID string) error {
	return s.remove(ctx, categoryID)
}

func (s *stubCategoryService) Get(ctx context.Context, categoryID string) (domain.Category, error) {
	return s.get(ctx, categoryID)
}

func (s *stubCategoryService) List(ctx context.Context) ([]domain.Category, error) {
	return s.list(ctx)
}

type stubSystemService struct {
	ready func(ctx context.Context) error
}

func (s *stubSystemService) Ready(ctx context.Context) error {
	if s.ready == nil {
		return nil
	}
	return s.ready(ctx)
}
