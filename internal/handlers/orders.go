package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/platform/auth"
	"github.com/clickbazaar/api/internal/platform/httpx"
	"github.com/clickbazaar/api/internal/services"
)

// OrderHandlers serves order history and payment endpoints. Every route is
// scoped to the authenticated owner.
type OrderHandlers struct {
	orders   services.OrderService
	payments services.PaymentService
}

// NewOrderHandlers constructs the order handlers.
func NewOrderHandlers(orders services.OrderService, payments services.PaymentService) *OrderHandlers {
	return &OrderHandlers{orders: orders, payments: payments}
}

// Routes registers the order endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Get("/{orderID}/payments", h.listPayments)
	r.Post("/{orderID}/payments", h.recordPayment)
	r.Post("/{orderID}/payments:initiate", h.initiatePayment)
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	status := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))))
	page, err := h.orders.ListOrders(r.Context(), identity.UID, status, paginationFromQuery(r))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, pagePayload(page))
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	order, err := h.orders.GetOrder(r.Context(), identity.UID, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, order)
}

func (h *OrderHandlers) listPayments(w http.ResponseWriter, r *http.Request) {
	order, ok := h.ownedOrder(w, r)
	if !ok {
		return
	}

	records, err := h.payments.ListPayments(r.Context(), order.ID)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	if records == nil {
		records = []domain.Payment{}
	}

	remaining, err := h.payments.RemainingAmount(r.Context(), order.ID)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"items":     records,
		"remaining": remaining,
	})
}

type paymentRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Method   string `json:"method"`
}

func (h *OrderHandlers) recordPayment(w http.ResponseWriter, r *http.Request) {
	order, ok := h.ownedOrder(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	payment, err := h.payments.RecordDirectPayment(r.Context(), services.DirectPaymentCommand{
		OrderID:         order.ID,
		Amount:          req.Amount,
		DisplayCurrency: req.Currency,
		Method:          req.Method,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, payment)
}

func (h *OrderHandlers) initiatePayment(w http.ResponseWriter, r *http.Request) {
	order, ok := h.ownedOrder(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.payments.InitiateGatewayPayment(r.Context(), services.InitiatePaymentCommand{
		OrderID:         order.ID,
		Amount:          req.Amount,
		DisplayCurrency: req.Currency,
		Method:          req.Method,
		IdempotencyKey:  strings.TrimSpace(r.Header.Get("Idempotency-Key")),
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"sessionId":   session.SessionID,
		"provider":    session.Provider,
		"redirectUrl": session.RedirectURL,
		"amount":      session.Amount,
		"currency":    session.Currency,
	})
}

// ownedOrder loads the path order scoped to the caller, writing the error
// response itself when the lookup fails.
func (h *OrderHandlers) ownedOrder(w http.ResponseWriter, r *http.Request) (domain.Order, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return domain.Order{}, false
	}
	order, err := h.orders.GetOrder(r.Context(), identity.UID, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return domain.Order{}, false
	}
	return order, true
}
