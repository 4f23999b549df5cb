package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clickbazaar/api/internal/platform/auth"
	"github.com/clickbazaar/api/internal/services"
)

// CheckoutHandlers serves order creation for guests and account holders.
type CheckoutHandlers struct {
	orders services.OrderService
}

// NewCheckoutHandlers constructs the checkout handlers.
func NewCheckoutHandlers(orders services.OrderService) *CheckoutHandlers {
	return &CheckoutHandlers{orders: orders}
}

// Routes registers the checkout endpoints.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	r.Post("/orders", h.placeOrder)
}

type checkoutItem struct {
	ProductID              string  `json:"productId"`
	Quantity               int     `json:"quantity"`
	VariationCombinationID *string `json:"variationCombinationId,omitempty"`
}

type checkoutRequest struct {
	FullName       string         `json:"fullName"`
	Email          string         `json:"email"`
	Mobile         string         `json:"mobile"`
	ShippingMethod string         `json:"shippingMethod"`
	Items          []checkoutItem `json:"items"`
	// TotalAmount is accepted for interface compatibility; the server
	// recomputes every amount from the catalog.
	TotalAmount int64 `json:"totalAmount"`

	ShippingAddressID string `json:"shippingAddressId"`
	BillingAddressID  string `json:"billingAddressId"`

	Address        string `json:"address"`
	City           string `json:"city"`
	BillingAddress string `json:"billingAddress"`
	BillingCity    string `json:"billingCity"`

	RedeemPoints int `json:"redeemPoints"`
}

func (h *CheckoutHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	items := make([]services.CartLine, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, services.CartLine{
			ProductID:              item.ProductID,
			Quantity:               item.Quantity,
			VariationCombinationID: item.VariationCombinationID,
		})
	}

	cmd := services.PlaceOrderCommand{
		Items:            items,
		ShippingMethodID: strings.TrimSpace(req.ShippingMethod),
		RedeemPoints:     req.RedeemPoints,
	}

	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		cmd.Buyer = services.AuthenticatedBuyer(identity.UID)
		cmd.ShippingAddressID = strings.TrimSpace(req.ShippingAddressID)
		cmd.BillingAddressID = strings.TrimSpace(req.BillingAddressID)
	} else {
		cmd.Buyer = services.GuestBuyer(services.GuestContact{
			FullName: strings.TrimSpace(req.FullName),
			Email:    strings.TrimSpace(req.Email),
			MobileNo: strings.TrimSpace(req.Mobile),
		})
		if strings.TrimSpace(req.Address) != "" || strings.TrimSpace(req.City) != "" {
			cmd.GuestShippingAddress = &services.GuestAddressInput{
				AddressLine: req.Address,
				City:        req.City,
			}
		}
		if strings.TrimSpace(req.BillingAddress) != "" {
			cmd.GuestBillingAddress = &services.GuestAddressInput{
				AddressLine: req.BillingAddress,
				City:        req.BillingCity,
			}
		}
	}

	order, err := h.orders.PlaceOrder(r.Context(), cmd)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{"order": order})
}
