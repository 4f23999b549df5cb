package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/payments"
	"github.com/clickbazaar/api/internal/platform/httpx"
	"github.com/clickbazaar/api/internal/services"
)

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("encoding_failed", "failed to encode response", http.StatusInternalServerError))
	}
}

// writeServiceError maps service sentinels onto the canonical error envelope.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput),
		errors.Is(err, services.ErrRewardInvalidInput),
		errors.Is(err, services.ErrPaymentInvalidInput),
		errors.Is(err, services.ErrCategoryInvalidInput),
		errors.Is(err, services.ErrSupportInvalidInput),
		errors.Is(err, services.ErrSupportEmptyMessage),
		errors.Is(err, services.ErrInvalidShippingMethod):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))

	case errors.Is(err, services.ErrInsufficientStock):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", err.Error(), http.StatusBadRequest))

	case errors.Is(err, services.ErrRedemptionExceedsBalance):
		httpx.WriteError(ctx, w, httpx.NewError("redemption_exceeds_balance", err.Error(), http.StatusBadRequest))

	case errors.Is(err, services.ErrInvalidPartialAmount),
		errors.Is(err, services.ErrPaymentExceedsRemaining),
		errors.Is(err, services.ErrUnsupportedPaymentMethod):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_payment", err.Error(), http.StatusBadRequest))

	case errors.Is(err, services.ErrOrderAlreadySettled):
		httpx.WriteError(ctx, w, httpx.NewError("order_already_settled", err.Error(), http.StatusConflict))

	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrVariationNotFound),
		errors.Is(err, services.ErrAddressNotFound),
		errors.Is(err, services.ErrCatalogProductNotFound),
		errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrPaymentOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))

	case errors.Is(err, services.ErrCategorySlugTaken),
		errors.Is(err, services.ErrCategoryInUse):
		httpx.WriteError(ctx, w, httpx.NewError("conflict", err.Error(), http.StatusConflict))

	case errors.Is(err, payments.ErrGatewayTimeout):
		httpx.WriteError(ctx, w, httpx.NewError("gateway_timeout", "payment gateway did not answer in time", http.StatusGatewayTimeout))

	case errors.Is(err, payments.ErrGatewayRejected), errors.Is(err, payments.ErrUnsupportedProvider):
		httpx.WriteError(ctx, w, httpx.NewError("gateway_rejected", "payment gateway rejected the request", http.StatusBadGateway))

	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal server error", http.StatusInternalServerError))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := decoder.Decode(dst); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_json", "request body is not valid JSON", http.StatusBadRequest))
		return false
	}
	return true
}

func paginationFromQuery(r *http.Request) domain.Pagination {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	return domain.Pagination{Page: page, PageSize: size}
}

func pagePayload[T any](page domain.Page[T]) map[string]any {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return map[string]any{
		"items":    items,
		"total":    page.Total,
		"page":     page.Page,
		"pageSize": page.PageSize,
	}
}
