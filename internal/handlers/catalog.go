package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clickbazaar/api/internal/platform/httpx"
	"github.com/clickbazaar/api/internal/services"
)

// CatalogHandlers serves the public browsing endpoints.
type CatalogHandlers struct {
	catalog services.CatalogService
}

// NewCatalogHandlers constructs the catalog handlers.
func NewCatalogHandlers(catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes registers the catalog endpoints.
func (h *CatalogHandlers) Routes(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/categories", h.listCategories)
	r.Get("/shipping-methods", h.listShippingMethods)
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	query := services.ProductQuery{
		CategoryID: strings.TrimSpace(r.URL.Query().Get("category")),
		Search:     strings.TrimSpace(r.URL.Query().Get("q")),
		InStock:    r.URL.Query().Get("inStock") == "true",
		Page:       paginationFromQuery(r),
	}
	if raw := r.URL.Query().Get("minPrice"); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "minPrice must be an integer", http.StatusBadRequest))
			return
		}
		query.MinPrice = &value
	}
	if raw := r.URL.Query().Get("maxPrice"); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "maxPrice must be an integer", http.StatusBadRequest))
			return
		}
		query.MaxPrice = &value
	}

	page, err := h.catalog.ListProducts(r.Context(), query)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, pagePayload(page))
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, product)
}

func (h *CatalogHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{"items": categories})
}

func (h *CatalogHandlers) listShippingMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.catalog.ListShippingMethods(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{"items": methods})
}
