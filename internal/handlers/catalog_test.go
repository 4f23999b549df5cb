package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/services"
)

func catalogRouter(catalog services.CatalogService) http.Handler {
	h := NewCatalogHandlers(catalog)
	return NewRouter(WithCatalogRoutes(h.Routes))
}

func TestListProductsForwardsFilters(t *testing.T) {
	var captured services.ProductQuery
	catalog := &stubCatalogService{
		listProducts: func(_ context.Context, query services.ProductQuery) (domain.Page[domain.Product], error) {
			captured = query
			return domain.Page[domain.Product]{
				Items: []domain.Product{{ID: "prd-1", Name: "Mug"}},
				Total: 1, Page: query.Page.Page, PageSize: query.Page.PageSize,
			}, nil
		},
	}

	recorder := httptest.NewRecorder()
	target := "/api/v1/catalog/products?category=cat-1&q=mug&minPrice=100&maxPrice=900&inStock=true&page=2&pageSize=10"
	catalogRouter(catalog).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	if captured.CategoryID != "cat-1" || captured.Search != "mug" || !captured.InStock {
		t.Errorf("query = %+v", captured)
	}
	if captured.MinPrice == nil || *captured.MinPrice != 100 {
		t.Errorf("minPrice = %v", captured.MinPrice)
	}
	if captured.MaxPrice == nil || *captured.MaxPrice != 900 {
		t.Errorf("maxPrice = %v", captured.MaxPrice)
	}
	if captured.Page.Page != 2 || captured.Page.PageSize != 10 {
		t.Errorf("pagination = %+v", captured.Page)
	}
}

func TestListProductsRejectsBadPriceFilter(t *testing.T) {
	catalog := &stubCatalogService{
		listProducts: func(context.Context, services.ProductQuery) (domain.Page[domain.Product], error) {
			t.Fatal("service must not be called for malformed filters")
			return domain.Page[domain.Product]{}, nil
		},
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?minPrice=cheap", nil)
	catalogRouter(catalog).ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
}

func TestGetProductUnknown(t *testing.T) {
	catalog := &stubCatalogService{
		getProduct: func(context.Context, string) (domain.Product, error) {
			return domain.Product{}, services.ErrCatalogProductNotFound
		},
	}

	recorder := httptest.NewRecorder()
	catalogRouter(catalog).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/prd-404", nil))

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", recorder.Code)
	}
}

func TestListShippingMethods(t *testing.T) {
	catalog := &stubCatalogService{
		listShippingMethods: func(context.Context) ([]domain.ShippingMethod, error) {
			return []domain.ShippingMethod{{ID: "shp-std", Name: "Standard", BaseCost: 500}}, nil
		},
	}

	recorder := httptest.NewRecorder()
	catalogRouter(catalog).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/shipping-methods", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	var payload struct {
		Items []domain.ShippingMethod `json:"items"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(payload.Items) != 1 || payload.Items[0].BaseCost != 500 {
		t.Errorf("items = %+v", payload.Items)
	}
}
