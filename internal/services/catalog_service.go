package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/repositories"
)

// ErrCatalogProductNotFound indicates the requested product does not exist.
var ErrCatalogProductNotFound = errors.New("catalog: product not found")

// CatalogServiceDeps bundles collaborators required to construct the catalog service.
type CatalogServiceDeps struct {
	Products        repositories.ProductRepository
	Categories      repositories.CategoryRepository
	ShippingMethods repositories.ShippingMethodRepository
}

type catalogService struct {
	products        repositories.ProductRepository
	categories      repositories.CategoryRepository
	shippingMethods repositories.ShippingMethodRepository
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}
	if deps.Categories == nil {
		return nil, errors.New("catalog service: category repository is required")
	}
	if deps.ShippingMethods == nil {
		return nil, errors.New("catalog service: shipping method repository is required")
	}
	return &catalogService{
		products:        deps.Products,
		categories:      deps.Categories,
		shippingMethods: deps.ShippingMethods,
	}, nil
}

// ListProducts pages through the catalog with optional filters.
func (s *catalogService) ListProducts(ctx context.Context, query ProductQuery) (domain.Page[domain.Product], error) {
	filter := repositories.ProductFilter{
		CategoryID: query.CategoryID,
		Query:      query.Search,
		MinPrice:   query.MinPrice,
		MaxPrice:   query.MaxPrice,
		InStock:    query.InStock,
	}
	page, err := s.products.List(ctx, filter, normalisePage(query.Page))
	if err != nil {
		return domain.Page[domain.Product]{}, fmt.Errorf("catalog: list products: %w", err)
	}
	return page, nil
}

// GetProduct loads one product with its variation combinations.
func (s *catalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return domain.Product{}, fmt.Errorf("%w: %s", ErrCatalogProductNotFound, productID)
		}
		return domain.Product{}, fmt.Errorf("catalog: load product: %w", err)
	}
	return product, nil
}

// ListCategories returns the full category tree.
func (s *catalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list categories: %w", err)
	}
	return categories, nil
}

// ListShippingMethods returns the active delivery options.
func (s *catalogService) ListShippingMethods(ctx context.Context) ([]domain.ShippingMethod, error) {
	methods, err := s.shippingMethods.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list shipping methods: %w", err)
	}
	return methods, nil
}
