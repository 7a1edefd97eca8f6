// Package catalog lists, filters and seeds the product catalog.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/slug"
)

// AllCategories is the category value that disables category filtering.
const AllCategories = "All"

// API is the subset of the storefront API used by the catalog.
type API interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	SeedProducts(ctx context.Context) error
}

// Filter narrows a product listing. Zero value matches everything.
// Category matches either the display name or its slug ("personal-care").
type Filter struct {
	Category string
	Search   string
}

func (f Filter) match(p *domain.Product) bool {
	if f.Category != "" && !slug.Equal(f.Category, AllCategories) && !slug.Equal(f.Category, p.Category) {
		return false
	}
	return p.Matches(f.Search)
}

// Service reads the catalog through the API.
type Service struct {
	api    API
	logger *slog.Logger
}

// NewService creates a catalog service.
func NewService(api API, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{api: api, logger: log}
}

// List fetches every product and applies f client-side.
func (s *Service) List(ctx context.Context, f Filter) ([]domain.Product, error) {
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	f.Search = strings.TrimSpace(f.Search)
	out := make([]domain.Product, 0, len(products))
	for i := range products {
		if f.match(&products[i]) {
			out = append(out, products[i])
		}
	}

	s.logger.DebugContext(ctx, "catalog listed",
		slog.Int("total", len(products)),
		slog.Int("matched", len(out)),
		slog.String("category", f.Category),
	)
	return out, nil
}

// Page lists the products matching f and returns the requested page.
func (s *Service) Page(ctx context.Context, f Filter, p pagination.Params) (pagination.Result[domain.Product], error) {
	products, err := s.List(ctx, f)
	if err != nil {
		return pagination.Result[domain.Product]{}, err
	}
	return pagination.Paginate(products, p), nil
}

// Get fetches one product.
func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.api.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// Seed asks the API to load its sample catalog.
func (s *Service) Seed(ctx context.Context) error {
	if err := s.api.SeedProducts(ctx); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	s.logger.InfoContext(ctx, "catalog seeded")
	return nil
}

// Categories returns AllCategories followed by each distinct category in the
// order it first appears.
func Categories(products []domain.Product) []string {
	seen := make(map[string]struct{}, len(products))
	out := []string{AllCategories}
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}
