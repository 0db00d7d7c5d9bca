package cache

import (
	"context"

	"github.com/retisha256/ecommerce/internal/domain"
)

// Noop is used when no Redis address is configured; every read misses.
type Noop struct{}

func (Noop) GetProduct(context.Context, string) (*domain.Product, error) { return nil, ErrCacheMiss }
func (Noop) SetProduct(context.Context, *domain.Product) error { return nil }
func (Noop) GetList(context.Context, domain.ProductFilter) (*domain.ProductPage, error) {
	return nil, ErrCacheMiss
}
func (Noop) SetList(context.Context, domain.ProductFilter, *domain.ProductPage) error { return nil }
func (Noop) Invalidate(context.Context) error { return nil }
