package cache

import (
	"context"
	"errors"

	"github.com/retisha256/ecommerce/internal/domain"
)

type CatalogCache interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	SetProduct(ctx context.Context, product *domain.Product) error
	GetList(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)
	SetList(ctx context.Context, filter domain.ProductFilter, page *domain.ProductPage) error
	// Invalidate drops every catalog entry.
	Invalidate(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")
