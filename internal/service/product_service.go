package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/retisha256/ecommerce/internal/cache"
	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/repository"
	"golang.org/x/sync/singleflight"
)

type ProductService struct {
	repo     repository.ProductRepository
	cache    cache.CatalogCache
	sfg      singleflight.Group // Prevents cache stampede
	validate *validator.Validate
	log      *slog.Logger

	// genMu is held for writing while the generation is bumped, so a cache
	// fill either lands before an invalidation or is dropped.
	genMu sync.RWMutex
	gen   uint64
}

func NewProductService(repo repository.ProductRepository, c cache.CatalogCache, log *slog.Logger) *ProductService {
	if c == nil {
		c = cache.Noop{}
	}
	return &ProductService{
		repo:     repo,
		cache:    c,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.With("component", "product_service"),
	}
}

type productRules struct {
	Name     string  `validate:"required,max=200"`
	Category string  `validate:"required,max=100"`
	Rating   float64 `validate:"gte=0,lte=5"`
	Stock    int     `validate:"gte=0"`
}

func (s *ProductService) checkProduct(p *domain.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)

	rules := productRules{Name: p.Name, Category: p.Category, Rating: p.Rating, Stock: p.Stock}
	if err := s.validate.Struct(rules); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrInvalidProduct, describeField(verrs[0]))
		}
		return fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	return nil
}

func describeField(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return field + " is invalid"
}

func (s *ProductService) List(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	filter = filter.Normalize()
	key := fmt.Sprintf("list|%s|%s|%v|%d|%d", filter.Query, filter.Category, featuredKey(filter.Featured), filter.Limit, filter.Page)

	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		gen := s.generation()
		page, err := s.cache.GetList(ctx, filter)
		if err == nil {
			return page, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WarnContext(ctx, "cache get error", "error", err)
		}

		items, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		page = &domain.ProductPage{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}

		s.fillCache(gen, func() error { return s.cache.SetList(ctx, filter, page) })
		return page, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ProductPage), nil
}

func featuredKey(f *bool) string {
	if f == nil {
		return "any"
	}
	return fmt.Sprint(*f)
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	v, err, _ := s.sfg.Do("product|"+id, func() (interface{}, error) {
		gen := s.generation()
		p, err := s.cache.GetProduct(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WarnContext(ctx, "cache get error", "error", err, "product_id", id)
		}

		p, err = s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		s.fillCache(gen, func() error { return s.cache.SetProduct(ctx, p) })
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

func (s *ProductService) Create(ctx context.Context, p *domain.Product) error {
	if err := s.checkProduct(p); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.log.ErrorContext(ctx, "repo create product error", "error", err)
		return err
	}

	s.invalidateCache()
	s.log.InfoContext(ctx, "product created", "product_id", p.ID, "name", p.Name)
	return nil
}

func (s *ProductService) Update(ctx context.Context, id string, u domain.ProductUpdate) (*domain.Product, error) {
	if u.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidProduct)
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
		}
		u.Name = &name
	}
	if u.Category != nil {
		category := strings.TrimSpace(*u.Category)
		if category == "" {
			return nil, fmt.Errorf("%w: category is required", ErrInvalidProduct)
		}
		u.Category = &category
	}
	if u.Price != nil && u.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if u.Rating != nil && (*u.Rating < 0 || *u.Rating > 5) {
		return nil, fmt.Errorf("%w: rating must be between 0 and 5", ErrInvalidProduct)
	}
	if u.Stock != nil && *u.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}

	p, err := s.repo.Update(ctx, id, u)
	if err != nil {
		if !errors.Is(err, repository.ErrProductNotFound) {
			s.log.ErrorContext(ctx, "repo update product error", "error", err, "product_id", id)
		}
		return nil, err
	}

	s.invalidateCache()
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if !errors.Is(err, repository.ErrProductNotFound) {
			s.log.ErrorContext(ctx, "repo delete product error", "error", err, "product_id", id)
		}
		return err
	}

	s.invalidateCache()
	return nil
}

// Seed replaces the whole catalog.
func (s *ProductService) Seed(ctx context.Context, products []*domain.Product) error {
	for _, p := range products {
		if err := s.checkProduct(p); err != nil {
			return fmt.Errorf("seed product %q: %w", p.Name, err)
		}
	}
	if err := s.repo.ReplaceAll(ctx, products); err != nil {
		return err
	}
	s.invalidateCache()
	return nil
}

func (s *ProductService) generation() uint64 {
	s.genMu.RLock()
	defer s.genMu.RUnlock()
	return s.gen
}

// fillCache runs set only if no write has invalidated the catalog since gen
// was read.
func (s *ProductService) fillCache(gen uint64, set func() error) {
	s.genMu.RLock()
	defer s.genMu.RUnlock()
	if s.gen != gen {
		return
	}
	if err := set(); err != nil {
		s.log.Warn("cache set error", "error", err)
	}
}

func (s *ProductService) invalidateCache() {
	s.genMu.Lock()
	s.gen++
	s.genMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("cache invalidate error", "error", err)
	}
}
