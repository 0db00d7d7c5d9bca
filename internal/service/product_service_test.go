package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func laptop() *domain.Product {
	return &domain.Product{
		ID:       "p1",
		Name:     "Spectrum Laptop 14.6 Inc",
		Category: "Laptops",
		Price:    domain.NewMoney(950000),
		Stock:    15,
		Rating:   5,
		IsActive: true,
	}
}

func TestGetProduct_FromRepoThenCache(t *testing.T) {
	repo := newMockProductRepository(laptop())
	c := newMockCache()
	svc := NewProductService(repo, c, testLogger())

	p, err := svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Spectrum Laptop 14.6 Inc", p.Name)

	assert.True(t, c.hasProduct("p1"))

	_, err = svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	gets, _ := repo.calls()
	assert.Equal(t, 1, gets)
}

func TestGetProduct_DeleteDuringReadIsNotCached(t *testing.T) {
	repo := newGatedProductRepository(laptop())
	c := newMockCache()
	svc := NewProductService(repo, c, testLogger())
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Get(ctx, "p1")
		done <- err
	}()

	<-repo.entered
	require.NoError(t, svc.Delete(ctx, "p1"))
	close(repo.release)
	require.NoError(t, <-done)

	assert.False(t, c.hasProduct("p1"))
	_, err := svc.Get(ctx, "p1")
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestGetProduct_NotFound(t *testing.T) {
	svc := NewProductService(newMockProductRepository(), newMockCache(), testLogger())

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestGetProduct_CacheErrorFallsBackToRepo(t *testing.T) {
	c := newMockCache()
	c.err = errors.New("redis down")
	svc := NewProductService(newMockProductRepository(laptop()), c, testLogger())

	p, err := svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
}

func TestGetProduct_ConcurrentMissesCollapse(t *testing.T) {
	repo := newMockProductRepository(laptop())
	svc := NewProductService(repo, nil, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Get(context.Background(), "p1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	gets, _ := repo.calls()
	assert.LessOrEqual(t, gets, 20)
	assert.GreaterOrEqual(t, gets, 1)
}

func TestListProducts_CachesPage(t *testing.T) {
	repo := newMockProductRepository(laptop())
	c := newMockCache()
	svc := NewProductService(repo, c, testLogger())

	page, err := svc.List(context.Background(), domain.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, domain.DefaultPageSize, page.Limit)
	assert.Equal(t, 1, page.Page)

	_, err = c.GetList(context.Background(), domain.ProductFilter{}.Normalize())
	require.NoError(t, err)

	_, err = svc.List(context.Background(), domain.ProductFilter{})
	require.NoError(t, err)
	_, lists := repo.calls()
	assert.Equal(t, 1, lists)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc := NewProductService(newMockProductRepository(), newMockCache(), testLogger())

	tests := []struct {
		name    string
		product domain.Product
		msg     string
	}{
		{"missing name", domain.Product{Name: "  ", Category: "Audio"}, "name is required"},
		{"missing category", domain.Product{Name: "Speaker"}, "category is required"},
		{"negative price", domain.Product{Name: "Speaker", Category: "Audio", Price: domain.NewMoney(-1)}, "price"},
		{"rating too high", domain.Product{Name: "Speaker", Category: "Audio", Rating: 6}, "rating"},
		{"negative stock", domain.Product{Name: "Speaker", Category: "Audio", Stock: -2}, "stock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.product
			err := svc.Create(context.Background(), &p)
			require.ErrorIs(t, err, ErrInvalidProduct)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestCreateProduct_InvalidatesCache(t *testing.T) {
	c := newMockCache()
	svc := NewProductService(newMockProductRepository(), c, testLogger())

	p := &domain.Product{Name: "  Bluetooth Speaker ", Category: "Audio", Price: domain.NewMoney(120000)}
	require.NoError(t, svc.Create(context.Background(), p))

	assert.Equal(t, "Bluetooth Speaker", p.Name)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 1, c.invalidations())
}

func TestUpdateProduct(t *testing.T) {
	c := newMockCache()
	svc := NewProductService(newMockProductRepository(laptop()), c, testLogger())

	price := domain.NewMoney(900000)
	p, err := svc.Update(context.Background(), "p1", domain.ProductUpdate{Price: &price})
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(price))
	assert.Equal(t, 1, c.invalidations())

	_, err = svc.Update(context.Background(), "p1", domain.ProductUpdate{})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	empty := " "
	_, err = svc.Update(context.Background(), "p1", domain.ProductUpdate{Name: &empty})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = svc.Update(context.Background(), "nope", domain.ProductUpdate{Price: &price})
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestDeleteProduct(t *testing.T) {
	c := newMockCache()
	svc := NewProductService(newMockProductRepository(laptop()), c, testLogger())

	require.NoError(t, svc.Delete(context.Background(), "p1"))
	assert.Equal(t, 1, c.invalidations())

	_, err := svc.Get(context.Background(), "p1")
	assert.ErrorIs(t, err, repository.ErrProductNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), "p1"), repository.ErrProductNotFound)
}

func TestSeed(t *testing.T) {
	repo := newMockProductRepository(laptop())
	svc := NewProductService(repo, newMockCache(), testLogger())

	err := svc.Seed(context.Background(), []*domain.Product{
		{Name: "Fast-Charging Power Bank", Category: "Accessories", Price: domain.NewMoney(85000)},
		{Name: "", Category: "Audio"},
	})
	require.ErrorIs(t, err, ErrInvalidProduct)

	err = svc.Seed(context.Background(), []*domain.Product{
		{Name: "Fast-Charging Power Bank", Category: "Accessories", Price: domain.NewMoney(85000)},
	})
	require.NoError(t, err)

	page, err := svc.List(context.Background(), domain.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Fast-Charging Power Bank", page.Items[0].Name)
}
