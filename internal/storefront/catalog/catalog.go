// Package catalog merges backend products with products saved locally by the
// admin page and renders the shop grid.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/storefront/api"
	"github.com/retisha256/ecommerce/internal/storefront/cart"
	"github.com/retisha256/ecommerce/internal/storefront/storage"
)

const (
	defaultName     = "Product"
	defaultCategory = "General"
	loadLimit       = 100
)

var ErrProductNotFound = errors.New("product not found")

// ProductSource is the backend the catalog reads from.
type ProductSource interface {
	GetProducts(ctx context.Context, params api.ProductParams) (*api.ProductList, error)
}

type Catalog struct {
	source ProductSource
	store  storage.Store
	log    *slog.Logger

	mu       sync.RWMutex
	remote   []*domain.Product
	products []*domain.Product
	localIDs map[string]string
}

func New(source ProductSource, store storage.Store, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	return &Catalog{
		source:   source,
		store:    store,
		log:      log.With("component", "catalog"),
		localIDs: make(map[string]string),
	}
}

// Load fetches backend products and merges in local ones. A backend failure
// is logged and treated as an empty list.
func (c *Catalog) Load(ctx context.Context) []*domain.Product {
	var remote []*domain.Product
	if c.source != nil {
		res, err := c.source.GetProducts(ctx, api.ProductParams{Limit: loadLimit})
		if err != nil {
			c.log.WarnContext(ctx, "API products load failed, falling back to local products", "error", err)
		} else {
			remote = res.Data
		}
	}

	c.mu.Lock()
	c.remote = remote
	c.mu.Unlock()
	return c.remerge()
}

// Sync re-merges whenever another handle changes the local product list.
func (c *Catalog) Sync(ctx context.Context, onChange func([]*domain.Product)) {
	for ch := range c.store.Watch(ctx) {
		if ch.Key != storage.KeyAdminProducts {
			continue
		}
		products := c.remerge()
		if onChange != nil {
			onChange(products)
		}
	}
}

func (c *Catalog) remerge() []*domain.Product {
	var local []*domain.Product
	if _, err := storage.LoadJSON(c.store, storage.KeyAdminProducts, &local); err != nil {
		c.log.Warn("failed to load local products", "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = merge(c.remote, local, c.localIDLocked)
	return append([]*domain.Product(nil), c.products...)
}

// localIDLocked keeps generated ids stable across re-merges.
func (c *Catalog) localIDLocked(nameKey string) string {
	if id, ok := c.localIDs[nameKey]; ok {
		return id
	}
	id := newLocalID()
	c.localIDs[nameKey] = id
	return id
}

func (c *Catalog) Products() []*domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*domain.Product(nil), c.products...)
}

// Search matches query case-insensitively against name, category and
// description. An empty query returns everything.
func (c *Catalog) Search(query string) []*domain.Product {
	return Filter(c.Products(), query)
}

// AddToCart looks the product up in the current list, so it works no matter
// how often the grid has been re-rendered since.
func (c *Catalog) AddToCart(id string, m *cart.Manager) error {
	c.mu.RLock()
	var found *domain.Product
	for _, p := range c.products {
		if p.ID == id {
			found = p
			break
		}
	}
	c.mu.RUnlock()

	if found == nil {
		return fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	m.AddToCart(cart.ProductRef{
		ID:       found.ID,
		Name:     found.Name,
		Category: found.Category,
		Image:    found.Image,
		Price:    found.Price,
	})
	return nil
}

// Merge combines backend and local products. Names are compared trimmed and
// case-insensitively; on a clash the backend product wins.
func Merge(remote, local []*domain.Product) []*domain.Product {
	return merge(remote, local, func(string) string { return newLocalID() })
}

func merge(remote, local []*domain.Product, idFor func(nameKey string) string) []*domain.Product {
	seen := make(map[string]bool, len(remote))
	for _, p := range remote {
		seen[p.NameKey()] = true
	}

	out := make([]*domain.Product, 0, len(remote)+len(local))
	for _, p := range remote {
		out = append(out, normalize(p, idFor))
	}
	for _, p := range local {
		key := p.NameKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, normalize(p, idFor))
	}
	return out
}

func normalize(p *domain.Product, idFor func(string) string) *domain.Product {
	n := &domain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
		Stock:       p.Stock,
		Featured:    p.Featured,
		Rating:      p.Rating,
	}
	if n.ID == "" {
		n.ID = idFor(p.NameKey())
	}
	if n.Name == "" {
		n.Name = defaultName
	}
	if n.Category == "" {
		n.Category = defaultCategory
	}
	if n.Image == "" {
		n.Image = domain.PlaceholderImage
	}
	return n
}

func newLocalID() string {
	return fmt.Sprintf("local-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:6])
}

func Filter(products []*domain.Product, query string) []*domain.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return products
	}
	var out []*domain.Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Category), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out
}
