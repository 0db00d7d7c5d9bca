// Package cart keeps the customer's cart in client storage and tells
// listeners (badge, cart table) whenever it changes.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/storefront/notify"
	"github.com/retisha256/ecommerce/internal/storefront/storage"
)

const (
	defaultName  = "Unknown Product"
	addedMessage = "Product added to cart!"
)

// ProductRef is what a product card hands to AddToCart. Price is already a
// Money value; string prices are parsed where they enter the program.
type ProductRef struct {
	ID       string
	Name     string
	Category string
	Image    string
	Price    domain.Money
}

// Snapshot is the cart state delivered to listeners.
type Snapshot struct {
	Items []domain.CartItem
	Count int
	Total domain.Money
}

type Option func(*Manager)

func WithNotifier(n notify.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// Manager owns the cart. Every mutation writes the whole cart back to the
// store; concurrent writers on other handles follow last-write-wins.
type Manager struct {
	store    storage.Store
	notifier notify.Notifier
	log      *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	items     []domain.CartItem
	listeners map[int]func(Snapshot)
	nextID    int
}

func NewManager(store storage.Store, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		notifier:  notify.Nop{},
		log:       slog.Default(),
		now:       time.Now,
		listeners: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("component", "cart")
	m.items = m.load()
	return m
}

// load reads the persisted cart. Older entries without a numeric price get
// one from their label; entries with a quantity below 1 are dropped.
func (m *Manager) load() []domain.CartItem {
	var stored []domain.CartItem
	if _, err := storage.LoadJSON(m.store, storage.KeyCart, &stored); err != nil {
		m.log.Warn("failed to load cart", "error", err)
	}
	items := stored[:0]
	for _, it := range stored {
		if it.Quantity < 1 {
			continue
		}
		if it.PriceValue.IsZero() && it.Price != "" {
			it.PriceValue = domain.ParseMoney(it.Price)
		}
		items = append(items, it)
	}
	return items
}

func (m *Manager) AddToCart(p ProductRef) {
	m.mu.Lock()
	if i := m.indexOf(p.ID); p.ID != "" && i >= 0 {
		m.items[i].Quantity++
	} else {
		id := p.ID
		if id == "" {
			id = m.generateIDLocked()
		}
		name := p.Name
		if name == "" {
			name = defaultName
		}
		m.items = append(m.items, domain.CartItem{
			ID:         id,
			Name:       name,
			Category:   p.Category,
			Image:      p.Image,
			Price:      p.Price.Format(),
			PriceValue: p.Price,
			Quantity:   1,
		})
	}
	snap := m.commitLocked()
	m.mu.Unlock()

	m.fire(snap)
	m.notifier.Notify(notify.Success, addedMessage)
}

func (m *Manager) RemoveFromCart(id string) {
	m.mu.Lock()
	m.removeLocked(id)
	snap := m.commitLocked()
	m.mu.Unlock()
	m.fire(snap)
}

// UpdateQuantity adds delta to an item's quantity, removing it at zero or below.
func (m *Manager) UpdateQuantity(id string, delta int) {
	m.mu.Lock()
	i := m.indexOf(id)
	if i < 0 {
		m.mu.Unlock()
		return
	}
	m.items[i].Quantity += delta
	if m.items[i].Quantity <= 0 {
		m.removeLocked(id)
	}
	snap := m.commitLocked()
	m.mu.Unlock()
	m.fire(snap)
}

// SetQuantity replaces the quantity, as typed into the cart table. Anything
// below one removes the item.
func (m *Manager) SetQuantity(id string, n int) {
	m.mu.Lock()
	if n <= 0 {
		m.removeLocked(id)
	} else if i := m.indexOf(id); i >= 0 {
		m.items[i].Quantity = n
	} else {
		m.mu.Unlock()
		return
	}
	snap := m.commitLocked()
	m.mu.Unlock()
	m.fire(snap)
}

func (m *Manager) Clear() {
	m.mu.Lock()
	m.items = nil
	snap := m.commitLocked()
	m.mu.Unlock()
	m.fire(snap)
}

func (m *Manager) Items() []domain.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CartItem(nil), m.items...)
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Total is the sum of price times quantity over all items.
func (m *Manager) Total() domain.Money {
	return m.Snapshot().Total
}

// Count is the badge number: the sum of all quantities.
func (m *Manager) Count() int {
	return m.Snapshot().Count
}

// Subscribe registers fn for every change and returns a function that
// removes it.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Refresh reloads the cart from storage, picking up writes made elsewhere.
func (m *Manager) Refresh() {
	items := m.load()
	m.mu.Lock()
	m.items = items
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.fire(snap)
}

// Sync refreshes the cart whenever another handle writes it, until ctx ends.
func (m *Manager) Sync(ctx context.Context) {
	for c := range m.store.Watch(ctx) {
		if c.Key == storage.KeyCart {
			m.Refresh()
		}
	}
}

func (m *Manager) indexOf(id string) int {
	for i, it := range m.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// generateIDLocked returns a millisecond timestamp id that is not already in
// the cart.
func (m *Manager) generateIDLocked() string {
	base := strconv.FormatInt(m.now().UnixMilli(), 10)
	id := base
	for n := 1; m.indexOf(id) >= 0; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

func (m *Manager) removeLocked(id string) {
	kept := m.items[:0]
	for _, it := range m.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	m.items = kept
}

func (m *Manager) commitLocked() Snapshot {
	items := m.items
	if items == nil {
		items = []domain.CartItem{}
	}
	if err := storage.SaveJSON(m.store, storage.KeyCart, items); err != nil {
		m.log.Error("failed to persist cart", "error", err)
	}
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	s := Snapshot{Items: append([]domain.CartItem(nil), m.items...)}
	for _, it := range m.items {
		s.Count += it.Quantity
		s.Total = s.Total.Add(it.Subtotal())
	}
	return s
}

func (m *Manager) fire(s Snapshot) {
	m.mu.Lock()
	fns := make([]func(Snapshot), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}
