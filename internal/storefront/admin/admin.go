// Package admin is the product form of the admin page.
package admin

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/storefront/notify"
	"github.com/retisha256/ecommerce/internal/storefront/storage"
)

var (
	ErrMissingFields = errors.New("please fill in all required fields")
	ErrCreateFailed  = errors.New("failed to create product")
)

// Uploader creates a product on the server from a multipart form.
type Uploader interface {
	UploadImage(ctx context.Context, p *domain.Product, image io.Reader, fileName string) (*domain.Product, error)
}

type ProductForm struct {
	Name        string
	Category    string
	Price       domain.Money
	Description string
	Image       io.Reader
	ImageName   string
}

type Admin struct {
	store    storage.Store
	uploader Uploader
	notifier notify.Notifier
	log      *slog.Logger
	now      func() time.Time
}

func New(store storage.Store, uploader Uploader, notifier notify.Notifier, log *slog.Logger) *Admin {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Admin{
		store:    store,
		uploader: uploader,
		notifier: notifier,
		log:      log.With("component", "admin"),
		now:      time.Now,
	}
}

// Create sends the product to the server. If that fails the product is kept
// in local storage with its image inlined, and the second return value is true.
func (a *Admin) Create(ctx context.Context, f ProductForm) (*domain.Product, bool, error) {
	p := &domain.Product{
		Name:        strings.TrimSpace(f.Name),
		Category:    strings.TrimSpace(f.Category),
		Description: strings.TrimSpace(f.Description),
		Price:       f.Price,
	}
	if p.Name == "" || p.Category == "" || !p.Price.IsPositive() || f.Image == nil {
		a.notifier.Notify(notify.Error, "Please fill in all required fields")
		return nil, false, ErrMissingFields
	}

	image, err := io.ReadAll(f.Image)
	if err != nil || len(image) == 0 {
		a.notifier.Notify(notify.Error, "Please fill in all required fields")
		return nil, false, ErrMissingFields
	}

	if a.uploader != nil {
		created, err := a.uploader.UploadImage(ctx, p, bytes.NewReader(image), f.ImageName)
		if err == nil {
			a.notifier.Notify(notify.Success, "Product created successfully")
			return created, false, nil
		}
		a.log.WarnContext(ctx, "API create failed, falling back to local save", "error", err)
	}

	p.ID = fmt.Sprintf("local-%d", a.now().UnixMilli())
	p.Image = dataURI(image)
	p.IsActive = true
	p.CreatedAt = a.now().UTC()
	if err := a.saveLocal(p); err != nil {
		a.log.ErrorContext(ctx, "local fallback also failed", "error", err)
		a.notifier.Notify(notify.Error, "Failed to create product")
		return nil, false, fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}
	a.notifier.Notify(notify.Success, "Saved locally (server unavailable)")
	return p, true, nil
}

func (a *Admin) saveLocal(p *domain.Product) error {
	var local []*domain.Product
	if _, err := storage.LoadJSON(a.store, storage.KeyAdminProducts, &local); err != nil {
		return err
	}
	local = append([]*domain.Product{p}, local...)
	return storage.SaveJSON(a.store, storage.KeyAdminProducts, local)
}

// Recent returns up to n locally saved products, newest first.
func (a *Admin) Recent(n int) ([]*domain.Product, error) {
	var local []*domain.Product
	if _, err := storage.LoadJSON(a.store, storage.KeyAdminProducts, &local); err != nil {
		return nil, err
	}
	if n > 0 && len(local) > n {
		local = local[:n]
	}
	return local, nil
}

func dataURI(data []byte) string {
	return "data:" + mimetype.Detect(data).String() + ";base64," + base64.StdEncoding.EncodeToString(data)
}
