package domain

import (
	"strings"
	"time"
)

// PlaceholderImage is shown for products that were saved without a picture.
const PlaceholderImage = "img1.png"

type Product struct {
	ID          string    `json:"_id" bson:"-"`
	Name        string    `json:"name" bson:"name"`
	Category    string    `json:"category" bson:"category"`
	Description string    `json:"description" bson:"description"`
	Price       Money     `json:"price" bson:"price"`
	Image       string    `json:"image" bson:"imageUrl"`
	Stock       int       `json:"stock" bson:"stock"`
	Featured    bool      `json:"featured" bson:"featured"`
	Rating      float64   `json:"rating" bson:"rating"`
	Tags        []string  `json:"tags,omitempty" bson:"tags,omitempty"`
	IsActive    bool      `json:"isActive" bson:"isActive"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// NameKey is the identity used when reconciling catalogs from different
// sources: trimmed and case-folded.
func (p Product) NameKey() string {
	return NameKey(p.Name)
}

func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ProductFilter narrows a catalog listing. Zero values mean "no filter".
type ProductFilter struct {
	Query    string
	Category string
	Featured *bool
	Limit    int
	Page     int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 1_000_000
)

// Normalize clamps paging to sane bounds.
func (f ProductFilter) Normalize() ProductFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	f.Query = strings.TrimSpace(f.Query)
	f.Category = strings.TrimSpace(f.Category)
	return f
}

// ProductUpdate carries the fields an admin edit changes; nil means untouched.
type ProductUpdate struct {
	Name        *string   `json:"name"`
	Category    *string   `json:"category"`
	Description *string   `json:"description"`
	Price       *Money    `json:"price"`
	Image       *string   `json:"image"`
	Stock       *int      `json:"stock"`
	Featured    *bool     `json:"featured"`
	Rating      *float64  `json:"rating"`
	Tags        *[]string `json:"tags"`
}

func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Category == nil && u.Description == nil && u.Price == nil &&
		u.Image == nil && u.Stock == nil && u.Featured == nil && u.Rating == nil && u.Tags == nil
}

type ProductPage struct {
	Items []*Product
	Total int64
	Page  int
	Limit int
}

func (p ProductPage) Pages() int {
	if p.Limit <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Limit) - 1) / int64(p.Limit))
}

// Skip is the number of products before the requested page.
func (f ProductFilter) Skip() int64 {
	return int64(f.Page-1) * int64(f.Limit)
}
