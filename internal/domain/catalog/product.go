package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for catalog lookups.
var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrBrandNotFound    = errors.New("brand not found")
)

// Product represents a catalog item with dual price points. RetailPrice is
// what a retail customer pays; WholesalePrice is what a verified dealer pays.
// MRP is the reference "original" price used to display savings.
type Product struct {
	ID             string
	Code           string
	Name           string
	ImageURL       string
	MRP            decimal.Decimal
	RetailPrice    decimal.Decimal
	WholesalePrice decimal.Decimal
	Stock          int
	CategoryID     string
	CategoryName   string
	BrandID        string
	BrandName      string
	Active         bool
}

// Category groups products for browsing and analytics.
type Category struct {
	ID   string
	Name string
}

// Brand identifies a product manufacturer.
type Brand struct {
	ID   string
	Name string
}

// ProductFilter narrows product listings. Search matches name or code,
// case-insensitively. Empty fields are ignored. IncludeInactive is for the
// admin surface; storefront listings always exclude soft-deleted products.
type ProductFilter struct {
	Search          string
	Category        string
	IncludeInactive bool
}

// Repository defines read and write operations for the product catalog.
// Storefront code only reads; the admin surface mutates.
type Repository interface {
	List(ctx context.Context, filter ProductFilter) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id string) error

	ListBrands(ctx context.Context) ([]Brand, error)
	CreateBrand(ctx context.Context, b *Brand) error
	UpdateBrand(ctx context.Context, b *Brand) error
	DeleteBrand(ctx context.Context, id string) error
}
