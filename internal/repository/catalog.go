package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gkpcrackers/storefront/internal/domain/catalog"
)

const (
	productColumns = `p.id, p.code, p.name, p.image_url, p.mrp, p.retail_price, p.wholesale_price,
		p.stock, COALESCE(p.category_id::text, ''), COALESCE(c.name, ''),
		COALESCE(p.brand_id::text, ''), COALESCE(b.name, ''), p.active`

	listProductsSQL = `SELECT ` + productColumns + `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		LEFT JOIN brands b ON b.id = p.brand_id
		WHERE (p.active OR $3)
		  AND ($1 = '' OR p.name ILIKE '%' || $1 || '%' OR p.code ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR c.name = $2)
		ORDER BY p.code`

	getProductByIDSQL = `SELECT ` + productColumns + `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		LEFT JOIN brands b ON b.id = p.brand_id
		WHERE p.id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		LEFT JOIN brands b ON b.id = p.brand_id
		WHERE p.id = ANY($1)`

	insertProductSQL = `INSERT INTO products
		(code, name, image_url, mrp, retail_price, wholesale_price, stock, category_id, brand_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '')::uuid, NULLIF($9, '')::uuid, $10)
		RETURNING id`

	updateProductSQL = `UPDATE products SET
		code = $2, name = $3, image_url = $4, mrp = $5, retail_price = $6,
		wholesale_price = $7, stock = $8, category_id = NULLIF($9, '')::uuid,
		brand_id = NULLIF($10, '')::uuid, active = $11
		WHERE id = $1`

	deleteProductSQL = `UPDATE products SET active = FALSE WHERE id = $1`

	listCategoriesSQL  = `SELECT id, name FROM categories ORDER BY name`
	insertCategorySQL  = `INSERT INTO categories (name) VALUES ($1) RETURNING id`
	updateCategorySQL  = `UPDATE categories SET name = $2 WHERE id = $1`
	deleteCategorySQL  = `DELETE FROM categories WHERE id = $1`

	listBrandsSQL  = `SELECT id, name FROM brands ORDER BY name`
	insertBrandSQL = `INSERT INTO brands (name) VALUES ($1) RETURNING id`
	updateBrandSQL = `UPDATE brands SET name = $2 WHERE id = $1`
	deleteBrandSQL = `DELETE FROM brands WHERE id = $1`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// List returns products matching the filter, ordered by code. Soft-deleted
// products are excluded unless the filter asks for them.
func (r *CatalogRepository) List(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL, filter.Search, filter.Category, filter.IncludeInactive)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *CatalogRepository) GetByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create inserts a new product and fills in its generated ID.
func (r *CatalogRepository) Create(ctx context.Context, p *catalog.Product) error {
	err := r.pool.QueryRow(ctx, insertProductSQL,
		p.Code, p.Name, p.ImageURL, p.MRP, p.RetailPrice, p.WholesalePrice,
		p.Stock, p.CategoryID, p.BrandID, p.Active,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.Code, err)
	}
	return nil
}

// Update rewrites all mutable columns of the product.
func (r *CatalogRepository) Update(ctx context.Context, p *catalog.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Code, p.Name, p.ImageURL, p.MRP, p.RetailPrice, p.WholesalePrice,
		p.Stock, p.CategoryID, p.BrandID, p.Active,
	)
	if err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

// Delete soft-deletes a product so historical order items keep their
// snapshot context.
func (r *CatalogRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

// ListCategories returns all categories ordered by name.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Category, error) {
		var c catalog.Category
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
}

// ListBrands returns all brands ordered by name.
func (r *CatalogRepository) ListBrands(ctx context.Context) ([]catalog.Brand, error) {
	rows, err := r.pool.Query(ctx, listBrandsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing brands: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Brand, error) {
		var b catalog.Brand
		err := row.Scan(&b.ID, &b.Name)
		return b, err
	})
}

// CreateCategory inserts a new category and fills in its generated ID.
func (r *CatalogRepository) CreateCategory(ctx context.Context, c *catalog.Category) error {
	if err := r.pool.QueryRow(ctx, insertCategorySQL, c.Name).Scan(&c.ID); err != nil {
		return fmt.Errorf("creating category %q: %w", c.Name, err)
	}
	return nil
}

func (r *CatalogRepository) UpdateCategory(ctx context.Context, c *catalog.Category) error {
	tag, err := r.pool.Exec(ctx, updateCategorySQL, c.ID, c.Name)
	if err != nil {
		return fmt.Errorf("updating category %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrCategoryNotFound
	}
	return nil
}

func (r *CatalogRepository) DeleteCategory(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCategorySQL, id)
	if err != nil {
		return fmt.Errorf("deleting category %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrCategoryNotFound
	}
	return nil
}

// CreateBrand inserts a new brand and fills in its generated ID.
func (r *CatalogRepository) CreateBrand(ctx context.Context, b *catalog.Brand) error {
	if err := r.pool.QueryRow(ctx, insertBrandSQL, b.Name).Scan(&b.ID); err != nil {
		return fmt.Errorf("creating brand %q: %w", b.Name, err)
	}
	return nil
}

func (r *CatalogRepository) UpdateBrand(ctx context.Context, b *catalog.Brand) error {
	tag, err := r.pool.Exec(ctx, updateBrandSQL, b.ID, b.Name)
	if err != nil {
		return fmt.Errorf("updating brand %q: %w", b.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrBrandNotFound
	}
	return nil
}

func (r *CatalogRepository) DeleteBrand(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteBrandSQL, id)
	if err != nil {
		return fmt.Errorf("deleting brand %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrBrandNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.ImageURL, &p.MRP, &p.RetailPrice, &p.WholesalePrice,
		&p.Stock, &p.CategoryID, &p.CategoryName, &p.BrandID, &p.BrandName, &p.Active,
	)
	return p, err
}
