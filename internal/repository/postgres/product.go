package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gritworks/storefront/internal/domain"
)

// ProductRepository implements domain.ProductRepository for PostgreSQL.
// The whole variant/option tree is written with the product row, so every
// mutation below the product level still goes through Update.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new PostgreSQL product repository
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, category, subcategory, price, description, images, variants, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, version, created_at, updated_at
	`

	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	if product.Variants == nil {
		product.Variants = domain.VariantList{}
	}

	err := r.db.QueryRowxContext(
		ctx,
		query,
		product.Name,
		product.Category,
		product.Subcategory,
		product.Price,
		product.Description,
		product.Images,
		product.Variants,
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(
		&product.ID,
		&product.Version,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		return err
	}

	return nil
}

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT id, name, category, subcategory, price, description, images, variants, version, created_at, updated_at, deleted_at
		FROM products
		WHERE id = $1 AND deleted_at IS NULL
	`

	var product domain.Product
	err := r.db.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &product, nil
}

// List retrieves a paginated list of products
func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	query := `
		SELECT id, name, category, subcategory, price, description, images, variants, version, created_at, updated_at, deleted_at
		FROM products
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	var products []*domain.Product
	err := r.db.SelectContext(ctx, &products, query, limit, offset)
	if err != nil {
		return nil, err
	}

	return products, nil
}

// Update rewrites the aggregate row. The version predicate makes the write
// conditional: a concurrent writer that committed first bumps the version
// and this write returns domain.ErrConflict.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $1, category = $2, subcategory = $3, price = $4, description = $5,
		    images = $6, variants = $7, updated_at = $8, version = version + 1
		WHERE id = $9 AND deleted_at IS NULL AND version = $10
		RETURNING version, updated_at
	`

	product.UpdatedAt = time.Now()
	oldVersion := product.Version

	err := r.db.QueryRowxContext(
		ctx,
		query,
		product.Name,
		product.Category,
		product.Subcategory,
		product.Price,
		product.Description,
		product.Images,
		product.Variants,
		product.UpdatedAt,
		product.ID,
		oldVersion,
	).Scan(&product.Version, &product.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrConflict
		}
		return err
	}

	return nil
}

// Delete soft-deletes a product. Variants and options live inside the row,
// so the cascade is a single atomic write.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE products
		SET deleted_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Count returns the total number of products
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM products WHERE deleted_at IS NULL`

	var count int
	err := r.db.GetContext(ctx, &count, query)
	if err != nil {
		return 0, err
	}

	return count, nil
}
