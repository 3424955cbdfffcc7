package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"productcatalog/internal/apperr"
	"productcatalog/internal/model"
	"productcatalog/internal/storage/db"
)

// ProductRepository is the persistence contract the product service depends
// on. Absence of a product surfaces as apperr.ProductNotFound; the service
// never sees storage mechanics.
type ProductRepository interface {
	WithDB(db db.DB) ProductRepository

	ListProducts(ctx context.Context) ([]model.Product, error)
	ListProductsByCategory(ctx context.Context, category string) ([]model.Product, error)
	ListActiveProducts(ctx context.Context) ([]model.Product, error)
	GetProductByID(ctx context.Context, id int64) (model.Product, error)
	GetProductBySku(ctx context.Context, sku string) (model.Product, error)

	CreateProduct(ctx context.Context, product model.Product) (model.Product, error)
	UpdateProduct(ctx context.Context, product model.Product) (model.Product, error)
	DeleteProduct(ctx context.Context, id int64) (bool, error)
	ExistsBySku(ctx context.Context, sku string, excludeID *int64) (bool, error)

	// AdjustStock applies stock = stock + delta as a single conditional
	// write: the update only happens when the resulting stock would be
	// non-negative. It returns the updated product, or applied=false when
	// the product exists but the condition failed. Two concurrent
	// reductions can therefore never drive stock below zero.
	AdjustStock(ctx context.Context, id int64, delta int) (product model.Product, applied bool, err error)
}

const productColumns = `id, name, description, sku, price, stock, category, status, created_at, updated_at`

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return collectProducts(rows)
}

func (r productRepository) ListProductsByCategory(ctx context.Context, category string) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE category = @category
		ORDER BY id
	`, pgx.NamedArgs{"category": category})
	if err != nil {
		return nil, fmt.Errorf("list products by category: %w", err)
	}
	return collectProducts(rows)
}

func (r productRepository) ListActiveProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE status = @status
		ORDER BY id
	`, pgx.NamedArgs{"status": model.StatusActive})
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	return collectProducts(rows)
}

func (r productRepository) GetProductByID(ctx context.Context, id int64) (model.Product, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = @id
	`, pgx.NamedArgs{"id": id})

	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, apperr.ProductNotFound(id)
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

func (r productRepository) GetProductBySku(ctx context.Context, sku string) (model.Product, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE sku = @sku
	`, pgx.NamedArgs{"sku": sku})

	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, apperr.ProductNotFoundBySku(sku)
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("get product by sku: %w", err)
	}
	return product, nil
}

func (r productRepository) CreateProduct(ctx context.Context, product model.Product) (model.Product, error) {
	price, err := priceNumeric(product.Price)
	if err != nil {
		return model.Product{}, err
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO products (name, description, sku, price, stock, category, status)
		VALUES (@name, @description, @sku, @price, @stock, @category, @status)
		RETURNING `+productColumns+`
	`, pgx.NamedArgs{
		"name":        product.Name,
		"description": product.Description,
		"sku":         product.Sku,
		"price":       price,
		"stock":       product.Stock,
		"category":    product.Category,
		"status":      product.Status,
	})

	created, err := scanProduct(row)
	if db.IsUniqueViolation(err, "products_sku_key") {
		return model.Product{}, apperr.DuplicateSku(product.Sku).WrapParent(err)
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

func (r productRepository) UpdateProduct(ctx context.Context, product model.Product) (model.Product, error) {
	price, err := priceNumeric(product.Price)
	if err != nil {
		return model.Product{}, err
	}

	row := r.db.QueryRow(ctx, `
		UPDATE products
		SET name        = @name,
		    description = @description,
		    sku         = @sku,
		    price       = @price,
		    stock       = @stock,
		    category    = @category,
		    status      = @status,
		    updated_at  = NOW()
		WHERE id = @id
		RETURNING `+productColumns+`
	`, pgx.NamedArgs{
		"id":          product.ID,
		"name":        product.Name,
		"description": product.Description,
		"sku":         product.Sku,
		"price":       price,
		"stock":       product.Stock,
		"category":    product.Category,
		"status":      product.Status,
	})

	updated, err := scanProduct(row)
	if db.IsUniqueViolation(err, "products_sku_key") {
		return model.Product{}, apperr.DuplicateSku(product.Sku).WrapParent(err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, apperr.ProductNotFound(product.ID)
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

func (r productRepository) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM products
		WHERE id = @id
	`, pgx.NamedArgs{"id": id})
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r productRepository) ExistsBySku(ctx context.Context, sku string, excludeID *int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM products
			WHERE sku = @sku
			  AND (@exclude_id::bigint IS NULL OR id <> @exclude_id)
		)
	`, pgx.NamedArgs{"sku": sku, "exclude_id": excludeID}).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists by sku: %w", err)
	}
	return exists, nil
}

func (r productRepository) AdjustStock(ctx context.Context, id int64, delta int) (model.Product, bool, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE products
		SET stock      = stock + @delta,
		    updated_at = NOW()
		WHERE id = @id
		  AND stock + @delta >= 0
		RETURNING `+productColumns+`
	`, pgx.NamedArgs{"id": id, "delta": delta})

	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the product is missing or the condition failed;
		// the caller distinguishes via a follow-up read.
		return model.Product{}, false, nil
	}
	if err != nil {
		return model.Product{}, false, fmt.Errorf("adjust stock: %w", err)
	}
	return product, true, nil
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var (
		product model.Product
		price   pgtype.Numeric
	)
	if err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Sku,
		&price,
		&product.Stock,
		&product.Category,
		&product.Status,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		return model.Product{}, err
	}

	priceValue, err := price.Float64Value()
	if err != nil {
		return model.Product{}, fmt.Errorf("convert price to float64: %w", err)
	}
	product.Price = priceValue.Float64

	return product, nil
}

func priceNumeric(price float64) (pgtype.Numeric, error) {
	var numeric pgtype.Numeric
	if err := numeric.Scan(fmt.Sprintf("%.2f", price)); err != nil {
		return pgtype.Numeric{}, fmt.Errorf("scan price: %w", err)
	}
	return numeric, nil
}
