// Package memory provides an in-memory ProductRepository used by tests and
// local development. It mirrors the Postgres implementation's semantics:
// SKU uniqueness on write and conditional stock adjustment under a lock.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"productcatalog/internal/apperr"
	"productcatalog/internal/model"
	"productcatalog/internal/repository"
	"productcatalog/internal/storage/db"
)

type ProductRepository struct {
	mu       sync.RWMutex
	products map[int64]model.Product
	nextID   int64
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		products: make(map[int64]model.Product),
		nextID:   1,
	}
}

// WithDB is a no-op: the in-memory store has no transaction scope.
func (r *ProductRepository) WithDB(_ db.DB) repository.ProductRepository {
	return r
}

func (r *ProductRepository) ListProducts(_ context.Context) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(model.Product) bool { return true }), nil
}

func (r *ProductRepository) ListProductsByCategory(_ context.Context, category string) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(p model.Product) bool { return p.Category == category }), nil
}

func (r *ProductRepository) ListActiveProducts(_ context.Context) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(model.Product.IsActive), nil
}

func (r *ProductRepository) GetProductByID(_ context.Context, id int64) (model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return model.Product{}, apperr.ProductNotFound(id)
	}
	return product, nil
}

func (r *ProductRepository) GetProductBySku(_ context.Context, sku string) (model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, product := range r.products {
		if product.Sku == sku {
			return product, nil
		}
	}
	return model.Product{}, apperr.ProductNotFoundBySku(sku)
}

func (r *ProductRepository) CreateProduct(_ context.Context, product model.Product) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.skuTaken(product.Sku, nil) {
		return model.Product{}, apperr.DuplicateSku(product.Sku)
	}

	product.ID = r.nextID
	r.nextID++
	product.CreatedAt = time.Now()
	product.UpdatedAt = nil

	r.products[product.ID] = product
	return product, nil
}

func (r *ProductRepository) UpdateProduct(_ context.Context, product model.Product) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return model.Product{}, apperr.ProductNotFound(product.ID)
	}
	if r.skuTaken(product.Sku, &product.ID) {
		return model.Product{}, apperr.DuplicateSku(product.Sku)
	}

	product.CreatedAt = existing.CreatedAt
	now := time.Now()
	product.UpdatedAt = &now

	r.products[product.ID] = product
	return product, nil
}

func (r *ProductRepository) DeleteProduct(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return false, nil
	}
	delete(r.products, id)
	return true, nil
}

func (r *ProductRepository) ExistsBySku(_ context.Context, sku string, excludeID *int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.skuTaken(sku, excludeID), nil
}

func (r *ProductRepository) AdjustStock(_ context.Context, id int64, delta int) (model.Product, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return model.Product{}, false, nil
	}
	if product.Stock+delta < 0 {
		return model.Product{}, false, nil
	}

	product.Stock += delta
	now := time.Now()
	product.UpdatedAt = &now

	r.products[id] = product
	return product, true, nil
}

func (r *ProductRepository) skuTaken(sku string, excludeID *int64) bool {
	for _, product := range r.products {
		if excludeID != nil && product.ID == *excludeID {
			continue
		}
		if product.Sku == sku {
			return true
		}
	}
	return false
}

func (r *ProductRepository) collect(keep func(model.Product) bool) []model.Product {
	products := make([]model.Product, 0, len(r.products))
	for _, product := range r.products {
		if keep(product) {
			products = append(products, product)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products
}
