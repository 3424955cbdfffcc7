package model

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a product that still exists in storage.
// A hard-deleted product has no state; it is simply gone.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Product is the catalog entity. ID and CreatedAt are assigned by the
// repository on create and never change afterwards; UpdatedAt is stamped by
// every mutating operation.
type Product struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Sku         string     `json:"sku"`
	Price       float64    `json:"price"`
	Stock       int        `json:"stock"`
	Category    string     `json:"category,omitempty"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// IsActive reports whether the product is visible to active-only listings.
func (p Product) IsActive() bool {
	return p.Status == StatusActive
}

// NormalizeSku produces the canonical comparison form of a SKU:
// surrounding whitespace removed, upper case. Uniqueness is enforced on this
// form, which makes SKU comparison case-insensitive. Idempotent.
func NormalizeSku(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

// NormalizeName trims surrounding whitespace from a product name. Idempotent.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// Normalize returns a copy of p with name, description, SKU and category in
// canonical form.
func (p Product) Normalize() Product {
	p.Name = NormalizeName(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.Sku = NormalizeSku(p.Sku)
	p.Category = strings.TrimSpace(p.Category)
	return p
}
