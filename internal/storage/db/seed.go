package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type seedProduct struct {
	name        string
	description string
	sku         string
	price       float64
	stock       int
	category    string
}

var seedProducts = []seedProduct{
	{
		name:        "Laptop Dell XPS 15",
		description: "High performance laptop with Intel i7 and 16GB RAM",
		sku:         "DELL-XPS15-001",
		price:       1299.99,
		stock:       50,
		category:    "Electronics",
	},
	{
		name:        "Wireless Mouse Logitech MX Master 3",
		description: "Ergonomic wireless mouse for productivity",
		sku:         "LOGI-MX3-001",
		price:       99.99,
		stock:       150,
		category:    "Accessories",
	},
	{
		name:        "Mechanical Keyboard Keychron K2",
		description: "Compact wireless mechanical keyboard",
		sku:         "KEY-K2-001",
		price:       79.99,
		stock:       100,
		category:    "Accessories",
	},
	{
		name:        "USB-C Hub Anker 7-in-1",
		description: "Multi-port USB-C hub with HDMI and SD card reader",
		sku:         "ANK-HUB-001",
		price:       49.99,
		stock:       200,
		category:    "Accessories",
	},
	{
		name:        "Monitor LG 27 UltraFine 4K",
		description: "27-inch 4K UHD IPS monitor",
		sku:         "LG-27UK-001",
		price:       599.99,
		stock:       30,
		category:    "Electronics",
	},
}

// Seed inserts the sample catalog. It is a no-op when the products table
// already contains rows, so it is safe to run on every deploy.
func Seed(ctx context.Context, db DB) (int, error) {
	var count int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	inserted := 0
	if err := db.WithTx(ctx, func(tx DB) error {
		for _, p := range seedProducts {
			tag, err := tx.Exec(ctx, `
				INSERT INTO products (name, description, sku, price, stock, category, status)
				VALUES (@name, @description, @sku, @price, @stock, @category, 'active')
				ON CONFLICT (sku) DO NOTHING
			`, pgx.NamedArgs{
				"name":        p.name,
				"description": p.description,
				"sku":         p.sku,
				"price":       p.price,
				"stock":       p.stock,
				"category":    p.category,
			})
			if err != nil {
				return fmt.Errorf("insert seed product %q: %w", p.sku, err)
			}
			// ON CONFLICT DO NOTHING reports zero affected rows for
			// skipped duplicates; only count real inserts.
			inserted += int(tag.RowsAffected())
		}
		return nil
	}); err != nil {
		return 0, err
	}

	return inserted, nil
}
