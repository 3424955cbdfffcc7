package http

import (
	"productcatalog/internal/model"
)

// The transport layer validates shape, length and range before the service
// is invoked; the service independently re-checks the business rules
// (price, stock, SKU uniqueness).

type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Sku         string  `json:"sku" validate:"required,max=50,sku"`
	Price       float64 `json:"price" validate:"required,gt=0,lte=999999.99"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Category    string  `json:"category" validate:"omitempty,max=50"`
}

type UpdateProductRequest struct {
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Sku         string  `json:"sku" validate:"required,max=50,sku"`
	Price       float64 `json:"price" validate:"required,gt=0,lte=999999.99"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Category    string  `json:"category" validate:"omitempty,max=50"`
	Status      string  `json:"status" validate:"required,oneof=active inactive"`
}

type StockAdjustRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type StockCheckResponse struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	Exists    bool  `json:"exists"`
	Available bool  `json:"available"`
	Stock     int   `json:"stock"`
}

// PagedProducts is the windowed list envelope. Pagination is composed here
// over the full set returned by the service.
type PagedProducts struct {
	Items      []model.Product `json:"items"`
	PageNumber int             `json:"page_number"`
	PageSize   int             `json:"page_size"`
	TotalCount int             `json:"total_count"`
	TotalPages int             `json:"total_pages"`
}

func pageProducts(products []model.Product, pageNumber, pageSize int) PagedProducts {
	totalCount := len(products)
	totalPages := (totalCount + pageSize - 1) / pageSize

	start := (pageNumber - 1) * pageSize
	if start > totalCount {
		start = totalCount
	}
	end := start + pageSize
	if end > totalCount {
		end = totalCount
	}

	return PagedProducts{
		Items:      products[start:end],
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
