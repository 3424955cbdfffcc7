package apperr

import (
	"productcatalog/pkg/zerror"
)

const (
	ValidationErrorCode   = "VALIDATION_FAILED"
	ProductNotFoundCode   = "PRODUCT_NOT_FOUND"
	DuplicateSkuCode      = "DUPLICATE_SKU"
	InvalidArgumentCode   = "INVALID_ARGUMENT"
	InsufficientStockCode = "INSUFFICIENT_STOCK"
	RateLimitedCode       = "RATE_LIMITED"
)

var (
	ValidationErr  = zerror.NewValidationFailed(ValidationErrorCode, "validation error")
	RateLimitedErr = zerror.NewTooManyRequests(RateLimitedCode, "too many requests")
)

// ProductNotFound reports that no product exists with the given id.
// Every operation in the service signals absence this way; there is no
// boolean-vs-error split across operations.
func ProductNotFound(id int64) zerror.ZError {
	return zerror.NewNotFound(ProductNotFoundCode, "product not found").
		WithMsg("product with id %d not found", id).
		WithMeta("product_id", id)
}

// ProductNotFoundBySku reports that no product exists with the given SKU.
func ProductNotFoundBySku(sku string) zerror.ZError {
	return zerror.NewNotFound(ProductNotFoundCode, "product not found").
		WithMsg("product with sku %q not found", sku).
		WithMeta("sku", sku)
}

// DuplicateSku reports that a create or update would leave two products
// sharing a normalized SKU.
func DuplicateSku(sku string) zerror.ZError {
	return zerror.NewConflict(DuplicateSkuCode, "duplicate sku").
		WithMsg("a product with sku %q already exists", sku).
		WithMeta("sku", sku)
}

// InvalidArgument reports a value violating a structural business rule
// (non-positive price, negative stock, non-positive quantity).
func InvalidArgument(format string, args ...any) zerror.ZError {
	return zerror.NewBadRequest(InvalidArgumentCode, "invalid argument").
		WithMsg(format, args...)
}

// InsufficientStock reports a stock reduction exceeding current stock,
// carrying both quantities for diagnostics.
func InsufficientStock(available, requested int) zerror.ZError {
	return zerror.NewUnprocessableEntity(InsufficientStockCode, "insufficient stock").
		WithMsg("insufficient stock: available %d, requested %d", available, requested).
		WithMeta("available", available).
		WithMeta("requested", requested)
}
