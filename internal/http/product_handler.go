package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"productcatalog/internal/apperr"
	"productcatalog/internal/model"
	"productcatalog/internal/service"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func (s *Service) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pageNumber := queryInt(r, "page_number", 1)
	if pageNumber < 1 {
		pageNumber = 1
	}
	pageSize := queryInt(r, "page_size", defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	category := r.URL.Query().Get("category")
	activeOnly := r.URL.Query().Get("active_only") == "true"

	var (
		products []model.Product
		err      error
	)
	switch {
	case category != "":
		products, err = s.productSvc.ListProductsByCategory(ctx, category)
	case activeOnly:
		products, err = s.productSvc.ListActiveProducts(ctx)
	default:
		products, err = s.productSvc.ListProducts(ctx)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, pageProducts(products, pageNumber, pageSize))
}

func (s *Service) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	product, err := s.productSvc.GetProductByID(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, product)
}

func (s *Service) getProductBySku(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	product, err := s.productSvc.GetProductBySku(r.Context(), sku)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, product)
}

func (s *Service) createProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	product, err := s.productSvc.CreateProduct(r.Context(), service.CreateProductParams{
		Name:        req.Name,
		Description: req.Description,
		Sku:         req.Sku,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusCreated, product)
}

func (s *Service) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req UpdateProductRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	product, err := s.productSvc.UpdateProduct(r.Context(), id, service.UpdateProductParams{
		Name:        req.Name,
		Description: req.Description,
		Sku:         req.Sku,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Status:      model.Status(req.Status),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, product)
}

func (s *Service) deactivateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if _, err := s.productSvc.DeactivateProduct(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusNoContent, nil)
}

func (s *Service) deleteProductPermanently(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.productSvc.DeleteProduct(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusNoContent, nil)
}

func (s *Service) checkStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	quantity := queryInt(r, "quantity", 1)
	if quantity < 1 {
		s.respondError(w, r, apperr.InvalidArgument("quantity must be greater than 0, got %d", quantity))
		return
	}

	availability, err := s.productSvc.CheckStock(r.Context(), id, quantity)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if !availability.Exists {
		s.respondError(w, r, apperr.ProductNotFound(id))
		return
	}

	s.respondJSON(w, r, http.StatusOK, StockCheckResponse{
		ProductID: id,
		Quantity:  quantity,
		Exists:    true,
		Available: availability.Available,
		Stock:     availability.Stock,
	})
}

func (s *Service) reduceStock(w http.ResponseWriter, r *http.Request) {
	s.adjustStock(w, r, s.productSvc.ReduceStock)
}

func (s *Service) increaseStock(w http.ResponseWriter, r *http.Request) {
	s.adjustStock(w, r, s.productSvc.IncreaseStock)
}

func (s *Service) adjustStock(
	w http.ResponseWriter,
	r *http.Request,
	adjust func(ctx context.Context, id int64, quantity int) (model.Product, error),
) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req StockAdjustRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	product, err := adjust(r.Context(), id, req.Quantity)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, product)
}

// decode unmarshals the JSON body into dst and runs struct validation.
func (s *Service) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.ValidationErr.WithMsg("invalid request body: %v", err)
	}
	return s.validate.Validate(dst)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.InvalidArgument("invalid product id %q", raw)
	}
	return id, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
