package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"productcatalog/internal/apperr"
	"productcatalog/internal/event"
	"productcatalog/internal/model"
	"productcatalog/internal/repository"
	"productcatalog/internal/storage/db"
	"productcatalog/pkg/outbox"
	"productcatalog/pkg/ptr"
	"productcatalog/pkg/zerror"
)

type CreateProductParams struct {
	Name        string
	Description string
	Sku         string
	Price       float64
	Stock       int
	Category    string
}

type UpdateProductParams struct {
	Name        string
	Description string
	Sku         string
	Price       float64
	Stock       int
	Category    string
	Status      model.Status
}

// StockAvailability separates "product exists" from "enough stock", so
// callers never have to guess which condition a bare false meant.
type StockAvailability struct {
	Exists    bool
	Available bool
	Stock     int
}

// ProductService enforces the catalog business rules: SKU uniqueness,
// price/stock validation, soft-vs-hard deletion and non-negative stock
// adjustment. It is stateless; all state lives behind ProductRepository.
type ProductService interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListProductsByCategory(ctx context.Context, category string) ([]model.Product, error)
	ListActiveProducts(ctx context.Context) ([]model.Product, error)
	GetProductByID(ctx context.Context, id int64) (model.Product, error)
	GetProductBySku(ctx context.Context, sku string) (model.Product, error)

	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	UpdateProduct(ctx context.Context, id int64, params UpdateProductParams) (model.Product, error)

	// DeactivateProduct soft deletes: the product stays in storage with
	// status inactive and remains retrievable by id and SKU.
	DeactivateProduct(ctx context.Context, id int64) (model.Product, error)
	// DeleteProduct hard deletes: the row is removed permanently. There
	// is no path back.
	DeleteProduct(ctx context.Context, id int64) error

	CheckStock(ctx context.Context, id int64, quantity int) (StockAvailability, error)
	ReduceStock(ctx context.Context, id int64, quantity int) (model.Product, error)
	IncreaseStock(ctx context.Context, id int64, quantity int) (model.Product, error)
}

type productService struct {
	db            db.DB
	productRepo   repository.ProductRepository
	outboxMsgRepo repository.OutboxMsgRepository
	logger        *slog.Logger
}

func NewProductService(
	db db.DB,
	productRepo repository.ProductRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
	logger *slog.Logger,
) ProductService {
	return &productService{
		db:            db,
		productRepo:   productRepo,
		outboxMsgRepo: outboxMsgRepo,
		logger:        logger.With(slog.String("service", "product")),
	}
}

func (s *productService) ListProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("product repository list products: %w", err)
	}
	return products, nil
}

func (s *productService) ListProductsByCategory(ctx context.Context, category string) ([]model.Product, error) {
	products, err := s.productRepo.ListProductsByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("product repository list products by category: %w", err)
	}
	return products, nil
}

func (s *productService) ListActiveProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.ListActiveProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("product repository list active products: %w", err)
	}
	return products, nil
}

func (s *productService) GetProductByID(ctx context.Context, id int64) (model.Product, error) {
	return s.productRepo.GetProductByID(ctx, id)
}

func (s *productService) GetProductBySku(ctx context.Context, sku string) (model.Product, error) {
	return s.productRepo.GetProductBySku(ctx, model.NormalizeSku(sku))
}

func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	product := model.Product{
		Name:        params.Name,
		Description: params.Description,
		Sku:         params.Sku,
		Price:       params.Price,
		Stock:       params.Stock,
		Category:    params.Category,
		Status:      model.StatusActive,
	}.Normalize()

	if err := validateProduct(product); err != nil {
		return model.Product{}, err
	}

	var created model.Product
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		exists, err := s.productRepo.WithDB(tx).ExistsBySku(ctx, product.Sku, nil)
		if err != nil {
			return fmt.Errorf("product repository exists by sku: %w", err)
		}
		if exists {
			return apperr.DuplicateSku(product.Sku)
		}

		created, err = s.productRepo.WithDB(tx).CreateProduct(ctx, product)
		if err != nil {
			return fmt.Errorf("product repository create product: %w", err)
		}

		return s.enqueueEvent(ctx, tx, event.TopicProductCreated, created.ID, event.ProductCreatedEvent{
			ProductID: created.ID,
			Name:      created.Name,
			Sku:       created.Sku,
			Price:     created.Price,
			Stock:     created.Stock,
			Category:  created.Category,
		})
	}); err != nil {
		return model.Product{}, err
	}

	s.logger.InfoContext(ctx, "product created",
		slog.Int64("product_id", created.ID),
		slog.String("sku", created.Sku),
	)
	return created, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id int64, params UpdateProductParams) (model.Product, error) {
	incoming := model.Product{
		Name:        params.Name,
		Description: params.Description,
		Sku:         params.Sku,
		Price:       params.Price,
		Stock:       params.Stock,
		Category:    params.Category,
		Status:      params.Status,
	}.Normalize()

	if err := validateProduct(incoming); err != nil {
		return model.Product{}, err
	}
	if !incoming.Status.Valid() {
		return model.Product{}, apperr.InvalidArgument("unknown product status %q", incoming.Status)
	}

	var updated model.Product
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		existing, err := s.productRepo.WithDB(tx).GetProductByID(ctx, id)
		if err != nil {
			return err
		}

		// The uniqueness check excludes the record being updated, so a
		// product may keep its own SKU.
		taken, err := s.productRepo.WithDB(tx).ExistsBySku(ctx, incoming.Sku, ptr.New(id))
		if err != nil {
			return fmt.Errorf("product repository exists by sku: %w", err)
		}
		if taken {
			return apperr.DuplicateSku(incoming.Sku)
		}

		// Identity and creation timestamp are immutable; everything else
		// is overwritten.
		incoming.ID = existing.ID
		incoming.CreatedAt = existing.CreatedAt

		updated, err = s.productRepo.WithDB(tx).UpdateProduct(ctx, incoming)
		if err != nil {
			return fmt.Errorf("product repository update product: %w", err)
		}

		return s.enqueueEvent(ctx, tx, event.TopicProductUpdated, updated.ID, event.ProductUpdatedEvent{
			ProductID: updated.ID,
			Name:      updated.Name,
			Sku:       updated.Sku,
			Price:     updated.Price,
			Stock:     updated.Stock,
			Category:  updated.Category,
			Status:    string(updated.Status),
		})
	}); err != nil {
		return model.Product{}, err
	}

	s.logger.InfoContext(ctx, "product updated", slog.Int64("product_id", id))
	return updated, nil
}

func (s *productService) DeactivateProduct(ctx context.Context, id int64) (model.Product, error) {
	var deactivated model.Product
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		product, err := s.productRepo.WithDB(tx).GetProductByID(ctx, id)
		if err != nil {
			return err
		}

		product.Status = model.StatusInactive
		deactivated, err = s.productRepo.WithDB(tx).UpdateProduct(ctx, product)
		if err != nil {
			return fmt.Errorf("product repository update product: %w", err)
		}

		return s.enqueueEvent(ctx, tx, event.TopicProductDeactivated, id, event.ProductDeactivatedEvent{
			ProductID: id,
		})
	}); err != nil {
		return model.Product{}, err
	}

	s.logger.InfoContext(ctx, "product deactivated", slog.Int64("product_id", id))
	return deactivated, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		deleted, err := s.productRepo.WithDB(tx).DeleteProduct(ctx, id)
		if err != nil {
			return fmt.Errorf("product repository delete product: %w", err)
		}
		if !deleted {
			return apperr.ProductNotFound(id)
		}

		return s.enqueueEvent(ctx, tx, event.TopicProductDeleted, id, event.ProductDeletedEvent{
			ProductID: id,
		})
	}); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "product deleted permanently", slog.Int64("product_id", id))
	return nil
}

func (s *productService) CheckStock(ctx context.Context, id int64, quantity int) (StockAvailability, error) {
	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		var zErr zerror.ZError
		if errors.As(err, &zErr) && zErr.Code() == apperr.ProductNotFoundCode {
			return StockAvailability{}, nil
		}
		return StockAvailability{}, err
	}

	return StockAvailability{
		Exists:    true,
		Available: product.Stock >= quantity,
		Stock:     product.Stock,
	}, nil
}

func (s *productService) ReduceStock(ctx context.Context, id int64, quantity int) (model.Product, error) {
	if quantity <= 0 {
		return model.Product{}, apperr.InvalidArgument("quantity must be greater than 0, got %d", quantity)
	}

	var adjusted model.Product
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		product, applied, err := s.productRepo.WithDB(tx).AdjustStock(ctx, id, -quantity)
		if err != nil {
			return fmt.Errorf("product repository adjust stock: %w", err)
		}
		if !applied {
			// The conditional write rejected the decrement: either the
			// product is gone or stock is short. Re-read to tell apart.
			current, err := s.productRepo.WithDB(tx).GetProductByID(ctx, id)
			if err != nil {
				return err
			}
			s.logger.WarnContext(ctx, "insufficient stock",
				slog.Int64("product_id", id),
				slog.Int("available", current.Stock),
				slog.Int("requested", quantity),
			)
			return apperr.InsufficientStock(current.Stock, quantity)
		}
		adjusted = product

		return s.enqueueEvent(ctx, tx, event.TopicProductStockAdjusted, id, event.ProductStockAdjustedEvent{
			ProductID: adjusted.ID,
			Sku:       adjusted.Sku,
			Delta:     -quantity,
			Stock:     adjusted.Stock,
		})
	}); err != nil {
		return model.Product{}, err
	}

	s.logger.InfoContext(ctx, "stock reduced",
		slog.Int64("product_id", id),
		slog.Int("quantity", quantity),
		slog.Int("stock", adjusted.Stock),
	)
	return adjusted, nil
}

func (s *productService) IncreaseStock(ctx context.Context, id int64, quantity int) (model.Product, error) {
	if quantity <= 0 {
		return model.Product{}, apperr.InvalidArgument("quantity must be greater than 0, got %d", quantity)
	}

	var adjusted model.Product
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		product, applied, err := s.productRepo.WithDB(tx).AdjustStock(ctx, id, quantity)
		if err != nil {
			return fmt.Errorf("product repository adjust stock: %w", err)
		}
		if !applied {
			// A positive delta can only be rejected when the product
			// does not exist.
			return apperr.ProductNotFound(id)
		}
		adjusted = product

		return s.enqueueEvent(ctx, tx, event.TopicProductStockAdjusted, id, event.ProductStockAdjustedEvent{
			ProductID: adjusted.ID,
			Sku:       adjusted.Sku,
			Delta:     quantity,
			Stock:     adjusted.Stock,
		})
	}); err != nil {
		return model.Product{}, err
	}

	s.logger.InfoContext(ctx, "stock increased",
		slog.Int64("product_id", id),
		slog.Int("quantity", quantity),
		slog.Int("stock", adjusted.Stock),
	)
	return adjusted, nil
}

// validateProduct re-checks the business invariants on an already normalized
// product. The transport layer validates shape and ranges, but price and
// stock rules are business rules and are enforced here regardless.
func validateProduct(product model.Product) error {
	if product.Name == "" {
		return apperr.InvalidArgument("name must not be empty")
	}
	if product.Sku == "" {
		return apperr.InvalidArgument("sku must not be empty")
	}
	if product.Price <= 0 {
		return apperr.InvalidArgument("price must be greater than 0, got %g", product.Price)
	}
	if product.Stock < 0 {
		return apperr.InvalidArgument("stock must not be negative, got %d", product.Stock)
	}
	return nil
}

func (s *productService) enqueueEvent(ctx context.Context, tx db.DB, topic string, productID int64, ev any) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	if err := s.outboxMsgRepo.
		WithDB(tx).
		CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
			Topic:        topic,
			Headers:      outbox.BuildHeaders(ctx),
			Payload:      payload,
			PartitionKey: ptr.New(strconv.FormatInt(productID, 10)),
		}); err != nil {
		return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
	}

	return nil
}
