package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"productcatalog/internal/apperr"
	"productcatalog/internal/event"
	"productcatalog/internal/model"
	"productcatalog/internal/repository"
	"productcatalog/internal/repository/memory"
	"productcatalog/internal/service"
	"productcatalog/internal/storage/db"
	"productcatalog/pkg/zerror"
)

// fakeDB satisfies db.DB for tests that run against the in-memory
// repository. WithTx just invokes the function; the repository enforces
// its own consistency under a lock.
type fakeDB struct{}

func (f fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, nil
}

func (f fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func (f fakeDB) WithTx(_ context.Context, txFunc func(db.DB) error) error {
	return txFunc(f)
}

// outboxRecorder captures enqueued outbox messages.
type outboxRecorder struct {
	mu   sync.Mutex
	msgs []repository.CreateOutboxMsgParams
}

func (r *outboxRecorder) WithDB(_ db.DB) repository.OutboxMsgRepository {
	return r
}

func (r *outboxRecorder) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, params)
	return nil
}

func (r *outboxRecorder) ListUnprocessedOutboxMsgs(
	_ context.Context,
	_ repository.ListUnprocessedOutboxMsgsParams,
) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	return nil, nil
}

func (r *outboxRecorder) BulkUpdateOutboxMsgs(_ context.Context, _ repository.BulkUpdateOutboxMsgsParams) error {
	return nil
}

func (r *outboxRecorder) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	topics := make([]string, 0, len(r.msgs))
	for _, msg := range r.msgs {
		topics = append(topics, msg.Topic)
	}
	return topics
}

func newTestService(t *testing.T) (service.ProductService, *memory.ProductRepository, *outboxRecorder) {
	t.Helper()

	productRepo := memory.NewProductRepository()
	outboxRepo := &outboxRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := service.NewProductService(fakeDB{}, productRepo, outboxRepo, logger)
	return svc, productRepo, outboxRepo
}

func mustCreate(t *testing.T, svc service.ProductService, params service.CreateProductParams) model.Product {
	t.Helper()

	product, err := svc.CreateProduct(context.Background(), params)
	require.NoError(t, err)
	return product
}

func laptopParams() service.CreateProductParams {
	return service.CreateProductParams{
		Name:        "Dell XPS 15",
		Description: "High-performance laptop",
		Sku:         "DELL-XPS15-001",
		Price:       1299.99,
		Stock:       10,
		Category:    "Electronics",
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()

	var zErr zerror.ZError
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, code, zErr.Code())
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Should create product with normalized fields", func(t *testing.T) {
		svc, _, outboxRepo := newTestService(t)

		params := laptopParams()
		params.Name = "  Dell XPS 15  "
		params.Sku = " dell-xps15-001 "

		product, err := svc.CreateProduct(ctx, params)
		require.NoError(t, err)

		assert.NotZero(t, product.ID)
		assert.Equal(t, "Dell XPS 15", product.Name)
		assert.Equal(t, "DELL-XPS15-001", product.Sku)
		assert.Equal(t, model.StatusActive, product.Status)
		assert.NotZero(t, product.CreatedAt)
		assert.Nil(t, product.UpdatedAt)

		assert.Equal(t, []string{event.TopicProductCreated}, outboxRepo.topics())
	})

	t.Run("Should reject duplicate sku regardless of case", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		mustCreate(t, svc, laptopParams())

		params := laptopParams()
		params.Sku = "  dell-xps15-001  "

		_, err := svc.CreateProduct(ctx, params)
		assertCode(t, err, apperr.DuplicateSkuCode)
	})

	t.Run("Should reject non-positive price", func(t *testing.T) {
		svc, _, outboxRepo := newTestService(t)

		params := laptopParams()
		params.Price = 0

		_, err := svc.CreateProduct(ctx, params)
		assertCode(t, err, apperr.InvalidArgumentCode)
		assert.Empty(t, outboxRepo.topics())
	})

	t.Run("Should reject negative stock", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		params := laptopParams()
		params.Stock = -1

		_, err := svc.CreateProduct(ctx, params)
		assertCode(t, err, apperr.InvalidArgumentCode)
	})

	t.Run("Should reject blank name", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		params := laptopParams()
		params.Name = "   "

		_, err := svc.CreateProduct(ctx, params)
		assertCode(t, err, apperr.InvalidArgumentCode)
	})
}

func TestGetProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Should get product by id and by sku", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		created := mustCreate(t, svc, laptopParams())

		byID, err := svc.GetProductByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, byID)

		// SKU lookup normalizes its argument too.
		bySku, err := svc.GetProductBySku(ctx, " dell-xps15-001 ")
		require.NoError(t, err)
		assert.Equal(t, created, bySku)
	})

	t.Run("Should return not found for unknown id", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.GetProductByID(ctx, 42)
		assertCode(t, err, apperr.ProductNotFoundCode)
	})

	t.Run("Should return not found for unknown sku", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.GetProductBySku(ctx, "NO-SUCH-SKU")
		assertCode(t, err, apperr.ProductNotFoundCode)
	})
}

func TestListProducts(t *testing.T) {
	ctx := context.Background()

	svc, _, _ := newTestService(t)

	laptop := mustCreate(t, svc, laptopParams())

	mouseParams := laptopParams()
	mouseParams.Name = "Logitech MX Master 3"
	mouseParams.Sku = "LOGI-MX3-001"
	mouseParams.Price = 99.99
	mouse := mustCreate(t, svc, mouseParams)

	deskParams := laptopParams()
	deskParams.Name = "Standing Desk"
	deskParams.Sku = "DESK-STAND-001"
	deskParams.Category = "Furniture"
	desk := mustCreate(t, svc, deskParams)

	t.Run("Should list all products", func(t *testing.T) {
		products, err := svc.ListProducts(ctx)
		require.NoError(t, err)
		assert.Len(t, products, 3)
	})

	t.Run("Should filter by category", func(t *testing.T) {
		products, err := svc.ListProductsByCategory(ctx, "Furniture")
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, desk.ID, products[0].ID)
	})

	t.Run("Should exclude deactivated products from active listing", func(t *testing.T) {
		_, err := svc.DeactivateProduct(ctx, mouse.ID)
		require.NoError(t, err)

		products, err := svc.ListActiveProducts(ctx)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, laptop.ID, products[0].ID)
		assert.Equal(t, desk.ID, products[1].ID)
	})
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()

	updateParams := func(p model.Product) service.UpdateProductParams {
		return service.UpdateProductParams{
			Name:        p.Name,
			Description: p.Description,
			Sku:         p.Sku,
			Price:       p.Price,
			Stock:       p.Stock,
			Category:    p.Category,
			Status:      p.Status,
		}
	}

	t.Run("Should update product keeping identity and creation time", func(t *testing.T) {
		svc, _, outboxRepo := newTestService(t)
		created := mustCreate(t, svc, laptopParams())

		params := updateParams(created)
		params.Name = "Dell XPS 15 (2026)"
		params.Price = 1399.99

		updated, err := svc.UpdateProduct(ctx, created.ID, params)
		require.NoError(t, err)

		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
		assert.Equal(t, "Dell XPS 15 (2026)", updated.Name)
		assert.Equal(t, 1399.99, updated.Price)
		assert.NotNil(t, updated.UpdatedAt)

		assert.Equal(t, []string{event.TopicProductCreated, event.TopicProductUpdated}, outboxRepo.topics())
	})

	t.Run("Should allow product to keep its own sku", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		created := mustCreate(t, svc, laptopParams())

		params := updateParams(created)
		params.Name = "Dell XPS 15 Refresh"

		updated, err := svc.UpdateProduct(ctx, created.ID, params)
		require.NoError(t, err)
		assert.Equal(t, created.Sku, updated.Sku)
	})

	t.Run("Should reject sku taken by another product", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		first := mustCreate(t, svc, laptopParams())

		otherParams := laptopParams()
		otherParams.Sku = "LOGI-MX3-001"
		other := mustCreate(t, svc, otherParams)

		params := updateParams(other)
		params.Sku = first.Sku

		_, err := svc.UpdateProduct(ctx, other.ID, params)
		assertCode(t, err, apperr.DuplicateSkuCode)
	})

	t.Run("Should return not found for unknown id", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		params := updateParams(model.Product{
			Name:   "Ghost",
			Sku:    "GHOST-001",
			Price:  1,
			Status: model.StatusActive,
		})

		_, err := svc.UpdateProduct(ctx, 42, params)
		assertCode(t, err, apperr.ProductNotFoundCode)
	})

	t.Run("Should reject unknown status", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		created := mustCreate(t, svc, laptopParams())

		params := updateParams(created)
		params.Status = model.Status("archived")

		_, err := svc.UpdateProduct(ctx, created.ID, params)
		assertCode(t, err, apperr.InvalidArgumentCode)
	})
}

func TestDeactivateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Should keep deactivated product retrievable", func(t *testing.T) {
		svc, _, outboxRepo := newTestService(t)
		created := mustCreate(t, svc, laptopParams())

		deactivated, err := svc.DeactivateProduct(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusInactive, deactivated.Status)

		byID, err := svc.GetProductByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusInactive, byID.Status)

		bySku, err := svc.GetProductBySku(ctx, created.Sku)
		require.NoError(t, err)
		assert.Equal(t, created.ID, bySku.ID)

		assert.Equal(t, []string{event.TopicProductCreated, event.TopicProductDeactivated}, outboxRepo.topics())
	})

	t.Run("Should return not found for unknown id", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.DeactivateProduct(ctx, 42)
		assertCode(t, err, apperr.ProductNotFoundCode)
	})
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Should remove product permanently", func(t *testing.T) {
		svc, _, outboxRepo := newTestService(t)
		created := mustCreate(t, svc, laptopParams())

		require.NoError(t, svc.DeleteProduct(ctx, created.ID))

		_, err := svc.GetProductByID(ctx, created.ID)
		assertCode(t, err, apperr.ProductNotFoundCode)

		_, err = svc.GetProductBySku(ctx, created.Sku)
		assertCode(t, err, apperr.ProductNotFoundCode)

		assert.Equal(t, []string{event.TopicProductCreated, event.TopicProductDeleted}, outboxRepo.topics())
	})

	t.Run("Should free the sku for reuse", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		created := mustCreate(t, svc, laptopParams())

		require.NoError(t, svc.DeleteProduct(ctx, created.ID))

		recreated := mustCreate(t, svc, laptopParams())
		assert.NotEqual(t, created.ID, recreated.ID)
		assert.Equal(t, created.Sku, recreated.Sku)
	})

	t.Run("Should return not found when deleting twice", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		created := mustCreate(t, svc, laptopParams())

		require.NoError(t, svc.DeleteProduct(ctx, created.ID))

		err := svc.DeleteProduct(ctx, created.ID)
		assertCode(t, err, apperr.ProductNotFoundCode)
	})
}

func TestCheckStock(t *testing.T) {
	ctx := context.Background()

	t.Run("Should report availability for existing product", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		created := mustCreate(t, svc, laptopParams()) // stock 10

		availability, err := svc.CheckStock(ctx, created.ID, 10)
		require.NoError(t, err)
		assert.Equal(t, service.StockAvailability{Exists: true, Available: true, Stock: 10}, availability)

		availability, err = svc.CheckStock(ctx, created.ID, 11)
		require.NoError(t, err)
		assert.Equal(t, service.StockAvailability{Exists: true, Available: false, Stock: 10}, availability)
	})

	t.Run("Should distinguish missing product from empty stock", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		availability, err := svc.CheckStock(ctx, 42, 1)
		require.NoError(t, err)
		assert.False(t, availability.Exists)
		assert.False(t, availability.Available)
	})
}

func TestReduceStock(t *testing.T) {
	ctx := context.Background()

	t.Run("Should reduce stock and enqueue event", func(t *testing.T) {
		svc, _, outboxRepo := newTestService(t)
		created := mustCreate(t, svc, laptopParams()) // stock 10

		product, err := svc.ReduceStock(ctx, created.ID, 4)
		require.NoError(t, err)
		assert.Equal(t, 6, product.Stock)

		assert.Equal(t, []string{event.TopicProductCreated, event.TopicProductStockAdjusted}, outboxRepo.topics())
	})

	t.Run("Should allow reducing to exactly zero", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		created := mustCreate(t, svc, laptopParams())

		product, err := svc.ReduceStock(ctx, created.ID, 10)
		require.NoError(t, err)
		assert.Equal(t, 0, product.Stock)
	})

	t.Run("Should reject reduction beyond available stock", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		created := mustCreate(t, svc, laptopParams())

		_, err := svc.ReduceStock(ctx, created.ID, 11)
		assertCode(t, err, apperr.InsufficientStockCode)

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, 10, zErr.Meta()["available"])
		assert.Equal(t, 11, zErr.Meta()["requested"])

		// The failed reduction must not change stock.
		current, err := svc.GetProductByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, current.Stock)
	})

	t.Run("Should reject non-positive quantity", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		created := mustCreate(t, svc, laptopParams())

		_, err := svc.ReduceStock(ctx, created.ID, 0)
		assertCode(t, err, apperr.InvalidArgumentCode)

		_, err = svc.ReduceStock(ctx, created.ID, -3)
		assertCode(t, err, apperr.InvalidArgumentCode)
	})

	t.Run("Should return not found for unknown id", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.ReduceStock(ctx, 42, 1)
		assertCode(t, err, apperr.ProductNotFoundCode)
	})
}

func TestIncreaseStock(t *testing.T) {
	ctx := context.Background()

	t.Run("Should increase stock", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		created := mustCreate(t, svc, laptopParams())

		product, err := svc.IncreaseStock(ctx, created.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, 15, product.Stock)
	})

	t.Run("Should reject non-positive quantity", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		created := mustCreate(t, svc, laptopParams())

		_, err := svc.IncreaseStock(ctx, created.ID, 0)
		assertCode(t, err, apperr.InvalidArgumentCode)
	})

	t.Run("Should return not found for unknown id", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.IncreaseStock(ctx, 42, 1)
		assertCode(t, err, apperr.ProductNotFoundCode)
	})
}

// Concurrent reductions must never drive stock negative: with stock 50 and
// 20 callers each taking 5, exactly 10 may succeed.
func TestReduceStockConcurrent(t *testing.T) {
	ctx := context.Background()

	svc, _, _ := newTestService(t)

	params := laptopParams()
	params.Stock = 50
	created := mustCreate(t, svc, params)

	const (
		callers  = 20
		quantity = 5
	)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < callers; i++ {
		wg.Go(func() {
			_, err := svc.ReduceStock(ctx, created.ID, quantity)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}

			var zErr zerror.ZError
			if !errors.As(err, &zErr) || zErr.Code() != apperr.InsufficientStockCode {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)

	final, err := svc.GetProductByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, final.Stock)
}
