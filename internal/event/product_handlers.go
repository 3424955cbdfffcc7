package event

import (
	"context"
	"log/slog"
)

// lowStockThreshold is the stock level below which a consumed
// stock-adjusted event is logged as a warning.
const lowStockThreshold = 10

func (s *Service) handleProductCreated(ctx context.Context, ev ProductCreatedEvent) error {
	s.logger.InfoContext(ctx, "product created",
		slog.Int64("product_id", ev.ProductID),
		slog.String("sku", ev.Sku),
	)
	return nil
}

func (s *Service) handleProductStockAdjusted(ctx context.Context, ev ProductStockAdjustedEvent) error {
	if ev.Stock < lowStockThreshold {
		s.logger.WarnContext(ctx, "product stock is running low",
			slog.Int64("product_id", ev.ProductID),
			slog.String("sku", ev.Sku),
			slog.Int("stock", ev.Stock),
		)
		return nil
	}

	s.logger.InfoContext(ctx, "product stock adjusted",
		slog.Int64("product_id", ev.ProductID),
		slog.String("sku", ev.Sku),
		slog.Int("delta", ev.Delta),
		slog.Int("stock", ev.Stock),
	)
	return nil
}
