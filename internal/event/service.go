package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"productcatalog/internal/storage/mq"
)

// Service consumes product lifecycle events published through the outbox.
type Service struct {
	logger     *slog.Logger
	mqConsumer mq.Consumer
}

// New creates a new event service.
func New(
	logger *slog.Logger,
	mqConsumer mq.Consumer,
) *Service {
	return &Service{
		logger:     logger.With(slog.String("service", "event")),
		mqConsumer: mqConsumer,
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	if err := registerJSONHandler(s.mqConsumer, TopicProductCreated, s.handleProductCreated); err != nil {
		return nil, err
	}
	if err := registerJSONHandler(s.mqConsumer, TopicProductStockAdjusted, s.handleProductStockAdjusted); err != nil {
		return nil, err
	}

	mqCleanup, err := s.mqConsumer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run mq consumer: %w", err)
	}

	return CleanupFunc(mqCleanup), nil
}

func registerJSONHandler[T any](consumer mq.Consumer, topic string, handle func(ctx context.Context, ev T) error) error {
	err := consumer.RegisterHandler(topic, func(ctx context.Context, topic string, payload []byte) error {
		var ev T
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s event: %w", topic, err)
		}
		if err := handle(ctx, ev); err != nil {
			return fmt.Errorf("handle %s event: %w", topic, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("register %s handler: %w", topic, err)
	}
	return nil
}
