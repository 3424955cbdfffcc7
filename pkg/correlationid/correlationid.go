// Package correlationid propagates a per-request correlation ID through
// context, HTTP headers and outbox message headers, so one request can be
// followed across the API, the relay and downstream consumers.
package correlationid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the header key used for the correlation ID on HTTP requests
// and message-queue records.
const Header = "X-Correlation-ID"

type ctxKey struct{}

// New generates a new correlation ID.
func New() string {
	return uuid.NewString()
}

// NewContext returns a copy of ctx carrying the given correlation ID.
func NewContext(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, correlationID)
}

// FromContext extracts the correlation ID from ctx, if present.
func FromContext(ctx context.Context) (string, bool) {
	correlationID, ok := ctx.Value(ctxKey{}).(string)
	return correlationID, ok
}
