package session

// Package session persists cart data between requests, keyed by the session
// ID issued in the cart cookie. Implementations live alongside the interface:
// Redis for production, an in-process map for tests and single-node setups.

import (
	"context"

	"easycart/internal/cart"
)

// Store is the persistence boundary for cart session data.
// Get returns (nil, nil) when no data exists for the session.
type Store interface {
	Get(ctx context.Context, sessionID string) (*cart.Data, error)
	Save(ctx context.Context, sessionID string, data *cart.Data) error
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
}
