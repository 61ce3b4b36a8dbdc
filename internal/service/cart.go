package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"easycart/internal/cart"
	"easycart/internal/model"
	"easycart/internal/repository"
	"easycart/internal/session"
)

// CartService defines the use cases for operating a session cart.
// Quantities arrive as raw request strings and are validated here, so every
// caller gets the same error codes for malformed input.
type CartService interface {
	// Get returns the current cart for the session.
	Get(ctx context.Context, sessionID string) (*cart.View, error)

	// Add puts quantity units of the product pk in the cart, increasing the
	// quantity if the item is already present.
	Add(ctx context.Context, sessionID, pk, quantity string, meta map[string]string) (*cart.View, error)

	// ChangeQuantity replaces the quantity of an item already in the cart.
	ChangeQuantity(ctx context.Context, sessionID, pk, quantity string) (*cart.View, error)

	// Remove deletes an item from the cart.
	Remove(ctx context.Context, sessionID, pk string) (*cart.View, error)

	// Empty removes all items from the cart.
	Empty(ctx context.Context, sessionID string) (*cart.View, error)
}

// cartService is a concrete implementation of CartService.
type cartService struct {
	sessions session.Store
	products repository.ProductRepository
	limits   cart.Limits
	log      zerolog.Logger
}

// NewCartService constructs a new CartService.
func NewCartService(sessions session.Store, products repository.ProductRepository, limits cart.Limits, log zerolog.Logger) CartService {
	return &cartService{
		sessions: sessions,
		products: products,
		limits:   limits,
		log:      log,
	}
}

// load rebuilds the cart from session data, joining stored pks against
// product rows. Entries whose product row has been deleted are dropped and
// the purged state is written back right away, so a stale pk is never served.
func (s *cartService) load(ctx context.Context, sessionID string) (*cart.Cart, error) {
	data, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if data == nil {
		data = cart.NewData()
	}

	pks := make([]string, 0, len(data.Items))
	for pk := range data.Items {
		pks = append(pks, pk)
	}

	var products []model.Product
	if len(pks) > 0 {
		products, err = s.products.FindByIDs(ctx, pks)
		if err != nil {
			return nil, fmt.Errorf("resolve cart items: %w", err)
		}
	}

	c := cart.New(s.limits)
	if stale := c.Load(data, products); len(stale) > 0 {
		s.log.Warn().
			Str("session_id", sessionID).
			Strs("pks", stale).
			Msg("removed stale cart items")
		if err := s.save(ctx, sessionID, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (s *cartService) save(ctx context.Context, sessionID string, c *cart.Cart) error {
	if err := s.sessions.Save(ctx, sessionID, c.Entries()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *cartService) Get(ctx context.Context, sessionID string) (*cart.View, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return c.Encode(), nil
}

func (s *cartService) Add(ctx context.Context, sessionID, pk, quantity string, meta map[string]string) (*cart.View, error) {
	qty, err := cart.ParseQuantity(quantity)
	if err != nil {
		return nil, err
	}

	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var p model.Product
	if it, ok := c.Get(pk); ok {
		p = it.Product
	} else {
		found, err := s.products.FindByID(ctx, pk)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, cart.ItemNotInDatabase(pk)
			}
			return nil, fmt.Errorf("find product: %w", err)
		}
		p = *found
	}

	if err := c.Add(p, qty, meta); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return c.Encode(), nil
}

func (s *cartService) ChangeQuantity(ctx context.Context, sessionID, pk, quantity string) (*cart.View, error) {
	qty, err := cart.ParseQuantity(quantity)
	if err != nil {
		return nil, err
	}

	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.ChangeQuantity(pk, qty); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return c.Encode(), nil
}

func (s *cartService) Remove(ctx context.Context, sessionID, pk string) (*cart.View, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.Remove(pk); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return c.Encode(), nil
}

func (s *cartService) Empty(ctx context.Context, sessionID string) (*cart.View, error) {
	// No product resolution needed: the emptied cart replaces whatever was stored.
	c := cart.New(s.limits)
	if err := s.save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return c.Encode(), nil
}
