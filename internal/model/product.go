package model

import "time"

// Product represents a purchasable item in the catalog.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, cart, service) without coupling to persistence.
//
// Price is stored in minor currency units (e.g. cents) to keep arithmetic exact.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Price     int64     `json:"price"`
	Stock     int       `json:"stock"`
	ImagePath string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
