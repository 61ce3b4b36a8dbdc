package repository

import (
	"context"

	"easycart/internal/model"
)

// ProductRepository defines data access for catalog products using SQL only.
// No business logic here, strictly persistence operations.
type ProductRepository interface {
	// Create inserts a new product row and returns the stored record
	// (may include values set by database defaults).
	Create(ctx context.Context, p *model.Product) (*model.Product, error)

	// FindByID returns a product by its ID.
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// FindByIDs returns the products matching the given IDs. IDs with no
	// matching row are simply absent from the result; the caller decides
	// how to treat them.
	FindByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// List returns a paginated list of products and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Product], error)

	// UpdateImagePath sets the object storage key for a product's image
	// and returns the updated record.
	UpdateImagePath(ctx context.Context, id, imagePath string) (*model.Product, error)

	// Delete removes a product by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}
