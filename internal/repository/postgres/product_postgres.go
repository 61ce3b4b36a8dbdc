package postgres

import (
	"context"
	"database/sql"

	"easycart/internal/model"
	"easycart/internal/repository"
)

// ProductPostgres is a PostgreSQL implementation of repository.ProductRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ProductPostgres struct {
	db *sql.DB
}

// NewProductPostgres creates a new ProductPostgres repository.
func NewProductPostgres(db *sql.DB) *ProductPostgres {
	return &ProductPostgres{db: db}
}

var _ repository.ProductRepository = (*ProductPostgres)(nil)

const productColumns = `id, name, slug, price, stock, image_path, created_at`

func scanProduct(row interface{ Scan(dest ...any) error }) (*model.Product, error) {
	var p model.Product
	var imagePath sql.NullString
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Price,
		&p.Stock,
		&imagePath,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	p.ImagePath = imagePath.String
	return &p, nil
}

// Create inserts a new product row and returns the stored record.
func (r *ProductPostgres) Create(ctx context.Context, p *model.Product) (*model.Product, error) {
	const q = `
		INSERT INTO products (id, name, slug, price, stock, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns + `
	`
	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.Name,
		p.Slug,
		p.Price,
		p.Stock,
		p.CreatedAt,
	)
	return scanProduct(row)
}

// FindByID fetches a single product by its ID.
func (r *ProductPostgres) FindByID(ctx context.Context, id string) (*model.Product, error) {
	const q = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`
	return scanProduct(r.db.QueryRowContext(ctx, q, id))
}

// FindByIDs fetches the products matching the given IDs.
// IDs without a matching row are absent from the result.
func (r *ProductPostgres) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	const q = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1::uuid[])
	`
	rows, err := r.db.QueryContext(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]model.Product, 0, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// List returns products using LIMIT/OFFSET pagination and a total count.
func (r *ProductPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Product], error) {
	const qCount = `SELECT COUNT(*) FROM products`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Product]{
		Items: items,
		Total: total,
	}, nil
}

// UpdateImagePath sets the stored image key for a product.
func (r *ProductPostgres) UpdateImagePath(ctx context.Context, id, imagePath string) (*model.Product, error) {
	const q = `
		UPDATE products
		SET image_path = $2
		WHERE id = $1
		RETURNING ` + productColumns + `
	`
	return scanProduct(r.db.QueryRowContext(ctx, q, id, imagePath))
}

// Delete removes a product by ID. It does not return an error if the row does not exist.
func (r *ProductPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM products WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
