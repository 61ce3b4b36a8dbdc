package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"easycart/internal/model"
	"easycart/internal/repository"
	"easycart/internal/storage"
)

var (
	ErrIDRequired   = errors.New("id is required")
	ErrNotFound     = errors.New("product not found")
	ErrReaderNil    = errors.New("reader is nil")
	ErrNameRequired = errors.New("name is required")
	ErrSlugRequired = errors.New("slug is required")
	ErrInvalidPrice = errors.New("price must not be negative")
	ErrInvalidStock = errors.New("stock must not be negative")
)

// imageURLExpiry bounds how long a presigned product image link stays valid.
const imageURLExpiry = time.Hour

// CreateProductInput carries the fields needed to create a catalog product.
type CreateProductInput struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Price int64  `json:"price"`
	Stock int    `json:"stock"`
}

// ProductListResult is the service-level DTO for paginated products.
type ProductListResult struct {
	Items []model.Product `json:"data"`
	Total int             `json:"total"`
}

// ProductDetail is a product plus a presigned image URL when an image exists.
type ProductDetail struct {
	model.Product
	ImageURL string `json:"image_url,omitempty"`
}

// ProductService defines the use cases for managing catalog products.
type ProductService interface {
	// Create validates the input and inserts a new product.
	Create(ctx context.Context, in CreateProductInput) (*model.Product, error)

	// List returns products using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*ProductListResult, error)

	// Get returns a single product by its ID, with a presigned image URL
	// when an image has been uploaded.
	Get(ctx context.Context, id string) (*ProductDetail, error)

	// Delete removes a product and its image object, if any.
	Delete(ctx context.Context, id string) error

	// UploadImage streams an image to object storage, records its key on the
	// product row, and rolls back the object if the DB update fails.
	// originalFilename is used only to extract the extension.
	UploadImage(ctx context.Context, id string, r io.Reader, originalFilename, contentType string, size int64) (*model.Product, error)
}

// productService is a concrete implementation of ProductService.
type productService struct {
	store storage.Storage
	repo  repository.ProductRepository
}

// NewProductService constructs a new ProductService.
func NewProductService(store storage.Storage, repo repository.ProductRepository) ProductService {
	return &productService{store: store, repo: repo}
}

func (s *productService) Create(ctx context.Context, in CreateProductInput) (*model.Product, error) {
	if in.Name == "" {
		return nil, ErrNameRequired
	}
	if in.Slug == "" {
		return nil, ErrSlugRequired
	}
	if in.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if in.Stock < 0 {
		return nil, ErrInvalidStock
	}

	p := &model.Product{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Slug:      in.Slug,
		Price:     in.Price,
		Stock:     in.Stock,
		CreatedAt: time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return stored, nil
}

// List returns paginated products without exposing repository types.
func (s *productService) List(ctx context.Context, limit, offset int) (*ProductListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *productService) Get(ctx context.Context, id string) (*ProductDetail, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	detail := &ProductDetail{Product: *p}
	if p.ImagePath != "" {
		url, err := s.store.PresignGet(ctx, p.ImagePath, imageURLExpiry)
		if err != nil {
			return nil, fmt.Errorf("presign image: %w", err)
		}
		detail.ImageURL = url
	}
	return detail, nil
}

// Delete removes the product's image object first, then the row.
func (s *productService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if p.ImagePath != "" {
		if err := s.store.Delete(ctx, p.ImagePath); err != nil {
			return fmt.Errorf("delete image: %w", err)
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *productService) UploadImage(ctx context.Context, id string, r io.Reader, originalFilename, contentType string, size int64) (*model.Product, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if r == nil {
		return nil, ErrReaderNil
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	ext := filepath.Ext(originalFilename)
	key := filepath.ToSlash(filepath.Join("products", uuid.New().String()+ext))

	_, err = s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	updated, err := s.repo.UpdateImagePath(ctx, id, key)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	// The replaced image object is removed best-effort; the row no longer
	// references it either way.
	if current.ImagePath != "" && current.ImagePath != key {
		_ = s.store.Delete(ctx, current.ImagePath)
	}
	return updated, nil
}
