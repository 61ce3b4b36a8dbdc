package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"easycart/internal/model"
	"easycart/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

// passthroughConverter lets slice arguments (uuid arrays) reach the mock
// unmodified, the way the pgx driver accepts them at runtime.
type passthroughConverter struct{}

func (passthroughConverter) ConvertValue(v any) (driver.Value, error) { return v, nil }

func productRows(products ...model.Product) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "name", "slug", "price", "stock", "image_path", "created_at"})
	for _, p := range products {
		var imagePath any
		if p.ImagePath != "" {
			imagePath = p.ImagePath
		}
		rows.AddRow(p.ID, p.Name, p.Slug, p.Price, p.Stock, imagePath, p.CreatedAt)
	}
	return rows
}

func TestProductPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewProductPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	p := &model.Product{
		ID:        "test-uuid",
		Name:      "Teapot",
		Slug:      "teapot",
		Price:     1999,
		Stock:     12,
		CreatedAt: now,
	}

	mock.ExpectQuery("INSERT INTO products").
		WithArgs(p.ID, p.Name, p.Slug, p.Price, p.Stock, p.CreatedAt).
		WillReturnRows(productRows(*p))

	result, err := repo.Create(ctx, p)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, p.ID, result.ID)
	assert.Equal(t, int64(1999), result.Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewProductPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		p := model.Product{ID: "test-id", Name: "Teapot", Slug: "teapot", Price: 1999, Stock: 3, CreatedAt: time.Now()}
		mock.ExpectQuery("SELECT (.+) FROM products WHERE id = ?").
			WithArgs("test-id").
			WillReturnRows(productRows(p))

		got, err := repo.FindByID(ctx, "test-id")

		assert.NoError(t, err)
		assert.NotNil(t, got)
		assert.Equal(t, "test-id", got.ID)
		assert.Equal(t, 3, got.Stock)
	})

	t.Run("null image path", func(t *testing.T) {
		p := model.Product{ID: "no-image", Name: "Cup", Slug: "cup", Price: 500, CreatedAt: time.Now()}
		mock.ExpectQuery("SELECT (.+) FROM products WHERE id = ?").
			WithArgs("no-image").
			WillReturnRows(productRows(p))

		got, err := repo.FindByID(ctx, "no-image")

		assert.NoError(t, err)
		assert.Equal(t, "", got.ImagePath)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM products WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, got)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductPostgres_FindByIDs(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(passthroughConverter{}))
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewProductPostgres(db)
	ctx := context.Background()

	t.Run("some ids resolve", func(t *testing.T) {
		p1 := model.Product{ID: "id-1", Name: "Teapot", Slug: "teapot", Price: 1999, CreatedAt: time.Now()}
		p2 := model.Product{ID: "id-2", Name: "Cup", Slug: "cup", Price: 500, CreatedAt: time.Now()}

		mock.ExpectQuery("SELECT (.+) FROM products WHERE id = ANY").
			WithArgs([]string{"id-1", "id-2", "id-gone"}).
			WillReturnRows(productRows(p1, p2))

		got, err := repo.FindByIDs(ctx, []string{"id-1", "id-2", "id-gone"})

		assert.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("empty input skips the query", func(t *testing.T) {
		got, err := repo.FindByIDs(ctx, nil)
		assert.NoError(t, err)
		assert.Empty(t, got)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewProductPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	p := model.Product{ID: "id-1", Name: "Teapot", Slug: "teapot", Price: 1999, CreatedAt: time.Now()}
	mock.ExpectQuery("SELECT (.+) FROM products ORDER BY").
		WithArgs(10, 0).
		WillReturnRows(productRows(p))

	res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 42, res.Total)
	assert.Len(t, res.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductPostgres_UpdateImagePath(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewProductPostgres(db)
	ctx := context.Background()

	p := model.Product{ID: "id-1", Name: "Teapot", Slug: "teapot", Price: 1999, ImagePath: "products/id-1.png", CreatedAt: time.Now()}
	mock.ExpectQuery("UPDATE products").
		WithArgs("id-1", "products/id-1.png").
		WillReturnRows(productRows(p))

	got, err := repo.UpdateImagePath(ctx, "id-1", "products/id-1.png")

	assert.NoError(t, err)
	assert.Equal(t, "products/id-1.png", got.ImagePath)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewProductPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM products").
		WithArgs("id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(ctx, "id-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
