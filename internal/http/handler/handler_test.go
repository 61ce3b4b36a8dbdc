package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"easycart/internal/cart"
	"easycart/internal/http/middleware"
	"easycart/internal/model"
	"easycart/internal/service"
	"easycart/internal/service/mocks"
	"easycart/internal/session"
)

type testApp struct {
	app      *fiber.App
	db       *sql.DB
	dbMock   sqlmock.Sqlmock
	cartSvc  *mocks.MockCartService
	prodSvc  *mocks.MockProductService
	sessions session.Store
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ta := &testApp{
		db:       db,
		dbMock:   dbMock,
		cartSvc:  new(mocks.MockCartService),
		prodSvc:  new(mocks.MockProductService),
		sessions: session.NewMemoryStore(time.Hour),
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	app.Use(middleware.Session("cart_session", time.Hour))
	RegisterRoutes(app, db, ta.sessions, ta.cartSvc, ta.prodSvc)
	ta.app = app
	return ta
}

// formPost builds an application/x-www-form-urlencoded POST request.
func formPost(path, body string) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

type errorResponse struct {
	RequestID string `json:"request_id"`
	Error     struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, body io.Reader) errorResponse {
	t.Helper()
	var res errorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&res))
	return res
}

func emptyView() *cart.View {
	return &cart.View{Items: map[string]cart.ItemView{}}
}

func TestGetCart(t *testing.T) {
	t.Run("returns the cart view", func(t *testing.T) {
		ta := newTestApp(t)
		view := &cart.View{
			Items: map[string]cart.ItemView{
				"a1": {Name: "mug", Price: 500, Quantity: 2, Total: 1000},
			},
			ItemCount:  1,
			TotalPrice: 1000,
		}
		ta.cartSvc.On("Get", mock.Anything, mock.AnythingOfType("string")).Return(view, nil)

		resp, err := ta.app.Test(httptest.NewRequest("GET", "/cart", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var got cart.View
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, 1, got.ItemCount)
		assert.Equal(t, int64(1000), got.TotalPrice)
		assert.Contains(t, got.Items, "a1")
		ta.cartSvc.AssertExpectations(t)
	})

	t.Run("maps service failures to 500", func(t *testing.T) {
		ta := newTestApp(t)
		ta.cartSvc.On("Get", mock.Anything, mock.Anything).Return(nil, errors.New("redis down"))

		resp, _ := ta.app.Test(httptest.NewRequest("GET", "/cart", nil))
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

		res := decodeError(t, resp.Body)
		assert.Equal(t, "INTERNAL_ERROR", res.Error.Code)
		assert.NotContains(t, res.Error.Message, "redis")
	})
}

func TestAddToCart(t *testing.T) {
	pk := uuid.NewString()

	t.Run("defaults quantity to 1", func(t *testing.T) {
		ta := newTestApp(t)
		ta.cartSvc.On("Add", mock.Anything, mock.Anything, pk, "1", map[string]string(nil)).
			Return(emptyView(), nil)

		resp, err := ta.app.Test(formPost("/cart/add", "pk="+pk))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		ta.cartSvc.AssertExpectations(t)
	})

	t.Run("passes the quantity through unparsed", func(t *testing.T) {
		ta := newTestApp(t)
		ta.cartSvc.On("Add", mock.Anything, mock.Anything, pk, "3", map[string]string(nil)).
			Return(emptyView(), nil)

		resp, _ := ta.app.Test(formPost("/cart/add", "pk="+pk+"&quantity=3"))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		ta.cartSvc.AssertExpectations(t)
	})

	t.Run("rejects a missing pk", func(t *testing.T) {
		ta := newTestApp(t)

		resp, _ := ta.app.Test(formPost("/cart/add", "quantity=2"))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		res := decodeError(t, resp.Body)
		assert.Equal(t, "MISSING_REQUEST_PARAM", res.Error.Code)
		assert.Equal(t, "pk", res.Error.Details["param"])
		ta.cartSvc.AssertNotCalled(t, "Add")
	})

	t.Run("rejects a malformed pk", func(t *testing.T) {
		ta := newTestApp(t)

		resp, _ := ta.app.Test(formPost("/cart/add", "pk=42"))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		res := decodeError(t, resp.Body)
		assert.Equal(t, "INVALID_PK", res.Error.Code)
		ta.cartSvc.AssertNotCalled(t, "Add")
	})

	t.Run("maps unknown products to 404", func(t *testing.T) {
		ta := newTestApp(t)
		ta.cartSvc.On("Add", mock.Anything, mock.Anything, pk, "1", map[string]string(nil)).
			Return(nil, cart.ItemNotInDatabase(pk))

		resp, _ := ta.app.Test(formPost("/cart/add", "pk="+pk))
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

		res := decodeError(t, resp.Body)
		assert.Equal(t, cart.CodeItemNotInDatabase, res.Error.Code)
		assert.Equal(t, pk, res.Error.Details["pk"])
	})

	t.Run("maps quantity validation errors to 400", func(t *testing.T) {
		ta := newTestApp(t)
		ta.cartSvc.On("Add", mock.Anything, mock.Anything, pk, "abc", map[string]string(nil)).
			Return(nil, &cart.Error{
				Code:    cart.CodeNonConvertibleQuantity,
				Message: "can't convert quantity to an integer (abc)",
				Details: map[string]any{"quantity": "abc"},
			})

		resp, _ := ta.app.Test(formPost("/cart/add", "pk="+pk+"&quantity=abc"))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		res := decodeError(t, resp.Body)
		assert.Equal(t, cart.CodeNonConvertibleQuantity, res.Error.Code)
		assert.Equal(t, "abc", res.Error.Details["quantity"])
	})
}

func TestChangeCartQuantity(t *testing.T) {
	pk := uuid.NewString()

	t.Run("changes the quantity", func(t *testing.T) {
		ta := newTestApp(t)
		ta.cartSvc.On("ChangeQuantity", mock.Anything, mock.Anything, pk, "5").
			Return(emptyView(), nil)

		resp, _ := ta.app.Test(formPost("/cart/change-quantity", "pk="+pk+"&quantity=5"))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		ta.cartSvc.AssertExpectations(t)
	})

	t.Run("rejects a missing quantity", func(t *testing.T) {
		ta := newTestApp(t)

		resp, _ := ta.app.Test(formPost("/cart/change-quantity", "pk="+pk))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		res := decodeError(t, resp.Body)
		assert.Equal(t, "MISSING_REQUEST_PARAM", res.Error.Code)
		assert.Equal(t, "quantity", res.Error.Details["param"])
		ta.cartSvc.AssertNotCalled(t, "ChangeQuantity")
	})

	t.Run("maps items absent from the cart to 404", func(t *testing.T) {
		ta := newTestApp(t)
		ta.cartSvc.On("ChangeQuantity", mock.Anything, mock.Anything, pk, "5").
			Return(nil, cart.ItemNotInCart(pk))

		resp, _ := ta.app.Test(formPost("/cart/change-quantity", "pk="+pk+"&quantity=5"))
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

		res := decodeError(t, resp.Body)
		assert.Equal(t, cart.CodeItemNotInCart, res.Error.Code)
	})
}

func TestRemoveFromCart(t *testing.T) {
	pk := uuid.NewString()

	t.Run("removes the item", func(t *testing.T) {
		ta := newTestApp(t)
		ta.cartSvc.On("Remove", mock.Anything, mock.Anything, pk).Return(emptyView(), nil)

		resp, _ := ta.app.Test(formPost("/cart/remove", "pk="+pk))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		ta.cartSvc.AssertExpectations(t)
	})

	t.Run("maps items absent from the cart to 404", func(t *testing.T) {
		ta := newTestApp(t)
		ta.cartSvc.On("Remove", mock.Anything, mock.Anything, pk).
			Return(nil, cart.ItemNotInCart(pk))

		resp, _ := ta.app.Test(formPost("/cart/remove", "pk="+pk))
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestEmptyCart(t *testing.T) {
	ta := newTestApp(t)
	ta.cartSvc.On("Empty", mock.Anything, mock.Anything).Return(emptyView(), nil)

	resp, _ := ta.app.Test(formPost("/cart/empty", ""))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got cart.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Empty(t, got.Items)
	assert.Zero(t, got.TotalPrice)
	ta.cartSvc.AssertExpectations(t)
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy when all dependencies respond", func(t *testing.T) {
		ta := newTestApp(t)
		ta.dbMock.ExpectPing()

		resp, _ := ta.app.Test(httptest.NewRequest("GET", "/health", nil))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("unavailable when the database is down", func(t *testing.T) {
		ta := newTestApp(t)
		ta.dbMock.ExpectPing().WillReturnError(errors.New("connection refused"))

		resp, _ := ta.app.Test(httptest.NewRequest("GET", "/health", nil))
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

		res := decodeError(t, resp.Body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", res.Error.Code)
	})
}

func TestListProducts(t *testing.T) {
	t.Run("returns paginated products", func(t *testing.T) {
		ta := newTestApp(t)
		ta.prodSvc.On("List", mock.Anything, 5, 10).Return(&service.ProductListResult{
			Items: []model.Product{{ID: uuid.NewString(), Name: "mug"}},
			Total: 42,
		}, nil)

		resp, _ := ta.app.Test(httptest.NewRequest("GET", "/products?limit=5&offset=10", nil))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var got service.ProductListResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Len(t, got.Items, 1)
		assert.Equal(t, 42, got.Total)
		ta.prodSvc.AssertExpectations(t)
	})

	t.Run("rejects a non-numeric limit", func(t *testing.T) {
		ta := newTestApp(t)

		resp, _ := ta.app.Test(httptest.NewRequest("GET", "/products?limit=abc", nil))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		ta.prodSvc.AssertNotCalled(t, "List")
	})
}

func TestCreateProduct(t *testing.T) {
	t.Run("creates a product", func(t *testing.T) {
		ta := newTestApp(t)
		in := service.CreateProductInput{Name: "mug", Slug: "mug", Price: 500, Stock: 3}
		ta.prodSvc.On("Create", mock.Anything, in).Return(&model.Product{
			ID: uuid.NewString(), Name: "mug", Slug: "mug", Price: 500, Stock: 3,
		}, nil)

		body, _ := json.Marshal(in)
		req := httptest.NewRequest("POST", "/products", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := ta.app.Test(req)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
		ta.prodSvc.AssertExpectations(t)
	})

	t.Run("maps input validation to 400", func(t *testing.T) {
		ta := newTestApp(t)
		ta.prodSvc.On("Create", mock.Anything, mock.Anything).Return(nil, service.ErrNameRequired)

		req := httptest.NewRequest("POST", "/products", strings.NewReader(`{"slug":"mug"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := ta.app.Test(req)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		res := decodeError(t, resp.Body)
		assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
	})

	t.Run("rejects an unparsable body", func(t *testing.T) {
		ta := newTestApp(t)

		req := httptest.NewRequest("POST", "/products", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := ta.app.Test(req)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		ta.prodSvc.AssertNotCalled(t, "Create")
	})
}

func TestGetProduct(t *testing.T) {
	id := uuid.NewString()

	t.Run("returns the product", func(t *testing.T) {
		ta := newTestApp(t)
		ta.prodSvc.On("Get", mock.Anything, id).Return(&service.ProductDetail{
			Product:  model.Product{ID: id, Name: "mug", Price: 500},
			ImageURL: "https://cdn.example.com/products/mug.png",
		}, nil)

		resp, _ := ta.app.Test(httptest.NewRequest("GET", "/products/"+id, nil))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var got service.ProductDetail
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, id, got.ID)
		assert.NotEmpty(t, got.ImageURL)
	})

	t.Run("rejects a malformed id", func(t *testing.T) {
		ta := newTestApp(t)

		resp, _ := ta.app.Test(httptest.NewRequest("GET", "/products/42", nil))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		ta.prodSvc.AssertNotCalled(t, "Get")
	})

	t.Run("maps missing products to 404", func(t *testing.T) {
		ta := newTestApp(t)
		ta.prodSvc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound)

		resp, _ := ta.app.Test(httptest.NewRequest("GET", "/products/"+id, nil))
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestDeleteProduct(t *testing.T) {
	id := uuid.NewString()

	t.Run("deletes the product", func(t *testing.T) {
		ta := newTestApp(t)
		ta.prodSvc.On("Delete", mock.Anything, id).Return(nil)

		resp, _ := ta.app.Test(httptest.NewRequest("DELETE", "/products/"+id, nil))
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		ta.prodSvc.AssertExpectations(t)
	})

	t.Run("maps missing products to 404", func(t *testing.T) {
		ta := newTestApp(t)
		ta.prodSvc.On("Delete", mock.Anything, id).Return(service.ErrNotFound)

		resp, _ := ta.app.Test(httptest.NewRequest("DELETE", "/products/"+id, nil))
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestUploadProductImage(t *testing.T) {
	id := uuid.NewString()

	imageRequest := func(t *testing.T) *http.Request {
		t.Helper()
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		fw, err := w.CreateFormFile("image", "mug.png")
		require.NoError(t, err)
		fw.Write([]byte("fake png bytes"))
		require.NoError(t, w.Close())

		req := httptest.NewRequest("POST", "/products/"+id+"/image", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		return req
	}

	t.Run("uploads the image", func(t *testing.T) {
		ta := newTestApp(t)
		ta.prodSvc.On("UploadImage", mock.Anything, id, mock.Anything, "mug.png", mock.AnythingOfType("string"), mock.AnythingOfType("int64")).
			Return(&model.Product{ID: id, Name: "mug"}, nil)

		resp, _ := ta.app.Test(imageRequest(t))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		ta.prodSvc.AssertExpectations(t)
	})

	t.Run("rejects a request without a file", func(t *testing.T) {
		ta := newTestApp(t)

		resp, _ := ta.app.Test(formPost("/products/"+id+"/image", ""))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		res := decodeError(t, resp.Body)
		assert.Equal(t, "FILE_REQUIRED", res.Error.Code)
	})

	t.Run("maps missing products to 404", func(t *testing.T) {
		ta := newTestApp(t)
		ta.prodSvc.On("UploadImage", mock.Anything, id, mock.Anything, "mug.png", mock.AnythingOfType("string"), mock.AnythingOfType("int64")).
			Return(nil, service.ErrNotFound)

		resp, _ := ta.app.Test(imageRequest(t))
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}
