package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"easycart/internal/http/middleware"
	"easycart/internal/service"
	"easycart/internal/session"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin: parameter extraction and status mapping only.
func RegisterRoutes(app *fiber.App, db *sql.DB, sessions session.Store, cartSvc service.CartService, productSvc service.ProductService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db, sessions))

	// Simple liveness probe
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	app.Get("/cart", GetCart(cartSvc))
	app.Post("/cart/add", AddToCart(cartSvc))
	app.Post("/cart/change-quantity", ChangeCartQuantity(cartSvc))
	app.Post("/cart/remove", RemoveFromCart(cartSvc))
	app.Post("/cart/empty", EmptyCart(cartSvc))

	app.Get("/products", ListProducts(productSvc))
	app.Post("/products", CreateProduct(productSvc))
	app.Get("/products/:id", GetProduct(productSvc))
	app.Delete("/products/:id", DeleteProduct(productSvc))
	app.Post("/products/:id/image", UploadProductImage(productSvc))
}

// sessionIDFromCtx extracts the session ID set by middleware.Session.
func sessionIDFromCtx(c *fiber.Ctx) string {
	if s, ok := c.Locals(middleware.SessionIDLocalKey).(string); ok {
		return s
	}
	return ""
}

// formParam reads a request parameter from the form body, falling back to the
// query string.
func formParam(c *fiber.Ctx, name string) string {
	if v := c.FormValue(name); v != "" {
		return v
	}
	return c.Query(name)
}

// requirePK reads and validates the pk parameter shared by the cart
// mutations. The second return value reports whether a response was already
// written.
func requirePK(c *fiber.Ctx) (string, error, bool) {
	pk := formParam(c, "pk")
	if pk == "" {
		return "", writeErrorDetails(c, fiber.StatusBadRequest, "MISSING_REQUEST_PARAM",
			"request doesn't contain the required parameter pk",
			map[string]any{"param": "pk"}), true
	}
	if _, err := uuid.Parse(pk); err != nil {
		return "", writeErrorDetails(c, fiber.StatusBadRequest, "INVALID_PK",
			"invalid pk format", map[string]any{"pk": pk}), true
	}
	return pk, nil, false
}

// HealthCheck reports readiness: the database and the session store must
// both respond.
func HealthCheck(db *sql.DB, sessions session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		if err := sessions.Ping(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// GetCart returns the current cart for the session.
func GetCart(svc service.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := svc.Get(c.UserContext(), sessionIDFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(view)
	}
}

// AddToCart adds quantity units of a product to the cart. quantity defaults
// to 1 when absent; adding a pk already in the cart increases its quantity.
func AddToCart(svc service.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pk, resp, done := requirePK(c)
		if done {
			return resp
		}
		quantity := formParam(c, "quantity")
		if quantity == "" {
			quantity = "1"
		}

		view, err := svc.Add(c.UserContext(), sessionIDFromCtx(c), pk, quantity, nil)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(view)
	}
}

// ChangeCartQuantity replaces the quantity of an item already in the cart.
// Both pk and quantity are required.
func ChangeCartQuantity(svc service.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pk, resp, done := requirePK(c)
		if done {
			return resp
		}
		quantity := formParam(c, "quantity")
		if quantity == "" {
			return writeErrorDetails(c, fiber.StatusBadRequest, "MISSING_REQUEST_PARAM",
				"request doesn't contain the required parameter quantity",
				map[string]any{"param": "quantity"})
		}

		view, err := svc.ChangeQuantity(c.UserContext(), sessionIDFromCtx(c), pk, quantity)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(view)
	}
}

// RemoveFromCart removes an item from the cart.
func RemoveFromCart(svc service.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pk, resp, done := requirePK(c)
		if done {
			return resp
		}

		view, err := svc.Remove(c.UserContext(), sessionIDFromCtx(c), pk)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(view)
	}
}

// EmptyCart removes every item from the cart.
func EmptyCart(svc service.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := svc.Empty(c.UserContext(), sessionIDFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(view)
	}
}

// ListProducts returns catalog products with limit & offset pagination.
func ListProducts(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limitStr := c.Query("limit", "10")
		offsetStr := c.Query("offset", "0")
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// CreateProduct inserts a new catalog product from a JSON body.
func CreateProduct(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.CreateProductInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		p, err := svc.Create(c.UserContext(), in)
		if err != nil {
			if isValidationError(err) {
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			}
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// GetProduct returns a product by ID, with a presigned image URL when an
// image has been uploaded.
func GetProduct(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		p, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "product not found")
			}
			return writeServiceError(c, err)
		}
		return c.JSON(p)
	}
}

// DeleteProduct removes a product and its stored image.
func DeleteProduct(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "product not found")
			}
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UploadProductImage stores a product image (multipart/form-data, field
// name: image) and records it on the product row.
func UploadProductImage(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		fh, err := c.FormFile("image")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "image file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		p, err := svc.UploadImage(c.UserContext(), id, f, fh.Filename, ct, fh.Size)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "product not found")
			}
			return writeServiceError(c, err)
		}
		return c.JSON(p)
	}
}

// isValidationError reports whether err is one of the product input checks.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrNameRequired) ||
		errors.Is(err, service.ErrSlugRequired) ||
		errors.Is(err, service.ErrInvalidPrice) ||
		errors.Is(err, service.ErrInvalidStock)
}
