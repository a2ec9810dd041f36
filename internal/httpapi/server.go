// Package httpapi exposes the inventory service over HTTP with fiber.
package httpapi

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/stockcount/internal/inventory"
	"github.com/mesh-intelligence/stockcount/internal/logging"
	"github.com/mesh-intelligence/stockcount/internal/validation"
	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 5 * time.Second

// Options configures New.
type Options struct {
	// CORSOrigins is a comma-separated origin list; empty allows all.
	CORSOrigins string
	Logger      *zap.Logger
}

// New builds the fiber app with middleware and every route registered.
func New(svc *inventory.Service, opts Options) *fiber.App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "stockcount",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${status} ${method} ${path} ${latency}\n",
		Output: logging.Writer(logger),
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(opts.CORSOrigins),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	h := &handler{svc: svc, logger: logger}
	api := app.Group("/api")

	api.Get("/health", h.health)
	api.Get("/snapshot", h.snapshot)

	api.Post("/branches", h.createBranch)
	api.Delete("/branches/:id", h.deleteBranch)
	api.Get("/branches/:id/inventory", h.branchInventory)
	api.Post("/branches/:id/counts/import", h.importCounts)
	api.Get("/branches/:id/template.csv", h.exportTemplate)

	api.Post("/products", h.createProduct)
	api.Post("/products/import", h.importProducts)
	api.Put("/products/:id", h.updateProduct)
	api.Delete("/products/:id", h.deleteProduct)

	api.Post("/inventory", h.admitItem)
	api.Put("/inventory/:id/count", h.recordCount)

	api.Get("/activity", h.activity)
	api.Delete("/activity", h.clearActivity)
	api.Get("/activity.csv", h.exportActivity)

	return app
}

// Run serves app on addr until ctx is cancelled, then shuts down.
func Run(ctx context.Context, app *fiber.App, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- app.Listen(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return app.ShutdownWithTimeout(ShutdownTimeout)
	}
}

func corsOrigins(list string) string {
	parts := strings.Split(list, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, ",")
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors,omitempty"`
}

// errorHandler maps service errors to status codes. Unexpected errors are
// logged and answered with a generic message.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(errorBody{Error: fe.Message})
		}

		var verr *types.ValidationError
		switch {
		case errors.As(err, &verr):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(errorBody{Error: "validation failed", Errors: verr.Messages})
		case errors.Is(err, types.ErrDuplicateCode):
			return c.Status(fiber.StatusConflict).JSON(errorBody{Error: err.Error()})
		case errors.Is(err, types.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(errorBody{Error: err.Error()})
		case errors.Is(err, types.ErrNoValidRows):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(errorBody{Error: err.Error()})
		case errors.Is(err, types.ErrInvalidID), errors.Is(err, types.ErrInvalidData):
			return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: err.Error()})
		case errors.Is(err, validation.ErrUnavailable):
			return c.Status(fiber.StatusBadGateway).JSON(errorBody{Error: err.Error()})
		}

		logger.Error("unexpected error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody{Error: "internal server error"})
	}
}
