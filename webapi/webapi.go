// Package webapi provides the HTTP API for the ledger.
// It is organized into sub-packages per resource:
// - account: account opening, lookup and verification
// - transaction: transfers, deposits and history
// - request: payment requests
package webapi

import (
	"errors"
	"strings"

	"github.com/amirasaad/payledger/pkg/app"
	accountweb "github.com/amirasaad/payledger/webapi/account"
	"github.com/amirasaad/payledger/webapi/common"
	requestweb "github.com/amirasaad/payledger/webapi/request"
	transactionweb "github.com/amirasaad/payledger/webapi/transaction"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(app *app.App) *fiber.App {
	cfg := app.Config

	fiberApp := fiber.New(fiber.Config{
		AppName: "payledger",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})

	// Rate limiting keyed on the client address. Behind a proxy the first
	// X-Forwarded-For hop wins, then X-Real-IP.
	fiberApp.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit.MaxRequests,
		Expiration: cfg.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("PayLedger API is running")
	})
	fiberApp.Get("/health", func(c *fiber.Ctx) error {
		return common.SuccessResponseJSON(c, fiber.StatusOK, "ok", fiber.Map{"env": cfg.Env})
	})

	idempotency := common.Idempotency(common.IdempotencyConfig{
		Store:  app.Deps.IdempotencyStore,
		TTL:    cfg.Idempotency.TTL,
		Logger: app.Deps.Logger,
	})

	accountweb.Routes(fiberApp, app.AccountService, app.AuthService, cfg)
	transactionweb.Routes(fiberApp, app.LedgerService, app.AuthService, cfg, idempotency)
	requestweb.Routes(fiberApp, app.RequestService, app.AuthService, cfg, idempotency)
	return fiberApp
}
