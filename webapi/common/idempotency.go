package common

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/amirasaad/payledger/pkg/cache"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

const (
	// IdempotencyKeyHeader carries the client-chosen key.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader is set on responses served from the store.
	IdempotentReplayHeader = "Idempotent-Replayed"

	maxIdempotencyKeyLength = 255
)

// IdempotencyConfig configures the Idempotency middleware.
type IdempotencyConfig struct {
	Store  cache.IdempotencyStore
	TTL    time.Duration
	Logger *slog.Logger
}

// Idempotency replays the first response for a repeated Idempotency-Key.
// Keys are scoped to the token subject, method and path. Concurrent requests
// with one key run the handler once and share its response. Server errors
// are never stored so the client can retry them. A key reused with a
// different body is rejected with 422.
//
// It must run after JwtProtected. Requests without the header pass through.
func Idempotency(cfg IdempotencyConfig) fiber.Handler {
	var group singleflight.Group
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return func(c *fiber.Ctx) error {
		key := c.Get(IdempotencyKeyHeader)
		if key == "" || cfg.Store == nil {
			return c.Next()
		}
		if len(key) > maxIdempotencyKeyLength {
			return ProblemDetailsJSON(c, "Invalid Idempotency-Key", nil,
				fiber.StatusBadRequest, "Idempotency-Key must be at most 255 characters")
		}

		scope := scopeFor(c, key)
		fingerprint := fingerprintOf(c.Body())
		log := logger.With("idempotency_key", key, "path", c.Path())
		ctx := c.UserContext()

		cached, err := cfg.Store.Get(ctx, scope)
		if err != nil {
			log.Error("Idempotency lookup failed", "error", err)
			return ProblemDetailsJSON(c, "Idempotency store unavailable", err)
		}
		if cached != nil {
			return replay(c, cached, fingerprint)
		}

		handled := false
		v, err, _ := group.Do(scope, func() (any, error) {
			if existing, err := cfg.Store.Get(ctx, scope); err == nil && existing != nil {
				return existing, nil
			}
			handled = true
			if err := c.Next(); err != nil {
				if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
					return nil, herr
				}
			}
			resp := &cache.StoredResponse{
				Status:      c.Response().StatusCode(),
				ContentType: string(c.Response().Header.ContentType()),
				Body:        append([]byte(nil), c.Response().Body()...),
				Fingerprint: fingerprint,
				StoredAt:    time.Now().UTC(),
			}
			if resp.Status < fiber.StatusInternalServerError {
				if err := cfg.Store.Set(ctx, scope, resp, ttl); err != nil {
					log.Error("Idempotency store failed", "error", err)
				}
			}
			return resp, nil
		})
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
		return replay(c, v.(*cache.StoredResponse), fingerprint)
	}
}

func replay(c *fiber.Ctx, resp *cache.StoredResponse, fingerprint string) error {
	if resp.Fingerprint != fingerprint {
		return ProblemDetailsJSON(c, "Idempotency-Key reused", nil, fiber.StatusUnprocessableEntity,
			"Idempotency-Key was already used with a different request body")
	}
	c.Set(IdempotentReplayHeader, "true")
	if resp.ContentType != "" {
		c.Set(fiber.HeaderContentType, resp.ContentType)
	}
	return c.Status(resp.Status).Send(resp.Body)
}

func scopeFor(c *fiber.Ctx, key string) string {
	subject := "anonymous"
	if token, ok := c.Locals("user").(*jwt.Token); ok {
		if sub, err := token.Claims.GetSubject(); err == nil && sub != "" {
			subject = sub
		}
	}
	return subject + ":" + c.Method() + ":" + c.Path() + ":" + key
}

func fingerprintOf(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
