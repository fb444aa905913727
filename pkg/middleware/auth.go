// Package middleware holds fiber middleware shared by the HTTP routes.
package middleware

import (
	"errors"
	"strings"

	"github.com/amirasaad/payledger/pkg/config"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

// JwtProtected validates the bearer token and stores it in c.Locals("user").
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.Secret)},
		ContextKey:   "user",
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	status, title := fiber.StatusUnauthorized, "Invalid or expired JWT"
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) ||
		strings.EqualFold(err.Error(), jwtware.ErrJWTMissingOrMalformed.Error()) {
		status, title = fiber.StatusBadRequest, "Missing or malformed JWT"
	}
	return c.Status(status).JSON(fiber.Map{
		"type":     "about:blank",
		"title":    title,
		"status":   status,
		"detail":   err.Error(),
		"instance": c.OriginalURL(),
	}, "application/problem+json")
}
