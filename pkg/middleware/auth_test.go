package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/payledger/pkg/config"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJwt = &config.Jwt{Secret: "middleware-secret", Expiry: time.Hour}

func protectedApp() *fiber.App {
	app := fiber.New()
	app.Use(JwtProtected(testJwt))
	app.Get("/", func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		sub, _ := token.Claims.GetSubject()
		return c.SendString(sub)
	})
	return app
}

func sign(t *testing.T, secret string, exp time.Time) (string, string) {
	t.Helper()
	sub := uuid.NewString()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": exp.Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw, sub
}

func TestProtected_MissingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := protectedApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestProtected_ValidToken(t *testing.T) {
	raw, _ := sign(t, testJwt.Secret, time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	resp, err := protectedApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestProtected_RejectsBadTokens(t *testing.T) {
	expired, _ := sign(t, testJwt.Secret, time.Now().Add(-time.Hour))
	forged, _ := sign(t, "other-secret", time.Now().Add(time.Hour))
	for name, raw := range map[string]string{"expired": expired, "forged": forged} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+raw)
			resp, err := protectedApp().Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestJwtError_Invalid(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		return jwtError(c, errors.New("any other error"))
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
}
