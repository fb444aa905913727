package common

import (
	"errors"

	"github.com/amirasaad/payledger/pkg/domain"
	authsvc "github.com/amirasaad/payledger/pkg/service/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var errMissingUser = errors.New("missing user context")

// CurrentPrincipal reads the caller from the token stored by the JWT
// middleware. On failure the 401 response is already written and ok is false.
func CurrentPrincipal(c *fiber.Ctx, authSvc *authsvc.Service) (p authsvc.Principal, ok bool, err error) {
	token, isToken := c.Locals("user").(*jwt.Token)
	if !isToken {
		return p, false, ProblemDetailsJSON(c, "Unauthorized", domain.ErrUnauthorized, errMissingUser.Error())
	}
	p, err = authSvc.GetCurrentPrincipal(token)
	if err != nil {
		return p, false, ProblemDetailsJSON(c, "Unauthorized", err)
	}
	return p, true, nil
}

// AdminOnly rejects callers without the admin claim.
func AdminOnly(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok, err := CurrentPrincipal(c, authSvc)
		if !ok {
			return err
		}
		if !p.Admin {
			return ProblemDetailsJSON(c, "Forbidden", domain.ErrForbidden, "admin privileges required")
		}
		return c.Next()
	}
}
