package account

import (
	"github.com/amirasaad/payledger/pkg/config"
	"github.com/amirasaad/payledger/pkg/dto"
	"github.com/amirasaad/payledger/pkg/mapper"
	"github.com/amirasaad/payledger/pkg/middleware"
	accountsvc "github.com/amirasaad/payledger/pkg/service/account"
	authsvc "github.com/amirasaad/payledger/pkg/service/auth"
	"github.com/amirasaad/payledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Routes registers HTTP routes for accounts.
//
// Routes:
//   - POST /accounts             : Open the caller's account.
//   - GET  /accounts/me          : The caller's account.
//   - GET  /accounts/:id         : Receiver lookup (id and verification only).
//   - PUT  /accounts/:id/verify  : Admin only. Set the verification flag.
func Routes(
	app *fiber.App,
	accountSvc *accountsvc.Service,
	authSvc *authsvc.Service,
	cfg *config.App,
) {
	protected := middleware.JwtProtected(cfg.Auth.Jwt)
	app.Post("/accounts", protected, OpenAccount(accountSvc, authSvc))
	app.Get("/accounts/me", protected, GetMyAccount(accountSvc, authSvc))
	app.Get("/accounts/:id", protected, LookupAccount(accountSvc, authSvc))
	app.Put(
		"/accounts/:id/verify",
		protected,
		common.AdminOnly(authSvc),
		SetVerified(accountSvc),
	)
}

// OpenAccount creates the caller's account with the configured opening
// balance and transaction limit. The account id is the token subject.
func OpenAccount(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok, err := common.CurrentPrincipal(c, authSvc)
		if !ok {
			return err
		}
		acc, err := accountSvc.Open(c.UserContext(), p.ID)
		if err != nil {
			log.Errorf("Failed to open account: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to open account", err)
		}
		return common.SuccessResponseJSON(
			c, fiber.StatusCreated, "Account opened", mapper.MapAccountToRead(acc))
	}
}

// GetMyAccount returns the caller's full account view.
func GetMyAccount(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok, err := common.CurrentPrincipal(c, authSvc)
		if !ok {
			return err
		}
		acc, err := accountSvc.Get(c.UserContext(), p.ID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to fetch account", err)
		}
		return common.SuccessResponseJSON(
			c, fiber.StatusOK, "Account fetched", mapper.MapAccountToRead(acc))
	}
}

// LookupAccount lets a sender confirm a receiver exists and is verified
// without seeing its balance.
func LookupAccount(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok, err := common.CurrentPrincipal(c, authSvc); !ok {
			return err
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid account ID", err,
				"Account ID must be a valid UUID", fiber.StatusBadRequest)
		}
		summary, err := accountSvc.Lookup(c.UserContext(), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to look up account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account found", dto.AccountSummary{
			ID:         summary.ID,
			IsVerified: summary.IsVerified,
		})
	}
}

func SetVerified(accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid account ID", err,
				"Account ID must be a valid UUID", fiber.StatusBadRequest)
		}
		input, err := common.BindAndValidate[VerifyRequest](c)
		if input == nil {
			return err // error response already written
		}
		acc, err := accountSvc.SetVerified(c.UserContext(), id, *input.Verified)
		if err != nil {
			log.Errorf("Failed to set verification for %s: %v", id, err)
			return common.ProblemDetailsJSON(c, "Failed to update verification", err)
		}
		return common.SuccessResponseJSON(
			c, fiber.StatusOK, "Verification updated", mapper.MapAccountToRead(acc))
	}
}
