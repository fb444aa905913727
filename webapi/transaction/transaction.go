package transaction

import (
	"context"
	"errors"

	"github.com/amirasaad/payledger/pkg/config"
	"github.com/amirasaad/payledger/pkg/domain/account"
	"github.com/amirasaad/payledger/pkg/domain/money"
	"github.com/amirasaad/payledger/pkg/mapper"
	"github.com/amirasaad/payledger/pkg/middleware"
	"github.com/amirasaad/payledger/pkg/repository"
	authsvc "github.com/amirasaad/payledger/pkg/service/auth"
	"github.com/amirasaad/payledger/pkg/service/ledger"
	"github.com/amirasaad/payledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Routes registers HTTP routes for money movement and history. The caller
// is always the account acting: the sender of a transfer, the receiver of a
// deposit, the owner of the history. idempotency wraps the two POST routes.
//
// Routes:
//   - POST /transfers                      : Transfer from the caller.
//   - POST /deposits                       : Deposit into the caller's account.
//   - GET  /transactions                   : History, newest first (limit, offset).
//   - GET  /transactions/latest-sent       : Newest entry sent by the caller.
//   - GET  /transactions/latest-received   : Newest entry received by the caller.
func Routes(
	app *fiber.App,
	ledgerSvc *ledger.Service,
	authSvc *authsvc.Service,
	cfg *config.App,
	idempotency fiber.Handler,
) {
	protected := middleware.JwtProtected(cfg.Auth.Jwt)
	app.Post("/transfers", protected, idempotency, Transfer(ledgerSvc, authSvc))
	app.Post("/deposits", protected, idempotency, Deposit(ledgerSvc, authSvc))
	app.Get("/transactions", protected, History(ledgerSvc, authSvc))
	app.Get("/transactions/latest-sent", protected, LatestSent(ledgerSvc, authSvc))
	app.Get("/transactions/latest-received", protected, LatestReceived(ledgerSvc, authSvc))
}

// Transfer moves money from the caller to receiver_id.
func Transfer(ledgerSvc *ledger.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok, err := common.CurrentPrincipal(c, authSvc)
		if !ok {
			return err
		}
		input, err := common.BindAndValidate[TransferRequest](c)
		if input == nil {
			return err // error response already written
		}
		amount, err := money.FromDecimal(input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		}
		entry, err := ledgerSvc.Transfer(c.UserContext(), ledger.TransferInput{
			SenderID:   p.ID,
			ReceiverID: input.ReceiverID,
			Amount:     amount,
			Kind:       account.Kind(input.Kind),
			Reference:  input.Reference,
		})
		if err != nil {
			log.Errorf("Transfer from %s failed: %v", p.ID, err)
			return common.ProblemDetailsJSON(c, "Transfer failed", err)
		}
		return common.SuccessResponseJSON(
			c, fiber.StatusCreated, "Transfer successful", mapper.MapEntryToRead(entry, p.ID))
	}
}

// Deposit credits the caller's account from the external source.
func Deposit(ledgerSvc *ledger.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok, err := common.CurrentPrincipal(c, authSvc)
		if !ok {
			return err
		}
		input, err := common.BindAndValidate[DepositRequest](c)
		if input == nil {
			return err // error response already written
		}
		amount, err := money.FromDecimal(input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		}
		entry, err := ledgerSvc.Deposit(c.UserContext(), ledger.DepositInput{
			AccountID: p.ID,
			Amount:    amount,
			Reference: input.Reference,
		})
		if err != nil {
			log.Errorf("Deposit to %s failed: %v", p.ID, err)
			return common.ProblemDetailsJSON(c, "Deposit failed", err)
		}
		return common.SuccessResponseJSON(
			c, fiber.StatusCreated, "Deposit successful", mapper.MapEntryToRead(entry, p.ID))
	}
}

func History(ledgerSvc *ledger.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok, err := common.CurrentPrincipal(c, authSvc)
		if !ok {
			return err
		}
		page := repository.Page{
			Limit:  c.QueryInt("limit", 0),
			Offset: c.QueryInt("offset", 0),
		}
		if page.Limit < 0 || page.Offset < 0 {
			return common.ProblemDetailsJSON(c, "Invalid paging", nil,
				fiber.StatusBadRequest, "limit and offset must not be negative")
		}
		entries, err := ledgerSvc.History(c.UserContext(), p.ID, page)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list transactions", err)
		}
		return common.SuccessResponseJSON(
			c, fiber.StatusOK, "Transactions fetched", mapper.MapEntriesToRead(entries, p.ID))
	}
}

func LatestSent(ledgerSvc *ledger.Service, authSvc *authsvc.Service) fiber.Handler {
	return latest(authSvc, "No transactions sent", ledgerSvc.LatestSent)
}

func LatestReceived(ledgerSvc *ledger.Service, authSvc *authsvc.Service) fiber.Handler {
	return latest(authSvc, "No transactions received", ledgerSvc.LatestReceived)
}

func latest(
	authSvc *authsvc.Service,
	emptyTitle string,
	find func(ctx context.Context, id uuid.UUID) (*account.Entry, error),
) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok, err := common.CurrentPrincipal(c, authSvc)
		if !ok {
			return err
		}
		entry, err := find(c.UserContext(), p.ID)
		if errors.Is(err, account.ErrEntryNotFound) {
			return common.ProblemDetailsJSON(c, emptyTitle, err)
		}
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to fetch transaction", err)
		}
		return common.SuccessResponseJSON(
			c, fiber.StatusOK, "Transaction fetched", mapper.MapEntryToRead(entry, p.ID))
	}
}
