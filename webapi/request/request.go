package request

import (
	"github.com/amirasaad/payledger/pkg/config"
	"github.com/amirasaad/payledger/pkg/domain"
	"github.com/amirasaad/payledger/pkg/domain/money"
	domainrequest "github.com/amirasaad/payledger/pkg/domain/request"
	"github.com/amirasaad/payledger/pkg/dto"
	"github.com/amirasaad/payledger/pkg/mapper"
	"github.com/amirasaad/payledger/pkg/middleware"
	authsvc "github.com/amirasaad/payledger/pkg/service/auth"
	requestsvc "github.com/amirasaad/payledger/pkg/service/request"
	"github.com/amirasaad/payledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Routes registers HTTP routes for payment requests. idempotency wraps the
// two POST routes.
//
// Routes:
//   - POST /requests              : Ask payer_id to pay the caller.
//   - GET  /requests              : The caller's requests (direction=all|sent|received).
//   - GET  /requests/:id          : One request; parties only.
//   - POST /requests/:id/resolve  : Accept (payer only) or cancel (either party).
func Routes(
	app *fiber.App,
	requestSvc *requestsvc.Service,
	authSvc *authsvc.Service,
	cfg *config.App,
	idempotency fiber.Handler,
) {
	protected := middleware.JwtProtected(cfg.Auth.Jwt)
	app.Post("/requests", protected, idempotency, CreateRequestHandler(requestSvc, authSvc))
	app.Get("/requests", protected, ListRequests(requestSvc, authSvc))
	app.Get("/requests/:id", protected, GetRequest(requestSvc, authSvc))
	app.Post("/requests/:id/resolve", protected, idempotency, ResolveRequestHandler(requestSvc, authSvc))
}

// CreateRequestHandler creates a Pending request with the caller as requester.
func CreateRequestHandler(requestSvc *requestsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok, err := common.CurrentPrincipal(c, authSvc)
		if !ok {
			return err
		}
		input, err := common.BindAndValidate[CreateRequest](c)
		if input == nil {
			return err // error response already written
		}
		amount, err := money.FromDecimal(input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		}
		req, err := requestSvc.Create(c.UserContext(), requestsvc.CreateInput{
			RequesterID: p.ID,
			PayerID:     input.PayerID,
			Amount:      amount,
			Description: input.Description,
		})
		if err != nil {
			log.Errorf("CreateRequest by %s failed: %v", p.ID, err)
			return common.ProblemDetailsJSON(c, "Failed to create request", err)
		}
		return common.SuccessResponseJSON(
			c, fiber.StatusCreated, "Request created", mapper.MapRequestToRead(req))
	}
}

func ListRequests(requestSvc *requestsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok, err := common.CurrentPrincipal(c, authSvc)
		if !ok {
			return err
		}
		dir, err := domainrequest.ParseDirection(c.Query("direction"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid direction", err)
		}
		reqs, err := requestSvc.List(c.UserContext(), p.ID, dir)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list requests", err)
		}
		return common.SuccessResponseJSON(
			c, fiber.StatusOK, "Requests fetched", mapper.MapRequestsToRead(reqs))
	}
}

// GetRequest returns a request the caller is party to. Anyone else gets 403.
func GetRequest(requestSvc *requestsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok, err := common.CurrentPrincipal(c, authSvc)
		if !ok {
			return err
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid request ID", err,
				"Request ID must be a valid UUID", fiber.StatusBadRequest)
		}
		req, err := requestSvc.Get(c.UserContext(), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to fetch request", err)
		}
		if !req.Involves(p.ID) {
			return common.ProblemDetailsJSON(c, "Forbidden", domain.ErrForbidden,
				"not a party to this request")
		}
		return common.SuccessResponseJSON(
			c, fiber.StatusOK, "Request fetched", mapper.MapRequestToRead(req))
	}
}

// ResolveRequestHandler accepts or cancels a Pending request on behalf of
// the caller. An accepted request includes the payment entry.
func ResolveRequestHandler(requestSvc *requestsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok, err := common.CurrentPrincipal(c, authSvc)
		if !ok {
			return err
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid request ID", err,
				"Request ID must be a valid UUID", fiber.StatusBadRequest)
		}
		input, err := common.BindAndValidate[ResolveRequest](c)
		if input == nil {
			return err // error response already written
		}
		status, err := domainrequest.ParseStatus(input.Status)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid status", err)
		}
		req, entry, err := requestSvc.Resolve(c.UserContext(), requestsvc.ResolveInput{
			RequestID: id,
			Status:    status,
			ActorID:   p.ID,
			Reference: input.Reference,
		})
		if err != nil {
			log.Errorf("ResolveRequest %s by %s failed: %v", id, p.ID, err)
			return common.ProblemDetailsJSON(c, "Failed to resolve request", err)
		}
		result := dto.ResolveResult{Request: *mapper.MapRequestToRead(req)}
		if entry != nil {
			result.Entry = mapper.MapEntryToRead(entry, p.ID)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Request "+string(req.Status), result)
	}
}
