// Package common holds the response envelope, error mapping, request binding
// and middleware shared by the HTTP route packages.
package common

import (
	"errors"

	"github.com/amirasaad/payledger/pkg/domain"
	"github.com/amirasaad/payledger/pkg/domain/account"
	"github.com/amirasaad/payledger/pkg/domain/money"
	"github.com/amirasaad/payledger/pkg/domain/request"
	"github.com/gofiber/fiber/v2"
)

const problemContentType = "application/problem+json"

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`     // A URI reference that identifies the problem type
	Title    string `json:"title"`              // Short, human-readable summary
	Status   int    `json:"status"`             // HTTP status code
	Detail   string `json:"detail,omitempty"`   // Human-readable explanation
	Instance string `json:"instance,omitempty"` // URI reference that identifies the specific occurrence
	Errors   any    `json:"errors,omitempty"`   // Optional: additional error details
}

// SuccessResponseJSON writes the success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Status: status, Message: message, Data: data})
}

// ProblemDetailsJSON writes an RFC 9457 response for err. The status comes
// from ErrorToStatusCode unless an int is passed in opts; a string in opts
// replaces the detail, and any other value is reported under "errors".
// Details of unexpected errors are not exposed.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, opts ...any) error {
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   fiber.StatusInternalServerError,
		Instance: c.OriginalURL(),
	}
	if err != nil {
		pd.Status = ErrorToStatusCode(err)
		pd.Detail = err.Error()
	}
	overridden := false
	for _, o := range opts {
		switch v := o.(type) {
		case int:
			pd.Status = v
		case string:
			pd.Detail = v
			overridden = true
		case nil:
		default:
			pd.Errors = v
		}
	}
	if pd.Status == fiber.StatusInternalServerError && !overridden {
		pd.Detail = "an unexpected error occurred"
	}
	return c.Status(pd.Status).JSON(pd, problemContentType)
}

// ErrorToStatusCode maps domain errors to appropriate HTTP status codes.
func ErrorToStatusCode(err error) int {
	var fe *fiber.Error
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, account.ErrAccountNotFound),
		errors.Is(err, account.ErrEntryNotFound),
		errors.Is(err, request.ErrRequestNotFound),
		errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, money.ErrAmountTooLarge),
		errors.Is(err, account.ErrInvalidKind),
		errors.Is(err, account.ErrReferenceTooLong),
		errors.Is(err, request.ErrMissingDescription),
		errors.Is(err, request.ErrInvalidStatus),
		errors.Is(err, request.ErrInvalidTransition):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, account.ErrUnverifiedAccount):
		return fiber.StatusForbidden
	case errors.Is(err, request.ErrRequestAlreadyResolved),
		errors.Is(err, domain.ErrAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, account.ErrSameAccount),
		errors.Is(err, account.ErrLimitExceeded),
		errors.Is(err, account.ErrInsufficientFunds),
		errors.Is(err, account.ErrBalanceOverflow):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStorageConflict):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
