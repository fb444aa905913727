// Package testutils builds a fully wired HTTP app for route tests, either on
// the in-memory store or on a Postgres container.
package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	infracache "github.com/amirasaad/payledger/infra/cache"
	infraeventbus "github.com/amirasaad/payledger/infra/eventbus"
	"github.com/amirasaad/payledger/infra/memory"
	"github.com/amirasaad/payledger/pkg/app"
	"github.com/amirasaad/payledger/pkg/config"
	"github.com/amirasaad/payledger/pkg/repository"
	"github.com/amirasaad/payledger/pkg/service/auth"
	"github.com/amirasaad/payledger/webapi"
	"github.com/amirasaad/payledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// TestConfig returns a complete configuration suitable for tests.
func TestConfig() *config.App {
	return &config.App{
		Env:    "test",
		Server: &config.Server{Scheme: "http", Host: "localhost", Port: 3000, ShutdownTimeout: time.Second},
		Log:    &config.Log{Format: "text"},
		DB:     &config.DB{MaxOpenConns: 10, AutoMigrate: true},
		Auth: &config.Auth{Jwt: &config.Jwt{
			Secret: "test-secret-for-route-tests",
			Expiry: time.Hour,
		}},
		Redis:     &config.Redis{KeyPrefix: "payledger-test:"},
		Kafka:     &config.Kafka{},
		RateLimit: &config.RateLimit{MaxRequests: 10000, Window: time.Minute},
		Ledger: &config.Ledger{
			DefaultBalance:          "1000.00",
			DefaultTransactionLimit: "5000.00",
			RetryAttempts:           3,
			RetryInterval:           5 * time.Millisecond,
			HistoryLimit:            100,
		},
		Idempotency: &config.Idempotency{TTL: time.Hour},
	}
}

// TestApp is a wired Fiber app plus handles on its collaborators.
type TestApp struct {
	App    *fiber.App
	Core   *app.App
	Bus    *infraeventbus.MemoryEventBus
	Config *config.App
}

// NewTestApp wires the app on the in-memory store, bus and idempotency cache.
func NewTestApp(t testing.TB, cfg *config.App) *TestApp {
	t.Helper()
	return NewTestAppWithUoW(t, cfg, memory.NewUoW(memory.NewStore()))
}

// NewTestAppWithUoW wires the app on the given unit of work.
func NewTestAppWithUoW(t testing.TB, cfg *config.App, uow repository.UnitOfWork) *TestApp {
	t.Helper()
	if cfg == nil {
		cfg = TestConfig()
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := infraeventbus.NewWithMemory(logger)
	store := infracache.NewMemoryCache()
	t.Cleanup(func() { _ = store.Close() })

	core, err := app.New(&config.Deps{
		Uow:              uow,
		EventBus:         bus,
		IdempotencyStore: store,
		Logger:           logger,
		Config:           cfg,
	}, cfg)
	require.NoError(t, err)

	return &TestApp{
		App:    webapi.SetupApp(core),
		Core:   core,
		Bus:    bus,
		Config: cfg,
	}
}

// Token mints a bearer token for id.
func (a *TestApp) Token(t testing.TB, id uuid.UUID, admin bool) string {
	t.Helper()
	token, err := a.Core.AuthService.GenerateToken(context.Background(), auth.Principal{ID: id, Admin: admin})
	require.NoError(t, err)
	return token
}

// OpenAccount opens an account through the API and returns its id and a
// token for it.
func (a *TestApp) OpenAccount(t testing.TB) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	token := a.Token(t, id, false)
	resp := a.MakeRequest(http.MethodPost, "/accounts", "", token)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return id, token
}

// Verify sets the verification flag of id through the admin route.
func (a *TestApp) Verify(t testing.TB, id uuid.UUID) {
	t.Helper()
	resp := a.MakeRequest(http.MethodPut, "/accounts/"+id.String()+"/verify",
		`{"verified":true}`, a.Token(t, uuid.New(), true))
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

// MakeRequest is a helper for making HTTP requests in tests
func (a *TestApp) MakeRequest(method, path, body, token string, headers ...map[string]string) *http.Response {
	return MakeRequest(a.App, method, path, body, token, headers...)
}

// MakeRequest sends one request through app.Test.
func MakeRequest(
	app *fiber.App,
	method, path, body, token string,
	headers ...map[string]string,
) *http.Response {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, h := range headers {
		for k, v := range h {
			req.Header.Set(k, v)
		}
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		panic(err) // For standalone tests, panic on error
	}
	return resp
}

// Decode reads a success envelope and unmarshals its data into T.
func Decode[T any](t testing.TB, resp *http.Response) T {
	t.Helper()
	var envelope struct {
		common.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	var out T
	require.NoError(t, json.Unmarshal(envelope.Data, &out))
	return out
}

// DecodeProblem reads a problem+json body.
func DecodeProblem(t testing.TB, resp *http.Response) common.ProblemDetails {
	t.Helper()
	var pd common.ProblemDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	return pd
}

// MustAmount converts a major-unit decimal string from a response to minor units.
func MustAmount(t testing.TB, s string) int64 {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d.Shift(2).IntPart()
}
