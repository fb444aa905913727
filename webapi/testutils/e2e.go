package testutils

import (
	"context"
	"net/http"
	"testing"
	"time"

	infrarepo "github.com/amirasaad/payledger/infra/repository"
	"github.com/amirasaad/payledger/internal/migrations"
	"github.com/amirasaad/payledger/pkg/config"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// E2ETestSuite provides a test suite with a real Postgres database using Testcontainers
type E2ETestSuite struct {
	suite.Suite
	pgContainer *tcpostgres.PostgresContainer
	DB          *gorm.DB
	Cfg         *config.App
	*TestApp
}

// startPostgresContainer starts a Postgres container using Testcontainers
func (s *E2ETestSuite) startPostgresContainer(ctx context.Context) (*tcpostgres.PostgresContainer, error) {
	return tcpostgres.Run(
		ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second),
		),
	)
}

// SetupSuite starts Postgres, applies the embedded migrations and wires the
// app on the gorm unit of work. It skips in -short mode or without Docker.
func (s *E2ETestSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("skipping Postgres e2e suite in short mode")
	}
	ctx := context.Background()

	pg, err := s.startPostgresContainer(ctx)
	if err != nil {
		s.T().Skipf("postgres container unavailable: %v", err)
	}
	s.pgContainer = pg

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	s.Require().NoError(err)

	sqlDB, err := s.DB.DB()
	s.Require().NoError(err)
	s.Require().NoError(migrations.Up(sqlDB))

	s.Cfg = TestConfig()
	s.Cfg.DB.Url = dsn
	s.TestApp = NewTestAppWithUoW(s.T(), s.Cfg, infrarepo.NewUoW(s.DB))
}

// TearDownSuite cleans up the test suite resources
func (s *E2ETestSuite) TearDownSuite() {
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(context.Background())
	}
}

// MakeRequest is a helper for making HTTP requests in tests
func (s *E2ETestSuite) MakeRequest(method, path, body, token string, headers ...map[string]string) *http.Response {
	return s.TestApp.MakeRequest(method, path, body, token, headers...)
}
