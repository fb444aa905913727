// Package auth turns bearer tokens issued by the identity provider into
// principals. Accounts are keyed by the principal id carried in the "sub"
// claim; an "admin" claim grants the administrative routes.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/payledger/pkg/config"
	"github.com/amirasaad/payledger/pkg/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const userContextKey contextKey = "user"

// Principal is the authenticated caller.
type Principal struct {
	ID    uuid.UUID
	Admin bool
}

type Strategy interface {
	GetCurrentPrincipal(ctx context.Context) (Principal, error)
	GenerateToken(ctx context.Context, p Principal) (string, error)
}

type Service struct {
	strategy Strategy
	logger   *slog.Logger
}

func New(strategy Strategy, logger *slog.Logger) *Service {
	return &Service{strategy: strategy, logger: logger}
}

func NewWithJWT(cfg *config.Jwt, logger *slog.Logger) *Service {
	return New(NewJWTStrategy(cfg, logger), logger)
}

// GetCurrentPrincipal reads the principal from a token validated by the JWT
// middleware.
func (s *Service) GetCurrentPrincipal(token *jwt.Token) (p Principal, err error) {
	log := s.logger.With("context", "GetCurrentPrincipal")
	p, err = s.strategy.GetCurrentPrincipal(
		context.WithValue(context.Background(), userContextKey, token),
	)
	if err != nil {
		log.Warn("GetCurrentPrincipal failed", "error", err)
		return
	}
	log.Debug("GetCurrentPrincipal successful", "principal", p.ID, "admin", p.Admin)
	return
}

func (s *Service) GetCurrentUserId(token *jwt.Token) (uuid.UUID, error) {
	p, err := s.GetCurrentPrincipal(token)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

func (s *Service) GenerateToken(ctx context.Context, p Principal) (string, error) {
	log := s.logger.With("principal", p.ID)
	token, err := s.strategy.GenerateToken(ctx, p)
	if err != nil {
		log.Error("GenerateToken failed", "error", err)
		return "", err
	}
	log.Info("GenerateToken successful", "admin", p.Admin)
	return token, nil
}

// JWTStrategy implements Strategy for HS256 bearer tokens.
type JWTStrategy struct {
	cfg    *config.Jwt
	logger *slog.Logger
	now    func() time.Time
}

func NewJWTStrategy(cfg *config.Jwt, logger *slog.Logger) *JWTStrategy {
	return &JWTStrategy{cfg: cfg, logger: logger, now: time.Now}
}

func (s *JWTStrategy) GenerateToken(_ context.Context, p Principal) (string, error) {
	if p.ID == uuid.Nil {
		return "", fmt.Errorf("%w: principal id is required", domain.ErrValidation)
	}
	now := s.now()
	claims := jwt.MapClaims{
		"sub": p.ID.String(),
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.Expiry).Unix(),
	}
	if p.Admin {
		claims["admin"] = true
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
}

func (s *JWTStrategy) GetCurrentPrincipal(ctx context.Context) (Principal, error) {
	token, ok := ctx.Value(userContextKey).(*jwt.Token)
	if !ok || token == nil {
		return Principal{}, domain.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, domain.ErrUnauthorized
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Principal{}, domain.ErrUnauthorized
	}
	id, err := uuid.Parse(sub)
	if err != nil || id == uuid.Nil {
		return Principal{}, fmt.Errorf("%w: subject is not an account id", domain.ErrUnauthorized)
	}
	admin, _ := claims["admin"].(bool)
	return Principal{ID: id, Admin: admin}, nil
}
