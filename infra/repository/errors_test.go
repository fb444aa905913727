package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/amirasaad/payledger/pkg/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapGormErrorToDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    error
		expected error
	}{
		{"duplicate key", gorm.ErrDuplicatedKey, domain.ErrAlreadyExists},
		{"record not found", gorm.ErrRecordNotFound, domain.ErrNotFound},
		{"joined duplicate key", errors.Join(errors.New("outer"), gorm.ErrDuplicatedKey), domain.ErrAlreadyExists},
		{"wrapped not found", fmt.Errorf("load account: %w", gorm.ErrRecordNotFound), domain.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: pgUniqueViolation}, domain.ErrAlreadyExists},
		{"serialization failure", &pgconn.PgError{Code: pgSerializationFailure}, domain.ErrStorageConflict},
		{"deadlock", fmt.Errorf("commit: %w", &pgconn.PgError{Code: pgDeadlockDetected}), domain.ErrStorageConflict},
		{"lock not available", &pgconn.PgError{Code: pgLockNotAvailable}, domain.ErrStorageConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, MapGormErrorToDomain(tt.input), tt.expected)
		})
	}
}

func TestMapGormErrorToDomain_Passthrough(t *testing.T) {
	assert.NoError(t, MapGormErrorToDomain(nil))

	other := errors.New("connection refused")
	assert.Same(t, other, MapGormErrorToDomain(other))

	check := &pgconn.PgError{Code: "23514", Message: "check violation"}
	assert.Equal(t, error(check), MapGormErrorToDomain(check))
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError(func() error { return nil }))
	assert.ErrorIs(t, WrapError(func() error { return gorm.ErrRecordNotFound }), domain.ErrNotFound)
}

func TestMapConflict_KeepsSQLState(t *testing.T) {
	err := MapGormErrorToDomain(&pgconn.PgError{Code: pgSerializationFailure, Message: "could not serialize access"})
	assert.ErrorIs(t, err, domain.ErrStorageConflict)
	assert.Contains(t, err.Error(), "40001")
	assert.Contains(t, err.Error(), "could not serialize access")
}
