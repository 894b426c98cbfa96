package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/taskloop-api/internal/store"
)

func pgError(code, constraint string) error {
	return &pgconn.PgError{Code: code, ConstraintName: constraint}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, MapError(nil))
	})

	t.Run("no rows maps to not found", func(t *testing.T) {
		err := MapError(sql.ErrNoRows)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unique violation maps to duplicate", func(t *testing.T) {
		err := MapError(pgError(uniqueViolationCode, "users_email_key"))
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("foreign key violation maps to invalid entity", func(t *testing.T) {
		err := MapError(pgError(foreignKeyViolationCode, "fk_requester"))
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.Contains(t, err.Error(), "fk_requester")
	})

	t.Run("check violation maps to invalid entity", func(t *testing.T) {
		err := MapError(pgError(checkViolationCode, "chk_amount_positive"))
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("unrelated error passes through", func(t *testing.T) {
		original := errors.New("connection refused")
		assert.Equal(t, original, MapError(original))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(pgError(uniqueViolationCode, "")))
	assert.False(t, IsUniqueViolation(pgError(foreignKeyViolationCode, "")))
	assert.False(t, IsUniqueViolation(errors.New("other")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsForeignKeyViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsForeignKeyViolation(pgError(foreignKeyViolationCode, "")))
	assert.False(t, IsForeignKeyViolation(pgError(uniqueViolationCode, "")))
}

func TestMapUniqueViolation(t *testing.T) {
	t.Parallel()

	t.Run("maps to specific error", func(t *testing.T) {
		err := MapUniqueViolation(pgError(uniqueViolationCode, ""), store.ErrEmailExists)
		assert.ErrorIs(t, err, store.ErrEmailExists)
	})

	t.Run("falls back to generic duplicate", func(t *testing.T) {
		err := MapUniqueViolation(pgError(uniqueViolationCode, ""), nil)
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("leaves other errors alone", func(t *testing.T) {
		original := errors.New("timeout")
		assert.Equal(t, original, MapUniqueViolation(original, store.ErrEmailExists))
	})
}

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	t.Run("affected row passes", func(t *testing.T) {
		assert.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, "user"))
	})

	t.Run("zero rows is not found", func(t *testing.T) {
		err := CheckRowsAffected(fakeResult{rows: 0}, "user")
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Contains(t, err.Error(), "user")
	})

	t.Run("nil result is an error", func(t *testing.T) {
		require.Error(t, CheckRowsAffected(nil, "user"))
	})
}
