package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/socialhub/internal/domain/account"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var credCols = []string{"user_id", "hash", "salt", "algorithm", "updated_at"}

func TestCredentialsRepo_GetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM password_hash p\s+JOIN users u`).
		WithArgs("joe@x.com").
		WillReturnRows(pgxmock.NewRows(credCols).AddRow("u1", "h", "s", "argon2id", now))

	got, err := NewCredentialsRepo(mock, nil).GetByEmail(context.Background(), "Joe@X.com")
	require.NoError(t, err)
	assert.Equal(t, account.Credential{UserID: "u1", Hash: "h", Salt: "s", Algorithm: "argon2id", UpdatedAt: now}, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialsRepo_GetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM password_hash p`).WithArgs("nobody@x.com").WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`FROM password_hash\s+WHERE user_id`).WithArgs("u9").WillReturnError(pgx.ErrNoRows)

	repo := NewCredentialsRepo(mock, nil)

	_, err = repo.GetByEmail(context.Background(), "nobody@x.com")
	require.ErrorIs(t, err, ErrCredentialNotFound)

	_, err = repo.GetByUserID(context.Background(), "u9")
	require.ErrorIs(t, err, ErrCredentialNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialsRepo_Replace(t *testing.T) {
	cred := account.Credential{UserID: "u1", Hash: "h2", Salt: "s2", Algorithm: "argon2id"}

	t.Run("updated", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE password_hash`).
			WithArgs("u1", "h2", "s2", "argon2id", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, NewCredentialsRepo(mock, nil).Replace(context.Background(), cred))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE password_hash`).
			WithArgs("u1", "h2", "s2", "argon2id", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = NewCredentialsRepo(mock, nil).Replace(context.Background(), cred)
		require.ErrorIs(t, err, ErrCredentialNotFound)
	})
}
