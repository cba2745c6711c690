package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/socialhub/internal/domain/account"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "full_name", "email", "avatar_url", "role", "created_at", "updated_at"}

func strPtr(s string) *string { return &s }

func TestUsersRepo_GetByID(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		want      account.Account
		wantErr   error
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(userCols).
					AddRow("u1", "Joe Doe", "joe@x.com", strPtr("https://cdn/a.jpg"), "admin", now, now)
				mock.ExpectQuery(`SELECT .+ FROM users WHERE id =`).
					WithArgs("u1").
					WillReturnRows(rows)
			},
			want: account.Account{
				ID: "u1", FullName: "Joe Doe", Email: "joe@x.com",
				AvatarURL: strPtr("https://cdn/a.jpg"), Role: account.RoleAdmin,
				CreatedAt: now, UpdatedAt: now,
			},
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE id =`).
					WithArgs("missing").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewUsersRepo(mock, nil)
			id := "u1"
			if tt.wantErr != nil {
				id = "missing"
			}

			got, err := repo.GetByID(context.Background(), id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestUsersRepo_GetByEmailNormalizes(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .+ FROM users WHERE lower\(email\) =`).
		WithArgs("joe@x.com").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow("u1", "Joe Doe", "joe@x.com", nil, "user", now, now))

	repo := NewUsersRepo(mock, nil)

	got, err := repo.GetByEmail(context.Background(), "  JOE@x.com ")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Nil(t, got.AvatarURL)
	assert.Equal(t, account.RoleUser, got.Role)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersRepo_Update(t *testing.T) {
	now := time.Now().UTC()
	in := account.Account{ID: "u1", FullName: "Joe", Email: "New@X.com"}

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "success",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE users`).
					WithArgs("u1", "Joe", "new@x.com", pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnRows(pgxmock.NewRows(userCols).
						AddRow("u1", "Joe", "new@x.com", nil, "user", now, now))
			},
		},
		{
			name: "email taken",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE users`).
					WithArgs("u1", "Joe", "new@x.com", pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: "23505"})
			},
			wantErr: ErrEmailAlreadyUsed,
		},
		{
			name: "missing row",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE users`).
					WithArgs("u1", "Joe", "new@x.com", pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setupMock(mock)

			got, err := NewUsersRepo(mock, nil).Update(context.Background(), in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "new@x.com", got.Email)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUsersRepo_List(t *testing.T) {
	now := time.Now().UTC()

	t.Run("first page", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM users ORDER BY created_at ASC, id ASC LIMIT`).
			WithArgs(2).
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow("u1", "A", "a@x.com", nil, "user", now, now).
				AddRow("u2", "B", "b@x.com", nil, "admin", now, now))

		got, err := NewUsersRepo(mock, nil).List(context.Background(), account.ListFilter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, account.RoleAdmin, got[1].Role)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("after cursor", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`WHERE \(created_at, id\) >`).
			WithArgs(now, "u2", account.DefaultListLimit).
			WillReturnRows(pgxmock.NewRows(userCols))

		got, err := NewUsersRepo(mock, nil).List(context.Background(), account.ListFilter{
			After: &account.Cursor{CreatedAt: now, ID: "u2"},
		})
		require.NoError(t, err)
		assert.Empty(t, got)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		boom := errors.New("connection refused")
		mock.ExpectQuery(`SELECT .+ FROM users`).WillReturnError(boom)

		_, err = NewUsersRepo(mock, nil).List(context.Background(), account.ListFilter{})
		require.ErrorIs(t, err, boom)
	})
}

func TestUsersRepo_GetByIDMalformedUUID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id =`).
		WithArgs("not-a-uuid").
		WillReturnError(&pgconn.PgError{Code: "22P02"})

	_, err = NewUsersRepo(mock, nil).GetByID(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, ErrUserNotFound)
}
