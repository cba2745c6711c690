package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/socialhub/internal/domain/account"
	"github.com/geocoder89/socialhub/internal/observability"
	"github.com/jackc/pgx/v5"
)

var (
	ErrUserNotFound     = account.ErrNotFound
	ErrEmailAlreadyUsed = account.ErrEmailTaken
)

const userColumns = `id, full_name, email, avatar_url, role, created_at, updated_at`

type UsersRepo struct {
	base
}

func NewUsersRepo(db DB, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{base{db: db, prom: prom}}
}

func scanAccount(row pgx.Row) (account.Account, error) {
	var (
		a    account.Account
		role string
	)

	err := row.Scan(
		&a.ID,
		&a.FullName,
		&a.Email,
		&a.AvatarURL,
		&role,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return account.Account{}, err
	}

	a.Role = account.Role(role)
	return a, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (account.Account, error) {
	var a account.Account

	err := r.observe("users.get_by_id", func() error {
		var err error
		a, err = scanAccount(r.db.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return err
	})
	if err != nil {
		// a malformed uuid can never name a user
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return account.Account{}, ErrUserNotFound
		}
		return account.Account{}, err
	}

	return a, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (account.Account, error) {
	var a account.Account

	err := r.observe("users.get_by_email", func() error {
		var err error
		a, err = scanAccount(r.db.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE lower(email) = $1`,
			account.NormalizeEmail(email)))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, ErrUserNotFound
		}
		return account.Account{}, err
	}

	return a, nil
}

// Update writes the mutable profile fields of a. Id, role and created_at are
// never touched.
func (r *UsersRepo) Update(ctx context.Context, a account.Account) (account.Account, error) {
	var out account.Account

	err := r.observe("users.update", func() error {
		var err error
		out, err = scanAccount(r.db.QueryRow(ctx, `
			UPDATE users
			SET full_name = $2, email = $3, avatar_url = $4, updated_at = $5
			WHERE id = $1
			RETURNING `+userColumns,
			a.ID, a.FullName, account.NormalizeEmail(a.Email), a.AvatarURL, time.Now().UTC(),
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, ErrUserNotFound
		}
		if IsUniqueViolation(err) {
			return account.Account{}, ErrEmailAlreadyUsed
		}
		return account.Account{}, err
	}

	return out, nil
}

// List pages through users ordered by (created_at, id).
func (r *UsersRepo) List(ctx context.Context, f account.ListFilter) ([]account.Account, error) {
	f = f.Normalize()

	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}

	if f.After != nil {
		query += ` WHERE (created_at, id) > ($1, $2)`
		args = append(args, f.After.CreatedAt, f.After.ID)
	}

	query += fmt.Sprintf(` ORDER BY created_at ASC, id ASC LIMIT $%d`, len(args)+1)
	args = append(args, f.Limit)

	out := make([]account.Account, 0, f.Limit)

	err := r.observe("users.list", func() error {
		rows, err := r.db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			a, err := scanAccount(rows)
			if err != nil {
				return err
			}
			out = append(out, a)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
