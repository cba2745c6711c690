package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/socialhub/internal/domain/account"
	"github.com/geocoder89/socialhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrCredentialNotFound = account.ErrCredentialNotFound

type CredentialsRepo struct {
	base
}

func NewCredentialsRepo(db DB, prom *observability.Prom) *CredentialsRepo {
	return &CredentialsRepo{base{db: db, prom: prom}}
}

func scanCredential(row pgx.Row) (account.Credential, error) {
	var c account.Credential

	err := row.Scan(&c.UserID, &c.Hash, &c.Salt, &c.Algorithm, &c.UpdatedAt)
	if err != nil {
		return account.Credential{}, err
	}

	return c, nil
}

func (r *CredentialsRepo) GetByEmail(ctx context.Context, email string) (account.Credential, error) {
	var c account.Credential

	err := r.observe("credentials.get_by_email", func() error {
		var err error
		c, err = scanCredential(r.db.QueryRow(ctx, `
			SELECT p.user_id, p.hash, p.salt, p.algorithm, p.updated_at
			FROM password_hash p
			JOIN users u ON u.id = p.user_id
			WHERE lower(u.email) = $1`,
			account.NormalizeEmail(email),
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Credential{}, ErrCredentialNotFound
		}
		return account.Credential{}, err
	}

	return c, nil
}

func (r *CredentialsRepo) GetByUserID(ctx context.Context, userID string) (account.Credential, error) {
	var c account.Credential

	err := r.observe("credentials.get_by_user_id", func() error {
		var err error
		c, err = scanCredential(r.db.QueryRow(ctx, `
			SELECT user_id, hash, salt, algorithm, updated_at
			FROM password_hash
			WHERE user_id = $1`,
			userID,
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Credential{}, ErrCredentialNotFound
		}
		return account.Credential{}, err
	}

	return c, nil
}

// Replace swaps hash, salt and algorithm of an existing credential.
func (r *CredentialsRepo) Replace(ctx context.Context, c account.Credential) error {
	var tag pgconn.CommandTag

	err := r.observe("credentials.replace", func() error {
		var err error
		tag, err = r.db.Exec(ctx, `
			UPDATE password_hash
			SET hash = $2, salt = $3, algorithm = $4, updated_at = $5
			WHERE user_id = $1`,
			c.UserID, c.Hash, c.Salt, c.Algorithm, time.Now().UTC(),
		)
		return err
	})
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrCredentialNotFound
	}

	return nil
}
