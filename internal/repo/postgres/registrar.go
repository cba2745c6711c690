package postgres

import (
	"context"

	"github.com/geocoder89/socialhub/internal/domain/account"
	"github.com/geocoder89/socialhub/internal/observability"
)

// Registrar creates an account together with its credential.
type Registrar struct {
	base
}

func NewRegistrar(db DB, prom *observability.Prom) *Registrar {
	return &Registrar{base{db: db, prom: prom}}
}

// CreateWithCredential inserts the user row and its password_hash row in one
// transaction. Either both persist or neither does.
func (r *Registrar) CreateWithCredential(ctx context.Context, a account.Account, c account.Credential) (out account.Account, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return account.Account{}, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	err = r.observe("users.create_tx.insert_user", func() error {
		var err error
		out, err = scanAccount(tx.QueryRow(ctx, `
			INSERT INTO users (id, full_name, email, avatar_url, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+userColumns,
			a.ID, a.FullName, account.NormalizeEmail(a.Email), a.AvatarURL, string(a.Role), a.CreatedAt, a.UpdatedAt,
		))
		return err
	})
	if err != nil {
		if IsUniqueViolation(err) {
			err = ErrEmailAlreadyUsed
		}
		return account.Account{}, err
	}

	err = r.observe("users.create_tx.insert_credential", func() error {
		_, err := tx.Exec(ctx, `
			INSERT INTO password_hash (user_id, hash, salt, algorithm, updated_at)
			VALUES ($1, $2, $3, $4, $5)`,
			out.ID, c.Hash, c.Salt, c.Algorithm, c.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return account.Account{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return account.Account{}, err
	}

	return out, nil
}
