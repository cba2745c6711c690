package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/socialhub/internal/accounts"
	"github.com/geocoder89/socialhub/internal/config"
	"github.com/geocoder89/socialhub/internal/domain/account"
)

type AdminRegistrar interface {
	Register(ctx context.Context, in accounts.RegisterInput) (account.Account, error)
}

// EnsureAdminUser creates the configured admin account on first start. An
// existing account with that email is left untouched, password included.
func EnsureAdminUser(ctx context.Context, reg AdminRegistrar, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	name := cfg.AdminName
	if name == "" {
		name = "Administrator"
	}

	a, err := reg.Register(ctx, accounts.RegisterInput{
		FullName: name,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Role:     account.RoleAdmin,
	})
	if err != nil {
		if errors.Is(err, accounts.ErrDuplicateEmail) {
			return nil
		}
		return err
	}

	slog.Default().InfoContext(ctx, "admin account seeded", "user_id", a.ID)
	return nil
}
