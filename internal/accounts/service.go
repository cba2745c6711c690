// Package accounts is the authentication service: registration, credential
// verification, profile and password changes over the account directory and
// credential store.
package accounts

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/geocoder89/socialhub/internal/domain/account"
	"github.com/geocoder89/socialhub/internal/security"
	"github.com/google/uuid"
)

const MinPasswordLength = 8

type Directory interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Update(ctx context.Context, a account.Account) (account.Account, error)
	List(ctx context.Context, f account.ListFilter) ([]account.Account, error)
}

type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (account.Credential, error)
	GetByUserID(ctx context.Context, userID string) (account.Credential, error)
	Replace(ctx context.Context, c account.Credential) error
}

type Registrar interface {
	CreateWithCredential(ctx context.Context, a account.Account, c account.Credential) (account.Account, error)
}

// Observer receives one event per authentication attempt.
type Observer interface {
	ObserveAuth(op, result string)
}

type RegisterInput struct {
	FullName  string
	Email     string
	Password  string
	AvatarURL *string
	// Role defaults to user. Only the admin seed sets it.
	Role account.Role
}

type Changes = account.Changes

type Page struct {
	Items []account.Account
	Next  *account.Cursor
}

type Service struct {
	users     Directory
	creds     CredentialStore
	registrar Registrar
	hashers   *security.Registry
	log       *slog.Logger
	obs       Observer
	now       func() time.Time

	// verified in place of a real credential when the email is unknown
	dummy account.Credential
}

func NewService(users Directory, creds CredentialStore, registrar Registrar, hashers *security.Registry, log *slog.Logger, obs Observer) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		users:     users,
		creds:     creds,
		registrar: registrar,
		hashers:   hashers,
		log:       log,
		obs:       obs,
		now:       time.Now,
	}

	dummy, err := s.newCredential(randomPassword())
	if err != nil {
		return nil, err
	}
	s.dummy = dummy

	return s, nil
}

func (s *Service) observe(op, result string) {
	if s.obs != nil {
		s.obs.ObserveAuth(op, result)
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (account.Account, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := account.NormalizeEmail(in.Email)

	if fullName == "" || email == "" {
		s.observe("register", "invalid_input")
		return account.Account{}, ErrInvalidInput
	}

	if !strongEnough(in.Password) {
		s.observe("register", "weak_password")
		return account.Account{}, ErrWeakPassword
	}

	role := in.Role
	if role == "" {
		role = account.RoleUser
	}
	if !role.IsValid() {
		return account.Account{}, ErrInvalidInput
	}

	cred, err := s.newCredential(in.Password)
	if err != nil {
		s.observe("register", "error")
		return account.Account{}, err
	}

	now := s.now().UTC()
	a := account.Account{
		ID:        uuid.NewString(),
		FullName:  fullName,
		Email:     email,
		AvatarURL: in.AvatarURL,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.registrar.CreateWithCredential(ctx, a, cred)
	if err != nil {
		if errors.Is(err, account.ErrEmailTaken) {
			s.observe("register", "duplicate_email")
			return account.Account{}, ErrDuplicateEmail
		}
		s.observe("register", "error")
		return account.Account{}, storageErr("create account", err)
	}

	s.observe("register", "success")
	s.log.InfoContext(ctx, "account registered", "user_id", created.ID)

	return created, nil
}

// Authenticate never says which factor failed: unknown email and wrong
// password both return ErrInvalidCredentials after one hash verification.
func (s *Service) Authenticate(ctx context.Context, email, password string) (account.Account, error) {
	cred, err := s.creds.GetByEmail(ctx, account.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, account.ErrCredentialNotFound) {
			s.burn(password)
			s.observe("login", "invalid_credentials")
			return account.Account{}, ErrInvalidCredentials
		}
		s.observe("login", "error")
		return account.Account{}, storageErr("load credential", err)
	}

	ok, err := s.verify(cred, password)
	if err != nil {
		s.observe("login", "error")
		s.log.ErrorContext(ctx, "credential verification failed", "user_id", cred.UserID, "algorithm", cred.Algorithm, "err", err)
		return account.Account{}, storageErr("verify credential", err)
	}
	if !ok {
		s.observe("login", "invalid_credentials")
		s.log.InfoContext(ctx, "login rejected", "user_id", cred.UserID)
		return account.Account{}, ErrInvalidCredentials
	}

	a, err := s.users.GetByID(ctx, cred.UserID)
	if err != nil {
		s.observe("login", "error")
		return account.Account{}, storageErr("load account", err)
	}

	if s.hashers.NeedsRehash(cred.Algorithm) {
		s.rehash(ctx, cred.UserID, cred.Algorithm, password)
	}

	s.observe("login", "success")
	return a, nil
}

func (s *Service) Get(ctx context.Context, id account.Identity) (account.Account, error) {
	return s.GetByID(ctx, id.UserID)
}

func (s *Service) GetByID(ctx context.Context, userID string) (account.Account, error) {
	a, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return account.Account{}, ErrNotFound
		}
		return account.Account{}, storageErr("load account", err)
	}
	return a, nil
}

// Update only ever targets the account named by id.
func (s *Service) Update(ctx context.Context, id account.Identity, ch Changes, newAvatarURL *string) (account.Account, error) {
	a, err := s.GetByID(ctx, id.UserID)
	if err != nil {
		return account.Account{}, err
	}

	if ch.FullName != nil {
		name := strings.TrimSpace(*ch.FullName)
		if name == "" {
			return account.Account{}, ErrInvalidInput
		}
		a.FullName = name
	}

	if ch.Email != nil {
		email := account.NormalizeEmail(*ch.Email)
		if email == "" {
			return account.Account{}, ErrInvalidInput
		}
		a.Email = email
	}

	if newAvatarURL != nil {
		a.AvatarURL = newAvatarURL
	}

	out, err := s.users.Update(ctx, a)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrEmailTaken):
			return account.Account{}, ErrDuplicateEmail
		case errors.Is(err, account.ErrNotFound):
			return account.Account{}, ErrNotFound
		default:
			return account.Account{}, storageErr("update account", err)
		}
	}

	return out, nil
}

func (s *Service) ChangePassword(ctx context.Context, id account.Identity, current, next string) error {
	if !strongEnough(next) {
		s.observe("change_password", "weak_password")
		return ErrWeakPassword
	}

	cred, err := s.creds.GetByUserID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, account.ErrCredentialNotFound) {
			s.burn(current)
			s.observe("change_password", "invalid_credentials")
			return ErrInvalidCredentials
		}
		s.observe("change_password", "error")
		return storageErr("load credential", err)
	}

	ok, err := s.verify(cred, current)
	if err != nil {
		s.observe("change_password", "error")
		return storageErr("verify credential", err)
	}
	if !ok {
		s.observe("change_password", "invalid_credentials")
		return ErrInvalidCredentials
	}

	replacement, err := s.newCredential(next)
	if err != nil {
		s.observe("change_password", "error")
		return err
	}
	replacement.UserID = id.UserID

	if err := s.creds.Replace(ctx, replacement); err != nil {
		s.observe("change_password", "error")
		return storageErr("replace credential", err)
	}

	s.observe("change_password", "success")
	s.log.InfoContext(ctx, "password changed", "user_id", id.UserID)

	return nil
}

func (s *Service) List(ctx context.Context, f account.ListFilter) (Page, error) {
	f = f.Normalize()

	items, err := s.users.List(ctx, f)
	if err != nil {
		return Page{}, storageErr("list accounts", err)
	}

	page := Page{Items: items}
	if len(items) == f.Limit {
		last := items[len(items)-1]
		page.Next = &account.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	return page, nil
}

func (s *Service) verify(cred account.Credential, password string) (bool, error) {
	strategy, err := s.hashers.Lookup(cred.Algorithm)
	if err != nil {
		return false, err
	}
	return strategy.Verify(password, cred.Hash, cred.Salt)
}

func (s *Service) newCredential(password string) (account.Credential, error) {
	strategy := s.hashers.Default()

	salt, err := strategy.GenerateSalt()
	if err != nil {
		return account.Credential{}, err
	}

	hash, err := strategy.Hash(password, salt)
	if err != nil {
		return account.Credential{}, err
	}

	return account.Credential{
		Hash:      hash,
		Salt:      salt,
		Algorithm: strategy.Name(),
		UpdatedAt: s.now().UTC(),
	}, nil
}

// burn spends the same work as a real verification.
func (s *Service) burn(password string) {
	_, _ = s.verify(s.dummy, password)
}

// rehash moves a credential onto the default algorithm. Failure only costs
// the upgrade; the login itself already succeeded.
func (s *Service) rehash(ctx context.Context, userID, from, password string) {
	cred, err := s.newCredential(password)
	if err != nil {
		s.log.WarnContext(ctx, "credential rehash failed", "user_id", userID, "err", err)
		return
	}
	cred.UserID = userID

	if err := s.creds.Replace(ctx, cred); err != nil {
		s.log.WarnContext(ctx, "credential rehash failed", "user_id", userID, "err", err)
		return
	}

	s.log.InfoContext(ctx, "credential rehashed", "user_id", userID, "from", from, "to", cred.Algorithm)
}

func strongEnough(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength
}

func randomPassword() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
