package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/socialhub/internal/domain/account"
)

// Directory keeps accounts and their credentials behind one mutex so that
// email uniqueness and account+credential creation are atomic.
type Directory struct {
	mu      sync.RWMutex
	users   map[string]account.Account    // id -> account
	byEmail map[string]string             // normalized email -> id
	creds   map[string]account.Credential // user id -> credential
}

func NewDirectory() *Directory {
	return &Directory{
		users:   make(map[string]account.Account),
		byEmail: make(map[string]string),
		creds:   make(map[string]account.Credential),
	}
}

func (d *Directory) Users() *UsersRepo {
	return &UsersRepo{d: d}
}

func (d *Directory) Credentials() *CredentialsRepo {
	return &CredentialsRepo{d: d}
}

func (d *Directory) CreateWithCredential(_ context.Context, a account.Account, c account.Credential) (account.Account, error) {
	email := account.NormalizeEmail(a.Email)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, taken := d.byEmail[email]; taken {
		return account.Account{}, account.ErrEmailTaken
	}

	a.Email = email
	c.UserID = a.ID

	d.users[a.ID] = a
	d.byEmail[email] = a.ID
	d.creds[a.ID] = c

	return a, nil
}

type UsersRepo struct {
	d *Directory
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (account.Account, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	a, ok := r.d.users[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (account.Account, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	id, ok := r.d.byEmail[account.NormalizeEmail(email)]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return r.d.users[id], nil
}

func (r *UsersRepo) Update(_ context.Context, a account.Account) (account.Account, error) {
	email := account.NormalizeEmail(a.Email)

	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	cur, ok := r.d.users[a.ID]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}

	if owner, taken := r.d.byEmail[email]; taken && owner != a.ID {
		return account.Account{}, account.ErrEmailTaken
	}

	delete(r.d.byEmail, cur.Email)
	r.d.byEmail[email] = a.ID

	cur.FullName = a.FullName
	cur.Email = email
	cur.AvatarURL = a.AvatarURL
	cur.UpdatedAt = time.Now().UTC()

	r.d.users[a.ID] = cur
	return cur, nil
}

func (r *UsersRepo) List(_ context.Context, f account.ListFilter) ([]account.Account, error) {
	f = f.Normalize()

	r.d.mu.RLock()
	all := make([]account.Account, 0, len(r.d.users))
	for _, a := range r.d.users {
		all = append(all, a)
	}
	r.d.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	out := make([]account.Account, 0, f.Limit)
	for _, a := range all {
		if f.After != nil && !after(a, *f.After) {
			continue
		}
		out = append(out, a)
		if len(out) == f.Limit {
			break
		}
	}

	return out, nil
}

func after(a account.Account, c account.Cursor) bool {
	if a.CreatedAt.Equal(c.CreatedAt) {
		return a.ID > c.ID
	}
	return a.CreatedAt.After(c.CreatedAt)
}

type CredentialsRepo struct {
	d *Directory
}

func (r *CredentialsRepo) GetByEmail(_ context.Context, email string) (account.Credential, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	id, ok := r.d.byEmail[account.NormalizeEmail(email)]
	if !ok {
		return account.Credential{}, account.ErrCredentialNotFound
	}

	c, ok := r.d.creds[id]
	if !ok {
		return account.Credential{}, account.ErrCredentialNotFound
	}
	return c, nil
}

func (r *CredentialsRepo) GetByUserID(_ context.Context, userID string) (account.Credential, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	c, ok := r.d.creds[userID]
	if !ok {
		return account.Credential{}, account.ErrCredentialNotFound
	}
	return c, nil
}

func (r *CredentialsRepo) Replace(_ context.Context, c account.Credential) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, ok := r.d.creds[c.UserID]; !ok {
		return account.ErrCredentialNotFound
	}

	c.UpdatedAt = time.Now().UTC()
	r.d.creds[c.UserID] = c
	return nil
}

// CredentialCount is used by tests to assert no credential leaked in.
func (d *Directory) CredentialCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.creds)
}
