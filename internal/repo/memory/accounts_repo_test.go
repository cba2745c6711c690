package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/socialhub/internal/domain/account"
)

func newAccount(id, email string, created time.Time) account.Account {
	return account.Account{
		ID: id, FullName: "User " + id, Email: email,
		Role: account.RoleUser, CreatedAt: created, UpdatedAt: created,
	}
}

func TestDirectory_CreateAndLookup(t *testing.T) {
	d := NewDirectory()
	ctx := context.Background()

	got, err := d.CreateWithCredential(ctx, newAccount("u1", " Joe@X.com", time.Now()), account.Credential{Hash: "h", Salt: "s", Algorithm: "argon2id"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.Email != "joe@x.com" {
		t.Fatalf("email not normalized: %q", got.Email)
	}

	a, err := d.Users().GetByEmail(ctx, "JOE@x.com")
	if err != nil || a.ID != "u1" {
		t.Fatalf("GetByEmail: %+v %v", a, err)
	}

	c, err := d.Credentials().GetByEmail(ctx, "joe@x.com")
	if err != nil || c.UserID != "u1" || c.Hash != "h" {
		t.Fatalf("credential: %+v %v", c, err)
	}

	if _, err := d.Users().GetByID(ctx, "nope"); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := d.Credentials().GetByEmail(ctx, "nobody@x.com"); !errors.Is(err, account.ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound, got %v", err)
	}
}

func TestDirectory_DuplicateEmailCaseInsensitive(t *testing.T) {
	d := NewDirectory()
	ctx := context.Background()

	if _, err := d.CreateWithCredential(ctx, newAccount("u1", "joe@x.com", time.Now()), account.Credential{}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := d.CreateWithCredential(ctx, newAccount("u2", "JOE@X.COM", time.Now()), account.Credential{})
	if !errors.Is(err, account.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	if n := d.CredentialCount(); n != 1 {
		t.Fatalf("expected exactly one credential, got %d", n)
	}
}

func TestDirectory_ConcurrentRegistrationsSameEmail(t *testing.T) {
	d := NewDirectory()
	ctx := context.Background()

	const n = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := d.CreateWithCredential(ctx, newAccount(fmt.Sprintf("u%d", i), "race@x.com", time.Now()), account.Credential{})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if success != 1 {
		t.Fatalf("expected exactly one winner, got %d", success)
	}
	if d.CredentialCount() != 1 {
		t.Fatalf("expected one credential, got %d", d.CredentialCount())
	}
}

func TestUsersRepo_Update(t *testing.T) {
	d := NewDirectory()
	ctx := context.Background()
	now := time.Now()

	_, _ = d.CreateWithCredential(ctx, newAccount("u1", "a@x.com", now), account.Credential{})
	_, _ = d.CreateWithCredential(ctx, newAccount("u2", "b@x.com", now), account.Credential{})

	a, _ := d.Users().GetByID(ctx, "u1")
	a.Email = "B@x.com"
	if _, err := d.Users().Update(ctx, a); !errors.Is(err, account.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	a.Email = "new@x.com"
	a.FullName = "Renamed"
	got, err := d.Users().Update(ctx, a)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Email != "new@x.com" || got.FullName != "Renamed" {
		t.Fatalf("unexpected: %+v", got)
	}

	// old address is released
	if _, err := d.Users().GetByEmail(ctx, "a@x.com"); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("old email still resolves: %v", err)
	}
	if _, err := d.Credentials().GetByEmail(ctx, "new@x.com"); err != nil {
		t.Fatalf("credential must follow the new email: %v", err)
	}
}

func TestUsersRepo_ListKeyset(t *testing.T) {
	d := NewDirectory()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, _ = d.CreateWithCredential(ctx, newAccount(fmt.Sprintf("u%d", i), fmt.Sprintf("u%d@x.com", i), base.Add(time.Duration(i)*time.Minute)), account.Credential{})
	}

	page1, _ := d.Users().List(ctx, account.ListFilter{Limit: 2})
	if len(page1) != 2 || page1[0].ID != "u0" || page1[1].ID != "u1" {
		t.Fatalf("page1: %+v", page1)
	}

	last := page1[len(page1)-1]
	page2, _ := d.Users().List(ctx, account.ListFilter{Limit: 2, After: &account.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}})
	if len(page2) != 2 || page2[0].ID != "u2" || page2[1].ID != "u3" {
		t.Fatalf("page2: %+v", page2)
	}
}

func TestCredentialsRepo_Replace(t *testing.T) {
	d := NewDirectory()
	ctx := context.Background()

	_, _ = d.CreateWithCredential(ctx, newAccount("u1", "a@x.com", time.Now()), account.Credential{Hash: "old", Algorithm: "bcrypt"})

	if err := d.Credentials().Replace(ctx, account.Credential{UserID: "u1", Hash: "new", Salt: "s", Algorithm: "argon2id"}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	c, _ := d.Credentials().GetByUserID(ctx, "u1")
	if c.Hash != "new" || c.Algorithm != "argon2id" {
		t.Fatalf("unexpected credential: %+v", c)
	}

	if err := d.Credentials().Replace(ctx, account.Credential{UserID: "ghost"}); !errors.Is(err, account.ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound, got %v", err)
	}
}
