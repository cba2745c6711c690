package account

import "testing"

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"joe@x.com":         "joe@x.com",
		"  Joe@X.Com ":      "joe@x.com",
		"ALICE@EXAMPLE.ORG": "alice@example.org",
	}

	for in, want := range cases {
		if got := NormalizeEmail(in); got != want {
			t.Fatalf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRoleIsValid(t *testing.T) {
	if !RoleUser.IsValid() || !RoleAdmin.IsValid() {
		t.Fatalf("known roles must be valid")
	}
	if Role("root").IsValid() || Role("").IsValid() {
		t.Fatalf("unknown roles must be invalid")
	}
}

func TestProjections(t *testing.T) {
	avatar := "https://cdn.example.com/avatars/1.jpg"
	a := Account{ID: "1", FullName: "Joe Doe", Email: "joe@x.com", AvatarURL: &avatar, Role: RoleAdmin}

	o := a.Overview()
	if o.ID != "1" || o.FullName != "Joe Doe" || o.AvatarURL != &avatar {
		t.Fatalf("unexpected overview: %+v", o)
	}

	d := a.Detail()
	if !d.IsAdmin || d.Email != "joe@x.com" {
		t.Fatalf("unexpected detail: %+v", d)
	}

	id := IdentityOf(a)
	if id.UserID != "1" || id.Role != RoleAdmin {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestListFilterNormalize(t *testing.T) {
	if got := (ListFilter{}).Normalize().Limit; got != DefaultListLimit {
		t.Fatalf("default limit: got %d", got)
	}
	if got := (ListFilter{Limit: 1000}).Normalize().Limit; got != MaxListLimit {
		t.Fatalf("max limit: got %d", got)
	}
	if got := (ListFilter{Limit: 5}).Normalize().Limit; got != 5 {
		t.Fatalf("explicit limit: got %d", got)
	}
}
