package local

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gearguard/gearguard/internal/core/domain"
)

func TestCredentialStore_CreateAndVerify(t *testing.T) {
	store, err := Open("")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()

	created, err := store.Create(ctx, &domain.User{
		Username: "alice",
		Email:    "a@x.com",
		FullName: "Alice",
		Role:     domain.RoleUser,
		Active:   true,
	}, "secret")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected assigned ID")
	}
	if created.PasswordHash == "secret" {
		t.Fatalf("secret stored in the clear")
	}

	user, err := store.Verify(ctx, "a@x.com", "secret")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := store.Verify(ctx, "a@x.com", "wrong"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := store.Verify(ctx, "ghost@x.com", "secret"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestCredentialStore_DuplicateEmailCaseInsensitive(t *testing.T) {
	store, _ := Open("")
	ctx := context.Background()

	if _, err := store.Create(ctx, &domain.User{Email: "a@x.com", FullName: "A", Role: domain.RoleUser}, "secret"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := store.Create(ctx, &domain.User{Email: "A@X.com", FullName: "A2", Role: domain.RoleUser}, "secret")
	if err != domain.ErrDuplicateEmail {
		t.Fatalf("expected ErrDuplicateEmail for case-differing email, got %v", err)
	}
}

func TestCredentialStore_FindByEmailCaseInsensitive(t *testing.T) {
	store, _ := Open("")
	ctx := context.Background()

	if _, err := store.Create(ctx, &domain.User{Email: "Mixed@Case.com", FullName: "M", Role: domain.RoleUser}, "secret"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	user, err := store.FindByEmail(ctx, "mixed@case.COM")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if user.Email != "mixed@case.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
}

func TestCredentialStore_ChangeSecret(t *testing.T) {
	store, _ := Open("")
	ctx := context.Background()

	created, _ := store.Create(ctx, &domain.User{Email: "a@x.com", FullName: "A", Role: domain.RoleUser}, "oldpass")

	if err := store.ChangeSecret(ctx, created.ID, "wrong", "newpass"); err != domain.ErrWrongPassword {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	// Failed change must leave the stored secret usable.
	if _, err := store.Verify(ctx, "a@x.com", "oldpass"); err != nil {
		t.Fatalf("old secret no longer verifies: %v", err)
	}

	if err := store.ChangeSecret(ctx, created.ID, "oldpass", "newpass"); err != nil {
		t.Fatalf("ChangeSecret failed: %v", err)
	}
	if _, err := store.Verify(ctx, "a@x.com", "newpass"); err != nil {
		t.Fatalf("new secret does not verify: %v", err)
	}
}

func TestCredentialStore_AnyAdminExists(t *testing.T) {
	store, _ := Open("")
	ctx := context.Background()

	exists, err := store.AnyAdminExists(ctx)
	if err != nil || exists {
		t.Fatalf("expected no admin on empty store, got %v %v", exists, err)
	}

	if _, err := store.Create(ctx, &domain.User{Email: "root@x.com", FullName: "Root", Role: domain.RoleAdmin}, "secret"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	exists, err = store.AnyAdminExists(ctx)
	if err != nil || !exists {
		t.Fatalf("expected admin to exist, got %v %v", exists, err)
	}
}

func TestCredentialStore_SurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := store.Create(ctx, &domain.User{
		Username: "root", Email: "root@x.com", FullName: "Root", Role: domain.RoleAdmin, Active: true,
	}, "Secret1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	user, err := reloaded.Verify(ctx, "root@x.com", "Secret1")
	if err != nil {
		t.Fatalf("Verify after reload failed: %v", err)
	}
	if user.FullName != "Root" || user.Role != domain.RoleAdmin {
		t.Fatalf("record lost fields across reload: %+v", user)
	}

	// IDs keep advancing after reload, no collisions.
	second, err := reloaded.Create(ctx, &domain.User{Email: "b@x.com", FullName: "B", Role: domain.RoleUser}, "Secret1")
	if err != nil {
		t.Fatalf("Create after reload failed: %v", err)
	}
	if second.ID == user.ID {
		t.Fatalf("ID reused after reload")
	}
}

func TestCredentialStore_UpdateProfile(t *testing.T) {
	store, _ := Open("")
	ctx := context.Background()

	created, _ := store.Create(ctx, &domain.User{Email: "a@x.com", FullName: "A", Role: domain.RoleUser}, "secret")

	name := "Alice Updated"
	phone := "555-0100"
	updated, err := store.UpdateProfile(ctx, created.ID, domain.ProfilePatch{FullName: &name, Phone: &phone})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if updated.FullName != name || updated.Phone != phone {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if updated.Email != "a@x.com" {
		t.Fatalf("email must not change via profile patch")
	}

	if _, err := store.UpdateProfile(ctx, "999", domain.ProfilePatch{FullName: &name}); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
