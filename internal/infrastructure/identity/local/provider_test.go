package local

import (
	"context"
	"testing"

	"github.com/gearguard/gearguard/internal/core/domain"
	"github.com/gearguard/gearguard/internal/core/ports"
	localstore "github.com/gearguard/gearguard/internal/infrastructure/local"
)

func newProvider(t *testing.T) *Provider {
	t.Helper()
	store, err := localstore.Open("")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return NewProvider(store)
}

func TestProvider_SetupAdminThenResolve(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	token, admin, err := p.SetupAdmin(ctx, ports.SignupInput{
		Email: "root@co.com", Password: "Secret1", FullName: "Root",
	})
	if err != nil {
		t.Fatalf("SetupAdmin failed: %v", err)
	}
	if admin.Role != domain.RoleAdmin {
		t.Fatalf("expected ADMIN, got %s", admin.Role)
	}

	resolved, err := p.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.Email != "root@co.com" || resolved.ID != admin.ID {
		t.Fatalf("resolved identity mismatch: %+v", resolved)
	}

	// Second bootstrap attempt is rejected.
	if _, _, err := p.SetupAdmin(ctx, ports.SignupInput{Email: "x@co.com", Password: "Secret1", FullName: "X"}); err != domain.ErrAdminExists {
		t.Fatalf("expected ErrAdminExists, got %v", err)
	}
}

func TestProvider_LoginAndLogout(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	if _, _, err := p.SetupAdmin(ctx, ports.SignupInput{Email: "root@co.com", Password: "Secret1", FullName: "Root"}); err != nil {
		t.Fatalf("SetupAdmin failed: %v", err)
	}

	token, _, err := p.Login(ctx, "root@co.com", "Secret1")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := p.Logout(ctx, token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := p.Resolve(ctx, token); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected dead token after logout, got %v", err)
	}

	// Logout is idempotent.
	if err := p.Logout(ctx, token); err != nil {
		t.Fatalf("second Logout failed: %v", err)
	}
}

func TestProvider_Login_BadCredentials(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	if _, _, err := p.Login(ctx, "unknown@co.com", "x"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestProvider_CreateUser_EnforcesAllowList(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	adminToken, _, err := p.SetupAdmin(ctx, ports.SignupInput{Email: "root@co.com", Password: "Secret1", FullName: "Root"})
	if err != nil {
		t.Fatalf("SetupAdmin failed: %v", err)
	}

	tech, err := p.CreateUser(ctx, adminToken, ports.SignupInput{
		Email: "tech@co.com", Password: "Secret1", FullName: "Tech", Role: domain.RoleTechnician,
	})
	if err != nil {
		t.Fatalf("admin CreateUser failed: %v", err)
	}
	if tech.Role != domain.RoleTechnician {
		t.Fatalf("unexpected role %s", tech.Role)
	}

	techToken, _, err := p.Login(ctx, "tech@co.com", "Secret1")
	if err != nil {
		t.Fatalf("tech login failed: %v", err)
	}
	if _, err := p.CreateUser(ctx, techToken, ports.SignupInput{
		Email: "u@co.com", Password: "Secret1", FullName: "U", Role: domain.RoleUser,
	}); err != domain.ErrForbidden {
		t.Fatalf("technician must not provision, got %v", err)
	}
}

func TestProvider_ChangePassword(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	token, _, err := p.SetupAdmin(ctx, ports.SignupInput{Email: "root@co.com", Password: "Secret1", FullName: "Root"})
	if err != nil {
		t.Fatalf("SetupAdmin failed: %v", err)
	}

	if err := p.ChangePassword(ctx, token, "wrong", "Another1"); err != domain.ErrWrongPassword {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if err := p.ChangePassword(ctx, token, "Secret1", "tiny"); err != domain.ErrWeakPassword {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := p.ChangePassword(ctx, token, "Secret1", "Another1"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if _, _, err := p.Login(ctx, "root@co.com", "Another1"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}
