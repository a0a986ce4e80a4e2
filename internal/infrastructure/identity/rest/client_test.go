package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gearguard/gearguard/internal/core/domain"
	"github.com/gearguard/gearguard/internal/core/ports"
)

func TestClient_Login_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["email"] != "a@x.com" || req["password"] != "secret" {
			t.Fatalf("unexpected body: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token":    "tok123",
			"id":       "1",
			"email":    "a@x.com",
			"fullName": "Alice",
			"role":     "ADMIN",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	token, user, err := client.Login(context.Background(), "a@x.com", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token != "tok123" {
		t.Fatalf("unexpected token %q", token)
	}
	if user.Email != "a@x.com" || user.Role != domain.RoleAdmin {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestClient_Login_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	if _, _, err := client.Login(context.Background(), "a@x.com", "bad"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestClient_Resolve_SendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Fatalf("missing bearer header, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "1", "email": "a@x.com", "role": "USER"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	user, err := client.Resolve(context.Background(), "tok123")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestClient_Resolve_401DropsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	if _, err := client.Resolve(context.Background(), "stale"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestClient_SetupAdmin_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "admin already exists"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, _, err := client.SetupAdmin(context.Background(), ports.SignupInput{Email: "root@x.com", Password: "Secret1", FullName: "Root"})
	if err != domain.ErrAdminExists {
		t.Fatalf("expected ErrAdminExists, got %v", err)
	}
}

func TestClient_CreateUser_DuplicateEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.CreateUser(context.Background(), "tok", ports.SignupInput{Email: "a@x.com", Password: "Secret1", FullName: "A", Role: domain.RoleUser})
	if err != domain.ErrDuplicateEmail {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestClient_ChangePassword_WrongCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	if err := client.ChangePassword(context.Background(), "tok", "wrong", "newpass"); err != domain.ErrWrongPassword {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
}

func TestClient_AdminExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/check-admin" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"adminExists": true})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	exists, err := client.AdminExists(context.Background())
	if err != nil || !exists {
		t.Fatalf("expected adminExists=true, got %v %v", exists, err)
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, time.Second)
	_, _, err := client.Login(context.Background(), "a@x.com", "secret")
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestClient_Logout_IgnoresDeadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	if err := client.Logout(context.Background(), "stale"); err != nil {
		t.Fatalf("logout of a dead token must succeed, got %v", err)
	}
}
