// Package rest implements the IdentityProvider contract over the identity
// service's HTTP API. It is the networked counterpart of the local demo
// provider; the session manager cannot tell them apart.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gearguard/gearguard/internal/core/domain"
	"github.com/gearguard/gearguard/internal/core/ports"
)

// defaultTimeout bounds every request before a network failure is surfaced.
const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for the service at baseURL (e.g.
// "http://localhost:8080"). A zero timeout falls back to defaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// authPayload mirrors the wire shape {token, ...userFields}.
type authPayload struct {
	Token string `json:"token,omitempty"`
	domain.User
}

func (c *Client) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	var out authPayload
	err := c.do(ctx, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &out, map[int]error{
		http.StatusUnauthorized: domain.ErrInvalidCredentials,
	})
	if err != nil {
		return "", nil, err
	}
	user := out.User
	return out.Token, &user, nil
}

func (c *Client) Resolve(ctx context.Context, token string) (*domain.User, error) {
	var out domain.User
	err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &out, map[int]error{
		// Any 401 here means the token is dead: drop the session.
		http.StatusUnauthorized: domain.ErrInvalidCredentials,
		http.StatusNotFound:     domain.ErrUserNotFound,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetupAdmin(ctx context.Context, input ports.SignupInput) (string, *domain.User, error) {
	var out authPayload
	err := c.do(ctx, http.MethodPost, "/auth/setup-admin", "", signupBody(input), &out, map[int]error{
		http.StatusConflict:            domain.ErrAdminExists,
		http.StatusUnprocessableEntity: domain.ErrWeakPassword,
	})
	if err != nil {
		return "", nil, err
	}
	user := out.User
	return out.Token, &user, nil
}

func (c *Client) CreateUser(ctx context.Context, token string, input ports.SignupInput) (*domain.User, error) {
	var out domain.User
	err := c.do(ctx, http.MethodPost, "/auth/create-user", token, signupBody(input), &out, map[int]error{
		http.StatusUnauthorized:        domain.ErrInvalidCredentials,
		http.StatusForbidden:           domain.ErrForbidden,
		http.StatusConflict:            domain.ErrDuplicateEmail,
		http.StatusUnprocessableEntity: domain.ErrWeakPassword,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, patch domain.ProfilePatch) (*domain.User, error) {
	body := map[string]string{}
	if patch.FullName != nil {
		body["fullName"] = *patch.FullName
	}
	if patch.Phone != nil {
		body["phone"] = *patch.Phone
	}
	if patch.AvatarURL != nil {
		body["avatarUrl"] = *patch.AvatarURL
	}

	var out domain.User
	err := c.do(ctx, http.MethodPut, "/auth/profile", token, body, &out, map[int]error{
		http.StatusUnauthorized: domain.ErrInvalidCredentials,
		http.StatusNotFound:     domain.ErrUserNotFound,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChangePassword(ctx context.Context, token, current, next string) error {
	return c.do(ctx, http.MethodPost, "/auth/change-password", token, map[string]string{
		"currentPassword": current,
		"newPassword":     next,
	}, nil, map[int]error{
		http.StatusUnauthorized:        domain.ErrInvalidCredentials,
		http.StatusBadRequest:          domain.ErrWrongPassword,
		http.StatusUnprocessableEntity: domain.ErrWeakPassword,
	})
}

func (c *Client) AdminExists(ctx context.Context) (bool, error) {
	var out struct {
		AdminExists bool `json:"adminExists"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/check-admin", "", nil, &out, nil); err != nil {
		return false, err
	}
	return out.AdminExists, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil, map[int]error{
		// Logging out an already-dead token is still a logout.
		http.StatusUnauthorized: nil,
	})
}

func signupBody(input ports.SignupInput) map[string]string {
	return map[string]string{
		"username": input.Username,
		"password": input.Password,
		"fullName": input.FullName,
		"email":    input.Email,
		"role":     string(input.Role),
	}
}

// do runs one request. statusErrs maps non-2xx statuses to sentinels; a nil
// mapping value means "treat as success". Transport failures come back
// wrapped in domain.ErrNetwork.
func (c *Client) do(ctx context.Context, method, path, token string, body any, out any, statusErrs map[int]error) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	if mapped, ok := statusErrs[resp.StatusCode]; ok {
		return mapped
	}

	var envelope struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&envelope)
	if envelope.Error != "" {
		return fmt.Errorf("identity service: %s (status %d)", envelope.Error, resp.StatusCode)
	}
	return fmt.Errorf("identity service: unexpected status %d", resp.StatusCode)
}
