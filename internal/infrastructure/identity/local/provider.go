// Package local implements the IdentityProvider contract over the demo
// credential store, with opaque in-memory tokens. It exists so the whole
// application can run logged-in flows without the identity service; a
// restart invalidates all tokens, which degrades to the logged-out state
// exactly as bootstrap expects.
package local

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/gearguard/gearguard/internal/core/domain"
	"github.com/gearguard/gearguard/internal/core/ports"
)

const minPasswordLength = 6

type Provider struct {
	store ports.CredentialStore

	mu     sync.Mutex
	tokens map[string]string // token -> user id
}

func NewProvider(store ports.CredentialStore) *Provider {
	return &Provider{store: store, tokens: make(map[string]string)}
}

func (p *Provider) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := p.store.Verify(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	token, err := p.issueToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (p *Provider) Resolve(ctx context.Context, token string) (*domain.User, error) {
	p.mu.Lock()
	id, ok := p.tokens[token]
	p.mu.Unlock()
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := p.store.FindByID(ctx, id)
	if err != nil {
		// The record behind the token vanished: the token is dead too.
		p.mu.Lock()
		delete(p.tokens, token)
		p.mu.Unlock()
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (p *Provider) SetupAdmin(ctx context.Context, input ports.SignupInput) (string, *domain.User, error) {
	exists, err := p.store.AnyAdminExists(ctx)
	if err != nil {
		return "", nil, err
	}
	if exists {
		return "", nil, domain.ErrAdminExists
	}

	input.Role = domain.RoleAdmin
	admin, err := p.create(ctx, input)
	if err != nil {
		return "", nil, err
	}

	token, err := p.issueToken(admin.ID)
	if err != nil {
		return "", nil, err
	}
	return token, admin, nil
}

func (p *Provider) CreateUser(ctx context.Context, token string, input ports.SignupInput) (*domain.User, error) {
	actor, err := p.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		return nil, fmt.Errorf("create user: unknown role %q", input.Role)
	}
	if !actor.Role.CanProvision(input.Role) {
		return nil, domain.ErrForbidden
	}
	return p.create(ctx, input)
}

func (p *Provider) UpdateProfile(ctx context.Context, token string, patch domain.ProfilePatch) (*domain.User, error) {
	actor, err := p.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return p.store.UpdateProfile(ctx, actor.ID, patch)
}

func (p *Provider) ChangePassword(ctx context.Context, token, current, next string) error {
	actor, err := p.Resolve(ctx, token)
	if err != nil {
		return err
	}
	if len(next) < minPasswordLength {
		return domain.ErrWeakPassword
	}
	return p.store.ChangeSecret(ctx, actor.ID, current, next)
}

func (p *Provider) AdminExists(ctx context.Context) (bool, error) {
	return p.store.AnyAdminExists(ctx)
}

func (p *Provider) Logout(_ context.Context, token string) error {
	p.mu.Lock()
	delete(p.tokens, token)
	p.mu.Unlock()
	return nil
}

func (p *Provider) create(ctx context.Context, input ports.SignupInput) (*domain.User, error) {
	if input.Email == "" || input.FullName == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if len(input.Password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	username := input.Username
	if username == "" {
		username = strings.SplitN(domain.NormalizeEmail(input.Email), "@", 2)[0]
	}

	return p.store.Create(ctx, &domain.User{
		Username: username,
		Email:    input.Email,
		FullName: input.FullName,
		Role:     input.Role,
		Active:   true,
	}, input.Password)
}

func (p *Provider) issueToken(userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	token := hex.EncodeToString(buf)

	p.mu.Lock()
	p.tokens[token] = userID
	p.mu.Unlock()
	return token, nil
}
