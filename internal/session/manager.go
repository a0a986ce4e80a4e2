// Package session owns the client-side authentication state machine: the
// pairing of a persisted bearer token with the identity it resolves to.
// All mutation goes through the Manager; the rest of the application reads
// state through Snapshot and the accessors.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gearguard/gearguard/internal/core/domain"
	"github.com/gearguard/gearguard/internal/core/ports"
)

// State is the session lifecycle position.
type State int

const (
	// StateAbsent means logged out: no token, no identity.
	StateAbsent State = iota
	// StatePending exists only while Bootstrap resolves a persisted token.
	StatePending
	// StateResolved means token and identity are both live.
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	}
	return "unknown"
}

// ErrNotAuthenticated is returned by operations that need a resolved session.
var ErrNotAuthenticated = errors.New("not authenticated")

// Snapshot is an immutable view of the session for decision code such as
// the access gate.
type Snapshot struct {
	State State
	User  *domain.User
}

// Manager is the single owner of session state.
//
// Supersession rule: Bootstrap resolves the persisted token concurrently
// with whatever the user does next. If an explicit Login (or admin
// bootstrap, or logout) lands while that resolution is still in flight,
// the explicit operation wins and the stale Bootstrap result is discarded.
// This is tracked with a generation counter: every explicit transition
// bumps it, and Bootstrap only applies its result if the counter still
// matches the value captured at its start.
type Manager struct {
	provider ports.IdentityProvider
	tokens   TokenStore
	log      zerolog.Logger

	mu    sync.Mutex
	state State
	token string
	user  *domain.User
	gen   uint64
}

func NewManager(provider ports.IdentityProvider, tokens TokenStore, log zerolog.Logger) *Manager {
	return &Manager{provider: provider, tokens: tokens, log: log}
}

// Bootstrap resolves a previously persisted token into a live session.
// With no persisted token it settles to Absent immediately, without
// touching the identity provider. Resolution failure is non-fatal: the
// token is cleared and the session settles to Absent.
//
// Bootstrap always leaves the session in a terminal state (Resolved or
// Absent) before returning.
func (m *Manager) Bootstrap(ctx context.Context) error {
	token, err := m.tokens.Load()
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to load persisted token")
		token = ""
	}

	m.mu.Lock()
	if token == "" {
		m.state = StateAbsent
		m.mu.Unlock()
		return nil
	}
	m.state = StatePending
	gen := m.gen
	m.mu.Unlock()

	user, resolveErr := m.provider.Resolve(ctx, token)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != gen {
		// A login or logout superseded this bootstrap; its result stands.
		return nil
	}

	if resolveErr != nil {
		m.log.Info().Err(resolveErr).Msg("persisted token did not resolve, dropping session")
		m.state = StateAbsent
		m.token = ""
		m.user = nil
		if err := m.tokens.Clear(); err != nil {
			m.log.Warn().Err(err).Msg("failed to clear persisted token")
		}
		return nil
	}

	m.state = StateResolved
	m.token = token
	m.user = user
	return nil
}

// Login authenticates and replaces the session. Calling Login while
// already resolved is treated as a fresh login that supersedes the old
// session; on failure the existing state is left untouched and the reason
// is returned to the caller.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.User, error) {
	token, user, err := m.provider.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.adopt(token, user)
	return user, nil
}

// BootstrapFirstAdmin provisions the one-time initial admin and behaves
// like a successful login. Fails with domain.ErrAdminExists once an admin
// record exists.
func (m *Manager) BootstrapFirstAdmin(ctx context.Context, input ports.SignupInput) (*domain.User, error) {
	token, admin, err := m.provider.SetupAdmin(ctx, input)
	if err != nil {
		return nil, err
	}
	m.adopt(token, admin)
	return admin, nil
}

// Logout clears the session and the persisted token. Idempotent; the
// server-side revoke is best-effort.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	token := m.token
	m.gen++
	m.state = StateAbsent
	m.token = ""
	m.user = nil
	if err := m.tokens.Clear(); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear persisted token")
	}
	m.mu.Unlock()

	if token == "" {
		return
	}
	if err := m.provider.Logout(ctx, token); err != nil {
		m.log.Warn().Err(err).Msg("server-side logout failed")
	}
}

// ProvisionUser creates an account on behalf of the current session.
func (m *Manager) ProvisionUser(ctx context.Context, input ports.SignupInput) (*domain.User, error) {
	token, err := m.requireToken()
	if err != nil {
		return nil, err
	}
	return m.provider.CreateUser(ctx, token, input)
}

// ChangeOwnSecret changes the current user's password.
func (m *Manager) ChangeOwnSecret(ctx context.Context, current, next string) error {
	token, err := m.requireToken()
	if err != nil {
		return err
	}
	return m.provider.ChangePassword(ctx, token, current, next)
}

// UpdateOwnProfile patches the current user's profile. If the record
// behind the session has vanished the session is force-logged-out and
// domain.ErrUserNotFound is returned.
func (m *Manager) UpdateOwnProfile(ctx context.Context, patch domain.ProfilePatch) (*domain.User, error) {
	token, err := m.requireToken()
	if err != nil {
		return nil, err
	}

	user, err := m.provider.UpdateProfile(ctx, token, patch)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			m.Logout(ctx)
		}
		return nil, err
	}

	m.mu.Lock()
	if m.state == StateResolved && m.token == token {
		m.user = user
	}
	m.mu.Unlock()
	return user, nil
}

// AdminExists asks the provider whether initial admin setup is still open.
func (m *Manager) AdminExists(ctx context.Context) (bool, error) {
	return m.provider.AdminExists(ctx)
}

// Loading reports whether Bootstrap is still resolving the persisted
// token. Protected screens must render a neutral loading state while true.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StatePending
}

// Snapshot returns the current state and user for decision code.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{State: m.state}
	if m.user != nil {
		clone := *m.user
		snap.User = &clone
	}
	return snap
}

// CurrentUser returns the resolved user, or nil when not resolved.
func (m *Manager) CurrentUser() *domain.User {
	return m.Snapshot().User
}

// adopt installs a fresh token+identity pair, superseding any in-flight
// bootstrap, and persists the token.
func (m *Manager) adopt(token string, user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++
	m.state = StateResolved
	m.token = token
	m.user = user
	if err := m.tokens.Save(token); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist token")
	}
}

func (m *Manager) requireToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateResolved {
		return "", ErrNotAuthenticated
	}
	return m.token, nil
}
