// Package local provides a file-persisted credential store for demo
// deployments that must run without external services. It satisfies the
// same contract as the Mongo store; the server selects between them at
// startup.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gearguard/gearguard/internal/core/domain"
)

// CredentialStore keeps records in memory, keyed by normalized email, and
// mirrors every mutation to a JSON file when a path is configured. With an
// empty path it is purely in-memory.
type CredentialStore struct {
	mu     sync.Mutex
	path   string
	nextID int64
	users  map[string]*domain.User // normalized email -> record
}

type storeFile struct {
	NextID int64          `json:"nextId"`
	Users  []*persistUser `json:"users"`
}

// persistUser exists because domain.User hides PasswordHash from JSON.
type persistUser struct {
	domain.User
	PasswordHash string `json:"passwordHash"`
}

// Open loads the store from path, creating an empty store when the file
// does not exist yet.
func Open(path string) (*CredentialStore, error) {
	s := &CredentialStore{path: path, users: make(map[string]*domain.User)}
	if path == "" {
		return s, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}

	var f storeFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse store file: %w", err)
	}

	s.nextID = f.NextID
	for _, pu := range f.Users {
		u := pu.User
		u.PasswordHash = pu.PasswordHash
		s.users[domain.NormalizeEmail(u.Email)] = &u
	}
	return s, nil
}

func (s *CredentialStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(u), nil
}

func (s *CredentialStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.byID(id)
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return clone(u), nil
}

func (s *CredentialStore) Verify(_ context.Context, email, secret string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(secret)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return clone(u), nil
}

func (s *CredentialStore) Create(_ context.Context, user *domain.User, secret string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.NormalizeEmail(user.Email)
	if _, exists := s.users[key]; exists {
		return nil, domain.ErrDuplicateEmail
	}

	s.nextID++
	now := time.Now().UTC()
	u := clone(user)
	u.ID = strconv.FormatInt(s.nextID, 10)
	u.Email = key
	u.PasswordHash = string(hash)
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[key] = u

	if err := s.persist(); err != nil {
		delete(s.users, key)
		return nil, err
	}
	return clone(u), nil
}

func (s *CredentialStore) UpdateProfile(_ context.Context, id string, patch domain.ProfilePatch) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.byID(id)
	if u == nil {
		return nil, domain.ErrUserNotFound
	}

	if patch.FullName != nil {
		u.FullName = *patch.FullName
	}
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
	if patch.AvatarURL != nil {
		u.AvatarURL = *patch.AvatarURL
	}
	u.UpdatedAt = time.Now().UTC()

	if err := s.persist(); err != nil {
		return nil, err
	}
	return clone(u), nil
}

func (s *CredentialStore) ChangeSecret(_ context.Context, id, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.byID(id)
	if u == nil {
		return domain.ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return domain.ErrWrongPassword
	}
	return s.setSecret(u, next)
}

func (s *CredentialStore) ResetSecret(_ context.Context, email, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[domain.NormalizeEmail(email)]
	if !ok {
		return domain.ErrUserNotFound
	}
	return s.setSecret(u, next)
}

func (s *CredentialStore) AnyAdminExists(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Role == domain.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (s *CredentialStore) ListUsers(_ context.Context) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(func(*domain.User) bool { return true }), nil
}

func (s *CredentialStore) ListUsersByRole(_ context.Context, role domain.Role) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(func(u *domain.User) bool { return u.Role == role }), nil
}

func (s *CredentialStore) byID(id string) *domain.User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *CredentialStore) setSecret(u *domain.User, next string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash secret: %w", err)
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now().UTC()
	return s.persist()
}

func (s *CredentialStore) list(keep func(*domain.User) bool) []*domain.User {
	var users []*domain.User
	for _, u := range s.users {
		if keep(u) {
			users = append(users, clone(u))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users
}

// persist writes the whole store atomically. Caller holds the lock.
func (s *CredentialStore) persist() error {
	if s.path == "" {
		return nil
	}

	f := storeFile{NextID: s.nextID}
	for _, u := range s.list(func(*domain.User) bool { return true }) {
		f.Users = append(f.Users, &persistUser{User: *u, PasswordHash: u.PasswordHash})
	}

	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

func clone(u *domain.User) *domain.User {
	c := *u
	return &c
}
