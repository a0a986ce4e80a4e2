package local

import (
	"context"
	"sync"
	"time"

	"github.com/gearguard/gearguard/internal/core/domain"
)

// Denylist is an in-process token denylist for the local backend, where
// no Redis is available. Entries expire lazily on lookup.
type Denylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewDenylist() *Denylist {
	return &Denylist{revoked: make(map[string]time.Time)}
}

func (d *Denylist) Revoke(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	d.mu.Lock()
	d.revoked[token] = time.Now().Add(ttl)
	d.mu.Unlock()
	return nil
}

func (d *Denylist) IsRevoked(_ context.Context, token string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	deadline, ok := d.revoked[token]
	if !ok {
		return false, nil
	}
	if time.Now().After(deadline) {
		delete(d.revoked, token)
		return false, nil
	}
	return true, nil
}

// OTPStore keeps reset codes in memory for the local backend.
type OTPStore struct {
	mu    sync.Mutex
	codes map[string]otpEntry
}

type otpEntry struct {
	otp      string
	deadline time.Time
}

func NewOTPStore() *OTPStore {
	return &OTPStore{codes: make(map[string]otpEntry)}
}

func (o *OTPStore) Put(_ context.Context, email, otp string, ttl time.Duration) error {
	o.mu.Lock()
	o.codes[domain.NormalizeEmail(email)] = otpEntry{otp: otp, deadline: time.Now().Add(ttl)}
	o.mu.Unlock()
	return nil
}

func (o *OTPStore) Get(_ context.Context, email string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	entry, ok := o.codes[domain.NormalizeEmail(email)]
	if !ok || time.Now().After(entry.deadline) {
		delete(o.codes, domain.NormalizeEmail(email))
		return "", domain.ErrOTPExpired
	}
	return entry.otp, nil
}

func (o *OTPStore) Delete(_ context.Context, email string) error {
	o.mu.Lock()
	delete(o.codes, domain.NormalizeEmail(email))
	o.mu.Unlock()
	return nil
}
