package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gearguard/gearguard/internal/core/domain"
)

// TokenDenylist records revoked bearer tokens until their natural expiry.
// Keys hold a hash of the token, not the token itself.
// Key format: revoked:<sha256(token)>
type TokenDenylist struct {
	client *redis.Client
}

func NewTokenDenylist(client *redis.Client) *TokenDenylist {
	return &TokenDenylist{client: client}
}

func (d *TokenDenylist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, d.key(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (d *TokenDenylist) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("denylist check: %w", err)
	}
	return n > 0, nil
}

func (d *TokenDenylist) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "revoked:" + hex.EncodeToString(sum[:])
}

// OTPStore keeps password-reset codes with a TTL.
// Key format: otp:reset:<normalized email>
type OTPStore struct {
	client *redis.Client
}

func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

func (o *OTPStore) Put(ctx context.Context, email, otp string, ttl time.Duration) error {
	if err := o.client.Set(ctx, o.key(email), otp, ttl).Err(); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return nil
}

func (o *OTPStore) Get(ctx context.Context, email string) (string, error) {
	otp, err := o.client.Get(ctx, o.key(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrOTPExpired
		}
		return "", fmt.Errorf("load otp: %w", err)
	}
	return otp, nil
}

func (o *OTPStore) Delete(ctx context.Context, email string) error {
	if err := o.client.Del(ctx, o.key(email)).Err(); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

func (o *OTPStore) key(email string) string {
	return "otp:reset:" + domain.NormalizeEmail(email)
}
