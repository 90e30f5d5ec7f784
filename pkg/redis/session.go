package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore caches the default profile per owner address.
type SessionStore interface {
	SetDefaultProfile(ctx context.Context, owner, profileID string, ttl time.Duration) error
	GetDefaultProfile(ctx context.Context, owner string) (string, bool, error)
	ClearDefaultProfile(ctx context.Context, owner string) error
}

// SetDefaultProfile stores profileID for owner. A zero ttl never expires.
func (c *Client) SetDefaultProfile(ctx context.Context, owner, profileID string, ttl time.Duration) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Set(ctx, c.DefaultProfileKey(owner), profileID, ttl).Err()
}

// GetDefaultProfile reports ok=false without an error on a miss.
func (c *Client) GetDefaultProfile(ctx context.Context, owner string) (string, bool, error) {
	value, err := c.Get(ctx, c.DefaultProfileKey(owner))
	switch {
	case errors.Is(err, redis.Nil):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return value, value != "", nil
}

func (c *Client) ClearDefaultProfile(ctx context.Context, owner string) error {
	return c.Del(ctx, c.DefaultProfileKey(owner))
}
