// Package session remembers which profile an owner address last selected.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/clipstream-backend/pkg/config"
	redisclient "github.com/angelmondragon/clipstream-backend/pkg/redis"
)

// Cache stores the default profile per owner address.
type Cache struct {
	store redisclient.SessionStore
	ttl   time.Duration
}

// DefaultProfileReader exposes the read side used when resolving Account.defaultProfile.
type DefaultProfileReader interface {
	DefaultProfile(ctx context.Context, owner string) (uuid.UUID, bool, error)
}

// NewCache builds a cache backed by store. A zero TTL keeps entries until overwritten.
func NewCache(store redisclient.SessionStore, cfg config.SessionConfig) (*Cache, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.DefaultProfileTTL < 0 {
		return nil, fmt.Errorf("default profile ttl must be non-negative")
	}
	return &Cache{store: store, ttl: cfg.DefaultProfileTTL}, nil
}

// Remember records profileID as the default profile of owner.
func (c *Cache) Remember(ctx context.Context, owner string, profileID uuid.UUID) error {
	owner = normalizeOwner(owner)
	if owner == "" {
		return fmt.Errorf("owner is required")
	}
	if profileID == uuid.Nil {
		return fmt.Errorf("profile id is required")
	}
	return c.store.SetDefaultProfile(ctx, owner, profileID.String(), c.ttl)
}

// DefaultProfile returns the cached profile id for owner. Entries that are
// not valid ids are dropped and report ok=false.
func (c *Cache) DefaultProfile(ctx context.Context, owner string) (uuid.UUID, bool, error) {
	owner = normalizeOwner(owner)
	if owner == "" {
		return uuid.Nil, false, nil
	}
	raw, ok, err := c.store.GetDefaultProfile(ctx, owner)
	if err != nil || !ok {
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, c.store.ClearDefaultProfile(ctx, owner)
	}
	return id, true, nil
}

// Forget drops the cached default profile of owner.
func (c *Cache) Forget(ctx context.Context, owner string) error {
	owner = normalizeOwner(owner)
	if owner == "" {
		return nil
	}
	return c.store.ClearDefaultProfile(ctx, owner)
}

func normalizeOwner(owner string) string {
	return strings.ToLower(strings.TrimSpace(owner))
}
