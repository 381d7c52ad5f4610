package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shelfmark/shelfmark/internal/model"
)

// sessionKeyPrefix is the Redis key prefix for login sessions.
const sessionKeyPrefix = "session:"

// CachedSession represents a login session stored in Redis.
type CachedSession struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// GetSession retrieves a session by token.
// Returns nil if not found (cache miss).
func (c *Cache) GetSession(ctx context.Context, token string) (*model.AuthContext, error) {
	key := sessionKeyPrefix + token

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached CachedSession
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.AuthContext{
		UserID:   cached.UserID,
		Username: cached.Username,
		Role:     cached.Role,
	}, nil
}

// SetSession stores a session with the given TTL.
func (c *Cache) SetSession(ctx context.Context, token string, auth *model.AuthContext, ttl time.Duration) error {
	key := sessionKeyPrefix + token

	cached := CachedSession{
		UserID:   auth.UserID,
		Username: auth.Username,
		Role:     auth.Role,
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// DeleteSession removes a session. Used on logout.
func (c *Cache) DeleteSession(ctx context.Context, token string) error {
	key := sessionKeyPrefix + token
	return c.client.Del(ctx, key).Err()
}

// RefreshSession extends a session's TTL on activity.
func (c *Cache) RefreshSession(ctx context.Context, token string, ttl time.Duration) error {
	key := sessionKeyPrefix + token
	return c.client.Expire(ctx, key, ttl).Err()
}
