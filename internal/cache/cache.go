// Package cache holds the Redis-backed read cache of per-user organization
// lists. It is a disposable mirror of the database, never authoritative:
// every mutating lifecycle call invalidates the affected entries, and any
// cache failure degrades to a database read. Payloads are encrypted at rest.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/pkg/crypto"
	"github.com/redis/go-redis/v9"
)

type OrgListCache struct {
	rdb    *redis.Client
	enc    *crypto.Encryptor
	ttl    time.Duration
	logger *slog.Logger
}

// New returns a cache over the given Redis client. A nil client yields a
// disabled cache whose methods are all no-ops.
func New(rdb *redis.Client, enc *crypto.Encryptor, ttl time.Duration, logger *slog.Logger) *OrgListCache {
	if rdb == nil {
		return nil
	}
	return &OrgListCache{rdb: rdb, enc: enc, ttl: ttl, logger: logger}
}

func key(userID uuid.UUID) string {
	return "orgs:user:" + userID.String()
}

// Get loads the cached organization list for a user into dest. A miss,
// a decode failure or a Redis error all return false; the caller falls
// through to the database.
func (c *OrgListCache) Get(ctx context.Context, userID uuid.UUID, dest interface{}) bool {
	if c == nil {
		return false
	}

	stored, err := c.rdb.Get(ctx, key(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("org cache read failed", "user_id", userID, "error", err)
		}
		return false
	}

	payload := stored
	if c.enc != nil {
		payload, err = c.enc.DecryptString(stored)
		if err != nil {
			c.logger.Warn("org cache decrypt failed, dropping entry", "user_id", userID, "error", err)
			c.Invalidate(ctx, userID)
			return false
		}
	}

	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		c.Invalidate(ctx, userID)
		return false
	}
	return true
}

// Set stores the organization list for a user. Failures are logged and
// swallowed; the cache is advisory.
func (c *OrgListCache) Set(ctx context.Context, userID uuid.UUID, v interface{}) {
	if c == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("org cache marshal failed", "user_id", userID, "error", err)
		return
	}

	payload := string(data)
	if c.enc != nil {
		payload, err = c.enc.EncryptString(payload)
		if err != nil {
			c.logger.Warn("org cache encrypt failed", "user_id", userID, "error", err)
			return
		}
	}

	if err := c.rdb.Set(ctx, key(userID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("org cache write failed", "user_id", userID, "error", err)
	}
}

// Invalidate drops the cached lists for the given users.
func (c *OrgListCache) Invalidate(ctx context.Context, userIDs ...uuid.UUID) {
	if c == nil || len(userIDs) == 0 {
		return
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = key(id)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("org cache invalidation failed", "error", err)
	}
}
