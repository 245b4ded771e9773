package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/edufeedback/backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// SessionRepository tracks issued login tokens in Redis.
type SessionRepository struct {
	rdb *redis.Client
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{rdb: rdb}
}

// Register records jti as a live session of userID for ttl.
func (r *SessionRepository) Register(ctx context.Context, userID int, jti string, ttl time.Duration) error {
	userKey := config.CacheKey.UserSessionsKey(userID)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, config.CacheKey.SessionKey(jti), strconv.Itoa(userID), ttl)
		pipe.SAdd(ctx, userKey, jti)
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	return err
}

// Exists reports whether jti is still a live session.
func (r *SessionRepository) Exists(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, config.CacheKey.SessionKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Revoke ends a single session.
func (r *SessionRepository) Revoke(ctx context.Context, userID int, jti string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, config.CacheKey.SessionKey(jti))
		pipe.SRem(ctx, config.CacheKey.UserSessionsKey(userID), jti)
		return nil
	})
	return err
}

// RevokeAll ends every session of userID and returns how many were live.
func (r *SessionRepository) RevokeAll(ctx context.Context, userID int) (int, error) {
	userKey := config.CacheKey.UserSessionsKey(userID)
	jtis, err := r.rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, err
	}

	keys := make([]string, 0, len(jtis)+1)
	for _, jti := range jtis {
		keys = append(keys, config.CacheKey.SessionKey(jti))
	}
	keys = append(keys, userKey)

	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}
	return len(jtis), nil
}
