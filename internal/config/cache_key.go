package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionKey returns the cache key holding the owner of a login token.
func (r *CacheKeyStruct) SessionKey(jti string) string {
	return fmt.Sprintf("session:%s", jti)
}

// UserSessionsKey returns the cache key of the set of token IDs issued to a user.
func (r *CacheKeyStruct) UserSessionsKey(userID int) string {
	return fmt.Sprintf("user:%d:sessions", userID)
}

// ChangesChannel returns the Redis PubSub channel carrying data change events.
func (r *CacheKeyStruct) ChangesChannel() string {
	return "edufeedback:changes"
}

var CacheKey = NewCacheKeyStruct()
