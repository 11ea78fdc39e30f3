package utils

import (
	"context"
	"sync"
	"time"
)

const revokedTokenPrefix = "jwt:revoked:"

var (
	revoked   = map[string]time.Time{}
	revokedMu sync.RWMutex
)

// RevokeToken marks a token unusable until its natural expiration.
func RevokeToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, revokedTokenPrefix+token, "1", ttl).Err(); err == nil {
			return
		}
	}
	revokedMu.Lock()
	revoked[token] = expiresAt
	revokedMu.Unlock()
}

// IsTokenRevoked checks if a token was revoked before natural expiration.
func IsTokenRevoked(token string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := rc.Exists(ctx, revokedTokenPrefix+token).Result()
		if err == nil && n > 0 {
			return true
		}
		// On Redis error fall through to memory; tokens may have been stored there during an outage.
	}
	revokedMu.RLock()
	expiresAt, ok := revoked[token]
	revokedMu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		revokedMu.Lock()
		delete(revoked, token)
		revokedMu.Unlock()
		return false
	}
	return true
}
