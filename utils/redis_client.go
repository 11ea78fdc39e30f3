package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cppla/blogicum/config"
)

var redisClient *redis.Client

// InitRedis connects to Redis when RedisHost is configured. When the host is empty
// or unreachable it returns nil and callers fall back to in-memory stores.
func InitRedis(cfg config.AppConfig) *redis.Client {
	if cfg.RedisHost == "" {
		redisClient = nil
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		Logger.Warn("redis unavailable, using in-memory stores", zap.String("addr", client.Options().Addr), zap.Error(err))
		_ = client.Close()
		redisClient = nil
		return nil
	}
	redisClient = client
	return client
}

// GetRedis returns the client set up by InitRedis, or nil.
func GetRedis() *redis.Client {
	return redisClient
}
