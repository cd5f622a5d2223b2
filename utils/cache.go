// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"time"

	"receptionist/config"

	"github.com/go-redis/redis/v8"
)

var (
	// SessionClient backs the call session store.
	SessionClient *redis.Client
)

// InitSessionCache connects the Redis client used for call sessions.
func InitSessionCache() error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSessionDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return fmt.Errorf("connect to Redis (sessions): %w", err)
	}
	SessionClient = client
	return nil
}

// GetSessionClient returns the session client, or nil when Redis is unavailable.
func GetSessionClient() *redis.Client {
	return SessionClient
}
