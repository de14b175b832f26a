package database

import (
	"github.com/redis/go-redis/v9"
)

// NewRedis opens the pub/sub backend used to fan out message deliveries
// across server instances.
func NewRedis(addr string, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
