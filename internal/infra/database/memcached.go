package database

import (
	"github.com/bradfitz/gomemcache/memcache"
)

// NewMemcached opens the cache used for public key lookups.
func NewMemcached(server string) *memcache.Client {
	return memcache.New(server)
}
