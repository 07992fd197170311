package cache

import (
	"context"
	"time"
)

// ServiceConfig configures the cache service.
type ServiceConfig struct {
	Capacity   int           // Maximum number of entries (default: 1000)
	DefaultTTL time.Duration // Default and maximum TTL for entries (default: 5 minutes)
}

// DefaultServiceConfig returns default cache service configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Capacity:   1000,
		DefaultTTL: 5 * time.Minute,
	}
}

// Service implements CacheService with LRU eviction.
type Service struct {
	lru *LRUCache
}

// NewService creates a new cache service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{lru: NewLRUCache(cfg.Capacity, cfg.DefaultTTL)}
}

// Get retrieves a value from cache.
func (s *Service) Get(_ context.Context, key string) ([]byte, bool) {
	return s.lru.Get(key)
}

// Set stores a value in cache.
func (s *Service) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.lru.Set(key, value, ttl)
	return nil
}

// Invalidate invalidates cache entries matching the pattern.
func (s *Service) Invalidate(_ context.Context, pattern string) error {
	s.lru.Invalidate(pattern)
	return nil
}

// Size returns the number of entries in the cache.
func (s *Service) Size() int {
	return s.lru.Size()
}

// Ensure Service implements CacheService
var _ CacheService = (*Service)(nil)
