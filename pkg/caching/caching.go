// Package caching stores fetched response bodies on disk with a TTL,
// so repeated keystrokes of the same query do not hammer the endpoint.
package caching

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache is a file-based response cache keyed by request URL.
type Cache struct {
	path string
	ttl  time.Duration
}

// NewCache creates the cache directory if needed.
func NewCache(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{path: path, ttl: ttl}, nil
}

// key hashes the request URL into a filesystem-safe name.
func (c *Cache) key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%x", hash)
}

// Get returns the cached body for the URL and true on a fresh hit.
func (c *Cache) Get(url string) ([]byte, bool) {
	filePath := filepath.Join(c.path, c.key(url))

	info, err := os.Stat(filePath)
	if err != nil {
		// Missing entry or degraded cache directory, either way a miss.
		return nil, false
	}
	if time.Since(info.ModTime()) > c.ttl {
		return nil, false // expired
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a response body for the URL.
func (c *Cache) Set(url string, body []byte) error {
	filePath := filepath.Join(c.path, c.key(url))
	if err := os.WriteFile(filePath, body, 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}
