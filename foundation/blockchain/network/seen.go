package network

import (
	"context"
	"errors"
	"time"

	"github.com/allegro/bigcache/v3"
)

// Seen remembers the hashes of blocks recently received from peers so the
// same notification arriving from many peers is only processed once.
type Seen struct {
	cache *bigcache.BigCache
}

// NewSeen constructs a filter that remembers hashes for the window.
func NewSeen(window time.Duration) (*Seen, error) {
	cfg := bigcache.DefaultConfig(window)
	cfg.Shards = 16
	cfg.MaxEntriesInWindow = 1024
	cfg.MaxEntrySize = 1
	cfg.CleanWindow = window
	cfg.Verbose = false

	cache, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	return &Seen{cache: cache}, nil
}

// Contains reports if the hash was recently marked.
func (s *Seen) Contains(hash string) bool {
	_, err := s.cache.Get(hash)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return false
	}
	return err == nil
}

// Mark remembers the hash.
func (s *Seen) Mark(hash string) error {
	return s.cache.Set(hash, []byte{1})
}

// Close releases the resources held by the filter.
func (s *Seen) Close() error {
	return s.cache.Close()
}
