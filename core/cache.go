package core

import (
	"context"
	"time"
)

// Cache fronts the public site reads; every content mutation invalidates
// the affected keys so stale entries never outlive a publish.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

type nopCache struct{}

// NewNopCache returns a Cache that never hits; used in tests and when redis is disabled.
func NewNopCache() Cache { return nopCache{} }

func (nopCache) Get(context.Context, string) ([]byte, bool)               { return nil, false }
func (nopCache) Set(context.Context, string, []byte, time.Duration)      {}
func (nopCache) Delete(context.Context, ...string)                       {}
