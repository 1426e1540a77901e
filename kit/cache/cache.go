package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const DefaultTTL = time.Hour

// Cache is the contract the services rely on. Implementations must treat a
// zero ttl as DefaultTTL.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Key names a family of entries: <namespace>:<name>:<args...>.
type Key struct {
	Namespace string
	Name      string
	TTL       time.Duration
}

func NewKey(namespace, name string, ttl time.Duration) Key {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Key{Namespace: namespace, Name: name, TTL: ttl}
}

func (k Key) For(args ...any) string {
	parts := make([]string, 0, len(args)+2)
	if k.Namespace != "" {
		parts = append(parts, k.Namespace)
	}
	parts = append(parts, k.Name)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, ":")
}

func SetJSON[T any](ctx context.Context, c Cache, key string, value T, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, string(b), ttl)
}

// GetJSON returns ok=false on a miss. Undecodable entries are dropped and
// reported as a miss.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool, error) {
	var zero T
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		_ = c.Delete(ctx, key)
		return zero, false, nil
	}
	return v, true, nil
}

// GetOrLoad serves key from c, falling back to load and caching its result.
// Cache failures degrade to calling load.
func GetOrLoad[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	if c != nil {
		if v, ok, err := GetJSON[T](ctx, c, key); err == nil && ok {
			return v, nil
		}
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if c != nil {
		_ = SetJSON(ctx, c, key, v, ttl)
	}
	return v, nil
}
