package cache

import (
	"context"
	"time"
)

// Cache хранит сырые байты, сериализацией занимается вызывающий код
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
	TypeNone   = "none"
)

// Nop ничего не хранит. Используется при CACHE_TYPE=none.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool)            { return nil, false }
func (Nop) Set(context.Context, string, []byte, time.Duration) {}
func (Nop) Delete(context.Context, string)                       {}
