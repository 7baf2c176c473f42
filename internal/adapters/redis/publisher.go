// Package redisad publishes ranking digests to Redis pub/sub, one channel per
// city. It is a transport adapter for the RankingListener capability:
// downstream consumers (bots, dashboards, relays) subscribe to
// rankings:<city> without the core knowing they exist.
package redisad

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Publisher struct {
	c       *redis.Client
	timeout time.Duration
}

func New(addr, pass string, db int) *Publisher {
	return &Publisher{
		c:       redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		timeout: 2 * time.Second,
	}
}

// OnRankingUpdate implements domain.RankingListener. Publishing is
// fire-and-forget per subscriber semantics; the dispatcher logs the error.
func (p *Publisher) OnRankingUpdate(city, digest string) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return p.c.Publish(ctx, "rankings:"+city, digest).Err()
}

func (p *Publisher) Close() error { return p.c.Close() }
