// Package cache provides a Redis-backed cache of built document trees.
// Every node mutation and lifecycle transition invalidates the document's
// entry; misses fall through to Postgres.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rxops/internal/domain/models/sop"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when no cached tree exists for a document.
var ErrMiss = errors.New("tree cache miss")

const defaultTTL = 10 * time.Minute

// TreeCache stores built trees keyed by document ID.
type TreeCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewTreeCache connects to Redis and verifies the connection.
func NewTreeCache(redisURL string) (*TreeCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewTreeCacheWithClient(client), nil
}

// NewTreeCacheWithClient creates a cache from an existing Redis client.
func NewTreeCacheWithClient(client *redis.Client) *TreeCache {
	return &TreeCache{
		client: client,
		prefix: "soptree:",
		ttl:    defaultTTL,
	}
}

func (c *TreeCache) key(documentID string) string {
	return c.prefix + documentID
}

// Get returns the cached tree for a document, or ErrMiss.
func (c *TreeCache) Get(ctx context.Context, documentID string) (*sop.Tree, error) {
	data, err := c.client.Get(ctx, c.key(documentID)).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get cached tree: %w", err)
	}

	var tree sop.Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		return nil, ErrMiss
	}
	return &tree, nil
}

// Set stores the built tree for a document.
func (c *TreeCache) Set(ctx context.Context, tree *sop.Tree) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("marshal tree: %w", err)
	}
	if err := c.client.Set(ctx, c.key(tree.DocumentID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached tree: %w", err)
	}
	return nil
}

// Invalidate drops the document's cached tree.
func (c *TreeCache) Invalidate(ctx context.Context, documentID string) error {
	if err := c.client.Del(ctx, c.key(documentID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached tree: %w", err)
	}
	return nil
}

// Ping checks connectivity (health endpoint helper).
func (c *TreeCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *TreeCache) Close() error {
	return c.client.Close()
}
