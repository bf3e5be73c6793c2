package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/facilityhub/ticket-service/internal/domain"
)

// Cache fronts Redis for the two read-heavy board queries: the per-property
// ticket config and the resolver workload snapshot. Misses and Redis errors
// both fall through to the database; the cache is never authoritative.
type Cache struct {
	client          *redis.Client
	logger          *zap.Logger
	ticketConfigTTL time.Duration
	workloadTTL     time.Duration
}

// New builds the cache. A nil client disables caching entirely.
func New(client *redis.Client, logger *zap.Logger, ticketConfigTTL, workloadTTL time.Duration) *Cache {
	return &Cache{
		client:          client,
		logger:          logger,
		ticketConfigTTL: ticketConfigTTL,
		workloadTTL:     workloadTTL,
	}
}

func ticketConfigKey(propertyID string) string {
	return "ticket-config:" + propertyID
}

func workloadKey(scope string) string {
	return "workload:" + scope
}

// GetCategories returns the cached property ticket config if present.
func (c *Cache) GetCategories(ctx context.Context, propertyID string) ([]domain.Category, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, ticketConfigKey(propertyID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("ticket config cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var categories []domain.Category
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, false
	}
	return categories, true
}

// SetCategories stores the property ticket config.
func (c *Cache) SetCategories(ctx context.Context, propertyID string, categories []domain.Category) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(categories)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, ticketConfigKey(propertyID), raw, c.ticketConfigTTL).Err(); err != nil {
		c.logger.Warn("ticket config cache write failed", zap.Error(err))
	}
}

// InvalidateCategories drops the cached config for a property.
func (c *Cache) InvalidateCategories(ctx context.Context, propertyID string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, ticketConfigKey(propertyID)).Err()
}

// GetWorkload returns the cached workload snapshot for a scope key
// (property:<id> or org:<id>).
func (c *Cache) GetWorkload(ctx context.Context, scope string) ([]domain.ResolverWorkload, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, workloadKey(scope)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("workload cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var workloads []domain.ResolverWorkload
	if err := json.Unmarshal(raw, &workloads); err != nil {
		return nil, false
	}
	return workloads, true
}

// SetWorkload stores a workload snapshot. The TTL is short; the snapshot only
// smooths the 30-second board polls, it is not an invalidation protocol.
func (c *Cache) SetWorkload(ctx context.Context, scope string, workloads []domain.ResolverWorkload) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(workloads)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, workloadKey(scope), raw, c.workloadTTL).Err(); err != nil {
		c.logger.Warn("workload cache write failed", zap.Error(err))
	}
}

// InvalidateWorkload drops a workload snapshot, used after assignments.
func (c *Cache) InvalidateWorkload(ctx context.Context, scope string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, workloadKey(scope)).Err()
}
