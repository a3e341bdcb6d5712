package community

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"civitas/internal/governance/models"
	"civitas/internal/governance/ports"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/circuit"
	"civitas/pkg/platform/sentinel"
)

const (
	rankKeyPrefix = "civitas:rank:"
	// notMember caches a missing membership.
	notMember = "none"
)

// RankCache decorates a MembershipProvider with a Redis read-through cache
// for Rank. Rank changes become visible within the TTL. When Redis fails
// repeatedly the breaker opens and lookups go straight to the provider.
type RankCache struct {
	next        ports.MembershipProvider
	client      *redis.Client
	ttl         time.Duration
	negativeTTL time.Duration
	breaker     *circuit.Breaker
	logger      *slog.Logger
}

type RankCacheOption func(*RankCache)

func WithTTL(ttl, negativeTTL time.Duration) RankCacheOption {
	return func(c *RankCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
		if negativeTTL > 0 {
			c.negativeTTL = negativeTTL
		}
	}
}

func WithCacheBreaker(b *circuit.Breaker) RankCacheOption {
	return func(c *RankCache) {
		if b != nil {
			c.breaker = b
		}
	}
}

func WithCacheLogger(logger *slog.Logger) RankCacheOption {
	return func(c *RankCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewRankCache(next ports.MembershipProvider, client *redis.Client, opts ...RankCacheOption) *RankCache {
	c := &RankCache{
		next:        next,
		client:      client,
		ttl:         time.Minute,
		negativeTTL: 15 * time.Second,
		breaker:     circuit.New("redis-rank-cache", circuit.WithFailureThreshold(3), circuit.WithCooldown(10*time.Second)),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func rankKey(community id.CommunityID, actor id.ActorID) string {
	return rankKeyPrefix + community.String() + ":" + actor.String()
}

func (c *RankCache) Rank(ctx context.Context, community id.CommunityID, actor id.ActorID) (models.RankTier, error) {
	key := rankKey(community, actor)
	if rank, err, hit := c.lookup(ctx, key); hit {
		return rank, err
	}

	rank, err := c.next.Rank(ctx, community, actor)
	switch {
	case err == nil:
		c.store(ctx, key, strconv.Itoa(int(rank)), c.ttl)
	case errors.Is(err, sentinel.ErrNotFound):
		c.store(ctx, key, notMember, c.negativeTTL)
	}
	return rank, err
}

// CountEligible is not cached; it runs once per tally.
func (c *RankCache) CountEligible(ctx context.Context, community id.CommunityID, ranks []models.RankTier) (int, error) {
	return c.next.CountEligible(ctx, community, ranks)
}

// Invalidate drops a cached rank after a membership change.
func (c *RankCache) Invalidate(ctx context.Context, community id.CommunityID, actor id.ActorID) error {
	return c.client.Del(ctx, rankKey(community, actor)).Err()
}

func (c *RankCache) lookup(ctx context.Context, key string) (models.RankTier, error, bool) {
	if !c.breaker.Allow() {
		return 0, nil, false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.recordSuccess()
			return 0, nil, false
		}
		c.recordFailure(err)
		return 0, nil, false
	}
	c.recordSuccess()
	if val == notMember {
		return 0, sentinel.ErrNotFound, true
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return 0, nil, false
	}
	return models.RankTier(n), nil, true
}

func (c *RankCache) store(ctx context.Context, key, val string, ttl time.Duration) {
	if c.breaker.IsOpen() {
		return
	}
	if err := c.client.Set(ctx, key, val, ttl).Err(); err != nil {
		c.recordFailure(err)
		return
	}
	c.recordSuccess()
}

func (c *RankCache) recordFailure(err error) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.Warn("rank cache circuit opened, reading ranks directly", "error", err)
	}
}

func (c *RankCache) recordSuccess() {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("rank cache circuit closed")
	}
}
