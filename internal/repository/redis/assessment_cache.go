package redis

import (
	"context"
	"strings"
	"time"

	"dbdwatch/internal/adapters/redis"
	"dbdwatch/internal/domain/prediction"
	"dbdwatch/pkg/errors"
)

const assessmentKeyPrefix = "dbd:assessment:v1:"

// Compile-time check
var _ prediction.Cache = (*AssessmentCache)(nil)

// AssessmentCache implements prediction.Cache on Redis with a fixed TTL
type AssessmentCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAssessmentCache(client *redis.Client, ttl time.Duration) *AssessmentCache {
	return &AssessmentCache{client: client, ttl: ttl}
}

// Get returns errors.ErrNotFound on a cache miss
func (c *AssessmentCache) Get(ctx context.Context, region, modelName string) (*prediction.Assessment, error) {
	var a prediction.Assessment

	err := c.client.GetJSON(ctx, c.key(region, modelName), &a)
	if errors.Is(err, redis.ErrCacheMiss) {
		return nil, errors.Wrapf(errors.ErrNotFound, "no cached assessment for %s", region)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read cached assessment for %s", region)
	}
	return &a, nil
}

func (c *AssessmentCache) Set(ctx context.Context, a *prediction.Assessment) error {
	key := c.key(a.Prediction.Region, a.Prediction.Model)
	if err := c.client.SetJSON(ctx, key, a, c.ttl); err != nil {
		return errors.Wrapf(err, "failed to cache assessment for %s", a.Prediction.Region)
	}
	return nil
}

// Invalidate drops every cached assessment; called when artifacts are (re)loaded
func (c *AssessmentCache) Invalidate(ctx context.Context) error {
	if _, err := c.client.DeletePrefix(ctx, assessmentKeyPrefix); err != nil {
		return errors.Wrap(err, "failed to invalidate assessment cache")
	}
	return nil
}

func (c *AssessmentCache) key(region, modelName string) string {
	return assessmentKeyPrefix + modelName + ":" + strings.ToLower(region)
}
