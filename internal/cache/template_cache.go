package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Odix-Pay/odixpay-notifications/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const templateKeyPrefix = "templates:slug:"

// TemplateCache fronts the template repository with Redis. Cache failures
// degrade to the repository; they are logged, never surfaced.
type TemplateCache struct {
	client *redis.Client
	repo   domain.TemplateRepository
	ttl    time.Duration
	logger *logrus.Logger
}

func NewTemplateCache(client *redis.Client, repo domain.TemplateRepository, ttl time.Duration, logger *logrus.Logger) *TemplateCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TemplateCache{client: client, repo: repo, ttl: ttl, logger: logger}
}

func (c *TemplateCache) GetTemplatesBySlug(ctx context.Context, slug string) ([]*domain.NotificationTemplate, error) {
	key := templateKeyPrefix + slug

	if c.client != nil {
		raw, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			var variants []*domain.NotificationTemplate
			if err := json.Unmarshal(raw, &variants); err == nil {
				return variants, nil
			}
			c.logger.WithField("key", key).Warn("corrupt cache entry, falling back to repository")
		} else if err != redis.Nil {
			c.logger.WithError(err).Debug("template cache read failed")
		}
	}

	variants, err := c.repo.GetTemplatesBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if c.client != nil && len(variants) > 0 {
		if raw, err := json.Marshal(variants); err == nil {
			if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				c.logger.WithError(err).Debug("template cache write failed")
			}
		}
	}

	return variants, nil
}

// Invalidate drops the cached variants for a slug. Called on template writes.
func (c *TemplateCache) Invalidate(ctx context.Context, slug string) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, templateKeyPrefix+slug).Err(); err != nil {
		return fmt.Errorf("invalidate template cache for %q: %w", slug, err)
	}
	return nil
}
