package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DRSN-tech/instrument-shop/internal/cfg"
	"github.com/DRSN-tech/instrument-shop/internal/domain"
	"github.com/DRSN-tech/instrument-shop/internal/repository/redis/converter"
	"github.com/DRSN-tech/instrument-shop/pkg/clients"
	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/DRSN-tech/instrument-shop/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// CacheRepo кэширует категории по нормализованному имени.
type CacheRepo struct {
	client *clients.RedisClient
	conv   converter.CategoryConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.CategoryConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// GetCategory возвращает категорию из кэша; промах и битая запись дают (nil, nil).
func (c *CacheRepo) GetCategory(ctx context.Context, normalizedName string) (*domain.Category, error) {
	key := c.categoryKey(normalizedName)

	data, err := c.client.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, nil // cache miss
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.CategoryRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		c.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		c.drop(ctx, key)
		return nil, nil
	}

	if model.NormalizedName != normalizedName {
		c.logger.Warnf("Cache key mismatch: key: %s, model: %s", normalizedName, model.NormalizedName)
		c.drop(ctx, key)
		return nil, nil
	}

	return c.conv.ToEntity(&model), nil
}

// SetCategory кэширует категорию на CategoryTTL.
func (c *CacheRepo) SetCategory(ctx context.Context, category *domain.Category) error {
	data, err := json.Marshal(c.conv.ToRedisModel(category))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Client.Set(ctx, c.categoryKey(category.NormalizedName), data, c.cfg.CategoryTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (c *CacheRepo) drop(ctx context.Context, key string) {
	if err := c.client.Client.Del(ctx, key).Err(); err != nil {
		c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}
}

// categoryKey возвращает Redis-ключ для категории
func (c *CacheRepo) categoryKey(normalizedName string) string {
	return fmt.Sprintf("category:%s", normalizedName)
}
