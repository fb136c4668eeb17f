package cache

import (
	"context"
	"slices"

	"github.com/riskibarqy/issue-lottery/internal/domain/lottery"
	basecache "github.com/riskibarqy/issue-lottery/internal/platform/cache"
)

const configListKey = "lottery:config:list"

// ConfigRepository caches the parsed lottery configuration so HTTP triggers and
// draws do not re-read the file on every call.
type ConfigRepository struct {
	next  lottery.ConfigRepository
	cache *basecache.Store[[]lottery.RepositoryConfig]
}

func NewConfigRepository(next lottery.ConfigRepository, cache *basecache.Store[[]lottery.RepositoryConfig]) *ConfigRepository {
	return &ConfigRepository{next: next, cache: cache}
}

func (r *ConfigRepository) List(ctx context.Context) ([]lottery.RepositoryConfig, error) {
	items, err := r.cache.GetOrLoad(ctx, configListKey, func(ctx context.Context) ([]lottery.RepositoryConfig, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return slices.Clone(items), nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(items), nil
}

// Invalidate drops the cached configuration.
func (r *ConfigRepository) Invalidate(ctx context.Context) {
	r.cache.Delete(ctx, configListKey)
}
