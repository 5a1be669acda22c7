package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-orders/internal/cache"
	"storefront-orders/internal/models"
	"storefront-orders/internal/store"
	"storefront-orders/internal/util"
)

var ErrStoreNotFound = errors.New("store not found")

// StorefrontService resolves tenant storefronts by slug through a TTL cache.
// Store records change rarely, so edits become visible once the cached entry
// expires.
type StorefrontService struct {
	stores StorefrontReader
	cache  *cache.TTL[string, models.Store]
}

// NewStorefrontService creates a storefront service caching lookups for ttl
func NewStorefrontService(stores StorefrontReader, ttl time.Duration) *StorefrontService {
	return &StorefrontService{
		stores: stores,
		cache:  cache.New[string, models.Store](ttl, nil),
	}
}

// GetBySlug returns the active storefront for slug
func (s *StorefrontService) GetBySlug(ctx context.Context, slug string) (*models.Store, error) {
	key := strings.ToLower(strings.TrimSpace(slug))
	if key == "" {
		return nil, ErrStoreNotFound
	}

	if st, ok := s.cache.Get(key); ok {
		util.StoreCacheLookupsTotal.WithLabelValues("hit").Inc()
		return &st, nil
	}
	util.StoreCacheLookupsTotal.WithLabelValues("miss").Inc()

	st, err := s.stores.GetStoreBySlug(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store %q: %w", key, err)
	}

	s.cache.Set(key, *st)
	return st, nil
}

// PurgeExpired drops expired cache entries
func (s *StorefrontService) PurgeExpired() int {
	return s.cache.Purge()
}
