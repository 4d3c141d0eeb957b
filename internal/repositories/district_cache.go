package repositories

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/mkoziy/mgnrega/dashboard/internal/models"
)

// DistrictReader is the read surface shared by DistrictRepo and CachedDistricts.
type DistrictReader interface {
	GetByID(ctx context.Context, id string) (*models.District, error)
	ListByState(ctx context.Context, stateCode string) ([]*models.District, error)
}

var (
	_ DistrictReader = (*DistrictRepo)(nil)
	_ DistrictReader = (*CachedDistricts)(nil)
)

// CachedDistricts fronts a DistrictReader with an in-process TTL cache.
// Districts are reference data, so only successful lookups are cached and
// misses always reach the underlying reader.
type CachedDistricts struct {
	next  DistrictReader
	cache *cache.Cache
}

// NewCachedDistricts wraps next. A non-positive ttl disables expiry.
func NewCachedDistricts(next DistrictReader, ttl time.Duration) *CachedDistricts {
	expiry := ttl
	cleanup := 2 * ttl
	if ttl <= 0 {
		expiry = cache.NoExpiration
		cleanup = 0
	}
	return &CachedDistricts{
		next:  next,
		cache: cache.New(expiry, cleanup),
	}
}

func (c *CachedDistricts) GetByID(ctx context.Context, id string) (*models.District, error) {
	key := "id:" + id
	if v, ok := c.cache.Get(key); ok {
		return v.(*models.District), nil
	}
	district, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, district)
	return district, nil
}

func (c *CachedDistricts) ListByState(ctx context.Context, stateCode string) ([]*models.District, error) {
	key := "state:" + stateCode
	if v, ok := c.cache.Get(key); ok {
		return v.([]*models.District), nil
	}
	districts, err := c.next.ListByState(ctx, stateCode)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, districts)
	for _, d := range districts {
		c.cache.SetDefault("id:"+d.ID, d)
	}
	return districts, nil
}

// Flush drops every cached entry.
func (c *CachedDistricts) Flush() {
	c.cache.Flush()
}
