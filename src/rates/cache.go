package rates

import (
	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/username/vestfolio/src/models"
)

// CachedSource memoizes rate lookups process-wide so concurrent report
// runs share one warm rate table. go-cache synchronizes writes, so no run
// can observe a partially populated entry. Errors are not cached: a date
// missing from today's data set may be present after the next reload.
type CachedSource struct {
	inner Source
	cache *gocache.Cache
}

func NewCachedSource(inner Source) *CachedSource {
	return &CachedSource{
		inner: inner,
		cache: gocache.New(gocache.NoExpiration, gocache.NoExpiration),
	}
}

func (s *CachedSource) Rate(currency string, date models.Date) (decimal.Decimal, error) {
	key := currency + "|" + date.String()
	if cached, found := s.cache.Get(key); found {
		return cached.(decimal.Decimal), nil
	}
	rate, err := s.inner.Rate(currency, date)
	if err != nil {
		return decimal.Zero, err
	}
	s.cache.Set(key, rate, gocache.NoExpiration)
	return rate, nil
}
