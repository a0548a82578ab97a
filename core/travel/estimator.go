// Package travel resolves distance and travel time between an engineer's
// base and a job site. Estimates degrade through tiers: a live routing
// provider, a per-region straight-line estimate, and a fixed default. The
// estimator never fails its caller; every result carries a provenance tag.
package travel

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/dispatchlab/fieldsched/core/logger"
	"github.com/dispatchlab/fieldsched/core/model"
)

// Estimate is a resolved distance and travel time.
type Estimate struct {
	DistanceKm float64            `json:"distance_km"`
	Minutes    int                `json:"minutes"`
	Source     model.TravelSource `json:"source"`
}

// Router is a live routing provider. Implementations return an error when
// no route could be resolved; the estimator then falls through to the next
// tier.
type Router interface {
	Route(ctx context.Context, origin, dest model.Location) (Estimate, error)
}

// Cache stores estimates keyed by location pair for reuse within and across
// runs. Implementations must be safe for concurrent use.
type Cache interface {
	Get(key string) (Estimate, bool)
	Put(key string, e Estimate)
	Clear()
}

// RegionProfile parameterizes the straight-line fallback for one region.
type RegionProfile struct {
	RoadFactor  float64 `json:"road_factor"`  // multiplier over great-circle distance
	AvgSpeedKmh float64 `json:"avg_speed_kmh"`
}

// Estimator resolves travel estimates through the configured tiers.
type Estimator struct {
	router   Router // nil disables the live tier
	regions  map[string]RegionProfile
	fallback RegionProfile // used when the region is unknown
	deflt    Estimate
	cache    Cache
	log      logger.Logger
}

// DefaultEstimate is returned when every other tier produced nothing useful.
var DefaultEstimate = Estimate{DistanceKm: 25, Minutes: 35, Source: model.TravelDefault}

var defaultProfile = RegionProfile{RoadFactor: 1.3, AvgSpeedKmh: 55}

// NewEstimator creates an estimator. router may be nil; cache defaults to an
// in-memory map.
func NewEstimator(router Router, regions map[string]RegionProfile, cache Cache, log logger.Logger) *Estimator {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Estimator{
		router:   router,
		regions:  regions,
		fallback: defaultProfile,
		deflt:    DefaultEstimate,
		cache:    cache,
		log:      log,
	}
}

func pairKey(origin, dest model.Location) string {
	return fmt.Sprintf("%.5f,%.5f|%.5f,%.5f", origin.Lat, origin.Lng, dest.Lat, dest.Lng)
}

// Estimate resolves the travel from origin to dest. region selects the
// profile for the straight-line tier. The call never returns an error.
func (e *Estimator) Estimate(ctx context.Context, origin, dest model.Location, region string) Estimate {
	key := pairKey(origin, dest)
	if cached, ok := e.cache.Get(key); ok {
		return cached
	}

	if e.router != nil {
		est, err := e.router.Route(ctx, origin, dest)
		if err == nil && est.DistanceKm > 0 {
			est.Source = model.TravelLive
			e.cache.Put(key, est)
			return est
		}
		if err != nil && e.log != nil {
			e.log.Debugf("live routing unavailable (%v), using regional estimate", err)
		}
	}

	if est, ok := e.regional(origin, dest, region); ok {
		e.cache.Put(key, est)
		return est
	}

	e.cache.Put(key, e.deflt)
	return e.deflt
}

func (e *Estimator) regional(origin, dest model.Location, region string) (Estimate, bool) {
	if origin.IsZero() || dest.IsZero() {
		return Estimate{}, false
	}
	profile, ok := e.regions[region]
	if !ok {
		profile = e.fallback
	}
	if profile.AvgSpeedKmh <= 0 || profile.RoadFactor <= 0 {
		return Estimate{}, false
	}
	dist := origin.DistanceKm(dest) * profile.RoadFactor
	minutes := int(math.Ceil(dist / profile.AvgSpeedKmh * 60))
	return Estimate{DistanceKm: dist, Minutes: minutes, Source: model.TravelRegional}, true
}

// ClearCache drops all cached estimates.
func (e *Estimator) ClearCache() {
	e.cache.Clear()
}

// MemoryCache is the default in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Estimate
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Estimate)}
}

func (c *MemoryCache) Get(key string) (Estimate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *MemoryCache) Put(key string, e Estimate) {
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]Estimate)
	c.mu.Unlock()
}
