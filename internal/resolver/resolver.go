package resolver

import (
	"context"

	"github.com/hetulpatel/lotbidder/internal/bidding"
	"github.com/hetulpatel/lotbidder/internal/cache"
	"github.com/hetulpatel/lotbidder/internal/logging"
)

// Resolver maps raw waypoint addresses to city ids.
type Resolver struct {
	locator bidding.Locator
	cache   cache.CityCache
	log     logging.Logger
}

// New builds a resolver. cityCache may be nil.
func New(locator bidding.Locator, cityCache cache.CityCache, log logging.Logger) *Resolver {
	if log == nil {
		log = logging.Nop()
	}
	return &Resolver{locator: locator, cache: cityCache, log: log}
}

// Resolve returns exactly one entry per distinct input address. Addresses the
// lookup cannot resolve, or all of them when the lookup call fails, map to
// the fallback sentinel. At most one lookup call is made.
func (r *Resolver) Resolve(ctx context.Context, addresses []string) map[string]bidding.Resolution {
	unique := Dedup(addresses)
	out := make(map[string]bidding.Resolution, len(unique))
	if len(unique) == 0 {
		return out
	}

	pending := r.fromCache(ctx, unique, out)
	if len(pending) == 0 {
		r.log.Debugf("[resolver] all %d addresses served from cache", len(unique))
		return out
	}

	r.log.Infof("[resolver] looking up %d unique addresses: %q", len(pending), pending)
	results, err := r.locator.Locate(ctx, pending)
	if err != nil {
		r.log.Errorf("[resolver] lookup failed, using fallback for %d addresses: %v", len(pending), err)
		for _, addr := range pending {
			out[addr] = bidding.Fallback()
		}
		return out
	}

	for _, addr := range pending {
		res, ok := toResolution(results[addr])
		out[addr] = res
		if ok {
			r.remember(ctx, addr, res)
		}
	}
	r.log.Debugf("[resolver] resolved %v", out)
	return out
}

func (r *Resolver) fromCache(ctx context.Context, unique []string, out map[string]bidding.Resolution) []string {
	if r.cache == nil {
		return unique
	}
	pending := make([]string, 0, len(unique))
	for _, addr := range unique {
		res, ok, err := r.cache.Get(ctx, addr)
		if err != nil {
			r.log.Warnf("[resolver] cache get %q: %v", addr, err)
		}
		if err != nil || !ok {
			pending = append(pending, addr)
			continue
		}
		out[addr] = res
	}
	return pending
}

func (r *Resolver) remember(ctx context.Context, addr string, res bidding.Resolution) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, addr, res); err != nil {
		r.log.Warnf("[resolver] cache set %q: %v", addr, err)
	}
}

func toResolution(result bidding.LookupResult) (bidding.Resolution, bool) {
	if !result.IsSuccess {
		return bidding.Fallback(), false
	}
	if result.CityID == "" {
		return bidding.Fallback(), false
	}
	res := bidding.Resolution{CityID: result.CityID}
	if result.Street != "" {
		street := result.Street
		res.Street = &street
	}
	return res, true
}

// Dedup drops repeated addresses, keeping first-seen order. Comparison is
// exact: case and whitespace matter.
func Dedup(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// Apply writes resolved cities back onto the waypoints in place.
func Apply(waypoints []bidding.Waypoint, resolved map[string]bidding.Resolution) {
	for i := range waypoints {
		res, ok := resolved[waypoints[i].Address]
		if !ok {
			res = bidding.Fallback()
		}
		waypoints[i].CityID = res.CityID
		waypoints[i].Street = res.Street
	}
}
