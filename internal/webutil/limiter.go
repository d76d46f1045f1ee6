package webutil

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter rate-limits per hostname (duckduckgo.com, company sites, etc).
type HostLimiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
	r  rate.Limit
	b  int
}

func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	return &HostLimiter{
		m: make(map[string]*rate.Limiter),
		r: rate.Limit(reqPerSec),
		b: burst,
	}
}

// SetLimit changes the rate for new and already-tracked hosts. Called when
// the config is rewritten at runtime.
func (hl *HostLimiter) SetLimit(reqPerSec float64, burst int) {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	hl.r = rate.Limit(reqPerSec)
	hl.b = burst
	for _, lim := range hl.m {
		lim.SetLimit(hl.r)
		lim.SetBurst(hl.b)
	}
}

func (hl *HostLimiter) limiterFor(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if lim, ok := hl.m[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(hl.r, hl.b)
	hl.m[host] = lim
	return lim
}

func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return hl.limiterFor("_").Wait(ctx)
	}
	return hl.limiterFor(u.Host).Wait(ctx)
}
