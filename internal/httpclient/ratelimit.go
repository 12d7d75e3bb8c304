package httpclient

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// perHostLimiters paces outbound requests per scheme+host so a multi-file
// download plan (patches, partitioned parts) doesn't burst a resumed sync
// against the dictionary server. Distinct from GlobalHostSem, which bounds
// concurrency rather than rate.
var perHostLimiters = struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
}{m: make(map[string]*rate.Limiter)}

// DefaultRequestsPerSecond is the steady-state request rate allowed per host.
// A burst of 4 lets the planner's first few files go out immediately.
const DefaultRequestsPerSecond = 10.0

// SetHostRateLimit overrides the limiter for host (scheme://host) to allow
// requestsPerSecond sustained, with the given burst. Intended for tests and
// for config-driven tuning; unset hosts use DefaultRequestsPerSecond.
func SetHostRateLimit(rawURL string, requestsPerSecond float64, burst int) {
	host := hostKey(rawURL)
	perHostLimiters.mu.Lock()
	defer perHostLimiters.mu.Unlock()
	perHostLimiters.m[host] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// WaitForRequest blocks until the per-host rate limiter admits one more
// request to u's scheme+host, or returns an error if ctx is done first.
func WaitForRequest(ctx context.Context, u *url.URL) error {
	if u == nil {
		return nil
	}
	limiter := limiterFor(u.Scheme + "://" + u.Host)
	return limiter.Wait(ctx)
}

func limiterFor(host string) *rate.Limiter {
	perHostLimiters.mu.Lock()
	defer perHostLimiters.mu.Unlock()
	l, ok := perHostLimiters.m[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 4)
		perHostLimiters.m[host] = l
	}
	return l
}

func hostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}
