package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/royalhouse/server/internal/api/problem"
	"github.com/royalhouse/server/internal/config"
)

type RateLimitTier string

const (
	TierPublic RateLimitTier = "public"
	TierAdmin  RateLimitTier = "admin"
	TierAuth   RateLimitTier = "auth"
)

const (
	bucketIdleTTL   = 15 * time.Minute
	bucketSweepTick = 5 * time.Minute
)

type rateLimitKey struct{}

// WithRateLimitTier overrides the tier picked from the request path.
func WithRateLimitTier(ctx context.Context, tier RateLimitTier) context.Context {
	return context.WithValue(ctx, rateLimitKey{}, tier)
}

// TierForRequest classifies a request. Login endpoints are auth; the admin
// list, uploads and every API write are admin; the rest is public.
func TierForRequest(r *http.Request) RateLimitTier {
	path := r.URL.Path
	if strings.HasPrefix(path, "/api/auth/") {
		return TierAuth
	}
	if strings.HasPrefix(path, "/api/admins") || strings.HasPrefix(path, "/api/upload") {
		return TierAdmin
	}
	if strings.HasPrefix(path, "/api/") && r.Method != http.MethodGet && r.Method != http.MethodHead {
		return TierAdmin
	}
	return TierPublic
}

// RateLimiter holds a token bucket per tier and client. Each tier refills
// its per-minute budget evenly and allows the full budget as a burst.
type RateLimiter struct {
	buckets *limiterStore
	proxies []netip.Prefix
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		buckets: newLimiterStore(cfg),
		proxies: parseTrustedProxies(cfg.TrustedProxyCIDRs),
	}
}

// Middleware rejects over-budget requests with 429 problem JSON and a
// Retry-After telling the client when the next token arrives. Probes and
// metrics scrapes are exempt.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if exemptFromRateLimit(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		tier, ok := r.Context().Value(rateLimitKey{}).(RateLimitTier)
		if !ok {
			tier = TierForRequest(r)
		}

		if wait, limited := l.buckets.take(tier, clientKey(r, l.proxies), time.Now()); limited {
			LoggerFromContext(r.Context()).Warn().
				Str("tier", string(tier)).
				Str("path", r.URL.Path).
				Dur("retry_after", wait).
				Msg("rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			problem.Write(w, r, http.StatusTooManyRequests, problem.TypeRateLimited, "Too many requests", nil, "")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Stop ends the idle bucket sweeper.
func (l *RateLimiter) Stop() {
	l.buckets.Stop()
}

func exemptFromRateLimit(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics":
		return true
	}
	return false
}

type bucketKey struct {
	tier   RateLimitTier
	client string
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterStore struct {
	mu       sync.Mutex
	limiters map[bucketKey]*bucket
	budget   map[RateLimitTier]int
	stop     chan struct{}
	stopOnce sync.Once
}

func newLimiterStore(cfg config.RateLimitConfig) *limiterStore {
	s := &limiterStore{
		limiters: make(map[bucketKey]*bucket),
		budget: map[RateLimitTier]int{
			TierPublic: cfg.PublicPerMinute,
			TierAdmin:  cfg.AdminPerMinute,
			TierAuth:   cfg.AuthPerMinute,
		},
		stop: make(chan struct{}),
	}
	go s.sweep()
	return s
}

// limiter returns the client's bucket for tier, or nil when the tier has no
// budget configured.
func (s *limiterStore) limiter(tier RateLimitTier, client string) *rate.Limiter {
	perMinute := s.budget[tier]
	if perMinute <= 0 {
		return nil
	}

	key := bucketKey{tier: tier, client: client}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.limiters[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)}
		s.limiters[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// take spends one token. When none is available it reports how long until
// the next one without consuming it.
func (s *limiterStore) take(tier RateLimitTier, client string, now time.Time) (time.Duration, bool) {
	lim := s.limiter(tier, client)
	if lim == nil || lim.AllowN(now, 1) {
		return 0, false
	}
	res := lim.ReserveN(now, 1)
	wait := res.DelayFrom(now)
	res.CancelAt(now)
	if wait < time.Second {
		wait = time.Second
	}
	return wait, true
}

func (s *limiterStore) sweep() {
	ticker := time.NewTicker(bucketSweepTick)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			s.cleanup(now, bucketIdleTTL)
		case <-s.stop:
			return
		}
	}
}

// cleanup drops buckets idle for longer than ttl.
func (s *limiterStore) cleanup(now time.Time, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, b := range s.limiters {
		if now.Sub(b.lastSeen) > ttl {
			delete(s.limiters, key)
		}
	}
}

func (s *limiterStore) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// parseTrustedProxies accepts CIDRs and bare addresses; invalid entries are
// skipped.
func parseTrustedProxies(entries []string) []netip.Prefix {
	var prefixes []netip.Prefix
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if p, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, p.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return prefixes
}

// clientKey identifies the caller. X-Forwarded-For and X-Real-IP count only
// when the direct peer is a trusted proxy.
func clientKey(r *http.Request, proxies []netip.Prefix) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	if !fromTrustedProxy(peer, proxies) {
		return peer
	}

	if hop := forwardedClient(r.Header.Values("X-Forwarded-For"), proxies); hop != "" {
		return hop
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return peer
}

// forwardedClient walks X-Forwarded-For from the right and returns the first
// hop that is not a trusted proxy. Entries left of it are client-supplied.
// When every hop is trusted the leftmost one is returned.
func forwardedClient(values []string, proxies []netip.Prefix) string {
	var hops []string
	for _, v := range values {
		for _, hop := range strings.Split(v, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	for i := len(hops) - 1; i >= 0; i-- {
		if !fromTrustedProxy(hops[i], proxies) {
			return hops[i]
		}
	}
	if len(hops) > 0 {
		return hops[0]
	}
	return ""
}

func fromTrustedProxy(peer string, proxies []netip.Prefix) bool {
	addr, err := netip.ParseAddr(peer)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
