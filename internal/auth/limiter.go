package auth

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client address. The address is
// the connection's peer unless the peer is a trusted proxy, in which case the
// forwarding headers are consulted.
type IPRateLimiter struct {
	ips     map[string]*visitor
	mu      sync.Mutex
	r       rate.Limit
	b       int
	proxies []*net.IPNet
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*visitor),
		r:   r,
		b:   b,
	}
}

// TrustProxies sets the proxies whose X-Forwarded-For and X-Real-IP headers
// are believed. Entries are IPs or CIDRs.
func (i *IPRateLimiter) TrustProxies(entries []string) error {
	nets, err := ParseProxies(entries)
	if err != nil {
		return err
	}
	i.mu.Lock()
	i.proxies = nets
	i.mu.Unlock()
	return nil
}

// ParseProxies turns "10.0.0.1" or "10.0.0.0/8" entries into networks.
func ParseProxies(entries []string) ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "/") {
			ip := net.ParseIP(e)
			if ip == nil {
				return nil, fmt.Errorf("trusted proxy %q: invalid IP", e)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

func (i *IPRateLimiter) trusted(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, n := range i.proxies {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}

// Tracked reports how many clients currently hold a bucket.
func (i *IPRateLimiter) Tracked() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.ips)
}

func (i *IPRateLimiter) getLimiter(ip string, now time.Time) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	v, exists := i.ips[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Cleanup forgets clients idle since before cutoff.
func (i *IPRateLimiter) Cleanup(cutoff time.Time) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := 0
	for ip, v := range i.ips {
		if v.lastSeen.Before(cutoff) {
			delete(i.ips, ip)
			n++
		}
	}
	return n
}

// Rate limiting middleware
func (i *IPRateLimiter) LimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := i.getLimiter(i.clientIP(r), time.Now())
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests. Try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (i *IPRateLimiter) clientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.trusted(peer) {
		return peer
	}
	// Walk the chain from the nearest hop; the first untrusted address is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for j := len(hops) - 1; j >= 0; j-- {
			hop := strings.TrimSpace(hops[j])
			if net.ParseIP(hop) == nil {
				break
			}
			if !i.trusted(hop) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return peer
}
