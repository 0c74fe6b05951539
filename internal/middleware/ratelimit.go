// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"newsdesk/internal/apperr"
)

const (
	// maxLockout caps the doubling account lockout.
	maxLockout = 24 * time.Hour
	// maxIPBuckets bounds the per-IP table; past it the table starts over.
	maxIPBuckets = 10_000
	cleanupEvery = 10 * time.Minute
)

// LoginGuardConfig tunes a LoginGuard. Zero fields take the defaults.
type LoginGuardConfig struct {
	// IPRate is the sustained number of attempts per second one client IP
	// may make; IPBurst is how many it may make at once.
	IPRate  float64
	IPBurst int

	// MaxFailures failed attempts within Window lock the account for
	// Lockout. Each further lock doubles the duration.
	MaxFailures int
	Window      time.Duration
	Lockout     time.Duration
}

func (c *LoginGuardConfig) setDefaults() {
	if c.IPRate <= 0 {
		c.IPRate = 0.5
	}
	if c.IPBurst <= 0 {
		c.IPBurst = 5
	}
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.Window <= 0 {
		c.Window = 15 * time.Minute
	}
	if c.Lockout <= 0 {
		c.Lockout = 15 * time.Minute
	}
}

// LoginGuard throttles credential checks on two keys. A token bucket per
// client IP stops one address from spraying many accounts; a failure count
// per account locks it against slow guessing spread over many addresses.
type LoginGuard struct {
	cfg LoginGuardConfig
	now func() time.Time

	mu       sync.Mutex
	ips      map[string]*rate.Limiter
	accounts map[string]*accountFailures

	stop     chan struct{}
	stopOnce sync.Once
}

type accountFailures struct {
	count       int
	first       time.Time
	lockedUntil time.Time
	lockouts    int
}

// NewLoginGuard creates a LoginGuard and starts its cleanup loop.
func NewLoginGuard(cfg LoginGuardConfig) *LoginGuard {
	cfg.setDefaults()
	g := &LoginGuard{
		cfg:      cfg,
		now:      time.Now,
		ips:      make(map[string]*rate.Limiter),
		accounts: make(map[string]*accountFailures),
		stop:     make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(cleanupEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				g.cleanup()
			case <-g.stop:
				return
			}
		}
	}()

	return g
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (g *LoginGuard) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
}

// allowIP takes a token from the bucket of ip. When none is left it
// returns false and the wait until the next one.
func (g *LoginGuard) allowIP(ip string) (bool, time.Duration) {
	g.mu.Lock()
	lim, ok := g.ips[ip]
	if !ok {
		if len(g.ips) >= maxIPBuckets {
			slog.Info("login rate limiter table reset", "size", len(g.ips))
			g.ips = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(rate.Limit(g.cfg.IPRate), g.cfg.IPBurst)
		g.ips[ip] = lim
	}
	g.mu.Unlock()

	now := g.now()
	res := lim.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Locked reports whether account is locked and for how much longer.
func (g *LoginGuard) Locked(account string) (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	f, ok := g.accounts[accountKey(account)]
	if !ok {
		return false, 0
	}
	if left := f.lockedUntil.Sub(g.now()); left > 0 {
		return true, left
	}
	return false, 0
}

// Failed records a failed attempt on account. It reports whether the
// attempt locked the account, and for how long.
func (g *LoginGuard) Failed(account string) (bool, time.Duration) {
	key := accountKey(account)
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	f, ok := g.accounts[key]
	if !ok || now.Sub(f.first) > g.cfg.Window {
		lockouts := 0
		if ok {
			lockouts = f.lockouts
		}
		f = &accountFailures{first: now, lockouts: lockouts}
		g.accounts[key] = f
	}
	f.count++
	if f.count < g.cfg.MaxFailures {
		return false, 0
	}

	d := g.cfg.Lockout
	for i := 0; i < f.lockouts && d < maxLockout; i++ {
		d *= 2
	}
	d = min(d, maxLockout)

	f.lockedUntil = now.Add(d)
	f.lockouts++
	f.count = 0
	f.first = now
	slog.Warn("account locked after failed logins", "account", key, "lockouts", f.lockouts, "duration", d)
	return true, d
}

// Succeeded forgets the failures of account.
func (g *LoginGuard) Succeeded(account string) {
	g.mu.Lock()
	delete(g.accounts, accountKey(account))
	g.mu.Unlock()
}

// cleanup drops accounts whose lock and failure window have both passed.
func (g *LoginGuard) cleanup() {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	for key, f := range g.accounts {
		if now.After(f.lockedUntil) && now.Sub(f.first) > g.cfg.Window {
			delete(g.accounts, key)
		}
	}
	if len(g.ips) >= maxIPBuckets {
		g.ips = make(map[string]*rate.Limiter)
	}
}

// Middleware applies the per-IP bucket. Used on login and 2FA endpoints.
func (g *LoginGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if ok, wait := g.allowIP(ip); !ok {
			slog.Warn("login rate limit exceeded", "ip", ip, "path", r.URL.Path)
			WriteRateLimited(w, r, wait)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WriteRateLimited writes a 429 whose Retry-After is retry rounded up to
// whole seconds.
func WriteRateLimited(w http.ResponseWriter, r *http.Request, retry time.Duration) {
	secs := int(math.Ceil(retry.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	apperr.WriteJSON(w, r, apperr.New(apperr.RateLimited, "too many attempts, try again later"))
}

// accountKey normalizes an account identifier such as an email address.
func accountKey(account string) string {
	return strings.ToLower(strings.TrimSpace(account))
}

// clientIP returns the host part of RemoteAddr. The router's RealIP
// middleware has already replaced it with the forwarded client address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
