// Package revocation keeps an in-process set of revoked tokens. It is
// deliberately not durable: a restart loses all revocations, which is an
// accepted weakening given short token lifetimes.
package revocation

import (
	"log/slog"
	"sync"
	"time"
)

// fallbackTTL bounds how long a token that cannot be decoded stays
// blacklisted.
const fallbackTTL = 24 * time.Hour

// ExpiryFunc resolves a token's natural expiry. Tokens that fail to decode
// are still blacklisted for fallbackTTL.
type ExpiryFunc func(token string) (time.Time, error)

// Options configures a Registry. Zero values fall back to production
// defaults; Now is overridable so tests can control the sweep clock.
type Options struct {
	ExpiryOf      ExpiryFunc
	SweepInterval time.Duration
	Now           func() time.Time
}

// Registry is a mutex-guarded map of revoked token → expiry epoch millis.
// An entry counts as revoked only while now < expiry; stale entries are
// removed lazily on lookup and in bulk by a background sweep.
type Registry struct {
	mu       sync.Mutex
	entries  map[string]int64
	expiryOf ExpiryFunc
	now      func() time.Time
	done     chan struct{}
	closing  sync.Once
}

func New(opts Options) *Registry {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 30 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &Registry{
		entries:  make(map[string]int64),
		expiryOf: opts.ExpiryOf,
		now:      opts.Now,
		done:     make(chan struct{}),
	}
	go r.sweepLoop(opts.SweepInterval)
	return r
}

// Revoke blacklists the exact token string until its natural expiry. A token
// that does not decode is blacklisted for fallbackTTL so that
// malformed-but-presented tokens are still rejected.
func (r *Registry) Revoke(token string) {
	expiry := r.now().Add(fallbackTTL)
	if r.expiryOf != nil {
		if exp, err := r.expiryOf(token); err == nil {
			expiry = exp
		}
	}
	r.mu.Lock()
	r.entries[token] = expiry.UnixMilli()
	r.mu.Unlock()
}

// IsRevoked reports whether token is currently blacklisted. Entries past
// their expiry are deleted on sight and treated as absent.
func (r *Registry) IsRevoked(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	expiry, ok := r.entries[token]
	if !ok {
		return false
	}
	if expiry < r.now().UnixMilli() {
		delete(r.entries, token)
		return false
	}
	return true
}

// Len returns the number of entries currently held, including any not yet
// swept.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep removes every expired entry. Called periodically by the background
// loop; exported so tests can trigger it directly.
func (r *Registry) Sweep() {
	now := r.now().UnixMilli()
	r.mu.Lock()
	removed := 0
	for token, expiry := range r.entries {
		if expiry < now {
			delete(r.entries, token)
			removed++
		}
	}
	remaining := len(r.entries)
	r.mu.Unlock()
	if removed > 0 {
		slog.Debug("revocation sweep", "removed", removed, "remaining", remaining)
	}
}

func (r *Registry) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-r.done:
			return
		}
	}
}

// Close stops the background sweep. Idempotent.
func (r *Registry) Close() {
	r.closing.Do(func() { close(r.done) })
}
