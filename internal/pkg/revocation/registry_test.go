package revocation

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestRegistry(expiries map[string]time.Time, now *time.Time) *Registry {
	return New(Options{
		ExpiryOf: func(token string) (time.Time, error) {
			if exp, ok := expiries[token]; ok {
				return exp, nil
			}
			return time.Time{}, errors.New("undecodable")
		},
		SweepInterval: time.Hour,
		Now:           func() time.Time { return *now },
	})
}

func TestRevoke_UntilNaturalExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := newTestRegistry(map[string]time.Time{"tok": now.Add(time.Hour)}, &now)
	defer r.Close()

	assert.False(t, r.IsRevoked("tok"))
	r.Revoke("tok")
	assert.True(t, r.IsRevoked("tok"))

	now = now.Add(time.Hour + time.Second)
	assert.False(t, r.IsRevoked("tok"))
}

func TestRevoke_UndecodableTokenGetsFallbackTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := newTestRegistry(nil, &now)
	defer r.Close()

	r.Revoke("garbage")
	assert.True(t, r.IsRevoked("garbage"))

	now = now.Add(fallbackTTL - time.Minute)
	assert.True(t, r.IsRevoked("garbage"))

	now = now.Add(2 * time.Minute)
	assert.False(t, r.IsRevoked("garbage"))
}

func TestIsRevoked_LazilyDeletesStaleEntries(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := newTestRegistry(map[string]time.Time{"tok": now.Add(time.Minute)}, &now)
	defer r.Close()

	r.Revoke("tok")
	assert.Equal(t, 1, r.Len())

	now = now.Add(2 * time.Minute)
	assert.False(t, r.IsRevoked("tok"))
	assert.Equal(t, 0, r.Len())
}

func TestSweep_RemovesOnlyExpiredEntries(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := newTestRegistry(map[string]time.Time{
		"short": now.Add(time.Minute),
		"long":  now.Add(time.Hour),
	}, &now)
	defer r.Close()

	r.Revoke("short")
	r.Revoke("long")
	assert.Equal(t, 2, r.Len())

	now = now.Add(10 * time.Minute)
	r.Sweep()
	assert.Equal(t, 1, r.Len())
	assert.True(t, r.IsRevoked("long"))
	assert.False(t, r.IsRevoked("short"))
}

func TestClose_Idempotent(t *testing.T) {
	now := time.Now()
	r := newTestRegistry(nil, &now)
	r.Close()
	r.Close()
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := New(Options{SweepInterval: time.Millisecond})
	defer r.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tok := string(rune('a'+n)) + "-token"
				r.Revoke(tok)
				r.IsRevoked(tok)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8, r.Len())
}
