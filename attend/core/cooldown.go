package core

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// CooldownWindow is how long repeat scans of the same kind are rejected.
const CooldownWindow = 5 * time.Minute

// CooldownKey identifies one cooldown slot. Keying includes the mode so a
// check-in cooldown never blocks the check-out that follows it.
type CooldownKey struct {
	StaffID string
	EventID string
	Date    string
	Mode    string
}

func (k CooldownKey) String() string {
	return fmt.Sprintf("%s_%s_%s_%s", k.StaffID, k.EventID, k.Date, k.Mode)
}

// CooldownGuard arms a per-key window against duplicate scans.
//
// Acquire is atomic: of two near-simultaneous scans for the same key exactly
// one wins. The winner holds the slot for the full window; if the scan then
// fails a precondition the caller releases the slot so a corrected retry is
// not locked out. A successful scan leaves it armed.
type CooldownGuard interface {
	Acquire(ctx context.Context, key CooldownKey) (allowed bool, remainingSeconds int, err error)
	Release(ctx context.Context, key CooldownKey) error
}

// MemoryCooldownGuard keeps cooldown slots in process memory. Suitable for
// single-node deployments and tests; multi-node deployments use the Redis
// guard so operators scanning against different nodes share windows.
type MemoryCooldownGuard struct {
	clock Clock

	mu      sync.Mutex
	expires map[string]time.Time
}

func NewMemoryCooldownGuard(clock Clock) *MemoryCooldownGuard {
	return &MemoryCooldownGuard{
		clock:   clock,
		expires: make(map[string]time.Time),
	}
}

func (g *MemoryCooldownGuard) Acquire(_ context.Context, key CooldownKey) (bool, int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if expiresAt, ok := g.expires[key.String()]; ok && now.Before(expiresAt) {
		remaining := int(math.Ceil(expiresAt.Sub(now).Seconds()))
		return false, remaining, nil
	}

	g.expires[key.String()] = now.Add(CooldownWindow)
	return true, 0, nil
}

func (g *MemoryCooldownGuard) Release(_ context.Context, key CooldownKey) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.expires, key.String())
	return nil
}
