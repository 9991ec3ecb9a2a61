package services

import "sync"

// ClaimGuard keeps at most one claim in flight per identity within this
// process. Callers that lose the race are rejected, not queued. Cross-instance
// safety comes from the conditional checkpoint update in ClaimService, not
// from this guard.
type ClaimGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewClaimGuard() *ClaimGuard {
	return &ClaimGuard{inFlight: make(map[string]struct{})}
}

// TryAcquire is an atomic insert-if-absent. Returns false when a claim for
// the identity is already in flight.
func (g *ClaimGuard) TryAcquire(identity string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.inFlight[identity]; held {
		return false
	}
	g.inFlight[identity] = struct{}{}
	return true
}

func (g *ClaimGuard) Release(identity string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, identity)
}
