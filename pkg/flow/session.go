package flow

import (
	"sync"
	"time"
)

// SessionStatus is the lifecycle state of one login attempt.
type SessionStatus string

const (
	StatusIdle             SessionStatus = "idle"
	StatusAwaitingRedirect SessionStatus = "awaiting_redirect"
	StatusExchanging       SessionStatus = "exchanging"
	StatusResolved         SessionStatus = "resolved"
	StatusRejected         SessionStatus = "rejected"
)

// FlowSession tracks a single login attempt for one provider. At most
// one session per provider is live at a time.
type FlowSession struct {
	Provider  string
	State     string // csrf state, suffixed with _<provider>
	Status    SessionStatus
	CreatedAt time.Time
}

// sessionGuard serializes session transitions for a controller. A new
// login while the current session is AwaitingRedirect or Exchanging
// must be a no-op, so begin() is check-and-set under one lock.
type sessionGuard struct {
	mu      sync.Mutex
	session FlowSession
}

func newSessionGuard(provider string) *sessionGuard {
	return &sessionGuard{session: FlowSession{Provider: provider, Status: StatusIdle}}
}

// begin starts a new session if none is live. It returns false when a
// session is already awaiting its redirect or exchanging.
func (g *sessionGuard) begin(state string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.session.Status {
	case StatusAwaitingRedirect, StatusExchanging:
		return false
	}
	g.session = FlowSession{
		Provider:  g.session.Provider,
		State:     state,
		Status:    StatusAwaitingRedirect,
		CreatedAt: time.Now(),
	}
	return true
}

// transition moves the live session to the given status if the current
// status matches from. Stale deliveries (e.g. a relay value arriving
// after a reject) are dropped by the caller when this returns false.
func (g *sessionGuard) transition(from, to SessionStatus) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session.Status != from {
		return false
	}
	g.session.Status = to
	return true
}

// finish moves the session to Resolved or Rejected regardless of the
// intermediate status.
func (g *sessionGuard) finish(to SessionStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session.Status = to
}

// current returns a copy of the live session.
func (g *sessionGuard) current() FlowSession {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}
