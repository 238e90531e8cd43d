package services

import (
	"sync"

	"campus-cardhub/internal/adapters/persistence/models"
)

// SessionPhase is the lifecycle phase of the process-wide session state
type SessionPhase string

const (
	PhaseUninitialized SessionPhase = "UNINITIALIZED"
	PhaseObserving     SessionPhase = "OBSERVING"
	PhaseAuthenticated SessionPhase = "AUTHENTICATED"
	PhaseAnonymous     SessionPhase = "ANONYMOUS"
)

// SessionSnapshot is one observed state of the session
type SessionSnapshot struct {
	Phase  SessionPhase
	Record *models.UserRecord
}

// SessionBroker holds the process-wide session state and fans it out to
// subscribers. It is updated only by the auth service; presentation layers
// subscribe instead of polling. Subscriber channels are buffered with a
// capacity of one and hold the latest snapshot — a slow consumer sees the
// newest state, not a backlog.
type SessionBroker struct {
	mu      sync.RWMutex
	current SessionSnapshot
	subs    map[uint64]chan SessionSnapshot
	nextID  uint64
}

// NewSessionBroker creates a broker in the uninitialized phase
func NewSessionBroker() *SessionBroker {
	return &SessionBroker{
		current: SessionSnapshot{Phase: PhaseUninitialized},
		subs:    make(map[uint64]chan SessionSnapshot),
	}
}

// StartObserving marks the broker live. Called once at boot, before any
// authentication event is published.
func (b *SessionBroker) StartObserving() {
	b.publish(SessionSnapshot{Phase: PhaseObserving})
}

// SetAuthenticated publishes an authenticated session for the given record
func (b *SessionBroker) SetAuthenticated(record *models.UserRecord) {
	b.publish(SessionSnapshot{Phase: PhaseAuthenticated, Record: record})
}

// SetAnonymous publishes the signed-out state
func (b *SessionBroker) SetAnonymous() {
	b.publish(SessionSnapshot{Phase: PhaseAnonymous})
}

// Current returns the latest snapshot
func (b *SessionBroker) Current() SessionSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Subscribe registers a subscriber. The returned channel immediately carries
// the current snapshot; call the returned func to unsubscribe.
func (b *SessionBroker) Subscribe() (<-chan SessionSnapshot, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan SessionSnapshot, 1)
	ch <- b.current
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (b *SessionBroker) publish(snapshot SessionSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = snapshot
	for _, ch := range b.subs {
		// Latest-wins: drop the stale snapshot if the subscriber
		// has not consumed it yet.
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}
