package session

import (
	"sync"
	"time"
)

// LockState is the restoration lock state
type LockState int

const (
	// Idle permits saves
	Idle LockState = iota
	// Restoring refuses saves
	Restoring
)

func (s LockState) String() string {
	if s == Restoring {
		return "restoring"
	}
	return "idle"
}

// RestorationLock is a two-state gate with a single Restoring owner
type RestorationLock struct {
	mu    sync.Mutex
	state LockState
	since time.Time
}

// TryAcquire moves Idle to Restoring. It returns false if already Restoring.
func (l *RestorationLock) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Restoring {
		return false
	}
	l.state = Restoring
	l.since = time.Now()
	return true
}

// Release moves to Idle and reports whether the lock was Restoring
func (l *RestorationLock) Release() (wasRestoring bool, held time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Idle {
		return false, 0
	}
	l.state = Idle
	held = time.Since(l.since)
	l.since = time.Time{}
	return true, held
}

// State returns the current state
func (l *RestorationLock) State() LockState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// IsRestoring reports whether saves are currently refused
func (l *RestorationLock) IsRestoring() bool {
	return l.State() == Restoring
}
