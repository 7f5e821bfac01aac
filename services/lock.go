package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	lockPollInterval = 100 * time.Millisecond
	lockMaxAttempts  = 100 // ~10s before giving up
)

// SystemLock is the single process-wide lock that serializes every
// status-mutating booking and job operation. It is deliberately coarse: the
// hazard being defended against is one user double-submitting a status change,
// not cross-booking throughput.
type SystemLock struct {
	mu           sync.Mutex
	held         bool
	holderToken  string
	operation    string
	heldSince    time.Time
	pollInterval time.Duration
	maxAttempts  int
}

func NewSystemLock() *SystemLock {
	return &SystemLock{pollInterval: lockPollInterval, maxAttempts: lockMaxAttempts}
}

// NewSystemLockWithTiming exists so tests do not wait out the full window.
func NewSystemLockWithTiming(pollInterval time.Duration, maxAttempts int) *SystemLock {
	return &SystemLock{pollInterval: pollInterval, maxAttempts: maxAttempts}
}

// Acquire polls the lock flag until it is free or the attempt budget runs out.
// It returns an opaque holder token that must be passed back to Release.
func (l *SystemLock) Acquire(ctx context.Context, operation string) (string, error) {
	token := uuid.New().String()

	for attempt := 0; attempt < l.maxAttempts; attempt++ {
		l.mu.Lock()
		if !l.held {
			l.held = true
			l.holderToken = token
			l.operation = operation
			l.heldSince = time.Now().UTC()
			l.mu.Unlock()
			return token, nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(l.pollInterval):
		}
	}

	return "", &LockTimeoutError{Operation: operation}
}

// Release clears the lock only when token still matches the current holder,
// so a late or duplicate release can never clobber a newer holder's lock.
func (l *SystemLock) Release(token, operation string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held {
		return
	}
	if l.holderToken != token {
		log.Printf("ignoring stale lock release from %s: token does not match current holder (%s)", operation, l.operation)
		return
	}
	l.held = false
	l.holderToken = ""
	l.operation = ""
}

// ForceRelease frees the lock regardless of holder. Called on shutdown so a
// crash mid-operation cannot leave the system permanently stuck.
func (l *SystemLock) ForceRelease() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		log.Printf("force-releasing system lock held by %s since %s", l.operation, l.heldSince.Format(time.RFC3339))
	}
	l.held = false
	l.holderToken = ""
	l.operation = ""
}

// Held reports whether the lock is currently taken.
func (l *SystemLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}
