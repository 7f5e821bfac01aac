package services

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLockAcquireAndRelease(t *testing.T) {
	l := NewSystemLockWithTiming(time.Millisecond, 5)
	ctx := context.Background()

	token, err := l.Acquire(ctx, "op_a")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !l.Held() {
		t.Fatal("lock should be held after Acquire")
	}

	l.Release(token, "op_a")
	if l.Held() {
		t.Fatal("lock should be free after Release")
	}
}

func TestLockTimeout(t *testing.T) {
	l := NewSystemLockWithTiming(time.Millisecond, 3)
	ctx := context.Background()

	token, err := l.Acquire(ctx, "holder")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l.Release(token, "holder")

	_, err = l.Acquire(ctx, "waiter")
	if err == nil {
		t.Fatal("second Acquire should time out")
	}
	if !IsLockTimeout(err) {
		t.Fatalf("expected LockTimeoutError, got %T: %v", err, err)
	}
}

func TestLockContextCancellation(t *testing.T) {
	l := NewSystemLockWithTiming(10*time.Millisecond, 100)

	token, err := l.Acquire(context.Background(), "holder")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l.Release(token, "holder")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	_, err = l.Acquire(ctx, "waiter")
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLockStaleReleaseIgnored(t *testing.T) {
	l := NewSystemLockWithTiming(time.Millisecond, 5)
	ctx := context.Background()

	first, err := l.Acquire(ctx, "first")
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	l.Release(first, "first")

	second, err := l.Acquire(ctx, "second")
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}

	// A duplicate release with the first holder's token must not free the
	// lock out from under the second holder.
	l.Release(first, "first")
	if !l.Held() {
		t.Fatal("stale release freed a lock it did not own")
	}

	l.Release(second, "second")
	if l.Held() {
		t.Fatal("owned release should free the lock")
	}
}

func TestLockForceRelease(t *testing.T) {
	l := NewSystemLockWithTiming(time.Millisecond, 5)

	if _, err := l.Acquire(context.Background(), "stuck"); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	l.ForceRelease()
	if l.Held() {
		t.Fatal("ForceRelease should free the lock regardless of holder")
	}
}

func TestLockMutualExclusion(t *testing.T) {
	l := NewSystemLockWithTiming(time.Millisecond, 1000)
	ctx := context.Background()

	const workers = 10
	var inside, maxInside int
	var stateMu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := l.Acquire(ctx, "worker")
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			stateMu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			stateMu.Unlock()

			time.Sleep(time.Millisecond)

			stateMu.Lock()
			inside--
			stateMu.Unlock()
			l.Release(token, "worker")
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("observed %d concurrent holders, want exactly 1", maxInside)
	}
}
