package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRefreshGate_SingleFlight(t *testing.T) {
	g := NewRefreshGate()

	const n = 32
	var rotations atomic.Int64
	started := make(chan struct{})

	var wg sync.WaitGroup
	var leaders atomic.Int64

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			leader, err := g.Do(context.Background(), func() error {
				rotations.Add(1)
				// Hold the gate long enough for every follower to enqueue.
				<-started
				return nil
			})
			if err != nil {
				t.Errorf("Do: %v", err)
			}
			if leader {
				leaders.Add(1)
			}
		}()
	}

	// Let followers pile up behind the in-flight rotation, then release it.
	time.Sleep(50 * time.Millisecond)
	close(started)
	wg.Wait()

	if got := rotations.Load(); got != 1 {
		t.Fatalf("expected exactly 1 rotation, got %d", got)
	}
	if got := leaders.Load(); got != 1 {
		t.Fatalf("expected exactly 1 leader, got %d", got)
	}
	if g.Refreshing() {
		t.Fatalf("gate must be released after the flight")
	}
}

func TestRefreshGate_FailureFansOutToWaiters(t *testing.T) {
	g := NewRefreshGate()

	rotateErr := errors.New("refresh credential revoked")
	block := make(chan struct{})
	leaderDone := make(chan error, 1)

	go func() {
		_, err := g.Do(context.Background(), func() error {
			<-block
			return rotateErr
		})
		leaderDone <- err
	}()

	// Wait until the leader holds the gate.
	for !g.Refreshing() {
		time.Sleep(time.Millisecond)
	}

	waiterDone := make(chan error, 1)
	go func() {
		_, err := g.Do(context.Background(), func() error {
			t.Error("waiter must not rotate")
			return nil
		})
		waiterDone <- err
	}()

	time.Sleep(10 * time.Millisecond)
	close(block)

	if err := <-leaderDone; !errors.Is(err, rotateErr) {
		t.Fatalf("leader error: %v", err)
	}
	if err := <-waiterDone; !errors.Is(err, rotateErr) {
		t.Fatalf("waiter must observe the leader's failure, got %v", err)
	}

	// A later flight starts clean.
	leader, err := g.Do(context.Background(), func() error { return nil })
	if err != nil || !leader {
		t.Fatalf("gate must be reusable after failure: leader=%v err=%v", leader, err)
	}
}

func TestRefreshGate_WaiterHonorsContext(t *testing.T) {
	g := NewRefreshGate()

	block := make(chan struct{})
	go func() {
		_, _ = g.Do(context.Background(), func() error {
			<-block
			return nil
		})
	}()
	for !g.Refreshing() {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Do(ctx, func() error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(block)
}
