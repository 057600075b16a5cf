package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewBulkhead(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{})

	if b.config.MaxConcurrent != DefaultMaxConcurrent {
		t.Errorf("MaxConcurrent = %d, want %d", b.config.MaxConcurrent, DefaultMaxConcurrent)
	}
}

func TestBulkhead_TryAcquireRelease(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 2})

	if !b.TryAcquire() {
		t.Error("first TryAcquire() = false")
	}
	if !b.TryAcquire() {
		t.Error("second TryAcquire() = false")
	}
	if b.TryAcquire() {
		t.Error("third TryAcquire() = true, want false at capacity")
	}

	b.Release()

	if !b.TryAcquire() {
		t.Error("TryAcquire after release = false")
	}
	if m := b.Metrics(); m.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", m.Rejected)
	}
}

func TestBulkhead_AcquireWaitsForSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})

	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		b.Release()
	}()

	start := time.Now()
	if err := b.Acquire(context.Background()); err != nil {
		t.Errorf("second Acquire() error = %v", err)
	}
	if waited := time.Since(start); waited < 10*time.Millisecond {
		t.Errorf("second Acquire returned after %v, want it to wait for release", waited)
	}
}

func TestBulkhead_MaxWait(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{
		MaxConcurrent: 1,
		MaxWait:       10 * time.Millisecond,
	})

	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}

	if err := b.Acquire(context.Background()); !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("second Acquire() error = %v, want ErrBulkheadFull", err)
	}
}

func TestBulkhead_ContextCancellation(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})

	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	if err := b.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire() error = %v, want context.Canceled", err)
	}
}

func TestBulkhead_CancelledBeforeAcquire(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire() error = %v, want context.Canceled", err)
	}
	if m := b.Metrics(); m.Active != 0 {
		t.Errorf("Active = %d, want 0", m.Active)
	}
}

func TestBulkhead_ReleaseWithoutAcquire(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})

	b.Release()

	if m := b.Metrics(); m.Available != 1 {
		t.Errorf("Available = %d, want 1", m.Available)
	}
}

func TestBulkhead_Execute(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})

	executed := false
	err := b.Execute(context.Background(), func(ctx context.Context) error {
		executed = true
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if !executed {
		t.Error("operation was not executed")
	}
	if m := b.Metrics(); m.Active != 0 {
		t.Errorf("Active after Execute = %d, want 0", m.Active)
	}
}

func TestBulkhead_ExecutePropagatesError(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})
	want := errors.New("boom")

	err := b.Execute(context.Background(), func(ctx context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Errorf("Execute() error = %v, want %v", err, want)
	}
}

func TestBulkhead_ConcurrencyNeverExceedsCap(t *testing.T) {
	const limit = 4
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: limit})

	var current, peak atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Execute(context.Background(), func(ctx context.Context) error {
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				current.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	if p := peak.Load(); p > limit {
		t.Errorf("observed %d concurrent operations, cap is %d", p, limit)
	}

	m := b.Metrics()
	if m.MaxActive > limit {
		t.Errorf("MaxActive = %d, cap is %d", m.MaxActive, limit)
	}
	if m.Admitted != 50 {
		t.Errorf("Admitted = %d, want 50", m.Admitted)
	}
	if m.Active != 0 {
		t.Errorf("Active = %d, want 0", m.Active)
	}
}
