package semaphore

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	t.Parallel()

	sem := New(5)
	if sem == nil {
		t.Fatal("New() returned nil")
	}
	if cap(sem.slots) != 5 {
		t.Errorf("capacity = %d; want 5", cap(sem.slots))
	}
	if len(sem.slots) != 5 {
		t.Errorf("initial length = %d; want 5", len(sem.slots))
	}
}

func TestTryAcquire(t *testing.T) {
	t.Parallel()

	sem := New(2)

	if !sem.TryAcquire() {
		t.Fatal("first TryAcquire() = false, want true")
	}
	if !sem.TryAcquire() {
		t.Fatal("second TryAcquire() = false, want true")
	}
	if sem.TryAcquire() {
		t.Fatal("TryAcquire() on exhausted semaphore = true, want false")
	}

	sem.Release()
	if !sem.TryAcquire() {
		t.Error("TryAcquire() after Release() = false, want true")
	}
}

func TestAcquireContextCancellation(t *testing.T) {
	t.Parallel()

	sem := New(1)
	ctx, cancel := context.WithCancel(context.Background())

	if err := sem.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}

	cancel()

	if err := sem.Acquire(ctx); err != context.Canceled {
		t.Errorf("error = %v; want context.Canceled", err)
	}
}

func TestAcquireWithDeadline(t *testing.T) {
	t.Parallel()

	sem := New(1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := sem.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire() failed: %v", err)
	}

	if err := sem.Acquire(ctx); err != context.DeadlineExceeded {
		t.Errorf("error = %v; want context.DeadlineExceeded", err)
	}
}

func TestNilSemaphore(t *testing.T) {
	t.Parallel()

	var sem *ConnSemaphore

	if !sem.TryAcquire() {
		t.Error("TryAcquire() on nil semaphore = false, want true")
	}
	if err := sem.Acquire(context.Background()); err != nil {
		t.Errorf("Acquire() on nil semaphore failed: %v", err)
	}
	sem.Release()
}

func TestConcurrentAcquireRelease(t *testing.T) {
	t.Parallel()

	const (
		capacity   = 10
		goroutines = 100
		iterations = 50
	)

	sem := New(capacity)
	ctx := context.Background()

	var wg sync.WaitGroup
	errors := make(chan error, goroutines*iterations)

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				if err := sem.Acquire(ctx); err != nil {
					errors <- err
					return
				}
				time.Sleep(time.Microsecond)
				sem.Release()
			}
		}()
	}

	wg.Wait()
	close(errors)

	for err := range errors {
		t.Errorf("concurrent operation failed: %v", err)
	}

	if len(sem.slots) != capacity {
		t.Errorf("final len = %d; want %d", len(sem.slots), capacity)
	}
}
