package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestPool_RunsSubmittedTasks(t *testing.T) {
	p := NewPool(2, zerolog.Nop())
	defer p.Close()

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Do(context.Background(), func() { ran.Add(1) }); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := ran.Load(); got != 20 {
		t.Fatalf("expected 20 tasks to run, got %d", got)
	}
}

func TestPool_DoBlocksUntilTaskFinished(t *testing.T) {
	p := NewPool(1, zerolog.Nop())
	defer p.Close()

	finished := false
	err := p.Do(context.Background(), func() {
		time.Sleep(20 * time.Millisecond)
		finished = true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !finished {
		t.Fatal("Do returned before the task finished")
	}
}

func TestPool_DoRespectsContext(t *testing.T) {
	p := NewPool(1, zerolog.Nop())
	defer p.Close()

	release := make(chan struct{})
	defer close(release)

	// Occupy the single worker so a later wait can be interrupted.
	go p.Do(context.Background(), func() { <-release })
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Do(ctx, func() {})
	if err == nil {
		t.Fatal("expected context error")
	}
	if err != context.DeadlineExceeded {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPool_RecoversFromPanickingTask(t *testing.T) {
	p := NewPool(1, zerolog.Nop())
	defer p.Close()

	if err := p.Do(context.Background(), func() { panic("boom") }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The worker must survive the panic and keep serving tasks.
	ran := false
	if err := p.Do(context.Background(), func() { ran = true }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Fatal("worker did not survive a panicking task")
	}
}
