//go:build !integration

package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_RunsSubmittedTasks(t *testing.T) {
	p := NewPool("test", 2, nil)
	p.Start(context.Background())
	defer p.Stop()

	var wg sync.WaitGroup
	var ran int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		err := p.Submit(func(ctx context.Context) error {
			defer wg.Done()
			atomic.AddInt32(&ran, 1)
			return nil
		})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	wg.Wait()
	if got := atomic.LoadInt32(&ran); got != 5 {
		t.Errorf("expected 5 tasks to run, got %d", got)
	}
}

func TestPool_DropsWhenSaturated(t *testing.T) {
	p := NewPool("test", 1, nil)
	// not started: the buffer (workers*4) fills and the next submit is dropped
	for i := 0; i < 4; i++ {
		if err := p.Submit(func(ctx context.Context) error { return nil }); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if err := p.Submit(func(ctx context.Context) error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestPool_SurvivesPanicsAndErrors(t *testing.T) {
	p := NewPool("test", 1, nil)
	p.Start(context.Background())
	defer p.Stop()

	done := make(chan struct{})
	tasks := []Task{
		func(ctx context.Context) error { panic("boom") },
		func(ctx context.Context) error { return errors.New("task failed") },
		func(ctx context.Context) error { close(done); return nil },
	}
	for _, task := range tasks {
		if err := p.Submit(task); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not recover from a panicking task")
	}
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := NewPool("test", 1, nil)
	p.Start(context.Background())
	p.Stop()
	p.Stop()

	if err := p.Submit(func(ctx context.Context) error { return nil }); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
	if err := p.Submit(nil); err == nil {
		t.Error("expected an error for a nil task")
	}
}
