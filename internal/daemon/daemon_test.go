package daemon

import (
	"context"
	"testing"
	"time"
)

type stubScanner struct {
	run func(ctx context.Context)
}

func (s stubScanner) Run(ctx context.Context) { s.run(ctx) }

func (s stubScanner) ScanRange(_ context.Context, _, _ uint64) error { return nil }

type stubAuditor struct {
	run func(ctx context.Context)
}

func (a stubAuditor) Run(ctx context.Context) { a.run(ctx) }

func (a stubAuditor) Cycle(_ context.Context) error { return nil }

func blockUntilDone(ctx context.Context) { <-ctx.Done() }

func TestDaemon_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	d := NewDaemon(stubScanner{run: blockUntilDone}, stubAuditor{run: blockUntilDone})

	done := make(chan struct{})
	go func() {
		d.Execute(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop after context cancellation")
	}
}

func TestDaemon_PanickedLoopDoesNotTakeProcessDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	panicked := make(chan struct{}, 16)
	d := NewDaemon(
		stubScanner{run: func(_ context.Context) {
			panicked <- struct{}{}
			panic("scanner blew up")
		}},
		stubAuditor{run: blockUntilDone},
	)

	done := make(chan struct{})
	go func() {
		d.Execute(ctx)
		close(done)
	}()

	select {
	case <-panicked:
	case <-time.After(5 * time.Second):
		t.Fatal("scanner loop never ran")
	}

	cancel()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop after loop panic and cancellation")
	}
}
