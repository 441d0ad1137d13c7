package utils

import (
	"context"
	"testing"

	"go.uber.org/atomic"
	"go.viam.com/test"
)

func TestStoppableWorkers(t *testing.T) {
	var stopped atomic.Int32
	worker := func(ctx context.Context) {
		<-ctx.Done()
		stopped.Add(1)
	}

	sw := NewStoppableWorkers(worker, worker)
	sw.AddWorkers(worker)
	test.That(t, sw.Context().Err(), test.ShouldBeNil)

	sw.Stop()
	test.That(t, stopped.Load(), test.ShouldEqual, int32(3))
	test.That(t, sw.Context().Err(), test.ShouldNotBeNil)

	// no new workers start after Stop
	sw.AddWorkers(worker)
	sw.Stop()
	test.That(t, stopped.Load(), test.ShouldEqual, int32(3))
}

func TestStoppableWorkersParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	sw := NewStoppableWorkersWithContext(ctx, func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})
	cancel()
	<-done
	sw.Stop()
}
