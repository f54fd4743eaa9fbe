package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/stipend/internal/domain/model"
)

func task(key string) Task {
	return Task{Key: key, Trip: model.TripRequest{Origin: "Seoul, KR", Destination: key}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if err := q.Enqueue(ctx, task("a")); err != nil {
		t.Errorf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.Key != "a" {
		t.Errorf("expected task a, got %q", got.Key)
	}
	if got.Trip.Origin != "Seoul, KR" {
		t.Errorf("trip payload lost: %+v", got.Trip)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if err := q.Enqueue(ctx, task("a")); err != nil {
		t.Fatalf("enqueue a: %v", err)
	}
	if err := q.Enqueue(ctx, task("b")); err != nil {
		t.Fatalf("enqueue b: %v", err)
	}

	if err := q.Enqueue(ctx, task("c")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_FIFO(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 5; i++ {
		if err := q.Enqueue(ctx, task(fmt.Sprintf("t%d", i))); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	ch := q.Dequeue(ctx)
	for i := 0; i < 5; i++ {
		select {
		case got := <-ch:
			if want := fmt.Sprintf("t%d", i); got.Key != want {
				t.Errorf("position %d: expected %s, got %s", i, want, got.Key)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for task")
		}
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	_ = q.Enqueue(context.Background(), task("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := q.Enqueue(ctx, task("b"))
	if err == nil {
		t.Error("expected enqueue on a full queue with a cancelled context to fail")
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	_ = q.Enqueue(ctx, task("a"))
	_ = q.Enqueue(ctx, task("b"))

	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if err := q.Enqueue(ctx, task("c")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// Queued tasks are still drained before the channel closes.
	var drained []string
	timeout := time.After(time.Second)
	ch := q.Dequeue(ctx)
	for {
		select {
		case got, ok := <-ch:
			if !ok {
				if len(drained) != 2 {
					t.Errorf("expected 2 drained tasks, got %v", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained = append(drained, got.Key)
		case <-timeout:
			t.Fatal("expected dequeue channel to close")
		}
	}
}
