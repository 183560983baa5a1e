package eventloop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDrainOrder(t *testing.T) {
	l := New()
	var got []int
	l.Post(func() {
		got = append(got, 1)
		l.Post(func() { got = append(got, 3) })
	})
	l.Post(func() { got = append(got, 2) })

	if n := l.Drain(); n != 3 {
		t.Errorf("Drain() = %d, want 3", n)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSettleWaitsForBackgroundWork(t *testing.T) {
	l := New()
	var ran atomic.Bool
	l.Go(func() {
		time.Sleep(20 * time.Millisecond)
		l.Post(func() { ran.Store(true) })
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Settle(ctx); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if !ran.Load() {
		t.Error("posted callback did not run")
	}
}

func TestRunAndClose(t *testing.T) {
	l := New()
	done := make(chan struct{})
	go func() {
		l.Run(context.Background())
		close(done)
	}()

	result := make(chan int, 1)
	l.Post(func() { result <- 42 })
	select {
	case v := <-result:
		if v != 42 {
			t.Errorf("got %d", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never ran")
	}

	l.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
	if l.Post(func() {}) {
		t.Error("Post() after Close = true, want false")
	}
}
