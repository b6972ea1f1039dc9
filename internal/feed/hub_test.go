package feed

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHub_PublishAndUnsubscribe(t *testing.T) {
	h := NewHub[int](false)
	var got []int
	sub := h.Subscribe(func(v int) { got = append(got, v) })

	h.Publish(1)
	h.Publish(2)
	sub.Unsubscribe()
	sub.Unsubscribe()
	h.Publish(3)

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("got %v, want [1 2]", got)
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
}

func TestHub_Replay(t *testing.T) {
	h := NewHub[string](true)
	h.Publish("alice")

	var got string
	sub := h.Subscribe(func(v string) { got = v })
	defer sub.Unsubscribe()

	if got != "alice" {
		t.Errorf("replayed value = %q, want alice", got)
	}
}

func TestHub_NoReplayWithoutValue(t *testing.T) {
	h := NewHub[string](true)
	calls := 0
	sub := h.Subscribe(func(string) { calls++ })
	defer sub.Unsubscribe()
	if calls != 0 {
		t.Errorf("calls = %d before any publish, want 0", calls)
	}
}

func TestHub_Close(t *testing.T) {
	h := NewHub[int](true)
	calls := 0
	h.Subscribe(func(int) { calls++ })
	h.Close()
	h.Publish(1)

	if calls != 0 {
		t.Errorf("calls = %d after Close, want 0", calls)
	}
	late := h.Subscribe(func(int) { calls++ })
	late.Unsubscribe()
	if calls != 0 {
		t.Error("subscribing to a closed hub should be inert")
	}
}

func TestHub_ConcurrentPublish(t *testing.T) {
	h := NewHub[int](false)
	var mu sync.Mutex
	total := 0
	sub := h.Subscribe(func(v int) {
		mu.Lock()
		total += v
		mu.Unlock()
	})
	defer sub.Unsubscribe()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Publish(1)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if total != 50 {
		t.Errorf("total = %d, want 50", total)
	}
}

func TestSubscription_NilSafe(t *testing.T) {
	var s *Subscription
	s.Unsubscribe()
}

func TestHub_UnsubscribeWaitsForRunningCallback(t *testing.T) {
	h := NewHub[int](false)
	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	running, calls := false, 0
	sub := h.Subscribe(func(int) {
		mu.Lock()
		running = true
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(entered)
			<-release
		}
		mu.Lock()
		running = false
		mu.Unlock()
	})

	published := make(chan struct{})
	go func() {
		defer close(published)
		h.Publish(1)
	}()
	<-entered

	unsubscribed := make(chan struct{})
	go func() {
		defer close(unsubscribed)
		sub.Unsubscribe()
	}()
	select {
	case <-unsubscribed:
		t.Fatal("Unsubscribe returned while the callback was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-unsubscribed
	mu.Lock()
	if running {
		t.Error("callback still running after Unsubscribe returned")
	}
	mu.Unlock()
	<-published

	h.Publish(2)
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestHub_CallbacksDoNotOverlap(t *testing.T) {
	h := NewHub[int](false)
	var inside, overlaps atomic.Int32
	sub := h.Subscribe(func(int) {
		if inside.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(time.Millisecond)
		inside.Add(-1)
	})
	defer sub.Unsubscribe()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Publish(1)
		}()
	}
	wg.Wait()
	if n := overlaps.Load(); n != 0 {
		t.Errorf("%d overlapping callback calls", n)
	}
}

func TestHub_ReplayPrecedesConcurrentPublish(t *testing.T) {
	h := NewHub[int](true)
	h.Publish(1)

	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var got []int
	subscribed := make(chan *Subscription, 1)
	go func() {
		subscribed <- h.Subscribe(func(v int) {
			if v == 1 {
				close(entered)
				<-release
			}
			mu.Lock()
			got = append(got, v)
			mu.Unlock()
		})
	}()
	<-entered

	published := make(chan struct{})
	go func() {
		defer close(published)
		h.Publish(2)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	<-published
	sub := <-subscribed
	defer sub.Unsubscribe()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("got %v, want [1 2]", got)
	}
}
