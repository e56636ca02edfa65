package flush

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeCounts struct {
	mu     sync.Mutex
	like   int64
	unlike int64
	reads  int
}

func (f *fakeCounts) set(like, unlike int64) {
	f.mu.Lock()
	f.like, f.unlike = like, unlike
	f.mu.Unlock()
}

func (f *fakeCounts) Counts(ctx context.Context, postID int64) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.like, f.unlike, nil
}

type write struct {
	postID, like, unlike int64
}

type fakePosts struct {
	mu     sync.Mutex
	writes []write
	err    error
}

func (f *fakePosts) UpdateCounters(ctx context.Context, postID, like, unlike int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, write{postID, like, unlike})
	return nil
}

func (f *fakePosts) all() []write {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]write, len(f.writes))
	copy(out, f.writes)
	return out
}

// A burst of arms within the window collapses into one write carrying the
// counters as of fire time, not arm time.
func TestDebounceCoalesces(t *testing.T) {
	src := &fakeCounts{}
	posts := &fakePosts{}
	f := New(src, posts, zap.NewNop(), Options{Delay: 50 * time.Millisecond})
	defer f.Stop()

	for i := 1; i <= 3; i++ {
		src.set(int64(i), int64(i*10))
		f.Arm(7)
		time.Sleep(15 * time.Millisecond)
	}

	time.Sleep(120 * time.Millisecond)

	got := posts.all()
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 durable write, got %d", len(got))
	}
	if got[0] != (write{7, 3, 30}) {
		t.Fatalf("write carried %+v, want final counters {7 3 30}", got[0])
	}
}

// Each arm restarts the delay, so the write lands only after a quiet
// period.
func TestArmRestartsDelay(t *testing.T) {
	src := &fakeCounts{}
	posts := &fakePosts{}
	f := New(src, posts, zap.NewNop(), Options{Delay: 60 * time.Millisecond})
	defer f.Stop()

	f.Arm(1)
	time.Sleep(40 * time.Millisecond)
	f.Arm(1) // inside the window: restarts
	time.Sleep(40 * time.Millisecond)

	if n := len(posts.all()); n != 0 {
		t.Fatalf("write fired before the quiet period elapsed (%d writes)", n)
	}
	time.Sleep(60 * time.Millisecond)
	if n := len(posts.all()); n != 1 {
		t.Fatalf("expected 1 write after quiet period, got %d", n)
	}
}

func TestTimersArePerPost(t *testing.T) {
	src := &fakeCounts{}
	posts := &fakePosts{}
	f := New(src, posts, zap.NewNop(), Options{Delay: 30 * time.Millisecond})
	defer f.Stop()

	f.Arm(1)
	f.Arm(2)
	time.Sleep(100 * time.Millisecond)

	got := posts.all()
	if len(got) != 2 {
		t.Fatalf("expected one write per post, got %d", len(got))
	}
}

func TestStopCancelsPending(t *testing.T) {
	src := &fakeCounts{}
	posts := &fakePosts{}
	f := New(src, posts, zap.NewNop(), Options{Delay: 30 * time.Millisecond})

	f.Arm(1)
	f.Stop()
	f.Arm(2) // no-op after Stop

	time.Sleep(80 * time.Millisecond)
	if n := len(posts.all()); n != 0 {
		t.Fatalf("expected no writes after Stop, got %d", n)
	}
}

// A failed durable write is not retried; the next arm owns the recovery.
func TestWriteFailureNotRetried(t *testing.T) {
	src := &fakeCounts{}
	posts := &fakePosts{err: errors.New("db down")}
	f := New(src, posts, zap.NewNop(), Options{Delay: 20 * time.Millisecond})
	defer f.Stop()

	f.Arm(1)
	time.Sleep(100 * time.Millisecond)

	src.mu.Lock()
	reads := src.reads
	src.mu.Unlock()
	if reads != 1 {
		t.Fatalf("expected a single flush attempt, got %d reads", reads)
	}
}
