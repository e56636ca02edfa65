package reaction_test

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/g21-super-team/funny-movies-be/internal/counter"
	"github.com/g21-super-team/funny-movies-be/internal/reaction"
)

type fakeRecords struct {
	mu      sync.Mutex
	m       map[[2]int64]reaction.State
	finds   int
	upserts int
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{m: make(map[[2]int64]reaction.State)}
}

func (f *fakeRecords) Upsert(ctx context.Context, postID, userID int64, st reaction.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	f.m[[2]int64{postID, userID}] = st
	return nil
}

func (f *fakeRecords) Find(ctx context.Context, postID, userID int64) (reaction.State, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	st, ok := f.m[[2]int64{postID, userID}]
	if !ok {
		return reaction.Idle, false, nil
	}
	return st, true, nil
}

type fakePosts struct{ known map[int64]bool }

func (f *fakePosts) Exists(ctx context.Context, postID int64) (bool, error) {
	return f.known[postID], nil
}

type fakeFlusher struct {
	mu    sync.Mutex
	armed []int64
}

func (f *fakeFlusher) Arm(postID int64) {
	f.mu.Lock()
	f.armed = append(f.armed, postID)
	f.mu.Unlock()
}

func newService(t *testing.T, posts ...int64) (*reaction.Service, *counter.Memory, *fakeRecords, *fakeFlusher) {
	t.Helper()
	known := make(map[int64]bool)
	for _, id := range posts {
		known[id] = true
	}
	store := counter.NewMemory()
	records := newFakeRecords()
	flusher := &fakeFlusher{}
	svc := reaction.NewService(store, records, &fakePosts{known: known}, flusher, zap.NewNop())
	return svc, store, records, flusher
}

// Like, Like again (toggle-off), Unlike, Like: every step must return the
// exact counts.
func TestReactScenario(t *testing.T) {
	ctx := context.Background()
	svc, _, records, flusher := newService(t, 1)

	steps := []struct {
		req    reaction.State
		like   int64
		unlike int64
		state  reaction.State
	}{
		{reaction.Like, 1, 0, reaction.Like},
		{reaction.Like, 0, 0, reaction.Idle},
		{reaction.Unlike, 0, 1, reaction.Unlike},
		{reaction.Like, 1, 0, reaction.Like},
	}
	for i, s := range steps {
		res, err := svc.React(ctx, 1, 42, s.req)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if res.Like != s.like || res.Unlike != s.unlike || res.State != s.state {
			t.Fatalf("step %d: got like=%d unlike=%d state=%s, want like=%d unlike=%d state=%s",
				i, res.Like, res.Unlike, res.State, s.like, s.unlike, s.state)
		}
	}

	if records.upserts != len(steps) {
		t.Fatalf("expected %d durable upserts, got %d", len(steps), records.upserts)
	}
	if got := records.m[[2]int64{1, 42}]; got != reaction.Like {
		t.Fatalf("durable record = %s, want like", got)
	}
	if len(flusher.armed) != len(steps) {
		t.Fatalf("flush armed %d times, want %d", len(flusher.armed), len(steps))
	}
}

func TestReactUnknownPost(t *testing.T) {
	ctx := context.Background()
	svc, store, _, flusher := newService(t, 1)

	_, err := svc.React(ctx, 99, 42, reaction.Like)
	if err != reaction.ErrUnknownPost {
		t.Fatalf("got %v, want ErrUnknownPost", err)
	}
	like, unlike, _ := store.Counts(ctx, 99)
	if like != 0 || unlike != 0 {
		t.Fatalf("counters mutated for unknown post: %d/%d", like, unlike)
	}
	if len(flusher.armed) != 0 {
		t.Fatal("flush armed for rejected request")
	}
}

// A cache miss on the reaction state falls back to the durable record.
func TestReactDurableFallback(t *testing.T) {
	ctx := context.Background()
	svc, store, records, _ := newService(t, 1)

	// durable knows user 7 already unliked post 1; the cache only has the
	// counters (as after a partial cache loss)
	records.m[[2]int64{1, 7}] = reaction.Unlike
	if _, _, err := store.ApplyDelta(ctx, 1, reaction.Delta{Unlike: 1}); err != nil {
		t.Fatal(err)
	}

	res, err := svc.React(ctx, 1, 7, reaction.Like)
	if err != nil {
		t.Fatal(err)
	}
	if res.Like != 1 || res.Unlike != 0 || res.State != reaction.Like {
		t.Fatalf("got like=%d unlike=%d state=%s, want 1/0/like", res.Like, res.Unlike, res.State)
	}
	if records.finds == 0 {
		t.Fatal("durable tier was never consulted")
	}
}

func TestStatesFor(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newService(t, 1, 2, 3)

	if err := store.SetReaction(ctx, 1, 5, reaction.Like); err != nil {
		t.Fatal(err)
	}
	if err := store.SetReaction(ctx, 3, 5, reaction.Unlike); err != nil {
		t.Fatal(err)
	}

	states, err := svc.StatesFor(ctx, []int64{1, 2, 3}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if states[1] != reaction.Like || states[2] != reaction.Idle || states[3] != reaction.Unlike {
		t.Fatalf("unexpected states: %v", states)
	}
}
