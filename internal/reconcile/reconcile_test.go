package reconcile

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/g21-super-team/funny-movies-be/internal/counter"
	"github.com/g21-super-team/funny-movies-be/internal/reaction"
)

type fakeSource struct {
	recs []reaction.Record
	err  error
}

func (f *fakeSource) ListAll(ctx context.Context) ([]reaction.Record, error) {
	return f.recs, f.err
}

func snapshot(t *testing.T, store *counter.Memory, recs []reaction.Record) map[[2]int64]reaction.State {
	t.Helper()
	out := make(map[[2]int64]reaction.State)
	for _, r := range recs {
		st, _, err := store.GetReaction(context.Background(), r.PostID, r.UserID)
		if err != nil {
			t.Fatal(err)
		}
		out[[2]int64{r.PostID, r.UserID}] = st
	}
	return out
}

func TestRunOnceReplaysRecords(t *testing.T) {
	recs := []reaction.Record{
		{PostID: 1, UserID: 10, State: reaction.Like},
		{PostID: 1, UserID: 11, State: reaction.Unlike},
		{PostID: 2, UserID: 10, State: reaction.Idle},
	}
	store := counter.NewMemory()
	// stale cache entry that the durable truth must overwrite
	if err := store.SetReaction(context.Background(), 1, 10, reaction.Unlike); err != nil {
		t.Fatal(err)
	}

	j := New(&fakeSource{recs: recs}, store, zap.NewNop(), Options{})
	if err := j.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := snapshot(t, store, recs)
	want := map[[2]int64]reaction.State{
		{1, 10}: reaction.Like,
		{1, 11}: reaction.Unlike,
		{2, 10}: reaction.Idle,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("cache after reconcile = %v, want %v", got, want)
	}
}

// Two runs with no intervening writes leave identical cache contents.
func TestRunOnceIdempotent(t *testing.T) {
	recs := []reaction.Record{
		{PostID: 5, UserID: 1, State: reaction.Like},
		{PostID: 5, UserID: 2, State: reaction.Unlike},
	}
	store := counter.NewMemory()
	j := New(&fakeSource{recs: recs}, store, zap.NewNop(), Options{})

	if err := j.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	first := snapshot(t, store, recs)

	if err := j.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	second := snapshot(t, store, recs)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reconcile is not idempotent: %v then %v", first, second)
	}
}

func TestRunOnceListFailure(t *testing.T) {
	j := New(&fakeSource{err: errors.New("db down")}, counter.NewMemory(), zap.NewNop(), Options{})
	if err := j.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error when listing records fails")
	}
}

type flakySink struct {
	mu    sync.Mutex
	wrote []int64
}

func (f *flakySink) SetReaction(ctx context.Context, postID, userID int64, st reaction.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if userID == 2 {
		return errors.New("write failed")
	}
	f.wrote = append(f.wrote, userID)
	return nil
}

// One bad key must not abort the rest of the run.
func TestRunOnceContinuesPastWriteFailure(t *testing.T) {
	recs := []reaction.Record{
		{PostID: 1, UserID: 1, State: reaction.Like},
		{PostID: 1, UserID: 2, State: reaction.Like},
		{PostID: 1, UserID: 3, State: reaction.Unlike},
	}
	sink := &flakySink{}
	j := New(&fakeSource{recs: recs}, sink, zap.NewNop(), Options{})
	if err := j.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(sink.wrote) != 2 {
		t.Fatalf("expected 2 successful writes, got %d", len(sink.wrote))
	}
}
