package reaction

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/g21-super-team/funny-movies-be/internal/metrics"
)

var ErrUnknownPost = errors.New("unknown post")

// CounterStore is the fast cache holding live counters and per-user
// reaction state. Implementations must make each operation atomic per key.
type CounterStore interface {
	ApplyDelta(ctx context.Context, postID int64, d Delta) (like, unlike int64, err error)
	Counts(ctx context.Context, postID int64) (like, unlike int64, err error)
	GetReaction(ctx context.Context, postID, userID int64) (State, bool, error)
	SetReaction(ctx context.Context, postID, userID int64, st State) error
}

// RecordStore is the durable per-user reaction archive, upserted on every
// accepted reaction and replayed by the reconciliation job.
type RecordStore interface {
	Upsert(ctx context.Context, postID, userID int64, st State) error
	Find(ctx context.Context, postID, userID int64) (State, bool, error)
}

// PostChecker rejects reactions to posts that do not exist.
type PostChecker interface {
	Exists(ctx context.Context, postID int64) (bool, error)
}

// FlushScheduler defers the durable counter write for a post.
type FlushScheduler interface {
	Arm(postID int64)
}

// Result is what a mutating reaction call returns: both aggregate counts
// plus the caller's new state.
type Result struct {
	PostID int64 `json:"post_id,string"`
	Like   int64 `json:"like_count"`
	Unlike int64 `json:"unlike_count"`
	State  State `json:"reaction_state"`
}

type Service struct {
	store   CounterStore
	records RecordStore
	posts   PostChecker
	flusher FlushScheduler
	log     *zap.Logger
}

func NewService(store CounterStore, records RecordStore, posts PostChecker, flusher FlushScheduler, log *zap.Logger) *Service {
	return &Service{store: store, records: records, posts: posts, flusher: flusher, log: log}
}

// React applies one like/unlike request. The cache is mutated first and is
// the user-visible truth; the durable upsert and the debounced counter
// flush lag behind it. Durable failures after the cache write are logged,
// never rolled back.
func (s *Service) React(ctx context.Context, postID, userID int64, requested State) (Result, error) {
	ok, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return Result{}, fmt.Errorf("check post: %w", err)
	}
	if !ok {
		return Result{}, ErrUnknownPost
	}

	current, err := s.currentState(ctx, postID, userID)
	if err != nil {
		return Result{}, err
	}

	next, d, err := Transition(current, requested)
	if err != nil {
		return Result{}, err
	}

	like, unlike, err := s.store.ApplyDelta(ctx, postID, d)
	if err != nil {
		return Result{}, fmt.Errorf("apply counter delta: %w", err)
	}
	if err := s.store.SetReaction(ctx, postID, userID, next); err != nil {
		// counters already moved; reconciliation heals the stale state key
		s.log.Warn("cache state write failed",
			zap.Int64("post_id", postID), zap.Int64("user_id", userID), zap.Error(err))
	}
	if err := s.records.Upsert(ctx, postID, userID, next); err != nil {
		s.log.Warn("reaction record upsert failed, durable store lags cache",
			zap.Int64("post_id", postID), zap.Int64("user_id", userID), zap.Error(err))
	}

	s.flusher.Arm(postID)
	metrics.Reactions.WithLabelValues(string(requested)).Inc()

	return Result{PostID: postID, Like: like, Unlike: unlike, State: next}, nil
}

// currentState is a two-tier read: the cache answers first; on a miss the
// durable record is consulted and backfilled. Absence everywhere is Idle,
// not an error.
func (s *Service) currentState(ctx context.Context, postID, userID int64) (State, error) {
	st, ok, err := s.store.GetReaction(ctx, postID, userID)
	if err != nil {
		return Idle, fmt.Errorf("read cached reaction: %w", err)
	}
	if ok {
		return st, nil
	}

	st, ok, err = s.records.Find(ctx, postID, userID)
	if err != nil {
		return Idle, fmt.Errorf("read reaction record: %w", err)
	}
	if !ok {
		return Idle, nil
	}
	if err := s.store.SetReaction(ctx, postID, userID, st); err != nil {
		s.log.Warn("reaction backfill failed",
			zap.Int64("post_id", postID), zap.Int64("user_id", userID), zap.Error(err))
	}
	return st, nil
}

// Counts returns the live aggregate counters for a post.
func (s *Service) Counts(ctx context.Context, postID int64) (like, unlike int64, err error) {
	return s.store.Counts(ctx, postID)
}

// StatesFor returns the caller's cached reaction state for each post.
// Cache misses read as Idle; the durable tier is not consulted here
// because the list path must stay cheap.
func (s *Service) StatesFor(ctx context.Context, postIDs []int64, userID int64) (map[int64]State, error) {
	out := make(map[int64]State, len(postIDs))
	for _, id := range postIDs {
		st, _, err := s.store.GetReaction(ctx, id, userID)
		if err != nil {
			return nil, fmt.Errorf("read cached reaction: %w", err)
		}
		out[id] = st
	}
	return out, nil
}
