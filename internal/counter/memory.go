package counter

import (
	"context"
	"fmt"
	"sync"

	"github.com/g21-super-team/funny-movies-be/internal/reaction"
)

// Memory is an in-process counter store with the same contract as Redis.
// It backs tests and redis-less development runs.
type Memory struct {
	mu        sync.Mutex
	counts    map[string]int64
	reactions map[string]reaction.State
}

func NewMemory() *Memory {
	return &Memory{
		counts:    make(map[string]int64),
		reactions: make(map[string]reaction.State),
	}
}

func (m *Memory) ApplyDelta(ctx context.Context, postID int64, d reaction.Delta) (like, unlike int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[likeKey(postID)] += d.Like
	m.counts[unlikeKey(postID)] += d.Unlike
	return m.counts[likeKey(postID)], m.counts[unlikeKey(postID)], nil
}

func (m *Memory) Counts(ctx context.Context, postID int64) (like, unlike int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[likeKey(postID)], m.counts[unlikeKey(postID)], nil
}

func (m *Memory) GetReaction(ctx context.Context, postID, userID int64) (reaction.State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.reactions[fmt.Sprintf("%d:%d", postID, userID)]
	if !ok {
		return reaction.Idle, false, nil
	}
	return st, true, nil
}

func (m *Memory) SetReaction(ctx context.Context, postID, userID int64, st reaction.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reactions[fmt.Sprintf("%d:%d", postID, userID)] = st
	return nil
}
