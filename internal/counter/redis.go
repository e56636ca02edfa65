// Package counter implements the fast counter store: a low-latency
// key-value cache holding live like/unlike totals per post and the
// per-(post,user) reaction state. All mutations are single-key atomic
// operations; that atomicity is the only synchronization the reaction
// path relies on.
package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/g21-super-team/funny-movies-be/internal/reaction"
)

type RedisOptions struct {
	Addr     string
	Password string
	Database int
	Timeout  time.Duration
}

// Redis is the production counter store.
type Redis struct {
	cli *redis.Client
}

func NewRedis(opt RedisOptions) (*Redis, error) {
	if opt.Addr == "" {
		return nil, fmt.Errorf("redis: missing addr")
	}
	if opt.Timeout == 0 {
		opt.Timeout = 5 * time.Second
	}
	cli := redis.NewClient(&redis.Options{
		Addr:         opt.Addr,
		Password:     opt.Password,
		DB:           opt.Database,
		DialTimeout:  opt.Timeout,
		ReadTimeout:  opt.Timeout,
		WriteTimeout: opt.Timeout,
	})
	return &Redis{cli: cli}, nil
}

func (s *Redis) Close() error { return s.cli.Close() }

// Client exposes the underlying connection for collaborators that share
// the same Redis (auth sessions).
func (s *Redis) Client() *redis.Client { return s.cli }

/*
Keys:
  - fm:like:{postID}            like counter
  - fm:unlike:{postID}          unlike counter
  - fm:react:{postID}:{userID}  reaction state
*/
func likeKey(postID int64) string   { return fmt.Sprintf("fm:like:%d", postID) }
func unlikeKey(postID int64) string { return fmt.Sprintf("fm:unlike:%d", postID) }
func reactKey(postID, userID int64) string {
	return fmt.Sprintf("fm:react:%d:%d", postID, userID)
}

// ApplyDelta adjusts both counters of a post and returns their new values.
// Each non-zero component is one atomic INCRBY; the two touch disjoint
// keys, so ordering between them does not matter.
func (s *Redis) ApplyDelta(ctx context.Context, postID int64, d reaction.Delta) (like, unlike int64, err error) {
	like, err = s.adjust(ctx, likeKey(postID), d.Like)
	if err != nil {
		return 0, 0, err
	}
	unlike, err = s.adjust(ctx, unlikeKey(postID), d.Unlike)
	if err != nil {
		return 0, 0, err
	}
	return like, unlike, nil
}

func (s *Redis) adjust(ctx context.Context, key string, delta int64) (int64, error) {
	if delta == 0 {
		v, err := s.cli.Get(ctx, key).Int64()
		if err == redis.Nil {
			return 0, nil
		}
		return v, err
	}
	return s.cli.IncrBy(ctx, key, delta).Result()
}

// Counts returns the live counters for a post. Missing keys read as zero.
func (s *Redis) Counts(ctx context.Context, postID int64) (like, unlike int64, err error) {
	like, err = s.adjust(ctx, likeKey(postID), 0)
	if err != nil {
		return 0, 0, err
	}
	unlike, err = s.adjust(ctx, unlikeKey(postID), 0)
	if err != nil {
		return 0, 0, err
	}
	return like, unlike, nil
}

// GetReaction returns the cached reaction state. ok is false when the key
// is absent, which callers treat as Idle (or fall back to the durable
// record).
func (s *Redis) GetReaction(ctx context.Context, postID, userID int64) (reaction.State, bool, error) {
	v, err := s.cli.Get(ctx, reactKey(postID, userID)).Result()
	if err == redis.Nil {
		return reaction.Idle, false, nil
	}
	if err != nil {
		return reaction.Idle, false, err
	}
	st, err := reaction.ParseState(v)
	if err != nil {
		return reaction.Idle, false, err
	}
	return st, true, nil
}

func (s *Redis) SetReaction(ctx context.Context, postID, userID int64, st reaction.State) error {
	return s.cli.Set(ctx, reactKey(postID, userID), string(st), 0).Err()
}
