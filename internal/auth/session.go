package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps one Redis hash per live token.
type SessionStore struct {
	Client *redis.Client
	Prefix string // e.g. "token:fm:"
	TTL    time.Duration
}

func (s *SessionStore) key(token string) string { return s.Prefix + token }

func (s *SessionStore) Put(ctx context.Context, token string, userID int64) error {
	if token == "" {
		return errors.New("empty token")
	}
	key := s.key(token)
	if err := s.Client.HSet(ctx, key, map[string]string{
		"userId":  strconv.FormatInt(userID, 10),
		"loginAt": strconv.FormatInt(time.Now().Unix(), 10),
	}).Err(); err != nil {
		return err
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return s.Client.Expire(ctx, key, ttl).Err()
}

// Get reports whether the token has a live session and which user owns it.
func (s *SessionStore) Get(ctx context.Context, token string) (int64, bool, error) {
	if token == "" {
		return 0, false, nil
	}
	v, err := s.Client.HGet(ctx, s.key(token), "userId").Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	uid, err := strconv.ParseInt(v, 10, 64)
	if err != nil || uid <= 0 {
		return 0, false, nil
	}
	return uid, true, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.Client.Del(ctx, s.key(token)).Err()
}
