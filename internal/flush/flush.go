// Package flush debounces durable counter writes: a burst of reactions on
// one post collapses into a single write that fires after a quiet period.
package flush

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/g21-super-team/funny-movies-be/internal/metrics"
)

// CounterSource reads the live counters. The read happens at fire time,
// not at arm time, so late-arriving reactions within the window are
// captured by the same write.
type CounterSource interface {
	Counts(ctx context.Context, postID int64) (like, unlike int64, err error)
}

// PostStore receives the durable counter snapshot (last-writer-wins).
type PostStore interface {
	UpdateCounters(ctx context.Context, postID, like, unlike int64) error
}

type Options struct {
	Delay     time.Duration // quiet period before the durable write
	OpTimeout time.Duration
}

// Flusher owns one pending timer per post. Arming a post cancels and
// replaces any pending timer for it, restarting the delay.
type Flusher struct {
	src   CounterSource
	posts PostStore
	log   *zap.Logger

	delay     time.Duration
	opTimeout time.Duration

	mu      sync.Mutex
	timers  map[int64]*time.Timer
	stopped bool
}

func New(src CounterSource, posts PostStore, log *zap.Logger, opt Options) *Flusher {
	if opt.Delay <= 0 {
		opt.Delay = 3 * time.Second
	}
	if opt.OpTimeout <= 0 {
		opt.OpTimeout = 3 * time.Second
	}
	return &Flusher{
		src:       src,
		posts:     posts,
		log:       log,
		delay:     opt.Delay,
		opTimeout: opt.OpTimeout,
		timers:    make(map[int64]*time.Timer),
	}
}

// Arm schedules (or reschedules) the durable write for a post.
func (f *Flusher) Arm(postID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	if t, ok := f.timers[postID]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(f.delay, func() { f.fire(postID, t) })
	f.timers[postID] = t
}

func (f *Flusher) fire(postID int64, self *time.Timer) {
	f.mu.Lock()
	// a re-arm may have replaced us between firing and locking; only the
	// owner clears the slot
	if f.timers[postID] == self {
		delete(f.timers, postID)
	}
	f.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), f.opTimeout)
	defer cancel()

	like, unlike, err := f.src.Counts(ctx, postID)
	if err != nil {
		metrics.FlushFail.Inc()
		f.log.Warn("flush: reading counters failed", zap.Int64("post_id", postID), zap.Error(err))
		return
	}
	if err := f.posts.UpdateCounters(ctx, postID, like, unlike); err != nil {
		// no retry: the cache stays authoritative until the next flush or
		// reconciliation cycle overwrites this
		metrics.FlushFail.Inc()
		f.log.Warn("flush: durable write failed",
			zap.Int64("post_id", postID),
			zap.Int64("like", like),
			zap.Int64("unlike", unlike),
			zap.Error(err))
		return
	}
	metrics.FlushOK.Inc()
}

// Stop cancels every pending timer. Further Arm calls are no-ops.
func (f *Flusher) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	for id, t := range f.timers {
		t.Stop()
		delete(f.timers, id)
	}
}
