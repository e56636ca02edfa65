// Package reconcile rebuilds the counter cache's per-user reaction state
// from the durable records. It is the recovery path after a cache loss or
// restart and the drift corrector in steady state.
package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/g21-super-team/funny-movies-be/internal/metrics"
	"github.com/g21-super-team/funny-movies-be/internal/reaction"
)

// RecordSource lists every durable reaction record.
type RecordSource interface {
	ListAll(ctx context.Context) ([]reaction.Record, error)
}

// StateSink receives the replayed per-key states.
type StateSink interface {
	SetReaction(ctx context.Context, postID, userID int64, st reaction.State) error
}

type Options struct {
	Interval  time.Duration
	OpTimeout time.Duration
}

type Job struct {
	records RecordSource
	cache   StateSink
	log     *zap.Logger

	interval  time.Duration
	opTimeout time.Duration
	stop      chan struct{}
}

func New(records RecordSource, cache StateSink, log *zap.Logger, opt Options) *Job {
	if opt.Interval <= 0 {
		opt.Interval = 2 * time.Hour
	}
	if opt.OpTimeout <= 0 {
		opt.OpTimeout = 60 * time.Second
	}
	return &Job{
		records:   records,
		cache:     cache,
		log:       log,
		interval:  opt.Interval,
		opTimeout: opt.OpTimeout,
		stop:      make(chan struct{}),
	}
}

func (j *Job) Start() {
	go func() {
		t := time.NewTicker(j.interval)
		defer t.Stop()
		for {
			select {
			case <-j.stop:
				return
			case <-t.C:
				if err := j.RunOnce(context.Background()); err != nil {
					j.log.Warn("reconcile run failed", zap.Error(err))
				}
			}
		}
	}()
}

func (j *Job) Stop() { close(j.stop) }

// RunOnce replays every durable record into the cache, overwriting
// whatever is there. Per-key last-write-wins; aggregate counters are not
// touched (they are durable via the flush path). Idempotent.
func (j *Job) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.opTimeout)
	defer cancel()

	recs, err := j.records.ListAll(ctx)
	if err != nil {
		return err
	}

	var wrote int
	for _, r := range recs {
		if err := j.cache.SetReaction(ctx, r.PostID, r.UserID, r.State); err != nil {
			j.log.Warn("reconcile: cache write failed",
				zap.Int64("post_id", r.PostID), zap.Int64("user_id", r.UserID), zap.Error(err))
			continue
		}
		wrote++
	}

	metrics.ReconcileRuns.Inc()
	metrics.ReconcileRecords.Add(float64(wrote))
	j.log.Info("reconcile run complete", zap.Int("records", len(recs)), zap.Int("written", wrote))
	return nil
}
