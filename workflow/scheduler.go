package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Scheduler drives the periodic jobs: overdue marking, receipt aggregation,
// credit-score recomputation, reminders and the daily summary. Each job runs
// on its own ticker, takes a cross-instance redis lock, and retries a failed
// run with exponential backoff before dropping it until the next tick.
type Scheduler struct {
	Logger     *logrus.Logger
	InstanceID string

	OverdueInterval  time.Duration
	ReceiptInterval  time.Duration
	ScoreInterval    time.Duration
	ReminderInterval time.Duration
	SummaryInterval  time.Duration

	LockTTL        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
}

func NewScheduler(logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		Logger:     logger,
		InstanceID: uuid.NewString(),

		// Overdue marking and score recomputation are daily jobs; the hourly
		// tick plus the once-per-day gate keeps them near their window even
		// after restarts.
		OverdueInterval:  time.Hour,
		ReceiptInterval:  15 * time.Minute,
		ScoreInterval:    time.Hour,
		ReminderInterval: 5 * time.Minute,
		SummaryInterval:  5 * time.Minute,

		LockTTL:        5 * time.Minute,
		MaxAttempts:    3,
		InitialBackoff: 5 * time.Second,
	}
}

type jobFunc func(ctx context.Context) error

// Run starts every job loop and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	go s.loop(ctx, "mark-overdue", s.OverdueInterval, s.runMarkOverdue)
	go s.loop(ctx, "settle-receipts", s.ReceiptInterval, s.runSettleReceipts)
	go s.loop(ctx, "recompute-scores", s.ScoreInterval, s.runRecomputeScores)
	go s.loop(ctx, "reminders", s.ReminderInterval, s.runReminders)
	go s.loop(ctx, "daily-summary", s.SummaryInterval, s.runDailySummary)

	<-ctx.Done()
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, fn jobFunc) {
	// First run shortly after boot, then on the interval.
	timer := time.NewTimer(10 * time.Second)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		s.runJob(ctx, name, fn)
		timer.Reset(interval)
	}
}

// runJob takes the cross-instance lock for the job, then retries fn with
// exponential backoff up to MaxAttempts. A run that exhausts its attempts is
// dropped until the next tick.
func (s *Scheduler) runJob(ctx context.Context, name string, fn jobFunc) {
	locker := config.GetRedisLock()
	if locker != nil {
		lock, err := locker.Obtain(ctx, "job:"+name, s.LockTTL, nil)
		if err != nil {
			if !errors.Is(err, redislock.ErrNotObtained) {
				config.LogError(s.Logger, "workflow", "runJob", "obtain lock "+name, s.InstanceID, err)
			}
			return
		}
		defer lock.Release(context.Background())
	}

	backoff := s.InitialBackoff
	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return
		}
		config.LogError(s.Logger, "workflow", "runJob", name, map[string]interface{}{
			"attempt":  attempt,
			"instance": s.InstanceID,
		}, err)
		if attempt == s.MaxAttempts {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// onceToday gates a daily job: the first caller of the day wins the marker,
// later callers (and other instances) skip. Redis being down fails open; the
// jobs themselves are idempotent.
func onceToday(ctx context.Context, name string, day string) bool {
	rdb := config.GetRedisDB()
	if rdb == nil {
		return true
	}
	ok, err := rdb.SetNX(ctx, "ran:"+name+":"+day, "1", 48*time.Hour).Result()
	if err != nil {
		return true
	}
	return ok
}
