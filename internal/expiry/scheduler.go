// Package expiry runs the subscription expiry sweep on an RRULE schedule.
package expiry

import (
	"context"
	"fmt"
	"time"

	"gymdesk/internal/logger"
	"gymdesk/internal/subscription"

	"github.com/teambition/rrule-go"
)

type Sweeper interface {
	ExpireDue(ctx context.Context, now time.Time) (subscription.ExpiryResult, error)
}

// Scheduler is driven by a single Start loop and is not safe for concurrent
// use.
type Scheduler struct {
	option  rrule.ROption
	rule    *rrule.RRule
	sweeper Sweeper
	now     func() time.Time
	after   func(time.Duration) <-chan time.Time
}

func NewScheduler(schedule string, sweeper Sweeper) (*Scheduler, error) {
	opt, err := rrule.StrToROption(schedule)
	if err != nil {
		return nil, fmt.Errorf("parse expiry schedule: %w", err)
	}
	return &Scheduler{
		option:  *opt,
		sweeper: sweeper,
		now:     time.Now,
		after:   time.After,
	}, nil
}

// Next returns the first occurrence strictly after t, or the zero time when
// the rule has no further occurrences. A rule without DTSTART is anchored
// once, on the minute of the first call, so COUNT and UNTIL hold across
// sweeps and unset BYSECOND resolves to :00.
func (s *Scheduler) Next(t time.Time) time.Time {
	if s.rule == nil {
		opt := s.option
		if opt.Dtstart.IsZero() {
			opt.Dtstart = t.UTC().Truncate(time.Minute)
		}
		rule, err := rrule.NewRRule(opt)
		if err != nil {
			return time.Time{}
		}
		s.rule = rule
	}
	return s.rule.After(t, false)
}

// Start blocks, sweeping at every occurrence until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	for {
		next := s.Next(s.now())
		if next.IsZero() {
			logger.Warn("expiry schedule has no further occurrences")
			return
		}
		logger.Debug("next expiry sweep scheduled", "at", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			logger.Info("expiry scheduler stopped")
			return
		case <-s.after(time.Until(next)):
			s.RunOnce(ctx)
		}
	}
}

func (s *Scheduler) RunOnce(ctx context.Context) subscription.ExpiryResult {
	started := s.now()
	res, err := s.sweeper.ExpireDue(ctx, started)
	if err != nil {
		logger.Error("expiry sweep failed", "error", err, "expired", res.Expired)
		return res
	}

	logger.Info("expiry sweep finished",
		"expired", res.Expired,
		"renewed", res.Renewed,
		"failed", res.Failed,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return res
}
