package schedulers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/kova98/gigscout.api/enums"
	"github.com/kova98/gigscout.api/models"
)

var (
	ErrCheckInProgress = errors.New("email check already in progress")
	ErrUnknownCheck    = errors.New("unknown email check")
)

type EmailChecker interface {
	Run(ctx context.Context, emailType enums.EmailType) (int, error)
}

// EmailIntervals are the periods of the three checks and the delay before
// the first pass after Start.
type EmailIntervals struct {
	PerfectMatch time.Duration
	DailyDigest  time.Duration
	WeeklyTrends time.Duration
	InitialDelay time.Duration
}

func DefaultEmailIntervals() EmailIntervals {
	return EmailIntervals{
		PerfectMatch: 15 * time.Minute,
		DailyDigest:  time.Hour,
		WeeklyTrends: 6 * time.Hour,
		InitialDelay: 5 * time.Second,
	}
}

var emailChecks = []enums.EmailType{
	enums.EmailTypePerfectMatch,
	enums.EmailTypeDailyDigest,
	enums.EmailTypeWeeklyTrends,
}

type emailCheck struct {
	interval time.Duration
	running  sync.Mutex
	entry    cron.EntryID
	lastRun  *time.Time
	lastSent int
}

// EmailScheduler runs the three email checks on independent timers.
type EmailScheduler struct {
	ctx          context.Context
	logger       *slog.Logger
	checker      EmailChecker
	initialDelay time.Duration
	now          func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	initial *time.Timer
	checks  map[enums.EmailType]*emailCheck
}

func NewEmailScheduler(ctx context.Context, logger *slog.Logger, checker EmailChecker, intervals EmailIntervals) *EmailScheduler {
	defaults := DefaultEmailIntervals()
	orDefault := func(d, fallback time.Duration) time.Duration {
		if d <= 0 {
			return fallback
		}
		return d
	}

	return &EmailScheduler{
		ctx:          ctx,
		logger:       logger,
		checker:      checker,
		initialDelay: orDefault(intervals.InitialDelay, defaults.InitialDelay),
		now:          time.Now,
		checks: map[enums.EmailType]*emailCheck{
			enums.EmailTypePerfectMatch: {interval: orDefault(intervals.PerfectMatch, defaults.PerfectMatch)},
			enums.EmailTypeDailyDigest:  {interval: orDefault(intervals.DailyDigest, defaults.DailyDigest)},
			enums.EmailTypeWeeklyTrends: {interval: orDefault(intervals.WeeklyTrends, defaults.WeeklyTrends)},
		},
	}
}

// Start arms all three timers and schedules one pass of every check after
// the initial delay. Starting a running scheduler is a no-op.
func (s *EmailScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	c := newCron(s.logger)
	for _, t := range emailChecks {
		check := s.checks[t]
		entry, err := c.AddFunc(every(check.interval), func() { s.scheduledCheck(t) })
		if err != nil {
			return errors.Wrapf(err, "schedule %s check", t)
		}
		check.entry = entry
	}
	c.Start()
	s.cron = c

	s.initial = time.AfterFunc(s.initialDelay, func() {
		for _, t := range emailChecks {
			s.scheduledCheck(t)
		}
	})

	s.logger.Info("email scheduler started")
	return nil
}

// Stop disarms every timer at once. Checks in flight complete.
func (s *EmailScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return
	}
	s.cron.Stop()
	s.initial.Stop()
	s.cron = nil
	s.initial = nil
	s.logger.Info("email scheduler stopped")
}

func (s *EmailScheduler) Status() models.EmailSchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := models.EmailSchedulerStatus{
		IsRunning: s.cron != nil,
		Checks:    make(map[string]models.EmailCheckStatus, len(s.checks)),
	}
	for t, check := range s.checks {
		cs := models.EmailCheckStatus{
			Interval: check.interval.String(),
			LastRun:  check.lastRun,
			LastSent: check.lastSent,
		}
		if s.cron != nil {
			cs.NextRun = nextRun(s.cron, check.entry)
		}
		status.Checks[string(t)] = cs
	}
	return status
}

// RunCheck runs one check on demand, whether or not the scheduler is started.
func (s *EmailScheduler) RunCheck(ctx context.Context, emailType enums.EmailType) (int, error) {
	check, ok := s.checks[emailType]
	if !ok {
		return 0, ErrUnknownCheck
	}
	if !check.running.TryLock() {
		return 0, ErrCheckInProgress
	}
	defer check.running.Unlock()
	return s.run(ctx, emailType, check)
}

func (s *EmailScheduler) scheduledCheck(emailType enums.EmailType) {
	check := s.checks[emailType]
	if !check.running.TryLock() {
		s.logger.Warn("skipping email check, previous check still in progress", "check", emailType)
		return
	}
	defer check.running.Unlock()

	if _, err := s.run(s.ctx, emailType, check); err != nil {
		s.logger.Error("email check failed", "check", emailType, "error", err)
	}
}

func (s *EmailScheduler) run(ctx context.Context, emailType enums.EmailType, check *emailCheck) (int, error) {
	started := s.now()
	sent, err := s.checker.Run(ctx, emailType)

	s.mu.Lock()
	check.lastRun = &started
	check.lastSent = sent
	s.mu.Unlock()

	if err != nil {
		return sent, errors.Wrapf(err, "%s check", emailType)
	}
	if sent > 0 {
		s.logger.Info("email check complete", "check", emailType, "sent", sent)
	}
	return sent, nil
}
