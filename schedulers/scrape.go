package schedulers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/kova98/gigscout.api/metrics"
	"github.com/kova98/gigscout.api/models"
)

var ErrRunInProgress = errors.New("scrape run already in progress")

const DefaultScrapeInterval = time.Hour

type Runner interface {
	RunAll(ctx context.Context) models.ScrapeRunSummary
}

type RunStore interface {
	GetLatestRun(ctx context.Context) (*models.ScrapeRunSummary, error)
}

// RunObserver is notified after every completed scrape run.
type RunObserver func(ctx context.Context, summary models.ScrapeRunSummary) error

// ScrapeScheduler triggers a scrape run on start and then every interval.
// At most one run is in flight: an overlapping timer run is skipped and an
// overlapping RunNow fails with ErrRunInProgress.
type ScrapeScheduler struct {
	ctx      context.Context
	logger   *slog.Logger
	runner   Runner
	interval time.Duration
	metrics  *metrics.Metrics

	running sync.Mutex

	mu        sync.Mutex
	cron      *cron.Cron
	entry     cron.EntryID
	lastRun   *models.ScrapeRunSummary
	observers []RunObserver
}

// NewScrapeScheduler creates a stopped scheduler. ctx bounds every run; Stop
// does not cancel a run already in flight.
func NewScrapeScheduler(ctx context.Context, logger *slog.Logger, runner Runner, interval time.Duration, m *metrics.Metrics) *ScrapeScheduler {
	if interval <= 0 {
		interval = DefaultScrapeInterval
	}
	return &ScrapeScheduler{
		ctx:      ctx,
		logger:   logger,
		runner:   runner,
		interval: interval,
		metrics:  m,
	}
}

// OnRunComplete registers an observer. Observer errors are logged.
func (s *ScrapeScheduler) OnRunComplete(observer RunObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// LoadLastRun seeds the status with the latest persisted run unless a run
// has already completed.
func (s *ScrapeScheduler) LoadLastRun(ctx context.Context, store RunStore) error {
	last, err := store.GetLatestRun(ctx)
	if err != nil {
		return errors.Wrap(err, "load last run")
	}
	if last == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun == nil {
		s.lastRun = last
	}
	return nil
}

// Start arms the timer and kicks off an immediate run. Starting a running
// scheduler is a no-op.
func (s *ScrapeScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	c := newCron(s.logger)
	entry, err := c.AddFunc(every(s.interval), s.scheduledRun)
	if err != nil {
		return errors.Wrap(err, "schedule scrape")
	}
	c.Start()
	s.cron = c
	s.entry = entry

	s.logger.Info("scrape scheduler started", "interval", s.interval)
	go s.scheduledRun()
	return nil
}

// Stop disarms the timer. A run in flight completes.
func (s *ScrapeScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return
	}
	s.cron.Stop()
	s.cron = nil
	s.entry = 0
	s.logger.Info("scrape scheduler stopped")
}

// RunNow runs a scrape synchronously regardless of scheduler state.
func (s *ScrapeScheduler) RunNow() (models.ScrapeRunSummary, error) {
	if !s.running.TryLock() {
		return models.ScrapeRunSummary{}, ErrRunInProgress
	}
	defer s.running.Unlock()
	return s.run(), nil
}

func (s *ScrapeScheduler) Status() models.ScraperStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := models.ScraperStatus{
		IsRunning: s.cron != nil,
		LastRun:   s.lastRun,
	}
	if s.cron != nil {
		status.NextRun = nextRun(s.cron, s.entry)
	}
	return status
}

func (s *ScrapeScheduler) scheduledRun() {
	if !s.running.TryLock() {
		s.logger.Warn("skipping scrape run, previous run still in progress")
		s.metrics.RunSkipped()
		return
	}
	defer s.running.Unlock()
	s.run()
}

func (s *ScrapeScheduler) run() models.ScrapeRunSummary {
	summary := s.runner.RunAll(s.ctx)

	s.mu.Lock()
	s.lastRun = &summary
	observers := append([]RunObserver(nil), s.observers...)
	s.mu.Unlock()

	for _, observe := range observers {
		if err := observe(s.ctx, summary); err != nil {
			s.logger.Error("scrape run observer failed", "error", err)
		}
	}
	return summary
}
