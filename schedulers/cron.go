// Package schedulers drives scrape runs and email checks on recurring timers.
package schedulers

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// slogCron adapts a slog.Logger to cron.Logger. Cron's info chatter is
// demoted to debug.
type slogCron struct {
	logger *slog.Logger
}

func (l slogCron) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l slogCron) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

func newCron(logger *slog.Logger) *cron.Cron {
	cl := slogCron{logger: logger}
	return cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl)))
}

func every(d time.Duration) string {
	return "@every " + d.String()
}

func nextRun(c *cron.Cron, id cron.EntryID) *time.Time {
	next := c.Entry(id).Next
	if next.IsZero() {
		return nil
	}
	return &next
}
