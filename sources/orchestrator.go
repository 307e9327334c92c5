package sources

import (
	"context"
	"log/slog"
	"time"

	"github.com/kova98/gigscout.api/data"
	"github.com/kova98/gigscout.api/metrics"
	"github.com/kova98/gigscout.api/models"
)

type ListingWriter interface {
	Persist(ctx context.Context, listings []data.Listing) (int, error)
}

// Orchestrator runs every source once and writes the combined result.
type Orchestrator struct {
	logger  *slog.Logger
	sources []Source
	writer  ListingWriter
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOrchestrator(logger *slog.Logger, writer ListingWriter, m *metrics.Metrics, sources ...Source) *Orchestrator {
	return &Orchestrator{
		logger:  logger,
		sources: sources,
		writer:  writer,
		metrics: m,
		now:     time.Now,
	}
}

// RunAll never fails: a failing source contributes zero listings and a failed
// write reports zero saved.
func (o *Orchestrator) RunAll(ctx context.Context) models.ScrapeRunSummary {
	start := o.now()
	o.logger.Info("starting scrape run", "sources", len(o.sources))

	summary := models.ScrapeRunSummary{
		Timestamp: start,
		Sources:   make(map[string]int, len(o.sources)),
	}

	all := make([]data.Listing, 0, len(o.sources)*MaxListingsPerSource)
	for _, src := range o.sources {
		listings, err := o.fetch(ctx, src)
		o.metrics.ObserveSource(src.Name(), len(listings), err)
		if err != nil {
			o.logger.Error("source fetch failed", "source", src.Name(), "error", err)
		}
		summary.Sources[src.Name()] = len(listings)
		all = append(all, listings...)
	}
	summary.TotalScanned = len(all)

	saved, err := o.writer.Persist(ctx, all)
	if err != nil {
		o.logger.Error("failed to persist listings", "error", err, "count", len(all))
		saved = 0
	}
	summary.TotalSaved = saved

	elapsed := o.now().Sub(start)
	o.metrics.ObserveRun(saved, elapsed)
	o.logger.Info("scrape run complete",
		"scanned", summary.TotalScanned,
		"saved", summary.TotalSaved,
		"sources", summary.Sources,
		"elapsed_ms", elapsed.Milliseconds())

	return summary
}

// fetch isolates a source so a panic or error cannot abort the run.
func (o *Orchestrator) fetch(ctx context.Context, src Source) (listings []data.Listing, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("source panicked", "source", src.Name(), "panic", r)
			listings = nil
			err = errSourcePanic
		}
	}()

	listings, err = src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return listings, nil
}
