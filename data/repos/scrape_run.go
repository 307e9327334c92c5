package repos

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kova98/gigscout.api/data"
	"github.com/kova98/gigscout.api/models"
)

type ScrapeRunRepo struct {
	db *sqlx.DB
}

func NewScrapeRunRepo(db *sqlx.DB) *ScrapeRunRepo {
	return &ScrapeRunRepo{db}
}

func (r *ScrapeRunRepo) SaveRun(ctx context.Context, summary models.ScrapeRunSummary) error {
	counts, err := json.Marshal(summary.Sources)
	if err != nil {
		return fmt.Errorf("save scrape run: marshal source counts: %w", err)
	}

	run := data.ScrapeRun{
		RanAt:        summary.Timestamp,
		TotalScanned: summary.TotalScanned,
		TotalSaved:   summary.TotalSaved,
		SourceCounts: counts,
	}
	query := `
		INSERT INTO scrape_runs (ran_at, total_scanned, total_saved, source_counts)
		VALUES (:ran_at, :total_scanned, :total_saved, :source_counts)`

	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("save scrape run: %w", err)
	}

	return nil
}

// GetLatestRun returns the most recent run, or nil when none was recorded.
func (r *ScrapeRunRepo) GetLatestRun(ctx context.Context) (*models.ScrapeRunSummary, error) {
	var run data.ScrapeRun
	query := `
		SELECT id, ran_at, total_scanned, total_saved, source_counts
		FROM scrape_runs
		ORDER BY ran_at DESC
		LIMIT 1`

	err := r.db.GetContext(ctx, &run, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest scrape run: %w", err)
	}

	sources := make(map[string]int)
	if len(run.SourceCounts) > 0 {
		if err := json.Unmarshal(run.SourceCounts, &sources); err != nil {
			return nil, fmt.Errorf("get latest scrape run: decode source counts: %w", err)
		}
	}

	return &models.ScrapeRunSummary{
		Timestamp:    run.RanAt,
		TotalScanned: run.TotalScanned,
		TotalSaved:   run.TotalSaved,
		Sources:      sources,
	}, nil
}
