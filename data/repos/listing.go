package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kova98/gigscout.api/data"
	"github.com/kova98/gigscout.api/enums"
)

const listingColumns = `id, external_url, source_name, title, company, description, location,
	remote_allowed, rate_type, rate_min, rate_max, skills, relevance_score, date_posted, status, created_at`

type ListingRepo struct {
	db *sqlx.DB
}

func NewListingRepo(db *sqlx.DB) *ListingRepo {
	return &ListingRepo{db}
}

// ExistingURLs returns the subset of urls that are already stored.
func (r *ListingRepo) ExistingURLs(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return []string{}, nil
	}

	query, args, err := sqlx.In(`SELECT external_url FROM listings WHERE external_url IN (?)`, urls)
	if err != nil {
		return nil, fmt.Errorf("build existing urls: %w", err)
	}
	query = r.db.Rebind(query)

	existing := make([]string, 0, len(urls))
	if err := r.db.SelectContext(ctx, &existing, query, args...); err != nil {
		return nil, fmt.Errorf("get existing urls: %w", err)
	}

	return existing, nil
}

// InsertListings stores the batch in one statement. Rows whose external_url is
// already present are skipped by the unique index, so the returned count is
// the number of rows actually written.
func (r *ListingRepo) InsertListings(ctx context.Context, listings []data.Listing) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO listings (id, external_url, source_name, title, company, description, location,
			remote_allowed, rate_type, rate_min, rate_max, skills, relevance_score, date_posted, status, created_at)
		VALUES (:id, :external_url, :source_name, :title, :company, :description, :location,
			:remote_allowed, :rate_type, :rate_min, :rate_max, :skills, :relevance_score, :date_posted, :status, now())
		ON CONFLICT (external_url) DO NOTHING`

	res, err := r.db.NamedExecContext(ctx, query, listings)
	if err != nil {
		return 0, fmt.Errorf("insert listings: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert listings: rows affected: %w", err)
	}

	return int(n), nil
}

// GetActiveSince returns active listings created at or after since with a
// score of at least minScore, best first. A limit of zero means no limit.
func (r *ListingRepo) GetActiveSince(ctx context.Context, since time.Time, minScore, limit int) ([]data.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE created_at >= $1 AND relevance_score >= $2 AND status = $3
		ORDER BY relevance_score DESC, created_at DESC`
	args := []any{since, minScore, enums.ListingStatusActive}
	if limit > 0 {
		query += ` LIMIT $4`
		args = append(args, limit)
	}

	listings := make([]data.Listing, 0)
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("get active listings since: %w", err)
	}

	return listings, nil
}

// GetActiveBetween returns active listings created in [from, to).
func (r *ListingRepo) GetActiveBetween(ctx context.Context, from, to time.Time) ([]data.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE created_at >= $1 AND created_at < $2 AND status = $3
		ORDER BY created_at ASC`

	listings := make([]data.Listing, 0)
	if err := r.db.SelectContext(ctx, &listings, query, from, to, enums.ListingStatusActive); err != nil {
		return nil, fmt.Errorf("get active listings between: %w", err)
	}

	return listings, nil
}

func (r *ListingRepo) GetListings(ctx context.Context, minScore, limit, offset int) ([]data.Listing, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM listings WHERE status = $1 AND relevance_score >= $2`,
		enums.ListingStatusActive, minScore)
	if err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	query := `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE status = $1 AND relevance_score >= $2
		ORDER BY date_posted DESC
		LIMIT $3 OFFSET $4`

	listings := make([]data.Listing, 0, limit)
	if err := r.db.SelectContext(ctx, &listings, query, enums.ListingStatusActive, minScore, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("get listings: %w", err)
	}

	return listings, total, nil
}
