package data

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/kova98/gigscout.api/enums"
)

type User struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	DisplayName string    `db:"display_name"`
	Email       string    `db:"email"`
	Avatar      string    `db:"avatar"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Listing is a scraped job or gig. RelevanceScore is computed once at ingestion
// and never rewritten; only Status may change after the row is stored.
type Listing struct {
	ID             uuid.UUID           `db:"id"`
	ExternalURL    string              `db:"external_url"`
	SourceName     string              `db:"source_name"`
	Title          string              `db:"title"`
	Company        string              `db:"company"`
	Description    string              `db:"description"`
	Location       string              `db:"location"`
	RemoteAllowed  bool                `db:"remote_allowed"`
	RateType       enums.RateType      `db:"rate_type"`
	RateMin        float64             `db:"rate_min"`
	RateMax        float64             `db:"rate_max"`
	Skills         pq.StringArray      `db:"skills"`
	RelevanceScore int                 `db:"relevance_score"`
	DatePosted     time.Time           `db:"date_posted"`
	Status         enums.ListingStatus `db:"status"`
	CreatedAt      time.Time           `db:"created_at"`
}

type UserEmailPreference struct {
	UserID             uuid.UUID      `db:"user_id"`
	PerfectMatchAlerts bool           `db:"perfect_match_alerts"`
	DailyDigest        bool           `db:"daily_digest"`
	WeeklyTrends       bool           `db:"weekly_trends"`
	MinRate            *float64       `db:"min_rate"`
	MaxRate            *float64       `db:"max_rate"`
	Skills             pq.StringArray `db:"skills"`
	NotificationTime   string         `db:"notification_time"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

type EmailLog struct {
	ID                int64           `db:"id"`
	UserID            uuid.UUID       `db:"user_id"`
	EmailType         enums.EmailType `db:"email_type"`
	ListingID         uuid.NullUUID   `db:"listing_id"`
	ProviderMessageID string          `db:"provider_message_id"`
	SentAt            time.Time       `db:"sent_at"`
}

type ScrapeRun struct {
	ID           int64     `db:"id"`
	RanAt        time.Time `db:"ran_at"`
	TotalScanned int       `db:"total_scanned"`
	TotalSaved   int       `db:"total_saved"`
	SourceCounts []byte    `db:"source_counts"`
}
