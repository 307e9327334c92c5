package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kova98/gigscout.api/data"
	"github.com/kova98/gigscout.api/enums"
)

type EmailLogRepo struct {
	db *sqlx.DB
}

func NewEmailLogRepo(db *sqlx.DB) *EmailLogRepo {
	return &EmailLogRepo{db}
}

// HasListingLog reports whether an email of emailType about listingID was
// already logged for the user.
func (r *EmailLogRepo) HasListingLog(ctx context.Context, userID uuid.UUID, emailType enums.EmailType, listingID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM email_logs
			WHERE user_id = $1 AND email_type = $2 AND listing_id = $3
		)`

	if err := r.db.GetContext(ctx, &exists, query, userID, emailType, listingID); err != nil {
		return false, fmt.Errorf("has listing log: %w", err)
	}

	return exists, nil
}

// HasLogSince reports whether an email of emailType was logged for the user at
// or after since.
func (r *EmailLogRepo) HasLogSince(ctx context.Context, userID uuid.UUID, emailType enums.EmailType, since time.Time) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM email_logs
			WHERE user_id = $1 AND email_type = $2 AND sent_at >= $3
		)`

	if err := r.db.GetContext(ctx, &exists, query, userID, emailType, since); err != nil {
		return false, fmt.Errorf("has log since: %w", err)
	}

	return exists, nil
}

func (r *EmailLogRepo) InsertLog(ctx context.Context, log data.EmailLog) error {
	query := `
		INSERT INTO email_logs (user_id, email_type, listing_id, provider_message_id, sent_at)
		VALUES (:user_id, :email_type, :listing_id, :provider_message_id, :sent_at)
		ON CONFLICT DO NOTHING`

	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("insert email log: %w", err)
	}

	return nil
}

func (r *EmailLogRepo) CountByType(ctx context.Context, since time.Time) ([]data.EmailTypeCount, error) {
	query := `
		SELECT email_type, COUNT(*) AS count
		FROM email_logs
		WHERE sent_at >= $1
		GROUP BY email_type`

	counts := make([]data.EmailTypeCount, 0, 3)
	if err := r.db.SelectContext(ctx, &counts, query, since); err != nil {
		return nil, fmt.Errorf("count email logs: %w", err)
	}

	return counts, nil
}
