package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kova98/gigscout.api/data"
	"github.com/kova98/gigscout.api/enums"
)

type PreferenceRepo struct {
	db *sqlx.DB
}

func NewPreferenceRepo(db *sqlx.DB) *PreferenceRepo {
	return &PreferenceRepo{db}
}

// GetRecipients returns every user that opted into emailType, together with
// the address stored for that user.
func (r *PreferenceRepo) GetRecipients(ctx context.Context, emailType enums.EmailType) ([]data.Recipient, error) {
	var flag string
	switch emailType {
	case enums.EmailTypePerfectMatch:
		flag = "perfect_match_alerts"
	case enums.EmailTypeDailyDigest:
		flag = "daily_digest"
	case enums.EmailTypeWeeklyTrends:
		flag = "weekly_trends"
	default:
		return nil, fmt.Errorf("get recipients: unknown email type %q", emailType)
	}

	query := `
		SELECT p.user_id, p.perfect_match_alerts, p.daily_digest, p.weekly_trends,
			p.min_rate, p.max_rate, p.skills, p.notification_time, p.updated_at, u.email
		FROM user_email_preferences p
		JOIN users u ON u.id = p.user_id
		WHERE p.` + flag + ` = true AND u.email <> ''`

	recipients := make([]data.Recipient, 0)
	if err := r.db.SelectContext(ctx, &recipients, query); err != nil {
		return nil, fmt.Errorf("get recipients: %w", err)
	}

	return recipients, nil
}

func (r *PreferenceRepo) GetPreference(ctx context.Context, userID uuid.UUID) (*data.UserEmailPreference, error) {
	var pref data.UserEmailPreference
	query := `
		SELECT user_id, perfect_match_alerts, daily_digest, weekly_trends,
			min_rate, max_rate, skills, notification_time, updated_at
		FROM user_email_preferences
		WHERE user_id = $1`

	err := r.db.GetContext(ctx, &pref, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get preference: %w", err)
	}

	return &pref, nil
}

func (r *PreferenceRepo) UpsertPreference(ctx context.Context, pref data.UserEmailPreference) error {
	query := `
		INSERT INTO user_email_preferences (user_id, perfect_match_alerts, daily_digest, weekly_trends,
			min_rate, max_rate, skills, notification_time, updated_at)
		VALUES (:user_id, :perfect_match_alerts, :daily_digest, :weekly_trends,
			:min_rate, :max_rate, :skills, :notification_time, now())
		ON CONFLICT (user_id) DO UPDATE SET
			perfect_match_alerts = EXCLUDED.perfect_match_alerts,
			daily_digest = EXCLUDED.daily_digest,
			weekly_trends = EXCLUDED.weekly_trends,
			min_rate = EXCLUDED.min_rate,
			max_rate = EXCLUDED.max_rate,
			skills = EXCLUDED.skills,
			notification_time = EXCLUDED.notification_time,
			updated_at = now()`

	if _, err := r.db.NamedExecContext(ctx, query, pref); err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}

	return nil
}

func (r *PreferenceRepo) DeletePreference(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM user_email_preferences WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("delete preference: %w", err)
	}

	return nil
}
