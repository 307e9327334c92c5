package notifiers

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kova98/gigscout.api/data"
	"github.com/kova98/gigscout.api/enums"
	"github.com/kova98/gigscout.api/matchers"
	"github.com/kova98/gigscout.api/metrics"
	"github.com/kova98/gigscout.api/models"
)

var ErrNoListings = errors.New("no listings to send")

const (
	perfectMatchWindow = 2 * time.Hour
	digestWindow       = 24 * time.Hour
	digestMinScore     = 4
	digestLimit        = 20
	trendsWindow       = 7 * 24 * time.Hour
)

type ListingStore interface {
	GetActiveSince(ctx context.Context, since time.Time, minScore, limit int) ([]data.Listing, error)
	GetActiveBetween(ctx context.Context, from, to time.Time) ([]data.Listing, error)
}

type RecipientStore interface {
	GetRecipients(ctx context.Context, emailType enums.EmailType) ([]data.Recipient, error)
}

type EmailLogStore interface {
	HasListingLog(ctx context.Context, userID uuid.UUID, emailType enums.EmailType, listingID uuid.UUID) (bool, error)
	HasLogSince(ctx context.Context, userID uuid.UUID, emailType enums.EmailType, since time.Time) (bool, error)
	InsertLog(ctx context.Context, log data.EmailLog) error
	CountByType(ctx context.Context, since time.Time) ([]data.EmailTypeCount, error)
}

// Schedule gates the digest and trends checks to a wall-clock window.
type Schedule struct {
	DigestHour    int
	TrendsWeekday time.Weekday
	TrendsHour    int
	Location      *time.Location
}

// Notifier runs the perfect match, daily digest and weekly trends checks.
// Every check is idempotent: a send is logged only after it succeeds, and a
// logged send is never repeated for the same listing, day or week.
type Notifier struct {
	logger     *slog.Logger
	listings   ListingStore
	recipients RecipientStore
	logs       EmailLogStore
	mailer     *Mailer
	sender     Sender
	metrics    *metrics.Metrics
	schedule   Schedule
	now        func() time.Time
}

func NewNotifier(
	logger *slog.Logger,
	listings ListingStore,
	recipients RecipientStore,
	logs EmailLogStore,
	mailer *Mailer,
	sender Sender,
	m *metrics.Metrics,
	schedule Schedule,
) *Notifier {
	if schedule.Location == nil {
		schedule.Location = time.Local
	}
	return &Notifier{
		logger:     logger,
		listings:   listings,
		recipients: recipients,
		logs:       logs,
		mailer:     mailer,
		sender:     sender,
		metrics:    m,
		schedule:   schedule,
		now:        time.Now,
	}
}

// Run dispatches to the check for emailType.
func (n *Notifier) Run(ctx context.Context, emailType enums.EmailType) (int, error) {
	switch emailType {
	case enums.EmailTypePerfectMatch:
		return n.CheckPerfectMatches(ctx)
	case enums.EmailTypeDailyDigest:
		return n.CheckDailyDigest(ctx)
	case enums.EmailTypeWeeklyTrends:
		return n.CheckWeeklyTrends(ctx)
	default:
		return 0, errors.Errorf("unknown email check %q", emailType)
	}
}

// CheckPerfectMatches alerts opted-in users about listings scored as perfect
// matches in the last two hours that fit their preferences.
func (n *Notifier) CheckPerfectMatches(ctx context.Context) (int, error) {
	n.metrics.EmailCheck(string(enums.EmailTypePerfectMatch))

	recipients, err := n.recipients.GetRecipients(ctx, enums.EmailTypePerfectMatch)
	if err != nil {
		return 0, errors.Wrap(err, "perfect matches: get recipients")
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	now := n.now()
	listings, err := n.listings.GetActiveSince(ctx, now.Add(-perfectMatchWindow), matchers.PerfectMatchScore, 0)
	if err != nil {
		return 0, errors.Wrap(err, "perfect matches: get listings")
	}
	n.logger.Debug("checking perfect matches", "recipients", len(recipients), "listings", len(listings))

	sent := 0
	for _, r := range recipients {
		for _, l := range listings {
			if !matchers.MatchesPreferences(l, r.UserEmailPreference) {
				continue
			}

			logged, err := n.logs.HasListingLog(ctx, r.UserID, enums.EmailTypePerfectMatch, l.ID)
			if err != nil {
				n.logger.Error("perfect matches: check log", "user_id", r.UserID, "error", err)
				break
			}
			if logged {
				continue
			}

			mail, err := n.mailer.PerfectMatchEmail(r, l, now)
			if err != nil {
				n.logger.Error("perfect matches: render email", "user_id", r.UserID, "listing_id", l.ID, "error", err)
				continue
			}
			if n.deliver(ctx, r, enums.EmailTypePerfectMatch, uuid.NullUUID{UUID: l.ID, Valid: true}, mail) {
				sent++
			}
		}
	}

	return sent, nil
}

// CheckDailyDigest sends the last day's best listings once per user per day,
// and only during the configured digest hour.
func (n *Notifier) CheckDailyDigest(ctx context.Context) (int, error) {
	n.metrics.EmailCheck(string(enums.EmailTypeDailyDigest))

	now := n.now().In(n.schedule.Location)
	if now.Hour() != n.schedule.DigestHour {
		n.logger.Debug("skipping daily digest outside send window", "hour", now.Hour())
		return 0, nil
	}

	recipients, err := n.recipients.GetRecipients(ctx, enums.EmailTypeDailyDigest)
	if err != nil {
		return 0, errors.Wrap(err, "daily digest: get recipients")
	}

	var listings []data.Listing
	loaded := false
	sent := 0
	for _, r := range recipients {
		logged, err := n.logs.HasLogSince(ctx, r.UserID, enums.EmailTypeDailyDigest, startOfDay(now))
		if err != nil {
			n.logger.Error("daily digest: check log", "user_id", r.UserID, "error", err)
			continue
		}
		if logged {
			continue
		}

		if !loaded {
			listings, err = n.listings.GetActiveSince(ctx, now.Add(-digestWindow), digestMinScore, digestLimit)
			if err != nil {
				n.logger.Error("daily digest: get listings", "user_id", r.UserID, "error", err)
				continue
			}
			loaded = true
		}
		if len(listings) == 0 {
			n.logger.Debug("daily digest: nothing to send", "user_id", r.UserID)
			continue
		}

		mail, err := n.mailer.DailyDigestEmail(r, listings, now)
		if err != nil {
			n.logger.Error("daily digest: render email", "user_id", r.UserID, "error", err)
			continue
		}
		if n.deliver(ctx, r, enums.EmailTypeDailyDigest, uuid.NullUUID{}, mail) {
			sent++
		}
	}

	return sent, nil
}

// CheckWeeklyTrends sends the market trends report once per user per ISO
// week, and only during the configured weekday and hour.
func (n *Notifier) CheckWeeklyTrends(ctx context.Context) (int, error) {
	n.metrics.EmailCheck(string(enums.EmailTypeWeeklyTrends))

	now := n.now().In(n.schedule.Location)
	if now.Weekday() != n.schedule.TrendsWeekday || now.Hour() != n.schedule.TrendsHour {
		n.logger.Debug("skipping weekly trends outside send window", "weekday", now.Weekday(), "hour", now.Hour())
		return 0, nil
	}

	recipients, err := n.recipients.GetRecipients(ctx, enums.EmailTypeWeeklyTrends)
	if err != nil {
		return 0, errors.Wrap(err, "weekly trends: get recipients")
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	trends := n.Trends(ctx, now)
	weekStart := startOfISOWeek(now)

	sent := 0
	for _, r := range recipients {
		logged, err := n.logs.HasLogSince(ctx, r.UserID, enums.EmailTypeWeeklyTrends, weekStart)
		if err != nil {
			n.logger.Error("weekly trends: check log", "user_id", r.UserID, "error", err)
			continue
		}
		if logged {
			continue
		}

		mail, err := n.mailer.WeeklyTrendsEmail(r, trends)
		if err != nil {
			n.logger.Error("weekly trends: render email", "user_id", r.UserID, "error", err)
			continue
		}
		if n.deliver(ctx, r, enums.EmailTypeWeeklyTrends, uuid.NullUUID{}, mail) {
			sent++
		}
	}

	return sent, nil
}

// Trends computes market trends for the week ending at now, falling back to
// DefaultTrends when the listings cannot be read.
func (n *Notifier) Trends(ctx context.Context, now time.Time) models.Trends {
	weekAgo := now.Add(-trendsWindow)
	thisWeek, err := n.listings.GetActiveBetween(ctx, weekAgo, now)
	if err != nil {
		n.logger.Error("weekly trends: get this week's listings", "error", err)
		return DefaultTrends()
	}
	lastWeek, err := n.listings.GetActiveBetween(ctx, weekAgo.Add(-trendsWindow), weekAgo)
	if err != nil {
		n.logger.Error("weekly trends: get last week's listings", "error", err)
		return DefaultTrends()
	}
	return ComputeTrends(thisWeek, lastWeek)
}

// GetEmailStats counts logged emails over the last days. Store errors yield zeros.
func (n *Notifier) GetEmailStats(ctx context.Context, days int) models.EmailStats {
	stats := models.EmailStats{Days: days}

	counts, err := n.logs.CountByType(ctx, n.now().Add(-time.Duration(days)*24*time.Hour))
	if err != nil {
		n.logger.Error("get email stats", "error", err)
		return stats
	}

	for _, c := range counts {
		stats.Total += c.Count
		switch enums.ParseEmailType(c.EmailType) {
		case enums.EmailTypePerfectMatch:
			stats.PerfectMatch = c.Count
		case enums.EmailTypeDailyDigest:
			stats.DailyDigest = c.Count
		case enums.EmailTypeWeeklyTrends:
			stats.WeeklyTrends = c.Count
		}
	}
	return stats
}

// deliver sends mail and logs it. Failed sends are not logged so a later
// check can try again.
func (n *Notifier) deliver(ctx context.Context, r data.Recipient, emailType enums.EmailType, listingID uuid.NullUUID, mail models.Email) bool {
	res, err := n.sender.Send(ctx, mail)
	if err == nil && !res.Success {
		err = errors.New("provider reported failure")
	}
	n.metrics.EmailSent(string(emailType), err == nil)
	if err != nil {
		n.logger.Error("failed to send email", "type", emailType, "user_id", r.UserID, "error", err)
		return false
	}

	entry := data.EmailLog{
		UserID:            r.UserID,
		EmailType:         emailType,
		ListingID:         listingID,
		ProviderMessageID: res.ProviderMessageID,
		SentAt:            n.now(),
	}
	if err := n.logs.InsertLog(ctx, entry); err != nil {
		n.logger.Error("failed to log email", "type", emailType, "user_id", r.UserID, "error", err)
	}

	n.logger.Info("email delivered", "type", emailType, "user_id", r.UserID)
	return true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// startOfISOWeek returns Monday 00:00 of t's ISO week in t's location.
func startOfISOWeek(t time.Time) time.Time {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -daysSinceMonday)
}
