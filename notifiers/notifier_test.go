package notifiers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kova98/gigscout.api/data"
	"github.com/kova98/gigscout.api/enums"
	"github.com/kova98/gigscout.api/models"
)

// Monday, 08:30 UTC.
var testNow = time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)

type fakeListings struct {
	recent     []data.Listing
	between    map[time.Time][]data.Listing
	recentErr  error
	betweenErr error
	sinceCalls int
}

func (f *fakeListings) GetActiveSince(ctx context.Context, since time.Time, minScore, limit int) ([]data.Listing, error) {
	f.sinceCalls++
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	out := make([]data.Listing, 0, len(f.recent))
	for _, l := range f.recent {
		if l.RelevanceScore >= minScore && !l.CreatedAt.Before(since) {
			out = append(out, l)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeListings) GetActiveBetween(ctx context.Context, from, to time.Time) ([]data.Listing, error) {
	if f.betweenErr != nil {
		return nil, f.betweenErr
	}
	return f.between[from], nil
}

type fakeRecipients struct {
	byType map[enums.EmailType][]data.Recipient
	err    error
}

func (f *fakeRecipients) GetRecipients(ctx context.Context, emailType enums.EmailType) ([]data.Recipient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byType[emailType], nil
}

type fakeLogs struct {
	entries []data.EmailLog
	err     error
}

func (f *fakeLogs) HasListingLog(ctx context.Context, userID uuid.UUID, emailType enums.EmailType, listingID uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, e := range f.entries {
		if e.UserID == userID && e.EmailType == emailType && e.ListingID.Valid && e.ListingID.UUID == listingID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLogs) HasLogSince(ctx context.Context, userID uuid.UUID, emailType enums.EmailType, since time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, e := range f.entries {
		if e.UserID == userID && e.EmailType == emailType && !e.SentAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLogs) InsertLog(ctx context.Context, log data.EmailLog) error {
	f.entries = append(f.entries, log)
	return nil
}

func (f *fakeLogs) CountByType(ctx context.Context, since time.Time) ([]data.EmailTypeCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	counts := map[string]int{}
	for _, e := range f.entries {
		if !e.SentAt.Before(since) {
			counts[string(e.EmailType)]++
		}
	}
	out := make([]data.EmailTypeCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, data.EmailTypeCount{EmailType: t, Count: c})
	}
	return out, nil
}

type fakeSender struct {
	sent []models.Email
	err  error
}

func (f *fakeSender) Send(ctx context.Context, mail models.Email) (models.SendResult, error) {
	if f.err != nil {
		return models.SendResult{}, f.err
	}
	f.sent = append(f.sent, mail)
	return models.SendResult{Success: true, ProviderMessageID: "msg_1"}, nil
}

type harness struct {
	notifier   *Notifier
	listings   *fakeListings
	recipients *fakeRecipients
	logs       *fakeLogs
	sender     *fakeSender
}

func newHarness(recipients ...data.Recipient) *harness {
	h := &harness{
		listings: &fakeListings{between: map[time.Time][]data.Listing{}},
		recipients: &fakeRecipients{byType: map[enums.EmailType][]data.Recipient{
			enums.EmailTypePerfectMatch: recipients,
			enums.EmailTypeDailyDigest:  recipients,
			enums.EmailTypeWeeklyTrends: recipients,
		}},
		logs:   &fakeLogs{},
		sender: &fakeSender{},
	}
	h.notifier = NewNotifier(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		h.listings, h.recipients, h.logs,
		NewMailer("alerts@gigscout.com", "noreply@gigscout.com", "https://gigscout.com"),
		h.sender,
		nil,
		Schedule{DigestHour: 8, TrendsWeekday: time.Monday, TrendsHour: 8, Location: time.UTC},
	)
	h.notifier.now = func() time.Time { return testNow }
	return h
}

func recipient(email string, skills ...string) data.Recipient {
	return data.Recipient{
		UserEmailPreference: data.UserEmailPreference{
			UserID:             uuid.New(),
			PerfectMatchAlerts: true,
			DailyDigest:        true,
			WeeklyTrends:       true,
			Skills:             skills,
		},
		Email: email,
	}
}

func listing(title string, score int, skills ...string) data.Listing {
	return data.Listing{
		ID:             uuid.New(),
		ExternalURL:    "https://jobs.test/" + uuid.NewString(),
		Title:          title,
		Company:        "Acme",
		Description:    "Manage Instagram and TikTok marketing, social media strategy and community management",
		RateType:       enums.RateTypeHourly,
		RateMin:        50,
		RateMax:        80,
		Skills:         skills,
		RelevanceScore: score,
		DatePosted:     testNow.Add(-time.Hour),
		Status:         enums.ListingStatusActive,
		CreatedAt:      testNow.Add(-30 * time.Minute),
	}
}

func TestCheckPerfectMatches_SendsOncePerListing(t *testing.T) {
	r := recipient("jane@example.com")
	h := newHarness(r)
	l := listing("Social Media Marketing Manager", 10, "Instagram")
	h.listings.recent = []data.Listing{l}

	sent, err := h.notifier.CheckPerfectMatches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, "🎯 Perfect Match Found: Social Media Marketing Manager", h.sender.sent[0].Subject)
	assert.Equal(t, "jane@example.com", h.sender.sent[0].To)

	require.Len(t, h.logs.entries, 1)
	entry := h.logs.entries[0]
	assert.Equal(t, r.UserID, entry.UserID)
	assert.Equal(t, enums.EmailTypePerfectMatch, entry.EmailType)
	assert.Equal(t, uuid.NullUUID{UUID: l.ID, Valid: true}, entry.ListingID)
	assert.Equal(t, "msg_1", entry.ProviderMessageID)

	sent, err = h.notifier.CheckPerfectMatches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Len(t, h.sender.sent, 1)
}

func TestCheckPerfectMatches_RespectsPreferencesAndScore(t *testing.T) {
	h := newHarness(recipient("jane@example.com", "tiktok"))
	h.listings.recent = []data.Listing{
		listing("Instagram only", 9, "Instagram"),
		listing("TikTok lead", 9, "TikTok Content"),
		listing("Too weak", 7, "TikTok"),
	}

	sent, err := h.notifier.CheckPerfectMatches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Contains(t, h.sender.sent[0].Subject, "TikTok lead")
}

func TestCheckPerfectMatches_IgnoresOldListings(t *testing.T) {
	h := newHarness(recipient("jane@example.com"))
	old := listing("Social Media Marketing Manager", 10)
	old.CreatedAt = testNow.Add(-3 * time.Hour)
	h.listings.recent = []data.Listing{old}

	sent, err := h.notifier.CheckPerfectMatches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestCheckPerfectMatches_SendFailureIsNotLogged(t *testing.T) {
	h := newHarness(recipient("jane@example.com"))
	h.listings.recent = []data.Listing{listing("Social Media Marketing Manager", 10)}
	h.sender.err = errors.New("smtp down")

	sent, err := h.notifier.CheckPerfectMatches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Empty(t, h.logs.entries)

	h.sender.err = nil
	sent, err = h.notifier.CheckPerfectMatches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "a failed send is retried by the next check")
}

func TestCheckPerfectMatches_StoreErrors(t *testing.T) {
	h := newHarness(recipient("jane@example.com"))
	h.recipients.err = errors.New("db down")
	_, err := h.notifier.CheckPerfectMatches(context.Background())
	assert.Error(t, err)

	h = newHarness(recipient("jane@example.com"))
	h.listings.recentErr = errors.New("db down")
	_, err = h.notifier.CheckPerfectMatches(context.Background())
	assert.Error(t, err)
}

func TestCheckPerfectMatches_NoRecipientsSkipsListingQuery(t *testing.T) {
	h := newHarness()
	sent, err := h.notifier.CheckPerfectMatches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 0, h.listings.sinceCalls)
}

func TestCheckDailyDigest_OnlyDuringDigestHour(t *testing.T) {
	h := newHarness(recipient("jane@example.com"))
	h.listings.recent = []data.Listing{listing("Social Media Manager", 6)}
	h.notifier.now = func() time.Time { return testNow.Add(2 * time.Hour) }

	sent, err := h.notifier.CheckDailyDigest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Empty(t, h.sender.sent)
}

func TestCheckDailyDigest_SendsOncePerDay(t *testing.T) {
	h := newHarness(recipient("jane@example.com"), recipient("joe@example.com"))
	h.listings.recent = []data.Listing{
		listing("Social Media Manager", 9),
		listing("Content Marketer", 6),
		listing("Marketing Assistant", 4),
		listing("Growth Intern", 3),
	}

	sent, err := h.notifier.CheckDailyDigest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 1, h.listings.sinceCalls, "listings are loaded once per check")
	assert.Equal(t, "📬 Your Daily Opportunity Digest - 3 New Jobs", h.sender.sent[0].Subject)
	require.Len(t, h.logs.entries, 2)
	assert.False(t, h.logs.entries[0].ListingID.Valid)

	sent, err = h.notifier.CheckDailyDigest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Len(t, h.sender.sent, 2)
}

func TestCheckDailyDigest_EmptyResultSendsNothing(t *testing.T) {
	h := newHarness(recipient("jane@example.com"))
	h.listings.recent = []data.Listing{listing("Growth Intern", 3)}

	sent, err := h.notifier.CheckDailyDigest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Empty(t, h.sender.sent)
	assert.Empty(t, h.logs.entries)
}

func TestCheckDailyDigest_CapsAtTwenty(t *testing.T) {
	h := newHarness(recipient("jane@example.com"))
	for i := 0; i < 25; i++ {
		h.listings.recent = append(h.listings.recent, listing("Social Media Manager", 5))
	}

	_, err := h.notifier.CheckDailyDigest(context.Background())
	require.NoError(t, err)
	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, "📬 Your Daily Opportunity Digest - 20 New Jobs", h.sender.sent[0].Subject)
}

func TestCheckWeeklyTrends_OncePerISOWeek(t *testing.T) {
	h := newHarness(recipient("jane@example.com"))

	sent, err := h.notifier.CheckWeeklyTrends(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, "📊 Weekly Market Trends & Insights", h.sender.sent[0].Subject)

	h.notifier.now = func() time.Time { return testNow.Add(20 * time.Minute) }
	sent, err = h.notifier.CheckWeeklyTrends(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	h.notifier.now = func() time.Time { return testNow.AddDate(0, 0, 7) }
	sent, err = h.notifier.CheckWeeklyTrends(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestCheckWeeklyTrends_OutsideWindow(t *testing.T) {
	h := newHarness(recipient("jane@example.com"))
	h.notifier.now = func() time.Time { return testNow.AddDate(0, 0, 1) }

	sent, err := h.notifier.CheckWeeklyTrends(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestCheckWeeklyTrends_FallsBackOnStoreError(t *testing.T) {
	h := newHarness(recipient("jane@example.com"))
	h.listings.betweenErr = errors.New("db down")

	sent, err := h.notifier.CheckWeeklyTrends(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Contains(t, h.sender.sent[0].Body, "156")
}

func TestTrends_UsesWeekWindows(t *testing.T) {
	h := newHarness()
	weekAgo := testNow.Add(-trendsWindow)
	h.listings.between[weekAgo] = []data.Listing{listing("A", 5, "Canva"), listing("B", 5, "Canva")}
	h.listings.between[weekAgo.Add(-trendsWindow)] = []data.Listing{listing("C", 5, "Canva")}

	trends := h.notifier.Trends(context.Background(), testNow)
	assert.Equal(t, 2, trends.TotalJobs)
	assert.Equal(t, 100, trends.JobGrowth)
	require.NotEmpty(t, trends.TopSkills)
	assert.Equal(t, models.SkillTrend{Name: "Canva", Count: 2, Growth: 100}, trends.TopSkills[0])
}

func TestRun(t *testing.T) {
	h := newHarness()
	_, err := h.notifier.Run(context.Background(), enums.EmailTypeInvalid)
	assert.Error(t, err)

	sent, err := h.notifier.Run(context.Background(), enums.EmailTypeDailyDigest)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestGetEmailStats(t *testing.T) {
	h := newHarness()
	h.logs.entries = []data.EmailLog{
		{EmailType: enums.EmailTypePerfectMatch, SentAt: testNow.Add(-time.Hour)},
		{EmailType: enums.EmailTypePerfectMatch, SentAt: testNow.Add(-2 * time.Hour)},
		{EmailType: enums.EmailTypeDailyDigest, SentAt: testNow.Add(-24 * time.Hour)},
		{EmailType: enums.EmailTypeWeeklyTrends, SentAt: testNow.AddDate(0, 0, -30)},
	}

	stats := h.notifier.GetEmailStats(context.Background(), 7)
	assert.Equal(t, models.EmailStats{Days: 7, Total: 3, PerfectMatch: 2, DailyDigest: 1}, stats)

	h.logs.err = errors.New("db down")
	stats = h.notifier.GetEmailStats(context.Background(), 7)
	assert.Equal(t, models.EmailStats{Days: 7}, stats)
}

func TestStartOfISOWeek(t *testing.T) {
	sunday := time.Date(2026, 10, 25, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), startOfISOWeek(sunday))
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), startOfISOWeek(testNow))
}
