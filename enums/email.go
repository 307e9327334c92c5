package enums

type EmailType string

const (
	EmailTypeInvalid EmailType = ""

	// EmailTypePerfectMatch is sent at most once per user and listing.
	EmailTypePerfectMatch EmailType = "perfect_match"

	// EmailTypeDailyDigest is sent at most once per user and calendar day.
	EmailTypeDailyDigest EmailType = "daily_digest"

	// EmailTypeWeeklyTrends is sent at most once per user and ISO week.
	EmailTypeWeeklyTrends EmailType = "weekly_trends"
)

func ParseEmailType(s string) EmailType {
	switch EmailType(s) {
	case EmailTypePerfectMatch, EmailTypeDailyDigest, EmailTypeWeeklyTrends:
		return EmailType(s)
	default:
		return EmailTypeInvalid
	}
}
