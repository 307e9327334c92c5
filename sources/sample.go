package sources

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/kova98/gigscout.api/data"
	"github.com/kova98/gigscout.api/enums"
)

const sampleJobURL = "https://angel.co/company/jobs/"

var sampleListings = []data.Listing{
	{
		Title:         "Social Media Marketing Manager",
		Company:       "TechStart Inc",
		Description:   "Lead social media strategy for our B2B SaaS platform. Manage Instagram, LinkedIn, and Twitter accounts. Create engaging content and run paid campaigns.",
		Location:      "San Francisco, CA",
		RemoteAllowed: true,
		RateMin:       80,
		RateMax:       120,
		Skills:        []string{"Instagram", "LinkedIn", "B2B Marketing", "Paid Advertising"},
	},
	{
		Title:         "Content Creator - Social Media",
		Company:       "GrowthCo",
		Description:   "Create viral content for TikTok and Instagram. Experience with video editing and trend analysis required.",
		Location:      "New York, NY",
		RemoteAllowed: false,
		RateMin:       60,
		RateMax:       90,
		Skills:        []string{"TikTok", "Instagram", "Video Editing", "Content Creation"},
	},
	{
		Title:         "Digital Marketing Specialist",
		Company:       "InnovateLabs",
		Description:   "Manage multi-platform social media campaigns. Focus on Facebook and Instagram advertising for e-commerce clients.",
		Location:      "Austin, TX",
		RemoteAllowed: true,
		RateMin:       70,
		RateMax:       100,
		Skills:        []string{"Facebook Ads", "Instagram Ads", "E-commerce", "Analytics"},
	},
}

// SampleSource serves a fixed set of listings without any network access so a
// run always has something to persist when the live boards are unreachable.
type SampleSource struct {
	language *LanguageGate
	now      func() time.Time
}

func NewSampleSource(language *LanguageGate) *SampleSource {
	return &SampleSource{language: language, now: time.Now}
}

func (s *SampleSource) Name() string {
	return string(enums.SourceAngelList)
}

func (s *SampleSource) Fetch(ctx context.Context) ([]data.Listing, error) {
	now := s.now()
	raw := make([]data.Listing, 0, len(sampleListings))
	for _, l := range sampleListings {
		l.Skills = append([]string{}, l.Skills...)
		l.ExternalURL = sampleJobURL + slug(l.Company+" "+l.Title)
		l.SourceName = s.Name()
		l.RateType = enums.RateTypeHourly
		l.DatePosted = now
		l.Status = enums.ListingStatusActive
		raw = append(raw, l)
	}
	return finalize(raw, s.language, now), nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
