package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/kova98/gigscout.api/data"
	"github.com/kova98/gigscout.api/enums"
	"github.com/kova98/gigscout.api/matchers"
)

const (
	DefaultIndeedRSSURL  = "https://www.indeed.com/rss?q=social+media+marketing&l=&radius=25"
	indeedDefaultCompany = "Company"
)

// IndeedSource reads the Indeed job search RSS feed.
type IndeedSource struct {
	feedURL  string
	clients  ClientProvider
	language *LanguageGate
	now      func() time.Time
}

func NewIndeedSource(feedURL string, clients ClientProvider, language *LanguageGate) *IndeedSource {
	if feedURL == "" {
		feedURL = DefaultIndeedRSSURL
	}
	return &IndeedSource{
		feedURL:  feedURL,
		clients:  clients,
		language: language,
		now:      time.Now,
	}
}

func (s *IndeedSource) Name() string {
	return string(enums.SourceIndeed)
}

func (s *IndeedSource) Fetch(ctx context.Context) ([]data.Listing, error) {
	body, err := fetch(ctx, s.clients, s.feedURL)
	if err != nil {
		return nil, fmt.Errorf("indeed: %w", err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("indeed: parse feed: %w", err)
	}

	now := s.now()
	items := feed.Items
	if len(items) > MaxListingsPerSource {
		items = items[:MaxListingsPerSource]
	}

	raw := make([]data.Listing, 0, len(items))
	for _, item := range items {
		raw = append(raw, s.toListing(item, now))
	}

	return finalize(raw, s.language, now), nil
}

func (s *IndeedSource) toListing(item *gofeed.Item, now time.Time) data.Listing {
	title, company := splitIndeedTitle(item.Title)
	description := stripHTML(item.Description)

	posted := now
	if item.PublishedParsed != nil {
		posted = *item.PublishedParsed
	}

	return data.Listing{
		ExternalURL:   itemLink(item),
		SourceName:    s.Name(),
		Title:         title,
		Company:       company,
		Description:   description,
		Location:      defaultLocation,
		RemoteAllowed: matchers.ContainsFold(description, "remote"),
		RateType:      enums.RateTypeHourly,
		RateMin:       defaultRateMin,
		RateMax:       defaultRateMax,
		DatePosted:    posted,
		Status:        enums.ListingStatusActive,
	}
}

// splitIndeedTitle splits "Job Title - Company" into its parts.
func splitIndeedTitle(raw string) (string, string) {
	parts := strings.Split(raw, " - ")
	title := strings.TrimSpace(parts[0])
	if title == "" {
		title = strings.TrimSpace(raw)
	}
	company := indeedDefaultCompany
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		company = strings.TrimSpace(parts[1])
	}
	return title, company
}

func itemLink(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}
	if strings.HasPrefix(item.GUID, "http") {
		return item.GUID
	}
	return ""
}
