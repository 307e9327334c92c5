package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kova98/gigscout.api/data"
	"github.com/kova98/gigscout.api/enums"
	"github.com/kova98/gigscout.api/matchers"
)

const (
	DefaultRemoteOKAPIURL = "https://remoteok.io/api"
	remoteOKJobURL        = "https://remoteok.io/remote-jobs/"

	remoteOKDefaultTitle     = "Marketing Position"
	remoteOKDefaultCompany   = "Remote Company"
	remoteOKDefaultSalaryMin = 50000
	remoteOKDefaultSalaryMax = 100000
)

type remoteOKJob struct {
	ID          flexString `json:"id"`
	Position    string     `json:"position"`
	Company     string     `json:"company"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	Date        flexString `json:"date"`
	Epoch       flexString `json:"epoch"`
	Tags        []string   `json:"tags"`
	SalaryMin   flexString `json:"salary_min"`
	SalaryMax   flexString `json:"salary_max"`
}

// flexString decodes a JSON string or number. The API is not consistent
// about which one it sends.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexString(b)
	return nil
}

func (f flexString) String() string {
	return string(f)
}

func (f flexString) Float() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(f)), 64)
	if err != nil {
		return 0
	}
	return v
}

func (f flexString) Int() int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(string(f)), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// RemoteOKSource reads the RemoteOK public JSON API. The API returns a legal
// notice as its first element, which has no tags and is skipped.
type RemoteOKSource struct {
	apiURL   string
	clients  ClientProvider
	language *LanguageGate
	now      func() time.Time
}

func NewRemoteOKSource(apiURL string, clients ClientProvider, language *LanguageGate) *RemoteOKSource {
	if apiURL == "" {
		apiURL = DefaultRemoteOKAPIURL
	}
	return &RemoteOKSource{
		apiURL:   apiURL,
		clients:  clients,
		language: language,
		now:      time.Now,
	}
}

func (s *RemoteOKSource) Name() string {
	return string(enums.SourceRemoteOK)
}

func (s *RemoteOKSource) Fetch(ctx context.Context) ([]data.Listing, error) {
	body, err := fetch(ctx, s.clients, s.apiURL)
	if err != nil {
		return nil, fmt.Errorf("remoteok: %w", err)
	}

	var jobs []remoteOKJob
	if err := json.Unmarshal(body, &jobs); err != nil {
		return nil, fmt.Errorf("remoteok: decode: %w", err)
	}

	now := s.now()
	raw := make([]data.Listing, 0, MaxListingsPerSource)
	for i, job := range jobs {
		if i >= MaxListingsPerSource {
			break
		}
		if len(job.Tags) == 0 || !isMarketingJob(job) {
			continue
		}
		raw = append(raw, s.toListing(job, now))
	}

	return finalize(raw, s.language, now), nil
}

func isMarketingJob(job remoteOKJob) bool {
	tags := strings.ToLower(strings.Join(job.Tags, " "))
	description := strings.ToLower(job.Description)
	return matchers.MatchesPartially(tags, "marketing") ||
		matchers.MatchesPartially(tags, "social") ||
		matchers.MatchesPartially(description, "social media") ||
		matchers.MatchesPartially(description, "marketing")
}

func (s *RemoteOKSource) toListing(job remoteOKJob, now time.Time) data.Listing {
	title := job.Position
	if title == "" {
		title = remoteOKDefaultTitle
	}
	company := job.Company
	if company == "" {
		company = remoteOKDefaultCompany
	}
	link := job.URL
	if link == "" {
		link = remoteOKJobURL + job.ID.String()
	}

	salaryMin := job.SalaryMin.Float()
	if salaryMin == 0 {
		salaryMin = remoteOKDefaultSalaryMin
	}
	salaryMax := job.SalaryMax.Float()
	if salaryMax == 0 {
		salaryMax = remoteOKDefaultSalaryMax
	}

	return data.Listing{
		ExternalURL:   link,
		SourceName:    s.Name(),
		Title:         title,
		Company:       company,
		Description:   stripHTML(job.Description),
		Location:      "Remote",
		RemoteAllowed: true,
		RateType:      enums.RateTypeMonthly,
		RateMin:       math.Floor(salaryMin / 12),
		RateMax:       math.Floor(salaryMax / 12),
		Skills:        job.Tags,
		DatePosted:    postedAt(job, now),
		Status:        enums.ListingStatusActive,
	}
}

// postedAt prefers the epoch field and falls back to date, which the API has
// served both as epoch seconds and as an RFC 3339 string.
func postedAt(job remoteOKJob, now time.Time) time.Time {
	if secs := job.Epoch.Int(); secs > 0 {
		return time.Unix(secs, 0).UTC()
	}
	if secs := job.Date.Int(); secs > 0 {
		return time.Unix(secs, 0).UTC()
	}
	if t, err := time.Parse(time.RFC3339, job.Date.String()); err == nil {
		return t
	}
	return now
}
