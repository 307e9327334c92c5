package sources

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kova98/gigscout.api/data"
	"github.com/kova98/gigscout.api/enums"
	"github.com/kova98/gigscout.api/matchers"
)

// MaxListingsPerSource bounds how many items one source contributes per run.
const MaxListingsPerSource = 20

const (
	defaultLocation = "Various"
	defaultRateMin  = 25
	defaultRateMax  = 100
)

// Source fetches listings from one job board. Returned listings are already
// normalized, scored and filtered.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]data.Listing, error)
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

func stripHTML(s string) string {
	return strings.TrimSpace(htmlTag.ReplaceAllString(s, ""))
}

// finalize defaults missing fields, scores every listing and keeps only the
// relevant ones, at most MaxListingsPerSource.
func finalize(raw []data.Listing, gate *LanguageGate, now time.Time) []data.Listing {
	out := make([]data.Listing, 0, min(len(raw), MaxListingsPerSource))
	for _, l := range raw {
		if len(out) == MaxListingsPerSource {
			break
		}
		if l.ExternalURL == "" {
			continue
		}

		normalize(&l, now)
		l.RelevanceScore = matchers.Score(l.Title, l.Description, l.Company)
		if l.RelevanceScore < matchers.MinRelevance {
			continue
		}
		if !gate.Allows(l.Description) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func normalize(l *data.Listing, now time.Time) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.Title = strings.Join(strings.Fields(l.Title), " ")
	l.Company = strings.TrimSpace(l.Company)
	l.Description = strings.TrimSpace(l.Description)
	if strings.TrimSpace(l.Location) == "" {
		l.Location = defaultLocation
	}
	if l.RateType == "" {
		l.RateType = enums.RateTypeHourly
	}
	if l.RateMin == 0 && l.RateMax == 0 {
		l.RateMin, l.RateMax = defaultRateMin, defaultRateMax
	}
	if l.RateMax < l.RateMin {
		l.RateMin, l.RateMax = l.RateMax, l.RateMin
	}
	l.Skills = matchers.MergeSkills(l.Skills, matchers.ExtractSkills(l.Description)...)
	if l.DatePosted.IsZero() {
		l.DatePosted = now
	}
	if l.Status == "" {
		l.Status = enums.ListingStatusActive
	}
}

var errSourcePanic = errors.New("source panicked")
