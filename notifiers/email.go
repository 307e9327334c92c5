package notifiers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kova98/gigscout.api/data"
	"github.com/kova98/gigscout.api/enums"
	"github.com/kova98/gigscout.api/matchers"
	"github.com/kova98/gigscout.api/models"
)

//go:embed templates/*.html
var emailTemplates embed.FS

var templates = template.Must(template.New("emails").Funcs(template.FuncMap{
	"signed": signed,
	"inc":    func(i int) int { return i + 1 },
}).ParseFS(emailTemplates, "templates/*.html"))

const (
	digestPerfectLimit = 3
	digestGoodLimit    = 5
	goodMatchScore     = 6
	matchSkillsLimit   = 5
)

// Mailer renders the three notification emails.
type Mailer struct {
	from    string
	replyTo string
	appBase string
}

func NewMailer(from, replyTo, appBase string) *Mailer {
	return &Mailer{
		from:    from,
		replyTo: replyTo,
		appBase: strings.TrimRight(appBase, "/"),
	}
}

type listingView struct {
	Title    string
	Company  string
	Location string
	Remote   bool
	Rate     string
	Score    int
	Posted   string
	Skills   []string
	Excerpt  string
	URL      string
}

func newListingView(l data.Listing, now time.Time, excerpt int) listingView {
	url := l.ExternalURL
	if url == "" {
		url = "#"
	}
	return listingView{
		Title:    l.Title,
		Company:  l.Company,
		Location: l.Location,
		Remote:   l.RemoteAllowed,
		Rate:     formatRate(l),
		Score:    l.RelevanceScore,
		Posted:   timeAgo(l.DatePosted, now),
		Skills:   l.Skills,
		Excerpt:  truncate(l.Description, excerpt),
		URL:      url,
	}
}

func (m *Mailer) PerfectMatchEmail(to data.Recipient, listing data.Listing, now time.Time) (models.Email, error) {
	skills := "Various skills"
	if len(listing.Skills) > 0 {
		skills = strings.Join(listing.Skills[:min(len(listing.Skills), matchSkillsLimit)], ", ")
	}

	tmplData := struct {
		Name          string
		Listing       listingView
		SkillsSummary string
		DashboardURL  string
		SettingsURL   string
	}{
		Name:          to.Name(),
		Listing:       newListingView(listing, now, 300),
		SkillsSummary: skills,
		DashboardURL:  m.url("/dashboard"),
		SettingsURL:   m.url("/preferences"),
	}

	return m.render(to.Email, "🎯 Perfect Match Found: "+listing.Title, "perfect_match.html", tmplData)
}

// DailyDigestEmail expects listings sorted by score, best first.
func (m *Mailer) DailyDigestEmail(to data.Recipient, listings []data.Listing, now time.Time) (models.Email, error) {
	if len(listings) == 0 {
		return models.Email{}, ErrNoListings
	}

	var perfect, good []listingView
	perfectCount, goodCount, otherCount := 0, 0, 0
	for _, l := range listings {
		switch {
		case l.RelevanceScore >= matchers.PerfectMatchScore:
			perfectCount++
			if len(perfect) < digestPerfectLimit {
				perfect = append(perfect, newListingView(l, now, 150))
			}
		case l.RelevanceScore >= goodMatchScore:
			goodCount++
			if len(good) < digestGoodLimit {
				good = append(good, newListingView(l, now, 150))
			}
		default:
			otherCount++
		}
	}

	tmplData := struct {
		Name          string
		Date          string
		Total         int
		PerfectCount  int
		GoodCount     int
		OtherCount    int
		Perfect       []listingView
		Good          []listingView
		TopSkills     string
		AvgRate       int
		RemotePercent int
		TopCompanies  string
		DashboardURL  string
		SettingsURL   string
	}{
		Name:          to.Name(),
		Date:          now.Format("Monday, January 2, 2006"),
		Total:         len(listings),
		PerfectCount:  perfectCount,
		GoodCount:     goodCount,
		OtherCount:    otherCount,
		Perfect:       perfect,
		Good:          good,
		TopSkills:     joinOr(topNames(skillCounts(listings), 3), "Instagram Marketing, TikTok Content, Facebook Ads"),
		AvgRate:       averageHourlyRate(listings, defaultAvgRate),
		RemotePercent: remotePercent(listings, 0),
		TopCompanies:  joinOr(topNames(companyCounts(listings), 3), "TechStart Inc, GrowthCo, InnovateLabs"),
		DashboardURL:  m.url("/dashboard"),
		SettingsURL:   m.url("/preferences"),
	}

	subject := fmt.Sprintf("📬 Your Daily Opportunity Digest - %d New Jobs", len(listings))
	return m.render(to.Email, subject, "daily_digest.html", tmplData)
}

func (m *Mailer) WeeklyTrendsEmail(to data.Recipient, trends models.Trends) (models.Email, error) {
	tmplData := struct {
		Name         string
		Trends       models.Trends
		DashboardURL string
		SettingsURL  string
	}{
		Name:         to.Name(),
		Trends:       trends,
		DashboardURL: m.url("/dashboard"),
		SettingsURL:  m.url("/preferences"),
	}

	return m.render(to.Email, "📊 Weekly Market Trends & Insights", "weekly_trends.html", tmplData)
}

func (m *Mailer) render(to, subject, name string, tmplData any) (models.Email, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, tmplData); err != nil {
		return models.Email{}, fmt.Errorf("render %s: %w", name, err)
	}

	return models.Email{
		From:    m.from,
		ReplyTo: m.replyTo,
		To:      to,
		Subject: subject,
		Body:    buf.String(),
	}, nil
}

func (m *Mailer) url(path string) string {
	return m.appBase + path
}

func formatRate(l data.Listing) string {
	lo := formatAmount(l.RateMin)
	switch l.RateType {
	case enums.RateTypeHourly:
		if l.RateMin == l.RateMax {
			return "$" + lo + "/hour"
		}
		return "$" + lo + "-" + formatAmount(l.RateMax) + "/hour"
	case enums.RateTypeMonthly:
		return "$" + lo + "/month"
	default:
		return "$" + lo + " project"
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func timeAgo(posted, now time.Time) string {
	hours := int(now.Sub(posted).Hours())
	switch {
	case hours < 1:
		return "just now"
	case hours < 24:
		return fmt.Sprintf("%d hours ago", hours)
	case hours < 48:
		return "1 day ago"
	default:
		return fmt.Sprintf("%d days ago", hours/24)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func signed(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

type nameCount struct {
	name  string
	count int
}

// ranked sorts counts by count descending, then name.
func ranked(counts map[string]int) []nameCount {
	out := make([]nameCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, nameCount{name: name, count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}

func topNames(counts map[string]int, n int) []string {
	r := ranked(counts)
	names := make([]string, 0, n)
	for i := 0; i < len(r) && i < n; i++ {
		names = append(names, r[i].name)
	}
	return names
}

func joinOr(names []string, fallback string) string {
	if len(names) == 0 {
		return fallback
	}
	return strings.Join(names, ", ")
}
