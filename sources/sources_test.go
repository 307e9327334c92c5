package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kova98/gigscout.api/data"
	"github.com/kova98/gigscout.api/enums"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func directClients() ClientProvider {
	return NewDirectClient(&http.Client{Timeout: 5 * time.Second})
}

const indeedFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Indeed jobs</title>
<item>
<title>Social Media Marketing Manager - Acme</title>
<link>https://www.indeed.com/viewjob?jk=1</link>
<description>&lt;p&gt;Own our social media strategy and Instagram marketing. Remote friendly.&lt;/p&gt;</description>
<pubDate>Mon, 05 Oct 2026 10:00:00 GMT</pubDate>
</item>
<item>
<title>Backend Engineer - Initech</title>
<link>https://www.indeed.com/viewjob?jk=2</link>
<description>Go software developer, devops</description>
</item>
</channel>
</rss>`

func TestIndeedSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, indeedFeed)
	}))
	defer srv.Close()

	src := NewIndeedSource(srv.URL, directClients(), nil)
	src.now = func() time.Time { return fixedNow }

	listings, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)

	l := listings[0]
	assert.Equal(t, "https://www.indeed.com/viewjob?jk=1", l.ExternalURL)
	assert.Equal(t, "Indeed", l.SourceName)
	assert.Equal(t, "Social Media Marketing Manager", l.Title)
	assert.Equal(t, "Acme", l.Company)
	assert.Equal(t, "Own our social media strategy and Instagram marketing. Remote friendly.", l.Description)
	assert.Equal(t, "Various", l.Location)
	assert.True(t, l.RemoteAllowed)
	assert.Equal(t, enums.RateTypeHourly, l.RateType)
	assert.Equal(t, 25.0, l.RateMin)
	assert.Equal(t, 100.0, l.RateMax)
	assert.Equal(t, []string{"Instagram"}, []string(l.Skills))
	assert.Equal(t, 10, l.RelevanceScore)
	assert.True(t, l.DatePosted.Equal(time.Date(2026, 10, 5, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, enums.ListingStatusActive, l.Status)
}

func TestIndeedSource_ConsidersFirstTwentyItems(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>`)
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, `<item><title>Social Media Manager %d - Acme</title><link>https://indeed.test/%d</link><description>social media marketing</description></item>`, i, i)
	}
	b.WriteString(`</channel></rss>`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, b.String())
	}))
	defer srv.Close()

	listings, err := NewIndeedSource(srv.URL, directClients(), nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, listings, MaxListingsPerSource)
	assert.Equal(t, "https://indeed.test/19", listings[19].ExternalURL)
}

func TestIndeedSource_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			fmt.Fprint(w, "not a feed")
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewIndeedSource(srv.URL, directClients(), nil).Fetch(context.Background())
	assert.Error(t, err)

	_, err = NewIndeedSource(srv.URL+"/broken", directClients(), nil).Fetch(context.Background())
	assert.Error(t, err)
}

func TestSplitIndeedTitle(t *testing.T) {
	title, company := splitIndeedTitle("Community Manager - Acme - Berlin")
	assert.Equal(t, "Community Manager", title)
	assert.Equal(t, "Acme", company)

	title, company = splitIndeedTitle("Community Manager")
	assert.Equal(t, "Community Manager", title)
	assert.Equal(t, "Company", company)
}

const remoteOKBody = `[
{"legal":"API Terms of Service"},
{"id":"101","position":"Social Media Manager","company":"Acme","description":"Social media marketing and content for our brand","url":"https://remoteok.io/remote-jobs/101","epoch":1760000000,"date":"2025-10-09T08:53:20+00:00","tags":["marketing","social media"],"salary_min":60000,"salary_max":90000},
{"id":102,"position":"","company":"","description":"Lead social media marketing campaigns","tags":["social"],"date":1760000000},
{"id":"103","position":"Go Developer","description":"backend","tags":["golang"]}
]`

func TestRemoteOKSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, remoteOKBody)
	}))
	defer srv.Close()

	src := NewRemoteOKSource(srv.URL, directClients(), nil)
	src.now = func() time.Time { return fixedNow }

	listings, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 2)

	first := listings[0]
	assert.Equal(t, "https://remoteok.io/remote-jobs/101", first.ExternalURL)
	assert.Equal(t, "RemoteOK", first.SourceName)
	assert.Equal(t, "Social Media Manager", first.Title)
	assert.Equal(t, "Remote", first.Location)
	assert.True(t, first.RemoteAllowed)
	assert.Equal(t, enums.RateTypeMonthly, first.RateType)
	assert.Equal(t, 5000.0, first.RateMin)
	assert.Equal(t, 7500.0, first.RateMax)
	assert.Equal(t, []string{"marketing", "social media"}, []string(first.Skills))
	assert.Equal(t, 8, first.RelevanceScore)
	assert.Equal(t, int64(1760000000), first.DatePosted.Unix())

	second := listings[1]
	assert.Equal(t, "https://remoteok.io/remote-jobs/102", second.ExternalURL)
	assert.Equal(t, "Marketing Position", second.Title)
	assert.Equal(t, "Remote Company", second.Company)
	assert.Equal(t, 4166.0, second.RateMin)
	assert.Equal(t, 8333.0, second.RateMax)
	assert.Equal(t, 6, second.RelevanceScore)
	assert.Equal(t, int64(1760000000), second.DatePosted.Unix())
}

func TestRemoteOKSource_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"not":"an array"}`)
	}))
	defer srv.Close()

	_, err := NewRemoteOKSource(srv.URL, directClients(), nil).Fetch(context.Background())
	assert.Error(t, err)
}

func TestSampleSource_Fetch(t *testing.T) {
	src := NewSampleSource(nil)
	src.now = func() time.Time { return fixedNow }

	first, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := src.Fetch(context.Background())
	require.NoError(t, err)

	for i, l := range first {
		assert.Equal(t, "AngelList", l.SourceName)
		assert.Equal(t, enums.RateTypeHourly, l.RateType)
		assert.GreaterOrEqual(t, l.RelevanceScore, 3)
		assert.Equal(t, l.ExternalURL, second[i].ExternalURL, "urls are stable across runs")
		assert.NotEqual(t, l.ID, second[i].ID)
	}
	assert.Equal(t, "https://angel.co/company/jobs/techstart-inc-social-media-marketing-manager", first[0].ExternalURL)
	assert.Equal(t, 10, first[0].RelevanceScore)
	assert.Equal(t, 5, first[1].RelevanceScore)
	assert.Equal(t, 7, first[2].RelevanceScore)
}

func TestFinalize(t *testing.T) {
	raw := []data.Listing{
		{ExternalURL: "https://a", Title: "Backend Engineer", Description: "software devops"},
		{ExternalURL: "", Title: "Social Media Marketing Manager"},
		{ExternalURL: "https://b", Title: "Social Media Marketing Manager", RateMin: 90, RateMax: 40},
	}

	out := finalize(raw, nil, fixedNow)
	require.Len(t, out, 1)

	l := out[0]
	assert.Equal(t, "https://b", l.ExternalURL)
	assert.Equal(t, "Various", l.Location)
	assert.Equal(t, enums.RateTypeHourly, l.RateType)
	assert.Equal(t, 40.0, l.RateMin)
	assert.Equal(t, 90.0, l.RateMax)
	assert.Equal(t, fixedNow, l.DatePosted)
	assert.Equal(t, enums.ListingStatusActive, l.Status)
	assert.NotEqual(t, "", l.ID.String())
}

func TestFinalize_DefaultRate(t *testing.T) {
	out := finalize([]data.Listing{{ExternalURL: "https://c", Title: "Social Media Marketing"}}, nil, fixedNow)
	require.Len(t, out, 1)
	assert.Equal(t, 25.0, out[0].RateMin)
	assert.Equal(t, 100.0, out[0].RateMax)
}

func TestNormalize_CollapsesTitleWhitespace(t *testing.T) {
	l := data.Listing{Title: " Social Media Manager\r\nBcc: attacker@evil.com\t"}
	normalize(&l, fixedNow)
	assert.Equal(t, "Social Media Manager Bcc: attacker@evil.com", l.Title)
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Hello world", stripHTML("<p>Hello <b>world</b></p>"))
}

func TestLanguageGate_Nil(t *testing.T) {
	gate, err := NewLanguageGate(nil)
	require.NoError(t, err)
	assert.Nil(t, gate)
	assert.True(t, gate.Allows("Cualquier texto en cualquier idioma debería pasar sin problemas"))
}

func TestLanguageGate_UnknownCode(t *testing.T) {
	_, err := NewLanguageGate([]string{"xx"})
	assert.Error(t, err)
}

func TestLanguageForCode(t *testing.T) {
	lang, ok := languageForCode(" de ")
	assert.True(t, ok)
	assert.Equal(t, "German", lang.String())
}
