package notifiers

import (
	"fmt"

	"github.com/kova98/gigscout.api/data"
	"github.com/kova98/gigscout.api/enums"
	"github.com/kova98/gigscout.api/matchers"
	"github.com/kova98/gigscout.api/models"
)

const (
	defaultAvgRate         = 75
	defaultRemotePercent   = 67
	defaultLastRemotePct   = 60
	defaultTopSkill        = "Instagram Marketing"
	trendTopSkills         = 5
	trendTopCompanies      = 5
	industryDemandInsight  = "E-commerce and SaaS companies showing highest demand"
	newSkillGrowth         = 100
	emptyPriorPeriodGrowth = 100
	percentScale           = 100
)

var baseRecommendations = []string{
	"Focus on building a strong portfolio showcasing Instagram and TikTok content",
	"Consider specializing in video content creation as demand is growing",
	"Remote opportunities are abundant - expand your search globally",
}

var fallbackSkillTrends = []models.SkillTrend{
	{Name: "Instagram Marketing", Count: 15, Growth: 20},
	{Name: "TikTok Content", Count: 12, Growth: 25},
	{Name: "Facebook Ads", Count: 10, Growth: 15},
	{Name: "Content Creation", Count: 8, Growth: 10},
	{Name: "Analytics", Count: 6, Growth: 5},
}

var fallbackCompanies = []models.CompanyCount{
	{Name: "TechStart Inc", JobCount: 5},
	{Name: "GrowthCo", JobCount: 4},
	{Name: "InnovateLabs", JobCount: 3},
}

// ComputeTrends compares the trailing week against the week before it.
func ComputeTrends(thisWeek, lastWeek []data.Listing) models.Trends {
	jobGrowth := emptyPriorPeriodGrowth
	if len(lastWeek) > 0 {
		jobGrowth = percentChange(float64(len(thisWeek)), float64(len(lastWeek)))
	}

	avgRate := averageHourlyRate(thisWeek, defaultAvgRate)
	lastAvgRate := averageHourlyRate(lastWeek, defaultAvgRate)
	rateChange := 0
	if lastAvgRate > 0 {
		rateChange = percentChange(float64(avgRate), float64(lastAvgRate))
	}

	remote := remotePercent(thisWeek, defaultRemotePercent)
	lastRemote := remotePercent(lastWeek, defaultLastRemotePct)

	topSkills := skillTrends(thisWeek, lastWeek)
	topSkill := defaultTopSkill
	if len(topSkills) > 0 {
		topSkill = topSkills[0].Name
	}

	return models.Trends{
		TotalJobs:       len(thisWeek),
		JobGrowth:       jobGrowth,
		AvgRate:         avgRate,
		RateChange:      rateChange,
		RemotePercent:   remote,
		RemoteGrowth:    remote - lastRemote,
		TopSkills:       topSkills,
		TopCompanies:    companyTrends(thisWeek),
		Insights:        insights(topSkill, avgRate, remote),
		Recommendations: recommendations(thisWeek),
	}
}

// DefaultTrends is sent when the listing history cannot be read.
func DefaultTrends() models.Trends {
	return models.Trends{
		TotalJobs:     156,
		JobGrowth:     12,
		AvgRate:       78,
		RateChange:    5,
		RemotePercent: 67,
		RemoteGrowth:  8,
		TopSkills: []models.SkillTrend{
			{Name: "Instagram Marketing", Count: 45, Growth: 15},
			{Name: "TikTok Content", Count: 38, Growth: 22},
			{Name: "Facebook Ads", Count: 32, Growth: 8},
			{Name: "Content Creation", Count: 28, Growth: 12},
			{Name: "Analytics", Count: 24, Growth: 6},
		},
		TopCompanies: []models.CompanyCount{
			{Name: "TechStart Inc", JobCount: 8},
			{Name: "GrowthCo", JobCount: 6},
			{Name: "InnovateLabs", JobCount: 5},
		},
		Insights: models.TrendInsights{
			PlatformFocus:  "Instagram Marketing continues to dominate job requirements",
			IndustryDemand: industryDemandInsight,
			RateTrends:     "Average hourly rates increased to $78/hour",
			Geography:      "67% of opportunities offer remote work options",
		},
		Recommendations: append(append([]string{}, baseRecommendations...),
			"Consider upskilling in TikTok Content - it's currently in high demand"),
	}
}

func percentChange(current, previous float64) int {
	return matchers.RoundHalfUp((current - previous) / previous * percentScale)
}

// averageHourlyRate is the rounded mean of range midpoints over hourly listings.
func averageHourlyRate(listings []data.Listing, fallback int) int {
	var sum float64
	n := 0
	for _, l := range listings {
		if l.RateType != enums.RateTypeHourly {
			continue
		}
		sum += (l.RateMin + l.RateMax) / 2
		n++
	}
	if n == 0 {
		return fallback
	}
	return matchers.RoundHalfUp(sum / float64(n))
}

func remotePercent(listings []data.Listing, fallback int) int {
	if len(listings) == 0 {
		return fallback
	}
	remote := 0
	for _, l := range listings {
		if l.RemoteAllowed {
			remote++
		}
	}
	return matchers.RoundHalfUp(float64(remote) / float64(len(listings)) * percentScale)
}

func skillCounts(listings []data.Listing) map[string]int {
	counts := make(map[string]int)
	for _, l := range listings {
		for _, s := range l.Skills {
			counts[s]++
		}
	}
	return counts
}

func companyCounts(listings []data.Listing) map[string]int {
	counts := make(map[string]int)
	for _, l := range listings {
		counts[l.Company]++
	}
	return counts
}

func skillTrends(thisWeek, lastWeek []data.Listing) []models.SkillTrend {
	if len(thisWeek) == 0 {
		return append([]models.SkillTrend{}, fallbackSkillTrends...)
	}

	previous := skillCounts(lastWeek)
	top := ranked(skillCounts(thisWeek))
	out := make([]models.SkillTrend, 0, trendTopSkills)
	for i := 0; i < len(top) && i < trendTopSkills; i++ {
		growth := newSkillGrowth
		if prev := previous[top[i].name]; prev > 0 {
			growth = percentChange(float64(top[i].count), float64(prev))
		}
		out = append(out, models.SkillTrend{Name: top[i].name, Count: top[i].count, Growth: growth})
	}
	return out
}

func companyTrends(listings []data.Listing) []models.CompanyCount {
	if len(listings) == 0 {
		return append([]models.CompanyCount{}, fallbackCompanies...)
	}

	top := ranked(companyCounts(listings))
	out := make([]models.CompanyCount, 0, trendTopCompanies)
	for i := 0; i < len(top) && i < trendTopCompanies; i++ {
		out = append(out, models.CompanyCount{Name: top[i].name, JobCount: top[i].count})
	}
	return out
}

func insights(topSkill string, avgRate, remote int) models.TrendInsights {
	direction := "remained stable"
	if avgRate > defaultAvgRate {
		direction = "increased"
	}
	return models.TrendInsights{
		PlatformFocus:  topSkill + " continues to dominate job requirements",
		IndustryDemand: industryDemandInsight,
		RateTrends:     fmt.Sprintf("Average hourly rates %s at $%d/hour", direction, avgRate),
		Geography:      fmt.Sprintf("%d%% of opportunities offer remote work options", remote),
	}
}

func recommendations(listings []data.Listing) []string {
	recs := append([]string{}, baseRecommendations...)
	if top := topNames(skillCounts(listings), 1); len(top) > 0 {
		recs = append(recs, fmt.Sprintf("Consider upskilling in %s - it's currently in high demand", top[0]))
	}
	return recs
}
