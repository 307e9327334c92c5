package matchers

import (
	"math"
	"strings"
)

const (
	MinScore = 0
	MaxScore = 10

	// MinRelevance is the lowest score a listing may have to be kept at ingestion.
	MinRelevance = 3
	// PerfectMatchScore is the lowest score treated as a perfect match.
	PerfectMatchScore = 8
)

type keywordTier struct {
	weight   float64
	keywords []string
}

var scoringTiers = []keywordTier{
	{weight: 2, keywords: []string{
		"social media marketing", "instagram marketing", "facebook marketing",
		"tiktok marketing", "youtube marketing", "linkedin marketing",
		"social media strategy", "community management", "influencer marketing",
	}},
	{weight: 1.5, keywords: []string{
		"social media", "content marketing", "digital marketing",
		"paid social", "social advertising", "brand management",
		"engagement strategy", "social analytics",
	}},
	{weight: 1, keywords: []string{
		"marketing", "content", "creative", "brand", "campaigns",
		"analytics", "engagement", "growth", "advertising",
	}},
	{weight: -2, keywords: []string{
		"engineer", "developer", "backend", "frontend", "software",
		"technical", "coding", "programming", "qa", "devops",
	}},
}

const (
	titlePhrase      = "social media"
	titlePhraseBonus = 1.0
	titleWord        = "marketing"
	titleWordBonus   = 0.5
)

// Score rates how well a listing fits social media marketing work, from 0 to 10.
// Each keyword contributes its tier weight once when it occurs anywhere in the
// title, description or company.
func Score(title, description, company string) int {
	lowerTitle := strings.ToLower(title)
	text := lowerTitle + " " + strings.ToLower(description) + " " + strings.ToLower(company)

	var score float64
	for _, tier := range scoringTiers {
		for _, kw := range tier.keywords {
			if MatchesPartially(text, kw) {
				score += tier.weight
			}
		}
	}

	if MatchesPartially(lowerTitle, titlePhrase) {
		score += titlePhraseBonus
	}
	if MatchesPartially(lowerTitle, titleWord) {
		score += titleWordBonus
	}

	return clampScore(RoundHalfUp(score))
}

func clampScore(score int) int {
	return max(MinScore, min(MaxScore, score))
}

// RoundHalfUp rounds to the nearest integer with .5 going towards positive infinity.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

var skillVocabulary = []string{
	"Instagram", "Facebook", "TikTok", "YouTube", "LinkedIn",
	"Twitter", "Pinterest", "Snapchat", "Content Creation",
	"Paid Advertising", "Analytics", "Community Management",
	"Influencer Relations", "SEO", "SEM", "Google Ads",
	"Facebook Ads", "Hootsuite", "Buffer", "Sprout Social",
	"Canva", "Adobe Creative Suite", "Video Editing",
}

// ExtractSkills returns the vocabulary entries mentioned in description, in
// vocabulary order and without duplicates.
func ExtractSkills(description string) []string {
	text := strings.ToLower(description)
	skills := make([]string, 0, 4)
	for _, skill := range skillVocabulary {
		if MatchesPartially(text, strings.ToLower(skill)) {
			skills = append(skills, skill)
		}
	}
	return skills
}

// MergeSkills appends extra skills to base, skipping case-insensitive duplicates
// and blanks. First-seen order is kept.
func MergeSkills(base []string, extra ...string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	merged := make([]string, 0, len(base)+len(extra))
	for _, s := range append(append([]string{}, base...), extra...) {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, s)
	}
	return merged
}
