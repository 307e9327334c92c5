package matchers

import (
	"strings"

	"github.com/kova98/gigscout.api/data"
)

// MatchesPreferences reports whether a listing satisfies a user's skill and
// rate preferences. Unset preferences never exclude a listing.
func MatchesPreferences(listing data.Listing, pref data.UserEmailPreference) bool {
	return matchesSkills(listing.Skills, pref.Skills) && matchesRate(listing, pref)
}

func matchesSkills(listingSkills, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, w := range wanted {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		for _, s := range listingSkills {
			if MatchesPartially(strings.ToLower(s), w) {
				return true
			}
		}
	}
	return false
}

// matchesRate treats a zero bound the same as a missing one.
func matchesRate(listing data.Listing, pref data.UserEmailPreference) bool {
	if pref.MinRate != nil && *pref.MinRate > 0 && listing.RateMin < *pref.MinRate {
		return false
	}
	if pref.MaxRate != nil && *pref.MaxRate > 0 && listing.RateMax > *pref.MaxRate {
		return false
	}
	return true
}
