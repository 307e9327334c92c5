package matchers

import "strings"

// MatchesPartially reports whether keyword occurs anywhere in text. Both are
// expected to be lowercased already.
func MatchesPartially(text, keyword string) bool {
	return strings.Contains(text, keyword)
}

// ContainsFold is MatchesPartially without the lowercasing precondition.
func ContainsFold(text, keyword string) bool {
	return MatchesPartially(strings.ToLower(text), strings.ToLower(keyword))
}
