package scraper

import "strings"

const (
	titlePrefix    = "daylist"
	titleSeparator = "•"
)

// ParseTitle extracts the mood phrase from a daylist link title such as "daylist • chill folk monday morning".
//
// Titles that are just "daylist" are [OutcomeAmbiguous]; titles for something else are [OutcomeNotFound].
func ParseTitle(title string) (string, Outcome) {
	title = strings.TrimSpace(title)
	if !strings.HasPrefix(strings.ToLower(title), titlePrefix) {
		return "", OutcomeNotFound
	}

	_, after, ok := strings.Cut(title, titleSeparator)
	if !ok {
		return "", OutcomeAmbiguous
	}

	phrase := strings.TrimSpace(after)
	if phrase == "" {
		return "", OutcomeAmbiguous
	}
	return phrase, OutcomeSuccess
}
