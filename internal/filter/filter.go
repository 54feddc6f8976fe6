package filter

import (
	"strings"

	"ArtistScout/internal/dedup"
	"ArtistScout/internal/domain"
)

// Rules configures the pure, rule-based candidate gate. Zero values
// disable the corresponding rule.
type Rules struct {
	ExcludedKeywords []string `yaml:"excludedKeywords"`
	TargetLanguages  []string `yaml:"targetLanguages"`
	MaxViewCount     int64    `yaml:"maxViewCount"`
	KnownArtists     []string `yaml:"knownArtists"`
}

// Filter rejects candidates that cannot be emerging artists. Rules run
// in a fixed order and the first failing rule short-circuits with its
// reason code.
type Filter struct {
	keywords  []string
	languages map[string]struct{}
	maxViews  int64
	known     []string
}

// New precomputes normalized rule inputs.
func New(rules Rules) *Filter {
	f := &Filter{maxViews: rules.MaxViewCount}

	for _, kw := range rules.ExcludedKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			f.keywords = append(f.keywords, kw)
		}
	}
	if len(rules.TargetLanguages) > 0 {
		f.languages = make(map[string]struct{}, len(rules.TargetLanguages))
		for _, lang := range rules.TargetLanguages {
			f.languages[strings.ToLower(strings.TrimSpace(lang))] = struct{}{}
		}
	}
	for _, name := range rules.KnownArtists {
		if name = dedup.NormalizeName(name); name != "" {
			f.known = append(f.known, name)
		}
	}
	return f
}

// Check returns ok=true when the candidate passes every rule, otherwise
// the reason of the first rule it failed.
func (f *Filter) Check(c domain.Candidate) (domain.RejectReason, bool) {
	text := strings.ToLower(c.Title + " " + c.Description)
	for _, kw := range f.keywords {
		if strings.Contains(text, kw) {
			return domain.ReasonExcludedKeyword, false
		}
	}

	if f.languages != nil && c.Language != "" {
		if _, ok := f.languages[strings.ToLower(c.Language)]; !ok {
			return domain.ReasonNonTargetLanguage, false
		}
	}

	if f.maxViews > 0 && c.ViewCount > f.maxViews {
		return domain.ReasonTooPopular, false
	}

	// Whole-word containment on the normalized channel name; a new artist
	// whose name merely embeds a famous one as a substring is not caught.
	name := dedup.NormalizeName(c.ChannelName)
	for _, known := range f.known {
		if containsWholeName(name, known) {
			return domain.ReasonKnownArtist, false
		}
	}

	return "", true
}

func containsWholeName(haystack, needle string) bool {
	if haystack == "" || needle == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}
