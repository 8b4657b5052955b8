package filter

import (
	"strings"

	"golang.org/x/text/language"

	"scout/internal/jobs"
	"scout/internal/media"
)

// Accepts reports whether a candidate passes every constraint in the filter
// set. Filters only narrow: a zero-valued set accepts everything except
// unrated titles, which require the explicit include_unrated opt-in.
func Accepts(candidate media.Candidate, filters jobs.FilterSet) bool {
	if !candidate.Rated() && !filters.IncludeUnrated {
		return false
	}
	if candidate.Rated() {
		if filters.MinRating > 0 && candidate.Rating < filters.MinRating {
			return false
		}
		if filters.MinVotes > 0 && candidate.VoteCount < filters.MinVotes {
			return false
		}
	}
	for _, genre := range filters.ExcludedGenres {
		if candidate.HasGenre(genre) {
			return false
		}
	}
	if filters.Language != "" && !sameLanguage(filters.Language, candidate.Language) {
		return false
	}
	if filters.YearFrom > 0 && (candidate.Year == 0 || candidate.Year < filters.YearFrom) {
		return false
	}
	if filters.YearTo > 0 && (candidate.Year == 0 || candidate.Year > filters.YearTo) {
		return false
	}
	if filters.MaxSeasons > 0 && candidate.MediaType == media.TypeTV {
		if candidate.SeasonCount == 0 || candidate.SeasonCount > filters.MaxSeasons {
			return false
		}
	}
	if len(filters.ExcludedServices) > 0 && onExcludedService(candidate.Services, filters.ExcludedServices) {
		return false
	}
	return true
}

// Apply filters a candidate slice in order, preserving relative order of
// the survivors.
func Apply(candidates []media.Candidate, filters jobs.FilterSet) []media.Candidate {
	kept := make([]media.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if Accepts(candidate, filters) {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// sameLanguage compares BCP-47 tags by base language, so "en" matches
// "en-US". Malformed tags fall back to a case-insensitive string compare.
func sameLanguage(want, got string) bool {
	if got == "" {
		return false
	}
	wantTag, errWant := language.Parse(want)
	gotTag, errGot := language.Parse(got)
	if errWant != nil || errGot != nil {
		return strings.EqualFold(want, got)
	}
	wantBase, _ := wantTag.Base()
	gotBase, _ := gotTag.Base()
	return wantBase == gotBase
}

func onExcludedService(services, excluded []string) bool {
	for _, service := range services {
		for _, name := range excluded {
			if strings.EqualFold(service, name) {
				return true
			}
		}
	}
	return false
}
