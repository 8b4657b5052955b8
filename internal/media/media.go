package media

import "strings"

// Type identifies the kind of media a candidate or job targets.
type Type string

const (
	TypeMovie Type = "movie"
	TypeTV    Type = "tv"
	TypeBoth  Type = "both"
)

// ParseType converts a string into a known media type.
func ParseType(value string) (Type, bool) {
	normalized := Type(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case TypeMovie, TypeTV, TypeBoth:
		return normalized, true
	}
	return "", false
}

// Matches reports whether a concrete candidate type satisfies a job-level
// type selector. "both" accepts movies and TV.
func (t Type) Matches(candidate Type) bool {
	if t == TypeBoth {
		return candidate == TypeMovie || candidate == TypeTV
	}
	return t == candidate
}

// Key identifies a title across providers: external id plus media type.
// Two candidates with the same key refer to the same title.
type Key struct {
	ID        int64
	MediaType Type
}

// Candidate is a provider-returned title normalized at the resolver boundary.
// Provider-specific field names never leak past this shape.
type Candidate struct {
	ID          int64
	MediaType   Type
	Title       string
	Rating      float64
	VoteCount   int64
	Genres      []int
	Language    string
	Year        int
	SeasonCount int
	Services    []string
	Rationale   string
}

// Key returns the dedup key for the candidate.
func (c Candidate) Key() Key {
	return Key{ID: c.ID, MediaType: c.MediaType}
}

// Rated reports whether the provider supplied a usable rating. TMDB returns
// a zero vote average with zero votes for unrated titles.
func (c Candidate) Rated() bool {
	return c.Rating > 0 || c.VoteCount > 0
}

// HasGenre reports whether the candidate carries the given genre id.
func (c Candidate) HasGenre(id int) bool {
	for _, g := range c.Genres {
		if g == id {
			return true
		}
	}
	return false
}
