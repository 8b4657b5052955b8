package resolver

import (
	"sort"

	"scout/internal/media"
)

type rankedCandidate struct {
	candidate media.Candidate
	rank      int
}

// merger accumulates candidates from multiple seeds, keeping one entry per
// title with its best (lowest) recency rank.
type merger struct {
	entries map[media.Key]rankedCandidate
}

func newMerger() *merger {
	return &merger{entries: make(map[media.Key]rankedCandidate)}
}

func (m *merger) add(candidate media.Candidate, rank int) {
	key := candidate.Key()
	existing, found := m.entries[key]
	if !found || rank < existing.rank {
		m.entries[key] = rankedCandidate{candidate: candidate, rank: rank}
	}
}

// sorted returns the merged candidates in deterministic order: recency
// rank ascending, then rating descending, vote count descending, and
// finally id ascending as the tiebreak. Two runs over the same provider
// responses always produce the same list.
func (m *merger) sorted() []media.Candidate {
	ranked := make([]rankedCandidate, 0, len(m.entries))
	for _, entry := range m.entries {
		ranked = append(ranked, entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		if a.candidate.Rating != b.candidate.Rating {
			return a.candidate.Rating > b.candidate.Rating
		}
		if a.candidate.VoteCount != b.candidate.VoteCount {
			return a.candidate.VoteCount > b.candidate.VoteCount
		}
		return a.candidate.ID < b.candidate.ID
	})

	candidates := make([]media.Candidate, len(ranked))
	for i, entry := range ranked {
		candidates[i] = entry.candidate
	}
	return candidates
}

// Truncate caps a candidate list at max, preserving order. A non-positive
// max returns the list unchanged.
func Truncate(candidates []media.Candidate, max int) []media.Candidate {
	if max <= 0 || len(candidates) <= max {
		return candidates
	}
	return candidates[:max]
}
