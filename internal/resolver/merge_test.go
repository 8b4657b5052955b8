package resolver

import (
	"testing"

	"scout/internal/media"
)

func TestMergerKeepsBestRank(t *testing.T) {
	m := newMerger()
	candidate := media.Candidate{ID: 550, MediaType: media.TypeMovie, Rating: 8.0}
	m.add(candidate, 3)
	m.add(candidate, 1)
	m.add(candidate, 2)

	sorted := m.sorted()
	if len(sorted) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(sorted))
	}
	if m.entries[candidate.Key()].rank != 1 {
		t.Fatalf("rank = %d, want 1", m.entries[candidate.Key()].rank)
	}
}

func TestMergerOrdering(t *testing.T) {
	m := newMerger()
	m.add(media.Candidate{ID: 4, MediaType: media.TypeMovie, Rating: 9.0}, 1)
	m.add(media.Candidate{ID: 3, MediaType: media.TypeMovie, Rating: 7.0, VoteCount: 100}, 0)
	m.add(media.Candidate{ID: 2, MediaType: media.TypeMovie, Rating: 7.0, VoteCount: 200}, 0)
	m.add(media.Candidate{ID: 5, MediaType: media.TypeMovie, Rating: 7.0, VoteCount: 200}, 0)
	m.add(media.Candidate{ID: 1, MediaType: media.TypeMovie, Rating: 8.0}, 0)

	sorted := m.sorted()
	wantIDs := []int64{1, 2, 5, 3, 4}
	if len(sorted) != len(wantIDs) {
		t.Fatalf("expected %d entries, got %d", len(wantIDs), len(sorted))
	}
	for i, want := range wantIDs {
		if sorted[i].ID != want {
			t.Fatalf("position %d: id %d, want %d (full order %+v)", i, sorted[i].ID, want, sorted)
		}
	}
}

func TestMergerDeterministic(t *testing.T) {
	build := func() []media.Candidate {
		m := newMerger()
		for id := int64(1); id <= 50; id++ {
			m.add(media.Candidate{ID: id, MediaType: media.TypeMovie, Rating: float64(id % 7)}, int(id % 3))
		}
		return m.sorted()
	}
	first := build()
	second := build()
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("order differs at %d: %d vs %d", i, first[i].ID, second[i].ID)
		}
	}
}

func TestTruncate(t *testing.T) {
	candidates := []media.Candidate{{ID: 1}, {ID: 2}, {ID: 3}}
	if got := Truncate(candidates, 2); len(got) != 2 || got[1].ID != 2 {
		t.Fatalf("Truncate(2) = %+v", got)
	}
	if got := Truncate(candidates, 0); len(got) != 3 {
		t.Fatalf("Truncate(0) should not cap, got %d", len(got))
	}
	if got := Truncate(candidates, 10); len(got) != 3 {
		t.Fatalf("Truncate(10) = %d entries", len(got))
	}
}
