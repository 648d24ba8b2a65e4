package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/librisapp/libris-server/internal/domain"
)

func TestReplaceAndGetPreferenceVector(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUserAndBooks(t, s, "user-1")

	vec := &domain.PreferenceVector{
		UserID: "user-1",
		Entries: []domain.PreferenceEntry{
			{Token: "mystery", Weight: 0.6},
			{Token: "horror", Weight: 0.4},
		},
		ComputedAt: time.Now(),
	}
	if err := s.ReplacePreferenceVector(ctx, vec); err != nil {
		t.Fatalf("replace vector: %v", err)
	}

	got, err := s.GetPreferenceVector(ctx, "user-1")
	if err != nil {
		t.Fatalf("get vector: %v", err)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(got.Entries))
	}
	// Insertion order survives the round trip.
	if got.Entries[0].Token != "mystery" || got.Entries[1].Token != "horror" {
		t.Errorf("entry order = %v", got.Entries)
	}
	if got.Entries[0].Weight != 0.6 {
		t.Errorf("mystery weight = %v", got.Entries[0].Weight)
	}
}

func TestReplacePreferenceVector_Overwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUserAndBooks(t, s, "user-1")

	first := &domain.PreferenceVector{
		UserID:     "user-1",
		Entries:    []domain.PreferenceEntry{{Token: "mystery", Weight: 1.0}},
		ComputedAt: time.Now(),
	}
	if err := s.ReplacePreferenceVector(ctx, first); err != nil {
		t.Fatalf("first replace: %v", err)
	}

	second := &domain.PreferenceVector{
		UserID: "user-1",
		Entries: []domain.PreferenceEntry{
			{Token: "science fiction", Weight: 0.5},
			{Token: "mystery", Weight: 0.5},
		},
		ComputedAt: time.Now(),
	}
	if err := s.ReplacePreferenceVector(ctx, second); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	got, err := s.GetPreferenceVector(ctx, "user-1")
	if err != nil {
		t.Fatalf("get vector: %v", err)
	}
	// Whole-vector replacement: no residue of the first vector's weights.
	if len(got.Entries) != 2 || got.Entries[0].Token != "science fiction" {
		t.Errorf("entries = %v", got.Entries)
	}
}

func TestGetPreferenceVector_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetPreferenceVector(context.Background(), "user-missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPopularityCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUserAndBooks(t, s, "user-1", "book-x", "book-y", "book-z")
	seedUserAndBooks(t, s, "user-2")

	// book-x: 2 borrows + 1 review; book-y: 1 borrow; book-z: nothing.
	for i, b := range []struct{ id, user, book string }{
		{"brw-1", "user-1", "book-x"},
		{"brw-2", "user-2", "book-x"},
		{"brw-3", "user-1", "book-y"},
	} {
		if err := s.CreateBorrow(ctx, makeTestBorrow(b.id, b.user, b.book)); err != nil {
			t.Fatalf("borrow %d: %v", i, err)
		}
	}
	if err := s.CreateReview(ctx, makeTestReview("rev-1", "user-1", "book-x", 5)); err != nil {
		t.Fatalf("review: %v", err)
	}

	counts, err := s.PopularityCounts(ctx)
	if err != nil {
		t.Fatalf("popularity counts: %v", err)
	}

	if counts["book-x"] != 3 {
		t.Errorf("book-x count = %d, want 3", counts["book-x"])
	}
	if counts["book-y"] != 1 {
		t.Errorf("book-y count = %d, want 1", counts["book-y"])
	}
	if count, ok := counts["book-z"]; !ok || count != 0 {
		t.Errorf("book-z count = %d (present=%v), want 0", count, ok)
	}
}
