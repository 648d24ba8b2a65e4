package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichmentJob_Lifecycle(t *testing.T) {
	job := &EnrichmentJob{
		ID:       "job-1",
		Kind:     EnrichBookSummary,
		EntityID: "book-1",
		Status:   EnrichmentStatusPending,
	}

	assert.False(t, job.IsTerminal())
	assert.Equal(t, 0, job.Attempts)

	job.MarkRunning()
	assert.Equal(t, EnrichmentStatusRunning, job.Status)
	assert.Equal(t, 1, job.Attempts)
	require.NotNil(t, job.StartedAt)

	job.MarkSucceeded()
	assert.Equal(t, EnrichmentStatusSucceeded, job.Status)
	assert.True(t, job.IsTerminal())
	require.NotNil(t, job.CompletedAt)
}

func TestEnrichmentJob_RequeueKeepsAttempts(t *testing.T) {
	job := &EnrichmentJob{Kind: EnrichReviewSentiment, EntityID: "rev-1", Status: EnrichmentStatusPending}

	job.MarkRunning()
	job.Requeue("backend timeout")
	job.MarkRunning()
	job.Requeue("backend timeout")
	job.MarkRunning()

	assert.Equal(t, 3, job.Attempts)
	assert.Equal(t, EnrichmentStatusRunning, job.Status)

	job.MarkFailed("backend timeout")
	assert.Equal(t, EnrichmentStatusFailed, job.Status)
	assert.True(t, job.IsTerminal())
	assert.Equal(t, "backend timeout", job.Error)
}

func TestEnrichmentJob_TerminalStatesSticky(t *testing.T) {
	failed := &EnrichmentJob{Kind: EnrichBookSummary, EntityID: "book-1", Status: EnrichmentStatusPending}
	failed.MarkRunning()
	failed.MarkFailed("backend timeout")

	failed.MarkRunning()
	assert.Equal(t, EnrichmentStatusFailed, failed.Status)
	assert.Equal(t, 1, failed.Attempts)

	failed.MarkSucceeded()
	assert.Equal(t, EnrichmentStatusFailed, failed.Status)

	failed.Requeue("again")
	assert.Equal(t, EnrichmentStatusFailed, failed.Status)
	assert.Equal(t, "backend timeout", failed.Error)

	succeeded := &EnrichmentJob{Kind: EnrichReviewSentiment, EntityID: "rev-1", Status: EnrichmentStatusPending}
	succeeded.MarkRunning()
	succeeded.MarkSucceeded()

	succeeded.MarkFailed("late failure")
	assert.Equal(t, EnrichmentStatusSucceeded, succeeded.Status)
	assert.Empty(t, succeeded.Error)
}

func TestEnrichmentKey_String(t *testing.T) {
	key := EnrichmentKey{Kind: EnrichBookSummary, EntityID: "book-42"}
	assert.Equal(t, "book_summary:book-42", key.String())
}

func TestBook_GenreToken(t *testing.T) {
	tests := []struct {
		genre    string
		expected string
	}{
		{"Mystery", "mystery"},
		{"  Science Fiction ", "science fiction"},
		{"mystery", "mystery"},
		{"", ""},
	}

	for _, tt := range tests {
		b := &Book{Genre: tt.genre}
		assert.Equal(t, tt.expected, b.GenreToken(), "GenreToken(%q)", tt.genre)
	}
}

func TestPreferenceVector_Weight(t *testing.T) {
	v := &PreferenceVector{
		UserID: "user-1",
		Entries: []PreferenceEntry{
			{Token: "mystery", Weight: 0.75},
			{Token: "horror", Weight: 0.25},
		},
	}

	assert.InDelta(t, 0.75, v.Weight("mystery"), 1e-9)
	assert.InDelta(t, 0.25, v.Weight("horror"), 1e-9)
	assert.Zero(t, v.Weight("romance"))
	assert.False(t, v.IsEmpty())

	var nilVec *PreferenceVector
	assert.True(t, nilVec.IsEmpty())
	assert.Zero(t, nilVec.Weight("mystery"))
}

func TestBorrowRecord_Return(t *testing.T) {
	rec := &BorrowRecord{UserID: "user-1", BookID: "book-1"}
	assert.True(t, rec.IsOpen())

	rec.MarkReturned(rec.BorrowedAt.Add(1))
	assert.False(t, rec.IsOpen())
	require.NotNil(t, rec.ReturnedAt)
}

func TestValidSentimentLabel(t *testing.T) {
	assert.True(t, ValidSentimentLabel(SentimentPositive))
	assert.True(t, ValidSentimentLabel(SentimentNeutral))
	assert.True(t, ValidSentimentLabel(SentimentNegative))
	assert.False(t, ValidSentimentLabel("ecstatic"))
	assert.False(t, ValidSentimentLabel(""))
}
