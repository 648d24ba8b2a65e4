package domain

import (
	"fmt"
	"time"
)

// EnrichmentKind identifies what a job derives.
type EnrichmentKind string

const (
	// EnrichBookSummary generates a summary from a book's extracted text.
	EnrichBookSummary EnrichmentKind = "book_summary"
	// EnrichReviewSentiment classifies a review's tone.
	EnrichReviewSentiment EnrichmentKind = "review_sentiment"
)

// EnrichmentStatus represents the state of an enrichment job.
type EnrichmentStatus string

const (
	EnrichmentStatusPending   EnrichmentStatus = "pending"
	EnrichmentStatusRunning   EnrichmentStatus = "running"
	EnrichmentStatusSucceeded EnrichmentStatus = "succeeded"
	EnrichmentStatusFailed    EnrichmentStatus = "failed"
)

// EnrichmentKey identifies the single job allowed in flight for an entity.
type EnrichmentKey struct {
	Kind     EnrichmentKind
	EntityID string
}

func (k EnrichmentKey) String() string {
	return fmt.Sprintf("%s:%s", k.Kind, k.EntityID)
}

// EnrichmentJob tracks one background derivation of AI-generated content.
// Jobs are ephemeral: they live in memory for the duration of the attempt
// cycle and are discarded after reaching a terminal state. The only durable
// effect is the summary or sentiment row they write.
type EnrichmentJob struct {
	ID       string           `json:"id"`
	Kind     EnrichmentKind   `json:"kind"`
	EntityID string           `json:"entity_id"`

	Status   EnrichmentStatus `json:"status"`
	Attempts int              `json:"attempts"`
	Error    string           `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Key returns the coalescing key for this job.
func (j *EnrichmentJob) Key() EnrichmentKey {
	return EnrichmentKey{Kind: j.Kind, EntityID: j.EntityID}
}

// IsTerminal reports whether the job can make no further transitions.
func (j *EnrichmentJob) IsTerminal() bool {
	return j.Status == EnrichmentStatusSucceeded || j.Status == EnrichmentStatusFailed
}

// MarkRunning transitions the job to running and counts the attempt.
// A job already in a terminal state stays there.
func (j *EnrichmentJob) MarkRunning() {
	if j.IsTerminal() {
		return
	}
	j.Status = EnrichmentStatusRunning
	j.Attempts++
	now := time.Now()
	j.StartedAt = &now
}

// MarkSucceeded transitions the job to its successful terminal state.
// Terminal states are sticky: a failed job cannot be flipped to succeeded.
func (j *EnrichmentJob) MarkSucceeded() {
	if j.IsTerminal() {
		return
	}
	j.Status = EnrichmentStatusSucceeded
	now := time.Now()
	j.CompletedAt = &now
}

// MarkFailed transitions the job to its failed terminal state.
// Terminal states are sticky: a succeeded job cannot be flipped to failed.
func (j *EnrichmentJob) MarkFailed(err string) {
	if j.IsTerminal() {
		return
	}
	j.Status = EnrichmentStatusFailed
	j.Error = err
	now := time.Now()
	j.CompletedAt = &now
}

// Requeue returns a running job to pending for another attempt.
// Attempts already made are kept so retry bounds hold across requeues.
// Terminal jobs are never requeued.
func (j *EnrichmentJob) Requeue(lastErr string) {
	if j.IsTerminal() {
		return
	}
	j.Status = EnrichmentStatusPending
	j.Error = lastErr
	j.StartedAt = nil
}
