// Package service provides the business logic layer for the Libris catalog:
// catalog management, borrowing, reviews, and recommendation surfaces.
package service

import (
	"context"

	"github.com/librisapp/libris-server/internal/domain"
)

// Scheduler queues asynchronous enrichment work. Scheduling never blocks and
// never fails the calling write path.
type Scheduler interface {
	Schedule(kind domain.EnrichmentKind, entityID string)
}

// Recommender recomputes a user's preference vector after their borrow or
// review history changes.
type Recommender interface {
	RecomputePreferences(ctx context.Context, userID string) (*domain.PreferenceVector, error)
}
