package enrich

import (
	"time"

	"github.com/librisapp/libris-server/internal/domain"
	"github.com/librisapp/libris-server/internal/id"
)

// Registry tracks which enrichment keys currently have a job in flight.
// It is owned by an Orchestrator instance rather than being process-global,
// so tests and multiple orchestrators can each carry their own view.
type Registry struct {
	jobs *SyncMap[domain.EnrichmentKey, *domain.EnrichmentJob]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs: NewSyncMap[domain.EnrichmentKey, *domain.EnrichmentJob](),
	}
}

// Begin registers a new pending job for the key, or reports the one already
// in flight. At most one job per key exists at a time; the second return is
// false when an existing job coalesced the request.
func (r *Registry) Begin(kind domain.EnrichmentKind, entityID string) (*domain.EnrichmentJob, bool) {
	job := &domain.EnrichmentJob{
		ID:        id.MustGenerate(id.PrefixJob),
		Kind:      kind,
		EntityID:  entityID,
		Status:    domain.EnrichmentStatusPending,
		CreatedAt: time.Now(),
	}

	actual, loaded := r.jobs.LoadOrStore(job.Key(), job)
	return actual, !loaded
}

// Lookup returns the in-flight job for a key, if any.
func (r *Registry) Lookup(key domain.EnrichmentKey) (*domain.EnrichmentJob, bool) {
	return r.jobs.Load(key)
}

// Finish removes a key once its job has reached a terminal state.
// The job's durable effect is the derived field it wrote; the job
// record itself is discarded.
func (r *Registry) Finish(key domain.EnrichmentKey) {
	r.jobs.Delete(key)
}

// InFlight returns the number of keys with a live job.
func (r *Registry) InFlight() int {
	return r.jobs.Len()
}
