// Package enrich runs generation-backend calls off the request path.
// The orchestrator coalesces duplicate requests per key, bounds concurrency
// with a fixed worker pool, retries transient backend failures with
// exponential backoff, and never surfaces failures to the code that
// triggered enrichment.
package enrich

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/librisapp/libris-server/internal/config"
	"github.com/librisapp/libris-server/internal/domain"
	apperrors "github.com/librisapp/libris-server/internal/errors"
	"github.com/librisapp/libris-server/internal/genai"
	"github.com/librisapp/libris-server/internal/store"
)

// Store is the slice of persistence the orchestrator needs: re-reading
// current entity state before each attempt and writing derived fields.
type Store interface {
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	SetBookSummary(ctx context.Context, bookID, summary string) error
	GetReview(ctx context.Context, id string) (*domain.Review, error)
	UpsertSentiment(ctx context.Context, reviewID string, sentiment domain.Sentiment) error
}

// TextSource resolves the text to summarize for a book: the extracted
// document when one was uploaded, otherwise the catalog description.
type TextSource interface {
	BookText(ctx context.Context, bookID string) (string, error)
}

// Orchestrator schedules and executes enrichment jobs.
type Orchestrator struct {
	logger   *slog.Logger
	store    Store
	texts    TextSource
	provider genai.Provider
	registry *Registry
	breaker  *gobreaker.CircuitBreaker[any]

	maxAttempts    int
	maxConcurrent  int
	initialBackoff time.Duration

	queue chan *domain.EnrichmentJob

	ctx    context.Context //nolint:containedctx // Context needed for worker lifecycle management
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an orchestrator. Call Start to launch its worker pool.
func New(cfg config.EnrichConfig, st Store, texts TextSource, provider genai.Provider, registry *Registry, logger *slog.Logger) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:     "genai-backend",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &Orchestrator{
		logger:         logger,
		store:          st,
		texts:          texts,
		provider:       provider,
		registry:       registry,
		breaker:        breaker,
		maxAttempts:    cfg.MaxAttempts,
		maxConcurrent:  cfg.MaxConcurrent,
		initialBackoff: cfg.InitialBackoff,
		queue:          make(chan *domain.EnrichmentJob, cfg.QueueSize),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start launches the worker pool.
func (o *Orchestrator) Start() {
	o.logger.Info("starting enrichment workers",
		slog.Int("workers", o.maxConcurrent),
		slog.Int("max_attempts", o.maxAttempts),
		slog.String("provider", o.provider.Name()),
	)

	for i := 0; i < o.maxConcurrent; i++ {
		o.wg.Add(1)
		go o.worker(i)
	}
}

// Stop shuts down the pool. In-flight jobs are abandoned without completing
// their write; the affected entity stays unenriched until a future trigger
// re-enrolls its key.
func (o *Orchestrator) Stop() {
	o.logger.Info("stopping enrichment workers")
	o.cancel()
	o.wg.Wait()
}

// Schedule requests enrichment for an entity. It returns immediately:
// duplicate requests for a key already pending or running coalesce into a
// no-op, and failures never reach the caller. Queue admission is FIFO.
func (o *Orchestrator) Schedule(kind domain.EnrichmentKind, entityID string) {
	job, created := o.registry.Begin(kind, entityID)
	if !created {
		// The in-flight job belongs to a worker goroutine; only its
		// immutable key may be read from here.
		key := domain.EnrichmentKey{Kind: kind, EntityID: entityID}
		o.logger.Debug("enrichment coalesced", slog.String("key", key.String()))
		return
	}

	select {
	case o.queue <- job:
	default:
		// Queue saturated. Enrichment is best-effort, so shed the job
		// instead of blocking the request path that triggered it.
		o.registry.Finish(job.Key())
		o.logger.Warn("enrichment queue full, dropping job",
			slog.String("key", job.Key().String()),
		)
	}
}

// worker drains the job queue until shutdown.
func (o *Orchestrator) worker(workerID int) {
	defer o.wg.Done()

	o.logger.Debug("enrichment worker started", slog.Int("worker_id", workerID))

	for {
		select {
		case <-o.ctx.Done():
			o.logger.Debug("enrichment worker stopping", slog.Int("worker_id", workerID))
			return
		case job := <-o.queue:
			o.runJob(job)
		}
	}
}

// runJob drives one job through its attempt cycle to a terminal state.
// Attempts for a key are strictly sequential: the job stays with one worker,
// and the registry blocks a second job for the same key until this one is
// finished and removed.
func (o *Orchestrator) runJob(job *domain.EnrichmentJob) {
	defer o.registry.Finish(job.Key())

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = o.initialBackoff

	for {
		job.MarkRunning()

		err := o.attempt(o.ctx, job)
		if err == nil {
			job.MarkSucceeded()
			o.logger.Info("enrichment succeeded",
				slog.String("key", job.Key().String()),
				slog.Int("attempts", job.Attempts),
			)
			return
		}

		if o.ctx.Err() != nil {
			// Shutdown: abandon without a terminal write.
			o.logger.Debug("enrichment abandoned on shutdown", slog.String("key", job.Key().String()))
			return
		}

		if !isRetryable(err) || job.Attempts >= o.maxAttempts {
			job.MarkFailed(err.Error())
			o.logger.Warn("enrichment failed",
				slog.String("key", job.Key().String()),
				slog.Int("attempts", job.Attempts),
				slog.String("error", err.Error()),
			)
			return
		}

		job.Requeue(err.Error())
		o.logger.Debug("enrichment retrying",
			slog.String("key", job.Key().String()),
			slog.Int("attempt", job.Attempts),
			slog.String("error", err.Error()),
		)

		if !o.sleep(bo.NextBackOff()) {
			return
		}
	}
}

// attempt executes one backend call for the job, re-reading entity state
// first so a deletion mid-enrichment turns into a skip rather than an error.
func (o *Orchestrator) attempt(ctx context.Context, job *domain.EnrichmentJob) error {
	switch job.Kind {
	case domain.EnrichBookSummary:
		return o.summarizeBook(ctx, job.EntityID)
	case domain.EnrichReviewSentiment:
		return o.analyzeReview(ctx, job.EntityID)
	default:
		return apperrors.Internal("unknown enrichment kind: " + string(job.Kind))
	}
}

func (o *Orchestrator) summarizeBook(ctx context.Context, bookID string) error {
	if _, err := o.store.GetBook(ctx, bookID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			o.logger.Debug("book gone before enrichment, skipping", slog.String("book_id", bookID))
			return nil
		}
		return err
	}

	text, err := o.texts.BookText(ctx, bookID)
	if err != nil {
		return err
	}
	if text == "" {
		o.logger.Debug("book has no text to summarize, skipping", slog.String("book_id", bookID))
		return nil
	}

	summary, err := o.callBackend(func() (any, error) {
		return o.provider.Summarize(ctx, text)
	})
	if err != nil {
		return err
	}

	err = o.store.SetBookSummary(ctx, bookID, summary.(string))
	if errors.Is(err, store.ErrNotFound) {
		// Deleted between the read and the write; the terminal write is a skip.
		return nil
	}
	return err
}

func (o *Orchestrator) analyzeReview(ctx context.Context, reviewID string) error {
	review, err := o.store.GetReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			o.logger.Debug("review gone before enrichment, skipping", slog.String("review_id", reviewID))
			return nil
		}
		return err
	}
	if review.Text == "" {
		// Nothing to classify; rating-only reviews never get a sentiment.
		return nil
	}

	result, err := o.callBackend(func() (any, error) {
		return o.provider.AnalyzeSentiment(ctx, review.Text)
	})
	if err != nil {
		return err
	}

	err = o.store.UpsertSentiment(ctx, reviewID, result.(domain.Sentiment))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// callBackend routes a backend call through the circuit breaker.
// An open breaker reads as the backend being unavailable.
func (o *Orchestrator) callBackend(fn func() (any, error)) (any, error) {
	result, err := o.breaker.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperrors.BackendUnavailable("generation backend circuit open").WithCause(err)
		}
		return nil, err
	}
	return result, nil
}

// isRetryable reports whether a failed attempt should be retried.
// Only transient backend faults are; anything else fails the job outright.
func isRetryable(err error) bool {
	return apperrors.IsTransient(err)
}

// sleep waits for d or until shutdown, reporting whether the wait completed.
func (o *Orchestrator) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-o.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
