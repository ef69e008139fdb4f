// Package ingest runs the background worker that resolves missing
// retail valuations for imported vehicles.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DealerGen/bidbuddy/internal/storage"
	"github.com/DealerGen/bidbuddy/internal/valuation"
)

// JobType is the queue type this worker consumes. Import enqueues one
// job per record with no retail valuation.
const JobType = "valuation_lookup"

// Payload is the JSON body of a valuation_lookup job.
type Payload struct {
	Registration string `json:"registration"`
}

// JobStore abstracts the job queue and vehicle update operations.
type JobStore interface {
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
	UpdateVehicleValuation(id string, valuation float64, make, model string) error
}

// Worker processes valuation_lookup jobs from the SQLite job queue.
type Worker struct {
	store  JobStore
	source valuation.Source
	poll   time.Duration
	logger *slog.Logger
}

// NewWorker creates a Worker with the given dependencies.
// If pollInterval is <= 0, it defaults to 500ms.
func NewWorker(store JobStore, source valuation.Source, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Worker{
		store:  store,
		source: source,
		poll:   pollInterval,
		logger: slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single valuation_lookup job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{JobType})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Warn("valuation lookup failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailJob(job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

func (w *Worker) processJob(ctx context.Context, job *storage.Job) error {
	var payload Payload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}
	if payload.Registration == "" {
		return fmt.Errorf("payload missing registration")
	}

	val, err := w.source.Lookup(ctx, payload.Registration)
	if errors.Is(err, valuation.ErrNotFound) {
		// No source knows this registration; the record keeps its zero
		// valuation and the dealer can override per calculation.
		w.logger.Debug("no valuation available", "registration", payload.Registration)
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up %s: %w", payload.Registration, err)
	}

	if err := w.store.UpdateVehicleValuation(payload.Registration, val.RetailValuation, val.Make, val.Model); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// The record set was replaced while the job was queued.
			w.logger.Debug("vehicle gone before valuation landed", "registration", payload.Registration)
			return nil
		}
		return fmt.Errorf("updating valuation for %s: %w", payload.Registration, err)
	}

	return nil
}
