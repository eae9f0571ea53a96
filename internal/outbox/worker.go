package outbox

import (
	"context"
	"time"

	"github.com/goalline/academy-server/internal/config"
	"github.com/goalline/academy-server/internal/forms"
	"github.com/goalline/academy-server/internal/mailer"
	"github.com/goalline/academy-server/internal/pkg/logger"
)

// Sender is the subset of the mailer the worker needs.
type Sender interface {
	SendLeg(ctx context.Context, leg mailer.Leg, sub forms.Submission) error
}

// Worker periodically retries outbox legs that never completed. It repairs
// the partial-completion gap of the synchronous pipeline (admin notified,
// submitter not) without changing the HTTP contract: the request path still
// sends both legs inline and reports its own outcome.
type Worker struct {
	store  *Store
	sender Sender
	cfg    config.OutboxConfig
}

// NewWorker creates an outbox retry worker.
func NewWorker(store *Store, sender Sender, cfg config.OutboxConfig) *Worker {
	return &Worker{store: store, sender: sender, cfg: cfg}
}

// Run processes due legs on every tick until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.TickInterval())
	defer ticker.Stop()

	logger.Info("outbox worker started", "interval", w.cfg.TickInterval().String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("outbox worker stopped")
			return
		case <-ticker.C:
			if n := w.ProcessOnce(ctx); n > 0 {
				logger.Info("outbox legs processed", "count", n)
			}
		}
	}
}

// ProcessOnce retries every due leg once and returns how many were attempted.
// The tick interval is the base retry spacing: a leg is due one interval
// after its first failure and backs off exponentially per attempt, so a leg
// just enqueued by an in-flight request is never raced.
func (w *Worker) ProcessOnce(ctx context.Context) int {
	legs, err := w.store.PendingLegs(ctx, w.cfg.TickInterval(), w.cfg.BatchSize)
	if err != nil {
		logger.Error("outbox scan failed", "error", err.Error())
		return 0
	}

	attempted := 0
	for _, pl := range legs {
		sub, err := forms.Decode(pl.FormType, pl.Payload)
		if err != nil {
			// Undecodable payloads can never succeed; park them.
			logger.Error("outbox payload undecodable", "submission_id", pl.SubmissionID.String(), "error", err.Error())
			_ = w.store.MarkFailed(ctx, pl.SubmissionID, pl.Leg, err, 1)
			continue
		}

		attempted++
		if err := w.sender.SendLeg(ctx, pl.Leg, sub); err != nil {
			logger.Warn("outbox retry failed",
				"submission_id", pl.SubmissionID.String(),
				"leg", string(pl.Leg),
				"attempt", pl.Attempts+1,
				"error", err.Error())
			_ = w.store.MarkFailed(ctx, pl.SubmissionID, pl.Leg, err, w.cfg.MaxAttempts)
			continue
		}
		if err := w.store.MarkSent(ctx, pl.SubmissionID, pl.Leg); err != nil {
			logger.Error("outbox mark-sent failed", "submission_id", pl.SubmissionID.String(), "error", err.Error())
		}
	}
	return attempted
}
