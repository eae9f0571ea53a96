// Package outbox persists the two email legs of every accepted submission so
// a partially completed pair (process killed between sends, acknowledgment
// bounced off a flaky transport) can be repaired later. The submission ID is
// the idempotency key: each (submission, leg) pair is sent at most once per
// attempt loop, while separate submissions of identical payloads remain
// independent and each produce their own email pair.
package outbox

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/goalline/academy-server/internal/forms"
	"github.com/goalline/academy-server/internal/mailer"
)

// Status of one outbox entry.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusDead    = "dead" // exhausted retries, needs manual attention
)

// Entry is one email leg awaiting (or having completed) delivery.
type Entry struct {
	ID           uuid.UUID  `json:"id"`
	SubmissionID uuid.UUID  `json:"submissionId"`
	Leg          mailer.Leg `json:"leg"`
	Status       string     `json:"status"`
	Attempts     int        `json:"attempts"`
	LastError    string     `json:"lastError,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Store provides database operations for the email outbox.
type Store struct {
	db *sql.DB
}

// NewStore creates an outbox store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Enqueue records both legs for a submission as pending. Called before the
// synchronous sends so a crash mid-pair leaves a repairable trail.
func (s *Store) Enqueue(ctx context.Context, submissionID uuid.UUID) error {
	query := `INSERT INTO email_outbox (id, submission_id, leg, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, 'pending', 0, NOW(), NOW())
		ON CONFLICT (submission_id, leg) DO NOTHING`
	for _, leg := range mailer.Legs {
		if _, err := s.db.ExecContext(ctx, query, uuid.New(), submissionID, string(leg)); err != nil {
			return err
		}
	}
	return nil
}

// MarkSent marks one leg delivered.
func (s *Store) MarkSent(ctx context.Context, submissionID uuid.UUID, leg mailer.Leg) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE email_outbox SET status = 'sent', attempts = attempts + 1, last_error = '', updated_at = NOW()
		WHERE submission_id = $1 AND leg = $2
	`, submissionID, string(leg))
	return err
}

// MarkFailed records a failed attempt for one leg. Legs that exhaust
// maxAttempts move to 'dead' and are skipped by the worker.
func (s *Store) MarkFailed(ctx context.Context, submissionID uuid.UUID, leg mailer.Leg, sendErr error, maxAttempts int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE email_outbox
		SET attempts = attempts + 1,
			last_error = $3,
			status = CASE WHEN attempts + 1 >= $4 THEN 'dead' ELSE 'failed' END,
			updated_at = NOW()
		WHERE submission_id = $1 AND leg = $2
	`, submissionID, string(leg), sendErr.Error(), maxAttempts)
	return err
}

// PendingLegs returns legs still owed a delivery, oldest first, with the
// submission payload joined in so the worker can recompose the message.
// Each leg becomes due baseSpacing * 2^attempts after its last touch, so
// repeatedly failing legs back off exponentially. The exponent is capped to
// keep the interval finite.
func (s *Store) PendingLegs(ctx context.Context, baseSpacing time.Duration, limit int) ([]*PendingLeg, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.submission_id, o.leg, o.attempts, f.form_type, f.payload
		FROM email_outbox o
		JOIN form_submissions f ON f.id = o.submission_id
		WHERE o.status IN ('pending', 'failed')
			AND o.updated_at < NOW() - make_interval(secs => $1 * POWER(2, LEAST(o.attempts, 8)))
		ORDER BY o.updated_at ASC
		LIMIT $2
	`, baseSpacing.Seconds(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var legs []*PendingLeg
	for rows.Next() {
		pl := &PendingLeg{}
		var leg, formType string
		if err := rows.Scan(&pl.SubmissionID, &leg, &pl.Attempts, &formType, &pl.Payload); err != nil {
			return nil, err
		}
		pl.Leg = mailer.Leg(leg)
		pl.FormType = forms.FormType(formType)
		legs = append(legs, pl)
	}
	return legs, rows.Err()
}

// PendingLeg is one leg due for retry, with enough context to recompose it.
type PendingLeg struct {
	SubmissionID uuid.UUID
	Leg          mailer.Leg
	Attempts     int
	FormType     forms.FormType
	Payload      []byte
}

// Stats summarizes outbox health for the admin dashboard.
type Stats struct {
	Pending int `json:"pending"`
	Failed  int `json:"failed"`
	Sent    int `json:"sent"`
	Dead    int `json:"dead"`
}

// GetStats counts entries by status.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM email_outbox GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &Stats{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		switch status {
		case StatusPending:
			stats.Pending = n
		case StatusFailed:
			stats.Failed = n
		case StatusSent:
			stats.Sent = n
		case StatusDead:
			stats.Dead = n
		}
	}
	return stats, rows.Err()
}
