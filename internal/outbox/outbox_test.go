package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalline/academy-server/internal/config"
	"github.com/goalline/academy-server/internal/forms"
	"github.com/goalline/academy-server/internal/mailer"
)

func TestEnqueueWritesBothLegs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	subID := uuid.New()
	mock.ExpectExec("INSERT INTO email_outbox").
		WithArgs(sqlmock.AnyArg(), subID, "admin").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO email_outbox").
		WithArgs(sqlmock.AnyArg(), subID, "ack").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewStore(db)
	require.NoError(t, store.Enqueue(context.Background(), subID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailedBumpsAttempts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	subID := uuid.New()
	mock.ExpectExec("UPDATE email_outbox").
		WithArgs(subID, "ack", "boom", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewStore(db)
	require.NoError(t, store.MarkFailed(context.Background(), subID, mailer.LegAck, errors.New("boom"), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingLegsBackOffExponentially(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// The due-time window must scale with the attempt count, not apply one
	// flat interval to every leg.
	mock.ExpectQuery(`make_interval\(secs => \$1 \* POWER\(2, LEAST\(o.attempts, 8\)\)\)`).
		WithArgs(float64(60), 50).
		WillReturnRows(sqlmock.NewRows([]string{"submission_id", "leg", "attempts", "form_type", "payload"}))

	store := NewStore(db)
	_, err = store.PendingLegs(context.Background(), 60*time.Second, 50)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// stubSender records leg sends and optionally fails them.
type stubSender struct {
	sent []mailer.Leg
	err  error
}

func (s *stubSender) SendLeg(ctx context.Context, leg mailer.Leg, sub forms.Submission) error {
	s.sent = append(s.sent, leg)
	return s.err
}

func outboxTestConfig() config.OutboxConfig {
	return config.OutboxConfig{
		Enabled:             true,
		TickIntervalSeconds: 60,
		MaxAttempts:         5,
		BatchSize:           50,
	}
}

func pendingLegRows(t *testing.T, subID uuid.UUID, leg string) *sqlmock.Rows {
	t.Helper()
	payload, err := json.Marshal(&forms.Contact{
		FullName:  "Ana Costa",
		EmailAddr: "ana@example.com",
		Subject:   "Trial sessions",
		Message:   "When is the next open trial?",
	})
	require.NoError(t, err)
	return sqlmock.NewRows([]string{"submission_id", "leg", "attempts", "form_type", "payload"}).
		AddRow(subID, leg, 1, "contact", payload)
}

func TestWorkerRetriesAndMarksSent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	subID := uuid.New()
	mock.ExpectQuery("SELECT o.submission_id, o.leg").
		WillReturnRows(pendingLegRows(t, subID, "ack"))
	mock.ExpectExec("UPDATE email_outbox SET status = 'sent'").
		WithArgs(subID, "ack").
		WillReturnResult(sqlmock.NewResult(0, 1))

	sender := &stubSender{}
	w := NewWorker(NewStore(db), sender, outboxTestConfig())

	n := w.ProcessOnce(context.Background())
	assert.Equal(t, 1, n)
	assert.Equal(t, []mailer.Leg{mailer.LegAck}, sender.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkerMarksFailedOnSendError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	subID := uuid.New()
	mock.ExpectQuery("SELECT o.submission_id, o.leg").
		WillReturnRows(pendingLegRows(t, subID, "admin"))
	mock.ExpectExec("UPDATE email_outbox").
		WithArgs(subID, "admin", sqlmock.AnyArg(), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sender := &stubSender{err: errors.New("transport down")}
	w := NewWorker(NewStore(db), sender, outboxTestConfig())

	n := w.ProcessOnce(context.Background())
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
