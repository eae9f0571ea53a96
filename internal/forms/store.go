package forms

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store provides database operations for form submissions.
type Store struct {
	db *sql.DB
}

// NewStore creates a new submission store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateSubmission persists an accepted submission and returns its record.
func (s *Store) CreateSubmission(ctx context.Context, sub Submission) (*Record, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:             uuid.New(),
		FormType:       sub.Type(),
		SubmitterEmail: strings.ToLower(strings.TrimSpace(sub.Email())),
		Summary:        sub.Summary(),
		Payload:        payload,
		CreatedAt:      time.Now(),
	}

	query := `INSERT INTO form_submissions (id, form_type, submitter_email, summary, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = s.db.ExecContext(ctx, query, rec.ID, rec.FormType, rec.SubmitterEmail,
		rec.Summary, rec.Payload, rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetSubmission retrieves one submission by ID. Returns nil when not found.
func (s *Store) GetSubmission(ctx context.Context, id uuid.UUID) (*Record, error) {
	query := `SELECT id, form_type, submitter_email, summary, payload, created_at
		FROM form_submissions WHERE id = $1`

	rec := &Record{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.FormType, &rec.SubmitterEmail, &rec.Summary, &rec.Payload, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// ListSubmissions retrieves submissions newest first, optionally filtered by
// form type, with limit/offset pagination.
func (s *Store) ListSubmissions(ctx context.Context, formType FormType, limit, offset int) ([]*Record, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT id, form_type, submitter_email, summary, payload, created_at
		FROM form_submissions`
	args := []interface{}{}
	if formType != "" {
		query += ` WHERE form_type = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, formType, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*Record
	for rows.Next() {
		rec := &Record{}
		if err := rows.Scan(&rec.ID, &rec.FormType, &rec.SubmitterEmail,
			&rec.Summary, &rec.Payload, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// GetDashboardStats builds the aggregate view for the admin dashboard.
func (s *Store) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{ByType: make(map[FormType]int)}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '7 days'),
			COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '30 days')
		FROM form_submissions
	`).Scan(&stats.Total, &stats.Last7Days, &stats.Last30Days)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT form_type, COUNT(*) FROM form_submissions GROUP BY form_type
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ft FormType
		var n int
		if err := rows.Scan(&ft, &n); err != nil {
			return nil, err
		}
		stats.ByType[ft] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	recent, err := s.ListSubmissions(ctx, "", 10, 0)
	if err != nil {
		return nil, err
	}
	stats.Recent = recent
	return stats, nil
}
