package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/goalline/academy-server/internal/forms"
)

// Admin endpoints, mounted behind session auth.

// OutboxRetrier triggers one pass of the outbox retry worker.
// Satisfied by *outbox.Worker.
type OutboxRetrier interface {
	ProcessOnce(ctx context.Context) int
}

// SetOutboxWorker wires the retry worker so the admin API can trigger a pass
// on demand. Called after construction because the worker needs the mailer,
// which needs config loaded first.
func (h *Handlers) SetOutboxWorker(w OutboxRetrier) {
	h.retrier = w
}

// HandleListSubmissions lists stored submissions, optionally filtered by form
// type via ?type=, paginated with ?limit= and ?offset=.
//
//	GET /api/admin/submissions
func (h *Handlers) HandleListSubmissions(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "submission store not configured")
		return
	}

	var formType forms.FormType
	if t := r.URL.Query().Get("type"); t != "" {
		formType = forms.FormType(t)
		valid := false
		for _, vt := range forms.ValidTypes {
			if formType == vt {
				valid = true
				break
			}
		}
		if !valid {
			respondError(w, http.StatusBadRequest, "unknown form type: "+t)
			return
		}
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	records, err := h.store.ListSubmissions(r.Context(), formType, limit, offset)
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "Failed to list submissions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"submissions": records,
		"count":       len(records),
	})
}

// HandleGetSubmission returns one submission by ID.
//
//	GET /api/admin/submissions/{id}
func (h *Handlers) HandleGetSubmission(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "submission store not configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid submission ID")
		return
	}

	rec, err := h.store.GetSubmission(r.Context(), id)
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "Failed to load submission")
		return
	}
	if rec == nil {
		respondError(w, http.StatusNotFound, "submission not found")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// HandleDashboard returns aggregate submission counts plus outbox health.
//
//	GET /api/admin/dashboard
func (h *Handlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "submission store not configured")
		return
	}

	stats, err := h.store.GetDashboardStats(r.Context())
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "Failed to load dashboard")
		return
	}

	payload := map[string]interface{}{
		"submissions": stats,
	}

	if h.outbox != nil {
		outboxStats, err := h.outbox.GetStats(r.Context())
		if err != nil {
			respondSafeError(w, http.StatusInternalServerError, err, "Failed to load dashboard")
			return
		}
		payload["outbox"] = outboxStats
	}

	respondJSON(w, http.StatusOK, payload)
}

// HandleRLSCheck probes the database's row-level-security policies and
// reports per-table results.
//
//	GET /api/admin/rls-check
func (h *Handlers) HandleRLSCheck(w http.ResponseWriter, r *http.Request) {
	if h.prober == nil {
		respondError(w, http.StatusServiceUnavailable, "RLS probe not configured (ANON_DATABASE_URL missing)")
		return
	}

	report := h.prober.Run(r.Context())

	status := http.StatusOK
	if !report.Healthy {
		// Surface policy holes loudly; dashboards treat non-200 as an alert.
		status = http.StatusConflict
	}
	respondJSON(w, status, report)
}

// HandleOutboxRetry triggers one retry pass over pending outbox legs.
//
//	POST /api/admin/outbox/retry
func (h *Handlers) HandleOutboxRetry(w http.ResponseWriter, r *http.Request) {
	if h.retrier == nil {
		respondError(w, http.StatusServiceUnavailable, "outbox worker not running")
		return
	}

	processed := h.retrier.ProcessOnce(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"processed": processed,
	})
}
