package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goalline/academy-server/internal/config"
	"github.com/goalline/academy-server/internal/forms"
	"github.com/goalline/academy-server/internal/mailer"
	"github.com/goalline/academy-server/internal/pkg/logger"
)

// Public form endpoints. Each one runs the same pipeline over its own
// submission variant: decode, validate, check mail config, persist, then two
// sequential sends (admin notification, acknowledgment). The per-endpoint
// required field sets live on the variants themselves in internal/forms.

// HandleApplication accepts an admissions application.
//
//	POST /api/application
func (h *Handlers) HandleApplication(w http.ResponseWriter, r *http.Request) {
	h.handleForm(w, r, &forms.Application{}, formResponse{
		success:        "Application submitted successfully",
		includeDetails: true,
	})
}

// HandleContact accepts a contact-form message. Unlike the other endpoints,
// its generic-failure response carries no details field.
//
//	POST /api/contact
func (h *Handlers) HandleContact(w http.ResponseWriter, r *http.Request) {
	h.handleForm(w, r, &forms.Contact{}, formResponse{
		success:        "Message sent successfully",
		includeDetails: false,
	})
}

// HandlePartnership accepts a partnership inquiry.
//
//	POST /api/partners
func (h *Handlers) HandlePartnership(w http.ResponseWriter, r *http.Request) {
	h.handleForm(w, r, &forms.Partnership{}, formResponse{
		success:        "Partnership inquiry sent successfully",
		includeDetails: true,
	})
}

// HandleVisit accepts a campus-visit request.
//
//	POST /api/visits
func (h *Handlers) HandleVisit(w http.ResponseWriter, r *http.Request) {
	h.handleForm(w, r, &forms.Visit{}, formResponse{
		success:        "Visit request sent successfully",
		includeDetails: true,
	})
}

type formResponse struct {
	success        string
	includeDetails bool
}

// handleForm is the shared pipeline. Validation failures return before any
// external I/O; both sends must succeed for a 200.
func (h *Handlers) handleForm(w http.ResponseWriter, r *http.Request, sub forms.Submission, resp formResponse) {
	ctx := r.Context()

	if err := json.NewDecoder(r.Body).Decode(sub); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := sub.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.cfg.Mail.Validate(); err != nil {
		// Missing mail configuration always names the absent variables so an
		// operator can fix the deployment from the response alone.
		var missing *config.MissingConfigError
		if errors.As(err, &missing) {
			respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"error":   "Server configuration error",
				"details": missing.Vars,
			})
			return
		}
		respondSafeError(w, http.StatusInternalServerError, err, "Server configuration error")
		return
	}

	// Persist before sending so the outbox can repair a partial completion.
	// A storage failure is logged but does not block the sends; the mail
	// contract is the endpoint's primary obligation.
	var rec *forms.Record
	if h.store != nil {
		var err error
		rec, err = h.store.CreateSubmission(ctx, sub)
		if err != nil {
			logger.Warn("submission persist failed",
				"form_type", string(sub.Type()),
				"error", err.Error())
			rec = nil
		} else if h.outbox != nil {
			if err := h.outbox.Enqueue(ctx, rec.ID); err != nil {
				logger.Warn("outbox enqueue failed",
					"submission_id", rec.ID.String(),
					"error", err.Error())
			}
		}
	}

	for _, leg := range mailer.Legs {
		err := h.mailer.SendLeg(ctx, leg, sub)
		if rec != nil && h.outbox != nil {
			h.recordLegOutcome(ctx, rec, leg, err)
		}
		if err != nil {
			h.respondSendFailure(w, sub, err, resp)
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": resp.success,
	})
}

func (h *Handlers) recordLegOutcome(ctx context.Context, rec *forms.Record, leg mailer.Leg, sendErr error) {
	var err error
	if sendErr == nil {
		err = h.outbox.MarkSent(ctx, rec.ID, leg)
	} else {
		err = h.outbox.MarkFailed(ctx, rec.ID, leg, sendErr, h.cfg.Outbox.MaxAttempts)
	}
	if err != nil {
		logger.Warn("outbox update failed",
			"submission_id", rec.ID.String(),
			"leg", string(leg),
			"error", err.Error())
	}
}

// respondSendFailure maps transport errors to the status contract:
// authentication 401, connection 503, anything else a sanitized 500.
func (h *Handlers) respondSendFailure(w http.ResponseWriter, sub forms.Submission, err error, resp formResponse) {
	logger.Error("email send failed",
		"form_type", string(sub.Type()),
		"submitter", sub.Email(),
		"error", err.Error())

	switch {
	case errors.Is(err, mailer.ErrAuth):
		respondError(w, http.StatusUnauthorized, "Email authentication failed")
	case errors.Is(err, mailer.ErrConnection):
		respondError(w, http.StatusServiceUnavailable, "Unable to reach mail server")
	default:
		msg := safeErrorMessage(http.StatusInternalServerError, err)
		if resp.includeDetails {
			respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"error":   "Failed to send email",
				"details": msg,
			})
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to send email")
	}
}
