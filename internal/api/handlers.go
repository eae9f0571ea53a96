package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/goalline/academy-server/internal/config"
	"github.com/goalline/academy-server/internal/forms"
	"github.com/goalline/academy-server/internal/mailer"
	"github.com/goalline/academy-server/internal/outbox"
	"github.com/goalline/academy-server/internal/rls"
)

// Notifier sends one email leg for a submission. Satisfied by *mailer.Mailer.
type Notifier interface {
	SendLeg(ctx context.Context, leg mailer.Leg, sub forms.Submission) error
}

// Handlers carries the dependencies shared by all HTTP handlers.
type Handlers struct {
	cfg    *config.Config
	store  *forms.Store
	outbox *outbox.Store
	mailer Notifier
	prober *rls.Prober
	health *HealthChecker

	retrier OutboxRetrier
}

// NewHandlers creates the handler set. store, outbox and prober may be nil
// when the corresponding backend is not configured (e.g. in tests).
func NewHandlers(cfg *config.Config, store *forms.Store, ob *outbox.Store, m Notifier, prober *rls.Prober, health *HealthChecker) *Handlers {
	return &Handlers{
		cfg:    cfg,
		store:  store,
		outbox: ob,
		mailer: m,
		prober: prober,
		health: health,
	}
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
