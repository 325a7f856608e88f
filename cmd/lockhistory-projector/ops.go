package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"qualityaudit/internal/audit/models"
	"qualityaudit/internal/platform/metrics"
	id "qualityaudit/pkg/domain"
	"qualityaudit/pkg/platform/httputil"
)

const readinessTimeout = 2 * time.Second

type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

type historyReader interface {
	History(ctx context.Context, evaluationID id.EvaluationID) ([]models.LockHistoryEntry, error)
}

type lockHistoryEntryResponse struct {
	EventID    string    `json:"event_id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
}

type lockHistoryResponse struct {
	EvaluationID string                     `json:"evaluation_id"`
	Entries      []lockHistoryEntryResponse `json:"entries"`
}

// newOpsRouter serves health, readiness, metrics and read access to the
// lock history.
func newOpsRouter(reg *prometheus.Registry, history historyReader, checks []readinessCheck) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), readinessTimeout)
		defer cancel()

		failed := map[string]string{}
		for _, c := range checks {
			if err := c.check(ctx); err != nil {
				failed[c.name] = err.Error()
			}
		}
		if len(failed) > 0 {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": failed})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler(reg))

	r.Get("/lock-history/{evaluationID}", func(w http.ResponseWriter, req *http.Request) {
		evaluationID, err := id.ParseEvaluationID(chi.URLParam(req, "evaluationID"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		entries, err := history.History(req.Context(), evaluationID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		resp := lockHistoryResponse{
			EvaluationID: evaluationID.String(),
			Entries:      make([]lockHistoryEntryResponse, 0, len(entries)),
		}
		for _, e := range entries {
			resp.Entries = append(resp.Entries, lockHistoryEntryResponse{
				EventID:    e.EventID.String(),
				Action:     string(e.Action),
				OccurredAt: e.OccurredAt,
			})
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	})

	return r
}
