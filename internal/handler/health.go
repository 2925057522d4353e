package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is anything whose liveness can be checked, such as *sqlite.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the server can reach its database.
type HealthHandler struct {
	db     Pinger
	logger *slog.Logger
}

func NewHealthHandler(db Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// HandleHealth answers 200 when the database responds and 503 otherwise.
//
// HTTP: GET /healthz
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Database: "unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "ok"})
}
