package handlers

import (
	"context"
	"net/http"
	"time"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) Result {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		return Result{
			Code:  http.StatusServiceUnavailable,
			Body:  healthResponse{Status: "degraded", Database: "unreachable"},
			Error: err,
		}
	}

	return Ok(healthResponse{Status: "ok", Database: "ok"})
}
