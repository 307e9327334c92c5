package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/kova98/gigscout.api/enums"
	"github.com/kova98/gigscout.api/models"
	"github.com/kova98/gigscout.api/schedulers"
)

const (
	defaultStatsDays = 7
	maxStatsDays     = 90
)

type EmailController interface {
	Start() error
	Stop()
	Status() models.EmailSchedulerStatus
	RunCheck(ctx context.Context, emailType enums.EmailType) (int, error)
}

type EmailStatsProvider interface {
	GetEmailStats(ctx context.Context, days int) models.EmailStats
}

type EmailHandler struct {
	scheduler EmailController
	stats     EmailStatsProvider
}

func NewEmailHandler(scheduler EmailController, stats EmailStatsProvider) *EmailHandler {
	return &EmailHandler{scheduler: scheduler, stats: stats}
}

func (h *EmailHandler) GetStatus(w http.ResponseWriter, r *http.Request) Result {
	return Ok(h.scheduler.Status())
}

func (h *EmailHandler) Start(w http.ResponseWriter, r *http.Request) Result {
	if err := h.scheduler.Start(); err != nil {
		return InternalError(err, "start email scheduler")
	}
	return Ok(h.scheduler.Status())
}

func (h *EmailHandler) Stop(w http.ResponseWriter, r *http.Request) Result {
	h.scheduler.Stop()
	return Ok(h.scheduler.Status())
}

func (h *EmailHandler) RunCheck(w http.ResponseWriter, r *http.Request) Result {
	check := r.PathValue("check")
	emailType := enums.ParseEmailType(check)
	if emailType == enums.EmailTypeInvalid {
		return BadRequest("Unknown email check.")
	}

	sent, err := h.scheduler.RunCheck(r.Context(), emailType)
	if errors.Is(err, schedulers.ErrCheckInProgress) {
		return Conflict("This email check is already in progress.")
	}
	if err != nil {
		return InternalError(err, "run email check")
	}

	return Ok(models.CheckResponse{Check: check, Sent: sent})
}

func (h *EmailHandler) GetStats(w http.ResponseWriter, r *http.Request) Result {
	days := defaultStatsDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxStatsDays {
			return BadRequest("days must be an integer between 1 and 90.")
		}
		days = v
	}

	return Ok(h.stats.GetEmailStats(r.Context(), days))
}
