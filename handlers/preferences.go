package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kova98/gigscout.api/data"
	"github.com/kova98/gigscout.api/matchers"
	"github.com/kova98/gigscout.api/models"
)

const (
	maxPreferenceSkills     = 50
	defaultNotificationTime = "08:00"
)

type PreferenceStore interface {
	GetPreference(ctx context.Context, userID uuid.UUID) (*data.UserEmailPreference, error)
	UpsertPreference(ctx context.Context, pref data.UserEmailPreference) error
	DeletePreference(ctx context.Context, userID uuid.UUID) error
}

type PreferenceHandler struct {
	repo PreferenceStore
}

func NewPreferenceHandler(repo PreferenceStore) *PreferenceHandler {
	return &PreferenceHandler{repo: repo}
}

// defaultPreferences mirrors the column defaults of user_email_preferences.
func defaultPreferences() models.EmailPreferences {
	return models.EmailPreferences{
		PerfectMatchAlerts: true,
		DailyDigest:        true,
		WeeklyTrends:       false,
		Skills:             []string{},
		NotificationTime:   defaultNotificationTime,
	}
}

func (h *PreferenceHandler) GetPreferences(w http.ResponseWriter, r *http.Request) Result {
	user := currentUser(r)

	pref, err := h.repo.GetPreference(r.Context(), user.ID)
	if err != nil {
		return InternalError(err, "get preferences")
	}
	if pref == nil {
		return Ok(defaultPreferences())
	}

	return Ok(toPreferenceModel(*pref))
}

func (h *PreferenceHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) Result {
	user := currentUser(r)

	var req models.EmailPreferences
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return BadRequest("Invalid request.")
	}

	if msg := validatePreferences(req); msg != "" {
		return BadRequest(msg)
	}

	notificationTime := req.NotificationTime
	if notificationTime == "" {
		notificationTime = defaultNotificationTime
	}

	pref := data.UserEmailPreference{
		UserID:             user.ID,
		PerfectMatchAlerts: req.PerfectMatchAlerts,
		DailyDigest:        req.DailyDigest,
		WeeklyTrends:       req.WeeklyTrends,
		MinRate:            req.MinRate,
		MaxRate:            req.MaxRate,
		Skills:             matchers.MergeSkills(nil, req.Skills...),
		NotificationTime:   notificationTime,
	}
	if err := h.repo.UpsertPreference(r.Context(), pref); err != nil {
		return InternalError(err, "update preferences")
	}

	return Ok(toPreferenceModel(pref))
}

func (h *PreferenceHandler) DeletePreferences(w http.ResponseWriter, r *http.Request) Result {
	user := currentUser(r)

	if err := h.repo.DeletePreference(r.Context(), user.ID); err != nil {
		return InternalError(err, "delete preferences")
	}

	return NoContent()
}

func validatePreferences(req models.EmailPreferences) string {
	if req.MinRate != nil && *req.MinRate < 0 {
		return "Minimum rate must not be negative."
	}
	if req.MaxRate != nil && *req.MaxRate < 0 {
		return "Maximum rate must not be negative."
	}
	if req.MinRate != nil && req.MaxRate != nil && *req.MaxRate > 0 && *req.MinRate > *req.MaxRate {
		return "Minimum rate must not exceed maximum rate."
	}
	if len(req.Skills) > maxPreferenceSkills {
		return "Too many skills."
	}
	if req.NotificationTime != "" {
		if _, err := time.Parse("15:04", req.NotificationTime); err != nil {
			return "Notification time must be in HH:MM format."
		}
	}
	return ""
}

func toPreferenceModel(pref data.UserEmailPreference) models.EmailPreferences {
	skills := []string(pref.Skills)
	if skills == nil {
		skills = []string{}
	}
	return models.EmailPreferences{
		PerfectMatchAlerts: pref.PerfectMatchAlerts,
		DailyDigest:        pref.DailyDigest,
		WeeklyTrends:       pref.WeeklyTrends,
		MinRate:            pref.MinRate,
		MaxRate:            pref.MaxRate,
		Skills:             skills,
		NotificationTime:   pref.NotificationTime,
	}
}
