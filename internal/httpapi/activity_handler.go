package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/focusnest/gamification-service/internal/engine"
	"github.com/focusnest/gamification-service/internal/gamification"
	sharederrors "github.com/focusnest/gamification-service/shared/errors"
)

type logActivityRequest struct {
	Type            string     `json:"type" validate:"required"`
	DurationMinutes int        `json:"duration_minutes" validate:"gt=0,lte=1440"`
	DistanceKm      float64    `json:"distance_km" validate:"gte=0"`
	Intensity       string     `json:"intensity,omitempty" validate:"omitempty,oneof=light medium high"`
	Notes           string     `json:"notes,omitempty" validate:"max=500"`
	PerformedAt     *time.Time `json:"performed_at,omitempty"`
}

func (h *handler) logActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	today, ok := h.today(w, r)
	if !ok {
		return
	}

	var body logActivityRequest
	if err := decodeBody(w, r, &body, false); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	result, err := h.service.LogActivity(ctx, gamification.ActivityInput{
		UserID:          userID,
		Type:            engine.ActivityType(strings.ToLower(strings.TrimSpace(body.Type))),
		DurationMinutes: body.DurationMinutes,
		DistanceKm:      body.DistanceKm,
		Intensity:       engine.Intensity(body.Intensity),
		Notes:           body.Notes,
		PerformedAt:     body.PerformedAt,
	}, today)
	if err != nil {
		h.fail(w, r, "failed to log activity", err, userID)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *handler) listActivities(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	activities, err := h.service.ListActivities(ctx, userID, limit)
	if err != nil {
		h.fail(w, r, "failed to list activities", err, userID)
		return
	}
	if activities == nil {
		activities = []engine.Activity{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"activities": activities})
}

func (h *handler) deleteActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	activityID := strings.TrimSpace(chi.URLParam(r, "id"))
	if activityID == "" {
		writeError(w, r, http.StatusBadRequest, sharederrors.KindBadRequest, "missing activity id")
		return
	}
	today, ok := h.today(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	profile, err := h.service.DeleteActivity(ctx, userID, activityID, today)
	if err != nil {
		h.fail(w, r, "failed to delete activity", err, userID)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
