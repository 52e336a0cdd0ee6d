package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/focusnest/gamification-service/internal/engine"
	sharederrors "github.com/focusnest/gamification-service/shared/errors"
)

type completeQuestRequest struct {
	DurationMinutes int    `json:"duration_minutes" validate:"gt=0,lte=1440"`
	ActivityType    string `json:"activity_type,omitempty" validate:"omitempty,lowercase"`
}

func (h *handler) listQuests(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"quests": h.service.ListQuests()})
}

func (h *handler) questStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	today, ok := h.today(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	status, err := h.service.QuestStatus(ctx, userID, today)
	if err != nil {
		h.fail(w, r, "failed to load quest status", err, userID)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *handler) completeQuest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	questID := strings.TrimSpace(chi.URLParam(r, "id"))
	if questID == "" {
		writeError(w, r, http.StatusBadRequest, sharederrors.KindBadRequest, "missing quest id")
		return
	}
	today, ok := h.today(w, r)
	if !ok {
		return
	}

	var body completeQuestRequest
	if err := decodeBody(w, r, &body, false); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	result, err := h.service.CompleteQuest(ctx, engine.QuestCompletion{
		UserID:                userID,
		QuestID:               questID,
		ActualDurationMinutes: body.DurationMinutes,
		ActivityType:          engine.ActivityType(body.ActivityType),
	}, today)
	if err != nil {
		h.fail(w, r, "failed to complete quest", err, userID)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
