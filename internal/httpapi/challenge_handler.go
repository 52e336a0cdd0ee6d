package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/focusnest/gamification-service/internal/engine"
	sharederrors "github.com/focusnest/gamification-service/shared/errors"
)

type createChallengeRequest struct {
	Title           string       `json:"title" validate:"max=120"`
	Description     string       `json:"description" validate:"max=1000"`
	TemplateID      string       `json:"template_id"`
	GoalType        string       `json:"goal_type"`
	GoalValue       float64      `json:"goal_value" validate:"gte=0"`
	ActivityType    string       `json:"activity_type"`
	DurationDays    int          `json:"duration_days" validate:"gte=0,lte=365"`
	StartDate       *engine.Date `json:"start_date,omitempty"`
	MaxParticipants int          `json:"max_participants" validate:"gte=0,lte=1000"`
	DisplayName     string       `json:"display_name" validate:"max=80"`
}

type joinChallengeRequest struct {
	DisplayName string `json:"display_name" validate:"max=80"`
}

func (h *handler) challengeTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"templates": h.service.ChallengeTemplates()})
}

func (h *handler) listChallenges(w http.ResponseWriter, r *http.Request) {
	state := engine.ChallengeStatus(strings.TrimSpace(r.URL.Query().Get("status")))

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	challenges, err := h.service.ListChallenges(ctx, state)
	if err != nil {
		h.fail(w, r, "failed to list challenges", err, userIDFrom(r))
		return
	}
	if challenges == nil {
		challenges = []engine.Challenge{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"challenges": challenges})
}

func (h *handler) createChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	today, ok := h.today(w, r)
	if !ok {
		return
	}

	var body createChallengeRequest
	if err := decodeBody(w, r, &body, false); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	input := engine.ChallengeInput{
		Title:           strings.TrimSpace(body.Title),
		Description:     strings.TrimSpace(body.Description),
		TemplateID:      strings.TrimSpace(body.TemplateID),
		GoalType:        engine.GoalType(body.GoalType),
		GoalValue:       body.GoalValue,
		ActivityType:    engine.ActivityType(body.ActivityType),
		DurationDays:    body.DurationDays,
		MaxParticipants: body.MaxParticipants,
	}
	if body.StartDate != nil {
		input.StartDate = *body.StartDate
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	creator := engine.Participant{UserID: userID, DisplayName: strings.TrimSpace(body.DisplayName)}
	challenge, err := h.service.CreateChallenge(ctx, creator, input, today)
	if err != nil {
		h.fail(w, r, "failed to create challenge", err, userID)
		return
	}
	writeJSON(w, http.StatusCreated, challenge)
}

func (h *handler) getChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := challengeIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	detail, err := h.service.GetChallenge(ctx, challengeID)
	if err != nil {
		h.fail(w, r, "failed to load challenge", err, userIDFrom(r))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *handler) joinChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	challengeID, ok := challengeIDParam(w, r)
	if !ok {
		return
	}
	today, ok := h.today(w, r)
	if !ok {
		return
	}

	var body joinChallengeRequest
	if err := decodeBody(w, r, &body, true); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	member := engine.Participant{UserID: userID, DisplayName: strings.TrimSpace(body.DisplayName)}
	challenge, err := h.service.JoinChallenge(ctx, challengeID, member, today)
	if err != nil {
		h.fail(w, r, "failed to join challenge", err, userID)
		return
	}
	writeJSON(w, http.StatusOK, challenge)
}

func (h *handler) leaveChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	challengeID, ok := challengeIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if err := h.service.LeaveChallenge(ctx, challengeID, userID); err != nil {
		h.fail(w, r, "failed to leave challenge", err, userID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handler) deleteChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	challengeID, ok := challengeIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if err := h.service.DeleteChallenge(ctx, challengeID, userID); err != nil {
		h.fail(w, r, "failed to delete challenge", err, userID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) standings(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := challengeIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	standings, err := h.service.Standings(ctx, challengeID)
	if err != nil {
		h.fail(w, r, "failed to compute standings", err, userIDFrom(r))
		return
	}
	if standings == nil {
		standings = []engine.Standing{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"standings": standings})
}

func challengeIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	challengeID := strings.TrimSpace(chi.URLParam(r, "id"))
	if challengeID == "" {
		writeError(w, r, http.StatusBadRequest, sharederrors.KindBadRequest, "missing challenge id")
		return "", false
	}
	return challengeID, true
}
