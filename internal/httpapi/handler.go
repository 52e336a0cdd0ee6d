package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/focusnest/gamification-service/internal/engine"
	"github.com/focusnest/gamification-service/internal/gamification"
	sharedauth "github.com/focusnest/gamification-service/shared/auth"
	sharederrors "github.com/focusnest/gamification-service/shared/errors"
	"github.com/focusnest/gamification-service/shared/logging"
)

const (
	serviceTimeout   = 8 * time.Second
	maxBodyBytes     = 64 * 1024
	clientDateHeader = "X-Client-Date"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var errInvalidPayload = errors.New("invalid request body")

// RegisterRoutes registers all gamification routes. The caller is expected to wrap r
// with the auth middleware.
func RegisterRoutes(r chi.Router, service gamification.Service, logger *slog.Logger) {
	h := &handler{service: service, logger: logger}

	r.Get("/v1/levels", h.listLevels)

	r.Route("/v1/quests", func(r chi.Router) {
		r.Get("/", h.listQuests)
		r.Get("/status", h.questStatus)
		r.Post("/{id}/complete", h.completeQuest)
	})

	r.Get("/v1/achievements", h.achievements)
	r.Get("/v1/profile", h.getProfile)

	r.Route("/v1/activities", func(r chi.Router) {
		r.Get("/", h.listActivities)
		r.Post("/", h.logActivity)
		r.Delete("/{id}", h.deleteActivity)
	})

	r.Route("/v1/leaderboard", func(r chi.Router) {
		r.Get("/", h.leaderboard)
		r.Get("/me", h.myRank)
	})

	r.Route("/v1/challenges", func(r chi.Router) {
		r.Get("/", h.listChallenges)
		r.Post("/", h.createChallenge)
		r.Get("/templates", h.challengeTemplates)
		r.Get("/{id}", h.getChallenge)
		r.Delete("/{id}", h.deleteChallenge)
		r.Post("/{id}/join", h.joinChallenge)
		r.Post("/{id}/leave", h.leaveChallenge)
		r.Get("/{id}/standings", h.standings)
	})
}

type handler struct {
	service gamification.Service
	logger  *slog.Logger
}

func (h *handler) listLevels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"levels": h.service.Levels()})
}

func (h *handler) getProfile(w http.ResponseWriter, r *http.Request) {
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

	profile, err := h.service.GetProfile(ctx, userID, today)
	if err != nil {
		h.fail(w, r, "failed to load profile", err, userID)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *handler) achievements(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	progress, err := h.service.Achievements(ctx, userID)
	if err != nil {
		h.fail(w, r, "failed to load achievements", err, userID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"achievements": progress})
}

func (h *handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	entries, err := h.service.Leaderboard(ctx, limit)
	if err != nil {
		h.fail(w, r, "failed to build leaderboard", err, userIDFrom(r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *handler) myRank(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	window, ok := queryInt(w, r, "window")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	rank, err := h.service.UserRank(ctx, userID, window)
	if err != nil {
		h.fail(w, r, "failed to compute rank", err, userID)
		return
	}
	writeJSON(w, http.StatusOK, rank)
}

// today resolves the caller's calendar day. Clients may send their local date in
// X-Client-Date; it must lie within one day of the server's date. Quest completions
// never move backwards past a user's latest completed day, so a shifted date can
// only credit days in calendar order.
func (h *handler) today(w http.ResponseWriter, r *http.Request) (engine.Date, bool) {
	serverToday := h.service.Today()
	raw := strings.TrimSpace(r.Header.Get(clientDateHeader))
	if raw == "" {
		return serverToday, true
	}
	day, err := engine.ParseDate(raw)
	if err != nil || day.Before(serverToday.AddDays(-1)) || day.After(serverToday.AddDays(1)) {
		writeError(w, r, http.StatusBadRequest, engine.CodeInvalidTimestamp, fmt.Sprintf("%s must be a date within a day of %s", clientDateHeader, serverToday))
		return engine.Date{}, false
	}
	return day, true
}

// fail logs err and writes the matching error envelope.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, message string, err error, userID string) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		logRequestError(r.Context(), h.logger, message, err, userID)
		msg = message
	}
	writeError(w, r, status, code, msg)
}

// classify maps a service error to its HTTP status, code and client message.
func classify(err error) (int, string, string) {
	var engErr *engine.Error
	if !errors.As(err, &engErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return sharederrors.ToStatusCode(sharederrors.KindUnavailable), sharederrors.KindUnavailable, "request timed out"
		}
		return sharederrors.ToStatusCode(sharederrors.KindInternal), sharederrors.KindInternal, "internal error"
	}

	kind := sharederrors.KindInternal
	switch {
	case engErr.Code == engine.CodeNotCreator:
		kind = sharederrors.KindForbidden
	case errors.Is(engErr, engine.ErrNotFound):
		kind = sharederrors.KindNotFound
	case errors.Is(engErr, engine.ErrValidation):
		kind = sharederrors.KindBadRequest
	case errors.Is(engErr, engine.ErrDuplicateCompletion), errors.Is(engErr, engine.ErrConflict):
		kind = sharederrors.KindConflict
	}
	return sharederrors.ToStatusCode(kind), engErr.Code, engErr.Message
}

func userIDFrom(r *http.Request) string {
	if user, ok := sharedauth.UserFromContext(r.Context()); ok {
		return strings.TrimSpace(user.UserID)
	}
	return ""
}

func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := userIDFrom(r)
	if userID == "" {
		writeError(w, r, http.StatusUnauthorized, sharederrors.KindUnauthorized, "missing user ID")
		return "", false
	}
	return userID, true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, r, http.StatusBadRequest, sharederrors.KindBadRequest, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// decodeBody reads a single JSON document into dst and runs struct validation.
// An empty body is accepted when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return validate.Struct(dst)
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return errInvalidPayload
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errInvalidPayload
	}
	return validate.Struct(dst)
}

func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		maxErr     *http.MaxBytesError
		validation validator.ValidationErrors
	)
	switch {
	case errors.As(err, &maxErr):
		writeError(w, r, http.StatusRequestEntityTooLarge, sharederrors.KindBadRequest, "payload too large")
	case errors.As(err, &validation):
		problems := make([]string, 0, len(validation))
		for _, fe := range validation {
			problems = append(problems, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
		writeError(w, r, http.StatusBadRequest, sharederrors.KindBadRequest, strings.Join(problems, "; "))
	default:
		writeError(w, r, http.StatusBadRequest, sharederrors.KindBadRequest, errInvalidPayload.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, sharederrors.ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func logRequestError(ctx context.Context, logger *slog.Logger, message string, err error, userID string) {
	if logger == nil || err == nil {
		return
	}
	logging.WithRequestID(ctx, logger, middleware.GetReqID(ctx)).Error(message,
		slog.String("userId", userID),
		slog.Any("error", err),
	)
}
