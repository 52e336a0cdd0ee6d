package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced quest, achievement, challenge or activity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateCompletion indicates a quest was already completed for the user on that day.
	ErrDuplicateCompletion = errors.New("duplicate completion")
	// ErrConflict indicates a concurrent update was detected by the store.
	ErrConflict = errors.New("conflict")
)

// Machine-readable error codes.
const (
	CodeQuestNotFound         = "quest_not_found"
	CodeAchievementNotFound   = "achievement_not_found"
	CodeChallengeNotFound     = "challenge_not_found"
	CodeTemplateNotFound      = "template_not_found"
	CodeActivityNotFound      = "activity_not_found"
	CodeProfileNotFound       = "profile_not_found"
	CodeAlreadyCompletedToday = "already_completed_today"
	CodeInvalidDuration       = "invalid_duration"
	CodeInvalidActivityType   = "invalid_activity_type"
	CodeInvalidIntensity      = "invalid_intensity"
	CodeInvalidDistance       = "invalid_distance"
	CodeActivityTypeMismatch  = "activity_type_mismatch"
	CodeInsufficientDuration  = "insufficient_duration"
	CodeMissingField          = "missing_field"
	CodeInvalidTimestamp      = "invalid_timestamp"
	CodeInvalidStatus         = "invalid_status"
	CodeInvalidGoal           = "invalid_goal"
	CodeInvalidCatalog        = "invalid_catalog"
	CodeChallengeFull         = "challenge_full"
	CodeChallengeClosed       = "challenge_closed"
	CodeAlreadyJoined         = "already_joined"
	CodeNotParticipant        = "not_participant"
	CodeNotCreator            = "not_creator"
	CodeConcurrentUpdate      = "concurrent_update"
)

// Error is the result value for expected business failures. Kind is one of the
// package sentinels so callers can branch with errors.Is.
type Error struct {
	Kind    error
	Code    string
	Message string
}

// NewError builds an Error of the given kind.
func NewError(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// CodeOf returns the machine-readable code carried by err, or "" when err is not an *Error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func notFound(code, format string, args ...any) *Error {
	return NewError(ErrNotFound, code, fmt.Sprintf(format, args...))
}

func invalid(code, format string, args ...any) *Error {
	return NewError(ErrValidation, code, fmt.Sprintf(format, args...))
}

func conflict(code, format string, args ...any) *Error {
	return NewError(ErrConflict, code, fmt.Sprintf(format, args...))
}
