package gamification

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/focusnest/gamification-service/internal/engine"
)

// ===== Clock =====

type systemClock struct{}

// NewSystemClock returns a Clock implementation backed by time.Now.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// ===== ID Generator =====

type uuidGenerator struct{}

// NewUUIDGenerator returns an IDGenerator that produces v7 UUIDs where available, falling back to v4.
func NewUUIDGenerator() IDGenerator {
	return uuidGenerator{}
}

func (uuidGenerator) NewID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// challengeID builds a readable, collision-resistant id such as "weekly-runner-1f3a9c2e".
func challengeID(title string, ids IDGenerator) string {
	suffix := strings.ReplaceAll(ids.NewID(), "-", "")
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	base := slug.Make(title)
	if base == "" {
		return suffix
	}
	if len(base) > 48 {
		base = strings.Trim(base[:48], "-")
	}
	return base + "-" + suffix
}

// ===== Store errors =====

func errChallengeNotFound(id string) error {
	return engine.NewError(engine.ErrNotFound, engine.CodeChallengeNotFound, fmt.Sprintf("challenge %s does not exist", id))
}

func errActivityNotFound(id string) error {
	return engine.NewError(engine.ErrNotFound, engine.CodeActivityNotFound, fmt.Sprintf("activity %s does not exist", id))
}

func errDuplicateCompletion(questID string, day engine.Date) error {
	return engine.NewError(engine.ErrDuplicateCompletion, engine.CodeAlreadyCompletedToday,
		fmt.Sprintf("quest %s already completed on %s", questID, day))
}

func errConcurrentUpdate(cause error) error {
	return fmt.Errorf("%w: %v", engine.NewError(engine.ErrConflict, engine.CodeConcurrentUpdate, "profile was modified concurrently"), cause)
}

func completionKey(userID, questID string, day engine.Date) string {
	return userID + "_" + questID + "_" + day.String()
}

func participantKey(challengeID, userID string) string {
	return challengeID + "_" + userID
}
