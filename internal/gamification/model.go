package gamification

import (
	"context"
	"time"

	"github.com/focusnest/gamification-service/internal/engine"
)

// ProfileResponse combines the stored profile with derived level information.
type ProfileResponse struct {
	engine.Profile
	LevelName           string               `json:"levelName"`
	LevelProgress       engine.LevelProgress `json:"levelProgress"`
	MotivationalMessage string               `json:"motivationalMessage"`
}

// RankResponse is the caller's leaderboard position. Rank is nil when the user is
// outside the searched window.
type RankResponse struct {
	UserID      string `json:"userId"`
	TotalPoints int    `json:"totalPoints"`
	Rank        *int   `json:"rank"`
	Window      int    `json:"window"`
}

// ActivityInput describes a workout to log.
type ActivityInput struct {
	UserID          string
	Type            engine.ActivityType
	DurationMinutes int
	DistanceKm      float64
	Intensity       engine.Intensity
	Notes           string
	PerformedAt     *time.Time
}

// ChallengeDetail is a challenge together with its members.
type ChallengeDetail struct {
	engine.Challenge
	Members []engine.Participant `json:"members"`
}

// QuestFunc computes a quest completion from the snapshot read inside a transaction.
type QuestFunc func(profile engine.Profile, history []engine.Activity) (engine.QuestResult, error)

// ActivityFunc computes the result of logging an activity from a transactional snapshot.
type ActivityFunc func(profile engine.Profile, history []engine.Activity) (engine.ActivityResult, error)

// RemoveFunc computes the profile after an activity is removed.
type RemoveFunc func(profile engine.Profile, remaining []engine.Activity, removed engine.Activity) (engine.Profile, error)

// JoinFunc validates a join and returns the member's updated profile. history is the
// member's activity log read in the same transaction.
type JoinFunc func(challenge engine.Challenge, alreadyJoined bool, profile engine.Profile, history []engine.Activity) (engine.Profile, error)

// Repository persists profiles, activities and challenges. Every mutating method runs
// its callback against a consistent snapshot and writes the result atomically; the
// callback may be invoked more than once when the store retries.
type Repository interface {
	GetProfile(ctx context.Context, userID string) (engine.Profile, error)
	ListActivities(ctx context.Context, userID string, limit int) ([]engine.Activity, error)
	ListActivitiesBetween(ctx context.Context, userID string, start, end time.Time) ([]engine.Activity, error)
	ListLeaderboard(ctx context.Context) ([]engine.LeaderboardUser, error)

	RecordQuest(ctx context.Context, userID string, apply QuestFunc) (engine.QuestResult, error)
	RecordActivity(ctx context.Context, userID string, apply ActivityFunc) (engine.ActivityResult, error)
	DeleteActivity(ctx context.Context, userID, activityID string, apply RemoveFunc) (engine.Profile, error)

	CreateChallenge(ctx context.Context, challenge engine.Challenge, creator engine.Participant, apply JoinFunc) (engine.Challenge, error)
	GetChallenge(ctx context.Context, challengeID string) (engine.Challenge, error)
	ListChallenges(ctx context.Context, status engine.ChallengeStatus) ([]engine.Challenge, error)
	ListParticipants(ctx context.Context, challengeID string) ([]engine.Participant, error)
	JoinChallenge(ctx context.Context, challengeID string, member engine.Participant, apply JoinFunc) (engine.Challenge, error)
	LeaveChallenge(ctx context.Context, challengeID, userID string) error
	DeleteChallenge(ctx context.Context, challengeID, userID string) error
	SetChallengeStatus(ctx context.Context, challengeID string, status engine.ChallengeStatus) error
}

// Service exposes the gamification operations to transports and jobs.
type Service interface {
	Today() engine.Date
	Levels() []engine.Level
	ListQuests() []engine.Quest
	QuestStatus(ctx context.Context, userID string, today engine.Date) (engine.QuestStatus, error)
	CompleteQuest(ctx context.Context, req engine.QuestCompletion, today engine.Date) (engine.QuestResult, error)

	GetProfile(ctx context.Context, userID string, today engine.Date) (*ProfileResponse, error)
	Achievements(ctx context.Context, userID string) ([]engine.BadgeProgress, error)

	LogActivity(ctx context.Context, input ActivityInput, today engine.Date) (engine.ActivityResult, error)
	ListActivities(ctx context.Context, userID string, limit int) ([]engine.Activity, error)
	DeleteActivity(ctx context.Context, userID, activityID string, today engine.Date) (engine.Profile, error)

	Leaderboard(ctx context.Context, limit int) ([]engine.LeaderboardEntry, error)
	UserRank(ctx context.Context, userID string, window int) (*RankResponse, error)

	ChallengeTemplates() []engine.ChallengeTemplate
	CreateChallenge(ctx context.Context, creator engine.Participant, input engine.ChallengeInput, today engine.Date) (engine.Challenge, error)
	GetChallenge(ctx context.Context, challengeID string) (*ChallengeDetail, error)
	ListChallenges(ctx context.Context, status engine.ChallengeStatus) ([]engine.Challenge, error)
	JoinChallenge(ctx context.Context, challengeID string, member engine.Participant, today engine.Date) (engine.Challenge, error)
	LeaveChallenge(ctx context.Context, challengeID, userID string) error
	DeleteChallenge(ctx context.Context, challengeID, userID string) error
	Standings(ctx context.Context, challengeID string) ([]engine.Standing, error)

	CloseExpiredChallenges(ctx context.Context, today engine.Date) (int, error)
	PublishLeaderboardSnapshot(ctx context.Context, limit int) error
}

// EventPublisher delivers domain events. Implementations must be safe for concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

// Clock delivers the current time; extracted for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces unique identifiers for new records.
type IDGenerator interface {
	NewID() string
}
