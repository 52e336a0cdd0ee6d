package events

import "time"

// QuestCompleted is emitted after a daily quest completion is committed.
type QuestCompleted struct {
	UserID      string    `json:"userId"`
	QuestID     string    `json:"questId"`
	Date        string    `json:"date"`
	Points      int       `json:"points"`
	TotalPoints int       `json:"totalPoints"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// ActivityLogged is emitted when a workout is recorded.
type ActivityLogged struct {
	UserID          string    `json:"userId"`
	ActivityID      string    `json:"activityId"`
	Type            string    `json:"type"`
	DurationMinutes int       `json:"durationMinutes"`
	CaloriesBurned  int       `json:"caloriesBurned"`
	PointsEarned    int       `json:"pointsEarned"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// BadgeUnlocked is emitted once per badge a user newly holds.
type BadgeUnlocked struct {
	UserID     string    `json:"userId"`
	BadgeID    string    `json:"badgeId"`
	BadgeName  string    `json:"badgeName"`
	Rarity     string    `json:"rarity"`
	OccurredAt time.Time `json:"occurredAt"`
}

// LevelChanged is emitted when a user's total points cross a level boundary.
type LevelChanged struct {
	UserID     string    `json:"userId"`
	FromLevel  int       `json:"fromLevel"`
	ToLevel    int       `json:"toLevel"`
	LevelName  string    `json:"levelName"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ChallengeClosed is emitted when an expired challenge is marked completed.
type ChallengeClosed struct {
	ChallengeID string    `json:"challengeId"`
	EndDate     string    `json:"endDate"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// LeaderboardEntry is one row of a LeaderboardSnapshot.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	TotalPoints int    `json:"totalPoints"`
	Level       int    `json:"level"`
}

// LeaderboardSnapshot carries the top of the leaderboard at a point in time.
type LeaderboardSnapshot struct {
	Entries []LeaderboardEntry `json:"entries"`
	TakenAt time.Time          `json:"takenAt"`
}
