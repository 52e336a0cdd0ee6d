package engine

import (
	"slices"
	"time"
)

// ActivityType identifies the kind of workout logged.
type ActivityType string

const (
	ActivityRunning  ActivityType = "running"
	ActivityWalking  ActivityType = "walking"
	ActivityCycling  ActivityType = "cycling"
	ActivityStrength ActivityType = "strength"
	ActivityYoga     ActivityType = "yoga"
	ActivityCardio   ActivityType = "cardio"
	ActivitySwimming ActivityType = "swimming"
	ActivitySports   ActivityType = "sports"
)

// ActivityTypes lists every supported activity type in display order.
var ActivityTypes = []ActivityType{
	ActivityRunning,
	ActivityWalking,
	ActivityCycling,
	ActivityStrength,
	ActivityYoga,
	ActivityCardio,
	ActivitySwimming,
	ActivitySports,
}

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	return slices.Contains(ActivityTypes, t)
}

// Intensity scales the calories burned by an activity.
type Intensity string

const (
	IntensityLight  Intensity = "light"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// Multiplier returns the calorie multiplier for the intensity.
func (i Intensity) Multiplier() (float64, bool) {
	switch i {
	case IntensityLight:
		return 1, true
	case IntensityMedium:
		return 1.5, true
	case IntensityHigh:
		return 2, true
	default:
		return 0, false
	}
}

// Activity is a single logged workout. It is never mutated once created.
type Activity struct {
	ID              string       `json:"id"`
	UserID          string       `json:"userId"`
	Type            ActivityType `json:"type"`
	DurationMinutes int          `json:"durationMinutes"`
	DistanceKm      float64      `json:"distanceKm"`
	Intensity       Intensity    `json:"intensity"`
	CaloriesBurned  int          `json:"caloriesBurned"`
	Notes           string       `json:"notes,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// CompletedQuest records one quest completion on one calendar day.
type CompletedQuest struct {
	QuestID string `json:"questId"`
	Date    Date   `json:"date"`
	Points  int    `json:"points"`
}

// Profile is the gamification snapshot owned by a single user.
type Profile struct {
	UserID           string           `json:"userId"`
	DisplayName      string           `json:"displayName,omitempty"`
	TotalPoints      int              `json:"totalPoints"`
	WorkoutCount     int              `json:"workoutCount"`
	TotalMinutes     int              `json:"totalMinutes"`
	Streak           int              `json:"streak"`
	Level            int              `json:"level"`
	Badges           []string         `json:"badges"`
	CompletedQuests  []CompletedQuest `json:"completedQuests"`
	ChallengesJoined int              `json:"challengesJoined"`
	UpdatedAt        time.Time        `json:"updatedAt,omitempty"`
}

// NewProfile returns the baseline profile for a user that has no history yet.
func NewProfile(userID string) Profile {
	return Profile{
		UserID:          userID,
		Level:           LevelOf(0).Level,
		Badges:          []string{},
		CompletedQuests: []CompletedQuest{},
	}
}

// HasBadge reports whether the profile already holds the badge.
func (p Profile) HasBadge(id string) bool {
	return slices.Contains(p.Badges, id)
}

// HasCompleted reports whether questID was completed on day.
func (p Profile) HasCompleted(questID string, day Date) bool {
	for _, c := range p.CompletedQuests {
		if c.QuestID == questID && c.Date == day {
			return true
		}
	}
	return false
}

// LastCompletionDay returns the latest day any quest was completed on.
func (p Profile) LastCompletionDay() (Date, bool) {
	var last Date
	found := false
	for _, c := range p.CompletedQuests {
		if !found || c.Date.After(last) {
			last, found = c.Date, true
		}
	}
	return last, found
}

// Clone returns a deep copy so engine operations never alias caller slices.
func (p Profile) Clone() Profile {
	out := p
	out.Badges = slices.Clone(p.Badges)
	if out.Badges == nil {
		out.Badges = []string{}
	}
	out.CompletedQuests = slices.Clone(p.CompletedQuests)
	if out.CompletedQuests == nil {
		out.CompletedQuests = []CompletedQuest{}
	}
	return out
}

// Quest is a catalog-defined daily challenge.
type Quest struct {
	ID                      string       `json:"id"`
	Title                   string       `json:"title"`
	Description             string       `json:"description"`
	Points                  int          `json:"points"`
	RequiredDurationMinutes int          `json:"requiredDurationMinutes"`
	RequiredActivityType    ActivityType `json:"requiredActivityType,omitempty"`
}

// Accepts reports whether an activity of type t satisfies the quest's type requirement.
func (q Quest) Accepts(t ActivityType) bool {
	return q.RequiredActivityType == "" || q.RequiredActivityType == t
}

// RequirementType selects the aggregate a badge is evaluated against.
type RequirementType string

const (
	RequirementWorkoutCount   RequirementType = "workout_count"
	RequirementPoints         RequirementType = "points"
	RequirementStreak         RequirementType = "streak"
	RequirementWeeklyStreak   RequirementType = "weekly_streak"
	RequirementMonthlyStreak  RequirementType = "monthly_streak"
	RequirementActivityCount  RequirementType = "activity_count"
	RequirementDistance       RequirementType = "distance"
	RequirementSingleDuration RequirementType = "single_duration"
	RequirementEarlyWorkout   RequirementType = "early_workout"
	RequirementLateWorkout    RequirementType = "late_workout"
	RequirementChallenges     RequirementType = "challenges"
)

// Rarity grades how hard a badge is to earn.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Badge is a permanent achievement unlocked by crossing a threshold.
type Badge struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	RequirementType  RequirementType `json:"requirementType"`
	RequirementValue float64         `json:"requirementValue"`
	ActivityType     ActivityType    `json:"activityType,omitempty"`
	Rarity           Rarity          `json:"rarity"`
	Points           int             `json:"points"`
}

// BadgeProgress describes how close a profile is to unlocking a badge.
type BadgeProgress struct {
	Badge       Badge   `json:"badge"`
	Current     float64 `json:"current"`
	Requirement float64 `json:"requirement"`
	Percentage  float64 `json:"percentage"`
	IsComplete  bool    `json:"isComplete"`
	Earned      bool    `json:"earned"`
}

// GoalType selects the metric a challenge is scored on.
type GoalType string

const (
	GoalDistance      GoalType = "distance"
	GoalCalories      GoalType = "calories"
	GoalDuration      GoalType = "duration"
	GoalVariety       GoalType = "variety"
	GoalStreak        GoalType = "streak"
	GoalEarlyWorkouts GoalType = "early_workouts"
)

// Valid reports whether g is a known goal type.
func (g GoalType) Valid() bool {
	switch g {
	case GoalDistance, GoalCalories, GoalDuration, GoalVariety, GoalStreak, GoalEarlyWorkouts:
		return true
	default:
		return false
	}
}

// ChallengeStatus is the lifecycle state of a challenge.
type ChallengeStatus string

const (
	ChallengeActive    ChallengeStatus = "active"
	ChallengeCompleted ChallengeStatus = "completed"
)

// ChallengeTemplate is a reusable challenge definition.
type ChallengeTemplate struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	GoalType     GoalType     `json:"goalType"`
	GoalValue    float64      `json:"goalValue"`
	ActivityType ActivityType `json:"activityType,omitempty"`
	DurationDays int          `json:"durationDays"`
}

// Challenge is a time-boxed multi-participant competition.
type Challenge struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	CreatorID       string          `json:"creatorId"`
	TemplateID      string          `json:"templateId,omitempty"`
	GoalType        GoalType        `json:"goalType"`
	GoalValue       float64         `json:"goalValue"`
	ActivityType    ActivityType    `json:"activityType,omitempty"`
	DurationDays    int             `json:"durationDays"`
	StartDate       Date            `json:"startDate"`
	EndDate         Date            `json:"endDate"`
	MaxParticipants int             `json:"maxParticipants"`
	Participants    int             `json:"participants"`
	Status          ChallengeStatus `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Contains reports whether day falls inside the challenge window (inclusive).
func (c Challenge) Contains(day Date) bool {
	return !day.Before(c.StartDate) && !day.After(c.EndDate)
}

// Participant is a user's membership in a challenge.
type Participant struct {
	ChallengeID string    `json:"challengeId"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName,omitempty"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// Standing is a participant's computed progress and rank.
type Standing struct {
	UserID      string  `json:"userId"`
	DisplayName string  `json:"displayName,omitempty"`
	Progress    float64 `json:"progress"`
	Percentage  float64 `json:"percentage"`
	Rank        int     `json:"rank"`
}
