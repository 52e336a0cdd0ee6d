package engine

import (
	"math"
	"strings"
)

// MaxDurationMinutes caps a single activity or quest completion at one day.
const MaxDurationMinutes = 24 * 60

func checkDuration(minutes int) error {
	switch {
	case minutes <= 0:
		return invalid(CodeInvalidDuration, "duration must be greater than 0")
	case minutes > MaxDurationMinutes:
		return invalid(CodeInvalidDuration, "duration must be at most %d minutes", MaxDurationMinutes)
	}
	return nil
}

// ComputeCalories returns round(duration * baseRate[type] * multiplier[intensity]).
func (e *Engine) ComputeCalories(t ActivityType, durationMinutes int, intensity Intensity) (int, error) {
	rate, ok := e.rules.CalorieRates[t]
	if !ok {
		return 0, invalid(CodeInvalidActivityType, "unknown activity type %q", t)
	}
	mult, ok := intensity.Multiplier()
	if !ok {
		return 0, invalid(CodeInvalidIntensity, "unknown intensity %q", intensity)
	}
	if err := checkDuration(durationMinutes); err != nil {
		return 0, err
	}
	return int(math.Round(float64(durationMinutes) * rate * mult)), nil
}

// ComputePoints awards a fixed number of points per active minute. Durations outside
// (0, MaxDurationMinutes] earn nothing.
func (e *Engine) ComputePoints(durationMinutes int) int {
	if checkDuration(durationMinutes) != nil {
		return 0
	}
	return durationMinutes * e.rules.PointsPerMinute
}

// ValidateActivity checks the user-supplied fields of an activity.
func ValidateActivity(a Activity) error {
	switch {
	case strings.TrimSpace(a.UserID) == "":
		return invalid(CodeMissingField, "user id is required")
	case !a.Type.Valid():
		return invalid(CodeInvalidActivityType, "unknown activity type %q", a.Type)
	case checkDuration(a.DurationMinutes) != nil:
		return checkDuration(a.DurationMinutes)
	case a.DistanceKm < 0 || math.IsNaN(a.DistanceKm) || math.IsInf(a.DistanceKm, 0):
		return invalid(CodeInvalidDistance, "distance must be a non-negative number")
	case a.CreatedAt.IsZero():
		return invalid(CodeMissingField, "created at is required")
	}
	if _, ok := a.Intensity.Multiplier(); !ok {
		return invalid(CodeInvalidIntensity, "unknown intensity %q", a.Intensity)
	}
	return nil
}

// ActivityResult is the outcome of logging an activity.
type ActivityResult struct {
	Activity     Activity `json:"activity"`
	Profile      Profile  `json:"profile"`
	PointsEarned int      `json:"pointsEarned"`
	LevelBefore  Level    `json:"levelBefore"`
	Level        Level    `json:"level"`
	NewBadges    []Badge  `json:"newBadges"`
}

// LevelChanged reports whether the activity moved the user to a new level.
func (r ActivityResult) LevelChanged() bool {
	return r.Level.Level != r.LevelBefore.Level
}

// LogActivity computes the profile that results from adding activity to history.
// history must not already contain the activity. Neither input is mutated.
func (e *Engine) LogActivity(profile Profile, history []Activity, activity Activity, today Date) (ActivityResult, error) {
	if err := ValidateActivity(activity); err != nil {
		return ActivityResult{}, err
	}
	calories, err := e.ComputeCalories(activity.Type, activity.DurationMinutes, activity.Intensity)
	if err != nil {
		return ActivityResult{}, err
	}
	activity.CaloriesBurned = calories

	updated := profile.Clone()
	before := LevelOf(updated.TotalPoints)
	points := e.ComputePoints(activity.DurationMinutes)

	updated.WorkoutCount++
	updated.TotalMinutes += activity.DurationMinutes
	updated.TotalPoints += points
	updated.Level = LevelOf(updated.TotalPoints).Level

	all := make([]Activity, 0, len(history)+1)
	all = append(all, history...)
	all = append(all, activity)
	updated.Streak = e.StreakFor(all, today)

	newBadges := e.Evaluate(updated, all)
	for _, b := range newBadges {
		updated.Badges = append(updated.Badges, b.ID)
	}

	return ActivityResult{
		Activity:     activity,
		Profile:      updated,
		PointsEarned: points,
		LevelBefore:  before,
		Level:        LevelOf(updated.TotalPoints),
		NewBadges:    newBadges,
	}, nil
}

// RemoveActivity reverses the aggregate deltas of a deleted activity. remaining is
// the history without the removed activity. Points and badges are kept.
func (e *Engine) RemoveActivity(profile Profile, remaining []Activity, removed Activity, today Date) Profile {
	updated := profile.Clone()
	updated.WorkoutCount = max(updated.WorkoutCount-1, 0)
	updated.TotalMinutes = max(updated.TotalMinutes-removed.DurationMinutes, 0)
	updated.Streak = e.StreakFor(remaining, today)
	updated.Level = LevelOf(updated.TotalPoints).Level
	return updated
}
