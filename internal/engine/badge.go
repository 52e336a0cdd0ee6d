package engine

import "math"

// Achievements returns a copy of the badge catalog.
func (e *Engine) Achievements() []Badge {
	out := make([]Badge, len(e.rules.Achievements))
	copy(out, e.rules.Achievements)
	return out
}

// Achievement looks up a badge by id.
func (e *Engine) Achievement(id string) (Badge, error) {
	b, ok := e.achievements[id]
	if !ok {
		return Badge{}, notFound(CodeAchievementNotFound, "achievement %s does not exist", id)
	}
	return b, nil
}

// Evaluate returns the badges the profile qualifies for but does not hold yet.
// It is a pure function of its inputs; calling it again after the returned ids are
// added to profile.Badges yields nothing.
func (e *Engine) Evaluate(profile Profile, history []Activity) []Badge {
	stats := e.aggregate(profile, history)
	earned := []Badge{}
	for _, b := range e.rules.Achievements {
		if profile.HasBadge(b.ID) {
			continue
		}
		if stats.current(b) >= b.RequirementValue {
			earned = append(earned, b)
		}
	}
	return earned
}

// Progress reports how far the profile is from every badge in the catalog.
func (e *Engine) Progress(profile Profile, history []Activity) []BadgeProgress {
	stats := e.aggregate(profile, history)
	out := make([]BadgeProgress, 0, len(e.rules.Achievements))
	for _, b := range e.rules.Achievements {
		out = append(out, progressFor(b, stats.current(b), profile.HasBadge(b.ID)))
	}
	return out
}

// BadgeProgressFor reports progress towards a single badge.
func (e *Engine) BadgeProgressFor(id string, profile Profile, history []Activity) (BadgeProgress, error) {
	b, err := e.Achievement(id)
	if err != nil {
		return BadgeProgress{}, err
	}
	stats := e.aggregate(profile, history)
	return progressFor(b, stats.current(b), profile.HasBadge(b.ID)), nil
}

func progressFor(b Badge, current float64, held bool) BadgeProgress {
	pct := 0.0
	if b.RequirementValue > 0 {
		pct = math.Min(current/b.RequirementValue*100, 100)
	}
	return BadgeProgress{
		Badge:       b,
		Current:     current,
		Requirement: b.RequirementValue,
		Percentage:  pct,
		IsComplete:  current >= b.RequirementValue,
		Earned:      held,
	}
}

type badgeStats struct {
	profile        Profile
	countByType    map[ActivityType]int
	distanceByType map[ActivityType]float64
	total          int
	maxDuration    int
	early          int
	late           int
}

func (e *Engine) aggregate(profile Profile, history []Activity) badgeStats {
	stats := badgeStats{
		profile:        profile,
		countByType:    make(map[ActivityType]int),
		distanceByType: make(map[ActivityType]float64),
	}
	for _, a := range history {
		stats.total++
		stats.countByType[a.Type]++
		stats.distanceByType[a.Type] += a.DistanceKm
		stats.maxDuration = max(stats.maxDuration, a.DurationMinutes)

		hour := e.localHour(a.CreatedAt)
		if hour < 7 {
			stats.early++
		}
		if hour >= 22 {
			stats.late++
		}
	}
	return stats
}

func (s badgeStats) current(b Badge) float64 {
	switch b.RequirementType {
	case RequirementWorkoutCount:
		return float64(s.profile.WorkoutCount)
	case RequirementPoints:
		return float64(s.profile.TotalPoints)
	case RequirementStreak, RequirementWeeklyStreak, RequirementMonthlyStreak:
		return float64(s.profile.Streak)
	case RequirementChallenges:
		return float64(s.profile.ChallengesJoined)
	case RequirementActivityCount:
		if b.ActivityType == "" {
			return float64(s.total)
		}
		return float64(s.countByType[b.ActivityType])
	case RequirementDistance:
		if b.ActivityType == "" {
			return 0
		}
		return s.distanceByType[b.ActivityType]
	case RequirementSingleDuration:
		return float64(s.maxDuration)
	case RequirementEarlyWorkout:
		return float64(s.early)
	case RequirementLateWorkout:
		return float64(s.late)
	default:
		return 0
	}
}
