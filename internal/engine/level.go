package engine

import "math"

// Level is a coarse tier derived from cumulative points. MaxPoints is zero for the
// open-ended top tier.
type Level struct {
	Level     int    `json:"level"`
	Name      string `json:"name"`
	MinPoints int    `json:"minPoints"`
	MaxPoints int    `json:"maxPoints,omitempty"`
}

// LevelProgress reports progress towards the next tier.
type LevelProgress struct {
	Level      Level `json:"level"`
	Current    int   `json:"current"`
	Next       int   `json:"next"`
	Percentage int   `json:"percentage"`
}

var levels = []Level{
	{Level: 1, Name: "Beginner", MinPoints: 0, MaxPoints: 499},
	{Level: 2, Name: "Amateur", MinPoints: 500, MaxPoints: 1499},
	{Level: 3, Name: "Athlete", MinPoints: 1500, MaxPoints: 2999},
	{Level: 4, Name: "Champion", MinPoints: 3000, MaxPoints: 4999},
	{Level: 5, Name: "Legend", MinPoints: 5000},
}

// Levels returns the level table in ascending order.
func Levels() []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	return out
}

// LevelOf maps a point total to its level. Negative totals clamp to the first level.
func LevelOf(totalPoints int) Level {
	for i := len(levels) - 1; i >= 0; i-- {
		if totalPoints >= levels[i].MinPoints {
			return levels[i]
		}
	}
	return levels[0]
}

// ProgressToNextLevel returns the percentage (0-100) of the way from the current
// level's floor to the next level's floor. It is 100 at the top level.
func ProgressToNextLevel(totalPoints int) int {
	return LevelProgressOf(totalPoints).Percentage
}

// LevelProgressOf returns the current level together with the next threshold.
func LevelProgressOf(totalPoints int) LevelProgress {
	current := LevelOf(totalPoints)
	if current.Level == levels[len(levels)-1].Level {
		return LevelProgress{Level: current, Current: totalPoints, Next: current.MinPoints, Percentage: 100}
	}

	next := levels[current.Level]
	points := max(totalPoints, 0)
	span := next.MinPoints - current.MinPoints
	pct := int(math.Round(float64(points-current.MinPoints) / float64(span) * 100))

	return LevelProgress{
		Level:      current,
		Current:    totalPoints,
		Next:       next.MinPoints,
		Percentage: min(max(pct, 0), 100),
	}
}
