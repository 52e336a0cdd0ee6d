package engine

// ComputeStreak counts consecutive days with activity walking backward from today.
// It is 0 when today itself has no activity.
func ComputeStreak(days DateSet, today Date) int {
	streak := 0
	for day := today; days.Has(day); day = day.AddDays(-1) {
		streak++
	}
	return streak
}

// LongestRun returns the longest run of consecutive active days within [from, to].
func LongestRun(days DateSet, from, to Date) int {
	longest, current := 0, 0
	for day := from; !day.After(to); day = day.AddDays(1) {
		if days.Has(day) {
			current++
			longest = max(longest, current)
			continue
		}
		current = 0
	}
	return longest
}

// Streak applies the configured streak policy to a set of active days.
func (e *Engine) Streak(days DateSet, today Date) int {
	if streak := ComputeStreak(days, today); streak > 0 {
		return streak
	}
	if e.rules.Streak == StreakAllowYesterday {
		return ComputeStreak(days, today.AddDays(-1))
	}
	return 0
}

// StreakFor derives the streak from an activity history.
func (e *Engine) StreakFor(activities []Activity, today Date) int {
	return e.Streak(e.ActivityDates(activities), today)
}

// ActivityDates returns the local calendar days on which activities happened.
func (e *Engine) ActivityDates(activities []Activity) DateSet {
	days := make(DateSet, len(activities))
	for _, a := range activities {
		days[DateIn(a.CreatedAt, e.rules.Location)] = struct{}{}
	}
	return days
}
