package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeStreak(t *testing.T) {
	today := day("2026-04-10")

	days := NewDateSet(today, today.AddDays(-1), today.AddDays(-2), today.AddDays(-4))
	require.Equal(t, 3, ComputeStreak(days, today))

	withoutToday := NewDateSet(today.AddDays(-1), today.AddDays(-2))
	require.Equal(t, 0, ComputeStreak(withoutToday, today))

	require.Equal(t, 0, ComputeStreak(nil, today))
	require.Equal(t, 0, ComputeStreak(NewDateSet(), today))
}

func TestComputeStreakAcrossMonthBoundary(t *testing.T) {
	today := day("2026-03-01")
	days := NewDateSet(today, day("2026-02-28"), day("2026-02-27"))
	require.Equal(t, 3, ComputeStreak(days, today))
}

func TestStreakPolicyAllowYesterday(t *testing.T) {
	rules := DefaultRules()
	rules.Streak = StreakAllowYesterday
	e, err := New(rules)
	require.NoError(t, err)

	today := day("2026-04-10")
	days := NewDateSet(today.AddDays(-1), today.AddDays(-2))
	require.Equal(t, 2, e.Streak(days, today))
	require.Equal(t, 0, newTestEngine(t).Streak(days, today))
}

func TestStreakForUsesCalendarDaysNotInstants(t *testing.T) {
	rules := DefaultRules()
	rules.Location = time.FixedZone("EST", -5*3600)
	e, err := New(rules)
	require.NoError(t, err)

	// Both instants are under 24h apart but fall on different local days.
	history := []Activity{
		{CreatedAt: at("2026-04-10T04:30:00Z")}, // 2026-04-09 23:30 local
		{CreatedAt: at("2026-04-10T06:00:00Z")}, // 2026-04-10 01:00 local
	}
	require.Equal(t, 2, e.StreakFor(history, day("2026-04-10")))
}

func TestLongestRun(t *testing.T) {
	from := day("2026-04-01")
	to := day("2026-04-10")
	days := NewDateSet(
		day("2026-03-30"), day("2026-03-31"), // outside window
		day("2026-04-01"), day("2026-04-02"),
		day("2026-04-05"), day("2026-04-06"), day("2026-04-07"),
		day("2026-04-11"), // outside window
	)
	require.Equal(t, 3, LongestRun(days, from, to))
	require.Equal(t, 0, LongestRun(nil, from, to))
}
