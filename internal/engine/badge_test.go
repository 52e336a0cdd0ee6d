package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func badgeIDs(badges []Badge) []string {
	ids := make([]string, 0, len(badges))
	for _, b := range badges {
		ids = append(ids, b.ID)
	}
	return ids
}

func TestEvaluateEmptyHistory(t *testing.T) {
	e := newTestEngine(t)
	got := e.Evaluate(NewProfile("u1"), nil)
	require.Empty(t, got)

	progress, err := e.BadgeProgressFor("iron-man", NewProfile("u1"), nil)
	require.NoError(t, err)
	require.Zero(t, progress.Current)
	require.False(t, progress.IsComplete)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	profile := NewProfile("u1")
	profile.WorkoutCount = 5
	profile.Streak = 7

	first := e.Evaluate(profile, nil)
	require.ElementsMatch(t, []string{"beginner", "consistent", "streak-starter", "on-fire", "week-warrior"}, badgeIDs(first))

	again := e.Evaluate(profile, nil)
	require.Equal(t, badgeIDs(first), badgeIDs(again))

	profile.Badges = append(profile.Badges, badgeIDs(first)...)
	require.Empty(t, e.Evaluate(profile, nil))
}

func TestEvaluateHistoryRequirements(t *testing.T) {
	e := newTestEngine(t)
	history := []Activity{
		{Type: ActivityRunning, DurationMinutes: 125, DistanceKm: 60, CreatedAt: at("2026-01-01T06:30:00Z")},
		{Type: ActivityRunning, DurationMinutes: 40, DistanceKm: 40, CreatedAt: at("2026-01-02T22:15:00Z")},
		{Type: ActivityCycling, DurationMinutes: 30, DistanceKm: 150, CreatedAt: at("2026-01-03T12:00:00Z")},
	}

	got := badgeIDs(e.Evaluate(NewProfile("u1"), history))
	require.ElementsMatch(t, []string{"marathon-runner", "hour-warrior", "iron-man", "early-bird", "night-owl"}, got)
}

func TestEvaluateUsesEngineTimeZone(t *testing.T) {
	rules := DefaultRules()
	jakarta := time.FixedZone("WIB", 7*3600)
	rules.Location = jakarta
	e, err := New(rules)
	require.NoError(t, err)

	// 23:30 UTC is 06:30 the next morning in UTC+7.
	history := []Activity{{Type: ActivityYoga, DurationMinutes: 10, CreatedAt: at("2026-01-01T23:30:00Z")}}
	got := badgeIDs(e.Evaluate(NewProfile("u1"), history))
	require.Equal(t, []string{"early-bird"}, got)
}

func TestEvaluateActivityCountAndChallenges(t *testing.T) {
	e := newTestEngine(t)
	history := make([]Activity, 0, 25)
	for i := 0; i < 25; i++ {
		history = append(history, Activity{Type: ActivityYoga, DurationMinutes: 20, CreatedAt: at("2026-02-01T12:00:00Z").AddDate(0, 0, i)})
	}
	profile := NewProfile("u1")
	profile.ChallengesJoined = 3

	got := badgeIDs(e.Evaluate(profile, history))
	require.ElementsMatch(t, []string{"yogi", "competitor"}, got)
}

func TestProgressCapsPercentage(t *testing.T) {
	e := newTestEngine(t)
	profile := NewProfile("u1")
	profile.WorkoutCount = 8
	profile.Badges = []string{"beginner", "consistent"}

	byID := map[string]BadgeProgress{}
	for _, p := range e.Progress(profile, nil) {
		byID[p.Badge.ID] = p
	}

	require.Equal(t, 100.0, byID["consistent"].Percentage)
	require.True(t, byID["consistent"].Earned)
	require.Equal(t, 40.0, byID["dedicated"].Percentage)
	require.False(t, byID["dedicated"].IsComplete)

	_, err := e.BadgeProgressFor("missing", profile, nil)
	require.ErrorIs(t, err, ErrNotFound)
}
