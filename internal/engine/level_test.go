package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelOfBoundaries(t *testing.T) {
	cases := []struct {
		points int
		level  int
		name   string
	}{
		{-50, 1, "Beginner"},
		{0, 1, "Beginner"},
		{499, 1, "Beginner"},
		{500, 2, "Amateur"},
		{1499, 2, "Amateur"},
		{1500, 3, "Athlete"},
		{2999, 3, "Athlete"},
		{3000, 4, "Champion"},
		{4999, 4, "Champion"},
		{5000, 5, "Legend"},
		{1_000_000, 5, "Legend"},
	}

	for _, tc := range cases {
		got := LevelOf(tc.points)
		require.Equalf(t, tc.level, got.Level, "points=%d", tc.points)
		require.Equalf(t, tc.name, got.Name, "points=%d", tc.points)
	}
}

func TestLevelOfIsMonotonic(t *testing.T) {
	prev := LevelOf(-1).Level
	for p := 0; p <= 6000; p++ {
		cur := LevelOf(p).Level
		if cur < prev {
			t.Fatalf("level decreased at %d: %d -> %d", p, prev, cur)
		}
		prev = cur
	}
}

func TestProgressToNextLevel(t *testing.T) {
	require.Equal(t, 0, ProgressToNextLevel(0))
	require.Equal(t, 50, ProgressToNextLevel(250))
	require.Equal(t, 0, ProgressToNextLevel(500))
	require.Equal(t, 50, ProgressToNextLevel(1000))
	require.Equal(t, 100, ProgressToNextLevel(5000))
	require.Equal(t, 100, ProgressToNextLevel(9000))
	require.Equal(t, 0, ProgressToNextLevel(-20))
}

func TestLevelProgressOfReportsNextThreshold(t *testing.T) {
	got := LevelProgressOf(1600)
	require.Equal(t, 3, got.Level.Level)
	require.Equal(t, 1600, got.Current)
	require.Equal(t, 3000, got.Next)
	require.Equal(t, 7, got.Percentage)
}

func TestLevelsReturnsCopy(t *testing.T) {
	ls := Levels()
	ls[0].Name = "changed"
	require.Equal(t, "Beginner", LevelOf(0).Name)
}
