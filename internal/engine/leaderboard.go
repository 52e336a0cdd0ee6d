package engine

import (
	"cmp"
	"slices"
)

const (
	// DefaultLeaderboardLimit is the page size when the caller does not choose one.
	DefaultLeaderboardLimit = 50
	// DefaultRankWindow is how deep UserRank searches by default.
	DefaultRankWindow = 100
)

// Scored is an item to be ranked.
type Scored struct {
	ID    string
	Score float64
}

// Ranked is a Scored item with its rank.
type Ranked struct {
	ID    string
	Score float64
	Rank  int
}

// Rank sorts entries by score descending and assigns ranks where ties share a
// rank and the next distinct score skips by the size of the tie group (1,2,2,4).
// Ties are ordered by ID so the output is deterministic.
func Rank(entries []Scored) []Ranked {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Scored) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	out := make([]Ranked, len(sorted))
	for i, s := range sorted {
		rank := i + 1
		if i > 0 && s.Score == sorted[i-1].Score {
			rank = out[i-1].Rank
		}
		out[i] = Ranked{ID: s.ID, Score: s.Score, Rank: rank}
	}
	return out
}

// LeaderboardUser is the projection of a profile needed for ranking.
type LeaderboardUser struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
	TotalPoints int    `json:"totalPoints"`
}

// LeaderboardEntry is one ranked row of the leaderboard.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
	TotalPoints int    `json:"totalPoints"`
	Level       int    `json:"level"`
	LevelName   string `json:"levelName"`
}

// BuildLeaderboard ranks the whole population and then truncates to limit, so
// ranks reflect the full ordering. A non-positive limit uses DefaultLeaderboardLimit.
func BuildLeaderboard(users []LeaderboardUser, limit int) []LeaderboardEntry {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	byID := make(map[string]LeaderboardUser, len(users))
	scored := make([]Scored, 0, len(users))
	for _, u := range users {
		byID[u.UserID] = u
		scored = append(scored, Scored{ID: u.UserID, Score: float64(u.TotalPoints)})
	}

	ranked := Rank(scored)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]LeaderboardEntry, 0, len(ranked))
	for _, r := range ranked {
		u := byID[r.ID]
		level := LevelOf(u.TotalPoints)
		out = append(out, LeaderboardEntry{
			Rank:        r.Rank,
			UserID:      u.UserID,
			DisplayName: u.DisplayName,
			TotalPoints: u.TotalPoints,
			Level:       level.Level,
			LevelName:   level.Name,
		})
	}
	return out
}

// UserRank returns the user's rank if they appear within the first window rows of
// the leaderboard. A non-positive window uses DefaultRankWindow.
func UserRank(userID string, users []LeaderboardUser, window int) (int, bool) {
	if window <= 0 {
		window = DefaultRankWindow
	}
	for _, e := range BuildLeaderboard(users, window) {
		if e.UserID == userID {
			return e.Rank, true
		}
	}
	return 0, false
}
