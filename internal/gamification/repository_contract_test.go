package gamification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/focusnest/gamification-service/internal/engine"
)

// runRepositoryContract exercises the behaviour every Repository implementation
// must share. repo must be empty.
func runRepositoryContract(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()
	eng, err := engine.New(engine.DefaultRules())
	require.NoError(t, err)

	today := engine.DateOf(testNow)
	base := time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC)

	t.Run("new users read as empty profiles", func(t *testing.T) {
		p, err := repo.GetProfile(ctx, "fresh")
		require.NoError(t, err)
		require.Equal(t, "fresh", p.UserID)
		require.Zero(t, p.TotalPoints)
	})

	t.Run("quest completions are unique per day", func(t *testing.T) {
		req := engine.QuestCompletion{UserID: "quester", QuestID: "morning-jumpstart", ActualDurationMinutes: 15}
		res, err := repo.RecordQuest(ctx, "quester", func(p engine.Profile, h []engine.Activity) (engine.QuestResult, error) {
			return eng.CompleteQuest(req, p, h, today)
		})
		require.NoError(t, err)
		require.Equal(t, 40, res.NewTotalPoints)

		stored, err := repo.GetProfile(ctx, "quester")
		require.NoError(t, err)
		require.Equal(t, 40, stored.TotalPoints)
		require.True(t, stored.HasCompleted("morning-jumpstart", today))

		// A stale snapshot that no longer shows the completion must still be rejected.
		_, err = repo.RecordQuest(ctx, "quester", func(_ engine.Profile, h []engine.Activity) (engine.QuestResult, error) {
			return eng.CompleteQuest(req, engine.NewProfile("quester"), h, today)
		})
		require.ErrorIs(t, err, engine.ErrDuplicateCompletion)

		stored, err = repo.GetProfile(ctx, "quester")
		require.NoError(t, err)
		require.Equal(t, 40, stored.TotalPoints)

		_, err = repo.RecordQuest(ctx, "quester", func(p engine.Profile, h []engine.Activity) (engine.QuestResult, error) {
			return eng.CompleteQuest(req, p, h, today.AddDays(1))
		})
		require.NoError(t, err)
	})

	t.Run("activities are listed newest first", func(t *testing.T) {
		for i, minutes := range []int{20, 30, 40} {
			activity := engine.Activity{
				ID:              "act-" + string(rune('a'+i)),
				UserID:          "mover",
				Type:            engine.ActivityWalking,
				DurationMinutes: minutes,
				Intensity:       engine.IntensityLight,
				CreatedAt:       base.Add(time.Duration(i) * time.Hour),
			}
			_, err := repo.RecordActivity(ctx, "mover", func(p engine.Profile, h []engine.Activity) (engine.ActivityResult, error) {
				require.Len(t, h, i)
				return eng.LogActivity(p, h, activity, today)
			})
			require.NoError(t, err)
		}

		all, err := repo.ListActivities(ctx, "mover", 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		require.Equal(t, "act-c", all[0].ID)
		calories, err := eng.ComputeCalories(engine.ActivityWalking, 40, engine.IntensityLight)
		require.NoError(t, err)
		require.Equal(t, calories, all[0].CaloriesBurned)

		latest, err := repo.ListActivities(ctx, "mover", 2)
		require.NoError(t, err)
		require.Len(t, latest, 2)

		window, err := repo.ListActivitiesBetween(ctx, "mover", base.Add(time.Hour), base.Add(2*time.Hour))
		require.NoError(t, err)
		require.Len(t, window, 1)
		require.Equal(t, "act-b", window[0].ID)

		p, err := repo.GetProfile(ctx, "mover")
		require.NoError(t, err)
		require.Equal(t, 3, p.WorkoutCount)
		require.Equal(t, 90, p.TotalMinutes)
	})

	t.Run("deleting an activity passes the remaining history", func(t *testing.T) {
		updated, err := repo.DeleteActivity(ctx, "mover", "act-a", func(p engine.Profile, remaining []engine.Activity, removed engine.Activity) (engine.Profile, error) {
			require.Len(t, remaining, 2)
			require.Equal(t, 20, removed.DurationMinutes)
			return eng.RemoveActivity(p, remaining, removed, today), nil
		})
		require.NoError(t, err)
		require.Equal(t, 2, updated.WorkoutCount)
		require.Equal(t, 70, updated.TotalMinutes)

		_, err = repo.DeleteActivity(ctx, "mover", "act-a", func(p engine.Profile, _ []engine.Activity, _ engine.Activity) (engine.Profile, error) {
			return p, nil
		})
		require.ErrorIs(t, err, engine.ErrNotFound)
	})

	t.Run("leaderboard lists every profile", func(t *testing.T) {
		users, err := repo.ListLeaderboard(ctx)
		require.NoError(t, err)
		points := map[string]int{}
		for _, u := range users {
			points[u.UserID] = u.TotalPoints
		}
		require.Equal(t, 80, points["quester"])
		require.Equal(t, 90, points["mover"])
	})

	t.Run("challenge membership", func(t *testing.T) {
		challenge, err := eng.NewChallenge("ride-1", "host", engine.ChallengeInput{TemplateID: "calorie-burner", MaxParticipants: 2}, today, base)
		require.NoError(t, err)

		var seenHistory int
		join := func(c engine.Challenge, already bool, p engine.Profile, h []engine.Activity) (engine.Profile, error) {
			seenHistory = len(h)
			if err := engine.CheckJoin(c, already, today); err != nil {
				return engine.Profile{}, err
			}
			p.ChallengesJoined++
			return p, nil
		}

		created, err := repo.CreateChallenge(ctx, challenge, engine.Participant{ChallengeID: "ride-1", UserID: "host", JoinedAt: base}, join)
		require.NoError(t, err)
		require.Equal(t, 1, created.Participants)

		got, err := repo.GetChallenge(ctx, "ride-1")
		require.NoError(t, err)
		require.Equal(t, challenge.EndDate, got.EndDate)
		require.Equal(t, engine.GoalCalories, got.GoalType)

		joined, err := repo.JoinChallenge(ctx, "ride-1", engine.Participant{UserID: "guest", JoinedAt: base.Add(time.Minute)}, join)
		require.NoError(t, err)
		require.Equal(t, 2, joined.Participants)
		require.Zero(t, seenHistory)

		_, err = repo.JoinChallenge(ctx, "ride-1", engine.Participant{UserID: "mover", JoinedAt: base}, join)
		require.Equal(t, engine.CodeChallengeFull, engine.CodeOf(err))
		require.Equal(t, 2, seenHistory, "join sees the member's activity history")

		_, err = repo.JoinChallenge(ctx, "ride-1", engine.Participant{UserID: "late", JoinedAt: base}, join)
		require.Equal(t, engine.CodeChallengeFull, engine.CodeOf(err))

		_, err = repo.JoinChallenge(ctx, "ride-1", engine.Participant{UserID: "guest", JoinedAt: base}, join)
		require.Equal(t, engine.CodeAlreadyJoined, engine.CodeOf(err))

		members, err := repo.ListParticipants(ctx, "ride-1")
		require.NoError(t, err)
		require.Len(t, members, 2)
		require.Equal(t, "host", members[0].UserID)

		guest, err := repo.GetProfile(ctx, "guest")
		require.NoError(t, err)
		require.Equal(t, 1, guest.ChallengesJoined)

		require.NoError(t, repo.LeaveChallenge(ctx, "ride-1", "guest"))
		require.ErrorIs(t, repo.LeaveChallenge(ctx, "ride-1", "guest"), engine.ErrNotFound)

		got, err = repo.GetChallenge(ctx, "ride-1")
		require.NoError(t, err)
		require.Equal(t, 1, got.Participants)

		require.NoError(t, repo.SetChallengeStatus(ctx, "ride-1", engine.ChallengeCompleted))
		active, err := repo.ListChallenges(ctx, engine.ChallengeActive)
		require.NoError(t, err)
		require.Empty(t, active)
		completed, err := repo.ListChallenges(ctx, engine.ChallengeCompleted)
		require.NoError(t, err)
		require.Len(t, completed, 1)

		require.Equal(t, engine.CodeNotCreator, engine.CodeOf(repo.DeleteChallenge(ctx, "ride-1", "guest")))
		require.NoError(t, repo.DeleteChallenge(ctx, "ride-1", "host"))
		_, err = repo.GetChallenge(ctx, "ride-1")
		require.True(t, errors.Is(err, engine.ErrNotFound))
		require.ErrorIs(t, repo.SetChallengeStatus(ctx, "ride-1", engine.ChallengeActive), engine.ErrNotFound)
	})
}
