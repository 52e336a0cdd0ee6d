package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListDailyQuestsIsStableCopy(t *testing.T) {
	e := newTestEngine(t)
	quests := e.ListDailyQuests()
	require.Len(t, quests, 5)
	require.Equal(t, "morning-jumpstart", quests[0].ID)

	quests[0].Points = 1
	again, err := e.Quest("morning-jumpstart")
	require.NoError(t, err)
	require.Equal(t, 40, again.Points)
}

func TestCompleteQuestCrossesLevelBoundary(t *testing.T) {
	rules := DefaultRules()
	rules.Achievements = append(rules.Achievements, Badge{
		ID: "half-k", Name: "Half K", RequirementType: RequirementPoints, RequirementValue: 500, Rarity: RarityCommon,
	})
	e, err := New(rules)
	require.NoError(t, err)

	profile := NewProfile("u1")
	profile.TotalPoints = 480
	today := day("2026-05-01")

	res, err := e.CompleteQuest(QuestCompletion{UserID: "u1", QuestID: "morning-jumpstart", ActualDurationMinutes: 15}, profile, nil, today)
	require.NoError(t, err)
	require.Equal(t, 40, res.PointsEarned)
	require.Equal(t, 520, res.NewTotalPoints)
	require.Equal(t, 2, res.NewLevel.Level)
	require.True(t, res.LevelChanged())
	require.Len(t, res.NewBadges, 1)
	require.Equal(t, "half-k", res.NewBadges[0].ID)
	require.Equal(t, []CompletedQuest{{QuestID: "morning-jumpstart", Date: today, Points: 40}}, res.Profile.CompletedQuests)
	require.Equal(t, 2, res.Profile.Level)
}

func TestCompleteQuestIsIdempotentPerDay(t *testing.T) {
	e := newTestEngine(t)
	today := day("2026-05-01")
	req := QuestCompletion{UserID: "u1", QuestID: "cardio-champion", ActualDurationMinutes: 30}

	first, err := e.CompleteQuest(req, NewProfile("u1"), nil, today)
	require.NoError(t, err)
	require.Equal(t, 60, first.Profile.TotalPoints)

	_, err = e.CompleteQuest(req, first.Profile, nil, today)
	require.ErrorIs(t, err, ErrDuplicateCompletion)
	require.Equal(t, CodeAlreadyCompletedToday, CodeOf(err))

	next, err := e.CompleteQuest(req, first.Profile, nil, today.AddDays(1))
	require.NoError(t, err)
	require.Equal(t, 120, next.Profile.TotalPoints)
}

func TestCompleteQuestFailureOrder(t *testing.T) {
	e := newTestEngine(t)
	today := day("2026-05-01")
	profile := NewProfile("u1")
	profile.CompletedQuests = []CompletedQuest{{QuestID: "zen-master", Date: today, Points: 45}}

	_, err := e.CompleteQuest(QuestCompletion{QuestID: "nope", ActualDurationMinutes: 0}, profile, nil, today)
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, CodeQuestNotFound, CodeOf(err))

	_, err = e.CompleteQuest(QuestCompletion{QuestID: "zen-master", ActualDurationMinutes: 0}, profile, nil, today)
	require.ErrorIs(t, err, ErrDuplicateCompletion)

	_, err = e.CompleteQuest(QuestCompletion{QuestID: "strength-seeker", ActualDurationMinutes: 0}, profile, nil, today)
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, CodeInvalidDuration, CodeOf(err))
}

func TestCompleteQuestRejectsEarlierDays(t *testing.T) {
	e := newTestEngine(t)
	today := day("2026-05-02")
	req := QuestCompletion{UserID: "u1", QuestID: "morning-jumpstart", ActualDurationMinutes: 20}

	ahead, err := e.CompleteQuest(req, NewProfile("u1"), nil, today.AddDays(1))
	require.NoError(t, err)

	_, err = e.CompleteQuest(req, ahead.Profile, nil, today)
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, CodeInvalidTimestamp, CodeOf(err))

	_, err = e.CompleteQuest(QuestCompletion{QuestID: "cardio-champion", ActualDurationMinutes: 20}, ahead.Profile, nil, today.AddDays(-1))
	require.Equal(t, CodeInvalidTimestamp, CodeOf(err))

	_, err = e.CompleteQuest(QuestCompletion{QuestID: "cardio-champion", ActualDurationMinutes: 20}, ahead.Profile, nil, today.AddDays(1))
	require.NoError(t, err)
}

func TestCompleteQuestActivityTypeMustMatch(t *testing.T) {
	e := newTestEngine(t)
	today := day("2026-05-01")

	_, err := e.CompleteQuest(QuestCompletion{QuestID: "zen-master", ActualDurationMinutes: 30, ActivityType: ActivityRunning}, NewProfile("u1"), nil, today)
	require.Equal(t, CodeActivityTypeMismatch, CodeOf(err))

	_, err = e.CompleteQuest(QuestCompletion{QuestID: "morning-jumpstart", ActualDurationMinutes: 30, ActivityType: ActivityRunning}, NewProfile("u1"), nil, today)
	require.NoError(t, err)
}

func TestCompleteQuestEnforcedMinimums(t *testing.T) {
	rules := DefaultRules()
	rules.EnforceQuestMinimums = true
	e, err := New(rules)
	require.NoError(t, err)
	today := day("2026-05-01")

	_, err = e.CompleteQuest(QuestCompletion{QuestID: "endurance-elite", ActualDurationMinutes: 30}, NewProfile("u1"), nil, today)
	require.Equal(t, CodeInsufficientDuration, CodeOf(err))

	_, err = e.CompleteQuest(QuestCompletion{QuestID: "zen-master", ActualDurationMinutes: 30}, NewProfile("u1"), nil, today)
	require.Equal(t, CodeActivityTypeMismatch, CodeOf(err))
}

func TestQuestPointPolicyDuration(t *testing.T) {
	rules := DefaultRules()
	rules.QuestPoints = QuestPointsDuration
	e, err := New(rules)
	require.NoError(t, err)

	res, err := e.CompleteQuest(QuestCompletion{QuestID: "morning-jumpstart", ActualDurationMinutes: 22}, NewProfile("u1"), nil, day("2026-05-01"))
	require.NoError(t, err)
	require.Equal(t, 22, res.PointsEarned)
	require.Equal(t, 22, res.Profile.CompletedQuests[0].Points)
}

func TestCompleteQuestRejectsOversizedDuration(t *testing.T) {
	rules := DefaultRules()
	rules.QuestPoints = QuestPointsDuration
	e, err := New(rules)
	require.NoError(t, err)
	today := day("2026-05-01")

	res, err := e.CompleteQuest(QuestCompletion{QuestID: "morning-jumpstart", ActualDurationMinutes: MaxDurationMinutes}, NewProfile("u1"), nil, today)
	require.NoError(t, err)
	require.Equal(t, MaxDurationMinutes, res.PointsEarned)

	_, err = e.CompleteQuest(QuestCompletion{QuestID: "cardio-champion", ActualDurationMinutes: MaxDurationMinutes + 1}, res.Profile, nil, today)
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, CodeInvalidDuration, CodeOf(err))
}

func TestCompleteQuestRefreshesStreak(t *testing.T) {
	e := newTestEngine(t)
	profile := NewProfile("u1")
	profile.Streak = 5
	profile.WorkoutCount = 1
	history := []Activity{
		{ID: "a1", UserID: "u1", Type: ActivityWalking, DurationMinutes: 30, Intensity: IntensityLight, CreatedAt: at("2026-10-05T12:00:00Z")},
	}

	res, err := e.CompleteQuest(QuestCompletion{QuestID: "morning-jumpstart", ActualDurationMinutes: 15}, profile, history, day("2026-10-15"))
	require.NoError(t, err)
	require.Zero(t, res.Profile.Streak)
	require.NotContains(t, res.Profile.Badges, "streak-starter")

	history = append(history,
		Activity{ID: "a2", UserID: "u1", Type: ActivityWalking, DurationMinutes: 30, Intensity: IntensityLight, CreatedAt: at("2026-10-14T12:00:00Z")},
		Activity{ID: "a3", UserID: "u1", Type: ActivityWalking, DurationMinutes: 30, Intensity: IntensityLight, CreatedAt: at("2026-10-15T12:00:00Z")},
	)
	res, err = e.CompleteQuest(QuestCompletion{QuestID: "cardio-champion", ActualDurationMinutes: 15}, profile, history, day("2026-10-15"))
	require.NoError(t, err)
	require.Equal(t, 2, res.Profile.Streak)
}

func TestQuestStatusFor(t *testing.T) {
	e := newTestEngine(t)
	today := day("2026-05-02")
	profile := NewProfile("u1")
	profile.TotalPoints = 200
	profile.CompletedQuests = []CompletedQuest{
		{QuestID: "zen-master", Date: today.AddDays(-1), Points: 45},
		{QuestID: "cardio-champion", Date: today, Points: 60},
		{QuestID: "morning-jumpstart", Date: today, Points: 40},
	}

	status := e.QuestStatusFor(profile, today)
	require.Equal(t, []string{"cardio-champion", "morning-jumpstart"}, status.CompletedQuestIDs)
	require.Equal(t, 100, status.PointsEarnedToday)
	require.Equal(t, 200, status.TotalPoints)
}
