package engine

import "strings"

// QuestCompletion is a request to complete a daily quest. ActivityType is optional.
type QuestCompletion struct {
	UserID                string
	QuestID               string
	ActualDurationMinutes int
	ActivityType          ActivityType
}

// QuestResult is the outcome of a successful quest completion.
type QuestResult struct {
	Quest          Quest          `json:"quest"`
	Completion     CompletedQuest `json:"completion"`
	PointsEarned   int            `json:"pointsEarned"`
	NewTotalPoints int            `json:"newTotalPoints"`
	LevelBefore    Level          `json:"levelBefore"`
	NewLevel       Level          `json:"newLevel"`
	NewBadges      []Badge        `json:"newBadges"`
	Profile        Profile        `json:"profile"`
}

// LevelChanged reports whether the completion crossed a level boundary.
func (r QuestResult) LevelChanged() bool {
	return r.NewLevel.Level != r.LevelBefore.Level
}

// QuestStatus summarises a user's quests for one day.
type QuestStatus struct {
	Date              Date     `json:"date"`
	CompletedQuestIDs []string `json:"completedQuestIds"`
	PointsEarnedToday int      `json:"pointsEarnedToday"`
	TotalPoints       int      `json:"totalPoints"`
}

// ListDailyQuests returns the quest catalog.
func (e *Engine) ListDailyQuests() []Quest {
	out := make([]Quest, len(e.rules.Quests))
	copy(out, e.rules.Quests)
	return out
}

// Quest looks up a quest by id.
func (e *Engine) Quest(id string) (Quest, error) {
	q, ok := e.quests[id]
	if !ok {
		return Quest{}, notFound(CodeQuestNotFound, "quest %s does not exist", id)
	}
	return q, nil
}

// QuestPoints returns the points a completion is worth under the configured policy.
func (e *Engine) QuestPoints(q Quest, actualDurationMinutes int) int {
	if e.rules.QuestPoints == QuestPointsDuration {
		return e.ComputePoints(actualDurationMinutes)
	}
	return q.Points
}

// CompleteQuest applies a quest completion to a profile snapshot. Failures are checked
// in order: unknown quest, already completed on today, today earlier than the latest
// completion, duration out of range. The
// returned profile is a new value; the inputs are not mutated, so a transaction may
// re-run the call safely.
func (e *Engine) CompleteQuest(req QuestCompletion, profile Profile, history []Activity, today Date) (QuestResult, error) {
	quest, err := e.Quest(req.QuestID)
	if err != nil {
		return QuestResult{}, err
	}
	if profile.HasCompleted(quest.ID, today) {
		return QuestResult{}, NewError(ErrDuplicateCompletion, CodeAlreadyCompletedToday,
			"quest "+quest.ID+" already completed on "+today.String())
	}
	if last, ok := profile.LastCompletionDay(); ok && today.Before(last) {
		return QuestResult{}, invalid(CodeInvalidTimestamp, "cannot complete quests for %s after completing one for %s", today, last)
	}
	if err := checkDuration(req.ActualDurationMinutes); err != nil {
		return QuestResult{}, err
	}
	if err := e.checkQuestRequirements(quest, req); err != nil {
		return QuestResult{}, err
	}

	updated := profile.Clone()
	if updated.UserID == "" {
		updated.UserID = strings.TrimSpace(req.UserID)
	}
	before := LevelOf(updated.TotalPoints)
	points := e.QuestPoints(quest, req.ActualDurationMinutes)
	completion := CompletedQuest{QuestID: quest.ID, Date: today, Points: points}

	updated.CompletedQuests = append(updated.CompletedQuests, completion)
	updated.TotalPoints += points
	newLevel := LevelOf(updated.TotalPoints)
	updated.Level = newLevel.Level
	updated.Streak = e.StreakFor(history, today)

	newBadges := e.Evaluate(updated, history)
	for _, b := range newBadges {
		updated.Badges = append(updated.Badges, b.ID)
	}

	return QuestResult{
		Quest:          quest,
		Completion:     completion,
		PointsEarned:   points,
		NewTotalPoints: updated.TotalPoints,
		LevelBefore:    before,
		NewLevel:       newLevel,
		NewBadges:      newBadges,
		Profile:        updated,
	}, nil
}

func (e *Engine) checkQuestRequirements(q Quest, req QuestCompletion) error {
	if req.ActivityType != "" {
		if !req.ActivityType.Valid() {
			return invalid(CodeInvalidActivityType, "unknown activity type %q", req.ActivityType)
		}
		if !q.Accepts(req.ActivityType) {
			return invalid(CodeActivityTypeMismatch, "quest %s requires %s", q.ID, q.RequiredActivityType)
		}
	}
	if !e.rules.EnforceQuestMinimums {
		return nil
	}
	if q.RequiredActivityType != "" && req.ActivityType == "" {
		return invalid(CodeActivityTypeMismatch, "quest %s requires %s", q.ID, q.RequiredActivityType)
	}
	if req.ActualDurationMinutes < q.RequiredDurationMinutes {
		return invalid(CodeInsufficientDuration, "quest %s requires at least %d minutes", q.ID, q.RequiredDurationMinutes)
	}
	return nil
}

// QuestStatusFor lists the quests completed on day.
func (e *Engine) QuestStatusFor(profile Profile, day Date) QuestStatus {
	status := QuestStatus{Date: day, CompletedQuestIDs: []string{}, TotalPoints: profile.TotalPoints}
	for _, c := range profile.CompletedQuests {
		if c.Date != day {
			continue
		}
		status.CompletedQuestIDs = append(status.CompletedQuestIDs, c.QuestID)
		status.PointsEarnedToday += c.Points
	}
	return status
}
