package gamification

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/focusnest/gamification-service/internal/engine"
)

type memoryRepository struct {
	mu           sync.RWMutex
	profiles     map[string]engine.Profile
	activities   map[string]map[string]engine.Activity // userID -> activityID -> Activity
	completions  map[string]struct{}
	challenges   map[string]engine.Challenge
	participants map[string]map[string]engine.Participant // challengeID -> userID -> Participant
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		profiles:     make(map[string]engine.Profile),
		activities:   make(map[string]map[string]engine.Activity),
		completions:  make(map[string]struct{}),
		challenges:   make(map[string]engine.Challenge),
		participants: make(map[string]map[string]engine.Participant),
	}
}

func (r *memoryRepository) profileLocked(userID string) engine.Profile {
	if p, ok := r.profiles[userID]; ok {
		return p.Clone()
	}
	return engine.NewProfile(userID)
}

func (r *memoryRepository) historyLocked(userID string) []engine.Activity {
	userStore := r.activities[userID]
	out := make([]engine.Activity, 0, len(userStore))
	for _, a := range userStore {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *memoryRepository) GetProfile(_ context.Context, userID string) (engine.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profileLocked(userID), nil
}

func (r *memoryRepository) ListActivities(_ context.Context, userID string, limit int) ([]engine.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.historyLocked(userID)
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

func (r *memoryRepository) ListActivitiesBetween(_ context.Context, userID string, start, end time.Time) ([]engine.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []engine.Activity
	for _, a := range r.historyLocked(userID) {
		if !a.CreatedAt.Before(start) && a.CreatedAt.Before(end) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryRepository) ListLeaderboard(_ context.Context) ([]engine.LeaderboardUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]engine.LeaderboardUser, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, engine.LeaderboardUser{UserID: p.UserID, DisplayName: p.DisplayName, TotalPoints: p.TotalPoints})
	}
	return out, nil
}

func (r *memoryRepository) RecordQuest(_ context.Context, userID string, apply QuestFunc) (engine.QuestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := apply(r.profileLocked(userID), r.historyLocked(userID))
	if err != nil {
		return engine.QuestResult{}, err
	}

	key := completionKey(userID, res.Completion.QuestID, res.Completion.Date)
	if _, exists := r.completions[key]; exists {
		return engine.QuestResult{}, errDuplicateCompletion(res.Completion.QuestID, res.Completion.Date)
	}
	r.completions[key] = struct{}{}
	r.profiles[userID] = res.Profile
	return res, nil
}

func (r *memoryRepository) RecordActivity(_ context.Context, userID string, apply ActivityFunc) (engine.ActivityResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := apply(r.profileLocked(userID), r.historyLocked(userID))
	if err != nil {
		return engine.ActivityResult{}, err
	}

	userStore, ok := r.activities[userID]
	if !ok {
		userStore = make(map[string]engine.Activity)
		r.activities[userID] = userStore
	}
	userStore[res.Activity.ID] = res.Activity
	r.profiles[userID] = res.Profile
	return res, nil
}

func (r *memoryRepository) DeleteActivity(_ context.Context, userID, activityID string, apply RemoveFunc) (engine.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed, ok := r.activities[userID][activityID]
	if !ok {
		return engine.Profile{}, errActivityNotFound(activityID)
	}

	remaining := slices.DeleteFunc(r.historyLocked(userID), func(a engine.Activity) bool {
		return a.ID == activityID
	})
	updated, err := apply(r.profileLocked(userID), remaining, removed)
	if err != nil {
		return engine.Profile{}, err
	}

	delete(r.activities[userID], activityID)
	r.profiles[userID] = updated
	return updated, nil
}

func (r *memoryRepository) CreateChallenge(_ context.Context, challenge engine.Challenge, creator engine.Participant, apply JoinFunc) (engine.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.challenges[challenge.ID]; exists {
		return engine.Challenge{}, engine.NewError(engine.ErrConflict, engine.CodeConcurrentUpdate, "challenge id already in use")
	}

	updated, err := apply(challenge, false, r.profileLocked(creator.UserID), r.historyLocked(creator.UserID))
	if err != nil {
		return engine.Challenge{}, err
	}

	challenge.Participants = 1
	r.challenges[challenge.ID] = challenge
	r.participants[challenge.ID] = map[string]engine.Participant{creator.UserID: creator}
	r.profiles[creator.UserID] = updated
	return challenge, nil
}

func (r *memoryRepository) GetChallenge(_ context.Context, challengeID string) (engine.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.challenges[challengeID]
	if !ok {
		return engine.Challenge{}, errChallengeNotFound(challengeID)
	}
	return c, nil
}

func (r *memoryRepository) ListChallenges(_ context.Context, status engine.ChallengeStatus) ([]engine.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]engine.Challenge, 0, len(r.challenges))
	for _, c := range r.challenges {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) ListParticipants(_ context.Context, challengeID string) ([]engine.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.challenges[challengeID]; !ok {
		return nil, errChallengeNotFound(challengeID)
	}
	out := make([]engine.Participant, 0, len(r.participants[challengeID]))
	for _, p := range r.participants[challengeID] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (r *memoryRepository) JoinChallenge(_ context.Context, challengeID string, member engine.Participant, apply JoinFunc) (engine.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.challenges[challengeID]
	if !ok {
		return engine.Challenge{}, errChallengeNotFound(challengeID)
	}
	_, joined := r.participants[challengeID][member.UserID]

	updated, err := apply(c, joined, r.profileLocked(member.UserID), r.historyLocked(member.UserID))
	if err != nil {
		return engine.Challenge{}, err
	}

	member.ChallengeID = challengeID
	r.participants[challengeID][member.UserID] = member
	c.Participants++
	r.challenges[challengeID] = c
	r.profiles[member.UserID] = updated
	return c, nil
}

func (r *memoryRepository) LeaveChallenge(_ context.Context, challengeID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.challenges[challengeID]
	if !ok {
		return errChallengeNotFound(challengeID)
	}
	_, joined := r.participants[challengeID][userID]
	if err := engine.CheckLeave(c, joined); err != nil {
		return err
	}

	delete(r.participants[challengeID], userID)
	c.Participants = max(c.Participants-1, 0)
	r.challenges[challengeID] = c
	return nil
}

func (r *memoryRepository) DeleteChallenge(_ context.Context, challengeID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.challenges[challengeID]
	if !ok {
		return errChallengeNotFound(challengeID)
	}
	if err := engine.CheckDelete(c, userID); err != nil {
		return err
	}

	delete(r.challenges, challengeID)
	delete(r.participants, challengeID)
	return nil
}

func (r *memoryRepository) SetChallengeStatus(_ context.Context, challengeID string, status engine.ChallengeStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.challenges[challengeID]
	if !ok {
		return errChallengeNotFound(challengeID)
	}
	c.Status = status
	r.challenges[challengeID] = c
	return nil
}
