package gamification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/focusnest/gamification-service/internal/engine"
	"github.com/focusnest/gamification-service/internal/metrics"
	sharedevents "github.com/focusnest/gamification-service/shared/events"
	"github.com/focusnest/gamification-service/shared/pubsub"
)

const (
	maxConflictRetries  = 3
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	publishTimeout      = 5 * time.Second
	standingsFanout     = 8
)

type service struct {
	repo   Repository
	engine *engine.Engine
	clock  Clock
	ids    IDGenerator
	events EventPublisher
	logger *slog.Logger
}

// NewService wires the gamification service. events may be nil, in which case no
// domain events are published.
func NewService(repo Repository, eng *engine.Engine, clock Clock, ids IDGenerator, events EventPublisher, logger *slog.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if eng == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if clock == nil {
		clock = NewSystemClock()
	}
	if ids == nil {
		ids = NewUUIDGenerator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		repo:   repo,
		engine: eng,
		clock:  clock,
		ids:    ids,
		events: events,
		logger: logger.With(slog.String("module", "gamification"), slog.String("layer", "service")),
	}, nil
}

func (s *service) Today() engine.Date {
	return s.engine.Today(s.clock.Now())
}

func (s *service) Levels() []engine.Level {
	return engine.Levels()
}

func (s *service) ListQuests() []engine.Quest {
	return s.engine.ListDailyQuests()
}

func (s *service) QuestStatus(ctx context.Context, userID string, today engine.Date) (engine.QuestStatus, error) {
	if err := requireUser(userID); err != nil {
		return engine.QuestStatus{}, err
	}
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return engine.QuestStatus{}, err
	}
	return s.engine.QuestStatusFor(profile, today), nil
}

func (s *service) CompleteQuest(ctx context.Context, req engine.QuestCompletion, today engine.Date) (engine.QuestResult, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if err := requireUser(req.UserID); err != nil {
		return engine.QuestResult{}, err
	}

	var result engine.QuestResult
	err := s.withRetry(ctx, "complete_quest", func() error {
		res, err := s.repo.RecordQuest(ctx, req.UserID, func(profile engine.Profile, history []engine.Activity) (engine.QuestResult, error) {
			return s.engine.CompleteQuest(req, profile, history, today)
		})
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		if errors.Is(err, engine.ErrValidation) || errors.Is(err, engine.ErrDuplicateCompletion) || errors.Is(err, engine.ErrNotFound) {
			metrics.RecordQuestRejected(engine.CodeOf(err))
		}
		return engine.QuestResult{}, err
	}

	metrics.RecordQuestCompleted(result.Quest.ID, result.PointsEarned)
	s.logger.Info("quest completed",
		slog.String("event", "quest_completed"),
		slog.String("userId", req.UserID),
		slog.String("questId", result.Quest.ID),
		slog.Int("points", result.PointsEarned),
		slog.Int("totalPoints", result.NewTotalPoints),
	)

	now := s.clock.Now()
	s.publish(ctx, pubsub.TopicQuestCompleted, req.UserID, sharedevents.QuestCompleted{
		UserID:      req.UserID,
		QuestID:     result.Quest.ID,
		Date:        result.Completion.Date.String(),
		Points:      result.PointsEarned,
		TotalPoints: result.NewTotalPoints,
		OccurredAt:  now,
	})
	s.announceProgress(ctx, req.UserID, result.NewBadges, result.LevelBefore, result.NewLevel, now)
	return result, nil
}

func (s *service) GetProfile(ctx context.Context, userID string, today engine.Date) (*ProfileResponse, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	var (
		profile engine.Profile
		history []engine.Activity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.repo.GetProfile(gctx, userID)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		h, err := s.repo.ListActivities(gctx, userID, 0)
		if err != nil {
			return err
		}
		history = h
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// The stored streak is as of the last write; a day without activity breaks it.
	profile.Streak = s.engine.StreakFor(history, today)
	level := engine.LevelOf(profile.TotalPoints)
	profile.Level = level.Level

	return &ProfileResponse{
		Profile:             profile,
		LevelName:           level.Name,
		LevelProgress:       engine.LevelProgressOf(profile.TotalPoints),
		MotivationalMessage: engine.MotivationalMessage(profile.Streak),
	}, nil
}

func (s *service) Achievements(ctx context.Context, userID string) ([]engine.BadgeProgress, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	var (
		profile engine.Profile
		history []engine.Activity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.repo.GetProfile(gctx, userID)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		h, err := s.repo.ListActivities(gctx, userID, 0)
		if err != nil {
			return err
		}
		history = h
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.engine.Progress(profile, history), nil
}

func (s *service) LogActivity(ctx context.Context, input ActivityInput, today engine.Date) (engine.ActivityResult, error) {
	userID := strings.TrimSpace(input.UserID)
	if err := requireUser(userID); err != nil {
		return engine.ActivityResult{}, err
	}

	now := s.clock.Now()
	performedAt := now
	if input.PerformedAt != nil && !input.PerformedAt.IsZero() {
		performedAt = *input.PerformedAt
	}
	if performedAt.After(now) {
		return engine.ActivityResult{}, engine.NewError(engine.ErrValidation, engine.CodeInvalidTimestamp, "performedAt cannot be in the future")
	}
	intensity := input.Intensity
	if intensity == "" {
		intensity = engine.IntensityMedium
	}

	activity := engine.Activity{
		ID:              s.ids.NewID(),
		UserID:          userID,
		Type:            input.Type,
		DurationMinutes: input.DurationMinutes,
		DistanceKm:      input.DistanceKm,
		Intensity:       intensity,
		Notes:           strings.TrimSpace(input.Notes),
		CreatedAt:       performedAt.UTC(),
	}
	if err := engine.ValidateActivity(activity); err != nil {
		return engine.ActivityResult{}, err
	}

	var result engine.ActivityResult
	err := s.withRetry(ctx, "log_activity", func() error {
		res, err := s.repo.RecordActivity(ctx, userID, func(profile engine.Profile, history []engine.Activity) (engine.ActivityResult, error) {
			return s.engine.LogActivity(profile, history, activity, today)
		})
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return engine.ActivityResult{}, err
	}

	metrics.RecordActivityLogged(string(activity.Type), result.PointsEarned)
	s.logger.Info("activity logged",
		slog.String("event", "activity_logged"),
		slog.String("userId", userID),
		slog.String("activityId", activity.ID),
		slog.String("type", string(activity.Type)),
		slog.Int("points", result.PointsEarned),
	)

	s.publish(ctx, pubsub.TopicActivityLogged, userID, sharedevents.ActivityLogged{
		UserID:          userID,
		ActivityID:      result.Activity.ID,
		Type:            string(result.Activity.Type),
		DurationMinutes: result.Activity.DurationMinutes,
		CaloriesBurned:  result.Activity.CaloriesBurned,
		PointsEarned:    result.PointsEarned,
		OccurredAt:      now,
	})
	s.announceProgress(ctx, userID, result.NewBadges, result.LevelBefore, result.Level, now)
	return result, nil
}

func (s *service) ListActivities(ctx context.Context, userID string, limit int) ([]engine.Activity, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)
	return s.repo.ListActivities(ctx, userID, limit)
}

func (s *service) DeleteActivity(ctx context.Context, userID, activityID string, today engine.Date) (engine.Profile, error) {
	if err := requireUser(userID); err != nil {
		return engine.Profile{}, err
	}
	if strings.TrimSpace(activityID) == "" {
		return engine.Profile{}, engine.NewError(engine.ErrValidation, engine.CodeMissingField, "activity id is required")
	}

	var updated engine.Profile
	err := s.withRetry(ctx, "delete_activity", func() error {
		p, err := s.repo.DeleteActivity(ctx, userID, activityID, func(profile engine.Profile, remaining []engine.Activity, removed engine.Activity) (engine.Profile, error) {
			return s.engine.RemoveActivity(profile, remaining, removed, today), nil
		})
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return engine.Profile{}, err
	}

	s.logger.Info("activity deleted",
		slog.String("event", "activity_deleted"),
		slog.String("userId", userID),
		slog.String("activityId", activityID),
	)
	return updated, nil
}

func (s *service) Leaderboard(ctx context.Context, limit int) ([]engine.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = engine.DefaultLeaderboardLimit
	}
	users, err := s.repo.ListLeaderboard(ctx)
	if err != nil {
		return nil, err
	}
	return engine.BuildLeaderboard(users, limit), nil
}

func (s *service) UserRank(ctx context.Context, userID string, window int) (*RankResponse, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if window <= 0 {
		window = engine.DefaultRankWindow
	}

	var (
		users   []engine.LeaderboardUser
		profile engine.Profile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.repo.ListLeaderboard(gctx)
		if err != nil {
			return err
		}
		users = u
		return nil
	})
	g.Go(func() error {
		p, err := s.repo.GetProfile(gctx, userID)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &RankResponse{UserID: userID, TotalPoints: profile.TotalPoints, Window: window}
	if rank, ok := engine.UserRank(userID, users, window); ok {
		resp.Rank = &rank
	}
	return resp, nil
}

func (s *service) ChallengeTemplates() []engine.ChallengeTemplate {
	return s.engine.Templates()
}

func (s *service) CreateChallenge(ctx context.Context, creator engine.Participant, input engine.ChallengeInput, today engine.Date) (engine.Challenge, error) {
	creator.UserID = strings.TrimSpace(creator.UserID)
	if err := requireUser(creator.UserID); err != nil {
		return engine.Challenge{}, err
	}

	resolved, err := s.engine.FromTemplate(input)
	if err != nil {
		return engine.Challenge{}, err
	}
	now := s.clock.Now()
	challenge, err := s.engine.NewChallenge(challengeID(resolved.Title, s.ids), creator.UserID, resolved, today, now)
	if err != nil {
		return engine.Challenge{}, err
	}

	creator.ChallengeID = challenge.ID
	creator.JoinedAt = now

	var newBadges []engine.Badge
	var created engine.Challenge
	err = s.withRetry(ctx, "create_challenge", func() error {
		c, err := s.repo.CreateChallenge(ctx, challenge, creator, func(_ engine.Challenge, _ bool, profile engine.Profile, history []engine.Activity) (engine.Profile, error) {
			updated, badges := s.countJoin(profile, history, creator.UserID, today)
			newBadges = badges
			return updated, nil
		})
		if err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return engine.Challenge{}, err
	}

	s.logger.Info("challenge created",
		slog.String("event", "challenge_created"),
		slog.String("userId", creator.UserID),
		slog.String("challengeId", created.ID),
		slog.String("goalType", string(created.GoalType)),
	)
	s.announceProgress(ctx, creator.UserID, newBadges, engine.Level{}, engine.Level{}, now)
	return created, nil
}

func (s *service) GetChallenge(ctx context.Context, challengeID string) (*ChallengeDetail, error) {
	var (
		challenge engine.Challenge
		members   []engine.Participant
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.repo.GetChallenge(gctx, challengeID)
		if err != nil {
			return err
		}
		challenge = c
		return nil
	})
	g.Go(func() error {
		m, err := s.repo.ListParticipants(gctx, challengeID)
		if err != nil {
			return err
		}
		members = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ChallengeDetail{Challenge: challenge, Members: members}, nil
}

func (s *service) ListChallenges(ctx context.Context, status engine.ChallengeStatus) ([]engine.Challenge, error) {
	switch status {
	case "", engine.ChallengeActive, engine.ChallengeCompleted:
	default:
		return nil, engine.NewError(engine.ErrValidation, engine.CodeInvalidStatus, fmt.Sprintf("unknown challenge status %q", status))
	}
	return s.repo.ListChallenges(ctx, status)
}

func (s *service) JoinChallenge(ctx context.Context, challengeID string, member engine.Participant, today engine.Date) (engine.Challenge, error) {
	member.UserID = strings.TrimSpace(member.UserID)
	if err := requireUser(member.UserID); err != nil {
		return engine.Challenge{}, err
	}
	now := s.clock.Now()
	member.ChallengeID = challengeID
	member.JoinedAt = now

	var newBadges []engine.Badge
	var joined engine.Challenge
	err := s.withRetry(ctx, "join_challenge", func() error {
		c, err := s.repo.JoinChallenge(ctx, challengeID, member, func(c engine.Challenge, alreadyJoined bool, profile engine.Profile, history []engine.Activity) (engine.Profile, error) {
			if err := engine.CheckJoin(c, alreadyJoined, today); err != nil {
				return engine.Profile{}, err
			}
			updated, badges := s.countJoin(profile, history, member.UserID, today)
			newBadges = badges
			return updated, nil
		})
		if err != nil {
			return err
		}
		joined = c
		return nil
	})
	if err != nil {
		return engine.Challenge{}, err
	}

	s.logger.Info("challenge joined",
		slog.String("event", "challenge_joined"),
		slog.String("userId", member.UserID),
		slog.String("challengeId", challengeID),
		slog.Int("participants", joined.Participants),
	)
	s.announceProgress(ctx, member.UserID, newBadges, engine.Level{}, engine.Level{}, now)
	return joined, nil
}

func (s *service) LeaveChallenge(ctx context.Context, challengeID, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	err := s.withRetry(ctx, "leave_challenge", func() error {
		return s.repo.LeaveChallenge(ctx, challengeID, userID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("challenge left",
		slog.String("event", "challenge_left"),
		slog.String("userId", userID),
		slog.String("challengeId", challengeID),
	)
	return nil
}

func (s *service) DeleteChallenge(ctx context.Context, challengeID, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	err := s.withRetry(ctx, "delete_challenge", func() error {
		return s.repo.DeleteChallenge(ctx, challengeID, userID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("challenge deleted",
		slog.String("event", "challenge_deleted"),
		slog.String("userId", userID),
		slog.String("challengeId", challengeID),
	)
	return nil
}

func (s *service) Standings(ctx context.Context, challengeID string) ([]engine.Standing, error) {
	detail, err := s.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	c := detail.Challenge
	loc := s.engine.Location()
	start := c.StartDate.Start(loc)
	end := c.EndDate.AddDays(1).Start(loc)

	var mu sync.Mutex
	byUser := make(map[string][]engine.Activity, len(detail.Members))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(standingsFanout)
	for _, m := range detail.Members {
		userID := m.UserID
		g.Go(func() error {
			activities, err := s.repo.ListActivitiesBetween(gctx, userID, start, end)
			if err != nil {
				return err
			}
			mu.Lock()
			byUser[userID] = activities
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.engine.Standings(c, detail.Members, byUser), nil
}

func (s *service) CloseExpiredChallenges(ctx context.Context, today engine.Date) (int, error) {
	active, err := s.repo.ListChallenges(ctx, engine.ChallengeActive)
	if err != nil {
		return 0, err
	}

	closed := 0
	var errs []error
	for _, c := range active {
		if !engine.Expired(c, today) {
			continue
		}
		if err := s.repo.SetChallengeStatus(ctx, c.ID, engine.ChallengeCompleted); err != nil {
			if errors.Is(err, engine.ErrNotFound) {
				continue
			}
			errs = append(errs, fmt.Errorf("close challenge %s: %w", c.ID, err))
			continue
		}
		closed++
		s.publish(ctx, pubsub.TopicChallengeClosed, c.ID, sharedevents.ChallengeClosed{
			ChallengeID: c.ID,
			EndDate:     c.EndDate.String(),
			OccurredAt:  s.clock.Now(),
		})
	}

	metrics.RecordChallengesClosed(closed)
	if closed > 0 {
		s.logger.Info("expired challenges closed",
			slog.String("event", "challenges_closed"),
			slog.Int("count", closed),
			slog.String("date", today.String()),
		)
	}
	return closed, errors.Join(errs...)
}

func (s *service) PublishLeaderboardSnapshot(ctx context.Context, limit int) error {
	board, err := s.Leaderboard(ctx, limit)
	if err != nil {
		return err
	}

	top := 0
	if len(board) > 0 {
		top = board[0].TotalPoints
	}
	metrics.RecordLeaderboardSnapshot(len(board), top)

	entries := make([]sharedevents.LeaderboardEntry, 0, len(board))
	for _, e := range board {
		entries = append(entries, sharedevents.LeaderboardEntry{
			Rank:        e.Rank,
			UserID:      e.UserID,
			TotalPoints: e.TotalPoints,
			Level:       e.Level,
		})
	}
	s.publish(ctx, pubsub.TopicLeaderboardSnapshot, "leaderboard", sharedevents.LeaderboardSnapshot{
		Entries: entries,
		TakenAt: s.clock.Now(),
	})
	return nil
}

// countJoin records one more joined challenge for userID.
func (s *service) countJoin(profile engine.Profile, history []engine.Activity, userID string, today engine.Date) (engine.Profile, []engine.Badge) {
	if profile.UserID == "" {
		profile.UserID = userID
	}
	return s.engine.RecordJoin(profile, history, today)
}

// withRetry re-runs fn while the store reports a concurrent modification.
func (s *service) withRetry(ctx context.Context, operation string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		err = fn()
		if err == nil || engine.CodeOf(err) != engine.CodeConcurrentUpdate {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		metrics.RecordConflictRetry(operation)
		s.logger.Warn("retrying after concurrent update",
			slog.String("operation", operation),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)
	}
	return err
}

func (s *service) announceProgress(ctx context.Context, userID string, badges []engine.Badge, before, after engine.Level, now time.Time) {
	for _, b := range badges {
		metrics.RecordBadgeUnlocked(b.ID)
		s.publish(ctx, pubsub.TopicBadgeUnlocked, userID, sharedevents.BadgeUnlocked{
			UserID:     userID,
			BadgeID:    b.ID,
			BadgeName:  b.Name,
			Rarity:     string(b.Rarity),
			OccurredAt: now,
		})
	}
	if after.Level == 0 || before.Level == after.Level {
		return
	}
	metrics.RecordLevelChanged(strconv.Itoa(after.Level))
	s.logger.Info("level changed",
		slog.String("event", "level_changed"),
		slog.String("userId", userID),
		slog.Int("from", before.Level),
		slog.Int("to", after.Level),
	)
	s.publish(ctx, pubsub.TopicLevelChanged, userID, sharedevents.LevelChanged{
		UserID:     userID,
		FromLevel:  before.Level,
		ToLevel:    after.Level,
		LevelName:  after.Name,
		OccurredAt: now,
	})
}

// publish is best effort: the write has already committed, so a failure is logged
// and counted but never returned to the caller.
func (s *service) publish(ctx context.Context, topic, key string, payload any) {
	if s.events == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := s.events.Publish(pctx, topic, key, payload)
	metrics.RecordEventPublish(topic, err)
	if err != nil {
		s.logger.Error("failed to publish event",
			slog.String("topic", topic),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return engine.NewError(engine.ErrValidation, engine.CodeMissingField, "user id is required")
	}
	return nil
}
