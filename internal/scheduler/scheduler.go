package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/focusnest/gamification-service/internal/engine"
	"github.com/focusnest/gamification-service/internal/metrics"
)

const (
	jobChallengeSweep      = "challenge-sweep"
	jobLeaderboardSnapshot = "leaderboard-snapshot"

	jobTimeout = 2 * time.Minute
)

// Jobs is the slice of the gamification service the periodic jobs drive.
type Jobs interface {
	Today() engine.Date
	CloseExpiredChallenges(ctx context.Context, today engine.Date) (int, error)
	PublishLeaderboardSnapshot(ctx context.Context, limit int) error
}

type Config struct {
	LeaderboardRefreshInterval time.Duration
	ChallengeSweepInterval     time.Duration
	SnapshotSize               int
	Location                   *time.Location
}

// Scheduler runs the challenge completion sweep and the leaderboard snapshot refresh.
type Scheduler struct {
	cron   gocron.Scheduler
	jobs   Jobs
	cfg    Config
	logger *slog.Logger
}

func New(jobs Jobs, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if jobs == nil {
		return nil, fmt.Errorf("jobs are required")
	}
	if cfg.LeaderboardRefreshInterval <= 0 || cfg.ChallengeSweepInterval <= 0 {
		return nil, fmt.Errorf("job intervals must be positive")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	cron, err := gocron.NewScheduler(gocron.WithLocation(cfg.Location))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	s := &Scheduler{
		cron:   cron,
		jobs:   jobs,
		cfg:    cfg,
		logger: logger.With(slog.String("module", "scheduler")),
	}

	if err := s.register(jobChallengeSweep, cfg.ChallengeSweepInterval, s.sweepChallenges); err != nil {
		return nil, err
	}
	if err := s.register(jobLeaderboardSnapshot, cfg.LeaderboardRefreshInterval, s.snapshotLeaderboard); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) register(name string, every time.Duration, run func(context.Context) error) error {
	_, err := s.cron.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()

			started := time.Now()
			defer metrics.ObserveJob(name, started)

			if err := run(ctx); err != nil {
				s.logger.Error("job failed", slog.String("job", name), slog.String("error", err.Error()))
				return
			}
			s.logger.Debug("job finished", slog.String("job", name), slog.Duration("took", time.Since(started)))
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started",
		slog.Duration("challengeSweepEvery", s.cfg.ChallengeSweepInterval),
		slog.Duration("leaderboardEvery", s.cfg.LeaderboardRefreshInterval),
	)
}

// Shutdown stops scheduling and waits for running jobs. The context is accepted so
// it can be passed as a server shutdown hook.
func (s *Scheduler) Shutdown(_ context.Context) error {
	return s.cron.Shutdown()
}

func (s *Scheduler) sweepChallenges(ctx context.Context) error {
	closed, err := s.jobs.CloseExpiredChallenges(ctx, s.jobs.Today())
	if closed > 0 {
		s.logger.Info("closed expired challenges", slog.Int("count", closed))
	}
	return err
}

func (s *Scheduler) snapshotLeaderboard(ctx context.Context) error {
	return s.jobs.PublishLeaderboardSnapshot(ctx, s.cfg.SnapshotSize)
}
