package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/focusnest/gamification-service/internal/engine"
	"github.com/focusnest/gamification-service/shared/logging"
)

type fakeJobs struct {
	today    engine.Date
	swept    chan engine.Date
	snapshot chan int
	sweepErr error
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{
		today:    engine.DateOf(time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)),
		swept:    make(chan engine.Date, 4),
		snapshot: make(chan int, 4),
	}
}

func (f *fakeJobs) Today() engine.Date { return f.today }

func (f *fakeJobs) CloseExpiredChallenges(_ context.Context, today engine.Date) (int, error) {
	f.swept <- today
	return 2, f.sweepErr
}

func (f *fakeJobs) PublishLeaderboardSnapshot(_ context.Context, limit int) error {
	f.snapshot <- limit
	return nil
}

func TestNewValidatesInput(t *testing.T) {
	_, err := New(nil, Config{LeaderboardRefreshInterval: time.Minute, ChallengeSweepInterval: time.Minute}, nil)
	require.Error(t, err)

	_, err = New(newFakeJobs(), Config{LeaderboardRefreshInterval: time.Minute}, nil)
	require.Error(t, err)
}

func TestJobsRunOnStart(t *testing.T) {
	jobs := newFakeJobs()
	s, err := New(jobs, Config{
		LeaderboardRefreshInterval: time.Hour,
		ChallengeSweepInterval:     time.Hour,
		SnapshotSize:               25,
	}, logging.Discard())
	require.NoError(t, err)

	s.Start()
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	select {
	case day := <-jobs.swept:
		require.Equal(t, jobs.today, day)
	case <-time.After(5 * time.Second):
		t.Fatalf("challenge sweep did not run")
	}
	select {
	case limit := <-jobs.snapshot:
		require.Equal(t, 25, limit)
	case <-time.After(5 * time.Second):
		t.Fatalf("leaderboard snapshot did not run")
	}
}

func TestSweepReturnsServiceError(t *testing.T) {
	jobs := newFakeJobs()
	jobs.sweepErr = errors.New("store down")
	s := &Scheduler{jobs: jobs, logger: logging.Discard()}

	require.EqualError(t, s.sweepChallenges(context.Background()), "store down")
	require.Equal(t, jobs.today, <-jobs.swept)
}
