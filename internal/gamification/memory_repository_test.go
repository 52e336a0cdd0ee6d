package gamification

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/focusnest/gamification-service/internal/engine"
)

func TestMemoryRepositoryContract(t *testing.T) {
	runRepositoryContract(t, NewMemoryRepository())
}

func TestMemoryRepositorySerializesConcurrentQuests(t *testing.T) {
	repo := NewMemoryRepository()
	eng, err := engine.New(engine.DefaultRules())
	require.NoError(t, err)
	today := engine.DateOf(testNow)
	req := engine.QuestCompletion{UserID: "racer", QuestID: "endurance-elite", ActualDurationMinutes: 45}

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.RecordQuest(context.Background(), "racer", func(p engine.Profile, h []engine.Activity) (engine.QuestResult, error) {
				return eng.CompleteQuest(req, p, h, today)
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, engine.ErrDuplicateCompletion)
	}
	require.Equal(t, 1, succeeded)

	p, err := repo.GetProfile(context.Background(), "racer")
	require.NoError(t, err)
	require.Equal(t, 75, p.TotalPoints)
}
