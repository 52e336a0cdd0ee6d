package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	sharedevents "github.com/focusnest/gamification-service/shared/events"
	"github.com/focusnest/gamification-service/shared/pubsub"
)

func TestMemoryPublisherFiltersByTopic(t *testing.T) {
	p := NewMemoryPublisher()
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, pubsub.TopicQuestCompleted, "u1", sharedevents.QuestCompleted{UserID: "u1", QuestID: "zen-master", Points: 45}))
	require.NoError(t, p.Publish(ctx, pubsub.TopicBadgeUnlocked, "u1", sharedevents.BadgeUnlocked{UserID: "u1", BadgeID: "beginner"}))

	got := p.Messages(pubsub.TopicQuestCompleted)
	require.Len(t, got, 1)
	require.Equal(t, "u1", got[0].Key)

	var decoded sharedevents.QuestCompleted
	require.NoError(t, json.Unmarshal(got[0].Value, &decoded))
	require.Equal(t, 45, decoded.Points)

	require.Len(t, p.Messages(""), 2)
}

func TestEncodeSetsKeyAndHeaders(t *testing.T) {
	msg, err := encode("u42", sharedevents.LevelChanged{UserID: "u42", FromLevel: 1, ToLevel: 2})
	require.NoError(t, err)
	require.Equal(t, []byte("u42"), msg.Key)
	require.JSONEq(t, `{"userId":"u42","fromLevel":1,"toLevel":2,"levelName":"","occurredAt":"0001-01-01T00:00:00Z"}`, string(msg.Value))
	require.Equal(t, "content-type", msg.Headers[0].Key)

	_, err = NewKafkaPublisher(nil)
	require.Error(t, err)
}

func TestMemoryPublisherDropsOldest(t *testing.T) {
	p := NewMemoryPublisherWithCapacity(2)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, p.Publish(ctx, pubsub.TopicActivityLogged, key, sharedevents.ActivityLogged{UserID: key}))
	}

	got := p.Messages("")
	require.Len(t, got, 2)
	require.Equal(t, "b", got[0].Key)
	require.Equal(t, "c", got[1].Key)
}
