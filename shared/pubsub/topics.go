package pubsub

// Topic names published by the gamification service.
const (
	TopicQuestCompleted      = "gamification.quest.completed"
	TopicBadgeUnlocked       = "gamification.badge.unlocked"
	TopicActivityLogged      = "gamification.activity.logged"
	TopicLevelChanged        = "gamification.level.changed"
	TopicChallengeClosed     = "gamification.challenge.closed"
	TopicLeaderboardSnapshot = "gamification.leaderboard.snapshot"
)
