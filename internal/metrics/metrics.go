package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gamification_service"

var (
	pointsAwarded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "progress",
		Name:      "points_awarded_total",
		Help:      "Points awarded to users, labeled by source (quest or activity).",
	}, []string{"source"})

	questsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "quests",
		Name:      "completed_total",
		Help:      "Daily quest completions, labeled by quest id.",
	}, []string{"quest"})

	questRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "quests",
		Name:      "rejected_total",
		Help:      "Quest completions rejected by validation, labeled by error code.",
	}, []string{"code"})

	badgesUnlocked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "achievements",
		Name:      "unlocked_total",
		Help:      "Badges unlocked, labeled by badge id.",
	}, []string{"badge"})

	levelUps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "progress",
		Name:      "level_changes_total",
		Help:      "Level transitions, labeled by the level reached.",
	}, []string{"level"})

	activitiesLogged = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "activities",
		Name:      "logged_total",
		Help:      "Activities logged, labeled by activity type.",
	}, []string{"type"})

	txRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "conflict_retries_total",
		Help:      "Read-modify-write retries caused by concurrent updates, labeled by operation.",
	}, []string{"operation"})

	eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Domain events published, labeled by topic.",
	}, []string{"topic"})

	eventsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "failed_total",
		Help:      "Domain events that could not be published, labeled by topic.",
	}, []string{"topic"})

	challengesClosed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "challenges",
		Name:      "closed_total",
		Help:      "Challenges transitioned to completed after their end date.",
	})

	leaderboardUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "leaderboard",
		Name:      "users",
		Help:      "Number of users on the most recent leaderboard snapshot.",
	})

	leaderboardTopScore = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "leaderboard",
		Name:      "top_points",
		Help:      "Total points of the leader on the most recent snapshot.",
	})

	jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "job_duration_seconds",
		Help:      "Time spent running scheduled jobs.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"job"})
)

func init() {
	prometheus.MustRegister(
		pointsAwarded, questsCompleted, questRejected, badgesUnlocked, levelUps,
		activitiesLogged, txRetries, eventsPublished, eventsFailed,
		challengesClosed, leaderboardUsers, leaderboardTopScore, jobDuration,
	)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordQuestCompleted(questID string, points int) {
	questsCompleted.WithLabelValues(questID).Inc()
	pointsAwarded.WithLabelValues("quest").Add(float64(points))
}

func RecordQuestRejected(code string) {
	if code == "" {
		code = "unknown"
	}
	questRejected.WithLabelValues(code).Inc()
}

func RecordActivityLogged(activityType string, points int) {
	activitiesLogged.WithLabelValues(activityType).Inc()
	pointsAwarded.WithLabelValues("activity").Add(float64(points))
}

func RecordBadgeUnlocked(badgeID string) {
	badgesUnlocked.WithLabelValues(badgeID).Inc()
}

func RecordLevelChanged(level string) {
	levelUps.WithLabelValues(level).Inc()
}

func RecordConflictRetry(operation string) {
	txRetries.WithLabelValues(operation).Inc()
}

// RecordEventPublish counts a publish attempt for topic.
func RecordEventPublish(topic string, err error) {
	if err != nil {
		eventsFailed.WithLabelValues(topic).Inc()
		return
	}
	eventsPublished.WithLabelValues(topic).Inc()
}

func RecordChallengesClosed(n int) {
	if n <= 0 {
		return
	}
	challengesClosed.Add(float64(n))
}

// RecordLeaderboardSnapshot updates the leaderboard gauges.
func RecordLeaderboardSnapshot(users, topPoints int) {
	leaderboardUsers.Set(float64(users))
	leaderboardTopScore.Set(float64(topPoints))
}

// ObserveJob records how long a scheduled job took.
func ObserveJob(job string, started time.Time) {
	jobDuration.WithLabelValues(job).Observe(time.Since(started).Seconds())
}
