package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/focusnest/gamification-service/internal/engine"
	"github.com/focusnest/gamification-service/shared/envconfig"
)

type Config struct {
	Port         string `validate:"required,numeric"`
	GCPProjectID string `validate:"required_if=DataStore firestore"`
	DataStore    string `validate:"required,oneof=firestore postgres memory"`
	DatabaseURL  string `validate:"required_if=DataStore postgres"`
	LogLevel     string `validate:"omitempty,oneof=debug info warn warning error"`
	CORSOrigins  []string
	Auth         AuthConfig
	Firestore    FirestoreConfig
	Kafka        KafkaConfig
	Rules        RulesConfig
	Jobs         JobsConfig
}

type AuthConfig struct {
	Mode     string `validate:"required,oneof=clerk noop"`
	JWKSURL  string `validate:"required_if=Mode clerk"`
	Audience string
	Issuer   string
}

type FirestoreConfig struct {
	EmulatorHost string
}

type KafkaConfig struct {
	Brokers []string
}

// RulesConfig holds the tunable gamification policies.
type RulesConfig struct {
	Timezone             string `validate:"required,timezone"`
	QuestPointPolicy     string `validate:"oneof=fixed duration"`
	StreakPolicy         string `validate:"oneof=require_today allow_yesterday"`
	EnforceQuestMinimums bool
	PointsPerMinute      int `validate:"gte=0"`
	CalorieRates         map[engine.ActivityType]float64
}

type JobsConfig struct {
	Enabled                    bool
	LeaderboardRefreshInterval time.Duration `validate:"gt=0"`
	ChallengeSweepInterval     time.Duration `validate:"gt=0"`
	SnapshotSize               int           `validate:"gt=0"`
}

func Load() (Config, error) {
	cfg := Config{
		Port:         envconfig.Get("PORT", "8080"),
		GCPProjectID: envconfig.Get("GCP_PROJECT_ID", "focusnest-dev"),
		DataStore:    envconfig.Get("DATASTORE", "firestore"),
		DatabaseURL:  envconfig.Get("DATABASE_URL", ""),
		LogLevel:     envconfig.Get("LOG_LEVEL", "info"),
		CORSOrigins:  envconfig.GetList("CORS_ALLOWED_ORIGINS", nil),
		Auth: AuthConfig{
			Mode:     envconfig.Get("AUTH_MODE", "clerk"),
			JWKSURL:  envconfig.Get("CLERK_JWKS_URL", ""),
			Audience: envconfig.Get("CLERK_AUDIENCE", ""),
			Issuer:   envconfig.Get("CLERK_ISSUER", ""),
		},
		Firestore: FirestoreConfig{
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
		},
		Kafka: KafkaConfig{
			Brokers: envconfig.GetList("KAFKA_BROKERS", nil),
		},
		Rules: RulesConfig{
			Timezone:         envconfig.Get("TIMEZONE", "UTC"),
			QuestPointPolicy: envconfig.Get("QUEST_POINT_POLICY", string(engine.QuestPointsFixed)),
			StreakPolicy:     envconfig.Get("STREAK_POLICY", string(engine.StreakRequireToday)),
		},
	}

	var err error
	if cfg.Rules.EnforceQuestMinimums, err = envconfig.GetBool("ENFORCE_QUEST_MINIMUMS", false); err != nil {
		return Config{}, err
	}
	if cfg.Rules.PointsPerMinute, err = envconfig.GetInt("ACTIVITY_POINTS_PER_MINUTE", 1); err != nil {
		return Config{}, err
	}
	if cfg.Rules.CalorieRates, err = ParseCalorieRates(envconfig.Get("CALORIE_RATES", "")); err != nil {
		return Config{}, err
	}
	if cfg.Jobs.Enabled, err = envconfig.GetBool("JOBS_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.Jobs.LeaderboardRefreshInterval, err = envconfig.GetDuration("LEADERBOARD_REFRESH_INTERVAL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.Jobs.ChallengeSweepInterval, err = envconfig.GetDuration("CHALLENGE_SWEEP_INTERVAL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.Jobs.SnapshotSize, err = envconfig.GetInt("LEADERBOARD_SNAPSHOT_SIZE", engine.DefaultLeaderboardLimit); err != nil {
		return Config{}, err
	}

	return cfg, envconfig.Validate(cfg)
}

// ParseCalorieRates reads overrides such as "running=12,walking=5.5". Types that are
// not listed keep their default rate.
func ParseCalorieRates(raw string) (map[engine.ActivityType]float64, error) {
	rates := engine.DefaultCalorieRates()
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return rates, nil
	}

	var problems []string
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			problems = append(problems, fmt.Sprintf("%q is not type=rate", pair))
			continue
		}
		kind := engine.ActivityType(strings.ToLower(strings.TrimSpace(name)))
		if !kind.Valid() {
			problems = append(problems, fmt.Sprintf("unknown activity type %q", name))
			continue
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || rate <= 0 {
			problems = append(problems, fmt.Sprintf("invalid rate %q for %s", value, kind))
			continue
		}
		rates[kind] = rate
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("CALORIE_RATES: %s", strings.Join(problems, "; "))
	}
	return rates, nil
}

// EngineRules converts the configuration into an engine rule set with the default catalogs.
func (c Config) EngineRules() (engine.Rules, error) {
	loc, err := time.LoadLocation(c.Rules.Timezone)
	if err != nil {
		return engine.Rules{}, fmt.Errorf("load timezone %q: %w", c.Rules.Timezone, err)
	}

	rules := engine.DefaultRules()
	rules.Location = loc
	rules.QuestPoints = engine.QuestPointPolicy(c.Rules.QuestPointPolicy)
	rules.Streak = engine.StreakPolicy(c.Rules.StreakPolicy)
	rules.EnforceQuestMinimums = c.Rules.EnforceQuestMinimums
	rules.PointsPerMinute = c.Rules.PointsPerMinute
	if c.Rules.CalorieRates != nil {
		rules.CalorieRates = c.Rules.CalorieRates
	}
	return rules, nil
}
