package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// QuestPointPolicy decides how many points a completed quest is worth.
type QuestPointPolicy string

const (
	// QuestPointsFixed awards the quest's catalog points.
	QuestPointsFixed QuestPointPolicy = "fixed"
	// QuestPointsDuration awards duration-based activity points.
	QuestPointsDuration QuestPointPolicy = "duration"
)

// StreakPolicy decides whether a streak survives a day without activity yet.
type StreakPolicy string

const (
	// StreakRequireToday returns 0 unless today has activity.
	StreakRequireToday StreakPolicy = "require_today"
	// StreakAllowYesterday anchors the streak on yesterday when today is still empty.
	StreakAllowYesterday StreakPolicy = "allow_yesterday"
)

// Rules configures an Engine. Catalogs are read-only inputs; the engine copies them.
type Rules struct {
	Location             *time.Location
	CalorieRates         map[ActivityType]float64
	PointsPerMinute      int
	QuestPoints          QuestPointPolicy
	Streak               StreakPolicy
	EnforceQuestMinimums bool
	Quests               []Quest
	Achievements         []Badge
	Templates            []ChallengeTemplate
}

// DefaultRules returns the production rule set in UTC.
func DefaultRules() Rules {
	return Rules{
		Location:        time.UTC,
		CalorieRates:    DefaultCalorieRates(),
		PointsPerMinute: 1,
		QuestPoints:     QuestPointsFixed,
		Streak:          StreakRequireToday,
		Quests:          DefaultQuests(),
		Achievements:    DefaultAchievements(),
		Templates:       DefaultChallengeTemplates(),
	}
}

// Engine evaluates gamification rules. It performs no I/O, never reads the clock
// and is safe for concurrent use once constructed.
type Engine struct {
	rules        Rules
	quests       map[string]Quest
	achievements map[string]Badge
	templates    map[string]ChallengeTemplate
}

// New validates the rule set and returns an Engine. Corrupt catalogs abort construction.
func New(rules Rules) (*Engine, error) {
	if rules.Location == nil {
		rules.Location = time.UTC
	}
	if rules.CalorieRates == nil {
		rules.CalorieRates = DefaultCalorieRates()
	}
	if rules.QuestPoints == "" {
		rules.QuestPoints = QuestPointsFixed
	}
	if rules.Streak == "" {
		rules.Streak = StreakRequireToday
	}
	if err := rules.Validate(); err != nil {
		return nil, NewError(ErrValidation, CodeInvalidCatalog, err.Error())
	}

	e := &Engine{
		rules:        rules,
		quests:       make(map[string]Quest, len(rules.Quests)),
		achievements: make(map[string]Badge, len(rules.Achievements)),
		templates:    make(map[string]ChallengeTemplate, len(rules.Templates)),
	}
	rates := make(map[ActivityType]float64, len(rules.CalorieRates))
	for k, v := range rules.CalorieRates {
		rates[k] = v
	}
	e.rules.CalorieRates = rates
	e.rules.Quests = append([]Quest(nil), rules.Quests...)
	e.rules.Achievements = append([]Badge(nil), rules.Achievements...)
	e.rules.Templates = append([]ChallengeTemplate(nil), rules.Templates...)

	for _, q := range e.rules.Quests {
		e.quests[q.ID] = q
	}
	for _, b := range e.rules.Achievements {
		e.achievements[b.ID] = b
	}
	for _, t := range e.rules.Templates {
		e.templates[t.ID] = t
	}
	return e, nil
}

// Validate checks the rule set for inconsistencies.
func (r Rules) Validate() error {
	var problems []string

	for _, t := range ActivityTypes {
		rate, ok := r.CalorieRates[t]
		if !ok {
			problems = append(problems, fmt.Sprintf("calorie rate for %s is required", t))
		} else if rate < 0 {
			problems = append(problems, fmt.Sprintf("calorie rate for %s must be non-negative", t))
		}
	}
	for t := range r.CalorieRates {
		if !t.Valid() {
			problems = append(problems, fmt.Sprintf("calorie rate for unknown activity type %s", t))
		}
	}
	if r.PointsPerMinute < 0 {
		problems = append(problems, "points per minute must be non-negative")
	}
	if r.QuestPoints != QuestPointsFixed && r.QuestPoints != QuestPointsDuration {
		problems = append(problems, fmt.Sprintf("unknown quest point policy %q", r.QuestPoints))
	}
	if r.Streak != StreakRequireToday && r.Streak != StreakAllowYesterday {
		problems = append(problems, fmt.Sprintf("unknown streak policy %q", r.Streak))
	}

	seen := make(map[string]bool)
	for _, q := range r.Quests {
		switch {
		case q.ID == "":
			problems = append(problems, "quest id is required")
		case seen["quest:"+q.ID]:
			problems = append(problems, fmt.Sprintf("duplicate quest %s", q.ID))
		}
		seen["quest:"+q.ID] = true
		if q.Points <= 0 {
			problems = append(problems, fmt.Sprintf("quest %s points must be positive", q.ID))
		}
		if q.RequiredDurationMinutes < 0 {
			problems = append(problems, fmt.Sprintf("quest %s duration must be non-negative", q.ID))
		}
		if q.RequiredActivityType != "" && !q.RequiredActivityType.Valid() {
			problems = append(problems, fmt.Sprintf("quest %s has unknown activity type %s", q.ID, q.RequiredActivityType))
		}
	}

	for _, b := range r.Achievements {
		switch {
		case b.ID == "":
			problems = append(problems, "achievement id is required")
		case seen["badge:"+b.ID]:
			problems = append(problems, fmt.Sprintf("duplicate achievement %s", b.ID))
		}
		seen["badge:"+b.ID] = true
		if !knownRequirement(b.RequirementType) {
			problems = append(problems, fmt.Sprintf("achievement %s has unknown requirement %s", b.ID, b.RequirementType))
		}
		if b.RequirementValue <= 0 {
			problems = append(problems, fmt.Sprintf("achievement %s requirement must be positive", b.ID))
		}
		if b.RequirementType == RequirementDistance && b.ActivityType == "" {
			problems = append(problems, fmt.Sprintf("achievement %s needs an activity type", b.ID))
		}
		if b.ActivityType != "" && !b.ActivityType.Valid() {
			problems = append(problems, fmt.Sprintf("achievement %s has unknown activity type %s", b.ID, b.ActivityType))
		}
	}

	for _, t := range r.Templates {
		switch {
		case t.ID == "":
			problems = append(problems, "template id is required")
		case seen["template:"+t.ID]:
			problems = append(problems, fmt.Sprintf("duplicate template %s", t.ID))
		}
		seen["template:"+t.ID] = true
		if !t.GoalType.Valid() {
			problems = append(problems, fmt.Sprintf("template %s has unknown goal %s", t.ID, t.GoalType))
		}
		if t.GoalValue <= 0 || t.DurationDays <= 0 {
			problems = append(problems, fmt.Sprintf("template %s goal and duration must be positive", t.ID))
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func knownRequirement(t RequirementType) bool {
	switch t {
	case RequirementWorkoutCount, RequirementPoints, RequirementStreak, RequirementWeeklyStreak,
		RequirementMonthlyStreak, RequirementActivityCount, RequirementDistance,
		RequirementSingleDuration, RequirementEarlyWorkout, RequirementLateWorkout, RequirementChallenges:
		return true
	default:
		return false
	}
}

// Location is the time zone used to derive calendar days and local hours.
func (e *Engine) Location() *time.Location {
	return e.rules.Location
}

// Today returns the calendar day of now in the engine's time zone.
func (e *Engine) Today(now time.Time) Date {
	return DateIn(now, e.rules.Location)
}

func (e *Engine) localHour(t time.Time) int {
	return t.In(e.rules.Location).Hour()
}
