package engine

import (
	"math"
	"strings"
	"time"
)

// DefaultMaxParticipants caps a challenge when the creator does not choose a size.
const DefaultMaxParticipants = 10

// ChallengeInput describes a user-created challenge.
type ChallengeInput struct {
	Title           string
	Description     string
	TemplateID      string
	GoalType        GoalType
	GoalValue       float64
	ActivityType    ActivityType
	DurationDays    int
	StartDate       Date
	MaxParticipants int
}

// Templates returns the challenge template catalog.
func (e *Engine) Templates() []ChallengeTemplate {
	out := make([]ChallengeTemplate, len(e.rules.Templates))
	copy(out, e.rules.Templates)
	return out
}

// Template looks up a challenge template by id.
func (e *Engine) Template(id string) (ChallengeTemplate, error) {
	t, ok := e.templates[id]
	if !ok {
		return ChallengeTemplate{}, notFound(CodeTemplateNotFound, "challenge template %s does not exist", id)
	}
	return t, nil
}

// FromTemplate fills the goal fields of in from the referenced template. Fields set
// explicitly on in take precedence.
func (e *Engine) FromTemplate(in ChallengeInput) (ChallengeInput, error) {
	if in.TemplateID == "" {
		return in, nil
	}
	t, err := e.Template(in.TemplateID)
	if err != nil {
		return ChallengeInput{}, err
	}
	if strings.TrimSpace(in.Title) == "" {
		in.Title = t.Title
	}
	if strings.TrimSpace(in.Description) == "" {
		in.Description = t.Description
	}
	if in.GoalType == "" {
		in.GoalType = t.GoalType
	}
	if in.GoalValue == 0 {
		in.GoalValue = t.GoalValue
	}
	if in.ActivityType == "" {
		in.ActivityType = t.ActivityType
	}
	if in.DurationDays == 0 {
		in.DurationDays = t.DurationDays
	}
	return in, nil
}

// NewChallenge validates in and builds an active challenge starting on in.StartDate
// (today when unset). The caller supplies the id and creation instant.
func (e *Engine) NewChallenge(id, creatorID string, in ChallengeInput, today Date, now time.Time) (Challenge, error) {
	in, err := e.FromTemplate(in)
	if err != nil {
		return Challenge{}, err
	}

	switch {
	case strings.TrimSpace(creatorID) == "":
		return Challenge{}, invalid(CodeMissingField, "creator id is required")
	case strings.TrimSpace(in.Title) == "":
		return Challenge{}, invalid(CodeMissingField, "title is required")
	case !in.GoalType.Valid():
		return Challenge{}, invalid(CodeInvalidGoal, "unknown goal type %q", in.GoalType)
	case in.GoalValue <= 0 || math.IsNaN(in.GoalValue) || math.IsInf(in.GoalValue, 0):
		return Challenge{}, invalid(CodeInvalidGoal, "goal value must be positive")
	case in.DurationDays <= 0:
		return Challenge{}, invalid(CodeInvalidDuration, "duration days must be positive")
	case in.ActivityType != "" && !in.ActivityType.Valid():
		return Challenge{}, invalid(CodeInvalidActivityType, "unknown activity type %q", in.ActivityType)
	case in.MaxParticipants < 0:
		return Challenge{}, invalid(CodeMissingField, "max participants must be non-negative")
	}

	start := in.StartDate
	if start.IsZero() {
		start = today
	}
	maxParticipants := in.MaxParticipants
	if maxParticipants == 0 {
		maxParticipants = DefaultMaxParticipants
	}

	return Challenge{
		ID:              id,
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		CreatorID:       creatorID,
		TemplateID:      in.TemplateID,
		GoalType:        in.GoalType,
		GoalValue:       in.GoalValue,
		ActivityType:    in.ActivityType,
		DurationDays:    in.DurationDays,
		StartDate:       start,
		EndDate:         start.AddDays(in.DurationDays - 1),
		MaxParticipants: maxParticipants,
		Status:          ChallengeActive,
		CreatedAt:       now,
	}, nil
}

// CheckJoin validates that userID may join c on today.
func CheckJoin(c Challenge, alreadyJoined bool, today Date) error {
	switch {
	case alreadyJoined:
		return conflict(CodeAlreadyJoined, "already joined challenge %s", c.ID)
	case c.Status != ChallengeActive || today.After(c.EndDate):
		return invalid(CodeChallengeClosed, "challenge %s is no longer active", c.ID)
	case c.MaxParticipants > 0 && c.Participants >= c.MaxParticipants:
		return conflict(CodeChallengeFull, "challenge %s is full", c.ID)
	}
	return nil
}

// RecordJoin counts one more joined challenge on profile, refreshes the streak from
// history and returns the badges that unlocks.
func (e *Engine) RecordJoin(profile Profile, history []Activity, today Date) (Profile, []Badge) {
	updated := profile.Clone()
	updated.ChallengesJoined++
	updated.Streak = e.StreakFor(history, today)
	newBadges := e.Evaluate(updated, history)
	for _, b := range newBadges {
		updated.Badges = append(updated.Badges, b.ID)
	}
	return updated, newBadges
}

// CheckLeave validates that a user may leave c.
func CheckLeave(c Challenge, joined bool) error {
	if !joined {
		return notFound(CodeNotParticipant, "not a participant of challenge %s", c.ID)
	}
	return nil
}

// CheckDelete validates that userID may delete c.
func CheckDelete(c Challenge, userID string) error {
	if c.CreatorID != userID {
		return invalid(CodeNotCreator, "only the creator can delete challenge %s", c.ID)
	}
	return nil
}

// Expired reports whether c is still active after its last day.
func Expired(c Challenge, today Date) bool {
	return c.Status == ChallengeActive && today.After(c.EndDate)
}

// InWindow returns the activities that happened inside the challenge window.
func (e *Engine) InWindow(c Challenge, activities []Activity) []Activity {
	out := make([]Activity, 0, len(activities))
	for _, a := range activities {
		if c.Contains(DateIn(a.CreatedAt, e.rules.Location)) {
			out = append(out, a)
		}
	}
	return out
}

// ComputeProgress scores activities against the challenge goal. Activities outside
// the challenge window are ignored.
func (e *Engine) ComputeProgress(c Challenge, activities []Activity) float64 {
	inWindow := e.InWindow(c, activities)

	switch c.GoalType {
	case GoalDistance:
		total := 0.0
		for _, a := range inWindow {
			if c.ActivityType == "" || a.Type == c.ActivityType {
				total += a.DistanceKm
			}
		}
		return total
	case GoalCalories:
		total := 0
		for _, a := range inWindow {
			total += a.CaloriesBurned
		}
		return float64(total)
	case GoalDuration:
		total := 0
		for _, a := range inWindow {
			total += a.DurationMinutes
		}
		return float64(total)
	case GoalVariety:
		seen := make(map[ActivityType]struct{})
		for _, a := range inWindow {
			seen[a.Type] = struct{}{}
		}
		return float64(len(seen))
	case GoalStreak:
		return float64(LongestRun(e.ActivityDates(inWindow), c.StartDate, c.EndDate))
	case GoalEarlyWorkouts:
		count := 0
		for _, a := range inWindow {
			if e.localHour(a.CreatedAt) < 7 {
				count++
			}
		}
		return float64(count)
	default:
		return 0
	}
}

// Standings computes and ranks every participant's progress. activitiesByUser
// holds each participant's activity history.
func (e *Engine) Standings(c Challenge, participants []Participant, activitiesByUser map[string][]Activity) []Standing {
	scored := make([]Scored, 0, len(participants))
	names := make(map[string]string, len(participants))
	for _, p := range participants {
		names[p.UserID] = p.DisplayName
		scored = append(scored, Scored{ID: p.UserID, Score: e.ComputeProgress(c, activitiesByUser[p.UserID])})
	}

	ranked := Rank(scored)
	out := make([]Standing, 0, len(ranked))
	for _, r := range ranked {
		pct := 0.0
		if c.GoalValue > 0 {
			pct = math.Min(r.Score/c.GoalValue*100, 100)
		}
		out = append(out, Standing{
			UserID:      r.ID,
			DisplayName: names[r.ID],
			Progress:    r.Score,
			Percentage:  pct,
			Rank:        r.Rank,
		})
	}
	return out
}
