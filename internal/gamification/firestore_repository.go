package gamification

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/focusnest/gamification-service/internal/engine"
)

const (
	profilesCollection     = "profiles"
	activitiesCollection   = "activities"
	completionsCollection  = "quest_completions"
	challengesCollection   = "challenges"
	participantsCollection = "challenge_participants"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a Repository backed by Firestore. Every mutation
// runs inside RunTransaction, which retries aborted transactions on its own.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

// ===== Documents =====

type completedQuestDoc struct {
	QuestID string `firestore:"quest_id"`
	Date    string `firestore:"date"`
	Points  int    `firestore:"points"`
}

type profileDoc struct {
	UserID           string              `firestore:"user_id"`
	DisplayName      string              `firestore:"display_name"`
	TotalPoints      int                 `firestore:"total_points"`
	WorkoutCount     int                 `firestore:"workout_count"`
	TotalMinutes     int                 `firestore:"total_minutes"`
	Streak           int                 `firestore:"streak"`
	Level            int                 `firestore:"level"`
	Badges           []string            `firestore:"badges"`
	CompletedQuests  []completedQuestDoc `firestore:"completed_quests"`
	ChallengesJoined int                 `firestore:"challenges_joined"`
	UpdatedAt        time.Time           `firestore:"updated_at"`
}

type activityDoc struct {
	UserID          string    `firestore:"user_id"`
	Type            string    `firestore:"type"`
	DurationMinutes int       `firestore:"duration_minutes"`
	DistanceKm      float64   `firestore:"distance_km"`
	Intensity       string    `firestore:"intensity"`
	CaloriesBurned  int       `firestore:"calories_burned"`
	Notes           string    `firestore:"notes,omitempty"`
	CreatedAt       time.Time `firestore:"created_at"`
}

type completionDoc struct {
	UserID      string    `firestore:"user_id"`
	QuestID     string    `firestore:"quest_id"`
	Date        string    `firestore:"date"`
	Points      int       `firestore:"points"`
	CompletedAt time.Time `firestore:"completed_at"`
}

type challengeDoc struct {
	Title           string    `firestore:"title"`
	Description     string    `firestore:"description"`
	CreatorID       string    `firestore:"creator_id"`
	TemplateID      string    `firestore:"template_id,omitempty"`
	GoalType        string    `firestore:"goal_type"`
	GoalValue       float64   `firestore:"goal_value"`
	ActivityType    string    `firestore:"activity_type,omitempty"`
	DurationDays    int       `firestore:"duration_days"`
	StartDate       string    `firestore:"start_date"`
	EndDate         string    `firestore:"end_date"`
	MaxParticipants int       `firestore:"max_participants"`
	Participants    int       `firestore:"participants"`
	Status          string    `firestore:"status"`
	CreatedAt       time.Time `firestore:"created_at"`
}

type participantDoc struct {
	ChallengeID string    `firestore:"challenge_id"`
	UserID      string    `firestore:"user_id"`
	DisplayName string    `firestore:"display_name,omitempty"`
	JoinedAt    time.Time `firestore:"joined_at"`
}

func toProfileDoc(p engine.Profile) profileDoc {
	quests := make([]completedQuestDoc, 0, len(p.CompletedQuests))
	for _, c := range p.CompletedQuests {
		quests = append(quests, completedQuestDoc{QuestID: c.QuestID, Date: c.Date.String(), Points: c.Points})
	}
	badges := p.Badges
	if badges == nil {
		badges = []string{}
	}
	return profileDoc{
		UserID:           p.UserID,
		DisplayName:      p.DisplayName,
		TotalPoints:      p.TotalPoints,
		WorkoutCount:     p.WorkoutCount,
		TotalMinutes:     p.TotalMinutes,
		Streak:           p.Streak,
		Level:            p.Level,
		Badges:           badges,
		CompletedQuests:  quests,
		ChallengesJoined: p.ChallengesJoined,
		UpdatedAt:        p.UpdatedAt,
	}
}

func (d profileDoc) toProfile(userID string) (engine.Profile, error) {
	p := engine.NewProfile(userID)
	p.DisplayName = d.DisplayName
	p.TotalPoints = d.TotalPoints
	p.WorkoutCount = d.WorkoutCount
	p.TotalMinutes = d.TotalMinutes
	p.Streak = d.Streak
	p.Level = engine.LevelOf(d.TotalPoints).Level
	p.ChallengesJoined = d.ChallengesJoined
	p.UpdatedAt = d.UpdatedAt
	if d.Badges != nil {
		p.Badges = d.Badges
	}
	for _, c := range d.CompletedQuests {
		day, err := engine.ParseDate(c.Date)
		if err != nil {
			return engine.Profile{}, fmt.Errorf("decode completed quest %s: %w", c.QuestID, err)
		}
		p.CompletedQuests = append(p.CompletedQuests, engine.CompletedQuest{QuestID: c.QuestID, Date: day, Points: c.Points})
	}
	return p, nil
}

func toActivityDoc(a engine.Activity) activityDoc {
	return activityDoc{
		UserID:          a.UserID,
		Type:            string(a.Type),
		DurationMinutes: a.DurationMinutes,
		DistanceKm:      a.DistanceKm,
		Intensity:       string(a.Intensity),
		CaloriesBurned:  a.CaloriesBurned,
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt.UTC(),
	}
}

func (d activityDoc) toActivity(id string) engine.Activity {
	return engine.Activity{
		ID:              id,
		UserID:          d.UserID,
		Type:            engine.ActivityType(d.Type),
		DurationMinutes: d.DurationMinutes,
		DistanceKm:      d.DistanceKm,
		Intensity:       engine.Intensity(d.Intensity),
		CaloriesBurned:  d.CaloriesBurned,
		Notes:           d.Notes,
		CreatedAt:       d.CreatedAt,
	}
}

func toChallengeDoc(c engine.Challenge) challengeDoc {
	return challengeDoc{
		Title:           c.Title,
		Description:     c.Description,
		CreatorID:       c.CreatorID,
		TemplateID:      c.TemplateID,
		GoalType:        string(c.GoalType),
		GoalValue:       c.GoalValue,
		ActivityType:    string(c.ActivityType),
		DurationDays:    c.DurationDays,
		StartDate:       c.StartDate.String(),
		EndDate:         c.EndDate.String(),
		MaxParticipants: c.MaxParticipants,
		Participants:    c.Participants,
		Status:          string(c.Status),
		CreatedAt:       c.CreatedAt.UTC(),
	}
}

func (d challengeDoc) toChallenge(id string) (engine.Challenge, error) {
	start, err := engine.ParseDate(d.StartDate)
	if err != nil {
		return engine.Challenge{}, fmt.Errorf("decode challenge %s start: %w", id, err)
	}
	end, err := engine.ParseDate(d.EndDate)
	if err != nil {
		return engine.Challenge{}, fmt.Errorf("decode challenge %s end: %w", id, err)
	}
	return engine.Challenge{
		ID:              id,
		Title:           d.Title,
		Description:     d.Description,
		CreatorID:       d.CreatorID,
		TemplateID:      d.TemplateID,
		GoalType:        engine.GoalType(d.GoalType),
		GoalValue:       d.GoalValue,
		ActivityType:    engine.ActivityType(d.ActivityType),
		DurationDays:    d.DurationDays,
		StartDate:       start,
		EndDate:         end,
		MaxParticipants: d.MaxParticipants,
		Participants:    d.Participants,
		Status:          engine.ChallengeStatus(d.Status),
		CreatedAt:       d.CreatedAt,
	}, nil
}

func (d participantDoc) toParticipant() engine.Participant {
	return engine.Participant{ChallengeID: d.ChallengeID, UserID: d.UserID, DisplayName: d.DisplayName, JoinedAt: d.JoinedAt}
}

// ===== Helpers =====

func (r *firestoreRepository) profileRef(userID string) *firestore.DocumentRef {
	return r.client.Collection(profilesCollection).Doc(userID)
}

func (r *firestoreRepository) challengeRef(challengeID string) *firestore.DocumentRef {
	return r.client.Collection(challengesCollection).Doc(challengeID)
}

func (r *firestoreRepository) participantRef(challengeID, userID string) *firestore.DocumentRef {
	return r.client.Collection(participantsCollection).Doc(participantKey(challengeID, userID))
}

func (r *firestoreRepository) activitiesQuery(userID string) firestore.Query {
	return r.client.Collection(activitiesCollection).Where("user_id", "==", userID)
}

func decodeProfile(snap *firestore.DocumentSnapshot, err error, userID string) (engine.Profile, error) {
	if status.Code(err) == codes.NotFound {
		return engine.NewProfile(userID), nil
	}
	if err != nil {
		return engine.Profile{}, err
	}
	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return engine.Profile{}, fmt.Errorf("unmarshal profile: %w", err)
	}
	return doc.toProfile(userID)
}

func decodeActivities(docs []*firestore.DocumentSnapshot) ([]engine.Activity, error) {
	out := make([]engine.Activity, 0, len(docs))
	for _, d := range docs {
		var doc activityDoc
		if err := d.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode activity %s: %w", d.Ref.ID, err)
		}
		out = append(out, doc.toActivity(d.Ref.ID))
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(activities []engine.Activity) {
	sort.Slice(activities, func(i, j int) bool {
		if activities[i].CreatedAt.Equal(activities[j].CreatedAt) {
			return activities[i].ID > activities[j].ID
		}
		return activities[i].CreatedAt.After(activities[j].CreatedAt)
	})
}

func (r *firestoreRepository) txSnapshot(tx *firestore.Transaction, userID string) (engine.Profile, []engine.Activity, error) {
	snap, err := tx.Get(r.profileRef(userID))
	profile, err := decodeProfile(snap, err, userID)
	if err != nil {
		return engine.Profile{}, nil, err
	}
	docs, err := tx.Documents(r.activitiesQuery(userID)).GetAll()
	if err != nil {
		return engine.Profile{}, nil, fmt.Errorf("read activities: %w", err)
	}
	history, err := decodeActivities(docs)
	if err != nil {
		return engine.Profile{}, nil, err
	}
	return profile, history, nil
}

func (r *firestoreRepository) txChallenge(tx *firestore.Transaction, challengeID string) (engine.Challenge, error) {
	snap, err := tx.Get(r.challengeRef(challengeID))
	if status.Code(err) == codes.NotFound {
		return engine.Challenge{}, errChallengeNotFound(challengeID)
	}
	if err != nil {
		return engine.Challenge{}, err
	}
	var doc challengeDoc
	if err := snap.DataTo(&doc); err != nil {
		return engine.Challenge{}, fmt.Errorf("unmarshal challenge: %w", err)
	}
	return doc.toChallenge(challengeID)
}

func (r *firestoreRepository) txIsParticipant(tx *firestore.Transaction, challengeID, userID string) (bool, error) {
	_, err := tx.Get(r.participantRef(challengeID, userID))
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// mapTxError converts store failures into engine errors; business errors returned
// by the callbacks pass through untouched.
func mapTxError(err error) error {
	if err == nil {
		return nil
	}
	var engErr *engine.Error
	if errors.As(err, &engErr) {
		return err
	}
	if status.Code(err) == codes.Aborted {
		return errConcurrentUpdate(err)
	}
	return err
}

// ===== Reads =====

func (r *firestoreRepository) GetProfile(ctx context.Context, userID string) (engine.Profile, error) {
	snap, err := r.profileRef(userID).Get(ctx)
	return decodeProfile(snap, err, userID)
}

func (r *firestoreRepository) ListActivities(ctx context.Context, userID string, limit int) ([]engine.Activity, error) {
	query := r.activitiesQuery(userID).OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return decodeActivities(docs)
}

func (r *firestoreRepository) ListActivitiesBetween(ctx context.Context, userID string, start, end time.Time) ([]engine.Activity, error) {
	iter := r.activitiesQuery(userID).
		Where("created_at", ">=", start.UTC()).
		Where("created_at", "<", end.UTC()).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var out []engine.Activity
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list activities between: %w", err)
		}
		var a activityDoc
		if err := doc.DataTo(&a); err != nil {
			return nil, fmt.Errorf("decode activity %s: %w", doc.Ref.ID, err)
		}
		out = append(out, a.toActivity(doc.Ref.ID))
	}
	return out, nil
}

func (r *firestoreRepository) ListLeaderboard(ctx context.Context) ([]engine.LeaderboardUser, error) {
	iter := r.client.Collection(profilesCollection).
		Select("display_name", "total_points").
		Documents(ctx)
	defer iter.Stop()

	var out []engine.LeaderboardUser
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list leaderboard: %w", err)
		}
		var row struct {
			DisplayName string `firestore:"display_name"`
			TotalPoints int    `firestore:"total_points"`
		}
		if err := doc.DataTo(&row); err != nil {
			return nil, fmt.Errorf("decode profile %s: %w", doc.Ref.ID, err)
		}
		out = append(out, engine.LeaderboardUser{UserID: doc.Ref.ID, DisplayName: row.DisplayName, TotalPoints: row.TotalPoints})
	}
	return out, nil
}

// ===== Profile mutations =====

func (r *firestoreRepository) RecordQuest(ctx context.Context, userID string, apply QuestFunc) (engine.QuestResult, error) {
	var result engine.QuestResult

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		profile, history, err := r.txSnapshot(tx, userID)
		if err != nil {
			return err
		}
		res, err := apply(profile, history)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		res.Profile.UpdatedAt = now
		completion := r.client.Collection(completionsCollection).Doc(completionKey(userID, res.Completion.QuestID, res.Completion.Date))
		if err := tx.Create(completion, completionDoc{
			UserID:      userID,
			QuestID:     res.Completion.QuestID,
			Date:        res.Completion.Date.String(),
			Points:      res.Completion.Points,
			CompletedAt: now,
		}); err != nil {
			return err
		}
		if err := tx.Set(r.profileRef(userID), toProfileDoc(res.Profile)); err != nil {
			return err
		}
		result = res
		return nil
	})
	if status.Code(err) == codes.AlreadyExists {
		return engine.QuestResult{}, errDuplicateCompletion(result.Completion.QuestID, result.Completion.Date)
	}
	if err != nil {
		return engine.QuestResult{}, mapTxError(err)
	}
	return result, nil
}

func (r *firestoreRepository) RecordActivity(ctx context.Context, userID string, apply ActivityFunc) (engine.ActivityResult, error) {
	var result engine.ActivityResult

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		profile, history, err := r.txSnapshot(tx, userID)
		if err != nil {
			return err
		}
		res, err := apply(profile, history)
		if err != nil {
			return err
		}

		res.Profile.UpdatedAt = time.Now().UTC()
		if err := tx.Create(r.client.Collection(activitiesCollection).Doc(res.Activity.ID), toActivityDoc(res.Activity)); err != nil {
			return err
		}
		if err := tx.Set(r.profileRef(userID), toProfileDoc(res.Profile)); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return engine.ActivityResult{}, mapTxError(err)
	}
	return result, nil
}

func (r *firestoreRepository) DeleteActivity(ctx context.Context, userID, activityID string, apply RemoveFunc) (engine.Profile, error) {
	var updated engine.Profile
	ref := r.client.Collection(activitiesCollection).Doc(activityID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return errActivityNotFound(activityID)
		}
		if err != nil {
			return err
		}
		var doc activityDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode activity %s: %w", activityID, err)
		}
		if doc.UserID != userID {
			return errActivityNotFound(activityID)
		}
		removed := doc.toActivity(activityID)

		profile, history, err := r.txSnapshot(tx, userID)
		if err != nil {
			return err
		}
		remaining := make([]engine.Activity, 0, len(history))
		for _, a := range history {
			if a.ID != activityID {
				remaining = append(remaining, a)
			}
		}

		p, err := apply(profile, remaining, removed)
		if err != nil {
			return err
		}
		p.UpdatedAt = time.Now().UTC()
		if err := tx.Delete(ref); err != nil {
			return err
		}
		if err := tx.Set(r.profileRef(userID), toProfileDoc(p)); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return engine.Profile{}, mapTxError(err)
	}
	return updated, nil
}

// ===== Challenges =====

func (r *firestoreRepository) CreateChallenge(ctx context.Context, challenge engine.Challenge, creator engine.Participant, apply JoinFunc) (engine.Challenge, error) {
	challenge.Participants = 1
	creator.ChallengeID = challenge.ID

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		profile, history, err := r.txSnapshot(tx, creator.UserID)
		if err != nil {
			return err
		}
		updated, err := apply(challenge, false, profile, history)
		if err != nil {
			return err
		}
		updated.UpdatedAt = time.Now().UTC()

		if err := tx.Create(r.challengeRef(challenge.ID), toChallengeDoc(challenge)); err != nil {
			return err
		}
		if err := tx.Create(r.participantRef(challenge.ID, creator.UserID), participantDoc{
			ChallengeID: challenge.ID,
			UserID:      creator.UserID,
			DisplayName: creator.DisplayName,
			JoinedAt:    creator.JoinedAt.UTC(),
		}); err != nil {
			return err
		}
		return tx.Set(r.profileRef(creator.UserID), toProfileDoc(updated))
	})
	if status.Code(err) == codes.AlreadyExists {
		return engine.Challenge{}, errConcurrentUpdate(err)
	}
	if err != nil {
		return engine.Challenge{}, mapTxError(err)
	}
	return challenge, nil
}

func (r *firestoreRepository) GetChallenge(ctx context.Context, challengeID string) (engine.Challenge, error) {
	snap, err := r.challengeRef(challengeID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return engine.Challenge{}, errChallengeNotFound(challengeID)
	}
	if err != nil {
		return engine.Challenge{}, err
	}
	var doc challengeDoc
	if err := snap.DataTo(&doc); err != nil {
		return engine.Challenge{}, fmt.Errorf("unmarshal challenge: %w", err)
	}
	return doc.toChallenge(challengeID)
}

func (r *firestoreRepository) ListChallenges(ctx context.Context, state engine.ChallengeStatus) ([]engine.Challenge, error) {
	query := r.client.Collection(challengesCollection).Query
	if state != "" {
		query = query.Where("status", "==", string(state))
	}
	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []engine.Challenge
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list challenges: %w", err)
		}
		var d challengeDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode challenge %s: %w", doc.Ref.ID, err)
		}
		c, err := d.toChallenge(doc.Ref.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *firestoreRepository) ListParticipants(ctx context.Context, challengeID string) ([]engine.Participant, error) {
	if _, err := r.GetChallenge(ctx, challengeID); err != nil {
		return nil, err
	}

	docs, err := r.client.Collection(participantsCollection).
		Where("challenge_id", "==", challengeID).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	out := make([]engine.Participant, 0, len(docs))
	for _, d := range docs {
		var p participantDoc
		if err := d.DataTo(&p); err != nil {
			return nil, fmt.Errorf("decode participant %s: %w", d.Ref.ID, err)
		}
		out = append(out, p.toParticipant())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (r *firestoreRepository) JoinChallenge(ctx context.Context, challengeID string, member engine.Participant, apply JoinFunc) (engine.Challenge, error) {
	var joined engine.Challenge

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		c, err := r.txChallenge(tx, challengeID)
		if err != nil {
			return err
		}
		already, err := r.txIsParticipant(tx, challengeID, member.UserID)
		if err != nil {
			return err
		}
		profile, history, err := r.txSnapshot(tx, member.UserID)
		if err != nil {
			return err
		}

		updated, err := apply(c, already, profile, history)
		if err != nil {
			return err
		}
		updated.UpdatedAt = time.Now().UTC()
		c.Participants++

		if err := tx.Create(r.participantRef(challengeID, member.UserID), participantDoc{
			ChallengeID: challengeID,
			UserID:      member.UserID,
			DisplayName: member.DisplayName,
			JoinedAt:    member.JoinedAt.UTC(),
		}); err != nil {
			return err
		}
		if err := tx.Set(r.challengeRef(challengeID), map[string]interface{}{"participants": c.Participants}, firestore.MergeAll); err != nil {
			return err
		}
		if err := tx.Set(r.profileRef(member.UserID), toProfileDoc(updated)); err != nil {
			return err
		}
		joined = c
		return nil
	})
	if err != nil {
		return engine.Challenge{}, mapTxError(err)
	}
	return joined, nil
}

func (r *firestoreRepository) LeaveChallenge(ctx context.Context, challengeID, userID string) error {
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		c, err := r.txChallenge(tx, challengeID)
		if err != nil {
			return err
		}
		joined, err := r.txIsParticipant(tx, challengeID, userID)
		if err != nil {
			return err
		}
		if err := engine.CheckLeave(c, joined); err != nil {
			return err
		}
		if err := tx.Delete(r.participantRef(challengeID, userID)); err != nil {
			return err
		}
		return tx.Set(r.challengeRef(challengeID), map[string]interface{}{"participants": max(c.Participants-1, 0)}, firestore.MergeAll)
	})
	return mapTxError(err)
}

func (r *firestoreRepository) DeleteChallenge(ctx context.Context, challengeID, userID string) error {
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		c, err := r.txChallenge(tx, challengeID)
		if err != nil {
			return err
		}
		if err := engine.CheckDelete(c, userID); err != nil {
			return err
		}
		members, err := tx.Documents(r.client.Collection(participantsCollection).Where("challenge_id", "==", challengeID)).GetAll()
		if err != nil {
			return fmt.Errorf("read participants: %w", err)
		}
		for _, m := range members {
			if err := tx.Delete(m.Ref); err != nil {
				return err
			}
		}
		return tx.Delete(r.challengeRef(challengeID))
	})
	return mapTxError(err)
}

func (r *firestoreRepository) SetChallengeStatus(ctx context.Context, challengeID string, state engine.ChallengeStatus) error {
	_, err := r.challengeRef(challengeID).Update(ctx, []firestore.Update{{Path: "status", Value: string(state)}})
	if status.Code(err) == codes.NotFound {
		return errChallengeNotFound(challengeID)
	}
	return err
}
