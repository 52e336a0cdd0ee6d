package gamification

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/focusnest/gamification-service/internal/engine"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigratePostgres applies the embedded schema migrations to databaseURL.
func MigratePostgres(databaseURL string) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(databaseURL))
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// migrateURL rewrites a libpq style URL to the scheme registered by the pgx/v5 driver.
func migrateURL(databaseURL string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a Repository backed by Postgres. Mutations run in
// serializable transactions and lock the profile row.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	profileColumns   = `user_id, display_name, total_points, workout_count, total_minutes, streak, badges, challenges_joined, updated_at`
	activityColumns  = `id, user_id, type, duration_minutes, distance_km, intensity, calories_burned, notes, created_at`
	challengeColumns = `id, title, description, creator_id, template_id, goal_type, goal_value, activity_type, duration_days, start_date, end_date, max_participants, participants, status, created_at`
)

func (r *postgresRepository) withTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return mapPgError(err)
	}
	if err = tx.Commit(ctx); err != nil {
		return mapPgError(err)
	}
	return nil
}

func mapPgError(err error) error {
	var engErr *engine.Error
	if errors.As(err, &engErr) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01") {
		return errConcurrentUpdate(err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ===== Scanning =====

func loadProfile(ctx context.Context, q querier, userID string, forUpdate bool) (engine.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	p := engine.NewProfile(userID)
	err := q.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.DisplayName, &p.TotalPoints, &p.WorkoutCount, &p.TotalMinutes,
		&p.Streak, &p.Badges, &p.ChallengesJoined, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return engine.NewProfile(userID), nil
	}
	if err != nil {
		return engine.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	if p.Badges == nil {
		p.Badges = []string{}
	}
	p.Level = engine.LevelOf(p.TotalPoints).Level

	rows, err := q.Query(ctx, `SELECT quest_id, day, points FROM quest_completions WHERE user_id = $1 ORDER BY day, completed_at`, userID)
	if err != nil {
		return engine.Profile{}, fmt.Errorf("load completions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			c   engine.CompletedQuest
			day time.Time
		)
		if err := rows.Scan(&c.QuestID, &day, &c.Points); err != nil {
			return engine.Profile{}, fmt.Errorf("scan completion: %w", err)
		}
		c.Date = engine.DateOf(day)
		p.CompletedQuests = append(p.CompletedQuests, c)
	}
	return p, rows.Err()
}

func scanActivities(rows pgx.Rows) ([]engine.Activity, error) {
	defer rows.Close()
	var out []engine.Activity
	for rows.Next() {
		var (
			a           engine.Activity
			kind, level string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &kind, &a.DurationMinutes, &a.DistanceKm, &level, &a.CaloriesBurned, &a.Notes, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Type = engine.ActivityType(kind)
		a.Intensity = engine.Intensity(level)
		out = append(out, a)
	}
	return out, rows.Err()
}

func loadHistory(ctx context.Context, q querier, userID string) ([]engine.Activity, error) {
	rows, err := q.Query(ctx, `SELECT `+activityColumns+` FROM activities WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	return scanActivities(rows)
}

func scanChallenge(row pgx.Row) (engine.Challenge, error) {
	var (
		c                          engine.Challenge
		goal, activityType, status string
		start, end                 time.Time
	)
	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.CreatorID, &c.TemplateID, &goal, &c.GoalValue, &activityType,
		&c.DurationDays, &start, &end, &c.MaxParticipants, &c.Participants, &status, &c.CreatedAt,
	)
	if err != nil {
		return engine.Challenge{}, err
	}
	c.GoalType = engine.GoalType(goal)
	c.ActivityType = engine.ActivityType(activityType)
	c.Status = engine.ChallengeStatus(status)
	c.StartDate = engine.DateOf(start)
	c.EndDate = engine.DateOf(end)
	return c, nil
}

func loadChallenge(ctx context.Context, q querier, challengeID string, forUpdate bool) (engine.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	c, err := scanChallenge(q.QueryRow(ctx, query, challengeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return engine.Challenge{}, errChallengeNotFound(challengeID)
	}
	if err != nil {
		return engine.Challenge{}, fmt.Errorf("load challenge: %w", err)
	}
	return c, nil
}

func isParticipant(ctx context.Context, q querier, challengeID, userID string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM challenge_participants WHERE challenge_id = $1 AND user_id = $2)`, challengeID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return exists, nil
}

// lockProfile makes sure the profile row exists and locks it for the rest of tx.
func lockProfile(ctx context.Context, tx pgx.Tx, userID string) (engine.Profile, error) {
	if _, err := tx.Exec(ctx, `INSERT INTO profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return engine.Profile{}, fmt.Errorf("ensure profile: %w", err)
	}
	return loadProfile(ctx, tx, userID, true)
}

func saveProfile(ctx context.Context, tx pgx.Tx, p engine.Profile) error {
	badges := p.Badges
	if badges == nil {
		badges = []string{}
	}
	_, err := tx.Exec(ctx, `UPDATE profiles SET
			display_name = $2, total_points = $3, workout_count = $4, total_minutes = $5,
			streak = $6, level = $7, badges = $8, challenges_joined = $9, updated_at = now()
		WHERE user_id = $1`,
		p.UserID, p.DisplayName, p.TotalPoints, p.WorkoutCount, p.TotalMinutes,
		p.Streak, engine.LevelOf(p.TotalPoints).Level, badges, p.ChallengesJoined,
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// ===== Reads =====

func (r *postgresRepository) GetProfile(ctx context.Context, userID string) (engine.Profile, error) {
	return loadProfile(ctx, r.pool, userID, false)
}

func (r *postgresRepository) ListActivities(ctx context.Context, userID string, limit int) ([]engine.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return scanActivities(rows)
}

func (r *postgresRepository) ListActivitiesBetween(ctx context.Context, userID string, start, end time.Time) ([]engine.Activity, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+activityColumns+` FROM activities
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at DESC, id DESC`, userID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("list activities between: %w", err)
	}
	return scanActivities(rows)
}

func (r *postgresRepository) ListLeaderboard(ctx context.Context) ([]engine.LeaderboardUser, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, display_name, total_points FROM profiles`)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}
	defer rows.Close()

	var out []engine.LeaderboardUser
	for rows.Next() {
		var u engine.LeaderboardUser
		if err := rows.Scan(&u.UserID, &u.DisplayName, &u.TotalPoints); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ===== Profile mutations =====

func (r *postgresRepository) RecordQuest(ctx context.Context, userID string, apply QuestFunc) (engine.QuestResult, error) {
	var result engine.QuestResult

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		profile, err := lockProfile(ctx, tx, userID)
		if err != nil {
			return err
		}
		history, err := loadHistory(ctx, tx, userID)
		if err != nil {
			return err
		}
		res, err := apply(profile, history)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `INSERT INTO quest_completions (user_id, quest_id, day, points) VALUES ($1, $2, $3::date, $4)`,
			userID, res.Completion.QuestID, res.Completion.Date.String(), res.Completion.Points)
		if isUniqueViolation(err) {
			return errDuplicateCompletion(res.Completion.QuestID, res.Completion.Date)
		}
		if err != nil {
			return fmt.Errorf("insert completion: %w", err)
		}
		if err := saveProfile(ctx, tx, res.Profile); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return engine.QuestResult{}, err
	}
	return result, nil
}

func (r *postgresRepository) RecordActivity(ctx context.Context, userID string, apply ActivityFunc) (engine.ActivityResult, error) {
	var result engine.ActivityResult

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		profile, err := lockProfile(ctx, tx, userID)
		if err != nil {
			return err
		}
		history, err := loadHistory(ctx, tx, userID)
		if err != nil {
			return err
		}
		res, err := apply(profile, history)
		if err != nil {
			return err
		}

		a := res.Activity
		_, err = tx.Exec(ctx, `INSERT INTO activities (`+activityColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			a.ID, a.UserID, string(a.Type), a.DurationMinutes, a.DistanceKm, string(a.Intensity), a.CaloriesBurned, a.Notes, a.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("insert activity: %w", err)
		}
		if err := saveProfile(ctx, tx, res.Profile); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return engine.ActivityResult{}, err
	}
	return result, nil
}

func (r *postgresRepository) DeleteActivity(ctx context.Context, userID, activityID string, apply RemoveFunc) (engine.Profile, error) {
	var updated engine.Profile

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		profile, err := lockProfile(ctx, tx, userID)
		if err != nil {
			return err
		}
		history, err := loadHistory(ctx, tx, userID)
		if err != nil {
			return err
		}

		var (
			removed engine.Activity
			found   bool
		)
		remaining := make([]engine.Activity, 0, len(history))
		for _, a := range history {
			if a.ID == activityID {
				removed, found = a, true
				continue
			}
			remaining = append(remaining, a)
		}
		if !found {
			return errActivityNotFound(activityID)
		}

		p, err := apply(profile, remaining, removed)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM activities WHERE id = $1 AND user_id = $2`, activityID, userID); err != nil {
			return fmt.Errorf("delete activity: %w", err)
		}
		if err := saveProfile(ctx, tx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return engine.Profile{}, err
	}
	return updated, nil
}

// ===== Challenges =====

func insertParticipant(ctx context.Context, tx pgx.Tx, p engine.Participant) error {
	_, err := tx.Exec(ctx, `INSERT INTO challenge_participants (challenge_id, user_id, display_name, joined_at) VALUES ($1, $2, $3, $4)`,
		p.ChallengeID, p.UserID, p.DisplayName, p.JoinedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (r *postgresRepository) CreateChallenge(ctx context.Context, challenge engine.Challenge, creator engine.Participant, apply JoinFunc) (engine.Challenge, error) {
	challenge.Participants = 1
	creator.ChallengeID = challenge.ID

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		profile, err := lockProfile(ctx, tx, creator.UserID)
		if err != nil {
			return err
		}
		history, err := loadHistory(ctx, tx, creator.UserID)
		if err != nil {
			return err
		}
		updated, err := apply(challenge, false, profile, history)
		if err != nil {
			return err
		}

		c := challenge
		_, err = tx.Exec(ctx, `INSERT INTO challenges (`+challengeColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::date, $11::date, $12, $13, $14, $15)`,
			c.ID, c.Title, c.Description, c.CreatorID, c.TemplateID, string(c.GoalType), c.GoalValue, string(c.ActivityType),
			c.DurationDays, c.StartDate.String(), c.EndDate.String(), c.MaxParticipants, c.Participants, string(c.Status), c.CreatedAt.UTC())
		if isUniqueViolation(err) {
			return errConcurrentUpdate(err)
		}
		if err != nil {
			return fmt.Errorf("insert challenge: %w", err)
		}
		if err := insertParticipant(ctx, tx, creator); err != nil {
			return err
		}
		return saveProfile(ctx, tx, updated)
	})
	if err != nil {
		return engine.Challenge{}, err
	}
	return challenge, nil
}

func (r *postgresRepository) GetChallenge(ctx context.Context, challengeID string) (engine.Challenge, error) {
	return loadChallenge(ctx, r.pool, challengeID, false)
}

func (r *postgresRepository) ListChallenges(ctx context.Context, state engine.ChallengeStatus) ([]engine.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges`
	var args []any
	if state != "" {
		query += ` WHERE status = $1`
		args = append(args, string(state))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	defer rows.Close()

	var out []engine.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *postgresRepository) ListParticipants(ctx context.Context, challengeID string) ([]engine.Participant, error) {
	if _, err := r.GetChallenge(ctx, challengeID); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT challenge_id, user_id, display_name, joined_at FROM challenge_participants
		WHERE challenge_id = $1 ORDER BY joined_at, user_id`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []engine.Participant
	for rows.Next() {
		var p engine.Participant
		if err := rows.Scan(&p.ChallengeID, &p.UserID, &p.DisplayName, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *postgresRepository) JoinChallenge(ctx context.Context, challengeID string, member engine.Participant, apply JoinFunc) (engine.Challenge, error) {
	var joined engine.Challenge
	member.ChallengeID = challengeID

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		c, err := loadChallenge(ctx, tx, challengeID, true)
		if err != nil {
			return err
		}
		already, err := isParticipant(ctx, tx, challengeID, member.UserID)
		if err != nil {
			return err
		}
		profile, err := lockProfile(ctx, tx, member.UserID)
		if err != nil {
			return err
		}
		history, err := loadHistory(ctx, tx, member.UserID)
		if err != nil {
			return err
		}
		updated, err := apply(c, already, profile, history)
		if err != nil {
			return err
		}

		if err := insertParticipant(ctx, tx, member); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE challenges SET participants = participants + 1 WHERE id = $1`, challengeID); err != nil {
			return fmt.Errorf("update challenge: %w", err)
		}
		if err := saveProfile(ctx, tx, updated); err != nil {
			return err
		}
		c.Participants++
		joined = c
		return nil
	})
	if err != nil {
		return engine.Challenge{}, err
	}
	return joined, nil
}

func (r *postgresRepository) LeaveChallenge(ctx context.Context, challengeID, userID string) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		c, err := loadChallenge(ctx, tx, challengeID, true)
		if err != nil {
			return err
		}
		joined, err := isParticipant(ctx, tx, challengeID, userID)
		if err != nil {
			return err
		}
		if err := engine.CheckLeave(c, joined); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM challenge_participants WHERE challenge_id = $1 AND user_id = $2`, challengeID, userID); err != nil {
			return fmt.Errorf("delete participant: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE challenges SET participants = GREATEST(participants - 1, 0) WHERE id = $1`, challengeID); err != nil {
			return fmt.Errorf("update challenge: %w", err)
		}
		return nil
	})
}

func (r *postgresRepository) DeleteChallenge(ctx context.Context, challengeID, userID string) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		c, err := loadChallenge(ctx, tx, challengeID, true)
		if err != nil {
			return err
		}
		if err := engine.CheckDelete(c, userID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM challenges WHERE id = $1`, challengeID); err != nil {
			return fmt.Errorf("delete challenge: %w", err)
		}
		return nil
	})
}

func (r *postgresRepository) SetChallengeStatus(ctx context.Context, challengeID string, state engine.ChallengeStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE challenges SET status = $2 WHERE id = $1`, challengeID, string(state))
	if err != nil {
		return fmt.Errorf("set challenge status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errChallengeNotFound(challengeID)
	}
	return nil
}
