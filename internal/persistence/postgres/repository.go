// Package postgres is the remote ScoreStore backed by Postgres. Every write also
// records the matching outbox event inside the same transaction.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/wellbeing/internal/domain"
	"example.com/wellbeing/pkg/events"
)

// Repository provides Postgres-backed persistence for wellbeing scores and outbox events.
type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, now: time.Now}
}

// GetCurrent returns the running score of a user, or nil when none was stored.
func (r *Repository) GetCurrent(ctx context.Context, userID string) (*domain.WellbeingScore, error) {
	const query = `SELECT sleep, physical_activity, social_interaction, overall, last_updated
        FROM wellbeing_scores WHERE user_id=$1`

	tx, release, err := r.begin(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	var score domain.WellbeingScore
	row := tx.QueryRow(ctx, query, userID)
	if err := row.Scan(&score.Sleep, &score.PhysicalActivity, &score.SocialInteraction, &score.Overall, &score.LastUpdated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tx.Commit(ctx)
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &score, nil
}

// UpsertCurrent stores the running score unless a newer one is already present.
func (r *Repository) UpsertCurrent(ctx context.Context, userID string, score domain.WellbeingScore) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "SELECT set_config('app.user_id', $1, true)", userID); err != nil {
		return err
	}

	const stmt = `INSERT INTO wellbeing_scores (user_id, sleep, physical_activity, social_interaction, overall, last_updated, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,NOW())
        ON CONFLICT (user_id) DO UPDATE SET
            sleep = EXCLUDED.sleep,
            physical_activity = EXCLUDED.physical_activity,
            social_interaction = EXCLUDED.social_interaction,
            overall = EXCLUDED.overall,
            last_updated = EXCLUDED.last_updated,
            updated_at = NOW()
        WHERE wellbeing_scores.last_updated <= EXCLUDED.last_updated`

	tag, err := tx.Exec(ctx, stmt, userID, score.Sleep, score.PhysicalActivity, score.SocialInteraction, score.Overall, score.LastUpdated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tx.Commit(ctx)
	}

	eventID := uuid.NewString()
	if err = r.insertOutbox(ctx, tx, userID, userID, events.TypeScoreUpdated, eventID, events.WellbeingScoreUpdated{
		EventID:           eventID,
		UserID:            userID,
		Sleep:             score.Sleep,
		PhysicalActivity:  score.PhysicalActivity,
		SocialInteraction: score.SocialInteraction,
		Overall:           score.Overall,
		UpdatedAt:         score.LastUpdated,
	}); err != nil {
		return err
	}

	err = tx.Commit(ctx)
	return err
}

// UpsertDaily stores the scores of one calendar day, replacing an earlier entry
// for the same date. Rewriting unchanged values records no event.
func (r *Repository) UpsertDaily(ctx context.Context, userID string, daily domain.DailyWellbeingScores) (err error) {
	date, err := time.Parse(domain.DateLayout, daily.Date)
	if err != nil {
		return fmt.Errorf("invalid score date %q: %w", daily.Date, err)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "SELECT set_config('app.user_id', $1, true)", userID); err != nil {
		return err
	}

	const stmt = `INSERT INTO daily_wellbeing_scores (user_id, score_date, sleep, physical_activity, social_interaction, updated_at)
        VALUES ($1,$2,$3,$4,$5,NOW())
        ON CONFLICT (user_id, score_date) DO UPDATE SET
            sleep = EXCLUDED.sleep,
            physical_activity = EXCLUDED.physical_activity,
            social_interaction = EXCLUDED.social_interaction,
            updated_at = NOW()
        WHERE (daily_wellbeing_scores.sleep, daily_wellbeing_scores.physical_activity, daily_wellbeing_scores.social_interaction)
            IS DISTINCT FROM (EXCLUDED.sleep, EXCLUDED.physical_activity, EXCLUDED.social_interaction)`

	tag, err := tx.Exec(ctx, stmt, userID, date, daily.Sleep, daily.PhysicalActivity, daily.SocialInteraction)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tx.Commit(ctx)
	}

	eventID := uuid.NewString()
	if err = r.insertOutbox(ctx, tx, userID, userID+":"+daily.Date, events.TypeDailyScored, eventID, events.DailyScoreRecorded{
		EventID:           eventID,
		UserID:            userID,
		Date:              daily.Date,
		Sleep:             daily.Sleep,
		PhysicalActivity:  daily.PhysicalActivity,
		SocialInteraction: daily.SocialInteraction,
		RecordedAt:        r.now().UTC(),
	}); err != nil {
		return err
	}

	err = tx.Commit(ctx)
	return err
}

// ListDaily returns up to limit daily entries, newest first.
func (r *Repository) ListDaily(ctx context.Context, userID string, limit int) ([]domain.DailyWellbeingScores, error) {
	if limit <= 0 {
		limit = 30
	}
	const query = `SELECT score_date, sleep, physical_activity, social_interaction
        FROM daily_wellbeing_scores WHERE user_id=$1
        ORDER BY score_date DESC LIMIT $2`

	tx, release, err := r.begin(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := tx.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.DailyWellbeingScores, 0, limit)
	for rows.Next() {
		var (
			date  time.Time
			entry domain.DailyWellbeingScores
		)
		if err := rows.Scan(&date, &entry.Sleep, &entry.PhysicalActivity, &entry.SocialInteraction); err != nil {
			return nil, err
		}
		entry.Date = date.Format(domain.DateLayout)
		results = append(results, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

// begin opens a read transaction scoped to userID for row-level security.
func (r *Repository) begin(ctx context.Context, userID string) (pgx.Tx, func(), error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	tx, err := conn.Begin(ctx)
	if err != nil {
		conn.Release()
		return nil, nil, err
	}
	release := func() {
		tx.Rollback(ctx)
		conn.Release()
	}
	if _, err := tx.Exec(ctx, "SELECT set_config('app.user_id', $1, true)", userID); err != nil {
		release()
		return nil, nil, err
	}
	return tx, release, nil
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, userID, aggregateID, eventType, eventID string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := EventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (user_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, stmt,
		userID,
		meta.AggregateType,
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		userID,
		body,
		fmt.Sprintf("%s:%s", eventType, eventID),
	)
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
	AggregateType string
}

// EventCatalog maps event types to their Kafka topic and schema subject.
// Events are keyed by user id so a user's updates stay ordered on one partition.
var EventCatalog = map[string]EventMetadata{
	events.TypeScoreUpdated: {
		Topic:         "wellbeing.score_updated",
		SchemaSubject: "wellbeing.score_updated-value",
		AggregateType: "wellbeing_score",
	},
	events.TypeDailyScored: {
		Topic:         "wellbeing.daily_scored",
		SchemaSubject: "wellbeing.daily_scored-value",
		AggregateType: "daily_wellbeing_score",
	},
}
