package performance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/quizpeak/backend/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Topic State ─────────────────────────────────────────

// LoadUserTopicState reads the user's aggregate from its JSONB column,
// returning a fresh empty state when the user has none yet.
func (s *Store) LoadUserTopicState(userID int64) (*UserTopicState, error) {
	var raw []byte
	err := s.db.QueryRow(
		`SELECT state FROM user_topic_performance WHERE user_id = $1`,
		userID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return &UserTopicState{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load topic state: %w", err)
	}

	var state UserTopicState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode topic state: %w", err)
	}
	state.UserID = userID
	return &state, nil
}

func (s *Store) SaveUserTopicState(state *UserTopicState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode topic state: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO user_topic_performance (user_id, state, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET state = $2, updated_at = NOW()`,
		state.UserID, raw,
	)
	if err != nil {
		return fmt.Errorf("save topic state: %w", err)
	}
	return nil
}

// ── Snapshot Queue ──────────────────────────────────────

// ClaimPendingSnapshot atomically picks the oldest pending snapshot and
// marks it processing. SKIP LOCKED lets multiple workers drain the queue
// without stepping on each other. Returns nil when the queue is empty.
func (s *Store) ClaimPendingSnapshot(ctx context.Context) (*models.SessionSnapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var snap models.SessionSnapshot
	err = tx.QueryRow(
		`SELECT id, session_id, user_id, status, created_at
		 FROM session_snapshots
		 WHERE status = $1
		 ORDER BY created_at ASC
		 LIMIT 1
		 FOR UPDATE SKIP LOCKED`,
		models.SnapshotPending,
	).Scan(&snap.ID, &snap.SessionID, &snap.UserID, &snap.Status, &snap.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim snapshot: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE session_snapshots SET status = $1 WHERE id = $2`,
		models.SnapshotProcessing, snap.ID,
	); err != nil {
		return nil, fmt.Errorf("mark snapshot processing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	snap.Status = models.SnapshotProcessing
	return &snap, nil
}

func (s *Store) MarkSnapshotDone(snapshotID int64) error {
	_, err := s.db.Exec(
		`UPDATE session_snapshots SET status = $1, processed_at = NOW() WHERE id = $2`,
		models.SnapshotDone, snapshotID,
	)
	return err
}

func (s *Store) MarkSnapshotFailed(snapshotID int64, errMsg string) error {
	_, err := s.db.Exec(
		`UPDATE session_snapshots SET status = $1, error_message = $2, processed_at = NOW() WHERE id = $3`,
		models.SnapshotFailed, errMsg, snapshotID,
	)
	return err
}

// ── Answer History ──────────────────────────────────────

// GetSessionAnswerHistory loads a session's answers joined with grading
// data. The question join is a LEFT JOIN: an answer whose question has
// since been removed comes back without a correct option and is skipped
// by the aggregator rather than failing the whole batch.
func (s *Store) GetSessionAnswerHistory(sessionID int64) ([]AnsweredQuestion, error) {
	rows, err := s.db.Query(
		`SELECT sa.question_id, q.correct_option, sa.option_id,
		        COALESCE(array_agg(qt.topic_id) FILTER (WHERE qt.topic_id IS NOT NULL), '{}')
		 FROM session_answers sa
		 LEFT JOIN questions q ON q.id = sa.question_id
		 LEFT JOIN question_topics qt ON qt.question_id = sa.question_id
		 WHERE sa.session_id = $1
		 GROUP BY sa.id, sa.question_id, q.correct_option, sa.option_id
		 ORDER BY sa.id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("get session answer history: %w", err)
	}
	defer rows.Close()

	var entries []AnsweredQuestion
	for rows.Next() {
		var e AnsweredQuestion
		if err := rows.Scan(&e.QuestionID, &e.CorrectOption, &e.UserChoice, pq.Array(&e.TopicIDs)); err != nil {
			return nil, fmt.Errorf("scan answer history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetTopicNames resolves topic IDs to display names.
func (s *Store) GetTopicNames(topicIDs []int64) (map[int64]string, error) {
	if len(topicIDs) == 0 {
		return map[int64]string{}, nil
	}
	rows, err := s.db.Query(
		`SELECT id, name FROM topics WHERE id = ANY($1)`,
		pq.Array(topicIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("get topic names: %w", err)
	}
	defer rows.Close()

	names := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}
