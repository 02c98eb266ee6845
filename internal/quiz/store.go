package quiz

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quizpeak/backend/internal/models"
	"github.com/quizpeak/backend/internal/rating"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Levels ──────────────────────────────────────────────

func (s *Store) GetLevel(levelID int64) (*models.Level, error) {
	var l models.Level
	err := s.db.QueryRow(
		`SELECT id, unit_id, name, level_number, required_xp, total_time,
		        difficulty_mean, difficulty_sd, difficulty_alpha, created_at
		 FROM levels WHERE id = $1`,
		levelID,
	).Scan(&l.ID, &l.UnitID, &l.Name, &l.LevelNumber, &l.RequiredXP, &l.TotalTime,
		&l.Difficulty.Mean, &l.Difficulty.SD, &l.Difficulty.Alpha, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get level: %w", err)
	}
	return &l, nil
}

// GetChapterIDForLevel resolves the chapter a level draws its questions from.
func (s *Store) GetChapterIDForLevel(levelID int64) (int64, error) {
	var chapterID int64
	err := s.db.QueryRow(
		`SELECT u.chapter_id
		 FROM levels l JOIN units u ON u.id = l.unit_id
		 WHERE l.id = $1`,
		levelID,
	).Scan(&chapterID)
	if err != nil {
		return 0, fmt.Errorf("get chapter for level: %w", err)
	}
	return chapterID, nil
}

// ── Ratings ─────────────────────────────────────────────

func (s *Store) GetOrCreateUserSkill(userID int64) (rating.Rating, error) {
	_, err := s.db.Exec(
		`INSERT INTO user_skills (user_id, mu, sigma)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, rating.DefaultStudentMu, rating.DefaultStudentSigma,
	)
	if err != nil {
		return rating.Rating{}, fmt.Errorf("upsert user skill: %w", err)
	}

	var r rating.Rating
	err = s.db.QueryRow(
		`SELECT mu, sigma FROM user_skills WHERE user_id = $1`,
		userID,
	).Scan(&r.Mu, &r.Sigma)
	if err != nil {
		return rating.Rating{}, fmt.Errorf("get user skill: %w", err)
	}
	return r, nil
}

func (s *Store) SaveUserSkill(userID int64, r rating.Rating, correct bool) error {
	correctIncrement := 0
	if correct {
		correctIncrement = 1
	}
	_, err := s.db.Exec(
		`UPDATE user_skills
		 SET mu = $1, sigma = $2,
		     questions_answered = questions_answered + 1,
		     questions_correct = questions_correct + $3,
		     updated_at = NOW()
		 WHERE user_id = $4`,
		r.Mu, r.Sigma, correctIncrement, userID,
	)
	return err
}

func (s *Store) GetQuestionRating(questionID int64) (rating.Rating, error) {
	var r rating.Rating
	err := s.db.QueryRow(
		`SELECT mu, sigma FROM question_ratings WHERE question_id = $1`,
		questionID,
	).Scan(&r.Mu, &r.Sigma)
	if err != nil {
		return rating.Rating{}, fmt.Errorf("get question rating: %w", err)
	}
	return r, nil
}

func (s *Store) SaveQuestionRating(questionID int64, r rating.Rating) error {
	_, err := s.db.Exec(
		`UPDATE question_ratings SET mu = $1, sigma = $2, updated_at = NOW()
		 WHERE question_id = $3`,
		r.Mu, r.Sigma, questionID,
	)
	return err
}

// LogRatingUpdate appends one row to the rating audit trail.
func (s *Store) LogRatingUpdate(userID, questionID, sessionID int64, correct bool, studentBefore, studentAfter, questionBefore, questionAfter rating.Rating) error {
	_, err := s.db.Exec(
		`INSERT INTO rating_updates
		 (user_id, question_id, session_id, correct,
		  student_mu_before, student_sigma_before, student_mu_after, student_sigma_after,
		  question_mu_before, question_sigma_before, question_mu_after, question_sigma_after)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		userID, questionID, sessionID, correct,
		studentBefore.Mu, studentBefore.Sigma, studentAfter.Mu, studentAfter.Sigma,
		questionBefore.Mu, questionBefore.Sigma, questionAfter.Mu, questionAfter.Sigma,
	)
	return err
}

// ── Question Index ──────────────────────────────────────

// GetQuestionIndex loads every (question, mu) pair in a chapter's pool.
func (s *Store) GetQuestionIndex(chapterID int64) (QuestionIndex, error) {
	rows, err := s.db.Query(
		`SELECT q.id, qr.mu
		 FROM questions q
		 JOIN question_ratings qr ON qr.question_id = q.id
		 WHERE q.chapter_id = $1`,
		chapterID,
	)
	if err != nil {
		return nil, fmt.Errorf("get question index: %w", err)
	}
	defer rows.Close()

	var pairs []QuestionDifficulty
	for rows.Next() {
		var p QuestionDifficulty
		if err := rows.Scan(&p.QuestionID, &p.Mu); err != nil {
			return nil, fmt.Errorf("scan question index: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return NewQuestionIndex(pairs), nil
}

// ── Questions ───────────────────────────────────────────

func (s *Store) GetQuestion(questionID int64) (*models.Question, error) {
	var q models.Question
	err := s.db.QueryRow(
		`SELECT id, chapter_id, text, correct_option, xp_correct, xp_incorrect, created_at
		 FROM questions WHERE id = $1`,
		questionID,
	).Scan(&q.ID, &q.ChapterID, &q.Text, &q.CorrectOption, &q.XPCorrect, &q.XPIncorrect, &q.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}

	choices, err := s.getChoicesForQuestion(questionID)
	if err != nil {
		return nil, err
	}
	q.Choices = choices

	topics, err := s.getTopicsForQuestion(questionID)
	if err != nil {
		return nil, err
	}
	q.Topics = topics

	return &q, nil
}

// GetQuizQuestion loads a question stripped for serving: no correct option,
// no XP values.
func (s *Store) GetQuizQuestion(questionID int64) (*models.QuizQuestion, error) {
	q, err := s.GetQuestion(questionID)
	if err != nil {
		return nil, err
	}

	qq := &models.QuizQuestion{
		ID:   q.ID,
		Text: q.Text,
	}
	for _, c := range q.Choices {
		qq.Choices = append(qq.Choices, models.QuizChoice{OptionID: c.OptionID, Text: c.Text})
	}
	for _, t := range q.Topics {
		qq.Topics = append(qq.Topics, t.Name)
	}
	return qq, nil
}

func (s *Store) getChoicesForQuestion(questionID int64) ([]models.Choice, error) {
	rows, err := s.db.Query(
		`SELECT id, question_id, option_id, text
		 FROM answer_choices WHERE question_id = $1 ORDER BY option_id`,
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("get choices: %w", err)
	}
	defer rows.Close()

	var choices []models.Choice
	for rows.Next() {
		var c models.Choice
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.OptionID, &c.Text); err != nil {
			return nil, fmt.Errorf("scan choice: %w", err)
		}
		choices = append(choices, c)
	}
	return choices, rows.Err()
}

func (s *Store) getTopicsForQuestion(questionID int64) ([]models.Topic, error) {
	rows, err := s.db.Query(
		`SELECT t.id, t.chapter_id, t.name
		 FROM topics t
		 JOIN question_topics qt ON qt.topic_id = t.id
		 WHERE qt.question_id = $1 ORDER BY t.id`,
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("get topics: %w", err)
	}
	defer rows.Close()

	var topics []models.Topic
	for rows.Next() {
		var t models.Topic
		if err := rows.Scan(&t.ID, &t.ChapterID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// ── Sessions ────────────────────────────────────────────

func (s *Store) CreateSession(userID, levelID int64, mode models.AttemptMode, requiredXP int) (*models.LevelSession, error) {
	var sess models.LevelSession
	err := s.db.QueryRow(
		`INSERT INTO level_sessions (user_id, level_id, mode, status, current_xp, required_xp)
		 VALUES ($1, $2, $3, $4, 0, $5)
		 RETURNING id, user_id, level_id, mode, status, current_xp, required_xp, created_at`,
		userID, levelID, mode, models.SessionActive, requiredXP,
	).Scan(&sess.ID, &sess.UserID, &sess.LevelID, &sess.Mode, &sess.Status,
		&sess.CurrentXP, &sess.RequiredXP, &sess.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &sess, nil
}

func (s *Store) GetSession(sessionID int64) (*models.LevelSession, error) {
	var sess models.LevelSession
	err := s.db.QueryRow(
		`SELECT id, user_id, level_id, mode, status, current_xp, required_xp, created_at, ended_at
		 FROM level_sessions WHERE id = $1`,
		sessionID,
	).Scan(&sess.ID, &sess.UserID, &sess.LevelID, &sess.Mode, &sess.Status,
		&sess.CurrentXP, &sess.RequiredXP, &sess.CreatedAt, &sess.EndedAt)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

func (s *Store) UpdateSessionXP(sessionID int64, currentXP int) error {
	_, err := s.db.Exec(
		`UPDATE level_sessions SET current_xp = $1 WHERE id = $2`,
		currentXP, sessionID,
	)
	return err
}

func (s *Store) CloseSession(sessionID int64, status models.SessionStatus) (*models.LevelSession, error) {
	var sess models.LevelSession
	err := s.db.QueryRow(
		`UPDATE level_sessions SET status = $1, ended_at = NOW()
		 WHERE id = $2
		 RETURNING id, user_id, level_id, mode, status, current_xp, required_xp, created_at, ended_at`,
		status, sessionID,
	).Scan(&sess.ID, &sess.UserID, &sess.LevelID, &sess.Mode, &sess.Status,
		&sess.CurrentXP, &sess.RequiredXP, &sess.CreatedAt, &sess.EndedAt)
	if err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}
	return &sess, nil
}

func (s *Store) RecordSessionAnswer(sessionID, questionID int64, optionID string, correct bool, timeSpentSeconds *float64) error {
	_, err := s.db.Exec(
		`INSERT INTO session_answers (session_id, question_id, option_id, correct, time_spent_seconds)
		 VALUES ($1, $2, $3, $4, $5)`,
		sessionID, questionID, optionID, correct, timeSpentSeconds,
	)
	return err
}

// GetAnsweredQuestionIDs returns the set of questions already served and
// answered within a session.
func (s *Store) GetAnsweredQuestionIDs(sessionID int64) (map[int64]bool, error) {
	rows, err := s.db.Query(
		`SELECT question_id FROM session_answers WHERE session_id = $1`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("get answered ids: %w", err)
	}
	defer rows.Close()

	answered := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		answered[id] = true
	}
	return answered, rows.Err()
}

// ── Snapshot Queue ──────────────────────────────────────

func (s *Store) EnqueueSnapshot(sessionID, userID int64) (int64, error) {
	var id int64
	err := s.db.QueryRow(
		`INSERT INTO session_snapshots (session_id, user_id, status)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		sessionID, userID, models.SnapshotPending,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("enqueue snapshot: %w", err)
	}
	return id, nil
}

// ── Import ──────────────────────────────────────────────

// ImportQuestions inserts a batch of questions along with their choices,
// topics and initial difficulty ratings in a single transaction, so a
// question can never exist without its rating row.
func (s *Store) ImportQuestions(ctx context.Context, req models.ImportRequest) (*models.ImportResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result := &models.ImportResult{TotalInPayload: len(req.Questions)}

	for _, iq := range req.Questions {
		var exists bool
		err := tx.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM questions WHERE chapter_id = $1 AND text = $2)`,
			req.ChapterID, iq.Text,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("check existing question: %w", err)
		}
		if exists {
			result.Skipped++
			continue
		}

		xpCorrect, xpIncorrect := 10, 2
		if iq.XP != nil {
			xpCorrect = iq.XP.Correct
			xpIncorrect = iq.XP.Incorrect
		}

		var questionID int64
		err = tx.QueryRow(
			`INSERT INTO questions (chapter_id, text, correct_option, xp_correct, xp_incorrect)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			req.ChapterID, iq.Text, iq.CorrectOption, xpCorrect, xpIncorrect,
		).Scan(&questionID)
		if err != nil {
			return nil, fmt.Errorf("insert question: %w", err)
		}

		for _, c := range iq.Choices {
			_, err := tx.Exec(
				`INSERT INTO answer_choices (question_id, option_id, text)
				 VALUES ($1, $2, $3)`,
				questionID, c.OptionID, c.Text,
			)
			if err != nil {
				return nil, fmt.Errorf("insert choice: %w", err)
			}
		}

		for _, name := range iq.TopicNames {
			topicID, err := getOrCreateTopic(tx, req.ChapterID, name)
			if err != nil {
				return nil, err
			}
			_, err = tx.Exec(
				`INSERT INTO question_topics (question_id, topic_id)
				 VALUES ($1, $2)
				 ON CONFLICT DO NOTHING`,
				questionID, topicID,
			)
			if err != nil {
				return nil, fmt.Errorf("link topic: %w", err)
			}
		}

		mu := rating.DefaultQuestionMu
		if iq.DifficultyMu != nil {
			mu = *iq.DifficultyMu
		}
		_, err = tx.Exec(
			`INSERT INTO question_ratings (question_id, mu, sigma)
			 VALUES ($1, $2, $3)`,
			questionID, mu, rating.DefaultQuestionSigma,
		)
		if err != nil {
			return nil, fmt.Errorf("insert question rating: %w", err)
		}

		result.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	return result, nil
}

func getOrCreateTopic(tx *sql.Tx, chapterID int64, name string) (int64, error) {
	_, err := tx.Exec(
		`INSERT INTO topics (chapter_id, name)
		 VALUES ($1, $2)
		 ON CONFLICT (chapter_id, name) DO NOTHING`,
		chapterID, name,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert topic: %w", err)
	}

	var id int64
	err = tx.QueryRow(
		`SELECT id FROM topics WHERE chapter_id = $1 AND name = $2`,
		chapterID, name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("get topic: %w", err)
	}
	return id, nil
}
