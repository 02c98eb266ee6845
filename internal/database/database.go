package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/quizpeak/backend/internal/config"
)

func Connect(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func Migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id         BIGSERIAL PRIMARY KEY,
		email      VARCHAR(255) UNIQUE NOT NULL,
		name       VARCHAR(255) NOT NULL,
		password   VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS subjects (
		id         BIGSERIAL PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS chapters (
		id         BIGSERIAL PRIMARY KEY,
		subject_id BIGINT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
		name       VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS units (
		id         BIGSERIAL PRIMARY KEY,
		chapter_id BIGINT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
		name       VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS levels (
		id               BIGSERIAL PRIMARY KEY,
		unit_id          BIGINT NOT NULL REFERENCES units(id) ON DELETE CASCADE,
		name             VARCHAR(255) NOT NULL,
		level_number     INT NOT NULL DEFAULT 1,
		required_xp      INT NOT NULL DEFAULT 100,
		total_time       INT NOT NULL DEFAULT 300,
		difficulty_mean  DOUBLE PRECISION NOT NULL DEFAULT 936,
		difficulty_sd    DOUBLE PRECISION NOT NULL DEFAULT 150,
		difficulty_alpha DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at       TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_levels_unit ON levels(unit_id, level_number);

	CREATE TABLE IF NOT EXISTS topics (
		id         BIGSERIAL PRIMARY KEY,
		chapter_id BIGINT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
		name       VARCHAR(255) NOT NULL,
		UNIQUE(chapter_id, name)
	);

	CREATE TABLE IF NOT EXISTS questions (
		id             BIGSERIAL PRIMARY KEY,
		chapter_id     BIGINT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
		text           TEXT NOT NULL,
		correct_option VARCHAR(10) NOT NULL,
		xp_correct     INT NOT NULL DEFAULT 10,
		xp_incorrect   INT NOT NULL DEFAULT 2,
		created_at     TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_questions_chapter ON questions(chapter_id);

	CREATE TABLE IF NOT EXISTS answer_choices (
		id          BIGSERIAL PRIMARY KEY,
		question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
		option_id   VARCHAR(10) NOT NULL,
		text        TEXT NOT NULL,
		UNIQUE(question_id, option_id)
	);

	CREATE INDEX IF NOT EXISTS idx_choices_question ON answer_choices(question_id);

	CREATE TABLE IF NOT EXISTS question_topics (
		question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
		topic_id    BIGINT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		PRIMARY KEY (question_id, topic_id)
	);

	CREATE INDEX IF NOT EXISTS idx_question_topics_topic ON question_topics(topic_id);

	CREATE TABLE IF NOT EXISTS question_ratings (
		question_id BIGINT PRIMARY KEY REFERENCES questions(id) ON DELETE CASCADE,
		mu          DOUBLE PRECISION NOT NULL,
		sigma       DOUBLE PRECISION NOT NULL,
		updated_at  TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_question_ratings_mu ON question_ratings(mu);

	CREATE TABLE IF NOT EXISTS user_skills (
		user_id            BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		mu                 DOUBLE PRECISION NOT NULL,
		sigma              DOUBLE PRECISION NOT NULL,
		questions_answered INT NOT NULL DEFAULT 0,
		questions_correct  INT NOT NULL DEFAULT 0,
		updated_at         TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS level_sessions (
		id          BIGSERIAL PRIMARY KEY,
		user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		level_id    BIGINT NOT NULL REFERENCES levels(id) ON DELETE CASCADE,
		mode        VARCHAR(20) NOT NULL,
		status      VARCHAR(20) NOT NULL DEFAULT 'active',
		current_xp  INT NOT NULL DEFAULT 0,
		required_xp INT NOT NULL DEFAULT 100,
		created_at  TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		ended_at    TIMESTAMP WITH TIME ZONE
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user ON level_sessions(user_id, status);

	CREATE TABLE IF NOT EXISTS session_answers (
		id                 BIGSERIAL PRIMARY KEY,
		session_id         BIGINT NOT NULL REFERENCES level_sessions(id) ON DELETE CASCADE,
		question_id        BIGINT NOT NULL,
		option_id          VARCHAR(10) NOT NULL,
		correct            BOOLEAN NOT NULL,
		time_spent_seconds REAL,
		answered_at        TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_session_answers_session ON session_answers(session_id);

	CREATE TABLE IF NOT EXISTS rating_updates (
		id                    BIGSERIAL PRIMARY KEY,
		user_id               BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		question_id           BIGINT NOT NULL,
		session_id            BIGINT NOT NULL,
		correct               BOOLEAN NOT NULL,
		student_mu_before     DOUBLE PRECISION NOT NULL,
		student_sigma_before  DOUBLE PRECISION NOT NULL,
		student_mu_after      DOUBLE PRECISION NOT NULL,
		student_sigma_after   DOUBLE PRECISION NOT NULL,
		question_mu_before    DOUBLE PRECISION NOT NULL,
		question_sigma_before DOUBLE PRECISION NOT NULL,
		question_mu_after     DOUBLE PRECISION NOT NULL,
		question_sigma_after  DOUBLE PRECISION NOT NULL,
		created_at            TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_rating_updates_user ON rating_updates(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_rating_updates_question ON rating_updates(question_id, created_at);

	CREATE TABLE IF NOT EXISTS session_snapshots (
		id            BIGSERIAL PRIMARY KEY,
		session_id    BIGINT NOT NULL REFERENCES level_sessions(id) ON DELETE CASCADE,
		user_id       BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status        INT NOT NULL DEFAULT 0,
		error_message TEXT,
		created_at    TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		processed_at  TIMESTAMP WITH TIME ZONE
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_status ON session_snapshots(status, created_at);

	CREATE TABLE IF NOT EXISTS user_topic_performance (
		user_id    BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		state      JSONB NOT NULL DEFAULT '{}',
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);
	`

	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
