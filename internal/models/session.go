package models

import "time"

type AttemptMode string

const (
	ModeTimeRush      AttemptMode = "time_rush"
	ModePrecisionPath AttemptMode = "precision_path"
)

func ValidAttemptMode(m AttemptMode) bool {
	return m == ModeTimeRush || m == ModePrecisionPath
}

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionEnded     SessionStatus = "ended"
)

type LevelSession struct {
	ID         int64         `json:"id"`
	UserID     int64         `json:"user_id"`
	LevelID    int64         `json:"level_id"`
	Mode       AttemptMode   `json:"mode"`
	Status     SessionStatus `json:"status"`
	CurrentXP  int           `json:"current_xp"`
	RequiredXP int           `json:"required_xp"`
	CreatedAt  time.Time     `json:"created_at"`
	EndedAt    *time.Time    `json:"ended_at,omitempty"`
}

// SessionAnswer is one graded answer within a session, accumulated for the
// end-of-session topic accuracy batch.
type SessionAnswer struct {
	ID               int64     `json:"id"`
	SessionID        int64     `json:"session_id"`
	QuestionID       int64     `json:"question_id"`
	OptionID         string    `json:"option_id"`
	CorrectOption    *string   `json:"correct_option,omitempty"`
	Correct          bool      `json:"correct"`
	TopicIDs         []int64   `json:"topic_ids"`
	TimeSpentSeconds *float64  `json:"time_spent_seconds,omitempty"`
	AnsweredAt       time.Time `json:"answered_at"`
}

// ── API Request/Response Types ────────────────────────────

type StartSessionRequest struct {
	LevelID int64       `json:"level_id"`
	Mode    AttemptMode `json:"mode"`
}

type StartSessionResponse struct {
	Session  LevelSession  `json:"session"`
	Question *QuizQuestion `json:"question,omitempty"`
}

type SubmitAnswerRequest struct {
	QuestionID       int64    `json:"question_id"`
	OptionID         string   `json:"option_id"`
	TimeSpentSeconds *float64 `json:"time_spent_seconds,omitempty"`
}

type RatingSnapshot struct {
	Mu    float64 `json:"mu"`
	Sigma float64 `json:"sigma"`
}

type SubmitAnswerResponse struct {
	Correct        bool           `json:"correct"`
	CorrectOption  string         `json:"correct_option"`
	XPEarned       int            `json:"xp_earned"`
	CurrentXP      int            `json:"current_xp"`
	RequiredXP     int            `json:"required_xp"`
	LevelCompleted bool           `json:"level_completed"`
	StudentRating  RatingSnapshot `json:"student_rating"`
	QuestionRating RatingSnapshot `json:"question_rating"`
}

type NextQuestionResponse struct {
	Question         QuizQuestion `json:"question"`
	TargetDifficulty float64      `json:"target_difficulty"`
}

type AdaptiveQuestionResponse struct {
	Question      QuizQuestion   `json:"question"`
	StudentRating RatingSnapshot `json:"student_rating"`
	TargetWinProb float64        `json:"target_win_prob"`
	TargetMu      float64        `json:"target_mu"`
}

type EndSessionResponse struct {
	Session    LevelSession `json:"session"`
	SnapshotID int64        `json:"snapshot_id"`
}

// SessionSnapshot is a queued unit of end-of-session aggregation work.
// Status: 0 pending, 1 processing, 2 done, -1 failed.
type SessionSnapshot struct {
	ID          int64      `json:"id"`
	SessionID   int64      `json:"session_id"`
	UserID      int64      `json:"user_id"`
	Status      int        `json:"status"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

const (
	SnapshotPending    = 0
	SnapshotProcessing = 1
	SnapshotDone       = 2
	SnapshotFailed     = -1
)
