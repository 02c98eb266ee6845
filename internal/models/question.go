package models

import "time"

type Question struct {
	ID            int64     `json:"id"`
	ChapterID     int64     `json:"chapter_id"`
	Text          string    `json:"text"`
	CorrectOption string    `json:"correct_option"`
	XPCorrect     int       `json:"xp_correct"`
	XPIncorrect   int       `json:"xp_incorrect"`
	Choices       []Choice  `json:"choices,omitempty"`
	Topics        []Topic   `json:"topics,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type Choice struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	OptionID   string `json:"option_id"`
	Text       string `json:"text"`
}

// QuizQuestion is a question as served to a player: correct answer and
// per-choice metadata stripped.
type QuizQuestion struct {
	ID      int64        `json:"id"`
	Text    string       `json:"text"`
	Choices []QuizChoice `json:"choices"`
	Topics  []string     `json:"topics"`
}

type QuizChoice struct {
	OptionID string `json:"option_id"`
	Text     string `json:"text"`
}

// ── Import ───────────────────────────────────────────────

type ImportQuestion struct {
	Text          string           `json:"text"`
	Choices       []ImportChoice   `json:"choices"`
	CorrectOption string           `json:"correct_option"`
	TopicNames    []string         `json:"topics"`
	DifficultyMu  *float64         `json:"difficulty_mu,omitempty"`
	XP            *ImportQuestionXP `json:"xp,omitempty"`
}

type ImportChoice struct {
	OptionID string `json:"option_id"`
	Text     string `json:"text"`
}

type ImportQuestionXP struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

type ImportRequest struct {
	ChapterID int64            `json:"chapter_id"`
	Questions []ImportQuestion `json:"questions"`
}

type ImportResult struct {
	TotalInPayload int `json:"total_in_payload"`
	Inserted       int `json:"inserted"`
	Skipped        int `json:"skipped"`
}
