package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/quizpeak/backend/internal/config"
)

// SessionSummary is the per-session digest the feedback prompt is built
// from.
type SessionSummary struct {
	SessionID int64
	LevelName string
	Mode      string
	Total     int
	Correct   int
	Topics    []TopicLine
}

type TopicLine struct {
	Name    string
	Total   int
	Correct int
}

type FeedbackResponse struct {
	SessionID int64  `json:"session_id"`
	Feedback  string `json:"feedback"`
	Model     string `json:"model"`
}

type Service struct {
	db    *sql.DB
	llm   LLMClient
	model string
}

func NewService(db *sql.DB, cfg *config.Config) *Service {
	llm, model := NewClient(cfg.MockFeedback, cfg.AnthropicModel)
	return &Service{db: db, llm: llm, model: model}
}

func (s *Service) GenerateSessionFeedback(ctx context.Context, userID, sessionID int64) (*FeedbackResponse, error) {
	summary, err := s.loadSessionSummary(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if summary.Total == 0 {
		return &FeedbackResponse{
			SessionID: sessionID,
			Feedback:  "No answers recorded in this session yet.",
			Model:     s.model,
		}, nil
	}

	resp, err := s.llm.Generate(ctx, feedbackSystemPrompt, buildFeedbackPrompt(summary))
	if err != nil {
		return nil, fmt.Errorf("generate feedback: %w", err)
	}

	return &FeedbackResponse{
		SessionID: sessionID,
		Feedback:  strings.TrimSpace(resp.Content),
		Model:     s.model,
	}, nil
}

func (s *Service) loadSessionSummary(userID, sessionID int64) (*SessionSummary, error) {
	summary := &SessionSummary{SessionID: sessionID}

	err := s.db.QueryRow(
		`SELECT l.name, ls.mode,
		        COUNT(sa.id), COUNT(sa.id) FILTER (WHERE sa.correct)
		 FROM level_sessions ls
		 JOIN levels l ON l.id = ls.level_id
		 LEFT JOIN session_answers sa ON sa.session_id = ls.id
		 WHERE ls.id = $1 AND ls.user_id = $2
		 GROUP BY l.name, ls.mode`,
		sessionID, userID,
	).Scan(&summary.LevelName, &summary.Mode, &summary.Total, &summary.Correct)
	if err != nil {
		return nil, fmt.Errorf("load session summary: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT t.name, COUNT(sa.id), COUNT(sa.id) FILTER (WHERE sa.correct)
		 FROM session_answers sa
		 JOIN question_topics qt ON qt.question_id = sa.question_id
		 JOIN topics t ON t.id = qt.topic_id
		 WHERE sa.session_id = $1
		 GROUP BY t.name
		 ORDER BY t.name`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load topic breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line TopicLine
		if err := rows.Scan(&line.Name, &line.Total, &line.Correct); err != nil {
			return nil, fmt.Errorf("scan topic line: %w", err)
		}
		summary.Topics = append(summary.Topics, line)
	}
	return summary, rows.Err()
}

const feedbackSystemPrompt = `You are a study coach for an adaptive quiz platform.
Given a student's session results, write 2-4 sentences of encouraging,
concrete feedback. Name the weakest topic and suggest what to practice
next. Do not use bullet points or headings.`

func buildFeedbackPrompt(summary *SessionSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session on level %q (mode: %s): %d questions answered, %d correct.\n",
		summary.LevelName, summary.Mode, summary.Total, summary.Correct)
	if len(summary.Topics) > 0 {
		b.WriteString("Per-topic results:\n")
		for _, t := range summary.Topics {
			fmt.Fprintf(&b, "- %s: %d/%d correct\n", t.Name, t.Correct, t.Total)
		}
	}
	return b.String()
}
