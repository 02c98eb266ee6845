package quiz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/quizpeak/backend/internal/config"
	"github.com/quizpeak/backend/internal/models"
	"github.com/quizpeak/backend/internal/rating"
)

var (
	ErrSessionClosed   = errors.New("session is not active")
	ErrNotSessionOwner = errors.New("session belongs to another user")
)

// lockTable hands out one mutex per entity key, so concurrent answers
// touching the same student or question serialize while unrelated ones
// proceed in parallel.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

func (t *lockTable) get(key string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	if l, ok := t.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	t.locks[key] = l
	return l
}

type Service struct {
	store *Store
	cfg   *config.Config
	locks *lockTable

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewService(store *Store, cfg *config.Config) *Service {
	return &Service{
		store: store,
		cfg:   cfg,
		locks: newLockTable(),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRandSource replaces the random source, used by tests for determinism.
func (s *Service) SetRandSource(src rand.Source) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	s.rng = rand.New(src)
}

// ── Session Flow ────────────────────────────────────────

func (s *Service) StartSession(userID int64, req models.StartSessionRequest) (*models.StartSessionResponse, error) {
	if !models.ValidAttemptMode(req.Mode) {
		return nil, fmt.Errorf("invalid mode %q", req.Mode)
	}

	level, err := s.store.GetLevel(req.LevelID)
	if err != nil {
		return nil, err
	}

	sess, err := s.store.CreateSession(userID, level.ID, req.Mode, level.RequiredXP)
	if err != nil {
		return nil, err
	}

	resp := &models.StartSessionResponse{Session: *sess}

	// Serve the first question immediately. A missing pool is not fatal at
	// session start; the client can retry via the next-question endpoint.
	next, err := s.nextForSession(sess, level)
	if err != nil {
		if !errors.Is(err, ErrNoQuestionAvailable) {
			return nil, err
		}
		log.Printf("WARN: no question available for new session %d (level %d)", sess.ID, level.ID)
	} else {
		resp.Question = &next.Question
	}

	return resp, nil
}

func (s *Service) NextQuestion(userID, sessionID int64) (*models.NextQuestionResponse, error) {
	sess, err := s.sessionForUser(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.SessionActive {
		return nil, ErrSessionClosed
	}

	level, err := s.store.GetLevel(sess.LevelID)
	if err != nil {
		return nil, err
	}
	return s.nextForSession(sess, level)
}

func (s *Service) nextForSession(sess *models.LevelSession, level *models.Level) (*models.NextQuestionResponse, error) {
	chapterID, err := s.store.GetChapterIDForLevel(level.ID)
	if err != nil {
		return nil, err
	}
	idx, err := s.store.GetQuestionIndex(chapterID)
	if err != nil {
		return nil, err
	}

	answered, err := s.store.GetAnsweredQuestionIDs(sess.ID)
	if err != nil {
		return nil, err
	}
	idx = idx.Exclude(answered)

	s.rngMu.Lock()
	questionID, target, err := SelectNextQuestion(s.rng, level.Difficulty, idx)
	s.rngMu.Unlock()
	if err != nil {
		return nil, err
	}

	question, err := s.store.GetQuizQuestion(questionID)
	if err != nil {
		return nil, err
	}

	return &models.NextQuestionResponse{
		Question:         *question,
		TargetDifficulty: target,
	}, nil
}

func (s *Service) SubmitAnswer(userID, sessionID int64, req models.SubmitAnswerRequest) (*models.SubmitAnswerResponse, error) {
	sess, err := s.sessionForUser(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.SessionActive {
		return nil, ErrSessionClosed
	}

	question, err := s.store.GetQuestion(req.QuestionID)
	if err != nil {
		return nil, err
	}
	correct := req.OptionID == question.CorrectOption

	newSkill, newQuestionRating, err := s.applyRatingUpdate(userID, question.ID, sessionID, correct)
	if err != nil {
		return nil, err
	}

	xpEarned := question.XPIncorrect
	if correct {
		xpEarned = question.XPCorrect
	}
	currentXP := sess.CurrentXP + xpEarned

	if err := s.store.UpdateSessionXP(sessionID, currentXP); err != nil {
		return nil, fmt.Errorf("update session xp: %w", err)
	}

	if err := s.store.RecordSessionAnswer(sessionID, question.ID, req.OptionID, correct, req.TimeSpentSeconds); err != nil {
		log.Printf("WARN: failed to record session answer: %v", err)
	}

	levelCompleted := currentXP >= sess.RequiredXP
	if levelCompleted {
		if _, err := s.store.CloseSession(sessionID, models.SessionCompleted); err != nil {
			log.Printf("WARN: failed to mark session %d completed: %v", sessionID, err)
		}
		if _, err := s.store.EnqueueSnapshot(sessionID, userID); err != nil {
			log.Printf("WARN: failed to enqueue snapshot for session %d: %v", sessionID, err)
		}
	}

	return &models.SubmitAnswerResponse{
		Correct:        correct,
		CorrectOption:  question.CorrectOption,
		XPEarned:       xpEarned,
		CurrentXP:      currentXP,
		RequiredXP:     sess.RequiredXP,
		LevelCompleted: levelCompleted,
		StudentRating:  models.RatingSnapshot{Mu: newSkill.Mu, Sigma: newSkill.Sigma},
		QuestionRating: models.RatingSnapshot{Mu: newQuestionRating.Mu, Sigma: newQuestionRating.Sigma},
	}, nil
}

// applyRatingUpdate runs the two-player update with both entities locked.
// Lock order is always user first, then question, so concurrent submissions
// cannot deadlock.
func (s *Service) applyRatingUpdate(userID, questionID, sessionID int64, correct bool) (rating.Rating, rating.Rating, error) {
	userLock := s.locks.get(fmt.Sprintf("user:%d", userID))
	questionLock := s.locks.get(fmt.Sprintf("question:%d", questionID))

	userLock.Lock()
	defer userLock.Unlock()
	questionLock.Lock()
	defer questionLock.Unlock()

	skill, err := s.store.GetOrCreateUserSkill(userID)
	if err != nil {
		return rating.Rating{}, rating.Rating{}, err
	}
	questionRating, err := s.store.GetQuestionRating(questionID)
	if err != nil {
		return rating.Rating{}, rating.Rating{}, err
	}

	newSkill, newQuestionRating, err := rating.UpdateRatings(skill, questionRating, correct, s.cfg.Beta, s.cfg.SigmaFloor)
	if err != nil {
		return rating.Rating{}, rating.Rating{}, fmt.Errorf("update ratings: %w", err)
	}

	if err := s.store.SaveUserSkill(userID, newSkill, correct); err != nil {
		return rating.Rating{}, rating.Rating{}, fmt.Errorf("save user skill: %w", err)
	}
	if err := s.store.SaveQuestionRating(questionID, newQuestionRating); err != nil {
		return rating.Rating{}, rating.Rating{}, fmt.Errorf("save question rating: %w", err)
	}

	if err := s.store.LogRatingUpdate(userID, questionID, sessionID, correct,
		skill, newSkill, questionRating, newQuestionRating); err != nil {
		log.Printf("WARN: failed to log rating update: %v", err)
	}

	return newSkill, newQuestionRating, nil
}

func (s *Service) EndSession(userID, sessionID int64) (*models.EndSessionResponse, error) {
	sess, err := s.sessionForUser(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.SessionActive {
		return nil, ErrSessionClosed
	}

	closed, err := s.store.CloseSession(sessionID, models.SessionEnded)
	if err != nil {
		return nil, err
	}

	snapshotID, err := s.store.EnqueueSnapshot(sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("enqueue snapshot: %w", err)
	}

	return &models.EndSessionResponse{
		Session:    *closed,
		SnapshotID: snapshotID,
	}, nil
}

func (s *Service) sessionForUser(userID, sessionID int64) (*models.LevelSession, error) {
	sess, err := s.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, ErrNotSessionOwner
	}
	return sess, nil
}

// ── Adaptive Serving ────────────────────────────────────

// AdaptiveNext picks the question whose difficulty gives the student a
// drawn target win probability, against the given level's pool.
func (s *Service) AdaptiveNext(userID, levelID int64) (*models.AdaptiveQuestionResponse, error) {
	skill, err := s.store.GetOrCreateUserSkill(userID)
	if err != nil {
		return nil, err
	}

	s.rngMu.Lock()
	targetWinProb := TargetWinProbability(s.rng)
	s.rngMu.Unlock()

	targetMu, err := rating.QuestionMeanForWinProbability(
		skill.Mu, skill.Sigma, targetWinProb, s.cfg.QuestionSigma, s.cfg.Beta)
	if err != nil {
		return nil, fmt.Errorf("solve target difficulty: %w", err)
	}

	chapterID, err := s.store.GetChapterIDForLevel(levelID)
	if err != nil {
		return nil, err
	}
	idx, err := s.store.GetQuestionIndex(chapterID)
	if err != nil {
		return nil, err
	}
	pick, err := idx.Resolve(targetMu)
	if err != nil {
		return nil, err
	}

	question, err := s.store.GetQuizQuestion(pick.QuestionID)
	if err != nil {
		return nil, err
	}

	return &models.AdaptiveQuestionResponse{
		Question:      *question,
		StudentRating: models.RatingSnapshot{Mu: skill.Mu, Sigma: skill.Sigma},
		TargetWinProb: targetWinProb,
		TargetMu:      targetMu,
	}, nil
}

// ── Import ──────────────────────────────────────────────

func (s *Service) ImportQuestions(ctx context.Context, req models.ImportRequest) (*models.ImportResult, error) {
	if req.ChapterID == 0 {
		return nil, fmt.Errorf("chapter_id is required")
	}
	for i, q := range req.Questions {
		if err := validateImportQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return s.store.ImportQuestions(ctx, req)
}

func validateImportQuestion(q models.ImportQuestion) error {
	if q.Text == "" {
		return fmt.Errorf("empty text")
	}
	if len(q.Choices) < 2 {
		return fmt.Errorf("expected at least 2 choices, got %d", len(q.Choices))
	}
	found := false
	for _, c := range q.Choices {
		if c.OptionID == "" {
			return fmt.Errorf("choice with empty option_id")
		}
		if c.OptionID == q.CorrectOption {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("correct_option %q not among choices", q.CorrectOption)
	}
	return nil
}
