package performance

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/quizpeak/backend/internal/config"
	"github.com/quizpeak/backend/internal/models"
)

type Service struct {
	store *Store
	cfg   *config.Config
}

func NewService(store *Store, cfg *config.Config) *Service {
	return &Service{store: store, cfg: cfg}
}

// ── Snapshot Worker ─────────────────────────────────────

// StartSnapshotWorker drains the session snapshot queue on a fixed
// interval until the context is cancelled.
func (s *Service) StartSnapshotWorker(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SnapshotInterval)
	defer ticker.Stop()

	log.Println("[snapshot-worker] Background aggregation worker started")

	for {
		select {
		case <-ctx.Done():
			log.Println("[snapshot-worker] Shutting down")
			return
		case <-ticker.C:
			s.drainSnapshotQueue(ctx)
		}
	}
}

func (s *Service) drainSnapshotQueue(ctx context.Context) {
	for {
		snap, err := s.store.ClaimPendingSnapshot(ctx)
		if err != nil {
			log.Printf("[snapshot-worker] claim error: %v", err)
			return
		}
		if snap == nil {
			return
		}
		s.processSnapshot(snap)
	}
}

func (s *Service) processSnapshot(snap *models.SessionSnapshot) {
	result, err := s.aggregateSession(snap.UserID, snap.SessionID)
	if err != nil {
		log.Printf("[snapshot-worker] snapshot %d failed: %v", snap.ID, err)
		if markErr := s.store.MarkSnapshotFailed(snap.ID, err.Error()); markErr != nil {
			log.Printf("WARN: failed to mark snapshot %d failed: %v", snap.ID, markErr)
		}
		return
	}

	if err := s.store.MarkSnapshotDone(snap.ID); err != nil {
		log.Printf("WARN: failed to mark snapshot %d done: %v", snap.ID, err)
		return
	}
	log.Printf("[snapshot-worker] snapshot %d done: topics=%d attempts=%d skipped=%d",
		snap.ID, result.TopicsTouched, result.AttemptsAdded, result.SkippedQuestions)
}

// aggregateSession folds one session's answer history into the user's
// per-topic sliding windows.
func (s *Service) aggregateSession(userID, sessionID int64) (*BatchResult, error) {
	entries, err := s.store.GetSessionAnswerHistory(sessionID)
	if err != nil {
		return nil, err
	}

	state, err := s.store.LoadUserTopicState(userID)
	if err != nil {
		return nil, err
	}

	result, err := ProcessAnswerBatch(state, entries, s.cfg.AttemptWindowSize, s.cfg.AccuracyWeight, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("process answer batch: %w", err)
	}

	if err := s.store.SaveUserTopicState(state); err != nil {
		return nil, err
	}
	return result, nil
}

// ── Read API ────────────────────────────────────────────

type TopicAccuracySummary struct {
	TopicID   int64    `json:"topic_id"`
	TopicName string   `json:"topic_name"`
	Accuracy  *float64 `json:"accuracy"`
	Attempts  int      `json:"attempts"`
}

type TopicHistoryResponse struct {
	TopicID   int64           `json:"topic_id"`
	TopicName string          `json:"topic_name"`
	History   []AccuracyPoint `json:"history"`
}

func (s *Service) GetTopicAccuracies(userID int64) ([]TopicAccuracySummary, error) {
	state, err := s.store.LoadUserTopicState(userID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(state.Topics))
	for _, tp := range state.Topics {
		ids = append(ids, tp.TopicID)
	}
	names, err := s.store.GetTopicNames(ids)
	if err != nil {
		log.Printf("WARN: failed to resolve topic names: %v", err)
		names = map[int64]string{}
	}

	summaries := make([]TopicAccuracySummary, 0, len(state.Topics))
	for _, tp := range state.Topics {
		summary := TopicAccuracySummary{
			TopicID:   tp.TopicID,
			TopicName: names[tp.TopicID],
			Attempts:  len(tp.AttemptsWindow),
		}
		if n := len(tp.AccuracyHistory); n > 0 {
			a := tp.AccuracyHistory[n-1].Accuracy
			summary.Accuracy = &a
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *Service) GetTopicHistory(userID, topicID int64) (*TopicHistoryResponse, error) {
	state, err := s.store.LoadUserTopicState(userID)
	if err != nil {
		return nil, err
	}

	names, err := s.store.GetTopicNames([]int64{topicID})
	if err != nil {
		log.Printf("WARN: failed to resolve topic name: %v", err)
		names = map[int64]string{}
	}

	resp := &TopicHistoryResponse{
		TopicID:   topicID,
		TopicName: names[topicID],
		History:   []AccuracyPoint{},
	}
	for _, tp := range state.Topics {
		if tp.TopicID == topicID {
			resp.History = tp.AccuracyHistory
			break
		}
	}
	return resp, nil
}
