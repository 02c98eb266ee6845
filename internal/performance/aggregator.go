package performance

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// AttemptSample is one graded attempt folded into a topic's sliding window.
// Value is 1 for a correct answer, 0 otherwise.
type AttemptSample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     int       `json:"value"`
}

// AccuracyPoint is one append-only accuracy history entry.
type AccuracyPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Accuracy  float64   `json:"accuracy"`
}

// TopicPerformance tracks one (user, topic) pair: a bounded sliding window
// of recent attempts and a growing accuracy history.
type TopicPerformance struct {
	TopicID         int64           `json:"topic_id"`
	AttemptsWindow  []AttemptSample `json:"attempts_window"`
	AccuracyHistory []AccuracyPoint `json:"accuracy_history"`
}

// UserTopicState is the per-user aggregate owning all topic entries.
type UserTopicState struct {
	UserID int64              `json:"user_id"`
	Topics []TopicPerformance `json:"topics"`
}

// AnsweredQuestion is one entry of a session's accumulated answer history.
// A nil CorrectOption marks an ungradeable entry, which is skipped.
type AnsweredQuestion struct {
	QuestionID    int64
	CorrectOption *string
	UserChoice    string
	TopicIDs      []int64
}

type TopicAccuracyUpdate struct {
	TopicID          int64    `json:"topic_id"`
	PreviousAccuracy *float64 `json:"previous_accuracy"`
	UpdatedAccuracy  float64  `json:"updated_accuracy"`
}

type BatchResult struct {
	TopicsTouched    int                   `json:"topics_touched"`
	SkippedQuestions int                   `json:"skipped_questions"`
	AttemptsAdded    int                   `json:"attempts_added"`
	Updates          []TopicAccuracyUpdate `json:"updates"`
}

// ProcessAnswerBatch folds a batch of answered questions into the user's
// per-topic sliding windows and appends one weighted-moving-average
// accuracy point per touched topic. Entries without a correct option are
// skipped and counted, never fatal. A topic referenced by several entries
// in the same batch still gets exactly one accuracy append.
//
// The state is mutated in place; the caller persists it afterwards.
func ProcessAnswerBatch(state *UserTopicState, entries []AnsweredQuestion, windowSize int, weight float64, now time.Time) (*BatchResult, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowSize)
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		return nil, fmt.Errorf("accuracy weight must be a positive finite number, got %v", weight)
	}

	result := &BatchResult{}
	touched := make(map[int64]bool)

	for _, entry := range entries {
		if entry.CorrectOption == nil {
			result.SkippedQuestions++
			continue
		}
		value := 0
		if entry.UserChoice == *entry.CorrectOption {
			value = 1
		}
		for _, topicID := range entry.TopicIDs {
			if topicID == 0 {
				continue
			}
			tp := state.ensureTopic(topicID)
			tp.AttemptsWindow = append(tp.AttemptsWindow, AttemptSample{Timestamp: now, Value: value})
			if len(tp.AttemptsWindow) > windowSize {
				tp.AttemptsWindow = tp.AttemptsWindow[len(tp.AttemptsWindow)-windowSize:]
			}
			touched[topicID] = true
			result.AttemptsAdded++
		}
	}

	for i := range state.Topics {
		tp := &state.Topics[i]
		if !touched[tp.TopicID] {
			continue
		}
		var prev *float64
		if n := len(tp.AccuracyHistory); n > 0 {
			p := tp.AccuracyHistory[n-1].Accuracy
			prev = &p
		}
		accuracy := WeightedMovingAverage(tp.AttemptsWindow, weight)
		tp.AccuracyHistory = append(tp.AccuracyHistory, AccuracyPoint{Timestamp: now, Accuracy: accuracy})
		result.Updates = append(result.Updates, TopicAccuracyUpdate{
			TopicID:          tp.TopicID,
			PreviousAccuracy: prev,
			UpdatedAccuracy:  accuracy,
		})
	}
	result.TopicsTouched = len(touched)

	return result, nil
}

// WeightedMovingAverage computes the window's accuracy with per-sample
// weight^index, index 0 being the oldest sample. Weights above 1 therefore
// favor recent samples; the shipped default is 1.2.
func WeightedMovingAverage(samples []AttemptSample, weight float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]AttemptSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var numerator, denominator float64
	for idx, sample := range sorted {
		w := math.Pow(weight, float64(idx))
		numerator += float64(sample.Value) * w
		denominator += w
	}
	if denominator <= 0 {
		return 0
	}
	return numerator / denominator
}

// ensureTopic returns the entry for topicID, creating it lazily.
func (s *UserTopicState) ensureTopic(topicID int64) *TopicPerformance {
	for i := range s.Topics {
		if s.Topics[i].TopicID == topicID {
			return &s.Topics[i]
		}
	}
	s.Topics = append(s.Topics, TopicPerformance{TopicID: topicID})
	return &s.Topics[len(s.Topics)-1]
}
