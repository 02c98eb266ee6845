package performance

import (
	"math"
	"testing"
	"time"
)

func strptr(s string) *string { return &s }

func attempt(secondsAgo int, value int) AttemptSample {
	return AttemptSample{
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Add(-time.Duration(secondsAgo) * time.Second),
		Value:     value,
	}
}

func TestWeightedMovingAverageRecentBias(t *testing.T) {
	// Oldest-to-newest: 0, 0, 1. With weight 1.2 the newest sample carries
	// the most weight, so accuracy must exceed the plain mean.
	window := []AttemptSample{attempt(30, 0), attempt(20, 0), attempt(10, 1)}

	got := WeightedMovingAverage(window, 1.2)
	want := 1.44 / (1 + 1.2 + 1.44)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("WeightedMovingAverage(weight=1.2) = %f, want %f", got, want)
	}
	if got <= 1.0/3.0 {
		t.Errorf("weight 1.2 should bias toward the recent correct answer, got %f", got)
	}

	// Weight below 1 inverts the convention: oldest samples dominate.
	got = WeightedMovingAverage(window, 0.8)
	if got >= 1.0/3.0 {
		t.Errorf("weight 0.8 should bias toward the older incorrect answers, got %f", got)
	}
}

func TestWeightedMovingAverageSortsByTimestamp(t *testing.T) {
	// Same samples, shuffled order. The index weighting must follow
	// timestamps, not slice position.
	ordered := []AttemptSample{attempt(30, 0), attempt(20, 1), attempt(10, 1)}
	shuffled := []AttemptSample{ordered[2], ordered[0], ordered[1]}

	a := WeightedMovingAverage(ordered, 1.2)
	b := WeightedMovingAverage(shuffled, 1.2)
	if math.Abs(a-b) > 1e-12 {
		t.Errorf("order-dependent WMA: %f vs %f", a, b)
	}
}

func TestWeightedMovingAverageEmpty(t *testing.T) {
	if got := WeightedMovingAverage(nil, 1.2); got != 0 {
		t.Errorf("WeightedMovingAverage(nil) = %f, want 0", got)
	}
}

func TestProcessAnswerBatchWindowBound(t *testing.T) {
	state := &UserTopicState{UserID: 1}
	var entries []AnsweredQuestion
	for i := 0; i < 50; i++ {
		entries = append(entries, AnsweredQuestion{
			QuestionID:    int64(i + 1),
			CorrectOption: strptr("A"),
			UserChoice:    "A",
			TopicIDs:      []int64{7},
		})
	}

	result, err := ProcessAnswerBatch(state, entries, 10, 1.2, time.Now())
	if err != nil {
		t.Fatalf("ProcessAnswerBatch returned error: %v", err)
	}
	if result.AttemptsAdded != 50 {
		t.Errorf("AttemptsAdded = %d, want 50", result.AttemptsAdded)
	}
	if len(state.Topics) != 1 {
		t.Fatalf("expected 1 topic entry, got %d", len(state.Topics))
	}
	if got := len(state.Topics[0].AttemptsWindow); got != 10 {
		t.Errorf("attempts window length = %d, want 10", got)
	}
}

func TestProcessAnswerBatchSkipsUngradeable(t *testing.T) {
	state := &UserTopicState{UserID: 1}
	entries := []AnsweredQuestion{
		{QuestionID: 1, CorrectOption: nil, UserChoice: "A", TopicIDs: []int64{3}},
		{QuestionID: 2, CorrectOption: strptr("B"), UserChoice: "B", TopicIDs: []int64{3}},
		{QuestionID: 3, CorrectOption: nil, UserChoice: "C", TopicIDs: []int64{4}},
	}

	result, err := ProcessAnswerBatch(state, entries, 10, 1.2, time.Now())
	if err != nil {
		t.Fatalf("ProcessAnswerBatch returned error: %v", err)
	}
	if result.SkippedQuestions != 2 {
		t.Errorf("SkippedQuestions = %d, want 2", result.SkippedQuestions)
	}
	if result.TopicsTouched != 1 {
		t.Errorf("TopicsTouched = %d, want 1", result.TopicsTouched)
	}
	if len(state.Topics) != 1 || state.Topics[0].TopicID != 3 {
		t.Fatalf("skipped entries must not create topic state: %+v", state.Topics)
	}
}

func TestProcessAnswerBatchSingleUpdatePerTopic(t *testing.T) {
	state := &UserTopicState{UserID: 1}
	entries := []AnsweredQuestion{
		{QuestionID: 1, CorrectOption: strptr("A"), UserChoice: "A", TopicIDs: []int64{5, 6}},
		{QuestionID: 2, CorrectOption: strptr("A"), UserChoice: "B", TopicIDs: []int64{5}},
		{QuestionID: 3, CorrectOption: strptr("C"), UserChoice: "C", TopicIDs: []int64{5}},
	}

	result, err := ProcessAnswerBatch(state, entries, 10, 1.2, time.Now())
	if err != nil {
		t.Fatalf("ProcessAnswerBatch returned error: %v", err)
	}
	if result.TopicsTouched != 2 {
		t.Errorf("TopicsTouched = %d, want 2", result.TopicsTouched)
	}
	for _, tp := range state.Topics {
		if got := len(tp.AccuracyHistory); got != 1 {
			t.Errorf("topic %d accuracy history length = %d, want exactly 1 append per batch", tp.TopicID, got)
		}
	}
	if got := len(state.Topics[0].AttemptsWindow); got != 3 {
		t.Errorf("topic 5 window length = %d, want 3", got)
	}
}

func TestProcessAnswerBatchPreviousAccuracy(t *testing.T) {
	state := &UserTopicState{UserID: 1}
	first := []AnsweredQuestion{
		{QuestionID: 1, CorrectOption: strptr("A"), UserChoice: "A", TopicIDs: []int64{9}},
	}
	second := []AnsweredQuestion{
		{QuestionID: 2, CorrectOption: strptr("A"), UserChoice: "B", TopicIDs: []int64{9}},
	}

	r1, err := ProcessAnswerBatch(state, first, 10, 1.2, time.Now())
	if err != nil {
		t.Fatalf("ProcessAnswerBatch returned error: %v", err)
	}
	if r1.Updates[0].PreviousAccuracy != nil {
		t.Errorf("first batch previous accuracy = %v, want nil", *r1.Updates[0].PreviousAccuracy)
	}
	if r1.Updates[0].UpdatedAccuracy != 1 {
		t.Errorf("first batch accuracy = %f, want 1", r1.Updates[0].UpdatedAccuracy)
	}

	r2, err := ProcessAnswerBatch(state, second, 10, 1.2, time.Now())
	if err != nil {
		t.Fatalf("ProcessAnswerBatch returned error: %v", err)
	}
	if r2.Updates[0].PreviousAccuracy == nil || *r2.Updates[0].PreviousAccuracy != 1 {
		t.Errorf("second batch previous accuracy = %v, want 1", r2.Updates[0].PreviousAccuracy)
	}
	if r2.Updates[0].UpdatedAccuracy >= 1 {
		t.Errorf("second batch accuracy = %f, want < 1 after a miss", r2.Updates[0].UpdatedAccuracy)
	}
}

func TestProcessAnswerBatchEmptyNoOp(t *testing.T) {
	state := &UserTopicState{UserID: 1}
	entries := []AnsweredQuestion{
		{QuestionID: 1, CorrectOption: nil, UserChoice: "A", TopicIDs: []int64{1}},
	}

	result, err := ProcessAnswerBatch(state, entries, 10, 1.2, time.Now())
	if err != nil {
		t.Fatalf("ProcessAnswerBatch returned error: %v", err)
	}
	if result.TopicsTouched != 0 {
		t.Errorf("TopicsTouched = %d, want 0", result.TopicsTouched)
	}
	if len(state.Topics) != 0 {
		t.Errorf("no-op batch must not mutate state, got %+v", state.Topics)
	}

	result, err = ProcessAnswerBatch(state, nil, 10, 1.2, time.Now())
	if err != nil {
		t.Fatalf("ProcessAnswerBatch returned error: %v", err)
	}
	if result.TopicsTouched != 0 || result.AttemptsAdded != 0 {
		t.Errorf("empty batch result = %+v, want all zero", result)
	}
}

func TestProcessAnswerBatchRejectsBadConfig(t *testing.T) {
	state := &UserTopicState{UserID: 1}
	if _, err := ProcessAnswerBatch(state, nil, 0, 1.2, time.Now()); err == nil {
		t.Error("windowSize=0 should be rejected")
	}
	if _, err := ProcessAnswerBatch(state, nil, 10, 0, time.Now()); err == nil {
		t.Error("weight=0 should be rejected")
	}
	if _, err := ProcessAnswerBatch(state, nil, 10, math.NaN(), time.Now()); err == nil {
		t.Error("NaN weight should be rejected")
	}
}
