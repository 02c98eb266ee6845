package quiz

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/quizpeak/backend/internal/models"
)

func testIndex() QuestionIndex {
	return NewQuestionIndex([]QuestionDifficulty{
		{QuestionID: 4, Mu: 1000},
		{QuestionID: 1, Mu: 700},
		{QuestionID: 3, Mu: 900},
		{QuestionID: 2, Mu: 800},
	})
}

func TestResolveClosestAbove(t *testing.T) {
	idx := testIndex()

	q, err := idx.Resolve(850)
	if err != nil {
		t.Fatalf("Resolve(850) returned error: %v", err)
	}
	if q.Mu != 900 || q.QuestionID != 3 {
		t.Errorf("Resolve(850) = %+v, want question 3 at mu 900", q)
	}

	// Exact hit selects the question itself.
	q, err = idx.Resolve(800)
	if err != nil {
		t.Fatalf("Resolve(800) returned error: %v", err)
	}
	if q.Mu != 800 {
		t.Errorf("Resolve(800) = %+v, want mu 800", q)
	}
}

func TestResolveFallbackBelow(t *testing.T) {
	idx := testIndex()

	// Target above the hardest question clamps down to it.
	q, err := idx.Resolve(1200)
	if err != nil {
		t.Fatalf("Resolve(1200) returned error: %v", err)
	}
	if q.Mu != 1000 || q.QuestionID != 4 {
		t.Errorf("Resolve(1200) = %+v, want question 4 at mu 1000", q)
	}

	// Target below the easiest question takes the easiest from above.
	q, err = idx.Resolve(100)
	if err != nil {
		t.Fatalf("Resolve(100) returned error: %v", err)
	}
	if q.Mu != 700 {
		t.Errorf("Resolve(100) = %+v, want mu 700", q)
	}
}

func TestResolveEmptyIndex(t *testing.T) {
	var idx QuestionIndex
	if _, err := idx.Resolve(850); !errors.Is(err, ErrNoQuestionAvailable) {
		t.Errorf("empty index Resolve error = %v, want ErrNoQuestionAvailable", err)
	}
}

func TestResolveTieBreak(t *testing.T) {
	idx := NewQuestionIndex([]QuestionDifficulty{
		{QuestionID: 12, Mu: 900},
		{QuestionID: 5, Mu: 900},
		{QuestionID: 9, Mu: 900},
	})
	q, err := idx.Resolve(850)
	if err != nil {
		t.Fatalf("Resolve(850) returned error: %v", err)
	}
	if q.QuestionID != 5 {
		t.Errorf("tie at mu 900 resolved to question %d, want lowest ID 5", q.QuestionID)
	}
}

func TestExclude(t *testing.T) {
	idx := testIndex()
	filtered := idx.Exclude(map[int64]bool{3: true})

	q, err := filtered.Resolve(850)
	if err != nil {
		t.Fatalf("Resolve(850) returned error: %v", err)
	}
	if q.QuestionID != 4 {
		t.Errorf("Resolve(850) with question 3 excluded = %+v, want question 4", q)
	}
	if len(idx) != 4 {
		t.Errorf("Exclude must not mutate the original index, len = %d", len(idx))
	}
}

func TestSelectNextQuestionDeterminism(t *testing.T) {
	idx := testIndex()
	params := models.DifficultyParams{Mean: 850, SD: 100, Alpha: 2}

	a, targetA, err := SelectNextQuestion(rand.New(rand.NewSource(99)), params, idx)
	if err != nil {
		t.Fatalf("SelectNextQuestion returned error: %v", err)
	}
	b, targetB, err := SelectNextQuestion(rand.New(rand.NewSource(99)), params, idx)
	if err != nil {
		t.Fatalf("SelectNextQuestion returned error: %v", err)
	}
	if a != b || targetA != targetB {
		t.Errorf("seeded selection diverged: (%d, %f) vs (%d, %f)", a, targetA, b, targetB)
	}
}

func TestSelectNextQuestionEmptyIndex(t *testing.T) {
	params := models.DifficultyParams{Mean: 850, SD: 100, Alpha: 2}
	_, _, err := SelectNextQuestion(rand.New(rand.NewSource(1)), params, nil)
	if !errors.Is(err, ErrNoQuestionAvailable) {
		t.Errorf("SelectNextQuestion on empty index error = %v, want ErrNoQuestionAvailable", err)
	}
}

func TestTargetWinProbabilityBands(t *testing.T) {
	rng := rand.New(rand.NewSource(2026))

	const n = 100000
	var core, easier, harder int
	for i := 0; i < n; i++ {
		p := TargetWinProbability(rng)
		switch {
		case p >= 0.35 && p <= 0.55:
			core++
		case p >= 0.20 && p < 0.35:
			easier++
		case p > 0.55 && p <= 0.70:
			harder++
		default:
			t.Fatalf("TargetWinProbability produced %f outside [0.20, 0.70]", p)
		}
	}

	if ratio := float64(core) / n; ratio < 0.78 || ratio > 0.82 {
		t.Errorf("core band ratio = %f, want ~0.80", ratio)
	}
	if ratio := float64(easier) / n; ratio < 0.08 || ratio > 0.12 {
		t.Errorf("easier band ratio = %f, want ~0.10", ratio)
	}
	if ratio := float64(harder) / n; ratio < 0.08 || ratio > 0.12 {
		t.Errorf("harder band ratio = %f, want ~0.10", ratio)
	}
}
