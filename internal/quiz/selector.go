package quiz

import (
	"errors"
	"math/rand"
	"sort"

	"github.com/quizpeak/backend/internal/models"
	"github.com/quizpeak/backend/internal/rating"
)

// ErrNoQuestionAvailable is returned when a level's question index is
// empty. Callers surface it as "no content available", never retry.
var ErrNoQuestionAvailable = errors.New("no question available")

// QuestionDifficulty pairs a question with its stored difficulty mean.
type QuestionDifficulty struct {
	QuestionID int64
	Mu         float64
}

// QuestionIndex is a difficulty-sorted view of a level's question pool,
// ordered by (mu, question ID). Equal difficulties resolve to the lowest ID.
type QuestionIndex []QuestionDifficulty

// NewQuestionIndex sorts the given pairs into a usable index.
func NewQuestionIndex(pairs []QuestionDifficulty) QuestionIndex {
	idx := make(QuestionIndex, len(pairs))
	copy(idx, pairs)
	sort.Slice(idx, func(i, j int) bool {
		if idx[i].Mu != idx[j].Mu {
			return idx[i].Mu < idx[j].Mu
		}
		return idx[i].QuestionID < idx[j].QuestionID
	})
	return idx
}

// ClosestAtOrAbove returns the question with the smallest mu >= target.
func (idx QuestionIndex) ClosestAtOrAbove(target float64) (QuestionDifficulty, bool) {
	i := sort.Search(len(idx), func(i int) bool { return idx[i].Mu >= target })
	if i == len(idx) {
		return QuestionDifficulty{}, false
	}
	return idx[i], true
}

// ClosestAtOrBelow returns the question with the largest mu <= target.
func (idx QuestionIndex) ClosestAtOrBelow(target float64) (QuestionDifficulty, bool) {
	i := sort.Search(len(idx), func(i int) bool { return idx[i].Mu > target })
	if i == 0 {
		return QuestionDifficulty{}, false
	}
	return idx[i-1], true
}

// Resolve picks the question for a target difficulty: the closest match
// from above, clamping to the hardest available question when the target
// exceeds the whole pool.
func (idx QuestionIndex) Resolve(target float64) (QuestionDifficulty, error) {
	if len(idx) == 0 {
		return QuestionDifficulty{}, ErrNoQuestionAvailable
	}
	if q, ok := idx.ClosestAtOrAbove(target); ok {
		return q, nil
	}
	q, _ := idx.ClosestAtOrBelow(target)
	return q, nil
}

// Exclude returns a copy of the index without the given question IDs,
// used to keep already-served questions out of a session.
func (idx QuestionIndex) Exclude(ids map[int64]bool) QuestionIndex {
	if len(ids) == 0 {
		return idx
	}
	out := make(QuestionIndex, 0, len(idx))
	for _, q := range idx {
		if !ids[q.QuestionID] {
			out = append(out, q)
		}
	}
	return out
}

// SelectNextQuestion draws a target difficulty from the level's skew-normal
// distribution and resolves it against the index. Deterministic for a
// seeded rng.
func SelectNextQuestion(rng *rand.Rand, params models.DifficultyParams, idx QuestionIndex) (int64, float64, error) {
	target, err := rating.SampleSkewNormal(rng, params.Mean, params.SD, params.Alpha)
	if err != nil {
		return 0, 0, err
	}
	q, err := idx.Resolve(target)
	if err != nil {
		return 0, 0, err
	}
	return q.QuestionID, target, nil
}

// TargetWinProbability draws the win probability the next adaptive pick
// aims for: mostly an even-odds band, with occasional easier and harder
// excursions.
//
//	80%: 0.35 - 0.55
//	10%: 0.20 - 0.35
//	10%: 0.55 - 0.70
func TargetWinProbability(rng *rand.Rand) float64 {
	r := rng.Float64()
	switch {
	case r < 0.8:
		return 0.35 + rng.Float64()*(0.55-0.35)
	case r < 0.9:
		return 0.20 + rng.Float64()*(0.35-0.20)
	default:
		return 0.55 + rng.Float64()*(0.70-0.55)
	}
}
