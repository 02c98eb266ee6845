package rating

import (
	"fmt"
	"math"
)

// Rating is a belief about a student's skill or a question's hardness:
// a mean and a standard deviation. Sigma is never negative.
type Rating struct {
	Mu    float64 `json:"mu"`
	Sigma float64 `json:"sigma"`
}

// Default rating parameters. Students start below the question baseline so
// early sessions serve approachable questions; both converge as sigma
// shrinks with observations.
const (
	DefaultStudentMu     = 700.0
	DefaultStudentSigma  = 200.0
	DefaultQuestionMu    = 936.0
	DefaultQuestionSigma = 200.0
)

func NewStudentRating() Rating {
	return Rating{Mu: DefaultStudentMu, Sigma: DefaultStudentSigma}
}

func NewQuestionRating() Rating {
	return Rating{Mu: DefaultQuestionMu, Sigma: DefaultQuestionSigma}
}

// UpdateRatings computes new ratings for a student and a question after one
// graded answer, treating it as a two-player match: the student wins when
// correct, the question wins otherwise.
//
// Mean moves by (sigma^2/c)*v and sigma shrinks by the factor
// sqrt(1 - (sigma^2/c^2)*w), where v and w are the standard TrueSkill
// non-draw gain functions and c^2 = 2*beta^2 + sigmaS^2 + sigmaQ^2.
// A higher-sigma party therefore updates faster, an upset moves means
// further than an expected result, and sigma never increases. Sigma is
// floored at sigmaFloor, which keeps the mean step strictly positive.
func UpdateRatings(student, question Rating, correct bool, beta, sigmaFloor float64) (Rating, Rating, error) {
	if err := checkFinite("UpdateRatings", student.Mu, student.Sigma, question.Mu, question.Sigma, beta, sigmaFloor); err != nil {
		return Rating{}, Rating{}, err
	}
	if student.Sigma < 0 || question.Sigma < 0 {
		return Rating{}, Rating{}, &DomainError{Fn: "UpdateRatings", Value: math.Min(student.Sigma, question.Sigma)}
	}
	if sigmaFloor <= 0 {
		return Rating{}, Rating{}, &DomainError{Fn: "UpdateRatings", Value: sigmaFloor}
	}

	winner, loser := student, question
	if !correct {
		winner, loser = question, student
	}

	c2 := 2*beta*beta + student.Sigma*student.Sigma + question.Sigma*question.Sigma
	c := math.Sqrt(c2)
	t := (winner.Mu - loser.Mu) / c

	v := vWin(t)
	w := v * (v + t)
	if w >= 1 {
		w = 1 - 1e-9
	}

	newWinner := Rating{
		Mu:    winner.Mu + (winner.Sigma*winner.Sigma/c)*v,
		Sigma: shrinkSigma(winner.Sigma, c2, w, sigmaFloor),
	}
	newLoser := Rating{
		Mu:    loser.Mu - (loser.Sigma*loser.Sigma/c)*v,
		Sigma: shrinkSigma(loser.Sigma, c2, w, sigmaFloor),
	}

	if err := checkFinite("UpdateRatings result", newWinner.Mu, newWinner.Sigma, newLoser.Mu, newLoser.Sigma); err != nil {
		return Rating{}, Rating{}, fmt.Errorf("rating update produced non-finite result: %w", err)
	}

	if correct {
		return newWinner, newLoser, nil
	}
	return newLoser, newWinner, nil
}

// vWin is the additive mean correction phi(t)/Phi(t), with the asymptotic
// tail form for deep negatives where Phi underflows.
func vWin(t float64) float64 {
	denom := NormalCDF(t)
	if denom < 1e-12 {
		return -t
	}
	return normalPDF(t) / denom
}

func shrinkSigma(sigma, c2, w, floor float64) float64 {
	s2 := sigma * sigma
	shrunk := math.Sqrt(s2 * (1 - (s2/c2)*w))
	if shrunk < floor {
		return floor
	}
	if shrunk > sigma {
		return sigma
	}
	return shrunk
}
