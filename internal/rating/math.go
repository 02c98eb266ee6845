package rating

import (
	"fmt"
	"math"
	"math/rand"
)

// DomainError reports a math function called with an argument outside its
// domain. Callers must not retry with the same input.
type DomainError struct {
	Fn    string
	Value float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: value %v outside domain", e.Fn, e.Value)
}

// winProbEpsilon keeps WinProbability strictly inside (0,1) even when the
// rating gap saturates erf.
const winProbEpsilon = 1e-12

// NormalCDF returns the standard normal cumulative distribution at x.
func NormalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// NormalInverseCDF returns the standard normal quantile for p in (0,1).
func NormalInverseCDF(p float64) (float64, error) {
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return 0, &DomainError{Fn: "NormalInverseCDF", Value: p}
	}
	return math.Sqrt2 * math.Erfinv(2*p-1), nil
}

// WinProbability returns the probability a student with rating
// (studentMu, studentSigma) answers a question with difficulty rating
// (questionMu, questionSigma) correctly. beta controls how strongly a
// rating gap translates into a probability gap. The result is strictly
// inside (0,1) for finite inputs.
func WinProbability(studentMu, studentSigma, questionMu, questionSigma, beta float64) (float64, error) {
	if err := checkFinite("WinProbability", studentMu, studentSigma, questionMu, questionSigma, beta); err != nil {
		return 0, err
	}
	denom := math.Sqrt(2*beta*beta + studentSigma*studentSigma + questionSigma*questionSigma)
	if denom == 0 {
		return 0, &DomainError{Fn: "WinProbability", Value: denom}
	}
	p := NormalCDF((studentMu - questionMu) / denom)
	if p < winProbEpsilon {
		p = winProbEpsilon
	}
	if p > 1-winProbEpsilon {
		p = 1 - winProbEpsilon
	}
	return p, nil
}

// QuestionMeanForWinProbability solves for the question difficulty mean
// that would give the student the target win probability. Inverse of
// WinProbability with respect to questionMu.
func QuestionMeanForWinProbability(studentMu, studentSigma, targetWinProb, questionSigma, beta float64) (float64, error) {
	if err := checkFinite("QuestionMeanForWinProbability", studentMu, studentSigma, questionSigma, beta); err != nil {
		return 0, err
	}
	z, err := NormalInverseCDF(targetWinProb)
	if err != nil {
		return 0, &DomainError{Fn: "QuestionMeanForWinProbability", Value: targetWinProb}
	}
	denom := math.Sqrt(2*beta*beta + studentSigma*studentSigma + questionSigma*questionSigma)
	return studentMu - z*denom, nil
}

// SampleSkewNormal draws one sample from a skew-normal distribution with
// the given location, scale and skewness, using the Azzalini transform of
// two independent standard normals. Deterministic for a seeded rng.
func SampleSkewNormal(rng *rand.Rand, mean, sd, alpha float64) (float64, error) {
	if err := checkFinite("SampleSkewNormal", mean, sd, alpha); err != nil {
		return 0, err
	}
	if sd <= 0 {
		return 0, &DomainError{Fn: "SampleSkewNormal", Value: sd}
	}

	delta := alpha / math.Sqrt(1+alpha*alpha)
	u := rng.NormFloat64()
	v := rng.NormFloat64()
	z := delta*u + math.Sqrt(1-delta*delta)*v
	if u < 0 {
		z = -z
	}
	return mean + sd*z, nil
}

func checkFinite(fn string, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &DomainError{Fn: fn, Value: v}
		}
	}
	return nil
}

func normalPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
