package rating

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestNormalCDF(t *testing.T) {
	tests := []struct {
		x    float64
		want float64
	}{
		{0, 0.5},
		{1.96, 0.975},
		{-1.96, 0.025},
		{3.0, 0.99865},
		{-3.0, 0.00135},
	}

	for _, tt := range tests {
		got := NormalCDF(tt.x)
		if math.Abs(got-tt.want) > 0.001 {
			t.Errorf("NormalCDF(%v) = %f, want ~%f", tt.x, got, tt.want)
		}
	}
}

func TestNormalInverseCDF(t *testing.T) {
	for _, p := range []float64{0.01, 0.25, 0.5, 0.75, 0.99} {
		z, err := NormalInverseCDF(p)
		if err != nil {
			t.Fatalf("NormalInverseCDF(%v) returned error: %v", p, err)
		}
		if back := NormalCDF(z); math.Abs(back-p) > 1e-9 {
			t.Errorf("NormalCDF(NormalInverseCDF(%v)) = %v, want %v", p, back, p)
		}
	}

	for _, p := range []float64{0, 1, -0.5, 1.5, math.NaN()} {
		if _, err := NormalInverseCDF(p); err == nil {
			t.Errorf("NormalInverseCDF(%v) should return DomainError", p)
		}
	}
}

func TestWinProbability(t *testing.T) {
	// Student 700±200 vs question 936±200 with beta=200:
	// gap/denominator = -236/400 = -0.59, an underdog matchup.
	p, err := WinProbability(700, 200, 936, 200, 200)
	if err != nil {
		t.Fatalf("WinProbability returned error: %v", err)
	}
	if math.Abs(p-NormalCDF(-0.59)) > 1e-9 {
		t.Errorf("WinProbability(700,200,936,200,200) = %f, want %f", p, NormalCDF(-0.59))
	}
	if p < 0.25 || p > 0.31 {
		t.Errorf("underdog win probability = %f, want ~0.28", p)
	}

	// Equal ratings: exactly even odds.
	p, err = WinProbability(800, 150, 800, 150, 200)
	if err != nil {
		t.Fatalf("WinProbability returned error: %v", err)
	}
	if math.Abs(p-0.5) > 1e-12 {
		t.Errorf("equal-rating win probability = %f, want 0.5", p)
	}
}

func TestWinProbabilityBounds(t *testing.T) {
	// Saturating gaps must still land strictly inside (0,1).
	for _, gap := range []float64{1e6, -1e6, 1e9, -1e9} {
		p, err := WinProbability(700+gap, 10, 700, 10, 200)
		if err != nil {
			t.Fatalf("WinProbability(gap=%v) returned error: %v", gap, err)
		}
		if p <= 0 || p >= 1 {
			t.Errorf("WinProbability(gap=%v) = %v, want strictly in (0,1)", gap, p)
		}
	}
}

func TestWinProbabilityRejectsNonFinite(t *testing.T) {
	var domainErr *DomainError
	if _, err := WinProbability(math.NaN(), 200, 936, 200, 200); !errors.As(err, &domainErr) {
		t.Errorf("WinProbability with NaN mu should return DomainError, got %v", err)
	}
	if _, err := WinProbability(700, math.Inf(1), 936, 200, 200); !errors.As(err, &domainErr) {
		t.Errorf("WinProbability with Inf sigma should return DomainError, got %v", err)
	}
}

func TestQuestionMeanForWinProbabilityRoundTrip(t *testing.T) {
	for _, target := range []float64{0.2, 0.35, 0.5, 0.55, 0.7} {
		mu, err := QuestionMeanForWinProbability(700, 200, target, 300, 200)
		if err != nil {
			t.Fatalf("QuestionMeanForWinProbability(%v) returned error: %v", target, err)
		}
		got, err := WinProbability(700, 200, mu, 300, 200)
		if err != nil {
			t.Fatalf("WinProbability round trip returned error: %v", err)
		}
		if math.Abs(got-target) > 1e-6 {
			t.Errorf("round trip for target %v recovered %v", target, got)
		}
	}

	for _, target := range []float64{0, 1, -0.1, 1.1} {
		if _, err := QuestionMeanForWinProbability(700, 200, target, 300, 200); err == nil {
			t.Errorf("QuestionMeanForWinProbability(target=%v) should return DomainError", target)
		}
	}
}

func TestSampleSkewNormalDeterminism(t *testing.T) {
	a := rand.New(rand.NewSource(42))
	b := rand.New(rand.NewSource(42))

	for i := 0; i < 100; i++ {
		x, err := SampleSkewNormal(a, 750, 150, 5)
		if err != nil {
			t.Fatalf("SampleSkewNormal returned error: %v", err)
		}
		y, err := SampleSkewNormal(b, 750, 150, 5)
		if err != nil {
			t.Fatalf("SampleSkewNormal returned error: %v", err)
		}
		if x != y {
			t.Fatalf("sample %d diverged under identical seeds: %v != %v", i, x, y)
		}
	}
}

func TestSampleSkewNormalMoments(t *testing.T) {
	// Skew-normal mean is loc + scale*delta*sqrt(2/pi).
	const (
		loc   = 750.0
		scale = 150.0
		alpha = 5.0
		n     = 200000
	)
	delta := alpha / math.Sqrt(1+alpha*alpha)
	want := loc + scale*delta*math.Sqrt(2/math.Pi)

	rng := rand.New(rand.NewSource(7))
	var sum float64
	for i := 0; i < n; i++ {
		x, err := SampleSkewNormal(rng, loc, scale, alpha)
		if err != nil {
			t.Fatalf("SampleSkewNormal returned error: %v", err)
		}
		sum += x
	}
	got := sum / n
	if math.Abs(got-want) > 2.0 {
		t.Errorf("sample mean = %f, want ~%f", got, want)
	}
}

func TestSampleSkewNormalDomain(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := SampleSkewNormal(rng, 750, 0, 5); err == nil {
		t.Error("SampleSkewNormal with sd=0 should return DomainError")
	}
	if _, err := SampleSkewNormal(rng, 750, -10, 5); err == nil {
		t.Error("SampleSkewNormal with negative sd should return DomainError")
	}
	if _, err := SampleSkewNormal(rng, math.NaN(), 150, 5); err == nil {
		t.Error("SampleSkewNormal with NaN mean should return DomainError")
	}
}
