package rating

import (
	"math"
	"testing"
)

const (
	testBeta  = 200.0
	testFloor = 25.0
)

func TestUpdateRatingsCorrectAnswer(t *testing.T) {
	student := Rating{Mu: 700, Sigma: 200}
	question := Rating{Mu: 936, Sigma: 200}

	newStudent, newQuestion, err := UpdateRatings(student, question, true, testBeta, testFloor)
	if err != nil {
		t.Fatalf("UpdateRatings returned error: %v", err)
	}

	if newStudent.Mu <= student.Mu {
		t.Errorf("correct answer should raise student mu: %f -> %f", student.Mu, newStudent.Mu)
	}
	if newQuestion.Mu >= question.Mu {
		t.Errorf("correct answer should lower question mu: %f -> %f", question.Mu, newQuestion.Mu)
	}
	if newStudent.Sigma >= student.Sigma {
		t.Errorf("student sigma should shrink: %f -> %f", student.Sigma, newStudent.Sigma)
	}
	if newQuestion.Sigma >= question.Sigma {
		t.Errorf("question sigma should shrink: %f -> %f", question.Sigma, newQuestion.Sigma)
	}
}

func TestUpdateRatingsUpsetSymmetry(t *testing.T) {
	student := Rating{Mu: 700, Sigma: 200}
	hard := Rating{Mu: 936, Sigma: 200}
	easy := Rating{Mu: 500, Sigma: 200}

	// Beating a harder question must grow the rating more.
	afterHard, _, err := UpdateRatings(student, hard, true, testBeta, testFloor)
	if err != nil {
		t.Fatalf("UpdateRatings returned error: %v", err)
	}
	afterEasy, _, err := UpdateRatings(student, easy, true, testBeta, testFloor)
	if err != nil {
		t.Fatalf("UpdateRatings returned error: %v", err)
	}
	upsetGain := afterHard.Mu - student.Mu
	expectedGain := afterEasy.Mu - student.Mu
	if upsetGain <= expectedGain {
		t.Errorf("upset gain (%f) should exceed expected-win gain (%f)", upsetGain, expectedGain)
	}

	// Missing an easier question must cost more than missing a harder one.
	afterMissEasy, _, err := UpdateRatings(student, easy, false, testBeta, testFloor)
	if err != nil {
		t.Fatalf("UpdateRatings returned error: %v", err)
	}
	afterMissHard, _, err := UpdateRatings(student, hard, false, testBeta, testFloor)
	if err != nil {
		t.Fatalf("UpdateRatings returned error: %v", err)
	}
	easyLoss := student.Mu - afterMissEasy.Mu
	hardLoss := student.Mu - afterMissHard.Mu
	if easyLoss <= hardLoss {
		t.Errorf("loss to easier question (%f) should exceed loss to harder question (%f)", easyLoss, hardLoss)
	}
}

func TestUpdateRatingsUncertainPartyMovesFaster(t *testing.T) {
	question := Rating{Mu: 800, Sigma: 200}
	fresh := Rating{Mu: 700, Sigma: 200}
	settled := Rating{Mu: 700, Sigma: 60}

	afterFresh, _, err := UpdateRatings(fresh, question, true, testBeta, testFloor)
	if err != nil {
		t.Fatalf("UpdateRatings returned error: %v", err)
	}
	afterSettled, _, err := UpdateRatings(settled, question, true, testBeta, testFloor)
	if err != nil {
		t.Fatalf("UpdateRatings returned error: %v", err)
	}
	if afterFresh.Mu-fresh.Mu <= afterSettled.Mu-settled.Mu {
		t.Errorf("high-sigma gain (%f) should exceed low-sigma gain (%f)",
			afterFresh.Mu-fresh.Mu, afterSettled.Mu-settled.Mu)
	}
}

func TestUpdateRatingsSigmaMonotone(t *testing.T) {
	student := NewStudentRating()
	question := NewQuestionRating()

	for i := 0; i < 500; i++ {
		prevStudent, prevQuestion := student.Sigma, question.Sigma
		var err error
		student, question, err = UpdateRatings(student, question, i%2 == 0, testBeta, testFloor)
		if err != nil {
			t.Fatalf("UpdateRatings returned error at step %d: %v", i, err)
		}
		if student.Sigma > prevStudent {
			t.Fatalf("student sigma increased at step %d: %f -> %f", i, prevStudent, student.Sigma)
		}
		if question.Sigma > prevQuestion {
			t.Fatalf("question sigma increased at step %d: %f -> %f", i, prevQuestion, question.Sigma)
		}
		if student.Sigma < testFloor || question.Sigma < testFloor {
			t.Fatalf("sigma dropped below floor at step %d: student=%f question=%f", i, student.Sigma, question.Sigma)
		}
	}

	if student.Sigma != testFloor {
		t.Errorf("student sigma after 500 updates = %f, want floor %f", student.Sigma, testFloor)
	}
}

func TestUpdateRatingsProgressAtFloor(t *testing.T) {
	student := Rating{Mu: 700, Sigma: testFloor}
	question := Rating{Mu: 800, Sigma: testFloor}

	newStudent, newQuestion, err := UpdateRatings(student, question, true, testBeta, testFloor)
	if err != nil {
		t.Fatalf("UpdateRatings returned error: %v", err)
	}
	if newStudent.Mu == student.Mu {
		t.Error("mean update at sigma floor must not be zero")
	}
	if newStudent.Sigma != testFloor || newQuestion.Sigma != testFloor {
		t.Errorf("sigma at floor should stay at floor, got %f / %f", newStudent.Sigma, newQuestion.Sigma)
	}
}

func TestUpdateRatingsRejectsBadInput(t *testing.T) {
	good := Rating{Mu: 700, Sigma: 200}

	if _, _, err := UpdateRatings(Rating{Mu: math.NaN(), Sigma: 200}, good, true, testBeta, testFloor); err == nil {
		t.Error("NaN mu should be rejected")
	}
	if _, _, err := UpdateRatings(Rating{Mu: 700, Sigma: math.Inf(1)}, good, true, testBeta, testFloor); err == nil {
		t.Error("Inf sigma should be rejected")
	}
	if _, _, err := UpdateRatings(Rating{Mu: 700, Sigma: -5}, good, true, testBeta, testFloor); err == nil {
		t.Error("negative sigma should be rejected")
	}
	if _, _, err := UpdateRatings(good, good, true, testBeta, 0); err == nil {
		t.Error("zero sigma floor should be rejected")
	}
}
