package quiz

import (
	"testing"

	"github.com/quizpeak/backend/internal/models"
)

func TestLockTableReusesMutexes(t *testing.T) {
	table := newLockTable()

	a := table.get("user:1")
	b := table.get("user:1")
	if a != b {
		t.Error("same key must return the same mutex")
	}
	if table.get("user:2") == a {
		t.Error("different keys must return different mutexes")
	}
}

func TestValidateImportQuestion(t *testing.T) {
	valid := models.ImportQuestion{
		Text:          "What is 2+2?",
		CorrectOption: "B",
		Choices: []models.ImportChoice{
			{OptionID: "A", Text: "3"},
			{OptionID: "B", Text: "4"},
		},
	}
	if err := validateImportQuestion(valid); err != nil {
		t.Errorf("valid question rejected: %v", err)
	}

	cases := []struct {
		name string
		q    models.ImportQuestion
	}{
		{"empty text", models.ImportQuestion{
			CorrectOption: "A",
			Choices:       []models.ImportChoice{{OptionID: "A", Text: "x"}, {OptionID: "B", Text: "y"}},
		}},
		{"single choice", models.ImportQuestion{
			Text:          "q",
			CorrectOption: "A",
			Choices:       []models.ImportChoice{{OptionID: "A", Text: "x"}},
		}},
		{"correct option missing", models.ImportQuestion{
			Text:          "q",
			CorrectOption: "C",
			Choices:       []models.ImportChoice{{OptionID: "A", Text: "x"}, {OptionID: "B", Text: "y"}},
		}},
		{"empty option id", models.ImportQuestion{
			Text:          "q",
			CorrectOption: "A",
			Choices:       []models.ImportChoice{{OptionID: "", Text: "x"}, {OptionID: "A", Text: "y"}},
		}},
	}
	for _, tc := range cases {
		if err := validateImportQuestion(tc.q); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}
