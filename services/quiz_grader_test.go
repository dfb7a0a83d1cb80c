package services

import (
	"testing"

	"github.com/learnloft/api/model"
)

func optionID(id uint) *uint {
	return &id
}

// buildGradingQuiz returns a three-question quiz worth 4 points total:
// a 1-point multiple choice, a 1-point true/false and a 2-point short answer.
func buildGradingQuiz(passingScore int) *model.Quiz {
	return &model.Quiz{
		ID:           1,
		LessonID:     10,
		Title:        "Checkpoint",
		PassingScore: passingScore,
		Questions: []model.QuizQuestion{
			{
				ID:     101,
				Type:   model.QuestionTypeMultipleChoice,
				Prompt: "Pick the right one",
				Points: 1,
				Options: []model.QuizOption{
					{ID: 1001, Label: "wrong"},
					{ID: 1002, Label: "right", IsCorrect: true},
					{ID: 1003, Label: "also wrong"},
				},
			},
			{
				ID:     102,
				Type:   model.QuestionTypeTrueFalse,
				Prompt: "True or false",
				Points: 1,
				Options: []model.QuizOption{
					{ID: 1004, Label: "True", IsCorrect: true},
					{ID: 1005, Label: "False"},
				},
			},
			{
				ID:            103,
				Type:          model.QuestionTypeShortAnswer,
				Prompt:        "Name the command",
				Points:        2,
				CorrectAnswer: "go test",
			},
		},
	}
}

func TestGradeQuizAllCorrect(t *testing.T) {
	quiz := buildGradingQuiz(70)
	answers := map[uint]SubmittedAnswer{
		101: {QuestionID: 101, OptionID: optionID(1002)},
		102: {QuestionID: 102, OptionID: optionID(1004)},
		103: {QuestionID: 103, Text: "go test"},
	}

	result := GradeQuiz(quiz, answers)

	if result.Score != 100 {
		t.Errorf("expected score 100, got %d", result.Score)
	}
	if !result.Passed {
		t.Error("expected a perfect submission to pass")
	}
	if result.CorrectCount != 3 {
		t.Errorf("expected 3 correct, got %d", result.CorrectCount)
	}
	if result.TotalQuestions != 3 {
		t.Errorf("expected 3 total questions, got %d", result.TotalQuestions)
	}
}

func TestGradeQuizPartialAndWeighted(t *testing.T) {
	quiz := buildGradingQuiz(70)

	// Only the 2-point short answer is correct: 2/4 points = 50
	answers := map[uint]SubmittedAnswer{
		101: {QuestionID: 101, OptionID: optionID(1001)},
		103: {QuestionID: 103, Text: "go test"},
	}

	result := GradeQuiz(quiz, answers)

	if result.Score != 50 {
		t.Errorf("expected score 50, got %d", result.Score)
	}
	if result.Passed {
		t.Error("expected 50 to fail a 70 threshold")
	}
	if result.CorrectCount != 1 {
		t.Errorf("expected 1 correct, got %d", result.CorrectCount)
	}
	if result.PerQuestion[101] {
		t.Error("question 101 should be marked incorrect")
	}
	if result.PerQuestion[102] {
		t.Error("unanswered question 102 should be marked incorrect")
	}
	if !result.PerQuestion[103] {
		t.Error("question 103 should be marked correct")
	}
}

func TestGradeQuizInclusivePassBoundary(t *testing.T) {
	// Both 1-point questions correct out of 4 points = exactly 50
	quiz := buildGradingQuiz(50)
	answers := map[uint]SubmittedAnswer{
		101: {QuestionID: 101, OptionID: optionID(1002)},
		102: {QuestionID: 102, OptionID: optionID(1004)},
	}

	result := GradeQuiz(quiz, answers)

	if result.Score != 50 {
		t.Fatalf("expected score 50, got %d", result.Score)
	}
	if !result.Passed {
		t.Error("a score exactly at the threshold must pass")
	}
}

func TestGradeQuizShortAnswerNormalization(t *testing.T) {
	quiz := &model.Quiz{
		PassingScore: 100,
		Questions: []model.QuizQuestion{
			{
				ID:            201,
				Type:          model.QuestionTypeShortAnswer,
				Points:        1,
				CorrectAnswer: "Go Test",
			},
		},
	}

	tests := []struct {
		name    string
		text    string
		correct bool
	}{
		{"exact match", "Go Test", true},
		{"case folded", "go test", true},
		{"surrounding whitespace", "  go TEST  ", true},
		{"wrong answer", "go vet", false},
		{"empty answer", "", false},
		{"whitespace only", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GradeQuiz(quiz, map[uint]SubmittedAnswer{
				201: {QuestionID: 201, Text: tt.text},
			})
			if got := result.PerQuestion[201]; got != tt.correct {
				t.Errorf("text %q: expected correct=%v, got %v", tt.text, tt.correct, got)
			}
		})
	}
}

func TestGradeQuizChoiceWithoutSelection(t *testing.T) {
	quiz := buildGradingQuiz(70)

	// Submitting text for a choice question is not a selection
	result := GradeQuiz(quiz, map[uint]SubmittedAnswer{
		101: {QuestionID: 101, Text: "right"},
	})

	if result.PerQuestion[101] {
		t.Error("a choice question answered without an option id must be incorrect")
	}
}

func TestGradeQuizEmptyQuiz(t *testing.T) {
	quiz := &model.Quiz{PassingScore: 70}

	result := GradeQuiz(quiz, nil)

	if result.Score != 0 {
		t.Errorf("expected score 0 for empty quiz, got %d", result.Score)
	}
	if result.Passed {
		t.Error("an empty quiz must not pass a positive threshold")
	}
}

func TestGradeQuizZeroThresholdPassesEmptySubmission(t *testing.T) {
	quiz := buildGradingQuiz(0)

	result := GradeQuiz(quiz, nil)

	if result.Score != 0 {
		t.Fatalf("expected score 0, got %d", result.Score)
	}
	if !result.Passed {
		t.Error("score 0 must pass a 0 threshold")
	}
}

func TestGradeQuizDeterministic(t *testing.T) {
	quiz := buildGradingQuiz(70)
	answers := map[uint]SubmittedAnswer{
		101: {QuestionID: 101, OptionID: optionID(1002)},
		103: {QuestionID: 103, Text: "GO TEST"},
	}

	first := GradeQuiz(quiz, answers)
	for i := 0; i < 10; i++ {
		again := GradeQuiz(quiz, answers)
		if again.Score != first.Score || again.Passed != first.Passed || again.CorrectCount != first.CorrectCount {
			t.Fatalf("grading is not deterministic: run %d got %+v, want %+v", i, again, first)
		}
	}
}

func TestNewLearnerQuizViewStripsAnswers(t *testing.T) {
	quiz := buildGradingQuiz(70)

	view := NewLearnerQuizView(quiz)

	if len(view.Questions) != 3 {
		t.Fatalf("expected 3 questions in learner view, got %d", len(view.Questions))
	}
	if view.PassingScore != 70 {
		t.Errorf("expected passing score 70, got %d", view.PassingScore)
	}

	// Choice questions keep their options but the view type carries no
	// correctness markers at all
	if len(view.Questions[0].Options) != 3 {
		t.Errorf("expected 3 options on first question, got %d", len(view.Questions[0].Options))
	}

	// Short answer questions expose no options and no expected text
	if len(view.Questions[2].Options) != 0 {
		t.Errorf("short answer question should have no options, got %d", len(view.Questions[2].Options))
	}
}
