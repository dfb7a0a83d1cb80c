package services

import (
	"math"
	"strings"

	"github.com/learnloft/api/model"
)

// SubmittedAnswer represents a learner's answer to a single question.
// Choice questions submit the selected option id; short-answer questions
// submit free text.
type SubmittedAnswer struct {
	QuestionID uint   `json:"question_id" validate:"required,min=1"`
	OptionID   *uint  `json:"option_id,omitempty"`
	Text       string `json:"text,omitempty"`
}

// GradeResult is the outcome of grading one submission
type GradeResult struct {
	Score          int           `json:"score"` // 0-100
	Passed         bool          `json:"passed"`
	CorrectCount   int           `json:"correct_count"`
	TotalQuestions int           `json:"total_questions"`
	PerQuestion    map[uint]bool `json:"per_question"` // question id -> correct
}

// GradeQuiz scores a submission against the full (grading-view) quiz
// definition. It is a pure function: no store access, no side effects, and
// deterministic for identical inputs. Unanswered questions earn 0 points but
// still count toward the total. A quiz worth 0 total points scores 0.
func GradeQuiz(quiz *model.Quiz, answers map[uint]SubmittedAnswer) GradeResult {
	result := GradeResult{
		TotalQuestions: len(quiz.Questions),
		PerQuestion:    make(map[uint]bool, len(quiz.Questions)),
	}

	earnedPoints := 0
	totalPoints := 0

	for i := range quiz.Questions {
		question := &quiz.Questions[i]

		points := question.Points
		if points <= 0 {
			points = 1
		}
		totalPoints += points

		answer, answered := answers[question.ID]
		correct := answered && isAnswerCorrect(question, answer)

		result.PerQuestion[question.ID] = correct
		if correct {
			result.CorrectCount++
			earnedPoints += points
		}
	}

	if totalPoints > 0 {
		result.Score = int(math.Round(100 * float64(earnedPoints) / float64(totalPoints)))
	}

	// Inclusive boundary: a score exactly at the threshold passes
	result.Passed = result.Score >= quiz.PassingScore

	return result
}

// isAnswerCorrect checks a single answer against the question definition
func isAnswerCorrect(question *model.QuizQuestion, answer SubmittedAnswer) bool {
	switch question.Type {
	case model.QuestionTypeMultipleChoice, model.QuestionTypeTrueFalse:
		if answer.OptionID == nil {
			return false
		}
		for _, option := range question.Options {
			if option.IsCorrect {
				return option.ID == *answer.OptionID
			}
		}
		return false

	case model.QuestionTypeShortAnswer:
		// Exact match after trimming and case folding; no fuzzy matching,
		// no partial credit.
		submitted := strings.TrimSpace(answer.Text)
		expected := strings.TrimSpace(question.CorrectAnswer)
		if submitted == "" || expected == "" {
			return false
		}
		return strings.EqualFold(submitted, expected)

	default:
		return false
	}
}

// LearnerQuizView is the quiz projection delivered to learners. It carries
// no correctness markers; only the grading path sees the full definition.
type LearnerQuizView struct {
	ID           uint              `json:"id"`
	LessonID     uint              `json:"lesson_id"`
	Title        string            `json:"title"`
	PassingScore int               `json:"passing_score"`
	Questions    []LearnerQuestion `json:"questions"`
}

// LearnerQuestion is a question stripped of its correct answer
type LearnerQuestion struct {
	ID      uint               `json:"id"`
	Type    model.QuestionType `json:"type"`
	Prompt  string             `json:"prompt"`
	Points  int                `json:"points"`
	Options []LearnerOption    `json:"options,omitempty"`
}

// LearnerOption is an option stripped of its IsCorrect flag
type LearnerOption struct {
	ID    uint   `json:"id"`
	Label string `json:"label"`
}

// NewLearnerQuizView maps the full quiz definition onto the learner
// projection. All correct-answer stripping happens here; call sites must
// not re-implement it.
func NewLearnerQuizView(quiz *model.Quiz) LearnerQuizView {
	view := LearnerQuizView{
		ID:           quiz.ID,
		LessonID:     quiz.LessonID,
		Title:        quiz.Title,
		PassingScore: quiz.PassingScore,
		Questions:    make([]LearnerQuestion, 0, len(quiz.Questions)),
	}

	for _, question := range quiz.Questions {
		lq := LearnerQuestion{
			ID:     question.ID,
			Type:   question.Type,
			Prompt: question.Prompt,
			Points: question.Points,
		}
		for _, option := range question.Options {
			lq.Options = append(lq.Options, LearnerOption{
				ID:    option.ID,
				Label: option.Label,
			})
		}
		view.Questions = append(view.Questions, lq)
	}

	return view
}
