package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/learnloft/api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizService delivers quizzes to learners and runs the submission
// workflow around the pure grader. Attempts are append-only; grading a
// re-attempt never mutates earlier rows.
type QuizService struct {
	db *gorm.DB
}

// NewQuizService creates a new quiz service
func NewQuizService(db *gorm.DB) *QuizService {
	return &QuizService{db: db}
}

// GetLearnerQuiz loads the quiz for a lesson and returns the learner
// projection. Correct-answer markers never leave this function.
func (s *QuizService) GetLearnerQuiz(ctx context.Context, lessonID uint) (*LearnerQuizView, error) {
	quiz, err := s.loadQuizByLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	view := NewLearnerQuizView(quiz)
	return &view, nil
}

// SubmitQuiz grades a submission for an enrollment and persists the
// attempt. The quiz must belong to a lesson of the enrollment's course.
func (s *QuizService) SubmitQuiz(ctx context.Context, enrollmentID, quizID uint, answers []SubmittedAnswer, startedAt time.Time) (*model.QuizAttempt, *GradeResult, error) {
	var enrollment model.Enrollment
	if err := s.db.WithContext(ctx).First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrEnrollmentNotFound
		}
		return nil, nil, fmt.Errorf("failed to fetch enrollment: %w", err)
	}

	// The quiz must hang off a lesson in the enrolled course
	var quiz model.Quiz
	err := s.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Joins("JOIN lessons ON lessons.id = quizzes.lesson_id AND lessons.course_id = ?", enrollment.CourseID).
		Where("quizzes.id = ?", quizID).
		First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrQuizNotFound
		}
		return nil, nil, fmt.Errorf("failed to fetch quiz: %w", err)
	}

	answerMap := make(map[uint]SubmittedAnswer, len(answers))
	for _, answer := range answers {
		answerMap[answer.QuestionID] = answer
	}

	result := GradeQuiz(&quiz, answerMap)

	rawAnswers, err := json.Marshal(answers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal answers: %w", err)
	}

	now := time.Now()
	if startedAt.IsZero() || startedAt.After(now) {
		startedAt = now
	}

	attempt := model.QuizAttempt{
		EnrollmentID: enrollmentID,
		QuizID:       quizID,
		Answers:      datatypes.JSON(rawAnswers),
		Score:        result.Score,
		Passed:       result.Passed,
		CorrectCount: result.CorrectCount,
		StartedAt:    startedAt,
		CompletedAt:  now,
	}

	if err := s.db.WithContext(ctx).Create(&attempt).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to persist quiz attempt: %w", err)
	}

	return &attempt, &result, nil
}

// ListAttempts returns all attempts for an enrollment, newest first
func (s *QuizService) ListAttempts(ctx context.Context, enrollmentID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := s.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("created_at DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz attempts: %w", err)
	}
	return attempts, nil
}

// loadQuizByLesson loads the full grading-view quiz for a lesson
func (s *QuizService) loadQuizByLesson(ctx context.Context, lessonID uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := s.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("lesson_id = ?", lessonID).
		First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to fetch quiz: %w", err)
	}
	return &quiz, nil
}
