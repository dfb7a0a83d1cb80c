package quiz

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/learnloft/api/model"
	"github.com/learnloft/api/services"
	"github.com/learnloft/api/utils/middleware"
	"github.com/learnloft/api/utils/response"
	"github.com/learnloft/api/utils/validation"
	"gorm.io/gorm"
)

// QuizHandler handles quiz delivery, submission and authoring
type QuizHandler struct {
	db          *gorm.DB
	quizzes     *services.QuizService
	enrollments *services.EnrollmentService
	validator   *validation.Validator
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(db *gorm.DB, quizzes *services.QuizService, enrollments *services.EnrollmentService) *QuizHandler {
	return &QuizHandler{
		db:          db,
		quizzes:     quizzes,
		enrollments: enrollments,
		validator:   validation.NewValidator(),
	}
}

// CreateQuizRequest represents the authoring payload for a lesson quiz
type CreateQuizRequest struct {
	Title        string                  `json:"title" validate:"required,min=3,max=255"`
	PassingScore int                     `json:"passing_score" validate:"omitempty,min=0,max=100"`
	Questions    []CreateQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// CreateQuestionRequest represents one question in the authoring payload
type CreateQuestionRequest struct {
	Type          model.QuestionType    `json:"type" validate:"required,oneof=multiple_choice true_false short_answer"`
	Prompt        string                `json:"prompt" validate:"required,min=3"`
	Points        int                   `json:"points" validate:"omitempty,min=1"`
	Position      int                   `json:"position" validate:"omitempty,min=0"`
	CorrectAnswer string                `json:"correct_answer" validate:"omitempty,max=500"`
	Options       []CreateOptionRequest `json:"options" validate:"omitempty,dive"`
}

// CreateOptionRequest represents one answer option
type CreateOptionRequest struct {
	Label     string `json:"label" validate:"required,min=1,max=500"`
	Position  int    `json:"position" validate:"omitempty,min=0"`
	IsCorrect bool   `json:"is_correct"`
}

// SubmitQuizRequest represents a learner's submission
type SubmitQuizRequest struct {
	Answers   []services.SubmittedAnswer `json:"answers" validate:"required,dive"`
	StartedAt time.Time                  `json:"started_at"`
}

// GetLessonQuiz handles GET /api/v1/lessons/:id/quiz. The response is the
// learner projection: no correct answers, no per-option markers.
func (h *QuizHandler) GetLessonQuiz(c *fiber.Ctx) error {
	lessonID, err := c.ParamsInt("id")
	if err != nil || lessonID <= 0 {
		return response.BadRequest(c, "Invalid lesson id")
	}

	view, err := h.quizzes.GetLearnerQuiz(c.Context(), uint(lessonID))
	if err != nil {
		if errors.Is(err, services.ErrQuizNotFound) {
			return response.NotFound(c, "No quiz for this lesson")
		}
		return response.InternalServerError(c, "Failed to fetch quiz")
	}

	return response.Success(c, view)
}

// CreateQuiz handles POST /api/v1/lessons/:id/quiz. Authoring replaces any
// existing quiz definition for the lesson.
func (h *QuizHandler) CreateQuiz(c *fiber.Ctx) error {
	lessonID, err := c.ParamsInt("id")
	if err != nil || lessonID <= 0 {
		return response.BadRequest(c, "Invalid lesson id")
	}

	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	// Every choice question needs exactly one correct option; short-answer
	// questions need a reference answer.
	for _, q := range req.Questions {
		switch q.Type {
		case model.QuestionTypeMultipleChoice, model.QuestionTypeTrueFalse:
			correct := 0
			for _, opt := range q.Options {
				if opt.IsCorrect {
					correct++
				}
			}
			if len(q.Options) < 2 || correct != 1 {
				return response.BadRequest(c, "Choice questions need at least two options and exactly one correct option")
			}
		case model.QuestionTypeShortAnswer:
			if q.CorrectAnswer == "" {
				return response.BadRequest(c, "Short answer questions need a reference answer")
			}
		}
	}

	var lesson model.Lesson
	if err := h.db.First(&lesson, lessonID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	passingScore := req.PassingScore
	if passingScore == 0 {
		passingScore = 70
	}

	quiz := model.Quiz{
		LessonID:     lesson.ID,
		Title:        validation.SanitizeString(req.Title),
		PassingScore: passingScore,
	}
	for _, q := range req.Questions {
		question := model.QuizQuestion{
			Type:          q.Type,
			Prompt:        validation.SanitizeString(q.Prompt),
			Points:        q.Points,
			Position:      q.Position,
			CorrectAnswer: q.CorrectAnswer,
		}
		for _, opt := range q.Options {
			question.Options = append(question.Options, model.QuizOption{
				Label:     validation.SanitizeString(opt.Label),
				Position:  opt.Position,
				IsCorrect: opt.IsCorrect,
			})
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	// Replace the previous definition atomically. Past attempts keep their
	// recorded scores; only future submissions grade against the new quiz.
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Quiz
		if err := tx.Where("lesson_id = ?", lesson.ID).First(&existing).Error; err == nil {
			if err := tx.Select("Questions").Delete(&existing).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&quiz).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to save quiz")
	}

	return response.Created(c, quiz)
}

// SubmitQuiz handles POST /api/v1/enrollments/:id/quizzes/:quizId/attempts
func (h *QuizHandler) SubmitQuiz(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	enrollmentID, err := c.ParamsInt("id")
	if err != nil || enrollmentID <= 0 {
		return response.BadRequest(c, "Invalid enrollment id")
	}

	quizID, err := c.ParamsInt("quizId")
	if err != nil || quizID <= 0 {
		return response.BadRequest(c, "Invalid quiz id")
	}

	var req SubmitQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	enrollment, err := h.enrollments.GetByID(c.Context(), uint(enrollmentID))
	if err != nil {
		if errors.Is(err, services.ErrEnrollmentNotFound) {
			return response.NotFound(c, "Enrollment not found")
		}
		return response.InternalServerError(c, "Failed to fetch enrollment")
	}

	if enrollment.UserID != userID {
		return response.NotFound(c, "Enrollment not found")
	}

	attempt, result, err := h.quizzes.SubmitQuiz(c.Context(), enrollment.ID, uint(quizID), req.Answers, req.StartedAt)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrQuizNotFound):
			return response.NotFound(c, "Quiz not found in this course")
		case errors.Is(err, services.ErrEnrollmentNotFound):
			return response.NotFound(c, "Enrollment not found")
		default:
			return response.InternalServerError(c, "Failed to grade submission")
		}
	}

	return response.Created(c, fiber.Map{
		"attempt": attempt,
		"result":  result,
	})
}

// ListAttempts handles GET /api/v1/enrollments/:id/attempts
func (h *QuizHandler) ListAttempts(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	enrollmentID, err := c.ParamsInt("id")
	if err != nil || enrollmentID <= 0 {
		return response.BadRequest(c, "Invalid enrollment id")
	}

	enrollment, err := h.enrollments.GetByID(c.Context(), uint(enrollmentID))
	if err != nil {
		if errors.Is(err, services.ErrEnrollmentNotFound) {
			return response.NotFound(c, "Enrollment not found")
		}
		return response.InternalServerError(c, "Failed to fetch enrollment")
	}

	role, _ := middleware.GetUserRole(c)
	if enrollment.UserID != userID && role != "admin" {
		return response.NotFound(c, "Enrollment not found")
	}

	attempts, err := h.quizzes.ListAttempts(c.Context(), enrollment.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch attempts")
	}

	return response.Success(c, attempts)
}
