package progress

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/learnloft/api/services"
	"github.com/learnloft/api/utils/middleware"
	"github.com/learnloft/api/utils/response"
	"github.com/learnloft/api/utils/validation"
)

// ProgressHandler handles lesson progress reports
type ProgressHandler struct {
	progress    *services.ProgressService
	enrollments *services.EnrollmentService
	validator   *validation.Validator
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progress *services.ProgressService, enrollments *services.EnrollmentService) *ProgressHandler {
	return &ProgressHandler{
		progress:    progress,
		enrollments: enrollments,
		validator:   validation.NewValidator(),
	}
}

// RecordProgressRequest represents a progress report for one lesson
type RecordProgressRequest struct {
	LessonID       uint `json:"lesson_id" validate:"required,min=1"`
	WatchedSeconds int  `json:"watched_seconds" validate:"omitempty,min=0"`
	Completed      bool `json:"completed"`
}

// RecordProgress handles POST /api/v1/enrollments/:id/progress
func (h *ProgressHandler) RecordProgress(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	enrollmentID, err := c.ParamsInt("id")
	if err != nil || enrollmentID <= 0 {
		return response.BadRequest(c, "Invalid enrollment id")
	}

	var req RecordProgressRequest
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

	row, err := h.progress.RecordProgress(c.Context(), enrollment.ID, req.LessonID, req.WatchedSeconds, req.Completed)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLessonNotFound):
			return response.NotFound(c, "Lesson not found in this course")
		case errors.Is(err, services.ErrEnrollmentNotFound):
			return response.NotFound(c, "Enrollment not found")
		default:
			return response.InternalServerError(c, "Failed to record progress")
		}
	}

	// Re-read so the client sees the updated aggregate
	updated, err := h.enrollments.GetByID(c.Context(), enrollment.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollment")
	}

	return response.Success(c, fiber.Map{
		"lesson_progress": row,
		"enrollment":      updated,
	})
}
