package enrollment

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/learnloft/api/services"
	"github.com/learnloft/api/utils/middleware"
	"github.com/learnloft/api/utils/response"
)

// EnrollmentHandler handles enrollment requests
type EnrollmentHandler struct {
	enrollments *services.EnrollmentService
	progress    *services.ProgressService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(enrollments *services.EnrollmentService, progress *services.ProgressService) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollments: enrollments,
		progress:    progress,
	}
}

// Enroll handles POST /api/v1/courses/:id/enroll. Enrolling twice is not
// an error: the existing enrollment comes back with a 409 so clients can
// tell the two cases apart.
func (h *EnrollmentHandler) Enroll(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := c.ParamsInt("id")
	if err != nil || courseID <= 0 {
		return response.BadRequest(c, "Invalid course id")
	}

	result, err := h.enrollments.Enroll(c.Context(), userID, uint(courseID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCourseNotFound):
			return response.NotFound(c, "Course not found")
		case errors.Is(err, services.ErrCourseNotPublished):
			return response.NotFound(c, "Course not found")
		case errors.Is(err, services.ErrPaymentRequired):
			return response.PaymentRequired(c, "A confirmed payment is required to enroll in this course")
		default:
			return response.InternalServerError(c, "Failed to enroll")
		}
	}

	if result.AlreadyEnrolled {
		return c.Status(fiber.StatusConflict).JSON(response.Response{
			Success: true,
			Message: "Already enrolled in this course",
			Data:    result.Enrollment,
		})
	}

	return response.Created(c, result.Enrollment)
}

// ListEnrollments handles GET /api/v1/enrollments
func (h *EnrollmentHandler) ListEnrollments(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	enrollments, err := h.enrollments.ListByUser(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}

	return response.Success(c, enrollments)
}

// GetEnrollment handles GET /api/v1/enrollments/:id
func (h *EnrollmentHandler) GetEnrollment(c *fiber.Ctx) error {
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

	// Learners only see their own enrollments
	role, _ := middleware.GetUserRole(c)
	if enrollment.UserID != userID && role != "admin" {
		return response.NotFound(c, "Enrollment not found")
	}

	return response.Success(c, enrollment)
}

// GetEnrollmentProgress handles GET /api/v1/enrollments/:id/progress
func (h *EnrollmentHandler) GetEnrollmentProgress(c *fiber.Ctx) error {
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

	rows, err := h.progress.ListByEnrollment(c.Context(), enrollment.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch lesson progress")
	}

	return response.Success(c, fiber.Map{
		"enrollment": enrollment,
		"lessons":    rows,
	})
}
