package course

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/learnloft/api/model"
	"github.com/learnloft/api/utils/middleware"
	"github.com/learnloft/api/utils/response"
	"github.com/learnloft/api/utils/validation"
	"gorm.io/gorm"
)

// CourseHandler handles course catalog requests
type CourseHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB) *CourseHandler {
	return &CourseHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateCourseRequest represents the request body for creating a course
type CreateCourseRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Slug        string `json:"slug" validate:"required,min=3,max=100,lowercase"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	PriceCents  int64  `json:"price_cents" validate:"omitempty,min=0"`
	Currency    string `json:"currency" validate:"omitempty,len=3,uppercase"`
	Published   bool   `json:"published"`
}

// UpdateCourseRequest represents the request body for updating a course
type UpdateCourseRequest struct {
	Title       string `json:"title" validate:"omitempty,min=3,max=255"`
	Slug        string `json:"slug" validate:"omitempty,min=3,max=100,lowercase"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	PriceCents  *int64 `json:"price_cents" validate:"omitempty,min=0"`
	Currency    string `json:"currency" validate:"omitempty,len=3,uppercase"`
	Published   *bool  `json:"published"`
}

// ListCourses handles GET /api/v1/courses. Unauthenticated callers see
// published courses only; admins can request the full catalog.
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	// Parse query parameters
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	search := c.Query("search", "")

	// Build query
	query := h.db.Model(&model.Course{})

	role, _ := middleware.GetUserRole(c)
	if role != "admin" || c.Query("include_unpublished") != "true" {
		query = query.Where("published = ?", true)
	}

	if search != "" {
		query = query.Where("title ILIKE ? OR description ILIKE ?",
			"%"+search+"%", "%"+search+"%")
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count courses")
	}

	// Calculate pagination
	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var courses []model.Course
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Paginated(c, courses, pagination)
}

// GetCourse handles GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	id := c.Params("id")

	var course model.Course
	if err := h.db.
		Preload("Lessons", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	// Unpublished courses are only visible to admins
	if !course.Published {
		role, _ := middleware.GetUserRole(c)
		if role != "admin" {
			return response.NotFound(c, "Course not found")
		}
	}

	return response.Success(c, course)
}

// CreateCourse handles POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	// Sanitize inputs
	req.Title = validation.SanitizeString(req.Title)
	req.Slug = validation.SanitizeString(req.Slug)
	req.Description = validation.SanitizeString(req.Description)

	// Check if course with same slug already exists
	var existingCourse model.Course
	if err := h.db.Where("slug = ?", req.Slug).First(&existingCourse).Error; err == nil {
		return response.Conflict(c, "Course with this slug already exists")
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	course := model.Course{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Currency:    currency,
		Published:   req.Published,
	}

	if err := h.db.Create(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to create course")
	}

	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/v1/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	id := c.Params("id")

	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var course model.Course
	if err := h.db.First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if req.Title != "" {
		course.Title = validation.SanitizeString(req.Title)
	}

	if req.Slug != "" {
		// Check if slug is already used by another course
		var existingCourse model.Course
		if err := h.db.Where("slug = ? AND id != ?", req.Slug, id).First(&existingCourse).Error; err == nil {
			return response.Conflict(c, "Course with this slug already exists")
		}
		course.Slug = validation.SanitizeString(req.Slug)
	}

	if req.Description != "" {
		course.Description = validation.SanitizeString(req.Description)
	}

	if req.PriceCents != nil {
		course.PriceCents = *req.PriceCents
	}

	if req.Currency != "" {
		course.Currency = req.Currency
	}

	if req.Published != nil {
		course.Published = *req.Published
	}

	if err := h.db.Save(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to update course")
	}

	return response.SuccessWithMessage(c, "Course updated successfully", course)
}

// DeleteCourse handles DELETE /api/v1/courses/:id
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	id := c.Params("id")

	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var course model.Course
	if err := h.db.First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	// A course with enrollments keeps its history; unpublish instead
	var enrollmentCount int64
	if err := h.db.Model(&model.Enrollment{}).Where("course_id = ?", id).Count(&enrollmentCount).Error; err != nil {
		return response.InternalServerError(c, "Failed to check course dependencies")
	}

	if enrollmentCount > 0 {
		return response.BadRequest(c, "Cannot delete a course with enrollments; unpublish it instead")
	}

	// Delete course (soft delete)
	if err := h.db.Delete(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete course")
	}

	return response.SuccessWithMessage(c, "Course deleted successfully", nil)
}
