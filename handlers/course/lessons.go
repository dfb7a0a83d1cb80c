package course

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/learnloft/api/model"
	"github.com/learnloft/api/services/storage"
	"github.com/learnloft/api/utils/middleware"
	"github.com/learnloft/api/utils/pdfvalidation"
	"github.com/learnloft/api/utils/response"
	"github.com/learnloft/api/utils/validation"
	"gorm.io/gorm"
)

// LessonHandler handles lesson content requests
type LessonHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	objects   *storage.Client
}

// NewLessonHandler creates a new lesson handler. The object store is
// optional; without it resource uploads are rejected.
func NewLessonHandler(db *gorm.DB, objects *storage.Client) *LessonHandler {
	return &LessonHandler{
		db:        db,
		validator: validation.NewValidator(),
		objects:   objects,
	}
}

// CreateLessonRequest represents the request body for creating a lesson
type CreateLessonRequest struct {
	Title           string `json:"title" validate:"required,min=3,max=255"`
	Position        int    `json:"position" validate:"omitempty,min=0"`
	DurationSeconds int    `json:"duration_seconds" validate:"omitempty,min=0"`
	VideoURL        string `json:"video_url" validate:"omitempty,url,max=512"`
}

// UpdateLessonRequest represents the request body for updating a lesson
type UpdateLessonRequest struct {
	Title           string `json:"title" validate:"omitempty,min=3,max=255"`
	Position        *int   `json:"position" validate:"omitempty,min=0"`
	DurationSeconds *int   `json:"duration_seconds" validate:"omitempty,min=0"`
	VideoURL        string `json:"video_url" validate:"omitempty,url,max=512"`
}

// ListLessons handles GET /api/v1/courses/:id/lessons
func (h *LessonHandler) ListLessons(c *fiber.Ctx) error {
	courseID := c.Params("id")

	var course model.Course
	if err := h.db.First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	var lessons []model.Lesson
	if err := h.db.
		Where("course_id = ?", course.ID).
		Order("position").
		Find(&lessons).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch lessons")
	}

	return response.Success(c, lessons)
}

// CreateLesson handles POST /api/v1/courses/:id/lessons
func (h *LessonHandler) CreateLesson(c *fiber.Ctx) error {
	courseID := c.Params("id")

	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var course model.Course
	if err := h.db.First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	lesson := model.Lesson{
		CourseID:        course.ID,
		Title:           validation.SanitizeString(req.Title),
		Position:        req.Position,
		DurationSeconds: req.DurationSeconds,
		VideoURL:        req.VideoURL,
	}

	if err := h.db.Create(&lesson).Error; err != nil {
		return response.InternalServerError(c, "Failed to create lesson")
	}

	return response.Created(c, lesson)
}

// UpdateLesson handles PUT /api/v1/lessons/:id
func (h *LessonHandler) UpdateLesson(c *fiber.Ctx) error {
	id := c.Params("id")

	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req UpdateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var lesson model.Lesson
	if err := h.db.First(&lesson, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	if req.Title != "" {
		lesson.Title = validation.SanitizeString(req.Title)
	}
	if req.Position != nil {
		lesson.Position = *req.Position
	}
	if req.DurationSeconds != nil {
		lesson.DurationSeconds = *req.DurationSeconds
	}
	if req.VideoURL != "" {
		lesson.VideoURL = req.VideoURL
	}

	if err := h.db.Save(&lesson).Error; err != nil {
		return response.InternalServerError(c, "Failed to update lesson")
	}

	return response.SuccessWithMessage(c, "Lesson updated successfully", lesson)
}

// DeleteLesson handles DELETE /api/v1/lessons/:id
func (h *LessonHandler) DeleteLesson(c *fiber.Ctx) error {
	id := c.Params("id")

	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var lesson model.Lesson
	if err := h.db.First(&lesson, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	// Remove the uploaded resource first so the object store doesn't leak
	if lesson.ResourceKey != "" && h.objects != nil {
		if err := h.objects.Delete(c.Context(), lesson.ResourceKey); err != nil {
			log.Printf("Failed to delete resource for lesson %d: %v", lesson.ID, err)
		}
	}

	if err := h.db.Delete(&lesson).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete lesson")
	}

	return response.SuccessWithMessage(c, "Lesson deleted successfully", nil)
}

// UploadResource handles POST /api/v1/lessons/:id/resource. The uploaded
// file must be a valid PDF; it is stored in the object store and linked to
// the lesson.
func (h *LessonHandler) UploadResource(c *fiber.Ctx) error {
	id := c.Params("id")

	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	if h.objects == nil {
		return response.ServiceUnavailable(c, "Object storage is not configured")
	}

	var lesson model.Lesson
	if err := h.db.First(&lesson, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "Missing file upload")
	}

	result, err := pdfvalidation.ValidatePDFFile(file, pdfvalidation.LessonResourceLimits)
	if err != nil {
		return response.InternalServerError(c, "Failed to validate PDF")
	}
	if !result.Valid {
		return response.BadRequest(c, result.Error)
	}

	src, err := file.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to open uploaded file")
	}
	defer src.Close()

	key := storage.GenerateKey("lessons", file.Filename)
	url, err := h.objects.Upload(c.Context(), key, src, "application/pdf")
	if err != nil {
		log.Printf("Failed to upload resource for lesson %d: %v", lesson.ID, err)
		return response.InternalServerError(c, "Failed to store resource")
	}

	// Replace any previous resource
	oldKey := lesson.ResourceKey
	lesson.ResourceURL = url
	lesson.ResourceKey = key

	if err := h.db.Save(&lesson).Error; err != nil {
		return response.InternalServerError(c, "Failed to update lesson")
	}

	if oldKey != "" && oldKey != key {
		if err := h.objects.Delete(c.Context(), oldKey); err != nil {
			log.Printf("Failed to delete old resource %s: %v", oldKey, err)
		}
	}

	return response.SuccessWithMessage(c, "Resource uploaded successfully", lesson)
}
