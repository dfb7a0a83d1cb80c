package payment

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/learnloft/api/model"
	"github.com/learnloft/api/utils/middleware"
	"github.com/learnloft/api/utils/response"
	"github.com/learnloft/api/utils/validation"
	"gorm.io/gorm"
)

// PaymentHandler records gateway-reported payment outcomes. The gateway
// integration itself lives outside this API; clients post the result here
// so enrollment can be unlocked.
type PaymentHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(db *gorm.DB) *PaymentHandler {
	return &PaymentHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// ConfirmPaymentRequest represents a gateway payment result
type ConfirmPaymentRequest struct {
	CourseID   uint   `json:"course_id" validate:"required,min=1"`
	GatewayRef string `json:"gateway_ref" validate:"required,min=3,max=100"`
	Amount     int64  `json:"amount_cents" validate:"required,min=1"`
	Currency   string `json:"currency" validate:"omitempty,len=3,uppercase"`
	Status     string `json:"status" validate:"required,oneof=pending confirmed failed refunded"`
}

// ConfirmPayment handles POST /api/v1/payments. Replaying the same
// gateway reference is idempotent: the existing record is returned.
func (h *PaymentHandler) ConfirmPayment(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var course model.Course
	if err := h.db.First(&course, req.CourseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if course.IsFree() {
		return response.BadRequest(c, "Course is free; no payment needed")
	}

	currency := req.Currency
	if currency == "" {
		currency = course.Currency
	}

	payment := model.CoursePayment{
		UserID:     userID,
		CourseID:   req.CourseID,
		GatewayRef: validation.SanitizeString(req.GatewayRef),
		Amount:     req.Amount,
		Currency:   currency,
		Status:     model.PaymentStatus(req.Status),
	}

	if err := h.db.Create(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Gateway retried the webhook; the reference is already recorded
			var existing model.CoursePayment
			if err := h.db.Where("gateway_ref = ?", payment.GatewayRef).First(&existing).Error; err != nil {
				return response.InternalServerError(c, "Failed to fetch payment")
			}
			return response.Success(c, existing)
		}
		return response.InternalServerError(c, "Failed to record payment")
	}

	return response.Created(c, payment)
}

// ListPayments handles GET /api/v1/payments
func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var payments []model.CoursePayment
	if err := h.db.
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch payments")
	}

	return response.Success(c, payments)
}
