package certificate

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/learnloft/api/services"
	"github.com/learnloft/api/utils/middleware"
	"github.com/learnloft/api/utils/pdfvalidation"
	"github.com/learnloft/api/utils/response"
)

// CertificateHandler handles certificate issuance and verification
type CertificateHandler struct {
	certificates *services.CertificateService
	enrollments  *services.EnrollmentService
}

// NewCertificateHandler creates a new certificate handler
func NewCertificateHandler(certificates *services.CertificateService, enrollments *services.EnrollmentService) *CertificateHandler {
	return &CertificateHandler{
		certificates: certificates,
		enrollments:  enrollments,
	}
}

// IssueCertificate handles POST /api/v1/enrollments/:id/certificate.
// Idempotent: re-issuing returns the existing certificate.
func (h *CertificateHandler) IssueCertificate(c *fiber.Ctx) error {
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

	certificate, err := h.certificates.Issue(c.Context(), enrollment.ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCourseNotCompleted):
			return response.BadRequest(c, "Course is not completed yet")
		case errors.Is(err, services.ErrEnrollmentNotFound):
			return response.NotFound(c, "Enrollment not found")
		default:
			return response.InternalServerError(c, "Failed to issue certificate")
		}
	}

	return response.Created(c, certificate)
}

// GetCertificate handles GET /api/v1/enrollments/:id/certificate
func (h *CertificateHandler) GetCertificate(c *fiber.Ctx) error {
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

	certificate, err := h.certificates.GetByEnrollment(c.Context(), enrollment.ID)
	if err != nil {
		if errors.Is(err, services.ErrCertificateNotFound) {
			return response.NotFound(c, "Certificate not issued yet")
		}
		return response.InternalServerError(c, "Failed to fetch certificate")
	}

	return response.Success(c, certificate)
}

// UploadDocument handles POST /api/v1/certificates/:id/document (admin).
// Attaches the rendered certificate PDF to an issued certificate; the
// document reference is the only certificate field that can change after
// issuance.
func (h *CertificateHandler) UploadDocument(c *fiber.Ctx) error {
	certificateID, err := c.ParamsInt("id")
	if err != nil || certificateID <= 0 {
		return response.BadRequest(c, "Invalid certificate id")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "Missing file upload")
	}

	result, err := pdfvalidation.ValidatePDFFile(file, pdfvalidation.DefaultLimits)
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

	pdfData, err := io.ReadAll(src)
	if err != nil {
		return response.InternalServerError(c, "Failed to read uploaded file")
	}

	certificate, err := h.certificates.AttachDocument(c.Context(), uint(certificateID), pdfData)
	if err != nil {
		if errors.Is(err, services.ErrCertificateNotFound) {
			return response.NotFound(c, "Certificate not found")
		}
		return response.ServiceUnavailable(c, "Failed to store certificate document")
	}

	return response.SuccessWithMessage(c, "Certificate document uploaded successfully", certificate)
}

// VerifyCertificate handles GET /api/v1/certificates/verify/:code. Public:
// no authentication, returns the public projection only.
func (h *CertificateHandler) VerifyCertificate(c *fiber.Ctx) error {
	code := c.Params("code")

	view, err := h.certificates.Verify(c.Context(), code)
	if err != nil {
		if errors.Is(err, services.ErrCertificateNotFound) {
			return response.NotFound(c, "Certificate not found or code is invalid")
		}
		return response.InternalServerError(c, "Failed to verify certificate")
	}

	return response.Success(c, view)
}
