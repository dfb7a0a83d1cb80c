package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/learnloft/api/model"
	"github.com/learnloft/api/services/storage"
	"github.com/learnloft/api/utils/cache"
	"github.com/learnloft/api/utils/crypto"
	"gorm.io/gorm"
)

const (
	certificateNumberPrefix = "CERT"

	// How long a public verification lookup may be served from cache.
	// Certificates are immutable once issued, so staleness only delays
	// the appearance of a brand-new document reference.
	verifyCacheTTL = 10 * time.Minute

	// Collision retries for the random certificate number suffix
	maxIssueAttempts = 3
)

// CertificateService issues completion certificates exactly once per
// enrollment and serves public verification lookups.
type CertificateService struct {
	db            *gorm.DB
	notifications *NotificationService
	objects       *storage.Client
	verifyCache   *cache.RedisCache
}

// NewCertificateService creates a new certificate service. The object
// store and cache are optional; issuance works without them.
func NewCertificateService(db *gorm.DB, notifications *NotificationService, objects *storage.Client, verifyCache *cache.RedisCache) *CertificateService {
	return &CertificateService{
		db:            db,
		notifications: notifications,
		objects:       objects,
		verifyCache:   verifyCache,
	}
}

// Issue creates the certificate for a completed enrollment. Issuance is
// idempotent: repeated calls return the existing certificate with the same
// number and verification code. Completion can be detected more than once
// (redundant progress writes), so the unique index on enrollment_id is the
// final authority; losing that race means re-fetching the winner's row.
func (s *CertificateService) Issue(ctx context.Context, enrollmentID uint) (*model.Certificate, error) {
	var enrollment model.Enrollment
	err := s.db.WithContext(ctx).
		Preload("Course").
		Preload("User").
		First(&enrollment, enrollmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to fetch enrollment: %w", err)
	}

	if !enrollment.IsCompleted() || enrollment.ProgressPercent < 100 {
		return nil, ErrCourseNotCompleted
	}

	// Fast path: already issued
	var existing model.Certificate
	err = s.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up certificate: %w", err)
	}

	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		number, err := generateCertificateNumber()
		if err != nil {
			return nil, err
		}
		code, err := crypto.GenerateVerificationCode()
		if err != nil {
			return nil, err
		}

		certificate := model.Certificate{
			EnrollmentID:     enrollmentID,
			Number:           number,
			VerificationCode: code,
			IssuedAt:         time.Now(),
		}

		err = s.db.WithContext(ctx).Create(&certificate).Error
		if err == nil {
			s.notifyIssued(ctx, &enrollment, &certificate)
			return &certificate, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to create certificate: %w", err)
		}

		// A unique-index violation either means a concurrent caller
		// issued for this enrollment first, or the random number/code
		// collided. The first case returns the winner; the second retries
		// with fresh identifiers.
		err = s.db.WithContext(ctx).
			Where("enrollment_id = ?", enrollmentID).
			First(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to re-fetch certificate after conflict: %w", err)
		}
	}

	return nil, fmt.Errorf("failed to generate a unique certificate number after %d attempts", maxIssueAttempts)
}

// GetByEnrollment returns the certificate for an enrollment, if issued
func (s *CertificateService) GetByEnrollment(ctx context.Context, enrollmentID uint) (*model.Certificate, error) {
	var certificate model.Certificate
	err := s.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		First(&certificate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to fetch certificate: %w", err)
	}
	return &certificate, nil
}

// Verify resolves a verification code into the public projection. Unknown
// codes return ErrCertificateNotFound so the public page can render a
// clear "not valid" state rather than a server error.
func (s *CertificateService) Verify(ctx context.Context, code string) (*model.PublicCertificateView, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrCertificateNotFound
	}

	if view, ok := s.cachedView(ctx, code); ok {
		return view, nil
	}

	var certificate model.Certificate
	err := s.db.WithContext(ctx).
		Preload("Enrollment.Course").
		Preload("Enrollment.User").
		Where("verification_code = ?", code).
		First(&certificate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to fetch certificate: %w", err)
	}

	view := &model.PublicCertificateView{
		Number:           certificate.Number,
		CourseTitle:      certificate.Enrollment.Course.Title,
		LearnerName:      certificate.Enrollment.User.Name,
		IssuedAt:         certificate.IssuedAt,
		VerificationCode: certificate.VerificationCode,
	}

	s.cacheView(ctx, code, view)

	return view, nil
}

// AttachDocument uploads a generated certificate PDF and records its URL.
// The document reference is the only mutable certificate field.
func (s *CertificateService) AttachDocument(ctx context.Context, certificateID uint, pdfData []byte) (*model.Certificate, error) {
	if s.objects == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}

	var certificate model.Certificate
	if err := s.db.WithContext(ctx).First(&certificate, certificateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to fetch certificate: %w", err)
	}

	key := storage.GenerateKey("certificates", certificate.Number+".pdf")
	url, err := s.objects.Upload(ctx, key, bytes.NewReader(pdfData), "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to upload certificate document: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&certificate).
		Update("document_url", url).Error; err != nil {
		return nil, fmt.Errorf("failed to record certificate document: %w", err)
	}

	certificate.DocumentURL = url
	return &certificate, nil
}

// generateCertificateNumber builds a human-readable certificate number:
// fixed prefix, base36-encoded issuance timestamp, short random suffix.
// Collisions are vanishingly rare but not impossible; the unique index
// plus the retry loop in Issue handles them.
func generateCertificateNumber() (string, error) {
	suffix, err := crypto.GenerateSuffix()
	if err != nil {
		return "", err
	}
	encodedTime := strings.ToUpper(strconv.FormatInt(time.Now().Unix(), 36))
	return fmt.Sprintf("%s-%s-%s", certificateNumberPrefix, encodedTime, strings.ToUpper(suffix)), nil
}

// cachedView looks up a verification code in the cache
func (s *CertificateService) cachedView(ctx context.Context, code string) (*model.PublicCertificateView, bool) {
	if s.verifyCache == nil {
		return nil, false
	}
	var view model.PublicCertificateView
	if err := s.verifyCache.GetJSON(ctx, verifyCacheKey(code), &view); err != nil {
		return nil, false
	}
	return &view, true
}

// cacheView stores a verification result; failures are non-fatal
func (s *CertificateService) cacheView(ctx context.Context, code string, view *model.PublicCertificateView) {
	if s.verifyCache == nil {
		return
	}
	if err := s.verifyCache.SetJSON(ctx, verifyCacheKey(code), view, verifyCacheTTL); err != nil {
		log.Printf("Failed to cache certificate verification for %s: %v", view.Number, err)
	}
}

func verifyCacheKey(code string) string {
	return "certificate:verify:" + code
}

// notifyIssued emits a certificate event; failures are logged only
func (s *CertificateService) notifyIssued(ctx context.Context, enrollment *model.Enrollment, certificate *model.Certificate) {
	if s.notifications == nil {
		return
	}
	_, err := s.notifications.CreateNotification(ctx, CreateNotificationRequest{
		UserID:   enrollment.UserID,
		Type:     model.NotificationTypeSuccess,
		Category: model.NotificationCategoryCertificate,
		Title:    "Certificate issued",
		Message:  fmt.Sprintf("Your certificate for %s has been issued.", enrollment.Course.Title),
		Metadata: &model.NotificationMetadata{
			CourseID:          enrollment.CourseID,
			CourseTitle:       enrollment.Course.Title,
			EnrollmentID:      enrollment.ID,
			CertificateNumber: certificate.Number,
		},
	})
	if err != nil {
		log.Printf("Failed to create certificate notification for user %d: %v", enrollment.UserID, err)
	}
}
