package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/learnloft/api/model"
	"gorm.io/gorm"
)

// EnrollmentService creates and transitions enrollments. Duplicate
// prevention is delegated to the store's uniqueness constraint on
// (user_id, course_id); the service recovers from constraint violations
// instead of checking first.
type EnrollmentService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(db *gorm.DB, notifications *NotificationService) *EnrollmentService {
	return &EnrollmentService{
		db:            db,
		notifications: notifications,
	}
}

// EnrollResult is a tagged outcome so callers can distinguish a fresh
// enrollment from an existing one without re-querying.
type EnrollResult struct {
	Enrollment      *model.Enrollment
	AlreadyEnrolled bool
}

// Enroll creates an enrollment for the (user, course) pair. Paid courses
// require a confirmed payment record. Two concurrent calls for the same
// pair never produce two rows: the insert races to the unique index and
// the loser re-fetches the winner's row.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, courseID uint) (*EnrollResult, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to fetch course: %w", err)
	}

	if !course.Published {
		return nil, ErrCourseNotPublished
	}

	if !course.IsFree() {
		confirmed, err := s.hasConfirmedPayment(ctx, userID, courseID)
		if err != nil {
			return nil, err
		}
		if !confirmed {
			return nil, ErrPaymentRequired
		}
	}

	// Fast path: return the existing row before attempting an insert
	var existing model.Enrollment
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&existing).Error
	if err == nil {
		return &EnrollResult{Enrollment: &existing, AlreadyEnrolled: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up enrollment: %w", err)
	}

	enrollment := model.Enrollment{
		UserID:          userID,
		CourseID:        courseID,
		ProgressPercent: 0,
	}

	if err := s.db.WithContext(ctx).Create(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race to a concurrent enroll; the winner's row is
			// the enrollment.
			if err := s.db.WithContext(ctx).
				Where("user_id = ? AND course_id = ?", userID, courseID).
				First(&existing).Error; err != nil {
				return nil, fmt.Errorf("failed to re-fetch enrollment after conflict: %w", err)
			}
			return &EnrollResult{Enrollment: &existing, AlreadyEnrolled: true}, nil
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	s.notifyEnrolled(ctx, userID, &course, &enrollment)

	return &EnrollResult{Enrollment: &enrollment}, nil
}

// MarkCompleted transitions an enrollment to the completed state. The
// transition is one-way and idempotent: a second call returns the already
// completed record without touching the completion timestamp.
func (s *EnrollmentService) MarkCompleted(ctx context.Context, enrollmentID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := s.db.WithContext(ctx).First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to fetch enrollment: %w", err)
	}

	if enrollment.IsCompleted() {
		return &enrollment, nil
	}

	now := time.Now()

	// Guard the update on completed_at IS NULL so concurrent completion
	// detections set the timestamp exactly once.
	result := s.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("id = ? AND completed_at IS NULL", enrollmentID).
		Updates(map[string]interface{}{
			"progress_percent": 100,
			"completed_at":     now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to mark enrollment completed: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Another writer completed it first; re-read for the original timestamp
		if err := s.db.WithContext(ctx).First(&enrollment, enrollmentID).Error; err != nil {
			return nil, fmt.Errorf("failed to re-fetch completed enrollment: %w", err)
		}
		return &enrollment, nil
	}

	enrollment.ProgressPercent = 100
	enrollment.CompletedAt = &now

	s.notifyCompleted(ctx, &enrollment)

	return &enrollment, nil
}

// GetByID fetches an enrollment with its course preloaded
func (s *EnrollmentService) GetByID(ctx context.Context, enrollmentID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := s.db.WithContext(ctx).Preload("Course").First(&enrollment, enrollmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to fetch enrollment: %w", err)
	}
	return &enrollment, nil
}

// ListByUser returns all enrollments for a learner, newest first
func (s *EnrollmentService) ListByUser(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := s.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

// hasConfirmedPayment checks whether the gateway has reported a confirmed
// payment for this (user, course) pair
func (s *EnrollmentService) hasConfirmedPayment(ctx context.Context, userID, courseID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.CoursePayment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, model.PaymentStatusConfirmed).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check payment: %w", err)
	}
	return count > 0, nil
}

// notifyEnrolled emits an enrollment event. Delivery failures are logged
// and never propagated; the engine does not block on the sink.
func (s *EnrollmentService) notifyEnrolled(ctx context.Context, userID uint, course *model.Course, enrollment *model.Enrollment) {
	if s.notifications == nil {
		return
	}
	_, err := s.notifications.CreateNotification(ctx, CreateNotificationRequest{
		UserID:   userID,
		Type:     model.NotificationTypeInfo,
		Category: model.NotificationCategoryEnrollment,
		Title:    "Enrolled in " + course.Title,
		Message:  fmt.Sprintf("You are now enrolled in %s.", course.Title),
		Metadata: &model.NotificationMetadata{
			CourseID:     course.ID,
			CourseTitle:  course.Title,
			EnrollmentID: enrollment.ID,
		},
	})
	if err != nil {
		log.Printf("Failed to create enrollment notification for user %d: %v", userID, err)
	}
}

// notifyCompleted emits a course-completion event
func (s *EnrollmentService) notifyCompleted(ctx context.Context, enrollment *model.Enrollment) {
	if s.notifications == nil {
		return
	}

	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, enrollment.CourseID).Error; err != nil {
		log.Printf("Failed to load course %d for completion notification: %v", enrollment.CourseID, err)
		return
	}

	_, err := s.notifications.CreateNotification(ctx, CreateNotificationRequest{
		UserID:   enrollment.UserID,
		Type:     model.NotificationTypeSuccess,
		Category: model.NotificationCategoryCompletion,
		Title:    "Course completed",
		Message:  fmt.Sprintf("Congratulations, you completed %s! Your certificate is ready to be issued.", course.Title),
		Metadata: &model.NotificationMetadata{
			CourseID:        course.ID,
			CourseTitle:     course.Title,
			EnrollmentID:    enrollment.ID,
			ProgressPercent: 100,
		},
	})
	if err != nil {
		log.Printf("Failed to create completion notification for user %d: %v", enrollment.UserID, err)
	}
}
