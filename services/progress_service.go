package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/learnloft/api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressService records lesson watch progress and drives the completion
// transition. Recomputation only ever runs as a side effect of a progress
// write; there is no background sweep.
type ProgressService struct {
	db          *gorm.DB
	enrollments *EnrollmentService
}

// NewProgressService creates a new progress service
func NewProgressService(db *gorm.DB, enrollments *EnrollmentService) *ProgressService {
	return &ProgressService{
		db:          db,
		enrollments: enrollments,
	}
}

// RecordProgress upserts the (enrollment, lesson) progress row and
// recomputes the enrollment's aggregate percentage against the live lesson
// count. Watched durations are cumulative: the supplied value replaces the
// stored one. A lesson that was already completed stays completed, and its
// original completion timestamp is preserved across redundant reports.
// If the recomputed percentage reaches 100 the enrollment is marked
// completed inside the same logical operation.
func (s *ProgressService) RecordProgress(ctx context.Context, enrollmentID, lessonID uint, watchedSeconds int, completed bool) (*model.LessonProgress, error) {
	var enrollment model.Enrollment
	if err := s.db.WithContext(ctx).First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to fetch enrollment: %w", err)
	}

	var lesson model.Lesson
	if err := s.db.WithContext(ctx).
		Where("id = ? AND course_id = ?", lessonID, enrollment.CourseID).
		First(&lesson).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to fetch lesson: %w", err)
	}

	if watchedSeconds < 0 {
		watchedSeconds = 0
	}

	progress := model.LessonProgress{
		EnrollmentID:   enrollmentID,
		LessonID:       lessonID,
		WatchedSeconds: watchedSeconds,
		Completed:      completed,
	}
	if completed {
		now := time.Now()
		progress.CompletedAt = &now
	}

	// Atomic upsert on the (enrollment_id, lesson_id) unique index. A
	// completed lesson never reverts, and the first completion timestamp
	// wins over later redundant reports.
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "enrollment_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"watched_seconds": gorm.Expr("excluded.watched_seconds"),
			"completed":       gorm.Expr("lesson_progress.completed OR excluded.completed"),
			"completed_at":    gorm.Expr("COALESCE(lesson_progress.completed_at, excluded.completed_at)"),
			"updated_at":      gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&progress).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert lesson progress: %w", err)
	}

	// Re-read so the caller sees the merged row, not the insert candidate
	if err := s.db.WithContext(ctx).
		Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).
		First(&progress).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch lesson progress: %w", err)
	}

	if err := s.recomputeEnrollmentProgress(ctx, &enrollment); err != nil {
		return nil, err
	}

	return &progress, nil
}

// ListByEnrollment returns all progress rows for an enrollment
func (s *ProgressService) ListByEnrollment(ctx context.Context, enrollmentID uint) ([]model.LessonProgress, error) {
	var rows []model.LessonProgress
	err := s.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("lesson_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lesson progress: %w", err)
	}
	return rows, nil
}

// recomputeEnrollmentProgress recalculates the aggregate percentage from
// the live lesson count. Each concurrent progress write triggers its own
// pass; the recomputation is idempotent for a given set of counts, so
// interleavings converge without a lock. A completed enrollment is never
// reverted, even if lessons were added to the course afterwards.
func (s *ProgressService) recomputeEnrollmentProgress(ctx context.Context, enrollment *model.Enrollment) error {
	var totalLessons int64
	if err := s.db.WithContext(ctx).Model(&model.Lesson{}).
		Where("course_id = ?", enrollment.CourseID).
		Count(&totalLessons).Error; err != nil {
		return fmt.Errorf("failed to count course lessons: %w", err)
	}

	// A course with no lessons stays at 0% and never completes
	if totalLessons == 0 {
		return nil
	}

	var completedLessons int64
	if err := s.db.WithContext(ctx).Model(&model.LessonProgress{}).
		Where("enrollment_id = ? AND completed = ?", enrollment.ID, true).
		Count(&completedLessons).Error; err != nil {
		return fmt.Errorf("failed to count completed lessons: %w", err)
	}

	percent := ComputeProgressPercent(int(completedLessons), int(totalLessons))

	// Guarded on completed_at IS NULL: completion is one-way
	if err := s.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("id = ? AND completed_at IS NULL", enrollment.ID).
		Update("progress_percent", percent).Error; err != nil {
		return fmt.Errorf("failed to update enrollment progress: %w", err)
	}

	if percent == 100 {
		if _, err := s.enrollments.MarkCompleted(ctx, enrollment.ID); err != nil {
			return fmt.Errorf("failed to complete enrollment: %w", err)
		}
	}

	return nil
}

// ComputeProgressPercent rounds 100*completed/total to the nearest integer.
// total must be positive; callers skip recomputation for empty courses.
// 100 is reserved for full completion: rounding alone must never report it
// while a lesson is still outstanding, since 100 triggers the completion
// transition.
func ComputeProgressPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	percent := int(math.Round(100 * float64(completed) / float64(total)))
	if percent > 99 {
		percent = 99
	}
	return percent
}
