package model

import (
	"time"

	"gorm.io/gorm"
)

// LessonProgress tracks how far a learner has watched a single lesson.
// One row per (enrollment_id, lesson_id); progress reports upsert into it.
type LessonProgress struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	EnrollmentID   uint           `gorm:"not null;uniqueIndex:idx_lesson_progress_enrollment_lesson" json:"enrollment_id"`
	LessonID       uint           `gorm:"not null;uniqueIndex:idx_lesson_progress_enrollment_lesson" json:"lesson_id"`
	WatchedSeconds int            `gorm:"not null;default:0" json:"watched_seconds"` // cumulative, not incremental
	Completed      bool           `gorm:"not null;default:false" json:"completed"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`

	// Relationships
	Enrollment Enrollment `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE" json:"-"`
	Lesson     Lesson     `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"lesson,omitempty"`
}

// TableName specifies the table name for LessonProgress
func (LessonProgress) TableName() string {
	return "lesson_progress"
}
