package model

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment represents a learner's membership in a course.
// The (user_id, course_id) pair carries a uniqueness constraint; the
// constraint, not application-level checks, is the authority against
// duplicate enrollments under concurrent requests.
type Enrollment struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time      `json:"created_at"` // enrollment timestamp
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	UserID          uint           `gorm:"not null;uniqueIndex:idx_enrollments_user_course" json:"user_id"`
	CourseID        uint           `gorm:"not null;uniqueIndex:idx_enrollments_user_course" json:"course_id"`
	ProgressPercent int            `gorm:"not null;default:0" json:"progress_percent"` // 0-100
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`                     // set iff ProgressPercent == 100

	// Relationships
	User           User             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Course         Course           `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	LessonProgress []LessonProgress `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE" json:"lesson_progress,omitempty"`
	QuizAttempts   []QuizAttempt    `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE" json:"-"`
	Certificate    *Certificate     `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE" json:"certificate,omitempty"`
}

// IsCompleted reports whether the enrollment has reached 100% progress
func (e *Enrollment) IsCompleted() bool {
	return e.CompletedAt != nil
}
