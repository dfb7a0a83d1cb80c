package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizAttempt records a single graded submission. Attempts are append-only:
// score and passed are computed once at submission time and never mutated;
// re-attempts create new rows.
type QuizAttempt struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	EnrollmentID uint           `gorm:"not null;index" json:"enrollment_id"`
	QuizID       uint           `gorm:"not null;index" json:"quiz_id"`
	Answers      datatypes.JSON `gorm:"type:jsonb" json:"answers"` // raw submitted answer map
	Score        int            `gorm:"not null" json:"score"`     // 0-100
	Passed       bool           `gorm:"not null" json:"passed"`
	CorrectCount int            `gorm:"not null" json:"correct_count"`
	StartedAt    time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt  time.Time      `gorm:"not null" json:"completed_at"`

	// Relationships
	Enrollment Enrollment `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE" json:"-"`
	Quiz       Quiz       `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"quiz,omitempty"`
}

// TableName specifies the table name for QuizAttempt
func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
