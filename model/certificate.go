package model

import (
	"time"

	"gorm.io/gorm"
)

// Certificate represents a completion certificate for an enrollment.
// At most one certificate exists per enrollment; the unique index on
// enrollment_id backs idempotent issuance. Number and VerificationCode are
// part of a public, append-only namespace and must never change once issued.
type Certificate struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	EnrollmentID     uint           `gorm:"uniqueIndex;not null" json:"enrollment_id"`
	Number           string         `gorm:"uniqueIndex;not null;type:varchar(50)" json:"number"`
	VerificationCode string         `gorm:"uniqueIndex;not null;type:varchar(64)" json:"verification_code"`
	IssuedAt         time.Time      `gorm:"not null" json:"issued_at"`
	DocumentURL      string         `gorm:"type:varchar(512)" json:"document_url,omitempty"` // generated PDF, attached after issuance

	// Relationships
	Enrollment Enrollment `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE" json:"-"`
}

// PublicCertificateView is the minimal projection served by the
// unauthenticated verification endpoint. It deliberately excludes
// enrollment internals, learner id, and payment data.
type PublicCertificateView struct {
	Number           string    `json:"number"`
	CourseTitle      string    `json:"course_title"`
	LearnerName      string    `json:"learner_name"`
	IssuedAt         time.Time `json:"issued_at"`
	VerificationCode string    `json:"verification_code"`
}
