package model

import (
	"time"

	"gorm.io/gorm"
)

// PaymentStatus enumerates gateway-reported payment states
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// CoursePayment records the outcome reported by the external payment
// gateway for a paid course. The gateway protocol itself is out of scope;
// enrollment gating only cares whether a confirmed payment exists.
type CoursePayment struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"not null;index:idx_course_payments_user_course" json:"user_id"`
	CourseID   uint           `gorm:"not null;index:idx_course_payments_user_course" json:"course_id"`
	GatewayRef string         `gorm:"type:varchar(100);uniqueIndex" json:"gateway_ref"` // opaque gateway transaction reference
	Amount     int64          `gorm:"not null" json:"amount_cents"`
	Currency   string         `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	Status     PaymentStatus  `gorm:"type:varchar(20);default:'pending'" json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for CoursePayment
func (CoursePayment) TableName() string {
	return "course_payments"
}
