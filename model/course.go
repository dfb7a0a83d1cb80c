package model

import (
	"time"

	"gorm.io/gorm"
)

// Course represents a published course in the catalog
type Course struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Title       string         `gorm:"not null" json:"title"`
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"` // e.g., "intro-to-go"
	Description string         `gorm:"type:text" json:"description"`
	PriceCents  int64          `gorm:"default:0" json:"price_cents"` // 0 means free
	Currency    string         `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	Published   bool           `gorm:"default:false;index" json:"published"`

	// Relationships
	Lessons     []Lesson     `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
	Enrollments []Enrollment `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsFree reports whether the course can be enrolled without a payment
func (c *Course) IsFree() bool {
	return c.PriceCents == 0
}

// Lesson represents a single unit of course content
type Lesson struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID        uint           `gorm:"not null;index" json:"course_id"`
	Title           string         `gorm:"not null" json:"title"`
	Position        int            `gorm:"not null;default:0" json:"position"` // display order within the course
	DurationSeconds int            `gorm:"default:0" json:"duration_seconds"`
	VideoURL        string         `gorm:"type:varchar(512)" json:"video_url"` // opaque CDN reference
	ResourceURL     string         `gorm:"type:varchar(512)" json:"resource_url,omitempty"`
	ResourceKey     string         `gorm:"type:varchar(255)" json:"-"` // object storage key for the uploaded resource

	// Relationships
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Quiz   *Quiz  `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"quiz,omitempty"`
}
