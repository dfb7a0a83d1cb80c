package model

import (
	"time"

	"gorm.io/gorm"
)

// QuestionType enumerates the supported question formats
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
)

// Quiz represents a graded quiz attached to a lesson
type Quiz struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	LessonID     uint           `gorm:"uniqueIndex;not null" json:"lesson_id"`
	Title        string         `gorm:"not null" json:"title"`
	PassingScore int            `gorm:"not null;default:70" json:"passing_score"` // 0-100, inclusive boundary

	// Relationships
	Lesson    Lesson         `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"-"`
	Questions []QuizQuestion `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

// QuizQuestion represents a single question inside a quiz.
// Correct-answer markers (option IsCorrect flags, CorrectAnswer text) are
// only ever serialized through the grading view; the learner view strips
// them before delivery.
type QuizQuestion struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	QuizID        uint           `gorm:"not null;index" json:"quiz_id"`
	Type          QuestionType   `gorm:"type:varchar(20);not null" json:"type"`
	Prompt        string         `gorm:"type:text;not null" json:"prompt"`
	Points        int            `gorm:"not null;default:1" json:"points"`
	Position      int            `gorm:"not null;default:0" json:"position"`
	CorrectAnswer string         `gorm:"type:text" json:"-"` // short-answer questions only

	// Relationships
	Quiz    Quiz         `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"-"`
	Options []QuizOption `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
}

// QuizOption represents a selectable answer for choice questions
type QuizOption struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	QuestionID uint           `gorm:"not null;index" json:"question_id"`
	Label      string         `gorm:"type:text;not null" json:"label"`
	Position   int            `gorm:"not null;default:0" json:"position"`
	IsCorrect  bool           `gorm:"default:false" json:"-"` // grading view only

	// Relationships
	Question QuizQuestion `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
}
