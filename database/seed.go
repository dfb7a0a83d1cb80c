package database

import (
	"fmt"
	"log"
	"os"

	"github.com/learnloft/api/model"
	"github.com/learnloft/api/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedSampleCourse(); err != nil {
		return fmt.Errorf("failed to seed sample course: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user
func (s *Seeder) SeedAdminUser() error {
	// Check if admin already exists
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", "admin").Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Admin user already exists, skipping...")
		return nil
	}

	// Get admin credentials from environment variables
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️  ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin user creation")
		return nil
	}

	// Hash password
	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Name:         "System Administrator",
		Role:         "admin",
		TokenVersion: 0,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Created admin user: %s\n", admin.Email)
	return nil
}

// SeedSampleCourse creates a free sample course with lessons and a quiz so
// a fresh install has something to enroll in.
func (s *Seeder) SeedSampleCourse() error {
	var count int64
	if err := s.db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Courses already exist, skipping...")
		return nil
	}

	course := model.Course{
		Title:       "Getting Started with Go",
		Slug:        "getting-started-with-go",
		Description: "A short introductory course covering Go syntax, tooling, and idioms.",
		PriceCents:  0,
		Currency:    "USD",
		Published:   true,
		Lessons: []model.Lesson{
			{
				Title:           "Installing Go and Your First Program",
				Position:        1,
				DurationSeconds: 540,
			},
			{
				Title:           "Types, Functions and Packages",
				Position:        2,
				DurationSeconds: 780,
			},
			{
				Title:           "Errors and Testing",
				Position:        3,
				DurationSeconds: 660,
			},
		},
	}

	if err := s.db.Create(&course).Error; err != nil {
		return err
	}

	// Attach a quiz to the final lesson
	finalLesson := course.Lessons[len(course.Lessons)-1]
	quiz := model.Quiz{
		LessonID:     finalLesson.ID,
		Title:        "Course Checkpoint",
		PassingScore: 70,
		Questions: []model.QuizQuestion{
			{
				Type:     model.QuestionTypeMultipleChoice,
				Prompt:   "Which keyword declares a new variable with inferred type?",
				Points:   1,
				Position: 1,
				Options: []model.QuizOption{
					{Label: "var x int = 1", Position: 1},
					{Label: "x := 1", Position: 2, IsCorrect: true},
					{Label: "let x = 1", Position: 3},
				},
			},
			{
				Type:     model.QuestionTypeTrueFalse,
				Prompt:   "Go functions can return multiple values.",
				Points:   1,
				Position: 2,
				Options: []model.QuizOption{
					{Label: "True", Position: 1, IsCorrect: true},
					{Label: "False", Position: 2},
				},
			},
			{
				Type:          model.QuestionTypeShortAnswer,
				Prompt:        "What command runs the tests in the current package?",
				Points:        2,
				Position:      3,
				CorrectAnswer: "go test",
			},
		},
	}

	if err := s.db.Create(&quiz).Error; err != nil {
		return err
	}

	log.Printf("✅ Created sample course: %s with %d lessons\n", course.Title, len(course.Lessons))
	return nil
}
