package services

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/learnloft/api/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupIntegrationDB connects to the test database declared via
// TEST_DATABASE_URL. The whole file is skipped unless
// RUN_INTEGRATION_TESTS=true.
func setupIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run.")
	}

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Lesson{},
		&model.Quiz{},
		&model.QuizQuestion{},
		&model.QuizOption{},
		&model.Enrollment{},
		&model.LessonProgress{},
		&model.QuizAttempt{},
		&model.Certificate{},
		&model.CoursePayment{},
		&model.UserNotification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func createTestLearner(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	user := &model.User{
		Email:        fmt.Sprintf("learner-%d@example.com", time.Now().UnixNano()),
		PasswordHash: "x",
		Name:         "Test Learner",
		Role:         "learner",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	t.Cleanup(func() { db.Unscoped().Delete(user) })
	return user
}

func createTestCourse(t *testing.T, db *gorm.DB, lessonCount int) *model.Course {
	t.Helper()
	course := &model.Course{
		Title:      "Integration Course",
		Slug:       fmt.Sprintf("integration-course-%d", time.Now().UnixNano()),
		PriceCents: 0,
		Currency:   "USD",
		Published:  true,
	}
	for i := 1; i <= lessonCount; i++ {
		course.Lessons = append(course.Lessons, model.Lesson{
			Title:    fmt.Sprintf("Lesson %d", i),
			Position: i,
		})
	}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("failed to create test course: %v", err)
	}
	t.Cleanup(func() {
		db.Unscoped().Where("course_id = ?", course.ID).Delete(&model.Lesson{})
		db.Unscoped().Delete(course)
	})
	return course
}

// TestEnrollmentLifecycle exercises the full path: enroll, watch every
// lesson to completion, then issue and publicly verify the certificate.
func TestEnrollmentLifecycle(t *testing.T) {
	db := setupIntegrationDB(t)
	ctx := context.Background()

	notifications := NewNotificationService(db)
	enrollments := NewEnrollmentService(db, notifications)
	progress := NewProgressService(db, enrollments)
	certificates := NewCertificateService(db, notifications, nil, nil)

	user := createTestLearner(t, db)
	course := createTestCourse(t, db, 3)

	// Enroll
	result, err := enrollments.Enroll(ctx, user.ID, course.ID)
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if result.AlreadyEnrolled {
		t.Fatal("fresh enrollment reported AlreadyEnrolled")
	}
	enrollmentID := result.Enrollment.ID
	t.Cleanup(func() {
		db.Unscoped().Where("enrollment_id = ?", enrollmentID).Delete(&model.LessonProgress{})
		db.Unscoped().Where("enrollment_id = ?", enrollmentID).Delete(&model.Certificate{})
		db.Unscoped().Delete(&model.Enrollment{}, enrollmentID)
	})

	// Re-enrolling is a no-op that returns the same row
	again, err := enrollments.Enroll(ctx, user.ID, course.ID)
	if err != nil {
		t.Fatalf("repeat Enroll failed: %v", err)
	}
	if !again.AlreadyEnrolled || again.Enrollment.ID != enrollmentID {
		t.Fatalf("repeat Enroll did not return the existing enrollment: %+v", again)
	}

	// Certificate before completion must be refused
	if _, err := certificates.Issue(ctx, enrollmentID); err != ErrCourseNotCompleted {
		t.Fatalf("expected ErrCourseNotCompleted before completion, got %v", err)
	}

	// Complete each lesson in turn and watch the aggregate climb
	wantPercents := []int{33, 67, 100}
	for i, lesson := range course.Lessons {
		if _, err := progress.RecordProgress(ctx, enrollmentID, lesson.ID, 600, true); err != nil {
			t.Fatalf("RecordProgress for lesson %d failed: %v", lesson.ID, err)
		}

		enrollment, err := enrollments.GetByID(ctx, enrollmentID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if enrollment.ProgressPercent != wantPercents[i] {
			t.Errorf("after lesson %d expected %d%%, got %d%%", i+1, wantPercents[i], enrollment.ProgressPercent)
		}
	}

	enrollment, err := enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !enrollment.IsCompleted() {
		t.Fatal("enrollment not marked completed at 100%")
	}

	// Issue is idempotent
	cert, err := certificates.Issue(ctx, enrollmentID)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	certAgain, err := certificates.Issue(ctx, enrollmentID)
	if err != nil {
		t.Fatalf("repeat Issue failed: %v", err)
	}
	if cert.Number != certAgain.Number || cert.VerificationCode != certAgain.VerificationCode {
		t.Fatalf("repeat Issue returned a different certificate: %s vs %s", cert.Number, certAgain.Number)
	}

	// Public verification resolves the code without auth context
	view, err := certificates.Verify(ctx, cert.VerificationCode)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if view.Number != cert.Number {
		t.Errorf("verification returned number %s, want %s", view.Number, cert.Number)
	}
	if view.CourseTitle != course.Title {
		t.Errorf("verification returned course %q, want %q", view.CourseTitle, course.Title)
	}
	if view.LearnerName != user.Name {
		t.Errorf("verification returned learner %q, want %q", view.LearnerName, user.Name)
	}

	// An unknown code is a clean not-found
	if _, err := certificates.Verify(ctx, "00000000000000000000000000000000"); err != ErrCertificateNotFound {
		t.Errorf("expected ErrCertificateNotFound for unknown code, got %v", err)
	}

	// Document attachment needs an object store; without one the failure
	// is explicit rather than a partial write
	if _, err := certificates.AttachDocument(ctx, cert.ID, []byte("%PDF-1.4")); err == nil {
		t.Error("AttachDocument without object storage must fail")
	}
}

// TestProgressNeverReverts checks that a completed lesson stays completed
// across redundant reports and that the first completion timestamp wins.
func TestProgressNeverReverts(t *testing.T) {
	db := setupIntegrationDB(t)
	ctx := context.Background()

	notifications := NewNotificationService(db)
	enrollments := NewEnrollmentService(db, notifications)
	progress := NewProgressService(db, enrollments)

	user := createTestLearner(t, db)
	course := createTestCourse(t, db, 2)

	result, err := enrollments.Enroll(ctx, user.ID, course.ID)
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	enrollmentID := result.Enrollment.ID
	t.Cleanup(func() {
		db.Unscoped().Where("enrollment_id = ?", enrollmentID).Delete(&model.LessonProgress{})
		db.Unscoped().Delete(&model.Enrollment{}, enrollmentID)
	})

	lessonID := course.Lessons[0].ID

	first, err := progress.RecordProgress(ctx, enrollmentID, lessonID, 300, true)
	if err != nil {
		t.Fatalf("RecordProgress failed: %v", err)
	}
	if first.CompletedAt == nil {
		t.Fatal("completed report did not set completion timestamp")
	}

	// A later report without the completed flag must not revert the lesson
	second, err := progress.RecordProgress(ctx, enrollmentID, lessonID, 450, false)
	if err != nil {
		t.Fatalf("redundant RecordProgress failed: %v", err)
	}
	if !second.Completed {
		t.Error("completed lesson reverted to incomplete")
	}
	if second.WatchedSeconds != 450 {
		t.Errorf("watched seconds not updated: got %d, want 450", second.WatchedSeconds)
	}
	if second.CompletedAt == nil || !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Error("original completion timestamp was not preserved")
	}
}
