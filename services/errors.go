package services

import "errors"

// Sentinel errors for the progress and certification engine. Handlers map
// each one to a distinct HTTP outcome; none of them may collapse into a
// generic failure.
var (
	// Not-found conditions
	ErrCourseNotFound      = errors.New("course not found")
	ErrLessonNotFound      = errors.New("lesson not found")
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrEnrollmentNotFound  = errors.New("enrollment not found")
	ErrCertificateNotFound = errors.New("certificate not found")

	// Precondition failures. Re-enrollment is not an error: Enroll reports
	// it through EnrollResult.AlreadyEnrolled alongside the existing row.
	ErrPaymentRequired    = errors.New("a confirmed payment is required to enroll in this course")
	ErrCourseNotCompleted = errors.New("course is not completed")
	ErrCourseNotPublished = errors.New("course is not published")
)
