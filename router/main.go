package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/learnloft/api/database"
	"github.com/learnloft/api/handlers"
	auth_handlers "github.com/learnloft/api/handlers/auth"
	certificate_handlers "github.com/learnloft/api/handlers/certificate"
	course_handlers "github.com/learnloft/api/handlers/course"
	enrollment_handlers "github.com/learnloft/api/handlers/enrollment"
	notification_handlers "github.com/learnloft/api/handlers/notification"
	payment_handlers "github.com/learnloft/api/handlers/payment"
	progress_handlers "github.com/learnloft/api/handlers/progress"
	quiz_handlers "github.com/learnloft/api/handlers/quiz"
	"github.com/learnloft/api/services"
	"github.com/learnloft/api/services/storage"
	"github.com/learnloft/api/utils"
	"github.com/learnloft/api/utils/auth"
	"github.com/learnloft/api/utils/cache"
	"github.com/learnloft/api/utils/middleware"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "learnloft-api"
	}

	// Initialize JWT manager with config
	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize Redis cache for brute force protection and the
	// certificate verification cache
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection and verification caching will be disabled.", err)
	}

	// Initialize brute force protection
	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Initialize auth middleware with DB for blacklist checking
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Object storage is optional; without it lesson resources and
	// certificate documents cannot be uploaded but everything else works.
	objects, err := storage.NewClientFromEnv()
	if err != nil {
		log.Printf("Warning: Object storage not configured: %v. File uploads will be disabled.", err)
	}

	// Initialize services
	emailService := services.NewEmailService()
	notificationService := services.NewNotificationService(db)
	enrollmentService := services.NewEnrollmentService(db, notificationService)
	progressService := services.NewProgressService(db, enrollmentService)
	quizService := services.NewQuizService(db)
	certificateService := services.NewCertificateService(db, notificationService, objects, redisCache)

	// Initialize handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection, emailService)
	courseHandler := course_handlers.NewCourseHandler(db)
	lessonHandler := course_handlers.NewLessonHandler(db, objects)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(enrollmentService, progressService)
	progressHandler := progress_handlers.NewProgressHandler(progressService, enrollmentService)
	quizHandler := quiz_handlers.NewQuizHandler(db, quizService, enrollmentService)
	certificateHandler := certificate_handlers.NewCertificateHandler(certificateService, enrollmentService)
	paymentHandler := payment_handlers.NewPaymentHandler(db)
	notificationHandler := notification_handlers.NewNotificationHandler(notificationService)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/forgot-password", authHandler.ForgotPassword)
	authGroup.Post("/reset-password", authHandler.ResetPassword)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// ==================== Course Catalog ====================

	// Courses routes. Reads use Optional() auth so admins can see
	// unpublished courses; writes are admin only.
	courses := api.Group("/courses")
	courses.Get("/", authMiddleware.Optional(), courseHandler.ListCourses)
	courses.Get("/:id", authMiddleware.Optional(), courseHandler.GetCourse)
	courses.Post("/", authMiddleware.RequireAdmin(), courseHandler.CreateCourse)
	courses.Put("/:id", authMiddleware.RequireAdmin(), courseHandler.UpdateCourse)
	courses.Delete("/:id", authMiddleware.RequireAdmin(), courseHandler.DeleteCourse)

	// Lessons routes (nested under courses for listing/creation)
	courses.Get("/:id/lessons", authMiddleware.Optional(), lessonHandler.ListLessons)
	courses.Post("/:id/lessons", authMiddleware.RequireAdmin(), lessonHandler.CreateLesson)

	lessons := api.Group("/lessons")
	lessons.Put("/:id", authMiddleware.RequireAdmin(), lessonHandler.UpdateLesson)
	lessons.Delete("/:id", authMiddleware.RequireAdmin(), lessonHandler.DeleteLesson)
	lessons.Post("/:id/resource", authMiddleware.RequireAdmin(), lessonHandler.UploadResource)

	// Quiz routes. Learners fetch a sanitized view (no correct answers);
	// authoring replaces the whole quiz and is admin only.
	lessons.Get("/:id/quiz", authMiddleware.Required(), quizHandler.GetLessonQuiz)
	lessons.Post("/:id/quiz", authMiddleware.RequireAdmin(), quizHandler.CreateQuiz)

	// ==================== Enrollment & Progress ====================

	courses.Post("/:id/enroll", authMiddleware.Required(), enrollmentHandler.Enroll)

	enrollments := api.Group("/enrollments", authMiddleware.Required())
	enrollments.Get("/", enrollmentHandler.ListEnrollments)
	enrollments.Get("/:id", enrollmentHandler.GetEnrollment)
	enrollments.Get("/:id/progress", enrollmentHandler.GetEnrollmentProgress)
	enrollments.Post("/:id/progress", progressHandler.RecordProgress)

	// Quiz attempts
	enrollments.Post("/:id/quizzes/:quizId/attempts", quizHandler.SubmitQuiz)
	enrollments.Get("/:id/attempts", quizHandler.ListAttempts)

	// Certificates
	enrollments.Post("/:id/certificate", certificateHandler.IssueCertificate)
	enrollments.Get("/:id/certificate", certificateHandler.GetCertificate)

	// Public certificate verification
	api.Get("/certificates/verify/:code", certificateHandler.VerifyCertificate)

	// Rendered certificate document attachment (admin)
	api.Post("/certificates/:id/document", authMiddleware.RequireAdmin(), certificateHandler.UploadDocument)

	// ==================== Payments ====================

	payments := api.Group("/payments", authMiddleware.Required())
	payments.Post("/", paymentHandler.ConfirmPayment)
	payments.Get("/", paymentHandler.ListPayments)

	// ==================== Notifications ====================

	notifications := api.Group("/notifications", authMiddleware.Required())
	notifications.Get("/", notificationHandler.GetNotifications)
	notifications.Get("/unread-count", notificationHandler.GetUnreadCount)
	notifications.Put("/:id/read", notificationHandler.MarkAsRead)
	notifications.Put("/read-all", notificationHandler.MarkAllAsRead)
	notifications.Delete("/:id", notificationHandler.DeleteNotification)
	notifications.Delete("/", notificationHandler.DeleteAllNotifications)
}
