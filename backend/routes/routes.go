package routes

import (
	"time"

	"learnhub/backend/cache"
	"learnhub/backend/config"
	"learnhub/backend/controllers"
	"learnhub/backend/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(db, cfg)

	catalogCache := cache.New(rdb, "courses:", 5*time.Minute)

	// Auth + user routes
	authController := controllers.NewAuthController(db, cfg)
	userController := controllers.NewUserController(db, cfg)
	users := app.Group("/api/users")
	users.Post("/", authController.Register)
	users.Post("/login", authController.Login)
	users.Get("/profile", authMiddleware, userController.GetProfile)
	users.Put("/profile", authMiddleware, userController.UpdateProfile)
	users.Post("/purchase-course", authMiddleware, userController.PurchaseCourse)
	users.Put("/course-progress", authMiddleware, userController.UpdateCourseProgress)
	users.Get("/watched-videos", authMiddleware, userController.GetWatchedVideos)
	users.Put("/settings", authMiddleware, userController.UpdateSettings)

	// Courses routes; the static paths must register before /:id
	coursesController := controllers.NewCoursesController(db, cfg, catalogCache)
	courses := app.Group("/api/courses")
	courses.Get("/", coursesController.GetCourses)
	courses.Get("/stats/cards", coursesController.GetStatsCards)
	courses.Get("/my-courses", authMiddleware, coursesController.GetMyCourses)
	courses.Get("/:id", coursesController.GetCourseByID)
	courses.Get("/:id/learning", authMiddleware, coursesController.GetLearningData)

	// Admin course management
	courses.Post("/", authMiddleware, adminMiddleware, coursesController.CreateCourse)
	courses.Delete("/:id", authMiddleware, adminMiddleware, coursesController.DeleteCourse)
	courses.Post("/:courseId/modules", authMiddleware, adminMiddleware, coursesController.AddModules)
	courses.Post("/:courseId/modules/:moduleId/lessons", authMiddleware, adminMiddleware, coursesController.AddLessons)
	courses.Post("/:courseId/subtopics", authMiddleware, adminMiddleware, coursesController.AddSubtopics)
	courses.Put("/:courseId/lessons/:lessonId/video", authMiddleware, adminMiddleware, coursesController.UpdateLessonVideo)

	// Sidebar routes
	sidebarController := controllers.NewSidebarController(db, cfg)
	app.Get("/api/sidebar/navigation", authMiddleware, sidebarController.GetNavigationItems)
}
