package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/lms-admin-api/internal/config"
	"github.com/noah-isme/lms-admin-api/internal/handler"
	"github.com/noah-isme/lms-admin-api/internal/middleware"
	"github.com/noah-isme/lms-admin-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	TutorHandler        *handler.TutorHandler
	AdminStudentHandler *handler.AdminStudentHandler
	CourseHandler       *handler.CourseHandler
	ProgressHandler     *handler.ProgressHandler
	DashboardHandler    *handler.AdminAnalyticsHandler
	HealthChecks        map[string]handler.DependencyCheck
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Common v1 group for health, login and the tutor
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth", middleware.RateLimit("auth", 10, time.Minute)))
	}
	if deps.TutorHandler != nil {
		deps.TutorHandler.Register(api.Group("/tutor", middleware.RateLimit("tutor", 30, time.Minute)))
	}

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	admin := app.Group("/api/admin", jwtMiddleware, middleware.RequireRole("admin"))
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(admin.Group("/dashboard"))
	}
	if deps.AdminStudentHandler != nil || deps.ProgressHandler != nil {
		students := admin.Group("/students")
		if deps.ProgressHandler != nil {
			deps.ProgressHandler.RegisterAdmin(students)
		}
		if deps.AdminStudentHandler != nil {
			deps.AdminStudentHandler.Register(students)
		}
	}
	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(admin.Group("/courses"))
	}

	// Student activity feeding the progress reports
	if deps.ProgressHandler != nil {
		student := app.Group("/api/v2/student", jwtMiddleware, middleware.RequireRole("student"))
		deps.ProgressHandler.RegisterStudent(student)
	}
}
