package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/school-portal-api/internal/config"
	"github.com/noah-isme/school-portal-api/internal/handler"
	"github.com/noah-isme/school-portal-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ClassroomHandler  *handler.ClassroomHandler
	AssignmentHandler *handler.AssignmentHandler
	GradebookHandler  *handler.GradebookHandler
	SubmissionHandler *handler.SubmissionHandler
	HealthChecks      map[string]handler.DependencyCheck
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	classrooms := api.Group("/classrooms", jwtMiddleware)

	if deps.ClassroomHandler != nil {
		deps.ClassroomHandler.Register(classrooms)
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(classrooms)
	}
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(classrooms)
	}
	if deps.GradebookHandler != nil {
		deps.GradebookHandler.Register(classrooms)
	}
}
