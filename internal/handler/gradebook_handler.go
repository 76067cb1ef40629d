package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/middleware"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/internal/utils"
)

// GradebookHandler serves grade settings, grade entry and grade reports.
type GradebookHandler struct {
	service service.GradebookService
	logger  zerolog.Logger
}

// NewGradebookHandler constructs a GradebookHandler.
func NewGradebookHandler(service service.GradebookService, logger zerolog.Logger) *GradebookHandler {
	return &GradebookHandler{
		service: service,
		logger:  logger.With().Str("component", "gradebook_handler").Logger(),
	}
}

// Register attaches the routes to the classrooms group.
func (h *GradebookHandler) Register(router fiber.Router) {
	router.Get("/:classroomId/grade-settings", h.settings)
	router.Put("/:classroomId/grade-settings", middleware.RequireStaff(), h.updateSettings)
	router.Put("/:classroomId/assignments/:assignmentId/grades/:studentId", middleware.RequireStaff(), h.recordGrade)
	router.Get("/:classroomId/grades/me", middleware.RequireRole(middleware.RoleStudent), h.myReport)
	router.Get("/:classroomId/grades/:studentId", middleware.RequireStaff(), h.studentReport)
}

func (h *GradebookHandler) settings(c *fiber.Ctx) error {
	settings, err := h.service.Settings(c.UserContext(), pathParam(c, "classroomId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "grade settings retrieved", settings)
}

func (h *GradebookHandler) updateSettings(c *fiber.Ctx) error {
	var payload dto.GradeSettingsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	classroom, err := h.service.UpdateSettings(c.UserContext(), pathParam(c, "classroomId"), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "grade settings updated", classroom.GradeSettings)
}

func (h *GradebookHandler) recordGrade(c *fiber.Ctx) error {
	var payload dto.GradeRecordRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	grade, err := h.service.RecordGrade(
		c.UserContext(),
		pathParam(c, "classroomId"),
		pathParam(c, "assignmentId"),
		pathParam(c, "studentId"),
		payload,
		actorFromContext(c),
	)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "grade recorded", grade)
}

func (h *GradebookHandler) myReport(c *fiber.Ctx) error {
	actor := actorFromContext(c)
	return h.report(c, actor.ID, actor)
}

func (h *GradebookHandler) studentReport(c *fiber.Ctx) error {
	return h.report(c, pathParam(c, "studentId"), actorFromContext(c))
}

func (h *GradebookHandler) report(c *fiber.Ctx, studentID string, actor service.Actor) error {
	if studentID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	report, err := h.service.Report(c.UserContext(), pathParam(c, "classroomId"), studentID, actor)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "grade report retrieved", report)
}
