package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-admin-api/internal/dto"
	"github.com/noah-isme/lms-admin-api/internal/middleware"
	"github.com/noah-isme/lms-admin-api/internal/service"
	"github.com/noah-isme/lms-admin-api/internal/utils"
)

// ProgressHandler exposes student progress reports and the activity writes feeding them.
type ProgressHandler struct {
	service service.StudentProgressService
	logger  zerolog.Logger
}

// NewProgressHandler constructs the handler.
func NewProgressHandler(service service.StudentProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// RegisterAdmin attaches the report route to the admin students group.
func (h *ProgressHandler) RegisterAdmin(router fiber.Router) {
	router.Get("/:id/progress", h.report)
}

// RegisterStudent attaches routes acting on the authenticated student.
func (h *ProgressHandler) RegisterStudent(router fiber.Router) {
	router.Get("/progress", h.ownReport)
	router.Post("/courses/:courseId/lessons/:lessonId/attempts", h.recordAttempt)
	router.Put("/courses/:courseId/lessons/:lessonId/state", h.updateState)
}

func (h *ProgressHandler) report(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	return h.respondReport(c, id)
}

func (h *ProgressHandler) ownReport(c *fiber.Ctx) error {
	studentID := middleware.UserID(c)
	if studentID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return h.respondReport(c, studentID)
}

func (h *ProgressHandler) respondReport(c *fiber.Ctx, studentID string) error {
	report, cacheHit, err := h.service.GetReport(c.UserContext(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Str("student_id", studentID).Msg("failed to build progress report")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to build progress report")
	}

	return utils.OK(c, report, "progress report retrieved", fiber.Map{"cache_hit": cacheHit})
}

func (h *ProgressHandler) recordAttempt(c *fiber.Ctx) error {
	studentID := middleware.UserID(c)
	if studentID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var payload dto.QuizAttemptCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	attempt, err := h.service.RecordAttempt(c.UserContext(), studentID, c.Params("courseId"), c.Params("lessonId"), payload)
	if err != nil {
		return h.writeError(c, err, "failed to record attempt")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attempt recorded", attempt)
}

func (h *ProgressHandler) updateState(c *fiber.Ctx) error {
	studentID := middleware.UserID(c)
	if studentID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var payload dto.LessonStateUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	state, err := h.service.UpdateLessonState(c.UserContext(), studentID, c.Params("courseId"), c.Params("lessonId"), payload)
	if err != nil {
		return h.writeError(c, err, "failed to update lesson state")
	}

	return utils.SendSuccess(c, "lesson state updated", state)
}

func (h *ProgressHandler) writeError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrLessonNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "lesson not found")
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, "validation failed", validationDetails(err))
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
