package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-admin-api/internal/dto"
	"github.com/noah-isme/lms-admin-api/internal/service"
	"github.com/noah-isme/lms-admin-api/internal/utils"
)

// CourseHandler wires admin course and course content endpoints.
type CourseHandler struct {
	service service.CourseService
	logger  zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service: service,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches course routes to the router group.
func (h *CourseHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)

	router.Get("/:id/lessons", h.listLessons)
	router.Post("/:id/lessons", h.createLesson)
	router.Delete("/:id/lessons/:lessonId", h.deleteLesson)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	courses, err := h.service.List(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list courses")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list courses")
	}

	return utils.OK(c, courses, "courses retrieved", fiber.Map{"total": len(courses)})
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	course, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err, "failed to fetch course")
	}

	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	image, err := optionalFile(c, "image")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid image upload")
	}

	course, err := h.service.Create(c.UserContext(), payload, image)
	if err != nil {
		return h.writeError(c, err, "failed to create course")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.CourseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	image, err := optionalFile(c, "image")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid image upload")
	}

	course, err := h.service.Update(c.UserContext(), id, payload, image)
	if err != nil {
		return h.writeError(c, err, "failed to update course")
	}

	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) delete(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return h.writeError(c, err, "failed to delete course")
	}

	return utils.SendSuccess(c, "course deleted", fiber.Map{"id": id})
}

func (h *CourseHandler) listLessons(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	lessons, err := h.service.ListLessons(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err, "failed to list lessons")
	}

	return utils.SendSuccess(c, "lessons retrieved", lessons)
}

func (h *CourseHandler) createLesson(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.LessonCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	files, err := multipartFiles(c, "files")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid file upload")
	}

	lesson, err := h.service.CreateLesson(c.UserContext(), id, payload, files)
	if err != nil {
		return h.writeError(c, err, "failed to create lesson")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson created", lesson)
}

func (h *CourseHandler) deleteLesson(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	lessonID, ok := pathID(c, "lessonId")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid lesson identifier")
	}

	if err := h.service.DeleteLesson(c.UserContext(), id, lessonID); err != nil {
		return h.writeError(c, err, "failed to delete lesson")
	}

	return utils.SendSuccess(c, "lesson deleted", fiber.Map{"id": lessonID})
}

func (h *CourseHandler) writeError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrLessonNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "lesson not found")
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrUploadTypeNotAllowed), errors.Is(err, service.ErrUploadScanFailed):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrLessonContentMissing):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, "validation failed", validationDetails(err))
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
