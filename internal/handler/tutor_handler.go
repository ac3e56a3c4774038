package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-admin-api/internal/dto"
	"github.com/noah-isme/lms-admin-api/internal/service"
	"github.com/noah-isme/lms-admin-api/internal/utils"
)

// TutorHandler answers free-text questions.
type TutorHandler struct {
	service service.TutorService
	logger  zerolog.Logger
}

// NewTutorHandler constructs the handler.
func NewTutorHandler(service service.TutorService, logger zerolog.Logger) *TutorHandler {
	return &TutorHandler{
		service: service,
		logger:  logger.With().Str("component", "tutor_handler").Logger(),
	}
}

// Register attaches tutor routes.
func (h *TutorHandler) Register(router fiber.Router) {
	router.Post("/ask", h.ask)
}

func (h *TutorHandler) ask(c *fiber.Ctx) error {
	var payload dto.TutorAskRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	answer, err := h.service.Ask(c.UserContext(), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyQuestion):
			return utils.SendError(c, fiber.StatusBadRequest, "question must not be empty")
		case isValidationError(err):
			return utils.Fail(c, fiber.StatusUnprocessableEntity, "validation failed", validationDetails(err))
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to answer question")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to answer question")
		}
	}

	return utils.SendSuccess(c, "answer ready", answer)
}
