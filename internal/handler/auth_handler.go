package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-admin-api/internal/dto"
	"github.com/noah-isme/lms-admin-api/internal/service"
	"github.com/noah-isme/lms-admin-api/internal/utils"
)

// AuthHandler exposes admin login.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches auth routes.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/login", h.login)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	token, err := h.service.Login(c.UserContext(), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid email or password")
		case isValidationError(err):
			return utils.Fail(c, fiber.StatusUnprocessableEntity, "validation failed", validationDetails(err))
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to issue token")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to sign in")
		}
	}

	return utils.SendSuccess(c, "signed in", token)
}
