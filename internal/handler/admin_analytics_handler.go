package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-admin-api/internal/service"
	"github.com/noah-isme/lms-admin-api/internal/utils"
)

// AdminAnalyticsHandler serves the admin dashboard overview.
type AdminAnalyticsHandler struct {
	service service.AdminAnalyticsService
	logger  zerolog.Logger
}

// NewAdminAnalyticsHandler constructs the handler.
func NewAdminAnalyticsHandler(service service.AdminAnalyticsService, logger zerolog.Logger) *AdminAnalyticsHandler {
	return &AdminAnalyticsHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_analytics_handler").Logger(),
	}
}

// Register attaches the dashboard route to the router group.
func (h *AdminAnalyticsHandler) Register(router fiber.Router) {
	router.Get("", h.get)
}

func (h *AdminAnalyticsHandler) get(c *fiber.Ctx) error {
	summary, err := h.service.GetSummary(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build dashboard summary")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load dashboard")
	}

	return utils.OK(c, summary, "dashboard summary", fiber.Map{"cache_hit": summary.CacheHit})
}
