package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/mockview-api/internal/dto"
	"github.com/noah-isme/mockview-api/internal/middleware"
	"github.com/noah-isme/mockview-api/internal/service"
	"github.com/noah-isme/mockview-api/internal/utils"
)

// RateLimitConfig bounds how often a caller may request new questions.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

// VapiHandler serves the endpoints called around a voice interview session.
type VapiHandler struct {
	service   service.InterviewService
	rateLimit RateLimitConfig
	logger    zerolog.Logger
}

// NewVapiHandler constructs the handler.
func NewVapiHandler(service service.InterviewService, rateLimit RateLimitConfig, logger zerolog.Logger) *VapiHandler {
	return &VapiHandler{
		service:   service,
		rateLimit: rateLimit,
		logger:    logger.With().Str("component", "vapi_handler").Logger(),
	}
}

// Register binds the voice session routes.
func (h *VapiHandler) Register(router fiber.Router) {
	router.Post("/generate", middleware.RateLimit("generate", h.rateLimit.Max, h.rateLimit.Window), h.generate)
	router.Post("/process-transcript", h.processTranscript)
}

func (h *VapiHandler) generate(c *fiber.Ctx) error {
	var req dto.GenerateInterviewRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if !callerMatches(c, req.UserID.Int64()) {
		return forbidCaller(c)
	}

	interview, err := h.service.Generate(requestContext(c), req)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "interview generated", interview)
}

func (h *VapiHandler) processTranscript(c *fiber.Ctx) error {
	var req dto.ProcessTranscriptRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if !callerMatches(c, req.UserID.Int64()) {
		return forbidCaller(c)
	}

	result, err := h.service.ProcessTranscript(requestContext(c), req)
	if err != nil {
		var persistenceErr *service.PersistenceError
		if errors.As(err, &persistenceErr) && result.InterviewID != "" {
			requestLogger(h.logger, c).Error().Err(err).Str("interview_id", result.InterviewID).Msg("feedback computed but not stored")
			return utils.FailWithData(c, fiber.StatusInternalServerError, "feedback generated but could not be saved", persistenceErr.Err.Error(), result)
		}
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "Transcript processed", result)
}
