package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/mockview-api/internal/service"
	"github.com/noah-isme/mockview-api/internal/utils"
)

// InterviewHandler exposes read access to stored interviews.
type InterviewHandler struct {
	service service.InterviewService
	logger  zerolog.Logger
}

// NewInterviewHandler constructs the handler.
func NewInterviewHandler(service service.InterviewService, logger zerolog.Logger) *InterviewHandler {
	return &InterviewHandler{
		service: service,
		logger:  logger.With().Str("component", "interview_handler").Logger(),
	}
}

// Register binds the interview query routes. Static segments must be
// registered before the :id catch-all.
func (h *InterviewHandler) Register(router fiber.Router) {
	router.Get("/user/:userId", h.listByUser)
	router.Get("/:id", h.get)
}

func (h *InterviewHandler) get(c *fiber.Ctx) error {
	interview, err := h.service.Get(requestContext(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	if !callerMatches(c, interview.UserID) {
		return forbidCaller(c)
	}

	return utils.SendSuccess(c, "interview retrieved", interview)
}

func (h *InterviewHandler) listByUser(c *fiber.Ctx) error {
	userID, err := parseUserID(c.Params("userId"))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if !callerMatches(c, userID) {
		return forbidCaller(c)
	}

	interviews, err := h.service.ListByUser(requestContext(c), userID)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "interviews retrieved", interviews)
}
