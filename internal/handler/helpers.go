package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/mockview-api/internal/middleware"
	"github.com/noah-isme/mockview-api/internal/observability"
	"github.com/noah-isme/mockview-api/internal/service"
	"github.com/noah-isme/mockview-api/internal/utils"
	"github.com/noah-isme/mockview-api/pkg/ai"
)

// FieldError describes a single failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func requestContext(c *fiber.Ctx) context.Context {
	return observability.WithCorrelationID(c.UserContext(), middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	return observability.Logger(requestContext(c), base)
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("user id must be a positive integer")
	}
	return id, nil
}

// callerMatches reports whether the bearer token, if any, names userID.
// Anonymous requests are allowed.
func callerMatches(c *fiber.Ctx, userID int64) bool {
	authenticated, ok := middleware.AuthenticatedUserID(c)
	return !ok || authenticated == userID
}

func forbidCaller(c *fiber.Ctx) error {
	return utils.SendError(c, fiber.StatusForbidden, "user id does not match the authenticated user")
}

func validationDetails(err error) []FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make([]FieldError, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details = append(details, FieldError{Field: fieldErr.Namespace(), Rule: fieldErr.Tag()})
	}
	return details
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var (
		validationErr  *service.ValidationError
		generationErr  *service.GenerationError
		persistenceErr *service.PersistenceError
	)

	switch {
	case errors.As(err, &validationErr):
		return utils.Fail(c, fiber.StatusBadRequest, validationErr.Error(), validationDetails(validationErr))
	case errors.Is(err, service.ErrInterviewNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInterviewCompleted):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.As(err, &generationErr):
		requestLogger(logger, c).Error().Err(err).Msg("model call failed")
		return utils.FailWithData(c, fiber.StatusBadGateway, "failed to generate interview questions", generationDetail(generationErr), nil)
	case errors.As(err, &persistenceErr):
		requestLogger(logger, c).Error().Err(err).Msg("record store failure")
		return utils.FailWithData(c, fiber.StatusInternalServerError, "failed to store interview", persistenceErr.Err.Error(), nil)
	default:
		requestLogger(logger, c).Error().Err(err).Msg("unexpected error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

// generationDetail keeps transport details, which may include endpoint
// URLs, out of client responses.
func generationDetail(err *service.GenerationError) string {
	if errors.Is(err, service.ErrUnexpectedResponseShape) {
		return service.ErrUnexpectedResponseShape.Error()
	}
	return ai.PublicMessage(err.Err)
}
