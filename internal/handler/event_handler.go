package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/mockview-api/internal/middleware"
	"github.com/noah-isme/mockview-api/internal/service"
	"github.com/noah-isme/mockview-api/internal/utils"
)

const eventStreamUserLocal = "event_stream_user"

// EventHandler streams interview lifecycle events over a websocket.
type EventHandler struct {
	service      service.EventService
	pingInterval time.Duration
	logger       zerolog.Logger
}

// NewEventHandler constructs the handler.
func NewEventHandler(service service.EventService, pingInterval time.Duration, logger zerolog.Logger) *EventHandler {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &EventHandler{
		service:      service,
		pingInterval: pingInterval,
		logger:       logger.With().Str("component", "event_handler").Logger(),
	}
}

// Register binds the websocket route.
func (h *EventHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		userID, err := parseUserID(c.Query("userId"))
		if err != nil {
			if authenticated, ok := middleware.AuthenticatedUserID(c); ok {
				userID = authenticated
			} else {
				return utils.SendError(c, fiber.StatusBadRequest, err.Error())
			}
		}
		if !callerMatches(c, userID) {
			return forbidCaller(c)
		}

		c.Locals(eventStreamUserLocal, userID)
		return c.Next()
	})

	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *EventHandler) handleConnection(conn *websocket.Conn) {
	userID, _ := conn.Locals(eventStreamUserLocal).(int64)
	logger := h.logger.With().Int64("user_id", userID).Logger()

	events, unsubscribe := h.service.Subscribe(userID)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	logger.Info().Msg("event stream connected")
	defer logger.Info().Msg("event stream disconnected")

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug().Err(err).Msg("failed to write interview event")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				logger.Debug().Err(err).Msg("failed to ping event stream")
				return
			}
		case <-done:
			return
		}
	}
}
